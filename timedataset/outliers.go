package timedataset

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// DetectOutliers returns the indices of values outside the [lowerPerc, upperPerc] percentile range
// widened by tukeyFactor times its width on both ends. NaNs are never outliers.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	sorted := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 || lowerPerc >= upperPerc {
		return nil
	}
	slices.Sort(sorted)

	lower := stat.Quantile(lowerPerc, stat.Empirical, sorted, nil)
	upper := stat.Quantile(upperPerc, stat.Empirical, sorted, nil)
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i, v := range y {
		if v > upper || v < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

// MaskOutliers replaces the outliers found by DetectOutliers with NaN and returns how many were
// masked
func (td *TimeDataset) MaskOutliers(lowerPerc, upperPerc, tukeyFactor float64) int {
	if td == nil {
		return 0
	}
	idx := DetectOutliers(td.Y, lowerPerc, upperPerc, tukeyFactor)
	for _, i := range idx {
		td.Y[i] = math.NaN()
	}
	return len(idx)
}
