package measures

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-fuzzyts/distribution"
)

func checkDistributions(dists []*distribution.Distribution, actual []float64) error {
	if err := checkLen(len(dists), len(actual)); err != nil {
		return fmt.Errorf("distributions, %w", err)
	}
	return nil
}

// CRPS computes the mean continuous ranked probability score of histogram forecasts. Each
// forecast integrates the squared difference between its cumulative distribution and the step
// at the actual value over its bins. Lower is better.
func CRPS(dists []*distribution.Distribution, actual []float64) (float64, error) {
	if err := checkDistributions(dists, actual); err != nil {
		return 0, err
	}

	var score float64
	var n int
	for i, d := range dists {
		if d == nil || math.IsNaN(actual[i]) {
			continue
		}
		n++
		width := (d.Upper() - d.Lower()) / float64(d.Len())
		var cum, s float64
		probs := d.Probabilities()
		for j, x := range d.Bins() {
			cum += probs[j]
			var step float64
			if x >= actual[i] {
				step = 1
			}
			s += (cum - step) * (cum - step) * width
		}
		score += s
	}
	if n == 0 {
		return math.NaN(), ErrNoValues
	}
	return score / float64(n), nil
}

// Brier computes the mean Brier score of histogram forecasts against the bin holding each actual
// value. Actual values outside the bounds of a forecast count against every bin.
func Brier(dists []*distribution.Distribution, actual []float64) (float64, error) {
	if err := checkDistributions(dists, actual); err != nil {
		return 0, err
	}

	var score float64
	var n int
	for i, d := range dists {
		if d == nil || math.IsNaN(actual[i]) {
			continue
		}
		n++
		hit := -1
		if actual[i] >= d.Lower() && actual[i] <= d.Upper() {
			hit = d.BinIndex(actual[i])
		}
		var s float64
		for j, p := range d.Probabilities() {
			if j == hit {
				p -= 1
			}
			s += p * p
		}
		if hit < 0 {
			s++
		}
		score += s
	}
	if n == 0 {
		return math.NaN(), ErrNoValues
	}
	return score / float64(n), nil
}

// PinballMean computes the pinball loss averaged over the quantile levels taus, reading each
// quantile from the distributions
func PinballMean(dists []*distribution.Distribution, actual []float64, taus []float64) (float64, error) {
	if err := checkDistributions(dists, actual); err != nil {
		return 0, err
	}
	if len(taus) == 0 {
		return math.NaN(), ErrNoValues
	}

	quantile := make([]float64, len(dists))
	var total float64
	for _, tau := range taus {
		for i, d := range dists {
			quantile[i] = math.NaN()
			if d != nil {
				quantile[i] = d.Quantile(tau)
			}
		}
		loss, err := Pinball(quantile, actual, tau)
		if err != nil {
			return math.NaN(), err
		}
		total += loss
	}
	return total / float64(len(taus)), nil
}
