// Package timedataset validates time indexed series and generates synthetic ones for tests and
// benchmarks
package timedataset

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrInvalidSplit       = errors.New("split index out of range")
)

// TimeDataset represents a time series storing a slice of time points and values.
// Both must be of the same length.
type TimeDataset struct {
	T TimeSlice
	Y []float64
}

// NewUnivariateDataset returns an instance of a TimeDataset given a time and value slice. Time
// must be strictly increasing. Values may contain NaNs.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
	}

	td := &TimeDataset{
		T: slices.Clone(TimeSlice(t)),
		Y: slices.Clone(y),
	}
	return td, nil
}

// NewIndexedDataset creates a dataset for values without timestamps. Points are placed interval
// apart starting at the unix epoch.
func NewIndexedDataset(y []float64, interval time.Duration) (*TimeDataset, error) {
	return NewUnivariateDataset(GenerateTFrom(time.Unix(0, 0).UTC(), len(y), interval), y)
}

func (td *TimeDataset) Copy() *TimeDataset {
	return &TimeDataset{
		T: slices.Clone(td.T),
		Y: slices.Clone(td.Y),
	}
}

// DropNan returns a copy without the observations whose value is NaN
func (td *TimeDataset) DropNan() *TimeDataset {
	if td == nil {
		return nil
	}
	out := &TimeDataset{
		T: make(TimeSlice, 0, len(td.T)),
		Y: make([]float64, 0, len(td.Y)),
	}
	for i, y := range td.Y {
		if math.IsNaN(y) {
			continue
		}
		out.T = append(out.T, td.T[i])
		out.Y = append(out.Y, y)
	}
	return out
}

// Len returns the number of observations
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.Y)
}

// Slice returns a copy of the observations in [start, end)
func (td *TimeDataset) Slice(start, end int) (*TimeDataset, error) {
	if start < 0 || end > td.Len() || start >= end {
		return nil, fmt.Errorf("[%d, %d) of %d, %w", start, end, td.Len(), ErrInvalidSplit)
	}
	return &TimeDataset{
		T: slices.Clone(td.T[start:end]),
		Y: slices.Clone(td.Y[start:end]),
	}, nil
}

// Split divides the dataset into the first n observations and the remainder
func (td *TimeDataset) Split(n int) (*TimeDataset, *TimeDataset, error) {
	train, err := td.Slice(0, n)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to split training data, %w", err)
	}
	test, err := td.Slice(n, td.Len())
	if err != nil {
		return nil, nil, fmt.Errorf("unable to split test data, %w", err)
	}
	return train, test, nil
}
