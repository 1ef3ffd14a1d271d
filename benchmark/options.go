package benchmark

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
	ErrInvalidQuantile    = errors.New("quantile not in (0, 1)")
	ErrInvalidAlpha       = errors.New("alpha not in (0, 1)")
)

const (
	DefaultWindowSize    = 800
	DefaultTrainRate     = 0.8
	DefaultIncrementRate = 0.2
	DefaultAlpha         = 0.05
)

// Options configures the sliding window evaluation of a benchmark run
type Options struct {
	WindowSize    int     `json:"window_size"`
	TrainRate     float64 `json:"train_rate"`
	IncrementRate float64 `json:"increment_rate"`

	// Concurrency bounds the number of windows evaluated at once
	Concurrency int `json:"concurrency"`

	// Quantiles scored with the pinball loss of distribution forecasts
	Quantiles []float64 `json:"quantiles"`

	// Alpha is the significance of the Winkler score of interval forecasts
	Alpha float64 `json:"alpha"`
}

func NewDefaultOptions() *Options {
	return &Options{
		WindowSize:    DefaultWindowSize,
		TrainRate:     DefaultTrainRate,
		IncrementRate: DefaultIncrementRate,
		Concurrency:   runtime.GOMAXPROCS(0),
		Quantiles:     []float64{0.05, 0.25, 0.75, 0.95},
		Alpha:         DefaultAlpha,
	}
}

// Validate fills in zero valued defaults. Window rates are checked when the windows are built.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	v := *o
	def := NewDefaultOptions()
	if v.WindowSize == 0 {
		v.WindowSize = def.WindowSize
	}
	if v.TrainRate == 0 {
		v.TrainRate = def.TrainRate
	}
	if v.IncrementRate == 0 {
		v.IncrementRate = def.IncrementRate
	}
	if v.Concurrency == 0 {
		v.Concurrency = def.Concurrency
	}
	if v.Concurrency < 0 {
		return nil, fmt.Errorf("got %d, %w", v.Concurrency, ErrInvalidConcurrency)
	}
	if v.Alpha == 0 {
		v.Alpha = def.Alpha
	}
	if v.Alpha < 0 || v.Alpha >= 1 {
		return nil, fmt.Errorf("got %.3f, %w", v.Alpha, ErrInvalidAlpha)
	}
	if len(v.Quantiles) == 0 {
		v.Quantiles = def.Quantiles
	}
	for _, q := range v.Quantiles {
		if q <= 0 || q >= 1 {
			return nil, fmt.Errorf("got %.3f, %w", q, ErrInvalidQuantile)
		}
	}
	return &v, nil
}
