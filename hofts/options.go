package hofts

import (
	"fmt"

	"github.com/aouyang1/go-fuzzyts/distribution"
	"github.com/aouyang1/go-fuzzyts/flrg"
)

const (
	DefaultOrder      = 2
	DefaultWindowSize = 1
	DefaultSmoothing  = 0.01
)

// Options configures a high order non-stationary model
type Options struct {
	// Order is the number of lags on the left hand side of every rule
	Order int `json:"order"`

	// AlphaCut discards fuzzy sets whose membership is not strictly greater than it
	AlphaCut float64 `json:"alpha_cut"`

	// WindowSize groups time indices into windows sharing the same perturbation
	WindowSize int `json:"window_size"`

	// MaxCandidatesPerLag keeps only the highest membership sets at every lag, 0 keeps all
	MaxCandidatesPerLag int `json:"max_candidates_per_lag"`

	// Smoothing widens ahead forecasts linearly with the number of steps ahead
	Smoothing float64 `json:"smoothing"`

	// DistributionBins is the number of histogram bins of distribution forecasts
	DistributionBins int `json:"distribution_bins"`
}

// NewDefaultOptions returns a second order model with no alpha cut
func NewDefaultOptions() *Options {
	return &Options{
		Order:            DefaultOrder,
		WindowSize:       DefaultWindowSize,
		Smoothing:        DefaultSmoothing,
		DistributionBins: distribution.DefaultBins,
	}
}

// Validate fills in zero valued defaults and rejects invalid hyperparameters
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	v := *o
	if v.Order < 1 || v.Order > flrg.MaxOrder {
		return nil, fmt.Errorf("order %d not in [1, %d], %w", v.Order, flrg.MaxOrder, ErrInvalidOrder)
	}
	if v.AlphaCut < 0 || v.AlphaCut >= 1 {
		return nil, fmt.Errorf("alpha cut %v not in [0, 1), %w", v.AlphaCut, ErrInvalidAlphaCut)
	}
	if v.Smoothing < 0 {
		return nil, fmt.Errorf("smoothing %v is negative, %w", v.Smoothing, ErrInvalidSmoothing)
	}
	if v.WindowSize <= 0 {
		v.WindowSize = DefaultWindowSize
	}
	if v.MaxCandidatesPerLag < 0 {
		v.MaxCandidatesPerLag = 0
	}
	if v.DistributionBins <= 0 {
		v.DistributionBins = distribution.DefaultBins
	}
	return &v, nil
}

// ForecastOptions controls the non-stationary context of a forecast call
type ForecastOptions struct {
	// TimeDisplacement offsets the time index of every sample
	TimeDisplacement int `json:"time_displacement"`

	// WindowSize overrides the model window size when positive
	WindowSize int `json:"window_size"`
}

func (m *Model[T]) forecastOptions(fo *ForecastOptions) ForecastOptions {
	var out ForecastOptions
	if fo != nil {
		out = *fo
	}
	if out.WindowSize <= 0 {
		out.WindowSize = m.opt.WindowSize
	}
	return out
}

// window returns the first time index of the window containing t
func window(t, windowSize int) int {
	if windowSize <= 1 {
		return t
	}
	mod := ((t % windowSize) + windowSize) % windowSize
	return t - mod
}
