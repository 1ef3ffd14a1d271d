package fuzzyts

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-fuzzyts/hofts"
	"github.com/aouyang1/go-fuzzyts/partitioner"
)

var (
	ErrInvalidMargin   = errors.New("margin must not be negative")
	ErrInvalidOutliers = errors.New("invalid outlier percentiles or factor")
)

const DefaultMargin = 0.1

// Options configures the partitioning of the universe of discourse and the high order model
type Options struct {
	Grid  *partitioner.GridOptions `json:"grid"`
	Model *hofts.Options           `json:"model"`

	// Margin widens the observed range by this fraction of it on both ends before partitioning
	// so the extreme observations are not on the edge of the outer sets
	Margin float64 `json:"margin"`

	// Outliers masks observations far from the inter percentile range before training, nil keeps
	// every observation
	Outliers *OutlierOptions `json:"outliers,omitempty"`
}

// OutlierOptions bounds the observations kept for training to the [LowerPercentile,
// UpperPercentile] range widened by TukeyFactor times its width
type OutlierOptions struct {
	LowerPercentile float64 `json:"lower_percentile"`
	UpperPercentile float64 `json:"upper_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

// NewDefaultOutlierOptions returns the Tukey fences at 1.5 times the interquartile range
func NewDefaultOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		LowerPercentile: 0.25,
		UpperPercentile: 0.75,
		TukeyFactor:     1.5,
	}
}

func (o *OutlierOptions) validate() error {
	if o == nil {
		return nil
	}
	if o.LowerPercentile < 0 || o.UpperPercentile > 1 || o.LowerPercentile >= o.UpperPercentile {
		return fmt.Errorf("percentiles [%.3f, %.3f], %w", o.LowerPercentile, o.UpperPercentile, ErrInvalidOutliers)
	}
	if o.TukeyFactor < 0 {
		return fmt.Errorf("tukey factor %.3f, %w", o.TukeyFactor, ErrInvalidOutliers)
	}
	return nil
}

// NewDefaultOptions returns 10 triangular partitions with a second order model
func NewDefaultOptions() *Options {
	return &Options{
		Grid:   partitioner.NewDefaultGridOptions(),
		Model:  hofts.NewDefaultOptions(),
		Margin: DefaultMargin,
	}
}

// Validate returns a copy of the options with defaults filled in
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if o.Margin < 0 {
		return nil, fmt.Errorf("got %.3f, %w", o.Margin, ErrInvalidMargin)
	}
	if err := o.Outliers.validate(); err != nil {
		return nil, err
	}
	grid, err := o.Grid.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to validate grid options, %w", err)
	}
	model, err := o.Model.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to validate model options, %w", err)
	}
	return &Options{
		Grid:     grid,
		Model:    model,
		Margin:   o.Margin,
		Outliers: o.Outliers,
	}, nil
}
