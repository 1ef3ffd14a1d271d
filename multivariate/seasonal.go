package multivariate

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-fuzzyts/datepart"
	"github.com/aouyang1/go-fuzzyts/distribution"
	"github.com/aouyang1/go-fuzzyts/hofts"
	"github.com/aouyang1/go-fuzzyts/membership"
	"github.com/aouyang1/go-fuzzyts/partitioner"
	"github.com/aouyang1/go-fuzzyts/timedataset"
)

var (
	ErrNoDateParts     = errors.New("no date parts configured")
	ErrAcyclicDatePart = errors.New("date part has no cycle to use as a seasonal variable")
)

// maxSeasonalPartitions bounds the sets of a date part variable, one per unit of its cycle
const maxSeasonalPartitions = 24

// SeasonalOptions configures a model forecasting a series from its own lags together with date
// parts of its timestamps
type SeasonalOptions struct {
	Target    *partitioner.GridOptions `json:"target"`
	DateParts []datepart.DatePart      `json:"date_parts"`
	Neighbors int                      `json:"neighbors"`
	Model     *hofts.Options           `json:"model"`
}

// NewDefaultSeasonalOptions returns a default target grid and model with the given date parts
func NewDefaultSeasonalOptions(parts ...datepart.DatePart) *SeasonalOptions {
	return &SeasonalOptions{
		Target:    partitioner.NewDefaultGridOptions(),
		DateParts: parts,
		Neighbors: partitioner.DefaultNeighbors,
		Model:     hofts.NewDefaultOptions(),
	}
}

// clusterOptions puts the target first followed by one triangular grid per date part
func (o *SeasonalOptions) clusterOptions() (*partitioner.ClusterOptions, error) {
	if len(o.DateParts) == 0 {
		return nil, ErrNoDateParts
	}
	target := partitioner.NewDefaultGridOptions()
	if o.Target != nil {
		cp := *o.Target
		target = &cp
	}
	opt := &partitioner.ClusterOptions{
		Variables: []*partitioner.GridOptions{target},
		Target:    0,
		Neighbors: o.Neighbors,
	}
	for _, p := range o.DateParts {
		period := p.Period()
		if period <= 0 {
			return nil, fmt.Errorf("%s, %w", p, ErrAcyclicDatePart)
		}
		opt.Variables = append(opt.Variables, &partitioner.GridOptions{
			Partitions: min(int(period), maxSeasonalPartitions),
			MF:         membership.Triangular,
			DatePart:   p,
		})
	}
	return opt, nil
}

// TimeRows builds one row per observation holding y followed by every date part of its timestamp
func TimeRows(t []time.Time, y []float64, parts []datepart.DatePart) ([][]float64, error) {
	if len(t) != len(y) {
		return nil, fmt.Errorf("%d times for %d values, %w", len(t), len(y), timedataset.ErrDatasetLenMismatch)
	}
	rows := make([][]float64, len(y))
	for i := range y {
		row := make([]float64, 0, len(parts)+1)
		row = append(row, y[i])
		for _, p := range parts {
			x, err := p.Strip(t[i])
			if err != nil {
				return nil, err
			}
			row = append(row, x)
		}
		rows[i] = row
	}
	return rows, nil
}

// DatePartGenerator advances a date part variable along a regular time grid. start is the
// timestamp of the first row of the history handed to the generator, so the generated row falls
// len(history) intervals after it.
func DatePartGenerator(part datepart.DatePart, start time.Time, interval time.Duration) Generator {
	return func(history []float64) float64 {
		x, err := part.Strip(start.Add(time.Duration(len(history)) * interval))
		if err != nil {
			return math.NaN()
		}
		return x
	}
}

// Seasonal is a clustered multivariate model whose explanatory variables are date parts of the
// series timestamps. Ahead forecasts derive the date parts of future rows from the training
// frequency.
type Seasonal struct {
	opt   SeasonalOptions
	model *Model

	rows  [][]float64
	times timedataset.TimeSlice
	freq  time.Duration
}

// NewSeasonal creates an untrained seasonal model
func NewSeasonal(opt *SeasonalOptions) (*Seasonal, error) {
	if opt == nil {
		return nil, ErrNoDateParts
	}
	copt, err := opt.clusterOptions()
	if err != nil {
		return nil, err
	}
	m, err := New(&Options{Cluster: copt, Model: opt.Model})
	if err != nil {
		return nil, err
	}
	return &Seasonal{opt: *opt, model: m}, nil
}

// Fit trains on the non NaN observations of the series
func (s *Seasonal) Fit(t []time.Time, y []float64) error {
	if s == nil || s.model == nil {
		return ErrUninitializedModel
	}
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}
	td = td.DropNan()
	freq, err := td.T.EstimateFreq()
	if err != nil {
		return fmt.Errorf("unable to infer frequency from training data, %w", err)
	}
	rows, err := TimeRows(td.T, td.Y, s.opt.DateParts)
	if err != nil {
		return err
	}
	if err := s.model.Train(rows); err != nil {
		return err
	}
	s.rows = rows
	s.times = td.T
	s.freq = freq
	return nil
}

// Model returns the trained multivariate model
func (s *Seasonal) Model() *Model {
	if s == nil {
		return nil
	}
	return s.model
}

// Frequency is the sampling interval estimated from the training timestamps
func (s *Seasonal) Frequency() time.Duration {
	return s.freq
}

func (s *Seasonal) generators() map[int]Generator {
	start := s.times[len(s.times)-s.model.engine.Order()]
	gens := make(map[int]Generator, len(s.opt.DateParts))
	for i, p := range s.opt.DateParts {
		gens[i+1] = DatePartGenerator(p, start, s.freq)
	}
	return gens
}

// Predict forecasts horizon steps past the training data and returns their timestamps with
// the forecast distributions
func (s *Seasonal) Predict(horizon int) (timedataset.TimeSlice, []*distribution.Distribution, error) {
	if s == nil || s.model == nil {
		return nil, nil, ErrUninitializedModel
	}
	if err := s.model.ready(); err != nil {
		return nil, nil, err
	}
	times, err := s.times.Horizon(horizon)
	if err != nil {
		return nil, nil, err
	}
	dists, err := s.model.ForecastAheadDistribution(s.rows, horizon, s.generators(), nil)
	if err != nil {
		return nil, nil, err
	}
	return times, dists, nil
}
