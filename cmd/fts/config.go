package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aouyang1/go-fuzzyts"
	"github.com/aouyang1/go-fuzzyts/benchmark"
	"github.com/aouyang1/go-fuzzyts/datepart"
	"github.com/aouyang1/go-fuzzyts/hofts"
	"github.com/aouyang1/go-fuzzyts/hyperparam"
	"github.com/aouyang1/go-fuzzyts/measures"
	"github.com/aouyang1/go-fuzzyts/membership"
	"github.com/aouyang1/go-fuzzyts/multivariate"
	"github.com/aouyang1/go-fuzzyts/partitioner"
	"github.com/pelletier/go-toml/v2"
)

var ErrNoValueColumn = errors.New("no value column configured")

type inputConfig struct {
	Path       string `toml:"path"`
	Header     bool   `toml:"header"`
	Column     string `toml:"column"`
	TimeColumn string `toml:"time_column"`
	TimeLayout string `toml:"time_layout"`

	// Interval spaces observations when the input has no time column
	Interval duration `toml:"interval"`
}

type gridConfig struct {
	Partitions int             `toml:"partitions"`
	MF         membership.Func `toml:"membership"`
	Prefix     string          `toml:"prefix"`
}

type modelConfig struct {
	Order               int     `toml:"order"`
	AlphaCut            float64 `toml:"alpha_cut"`
	WindowSize          int     `toml:"window_size"`
	MaxCandidatesPerLag int     `toml:"max_candidates_per_lag"`
	Smoothing           float64 `toml:"smoothing"`
	DistributionBins    int     `toml:"distribution_bins"`
}

type outlierConfig struct {
	LowerPercentile float64 `toml:"lower_percentile"`
	UpperPercentile float64 `toml:"upper_percentile"`
	TukeyFactor     float64 `toml:"tukey_factor"`
}

type methodConfig struct {
	Name   string      `toml:"name"`
	Grid   gridConfig  `toml:"grid"`
	Model  modelConfig `toml:"model"`
	Margin float64     `toml:"margin"`
}

type benchmarkConfig struct {
	WindowSize    int       `toml:"window_size"`
	TrainRate     float64   `toml:"train_rate"`
	IncrementRate float64   `toml:"increment_rate"`
	Concurrency   int       `toml:"concurrency"`
	Alpha         float64   `toml:"alpha"`
	Quantiles     []float64 `toml:"quantiles"`
}

type searchConfig struct {
	Generations int     `toml:"generations"`
	MaxStale    int     `toml:"max_stale"`
	Population  int     `toml:"population"`
	Selection   float64 `toml:"selection"`
	Crossover   float64 `toml:"crossover"`
	Mutation    float64 `toml:"mutation"`
	Seed        uint64  `toml:"seed"`
}

// seasonalConfig adds the date parts of the timestamps as explanatory variables. The forecast
// bounds are the alpha/2 and 1-alpha/2 quantiles of each distribution.
type seasonalConfig struct {
	DateParts []datepart.DatePart `toml:"date_parts"`
	Neighbors int                 `toml:"neighbors"`
	Alpha     float64             `toml:"alpha"`
}

type config struct {
	Input     inputConfig     `toml:"input"`
	Grid      gridConfig      `toml:"grid"`
	Model     modelConfig     `toml:"model"`
	Margin    float64         `toml:"margin"`
	Outliers  *outlierConfig  `toml:"outliers"`
	Benchmark benchmarkConfig `toml:"benchmark"`
	Search    searchConfig    `toml:"search"`
	Seasonal  seasonalConfig  `toml:"seasonal"`
	Methods   []methodConfig  `toml:"methods"`
}

// duration decodes strings such as "15m" from toml
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func newDefaultConfig() *config {
	opt := fuzzyts.NewDefaultOptions()
	bopt := benchmark.NewDefaultOptions()
	sopt := hyperparam.NewDefaultOptions()
	return &config{
		Input: inputConfig{
			Header:     true,
			Column:     "value",
			TimeLayout: time.RFC3339,
			Interval:   duration{time.Minute},
		},
		Grid: gridConfig{
			Partitions: opt.Grid.Partitions,
			MF:         opt.Grid.MF,
			Prefix:     opt.Grid.Prefix,
		},
		Model: modelConfig{
			Order:            opt.Model.Order,
			WindowSize:       opt.Model.WindowSize,
			Smoothing:        opt.Model.Smoothing,
			DistributionBins: opt.Model.DistributionBins,
		},
		Margin: opt.Margin,
		Benchmark: benchmarkConfig{
			WindowSize:    bopt.WindowSize,
			TrainRate:     bopt.TrainRate,
			IncrementRate: bopt.IncrementRate,
			Alpha:         bopt.Alpha,
			Quantiles:     bopt.Quantiles,
		},
		Search: searchConfig{
			Generations: sopt.Generations,
			MaxStale:    sopt.MaxStale,
			Population:  sopt.Population,
			Selection:   sopt.Selection,
			Crossover:   sopt.Crossover,
			Mutation:    sopt.Mutation,
		},
		Seasonal: seasonalConfig{
			Neighbors: partitioner.DefaultNeighbors,
			Alpha:     bopt.Alpha,
		},
	}
}

// loadConfig overlays the toml file at path on the defaults. An empty path returns the defaults.
func loadConfig(path string) (*config, error) {
	cfg := newDefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config, %w", err)
	}
	if err := toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config %s, %w", path, err)
	}
	if cfg.Input.Column == "" {
		return nil, ErrNoValueColumn
	}
	return cfg, nil
}

func newOptions(g gridConfig, m modelConfig, margin float64) (*fuzzyts.Options, error) {
	opt := &fuzzyts.Options{
		Grid: &partitioner.GridOptions{
			Partitions: g.Partitions,
			MF:         g.MF,
			Prefix:     g.Prefix,
		},
		Model: &hofts.Options{
			Order:               m.Order,
			AlphaCut:            m.AlphaCut,
			WindowSize:          m.WindowSize,
			MaxCandidatesPerLag: m.MaxCandidatesPerLag,
			Smoothing:           m.Smoothing,
			DistributionBins:    m.DistributionBins,
		},
		Margin: margin,
	}
	return opt.Validate()
}

// options returns the top level model options. Outlier masking only applies to training.
func (c *config) options() (*fuzzyts.Options, error) {
	opt, err := newOptions(c.Grid, c.Model, c.Margin)
	if err != nil {
		return nil, err
	}
	if c.Outliers != nil {
		opt.Outliers = &fuzzyts.OutlierOptions{
			LowerPercentile: c.Outliers.LowerPercentile,
			UpperPercentile: c.Outliers.UpperPercentile,
			TukeyFactor:     c.Outliers.TukeyFactor,
		}
	}
	return opt.Validate()
}

// methods returns the configured benchmark methods or the top level model as the only one
func (c *config) methods() ([]benchmark.Method, error) {
	if len(c.Methods) == 0 {
		opt, err := c.options()
		if err != nil {
			return nil, err
		}
		return []benchmark.Method{{Name: "default", Options: opt}}, nil
	}

	methods := make([]benchmark.Method, 0, len(c.Methods))
	for _, m := range c.Methods {
		m = c.inherit(m)
		opt, err := newOptions(m.Grid, m.Model, m.Margin)
		if err != nil {
			return nil, fmt.Errorf("method %s, %w", m.Name, err)
		}
		methods = append(methods, benchmark.Method{Name: m.Name, Options: opt})
	}
	return methods, nil
}

// inherit fills the zero valued settings of a method from the top level model
func (c *config) inherit(m methodConfig) methodConfig {
	if m.Grid.Partitions == 0 {
		m.Grid.Partitions = c.Grid.Partitions
	}
	if m.Grid.Prefix == "" {
		m.Grid.Prefix = c.Grid.Prefix
	}
	if m.Model.Order == 0 {
		m.Model.Order = c.Model.Order
	}
	if m.Model.Smoothing == 0 {
		m.Model.Smoothing = c.Model.Smoothing
	}
	if m.Margin == 0 {
		m.Margin = c.Margin
	}
	return m
}

func (c *config) benchmarkOptions() *benchmark.Options {
	return &benchmark.Options{
		WindowSize:    c.Benchmark.WindowSize,
		TrainRate:     c.Benchmark.TrainRate,
		IncrementRate: c.Benchmark.IncrementRate,
		Concurrency:   c.Benchmark.Concurrency,
		Alpha:         c.Benchmark.Alpha,
		Quantiles:     c.Benchmark.Quantiles,
	}
}

func (c *config) searchOptions() (*hyperparam.Options, error) {
	base, err := c.options()
	if err != nil {
		return nil, err
	}
	opt := hyperparam.NewDefaultOptions()
	opt.Generations = c.Search.Generations
	opt.MaxStale = c.Search.MaxStale
	opt.Population = c.Search.Population
	opt.Selection = c.Search.Selection
	opt.Crossover = c.Search.Crossover
	opt.Mutation = c.Search.Mutation
	opt.Seed = c.Search.Seed
	opt.Base = base
	opt.Benchmark = c.benchmarkOptions()
	return opt.Validate()
}

// seasonalOptions uses the top level grid and model for the target variable
func (c *config) seasonalOptions() (*multivariate.SeasonalOptions, error) {
	if a := c.Seasonal.Alpha; !(a > 0 && a < 1) {
		return nil, fmt.Errorf("seasonal alpha %.3f, %w", a, measures.ErrInvalidAlpha)
	}
	if len(c.Seasonal.DateParts) == 0 {
		return nil, multivariate.ErrNoDateParts
	}
	opt, err := newOptions(c.Grid, c.Model, c.Margin)
	if err != nil {
		return nil, err
	}
	return &multivariate.SeasonalOptions{
		Target:    opt.Grid,
		DateParts: c.Seasonal.DateParts,
		Neighbors: c.Seasonal.Neighbors,
		Model:     opt.Model,
	}, nil
}

// withGenotype returns a copy of the config using the hyperparameters of g
func (c *config) withGenotype(g hyperparam.Genotype) *config {
	out := *c
	out.Methods = nil
	out.Grid.MF = g.MF
	out.Grid.Partitions = g.Partitions
	out.Model.Order = g.Order
	out.Model.AlphaCut = g.AlphaCut
	return &out
}

func (c *config) encode() ([]byte, error) {
	return toml.Marshal(c)
}
