// Package fuzzyts fits a high order fuzzy time series to a univariate series and forecasts it
package fuzzyts

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/aouyang1/go-fuzzyts/distribution"
	"github.com/aouyang1/go-fuzzyts/hofts"
	"github.com/aouyang1/go-fuzzyts/measures"
	"github.com/aouyang1/go-fuzzyts/partitioner"
	"github.com/aouyang1/go-fuzzyts/timedataset"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrUninitializedForecaster = errors.New("uninitialized forecaster")
	ErrNotFit                  = errors.New("forecaster has not been fit")
	ErrNoOptionsInModel        = errors.New("no options set in model")
	ErrInsufficientHistory     = errors.New("model history is shorter than its order")
	ErrInvalidFrequency        = errors.New("model frequency must be positive")
)

// Forecaster fits a fuzzy time series model and can be used to generate forecasts
type Forecaster struct {
	opt *Options

	grid  *partitioner.Grid
	model *hofts.Model[float64]

	// history holds the last order observations and the time index of the first one
	history      []float64
	historyStart int
	trainEndTime time.Time
	freq         time.Duration

	fitTrainingData *timedataset.TimeDataset
	fitResults      *Results
	scores          *measures.Scores
}

// New creates a new instance of a Forecaster using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Forecaster{opt: opt}, nil
}

// NewFromModel creates a new instance of Forecaster from a pre-existing model. This should be generated
// from a previous forecaster call to Model().
func NewFromModel(model Model) (*Forecaster, error) {
	if model.Options == nil {
		return nil, ErrNoOptionsInModel
	}
	opt, err := model.Options.Validate()
	if err != nil {
		return nil, err
	}
	if len(model.History) < opt.Model.Order {
		return nil, fmt.Errorf("history of %d for order %d, %w", len(model.History), opt.Model.Order, ErrInsufficientHistory)
	}
	if model.Frequency <= 0 {
		return nil, fmt.Errorf("got %s, %w", model.Frequency, ErrInvalidFrequency)
	}

	grid, err := partitioner.NewGridFromBounds(model.Min, model.Max, opt.Grid)
	if err != nil {
		return nil, fmt.Errorf("unable to rebuild grid partitioner, %w", err)
	}
	m, err := hofts.NewFromModel[float64](grid, hofts.Identity, hofts.Snapshot{
		Options: *opt.Model,
		Rules:   model.Rules,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to load rules, %w", err)
	}

	order := opt.Model.Order
	return &Forecaster{
		opt:          opt,
		grid:         grid,
		model:        m,
		history:      slices.Clone(model.History[len(model.History)-order:]),
		historyStart: model.HistoryStart + len(model.History) - order,
		trainEndTime: model.TrainEndTime,
		freq:         model.Frequency,
		scores:       model.Scores,
	}, nil
}

// NewGrid partitions the observed range of y widened by the margin of the options. NaNs are
// ignored.
func NewGrid(y []float64, opt *Options) (*partitioner.Grid, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	clean := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return nil, partitioner.ErrNoData
	}
	lo, hi := floats.Min(clean), floats.Max(clean)
	margin := (hi - lo) * opt.Margin
	return partitioner.NewGridFromBounds(lo-margin, hi+margin, opt.Grid)
}

// Fit partitions the observed range of y widened by the margin and trains the rules on it. NaN
// observations are dropped before training.
func (f *Forecaster) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return ErrUninitializedForecaster
	}
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}
	f.fitTrainingData = td.Copy()

	if o := f.opt.Outliers; o != nil {
		if masked := td.MaskOutliers(o.LowerPercentile, o.UpperPercentile, o.TukeyFactor); masked > 0 {
			slog.Warn("masked outliers before training", "masked", masked)
		}
	}
	clean := td.DropNan()
	if dropped := td.Len() - clean.Len(); dropped > 0 {
		slog.Warn("dropped NaN observations before training", "dropped", dropped, "remaining", clean.Len())
	}
	freq, err := clean.T.EstimateFreq()
	if err != nil {
		return fmt.Errorf("unable to infer frequency from training data, %w", err)
	}

	grid, err := NewGrid(clean.Y, f.opt)
	if err != nil {
		return fmt.Errorf("unable to partition training data, %w", err)
	}
	model, err := hofts.NewUnivariate(grid, f.opt.Model)
	if err != nil {
		return fmt.Errorf("unable to create model, %w", err)
	}
	if err := model.Train(clean.Y); err != nil {
		return fmt.Errorf("unable to train model, %w", err)
	}

	order := model.Order()
	n := clean.Len()
	f.grid = grid
	f.model = model
	f.history = slices.Clone(clean.Y[n-order:])
	f.historyStart = n - order
	f.trainEndTime = clean.T.EndTime()
	f.freq = freq

	if err := f.fitInSample(clean); err != nil {
		return err
	}
	slog.Debug("fit fuzzy time series", "observations", n, "rules", model.Len(), "sets", grid.Len())
	return nil
}

// fitInSample forecasts every training point following the first order points
func (f *Forecaster) fitInSample(td *timedataset.TimeDataset) error {
	order := f.model.Order()
	points, err := f.model.Forecast(td.Y, nil)
	if err != nil {
		return fmt.Errorf("unable to forecast training data, %w", err)
	}
	intervals, err := f.model.ForecastInterval(td.Y, nil)
	if err != nil {
		return fmt.Errorf("unable to forecast training data intervals, %w", err)
	}

	// the last forecast is past the end of the training data
	n := td.Len() - order
	res := newResults(n)
	for i := range n {
		res.T = append(res.T, td.T[order+i])
		res.Forecast = append(res.Forecast, points[i])
		res.Lower = append(res.Lower, intervals[i].Lower)
		res.Upper = append(res.Upper, intervals[i].Upper)
	}
	f.fitResults = res

	scores, err := measures.NewScores(res.Forecast, td.Y[order:])
	if err != nil {
		return fmt.Errorf("unable to score training fit, %w", err)
	}
	f.scores = scores
	return nil
}

func (f *Forecaster) ready() error {
	if f == nil {
		return ErrUninitializedForecaster
	}
	if f.model == nil {
		return ErrNotFit
	}
	return nil
}

func (f *Forecaster) forecastOptions() *hofts.ForecastOptions {
	return &hofts.ForecastOptions{TimeDisplacement: f.historyStart}
}

// Horizon returns the time points of the next n forecasts
func (f *Forecaster) Horizon(n int) ([]time.Time, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("got %d, %w", n, timedataset.ErrInvalidHorizon)
	}
	return timedataset.GenerateTFrom(f.trainEndTime.Add(f.freq), n, f.freq), nil
}

// Predict recursively forecasts horizon points past the end of the training data along with
// their interval bounds
func (f *Forecaster) Predict(horizon int) (*Results, error) {
	t, err := f.Horizon(horizon)
	if err != nil {
		return nil, err
	}
	points, err := f.model.ForecastAhead(f.history, horizon, f.forecastOptions())
	if err != nil {
		return nil, fmt.Errorf("unable to forecast ahead, %w", err)
	}
	intervals, err := f.model.ForecastAheadInterval(f.history, horizon, f.forecastOptions())
	if err != nil {
		return nil, fmt.Errorf("unable to forecast ahead intervals, %w", err)
	}

	res := newResults(horizon)
	res.T = append(res.T, t...)
	res.Forecast = append(res.Forecast, points...)
	for _, iv := range intervals {
		res.Lower = append(res.Lower, iv.Lower)
		res.Upper = append(res.Upper, iv.Upper)
	}
	return res, nil
}

// PredictDistribution recursively forecasts the probability distribution of horizon points past
// the end of the training data
func (f *Forecaster) PredictDistribution(horizon int) ([]*distribution.Distribution, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	dists, err := f.model.ForecastAheadDistribution(f.history, horizon, f.forecastOptions())
	if err != nil {
		return nil, fmt.Errorf("unable to forecast ahead distributions, %w", err)
	}
	return dists, nil
}

// Grid returns the partitioner of the fit
func (f *Forecaster) Grid() *partitioner.Grid {
	return f.grid
}

// Rules returns a human readable listing of the fit rules
func (f *Forecaster) Rules() string {
	if f.model == nil {
		return ""
	}
	return f.model.String()
}

// TrainingData returns the training data used to fit the current forecaster model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	return f.fitTrainingData
}

// FitResults returns the in sample forecasts of the training data
func (f *Forecaster) FitResults() *Results {
	return f.fitResults
}

// Scores returns the in sample fit scores
func (f *Forecaster) Scores() *measures.Scores {
	return f.scores
}

// Model generates a serializeable representation of the fit options, partitioner bounds and
// rules. This can be used to initialize a new Forecaster for immediate predictions skipping the
// training step.
func (f *Forecaster) Model() (Model, error) {
	if err := f.ready(); err != nil {
		return Model{}, err
	}
	snap, err := f.model.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch rules, %w", err)
	}
	opt := &Options{
		Grid:  f.opt.Grid,
		Model: &snap.Options,
	}
	return Model{
		TrainEndTime: f.trainEndTime,
		Frequency:    f.freq,
		Options:      opt,
		Min:          f.grid.Min(),
		Max:          f.grid.Max(),
		History:      slices.Clone(f.history),
		HistoryStart: f.historyStart,
		Scores:       f.scores,
		Rules:        snap.Rules,
	}, nil
}
