// Package benchmark scores fuzzy time series configurations over scrolling train and test windows
// of a series.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/aouyang1/go-fuzzyts"
	"github.com/aouyang1/go-fuzzyts/hofts"
	"github.com/aouyang1/go-fuzzyts/measures"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	ErrNoMethods        = errors.New("no methods to benchmark")
	ErrInsufficientTest = errors.New("test window is not longer than the model order")
	ErrUnnamedMethod    = errors.New("method has no name")
	ErrDuplicateMethod  = errors.New("method name is not unique")
)

// Method is a named configuration to benchmark
type Method struct {
	Name    string           `json:"name"`
	Options *fuzzyts.Options `json:"options"`
}

// WindowResult holds the scores of one method on one window. Scores that could not be computed
// are NaN and Err is set when the window failed entirely.
type WindowResult struct {
	Method string `json:"method"`
	Window Window `json:"window"`

	// Rules is the number of rules learned on the training part
	Rules int `json:"rules"`

	RMSE       float64 `json:"rmse"`
	SMAPE      float64 `json:"smape"`
	TheilU     float64 `json:"theil_u"`
	Sharpness  float64 `json:"sharpness"`
	Resolution float64 `json:"resolution"`
	Coverage   float64 `json:"coverage"`
	Winkler    float64 `json:"winkler"`
	CRPS       float64 `json:"crps"`
	Pinball    float64 `json:"pinball"`

	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

func failedResult(method string, w Window, err error) WindowResult {
	nan := math.NaN()
	return WindowResult{
		Method:     method,
		Window:     w,
		RMSE:       nan,
		SMAPE:      nan,
		TheilU:     nan,
		Sharpness:  nan,
		Resolution: nan,
		Coverage:   nan,
		Winkler:    nan,
		CRPS:       nan,
		Pinball:    nan,
		Err:        err,
	}
}

// Runner evaluates methods over sliding windows and exports its progress as prometheus metrics
type Runner struct {
	opt      *Options
	registry *prometheus.Registry
	metrics  *Metrics
}

func NewRunner(opt *Options) (*Runner, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	return &Runner{
		opt:      opt,
		registry: reg,
		metrics:  newMetrics(reg),
	}, nil
}

// Registry returns the registry holding the runner metrics
func (r *Runner) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Runner) Options() Options {
	return *r.opt
}

func checkMethods(methods []Method) error {
	if len(methods) == 0 {
		return ErrNoMethods
	}
	seen := make(map[string]struct{}, len(methods))
	for i, m := range methods {
		if m.Name == "" {
			return fmt.Errorf("method %d, %w", i, ErrUnnamedMethod)
		}
		if _, exists := seen[m.Name]; exists {
			return fmt.Errorf("%s, %w", m.Name, ErrDuplicateMethod)
		}
		seen[m.Name] = struct{}{}
	}
	return nil
}

// Run trains and scores every method on every sliding window of data. A failing window does not
// fail the run, its scores are NaN in the report. Run only returns early when ctx is done.
func (r *Runner) Run(ctx context.Context, data []float64, methods []Method) (*Report, error) {
	if err := checkMethods(methods); err != nil {
		return nil, err
	}
	windows, err := Windows(len(data), r.opt.WindowSize, r.opt.TrainRate, r.opt.IncrementRate)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:      uuid.New().String(),
		Started: time.Now(),
		Methods: methods,
		Windows: windows,
		Results: make([]WindowResult, len(methods)*len(windows)),
	}
	r.metrics.Runs.Inc()

	total := len(report.Results)
	slog.Info("starting benchmark", "job", report.ID, "methods", len(methods), "windows", len(windows))

	var done atomic.Int64
	progress := rate.Sometimes{Interval: time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opt.Concurrency)
	for mi, m := range methods {
		for wi, w := range windows {
			idx := mi*len(windows) + wi
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				res := r.evaluate(m, w, data)
				report.Results[idx] = res

				n := done.Add(1)
				progress.Do(func() {
					slog.Info("benchmark progress", "job", report.ID, "done", n, "total", total)
				})
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("benchmark %s interrupted, %w", report.ID, err)
	}

	report.Elapsed = time.Since(report.Started)
	report.Summaries = summarize(methods, report.Results)
	slog.Info("finished benchmark", "job", report.ID, "elapsed", report.Elapsed)
	return report, nil
}

func (r *Runner) evaluate(m Method, w Window, data []float64) (res WindowResult) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res = failedResult(m.Name, w, fmt.Errorf("panic: %v", p))
		}
		res.Duration = time.Since(start)

		status := statusOK
		if res.Err != nil {
			status = statusFailed
			slog.Warn("window failed", "method", m.Name, "window", w.Index, "error", res.Err)
		}
		r.metrics.Windows.WithLabelValues(m.Name, status).Inc()
		r.metrics.Duration.WithLabelValues(m.Name).Observe(res.Duration.Seconds())
	}()

	res, err := Score(data[w.Start:w.TrainEnd], data[w.TrainEnd:w.End], m.Options, r.opt)
	if err != nil {
		return failedResult(m.Name, w, err)
	}
	res.Method = m.Name
	res.Window = w
	return res
}

// orNaN maps a measure without any valid pair to NaN
func orNaN(v float64, err error) (float64, error) {
	if errors.Is(err, measures.ErrNoValues) {
		return math.NaN(), nil
	}
	return v, err
}

// Score trains a model on train and scores its one step ahead forecasts of test
func Score(train, test []float64, opt *fuzzyts.Options, bopt *Options) (WindowResult, error) {
	var res WindowResult

	opt, err := opt.Validate()
	if err != nil {
		return res, err
	}
	bopt, err = bopt.Validate()
	if err != nil {
		return res, err
	}
	order := opt.Model.Order
	if len(test) <= order {
		return res, fmt.Errorf("%d test points for order %d, %w", len(test), order, ErrInsufficientTest)
	}

	grid, err := fuzzyts.NewGrid(train, opt)
	if err != nil {
		return res, fmt.Errorf("unable to partition training window, %w", err)
	}
	model, err := hofts.NewUnivariate(grid, opt.Model)
	if err != nil {
		return res, fmt.Errorf("unable to create model, %w", err)
	}
	if err := model.Train(train); err != nil {
		return res, fmt.Errorf("unable to train model, %w", err)
	}
	res.Rules = model.Len()

	fo := &hofts.ForecastOptions{TimeDisplacement: len(train)}
	points, err := model.Forecast(test, fo)
	if err != nil {
		return res, fmt.Errorf("unable to forecast test window, %w", err)
	}
	intervals, err := model.ForecastInterval(test, fo)
	if err != nil {
		return res, fmt.Errorf("unable to forecast test window intervals, %w", err)
	}
	dists, err := model.ForecastDistribution(test, fo)
	if err != nil {
		return res, fmt.Errorf("unable to forecast test window distributions, %w", err)
	}

	// the last forecast is past the end of the window
	actual := test[order:]
	n := len(actual)
	points = points[:n]
	dists = dists[:n]
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := range n {
		lower[i] = intervals[i].Lower
		upper[i] = intervals[i].Upper
	}

	scorers := []struct {
		name string
		fn   func() (float64, error)
		dst  *float64
	}{
		{"rmse", func() (float64, error) { return measures.RMSE(points, actual) }, &res.RMSE},
		{"smape", func() (float64, error) { return measures.SMAPE(points, actual) }, &res.SMAPE},
		{"theil u", func() (float64, error) { return measures.TheilU(points, actual) }, &res.TheilU},
		{"sharpness", func() (float64, error) { return measures.Sharpness(lower, upper, actual) }, &res.Sharpness},
		{"resolution", func() (float64, error) { return measures.Resolution(lower, upper, actual) }, &res.Resolution},
		{"coverage", func() (float64, error) { return measures.Coverage(lower, upper, actual) }, &res.Coverage},
		{"winkler", func() (float64, error) { return measures.Winkler(lower, upper, actual, bopt.Alpha) }, &res.Winkler},
		{"crps", func() (float64, error) { return measures.CRPS(dists, actual) }, &res.CRPS},
		{"pinball", func() (float64, error) { return measures.PinballMean(dists, actual, bopt.Quantiles) }, &res.Pinball},
	}
	for _, s := range scorers {
		v, err := orNaN(s.fn())
		if err != nil {
			return res, fmt.Errorf("unable to compute %s, %w", s.name, err)
		}
		*s.dst = v
	}
	return res, nil
}
