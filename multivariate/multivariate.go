// Package multivariate forecasts a target variable from several variables by clustering rows
// into composite fuzzy sets and delegating to a high order model trained on the composites.
package multivariate

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aouyang1/go-fuzzyts/distribution"
	"github.com/aouyang1/go-fuzzyts/hofts"
	"github.com/aouyang1/go-fuzzyts/partitioner"
)

var (
	ErrUninitializedModel      = errors.New("uninitialized multivariate model")
	ErrUntrained               = errors.New("multivariate model has not been trained")
	ErrIntervalUnsupported     = errors.New("internal model does not support interval forecasting")
	ErrDistributionUnsupported = errors.New("internal model does not support distribution forecasting")
	ErrMissingGenerators       = errors.New("missing generators for explanatory variables")
)

// Engine is the internal single target model. Interval and distribution forecasting are
// optional capabilities checked before forwarding.
type Engine interface {
	Train(rows [][]float64) error
	Forecast(rows [][]float64, fo *hofts.ForecastOptions) ([]float64, error)
	Order() int
	Len() int
	String() string
}

type intervalForecaster interface {
	ForecastInterval(rows [][]float64, fo *hofts.ForecastOptions) ([]hofts.Interval, error)
}

type distributionForecaster interface {
	ForecastDistribution(rows [][]float64, fo *hofts.ForecastOptions) ([]*distribution.Distribution, error)
}

type setUser interface {
	UsedSets() []int
}

// EngineFactory creates an untrained engine over the composite sets of a grid cluster
type EngineFactory func(cluster *partitioner.GridCluster, opt *hofts.Options) (Engine, error)

// NewHighOrderEngine is the default engine factory
func NewHighOrderEngine(cluster *partitioner.GridCluster, opt *hofts.Options) (Engine, error) {
	model, err := hofts.New[[]float64](cluster, nil, opt)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Generator returns the next value of an explanatory variable given its history
type Generator func(history []float64) float64

// Options configures the clustering and the internal model
type Options struct {
	Cluster *partitioner.ClusterOptions `json:"cluster"`
	Model   *hofts.Options              `json:"model"`
}

// Model is a clustered multivariate fuzzy time series
type Model struct {
	opt       Options
	factory   EngineFactory
	cluster   *partitioner.GridCluster
	engine    Engine
	variables int
}

// New creates an untrained model using the high order engine
func New(opt *Options) (*Model, error) {
	return NewWithEngine(opt, NewHighOrderEngine)
}

// NewWithEngine creates an untrained model using a custom engine factory
func NewWithEngine(opt *Options, factory EngineFactory) (*Model, error) {
	m := &Model{factory: factory}
	if opt != nil {
		m.opt = *opt
	}
	mopt, err := m.opt.Model.Validate()
	if err != nil {
		return nil, err
	}
	m.opt.Model = mopt
	return m, nil
}

// Train builds the grid cluster from rows, trains the internal model and prunes composites that
// no rule references
func (m *Model) Train(rows [][]float64) error {
	if m == nil || m.factory == nil {
		return ErrUninitializedModel
	}
	cluster, err := partitioner.NewGridCluster(rows, m.opt.Cluster)
	if err != nil {
		return fmt.Errorf("unable to build grid cluster, %w", err)
	}
	engine, err := m.train(cluster, rows)
	if err != nil {
		return err
	}

	if su, ok := engine.(setUser); ok {
		used := su.UsedSets()
		removed := cluster.Prune(func(i int) bool {
			_, found := slices.BinarySearch(used, i)
			return found
		})
		if removed > 0 {
			slog.Debug("pruned unused composite sets", "removed", removed, "remaining", cluster.Len())
			if engine, err = m.train(cluster, rows); err != nil {
				return err
			}
		}
	}

	m.cluster = cluster
	m.engine = engine
	m.variables = cluster.NumVariables()
	return nil
}

func (m *Model) train(cluster *partitioner.GridCluster, rows [][]float64) (Engine, error) {
	engine, err := m.factory(cluster, m.opt.Model)
	if err != nil {
		return nil, fmt.Errorf("unable to create internal model, %w", err)
	}
	if err := engine.Train(rows); err != nil {
		return nil, fmt.Errorf("unable to train internal model, %w", err)
	}
	return engine, nil
}

func (m *Model) ready() error {
	if m == nil {
		return ErrUninitializedModel
	}
	if m.engine == nil {
		return ErrUntrained
	}
	return nil
}

// Cluster returns the composite partitioner of the last training
func (m *Model) Cluster() *partitioner.GridCluster {
	return m.cluster
}

// Len returns the number of rules of the internal model
func (m *Model) Len() int {
	if m == nil || m.engine == nil {
		return 0
	}
	return m.engine.Len()
}

func (m *Model) String() string {
	if m == nil || m.engine == nil {
		return ""
	}
	return m.engine.String()
}

// Forecast returns point forecasts of the target variable
func (m *Model) Forecast(rows [][]float64, fo *hofts.ForecastOptions) ([]float64, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	return m.engine.Forecast(rows, fo)
}

// ForecastInterval returns interval forecasts of the target variable if the internal model
// supports them
func (m *Model) ForecastInterval(rows [][]float64, fo *hofts.ForecastOptions) ([]hofts.Interval, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	ifc, ok := m.engine.(intervalForecaster)
	if !ok {
		return nil, ErrIntervalUnsupported
	}
	return ifc.ForecastInterval(rows, fo)
}

// ForecastDistribution returns distribution forecasts of the target variable if the internal
// model supports them
func (m *Model) ForecastDistribution(rows [][]float64, fo *hofts.ForecastOptions) ([]*distribution.Distribution, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	df, ok := m.engine.(distributionForecaster)
	if !ok {
		return nil, ErrDistributionUnsupported
	}
	return df.ForecastDistribution(rows, fo)
}

func (m *Model) checkGenerators(generators map[int]Generator) error {
	target := m.cluster.Target()
	var missing []int
	for v := range m.variables {
		if v == target {
			continue
		}
		if generators[v] == nil {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("variables %v, %w", missing, ErrMissingGenerators)
	}
	return nil
}

// nextRow builds the row following history from the generators and the target forecast
func (m *Model) nextRow(history [][]float64, target float64, generators map[int]Generator) []float64 {
	row := make([]float64, m.variables)
	col := make([]float64, len(history))
	for v := range row {
		if v == m.cluster.Target() {
			row[v] = target
			continue
		}
		for i, h := range history {
			col[i] = h[v]
		}
		row[v] = generators[v](col)
	}
	return row
}

// ahead runs the recursion shared by the ahead forecasts. step forecasts the last order rows
// and returns the value fed back as the target.
func (m *Model) ahead(rows [][]float64, steps int, fo *hofts.ForecastOptions, generators map[int]Generator, step func(sample [][]float64, fo *hofts.ForecastOptions) (float64, error)) error {
	if err := m.ready(); err != nil {
		return err
	}
	if steps <= 0 {
		return hofts.ErrInvalidSteps
	}
	if err := m.checkGenerators(generators); err != nil {
		return err
	}
	order := m.engine.Order()
	if len(rows) < order {
		return fmt.Errorf("got %d rows for order %d, %w", len(rows), order, hofts.ErrInsufficientData)
	}

	base := hofts.ForecastOptions{}
	if fo != nil {
		base = *fo
	}
	buf := slices.Clone(rows[len(rows)-order:])
	for s := 0; s < steps; s++ {
		f := base
		f.TimeDisplacement = base.TimeDisplacement + len(rows) - order + s
		y, err := step(buf[len(buf)-order:], &f)
		if err != nil {
			return err
		}
		buf = append(buf, m.nextRow(buf, y, generators))
	}
	return nil
}

// ForecastAhead recursively forecasts the target steps rows past the end of rows. Explanatory
// variables are advanced by their generators.
func (m *Model) ForecastAhead(rows [][]float64, steps int, generators map[int]Generator, fo *hofts.ForecastOptions) ([]float64, error) {
	out := make([]float64, 0, max(steps, 0))
	err := m.ahead(rows, steps, fo, generators, func(sample [][]float64, f *hofts.ForecastOptions) (float64, error) {
		res, err := m.engine.Forecast(sample, f)
		if err != nil {
			return 0, err
		}
		y := res[len(res)-1]
		out = append(out, y)
		return y, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ForecastAheadDistribution recursively forecasts target distributions steps rows past the end
// of rows feeding back their expected values. Explanatory variables are advanced by their
// generators.
func (m *Model) ForecastAheadDistribution(rows [][]float64, steps int, generators map[int]Generator, fo *hofts.ForecastOptions) ([]*distribution.Distribution, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	df, ok := m.engine.(distributionForecaster)
	if !ok {
		return nil, ErrDistributionUnsupported
	}

	out := make([]*distribution.Distribution, 0, max(steps, 0))
	err := m.ahead(rows, steps, fo, generators, func(sample [][]float64, f *hofts.ForecastOptions) (float64, error) {
		res, err := df.ForecastDistribution(sample, f)
		if err != nil {
			return 0, err
		}
		d := res[len(res)-1]
		out = append(out, d)
		return d.Expected(), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
