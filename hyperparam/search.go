// Package hyperparam searches the hyperparameters of a fuzzy time series with a genetic algorithm
// minimizing the sliding window forecast error first and the model size second.
package hyperparam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/aouyang1/go-fuzzyts"
	"github.com/aouyang1/go-fuzzyts/benchmark"
	"github.com/aouyang1/go-fuzzyts/flrg"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrInvalidPopulation   = errors.New("population must have at least 2 genotypes")
	ErrInvalidGenerations  = errors.New("number of generations must be positive")
	ErrInvalidRate         = errors.New("rate not in [0, 1]")
	ErrInvalidBounds       = errors.New("invalid hyperparameter bounds")
	ErrUninitializedSearch = errors.New("uninitialized search")
)

const (
	DefaultGenerations = 30
	DefaultMaxStale    = 7
	DefaultPopulation  = 20
	DefaultSelection   = 0.5
	DefaultCrossover   = 0.5
	DefaultMutation    = 0.3

	// mutationStep raises the mutation rate after every generation without improvement
	mutationStep = 0.05

	// fitnessCacheSize bounds the number of evaluated hyperparameter sets remembered
	fitnessCacheSize = 4096
)

// Bounds limits the hyperparameters drawn and mutated by the search
type Bounds struct {
	InitialPartitions [2]int  `json:"initial_partitions"`
	InitialMaxOrder   int     `json:"initial_max_order"`
	MinPartitions     int     `json:"min_partitions"`
	MaxPartitions     int     `json:"max_partitions"`
	MaxOrder          int     `json:"max_order"`
	MaxAlphaCut       float64 `json:"max_alpha_cut"`
}

func NewDefaultBounds() Bounds {
	return Bounds{
		InitialPartitions: [2]int{10, 100},
		InitialMaxOrder:   3,
		MinPartitions:     3,
		MaxPartitions:     100,
		MaxOrder:          5,
		MaxAlphaCut:       0.5,
	}
}

func (b Bounds) validate() error {
	if b.InitialPartitions[0] < 1 || b.InitialPartitions[1] < b.InitialPartitions[0] {
		return fmt.Errorf("initial partitions %v, %w", b.InitialPartitions, ErrInvalidBounds)
	}
	if b.MinPartitions < 1 || b.MaxPartitions < b.MinPartitions {
		return fmt.Errorf("partitions [%d, %d], %w", b.MinPartitions, b.MaxPartitions, ErrInvalidBounds)
	}
	if b.InitialMaxOrder < 1 || b.MaxOrder < 1 {
		return fmt.Errorf("orders %d and %d, %w", b.InitialMaxOrder, b.MaxOrder, ErrInvalidBounds)
	}
	if b.InitialMaxOrder > flrg.MaxOrder || b.MaxOrder > flrg.MaxOrder {
		return fmt.Errorf("orders %d and %d exceed %d, %w", b.InitialMaxOrder, b.MaxOrder, flrg.MaxOrder, ErrInvalidBounds)
	}
	if b.MaxAlphaCut < 0 || b.MaxAlphaCut >= 1 {
		return fmt.Errorf("alpha cut %.3f, %w", b.MaxAlphaCut, ErrInvalidBounds)
	}
	return nil
}

// Options configures the genetic algorithm
type Options struct {
	Generations int `json:"generations"`

	// MaxStale stops the search after this many generations without improvement
	MaxStale int `json:"max_stale"`

	Population int     `json:"population"`
	Selection  float64 `json:"selection"`
	Crossover  float64 `json:"crossover"`
	Mutation   float64 `json:"mutation"`
	Seed       uint64  `json:"seed"`

	Bounds Bounds `json:"bounds"`

	// Base holds the model options not searched over
	Base *fuzzyts.Options `json:"base"`

	Benchmark *benchmark.Options `json:"benchmark"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Generations: DefaultGenerations,
		MaxStale:    DefaultMaxStale,
		Population:  DefaultPopulation,
		Selection:   DefaultSelection,
		Crossover:   DefaultCrossover,
		Mutation:    DefaultMutation,
		Bounds:      NewDefaultBounds(),
		Benchmark:   benchmark.NewDefaultOptions(),
	}
}

func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	v := *o
	if v.Generations <= 0 {
		return nil, fmt.Errorf("got %d, %w", v.Generations, ErrInvalidGenerations)
	}
	if v.MaxStale <= 0 {
		v.MaxStale = DefaultMaxStale
	}
	if v.Population < 2 {
		return nil, fmt.Errorf("got %d, %w", v.Population, ErrInvalidPopulation)
	}
	for name, rate := range map[string]float64{"selection": v.Selection, "crossover": v.Crossover, "mutation": v.Mutation} {
		if rate < 0 || rate > 1 {
			return nil, fmt.Errorf("%s rate %.3f, %w", name, rate, ErrInvalidRate)
		}
	}
	if v.Bounds == (Bounds{}) {
		v.Bounds = NewDefaultBounds()
	}
	if err := v.Bounds.validate(); err != nil {
		return nil, err
	}
	if _, err := v.Base.Validate(); err != nil {
		return nil, fmt.Errorf("unable to validate base options, %w", err)
	}
	bopt, err := v.Benchmark.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to validate benchmark options, %w", err)
	}
	v.Benchmark = bopt
	return &v, nil
}

type fitness struct {
	f1, f2, rmse, rules float64
}

// Search runs the genetic algorithm. It is not safe for concurrent use.
type Search struct {
	opt    *Options
	rand   *rand.Rand
	runner *benchmark.Runner
	cache  *lru.Cache[string, fitness]

	evaluations int
}

func New(opt *Options) (*Search, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	runner, err := benchmark.NewRunner(opt.Benchmark)
	if err != nil {
		return nil, fmt.Errorf("unable to create benchmark runner, %w", err)
	}
	cache, err := lru.New[string, fitness](fitnessCacheSize)
	if err != nil {
		return nil, fmt.Errorf("unable to create fitness cache, %w", err)
	}
	return &Search{
		opt:    opt,
		rand:   rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15)),
		runner: runner,
		cache:  cache,
	}, nil
}

// Runner returns the benchmark runner evaluating the genotypes
func (s *Search) Runner() *benchmark.Runner {
	return s.runner
}

// Result is the outcome of a search
type Result struct {
	Best        Genotype   `json:"best"`
	Generations int        `json:"generations"`
	Evaluations int        `json:"evaluations"`
	History     []Genotype `json:"history"`
}

// Options returns the model options of the best genotype
func (r *Result) Options(base *fuzzyts.Options) (*fuzzyts.Options, error) {
	return r.Best.Options(base)
}

// evaluate scores the genotypes not evaluated yet over the sliding windows of data. The accuracy
// fitness is 0.6 times the mean window RMSE plus 0.4 times its deviation. The parsimony fitness
// is 0.4 times the mean number of rules plus 60 times the sum of the lags. Genotypes failing on
// every window get infinite fitness.
func (s *Search) evaluate(ctx context.Context, data []float64, population []Genotype) error {
	var methods []benchmark.Method
	pending := make(map[string]struct{})
	for i := range population {
		g := &population[i]
		if g.evaluated {
			continue
		}
		key := g.Key()
		if fit, exists := s.cache.Get(key); exists {
			g.setFitness(fit)
			continue
		}
		if _, exists := pending[key]; exists {
			continue
		}
		pending[key] = struct{}{}

		opt, err := g.Options(s.opt.Base)
		if err != nil {
			return fmt.Errorf("unable to build options for %s, %w", key, err)
		}
		methods = append(methods, benchmark.Method{Name: key, Options: opt})
	}

	if len(methods) > 0 {
		report, err := s.runner.Run(ctx, data, methods)
		if err != nil {
			return err
		}
		s.evaluations += len(methods)
		for _, m := range methods {
			fit := infiniteFitness()
			if summary, exists := report.Summary(m.Name); exists {
				fit = newFitness(summary, m.Options.Model.Order)
			}
			s.cache.Add(m.Name, fit)
		}
	}

	for i := range population {
		g := &population[i]
		if g.evaluated {
			continue
		}
		fit, exists := s.cache.Get(g.Key())
		if !exists {
			return fmt.Errorf("no fitness for %s", g.Key())
		}
		g.setFitness(fit)
	}
	return nil
}

func infiniteFitness() fitness {
	inf := math.Inf(1)
	return fitness{f1: inf, f2: inf, rmse: inf, rules: inf}
}

func newFitness(s benchmark.Summary, order int) fitness {
	if math.IsNaN(s.RMSE.Mean) {
		return infiniteFitness()
	}
	lagSum := float64(order*(order+1)) / 2
	return fitness{
		f1:    0.6*s.RMSE.Mean + 0.4*s.RMSE.Std,
		f2:    0.4*s.Rules.Mean + 0.6*lagSum*100,
		rmse:  s.RMSE.Mean,
		rules: s.Rules.Mean,
	}
}

func (g *Genotype) setFitness(fit fitness) {
	g.F1 = fit.f1
	g.F2 = fit.f2
	g.RMSE = fit.rmse
	g.Rules = fit.rules
	g.evaluated = true
}

// elitism ranks the offspring and carries over the best parent when no child beats it
func elitism(population, offspring []Genotype) []Genotype {
	best := slices.MinFunc(population, compare)

	next := slices.Clone(offspring)
	slices.SortStableFunc(next, compare)
	if len(next) == 0 || compare(next[0], best) > 0 {
		next = slices.Insert(next, 0, best)
	}
	return next
}

// Run evolves a random population over data and returns the best genotype found
func (s *Search) Run(ctx context.Context, data []float64) (*Result, error) {
	if s == nil {
		return nil, ErrUninitializedSearch
	}
	opt := s.opt

	population := make([]Genotype, opt.Population)
	for i := range population {
		population[i] = s.randomGenotype()
	}
	if err := s.evaluate(ctx, data, population); err != nil {
		return nil, fmt.Errorf("unable to evaluate initial population, %w", err)
	}

	res := &Result{Best: slices.MinFunc(population, compare)}
	mutation := opt.Mutation
	stale := 0

	for gen := 0; gen < opt.Generations; gen++ {
		var offspring []Genotype
		for range int(float64(opt.Population) * opt.Selection) {
			offspring = append(offspring, doubleTournament(s.rand, population))
		}
		if len(offspring) >= 2 {
			var children []Genotype
			for range int(float64(opt.Population) * opt.Crossover) {
				children = append(children, crossover(s.rand, offspring))
			}
			offspring = append(offspring, children...)
		}
		for i := range offspring {
			if s.rand.Float64() < mutation {
				offspring[i] = s.mutate(offspring[i])
			}
		}

		if err := s.evaluate(ctx, data, offspring); err != nil {
			return nil, fmt.Errorf("unable to evaluate generation %d, %w", gen, err)
		}
		population = elitism(population, offspring)
		population = population[:min(len(population), opt.Population)]

		lastBest := res.Best
		res.Best = population[0]
		res.History = append(res.History, res.Best)
		res.Generations = gen + 1

		if compare(res.Best, lastBest) >= 0 {
			stale++
			mutation = min(1, mutation+mutationStep)
		} else {
			stale = 0
			mutation = opt.Mutation
		}
		slog.Info("finished generation", "generation", gen, "best", res.Best.String(), "stale", stale)

		if stale >= opt.MaxStale {
			break
		}
	}
	res.Evaluations = s.evaluations
	return res, nil
}
