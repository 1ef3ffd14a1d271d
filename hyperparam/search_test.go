package hyperparam

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/aouyang1/go-fuzzyts/benchmark"
	"github.com/aouyang1/go-fuzzyts/flrg"
	"github.com/aouyang1/go-fuzzyts/membership"
	"github.com/aouyang1/go-fuzzyts/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateWave(n int) []float64 {
	return timedataset.GenerateConstY(n, 50).
		Add(timedataset.GenerateWaveY(n, 10, 20, 0))
}

func testOptions(seed uint64) *Options {
	opt := NewDefaultOptions()
	opt.Generations = 3
	opt.Population = 6
	opt.Seed = seed
	opt.Bounds.InitialPartitions = [2]int{5, 30}
	opt.Bounds.MaxPartitions = 40
	opt.Benchmark = &benchmark.Options{WindowSize: 100, Concurrency: 2}
	return opt
}

func TestRun(t *testing.T) {
	y := generateWave(300)

	s, err := New(testOptions(1))
	require.Nil(t, err)

	res, err := s.Run(context.Background(), y)
	require.Nil(t, err)

	assert.False(t, math.IsInf(res.Best.F1, 0))
	assert.False(t, math.IsNaN(res.Best.F1))
	assert.True(t, res.Best.evaluated)
	assert.GreaterOrEqual(t, res.Generations, 1)
	assert.LessOrEqual(t, res.Generations, 3)
	require.Len(t, res.History, res.Generations)
	assert.LessOrEqual(t, res.Evaluations, 6*(res.Generations+1))

	// the best genotype never gets worse from one generation to the next
	for i := 1; i < len(res.History); i++ {
		assert.LessOrEqual(t, compare(res.History[i], res.History[i-1]), 0)
	}
	assert.Equal(t, res.History[len(res.History)-1], res.Best)

	opt, err := res.Options(nil)
	require.Nil(t, err)
	assert.Equal(t, res.Best.Partitions, opt.Grid.Partitions)
	assert.Equal(t, res.Best.Order, opt.Model.Order)
	assert.Equal(t, res.Best.MF, opt.Grid.MF)

	// the same seed explores the same genotypes
	s2, err := New(testOptions(1))
	require.Nil(t, err)
	res2, err := s2.Run(context.Background(), y)
	require.Nil(t, err)
	assert.Equal(t, res.Best.Key(), res2.Best.Key())
	assert.InDelta(t, res.Best.F1, res2.Best.F1, 1e-9)
}

func TestRunCanceled(t *testing.T) {
	s, err := New(testOptions(1))
	require.Nil(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Run(ctx, generateWave(300))
	assert.ErrorIs(t, err, context.Canceled)

	var nilSearch *Search
	_, err = nilSearch.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUninitializedSearch)
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		mod func(o *Options)
		err error
	}{
		"defaults":                      {mod: func(o *Options) {}},
		"no generations":                {mod: func(o *Options) { o.Generations = 0 }, err: ErrInvalidGenerations},
		"single genotype":               {mod: func(o *Options) { o.Population = 1 }, err: ErrInvalidPopulation},
		"invalid crossover":             {mod: func(o *Options) { o.Crossover = 1.5 }, err: ErrInvalidRate},
		"invalid bounds":                {mod: func(o *Options) { o.Bounds.MaxPartitions = 1 }, err: ErrInvalidBounds},
		"invalid alpha cut":             {mod: func(o *Options) { o.Bounds.MaxAlphaCut = 1 }, err: ErrInvalidBounds},
		"max order above key limit":     {mod: func(o *Options) { o.Bounds.MaxOrder = flrg.MaxOrder + 1 }, err: ErrInvalidBounds},
		"initial order above key limit": {mod: func(o *Options) { o.Bounds.InitialMaxOrder = flrg.MaxOrder + 1 }, err: ErrInvalidBounds},
		"max order at key limit":        {mod: func(o *Options) { o.Bounds.MaxOrder = flrg.MaxOrder }},
		"invalid benchmark":             {mod: func(o *Options) { o.Benchmark = &benchmark.Options{Alpha: 2} }, err: benchmark.ErrInvalidAlpha},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt := NewDefaultOptions()
			td.mod(opt)
			_, err := opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.Nil(t, err)
		})
	}
}

func TestTournament(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	population := []Genotype{
		{Partitions: 10, F1: 3, F2: 1},
		{Partitions: 20, F1: 1, F2: 5},
	}

	// with two candidates the better one wins whenever both are drawn
	wins := 0
	for range 100 {
		if tournament(r, population, f1).Partitions == 20 {
			wins++
		}
	}
	assert.Greater(t, wins, 50)

	single := []Genotype{{Partitions: 7}}
	assert.Equal(t, 7, doubleTournament(r, single).Partitions)
}

func TestCrossover(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	population := []Genotype{
		{MF: membership.Gaussian, Partitions: 10, Order: 1, AlphaCut: 0.1, F1: 1},
		{MF: membership.Triangular, Partitions: 20, Order: 3, AlphaCut: 0.2, F1: 2},
	}

	for range 20 {
		child := crossover(r, population)
		assert.Equal(t, 13, child.Partitions)
		assert.Equal(t, 2, child.Order)
		assert.InDelta(t, 0.13, child.AlphaCut, 1e-9)
		assert.Contains(t, []membership.Func{membership.Gaussian, membership.Triangular}, child.MF)
		assert.False(t, child.evaluated)
	}
}

func TestMutate(t *testing.T) {
	s, err := New(testOptions(3))
	require.Nil(t, err)
	b := s.opt.Bounds

	g := Genotype{MF: membership.Triangular, Partitions: 3, Order: 1, AlphaCut: 0.5, evaluated: true}
	for range 200 {
		m := s.mutate(g)
		assert.False(t, m.evaluated)
		assert.GreaterOrEqual(t, m.Partitions, b.MinPartitions)
		assert.LessOrEqual(t, m.Partitions, b.MaxPartitions)
		assert.GreaterOrEqual(t, m.Order, 1)
		assert.LessOrEqual(t, m.Order, b.MaxOrder)
		assert.GreaterOrEqual(t, m.AlphaCut, 0.0)
		assert.LessOrEqual(t, m.AlphaCut, b.MaxAlphaCut)
	}

	for range 200 {
		g := s.randomGenotype()
		assert.GreaterOrEqual(t, g.Partitions, b.InitialPartitions[0])
		assert.LessOrEqual(t, g.Partitions, b.InitialPartitions[1])
		assert.GreaterOrEqual(t, g.Order, 1)
		assert.LessOrEqual(t, g.Order, b.InitialMaxOrder)
	}
}

func TestElitism(t *testing.T) {
	parents := []Genotype{
		{Partitions: 1, F1: 2, F2: 1},
		{Partitions: 2, F1: 1, F2: 1},
	}

	testData := map[string]struct {
		offspring []Genotype
		expected  []int
	}{
		"worse offspring keeps best parent": {
			offspring: []Genotype{{Partitions: 3, F1: 4}, {Partitions: 4, F1: 3}},
			expected:  []int{2, 4, 3},
		},
		"better offspring replaces parents": {
			offspring: []Genotype{{Partitions: 3, F1: 4}, {Partitions: 4, F1: 0.5}},
			expected:  []int{4, 3},
		},
		"tie broken by parsimony": {
			offspring: []Genotype{{Partitions: 3, F1: 1, F2: 2}},
			expected:  []int{2, 3},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			next := elitism(parents, td.offspring)
			var got []int
			for _, g := range next {
				got = append(got, g.Partitions)
			}
			assert.Equal(t, td.expected, got)
		})
	}
}

func TestNewFitness(t *testing.T) {
	fit := newFitness(benchmark.Summary{
		RMSE:  benchmark.Stat{Mean: 2, Std: 1},
		Rules: benchmark.Stat{Mean: 10},
	}, 2)
	assert.InDelta(t, 1.6, fit.f1, 1e-9)
	assert.InDelta(t, 184.0, fit.f2, 1e-9)

	fit = newFitness(benchmark.Summary{RMSE: benchmark.Stat{Mean: math.NaN()}}, 2)
	assert.True(t, math.IsInf(fit.f1, 1))
	assert.True(t, math.IsInf(fit.f2, 1))
}
