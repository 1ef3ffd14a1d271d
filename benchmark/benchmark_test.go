package benchmark

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/aouyang1/go-fuzzyts"
	"github.com/aouyang1/go-fuzzyts/hofts"
	"github.com/aouyang1/go-fuzzyts/timedataset"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateWave(n int) []float64 {
	return timedataset.GenerateConstY(n, 50).
		Add(timedataset.GenerateWaveY(n, 10, 20, 0))
}

func badOptions() *fuzzyts.Options {
	opt := fuzzyts.NewDefaultOptions()
	opt.Model.Order = 0
	return opt
}

// counterValue sums a counter family over the series matching the label values
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.Nil(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if v, exists := labels[lp.GetName()]; exists && v != lp.GetValue() {
					continue metrics
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestWindows(t *testing.T) {
	testData := map[string]struct {
		n         int
		size      int
		trainRate float64
		incRate   float64
		expected  []Window
		err       error
	}{
		"exact fit": {
			n: 20, size: 10, trainRate: 0.8, incRate: 0.5,
			expected: []Window{
				{Index: 0, Start: 0, TrainEnd: 8, End: 10},
				{Index: 1, Start: 5, TrainEnd: 13, End: 15},
				{Index: 2, Start: 10, TrainEnd: 18, End: 20},
			},
		},
		"truncated last window without test points": {
			n: 12, size: 10, trainRate: 0.8, incRate: 0.5,
			expected: []Window{
				{Index: 0, Start: 0, TrainEnd: 8, End: 10},
			},
		},
		"window larger than series": {
			n: 5, size: 10, trainRate: 0.8, incRate: 0.2,
			err: ErrInvalidWindow,
		},
		"zero size": {
			n: 5, size: 0, trainRate: 0.8, incRate: 0.2,
			err: ErrInvalidWindow,
		},
		"invalid train rate": {
			n: 20, size: 10, trainRate: 1, incRate: 0.2,
			err: ErrInvalidWindow,
		},
		"invalid increment rate": {
			n: 20, size: 10, trainRate: 0.8, incRate: 0,
			err: ErrInvalidWindow,
		},
		"too small for rates": {
			n: 20, size: 1, trainRate: 0.8, incRate: 0.2,
			err: ErrInvalidWindow,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			windows, err := Windows(td.n, td.size, td.trainRate, td.incRate)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, windows)
		})
	}
}

func TestScore(t *testing.T) {
	y := generateWave(200)

	res, err := Score(y[:160], y[160:], nil, nil)
	require.Nil(t, err)
	assert.Greater(t, res.Rules, 0)
	assert.False(t, math.IsNaN(res.RMSE))
	assert.Less(t, res.RMSE, 10.0)
	assert.GreaterOrEqual(t, res.Coverage, 0.0)
	assert.LessOrEqual(t, res.Coverage, 1.0)
	assert.GreaterOrEqual(t, res.Sharpness, 0.0)
	assert.GreaterOrEqual(t, res.CRPS, 0.0)
	assert.GreaterOrEqual(t, res.Pinball, 0.0)

	_, err = Score(y[:160], y[160:162], nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientTest)

	_, err = Score(y[:160], y[160:], badOptions(), nil)
	assert.ErrorIs(t, err, hofts.ErrInvalidOrder)
}

func TestRun(t *testing.T) {
	y := generateWave(300)

	r, err := NewRunner(&Options{WindowSize: 100, Concurrency: 2})
	require.Nil(t, err)

	methods := []Method{
		{Name: "default"},
		{Name: "invalid", Options: badOptions()},
	}
	report, err := r.Run(context.Background(), y, methods)
	require.Nil(t, err)

	// 100 point windows advancing by 20 over 300 points
	require.Len(t, report.Windows, 11)
	require.Len(t, report.Results, 22)
	assert.NotEmpty(t, report.ID)

	for _, res := range report.MethodResults("default") {
		assert.Nil(t, res.Err)
		assert.False(t, math.IsNaN(res.RMSE))
	}
	for _, res := range report.MethodResults("invalid") {
		assert.NotNil(t, res.Err)
		assert.True(t, math.IsNaN(res.RMSE))
		assert.True(t, math.IsNaN(res.CRPS))
	}

	good, exists := report.Summary("default")
	require.True(t, exists)
	assert.Equal(t, 11, good.Windows)
	assert.Equal(t, 0, good.Failures)
	assert.False(t, math.IsNaN(good.RMSE.Mean))
	assert.Greater(t, good.LatencyP99, good.LatencyP50/2)

	bad, exists := report.Summary("invalid")
	require.True(t, exists)
	assert.Equal(t, 11, bad.Failures)
	assert.True(t, math.IsNaN(bad.RMSE.Mean))

	reg := r.Registry()
	assert.Equal(t, 11.0, counterValue(t, reg, "fts_benchmark_windows_total", map[string]string{"method": "default", "status": statusOK}))
	assert.Equal(t, 11.0, counterValue(t, reg, "fts_benchmark_windows_total", map[string]string{"method": "invalid", "status": statusFailed}))
	assert.Equal(t, 0.0, counterValue(t, reg, "fts_benchmark_windows_total", map[string]string{"method": "default", "status": statusFailed}))
	assert.Equal(t, 1.0, counterValue(t, reg, "fts_benchmark_runs_total", nil))

	var buf bytes.Buffer
	require.Nil(t, report.TablePrint(&buf))
	assert.Contains(t, buf.String(), "default")
	assert.Contains(t, buf.String(), "11/11")
}

func TestRunErrors(t *testing.T) {
	y := generateWave(300)
	r, err := NewRunner(&Options{WindowSize: 100})
	require.Nil(t, err)

	testData := map[string]struct {
		data    []float64
		methods []Method
		err     error
	}{
		"no methods": {
			data: y,
			err:  ErrNoMethods,
		},
		"unnamed method": {
			data:    y,
			methods: []Method{{}},
			err:     ErrUnnamedMethod,
		},
		"duplicate method": {
			data:    y,
			methods: []Method{{Name: "a"}, {Name: "a"}},
			err:     ErrDuplicateMethod,
		},
		"series shorter than window": {
			data:    y[:50],
			methods: []Method{{Name: "a"}},
			err:     ErrInvalidWindow,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := r.Run(context.Background(), td.data, td.methods)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestRunCanceled(t *testing.T) {
	y := generateWave(300)
	r, err := NewRunner(&Options{WindowSize: 100, Concurrency: 1})
	require.Nil(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Run(ctx, y, []Method{{Name: "default"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt *Options
		err error
	}{
		"nil":                  {},
		"negative concurrency": {opt: &Options{Concurrency: -1}, err: ErrInvalidConcurrency},
		"invalid alpha":        {opt: &Options{Alpha: 1.5}, err: ErrInvalidAlpha},
		"invalid quantile":     {opt: &Options{Quantiles: []float64{0.5, 1}}, err: ErrInvalidQuantile},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, DefaultWindowSize, opt.WindowSize)
			assert.Equal(t, DefaultAlpha, opt.Alpha)
			assert.Greater(t, opt.Concurrency, 0)
		})
	}
}
