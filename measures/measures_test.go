package measures

import (
	"math"
	"testing"

	"github.com/aouyang1/go-fuzzyts/distribution"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointMeasures(t *testing.T) {
	nan := math.NaN()
	testData := map[string]struct {
		fn        func(predicted, actual []float64) (float64, error)
		predicted []float64
		actual    []float64
		expected  float64
		err       error
	}{
		"mse":                 {MSE, []float64{1, 2, 3}, []float64{1, 2, 5}, 4.0 / 3.0, nil},
		"mse skips nan":       {MSE, []float64{1, nan, 3}, []float64{1, 2, 5}, 2, nil},
		"mse mismatch":        {MSE, []float64{1}, []float64{1, 2}, 0, ErrResLenMismatch},
		"mse all nan":         {MSE, []float64{nan}, []float64{1}, nan, ErrNoValues},
		"rmse":                {RMSE, []float64{2, 4}, []float64{0, 0}, math.Sqrt(10), nil},
		"mape":                {MAPE, []float64{90, 110}, []float64{100, 100}, 0.1, nil},
		"mape skips zero":     {MAPE, []float64{90, 5}, []float64{100, 0}, 0.1, nil},
		"smape":               {SMAPE, []float64{90}, []float64{110}, 0.1, nil},
		"smape both zero":     {SMAPE, []float64{0}, []float64{0}, 0, nil},
		"r2 perfect":          {RSquared, []float64{1, 2, 3}, []float64{1, 2, 3}, 1, nil},
		"r2 constant":         {RSquared, []float64{2, 2}, []float64{2, 2}, 1, nil},
		"theil u naive":       {TheilU, []float64{1, 1, 2}, []float64{1, 2, 4}, 1, nil},
		"theil u perfect":     {TheilU, []float64{1, 2, 4}, []float64{1, 2, 4}, 0, nil},
		"theil u mismatch":    {TheilU, []float64{1, 2}, []float64{1, 2, 4}, 0, ErrResLenMismatch},
		"theil u single pair": {TheilU, []float64{1}, []float64{1}, nan, ErrNoValues},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := td.fn(td.predicted, td.actual)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				if math.IsNaN(td.expected) {
					assert.True(t, math.IsNaN(res))
				}
				return
			}
			require.Nil(t, err)
			assert.InDelta(t, td.expected, res, 1e-9)
		})
	}
}

func TestIntervalMeasures(t *testing.T) {
	lower := []float64{0, 0, 0, 0}
	upper := []float64{2, 2, 4, 4}
	actual := []float64{1, 3, -1, 4}

	testData := map[string]struct {
		fn       func(lower, upper, actual []float64) (float64, error)
		expected float64
	}{
		"coverage":   {Coverage, 0.5},
		"sharpness":  {Sharpness, 3},
		"resolution": {Resolution, 1},
		"winkler": {func(l, u, a []float64) (float64, error) {
			return Winkler(l, u, a, 0.5)
		}, 5},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := td.fn(lower, upper, actual)
			require.Nil(t, err)
			assert.InDelta(t, td.expected, res, 1e-9)
		})
	}

	_, err := Coverage([]float64{3}, []float64{1}, []float64{2})
	assert.ErrorIs(t, err, ErrInvertedBounds)

	_, err = Sharpness([]float64{0}, []float64{1, 2}, []float64{2})
	assert.ErrorIs(t, err, ErrResLenMismatch)

	_, err = Winkler(lower, upper, actual, 1)
	assert.ErrorIs(t, err, ErrInvalidAlpha)
}

func TestPinball(t *testing.T) {
	testData := map[string]struct {
		quantile []float64
		actual   []float64
		tau      float64
		expected float64
		err      error
	}{
		"median":        {[]float64{1, 1}, []float64{3, 0}, 0.5, 0.75, nil},
		"high quantile": {[]float64{0}, []float64{10}, 0.9, 9, nil},
		"over forecast": {[]float64{10}, []float64{0}, 0.9, 1, nil},
		"invalid tau":   {[]float64{0}, []float64{0}, 1, 0, ErrInvalidQuantile},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Pinball(td.quantile, td.actual, td.tau)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.InDelta(t, td.expected, res, 1e-9)
		})
	}
}

func pointDistribution(t *testing.T, x float64) *distribution.Distribution {
	d, err := distribution.New(0, 4, 4)
	require.Nil(t, err)
	d.SetPoint(x)
	return d
}

func TestProbabilisticMeasures(t *testing.T) {
	dists := []*distribution.Distribution{pointDistribution(t, 2), pointDistribution(t, 2)}

	crps, err := CRPS(dists, []float64{2.5, 0.2})
	require.Nil(t, err)
	assert.InDelta(t, 1.0, crps, 1e-9)

	crps, err = CRPS(dists[:1], []float64{2.5})
	require.Nil(t, err)
	assert.InDelta(t, 0.0, crps, 1e-9)

	brier, err := Brier(dists, []float64{2.2, 0.2})
	require.Nil(t, err)
	assert.InDelta(t, 1.0, brier, 1e-9)

	brier, err = Brier(dists[:1], []float64{10})
	require.Nil(t, err)
	assert.InDelta(t, 2.0, brier, 1e-9)

	pb, err := PinballMean(dists[:1], []float64{2.5}, []float64{0.5})
	require.Nil(t, err)
	assert.InDelta(t, 0.0, pb, 1e-9)

	_, err = CRPS(dists, []float64{1})
	assert.ErrorIs(t, err, ErrResLenMismatch)

	_, err = CRPS([]*distribution.Distribution{nil}, []float64{1})
	assert.ErrorIs(t, err, ErrNoValues)
}

func TestNewScores(t *testing.T) {
	s, err := NewScores([]float64{1, 2, 4}, []float64{1, 2, 4})
	require.Nil(t, err)
	assert.Equal(t, 0.0, s.MSE)
	assert.Equal(t, 0.0, s.RMSE)
	assert.Equal(t, 0.0, s.MAPE)
	assert.Equal(t, 0.0, s.SMAPE)
	assert.InDelta(t, 1.0, s.R2, 1e-9)
	assert.Equal(t, 0.0, s.TheilU)

	_, err = NewScores([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrResLenMismatch)

	s, err = NewScores([]float64{math.NaN()}, []float64{1})
	require.Nil(t, err)
	assert.True(t, math.IsNaN(s.MSE))

	out, err := json.Marshal(s)
	require.Nil(t, err)
	assert.Contains(t, string(out), `"mean_squared_error":null`)
}
