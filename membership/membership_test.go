package membership

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	testData := map[string]struct {
		f        Func
		x        float64
		params   []float64
		expected float64
	}{
		"triangular below support":  {Triangular, -1, []float64{0, 5, 10}, 0},
		"triangular left edge":      {Triangular, 0, []float64{0, 5, 10}, 0},
		"triangular rising":         {Triangular, 2.5, []float64{0, 5, 10}, 0.5},
		"triangular peak":           {Triangular, 5, []float64{0, 5, 10}, 1},
		"triangular falling":        {Triangular, 7.5, []float64{0, 5, 10}, 0.5},
		"triangular right edge":     {Triangular, 10, []float64{0, 5, 10}, 0},
		"triangular above support":  {Triangular, 11, []float64{0, 5, 10}, 0},
		"gaussian center":           {Gaussian, 3, []float64{3, 2}, 1},
		"gaussian one width":        {Gaussian, 5, []float64{3, 2}, math.Exp(-0.5)},
		"trapezoidal below":         {Trapezoidal, -1, []float64{0, 2, 4, 6}, 0},
		"trapezoidal rising":        {Trapezoidal, 1, []float64{0, 2, 4, 6}, 0.5},
		"trapezoidal plateau start": {Trapezoidal, 2, []float64{0, 2, 4, 6}, 1},
		"trapezoidal plateau end":   {Trapezoidal, 4, []float64{0, 2, 4, 6}, 1},
		"trapezoidal falling":       {Trapezoidal, 5, []float64{0, 2, 4, 6}, 0.5},
		"trapezoidal above":         {Trapezoidal, 7, []float64{0, 2, 4, 6}, 0},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, td.expected, td.f.Eval(td.x, td.params), 1e-12)
		})
	}
}

func TestEvalRange(t *testing.T) {
	funcs := map[Func][]float64{
		Triangular:  {-3, 0, 3},
		Gaussian:    {0, 1.5},
		Trapezoidal: {-3, -1, 1, 3},
	}
	for f, params := range funcs {
		for x := -5.0; x <= 5.0; x += 0.25 {
			v := f.Eval(x, params)
			assert.GreaterOrEqual(t, v, 0.0, "%s at %.2f", f, x)
			assert.LessOrEqual(t, v, 1.0, "%s at %.2f", f, x)
		}
	}
}

func TestParse(t *testing.T) {
	testData := map[string]struct {
		name     string
		expected Func
		err      error
	}{
		"long name":  {name: "Gaussian", expected: Gaussian},
		"short name": {name: "trapmf", expected: Trapezoidal},
		"padded":     {name: " tri ", expected: Triangular},
		"unknown":    {name: "bell", err: ErrUnknownFunc},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := Parse(td.name)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, f)
		})
	}
}

func TestTextRoundTrip(t *testing.T) {
	out, err := Trapezoidal.MarshalText()
	require.Nil(t, err)
	assert.Equal(t, "trapezoidal", string(out))

	var f Func
	require.Nil(t, f.UnmarshalText([]byte("gaussmf")))
	assert.Equal(t, Gaussian, f)

	_, err = Func(42).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownFunc)
}
