package partitioner

import (
	"math"
	"testing"

	"github.com/aouyang1/go-fuzzyts/fuzzyset"
	"github.com/aouyang1/go-fuzzyts/membership"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridFromBounds(t *testing.T) {
	g, err := NewGridFromBounds(0, 100, nil)
	require.Nil(t, err)

	require.Equal(t, 10, g.Len())
	assert.Equal(t, 0.0, g.Min())
	assert.Equal(t, 100.0, g.Max())
	assert.Equal(t, -10.0, g.ShiftedMin())

	lo, hi := g.UoD()
	assert.Equal(t, -10.0, lo)
	assert.Equal(t, 100.0, hi)

	assert.Equal(t, []string{"A0", "A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9"}, g.OrderedNames())
	assert.Equal(t, 0.0, g.LowerSet().Centroid())
	assert.Equal(t, 90.0, g.UpperSet().Centroid())

	for i, fs := range g.Sets() {
		assert.InDelta(t, 20.0, fs.Upper()-fs.Lower(), 1e-9, fs.Name())
		assert.InDelta(t, float64(i)*10, fs.Centroid(), 1e-9, fs.Name())
		idx, exists := g.Index(fs.Name())
		assert.True(t, exists)
		assert.Equal(t, i, idx)
	}
}

func TestGridShapes(t *testing.T) {
	testData := map[string]struct {
		mf       membership.Func
		expected []float64
	}{
		"triangular":  {membership.Triangular, []float64{10, 20, 30}},
		"gaussian":    {membership.Gaussian, []float64{20, 10.0 / 3}},
		"trapezoidal": {membership.Trapezoidal, []float64{10, 15, 25, 30}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt := NewDefaultGridOptions()
			opt.MF = td.mf
			opt.Partitions = 5
			g, err := NewGridFromBounds(0, 50, opt)
			require.Nil(t, err)
			assert.InDeltaSlice(t, td.expected, g.Set(2).Params(), 1e-9)
		})
	}
}

func TestGridInvalidOptions(t *testing.T) {
	testData := map[string]struct {
		opt *GridOptions
		err error
	}{
		"zero partitions":     {&GridOptions{Partitions: 0, MF: membership.Triangular}, ErrInvalidPartitions},
		"negative partitions": {&GridOptions{Partitions: -3, MF: membership.Triangular}, ErrInvalidPartitions},
		"unknown mf":          {&GridOptions{Partitions: 3, MF: membership.Func(42)}, membership.ErrUnknownFunc},
		"bad perturbation": {
			&GridOptions{
				Partitions:   3,
				MF:           membership.Triangular,
				Perturbation: &fuzzyset.Perturbation{Width: []fuzzyset.Term{{Kind: "bogus"}}},
			},
			fuzzyset.ErrUnknownTermKind,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := NewGridFromBounds(0, 10, td.opt)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestGridDegenerate(t *testing.T) {
	g, err := NewGridFromBounds(5, 5, nil)
	require.Nil(t, err)
	assert.Equal(t, 0, g.Len())
	assert.Nil(t, g.Fuzzify(5, 0, 0))
	assert.True(t, g.IsOutOfRange(5, 0))

	g, err = NewGridFromBounds(10, 1, nil)
	require.Nil(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestNewGrid(t *testing.T) {
	g, err := NewGrid([]float64{3, math.NaN(), -2, 8}, nil)
	require.Nil(t, err)
	assert.Equal(t, -2.0, g.Min())
	assert.Equal(t, 8.0, g.Max())

	_, err = NewGrid([]float64{math.NaN()}, nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = NewGrid(nil, nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestGridCoverage(t *testing.T) {
	for _, mf := range []membership.Func{membership.Triangular, membership.Gaussian, membership.Trapezoidal} {
		t.Run(mf.String(), func(t *testing.T) {
			opt := NewDefaultGridOptions()
			opt.MF = mf
			g, err := NewGridFromBounds(0, 100, opt)
			require.Nil(t, err)

			// the outer edge at max is the only gap allowed for the bounded shapes
			for x := 0.0; x < 100; x += 0.25 {
				var hit bool
				for _, fs := range g.Sets() {
					if fs.Membership(x) > 0 {
						hit = true
						break
					}
				}
				assert.True(t, hit, "no set covers %v", x)
			}
		})
	}
}

func TestGridCentroidMonotonic(t *testing.T) {
	opt := NewDefaultGridOptions()
	opt.Partitions = 37
	g, err := NewGridFromBounds(-12.5, 87.3, opt)
	require.Nil(t, err)

	sets := g.Sets()
	for i := 1; i < len(sets); i++ {
		assert.Greater(t, sets[i].Centroid(), sets[i-1].Centroid())
	}
}

func TestFuzzify(t *testing.T) {
	g, err := NewGridFromBounds(0, 100, nil)
	require.Nil(t, err)

	testData := map[string]struct {
		x          float64
		alphaCut   float64
		expected   []Degree
		outOfRange bool
	}{
		"on a centroid": {
			x:        30,
			expected: []Degree{{Index: 3, Membership: 1}},
		},
		"between two sets": {
			x:        35,
			expected: []Degree{{Index: 3, Membership: 0.5}, {Index: 4, Membership: 0.5}},
		},
		"strict alpha cut falls back to the nearest set": {
			x:        35,
			alphaCut: 0.5,
			expected: []Degree{{Index: 3, Membership: 1}},
		},
		"at min": {
			x:        0,
			expected: []Degree{{Index: 0, Membership: 1}},
		},
		"at max falls back inside the hull": {
			x:        100,
			expected: []Degree{{Index: 9, Membership: 1}},
		},
		"below all supports": {
			x:          -50,
			expected:   []Degree{{Index: 0, Membership: 1}},
			outOfRange: true,
		},
		"above all supports": {
			x:          1000,
			expected:   []Degree{{Index: 9, Membership: 1}},
			outOfRange: true,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := g.Fuzzify(td.x, 0, td.alphaCut)
			require.Equal(t, len(td.expected), len(res))
			for i := range res {
				assert.Equal(t, td.expected[i].Index, res[i].Index)
				assert.InDelta(t, td.expected[i].Membership, res[i].Membership, 1e-9)
			}
			assert.Equal(t, td.outOfRange, g.IsOutOfRange(td.x, 0))
		})
	}
}

func TestFuzzifyBoundsRoundTrip(t *testing.T) {
	data := []float64{4, 9, 1, 7, 3, 13, 6}
	g, err := NewGrid(data, &GridOptions{Partitions: 6, MF: membership.Triangular})
	require.Nil(t, err)

	for _, x := range []float64{g.Min(), g.Max()} {
		res := g.Fuzzify(x, 0, 0)
		require.Len(t, res, 1)
		assert.Greater(t, res[0].Membership, 0.0)
		assert.False(t, g.IsOutOfRange(x, 0))
	}
	assert.Equal(t, 0, g.Fuzzify(g.Min(), 0, 0)[0].Index)
	assert.Equal(t, g.Len()-1, g.Fuzzify(g.Max(), 0, 0)[0].Index)
}

func TestFuzzifyNonStationary(t *testing.T) {
	opt := NewDefaultGridOptions()
	opt.Perturbation = &fuzzyset.Perturbation{
		Location: []fuzzyset.Term{{Kind: fuzzyset.TermPolynomial, Params: []float64{10, 0}}},
	}
	g, err := NewGridFromBounds(0, 100, opt)
	require.Nil(t, err)

	// every set drifts right by 10 per time index
	res := g.Fuzzify(30, 0, 0)
	require.Len(t, res, 1)
	assert.Equal(t, 3, res[0].Index)

	res = g.Fuzzify(30, 1, 0)
	require.Len(t, res, 1)
	assert.Equal(t, 2, res[0].Index)

	assert.True(t, g.IsOutOfRange(-5, 1))
	assert.InDelta(t, 1.0, g.Membership(2, 30, 1), 1e-9)
}
