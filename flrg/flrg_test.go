package flrg

import (
	"testing"

	"github.com/aouyang1/go-fuzzyts/fuzzyset"
	"github.com/aouyang1/go-fuzzyts/membership"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type setList []*fuzzyset.FuzzySet

func (s setList) Set(i int) *fuzzyset.FuzzySet {
	return s[i]
}

// A0..A4 centered at 0, 10, 20, 30, 40 with width 10
func testSets(t *testing.T) setList {
	t.Helper()
	var sets setList
	for i, name := range []string{"A0", "A1", "A2", "A3", "A4"} {
		c := float64(i) * 10
		fs, err := fuzzyset.New(name, membership.Triangular, []float64{c - 10, c, c + 10}, c, nil)
		require.Nil(t, err)
		sets = append(sets, fs)
	}
	return sets
}

func TestKey(t *testing.T) {
	a := NewKey([]int{3, 1, 2})
	b := NewKey([]int{1, 2, 3})
	c := NewKey([]int{1, 2})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, []int{1, 2, 3}, a.Indices())
	assert.Equal(t, "1,2,3", a.String())

	assert.Less(t, c.Compare(a), 0)
	assert.Less(t, NewKey([]int{1, 4}).Compare(NewKey([]int{2, 3})), 0)
	assert.Equal(t, 0, a.Compare(b))

	m := map[Key]int{a: 1}
	m[b]++
	assert.Equal(t, 2, m[a])

	assert.Panics(t, func() { NewKey(make([]int, MaxOrder+1)) })
}

func TestFLRGAppend(t *testing.T) {
	f := New([]int{2, 1})
	f.AppendRHS(3)
	f.AppendRHS(1)
	f.AppendRHS(3)

	assert.Equal(t, []int{2, 1}, f.LHS())
	assert.Equal(t, []int{3, 1}, f.RHS())
	assert.Equal(t, 2, f.Order())
	assert.Equal(t, NewKey([]int{1, 2}), f.Key())

	// returned slices are copies
	lhs := f.LHS()
	lhs[0] = 4
	assert.Equal(t, []int{2, 1}, f.LHS())
}

func TestFLRGAggregates(t *testing.T) {
	sets := testSets(t)

	testData := map[string]struct {
		lhs      []int
		rhs      []int
		midpoint float64
		lower    float64
		upper    float64
	}{
		"single consequent": {
			lhs: []int{0, 1}, rhs: []int{2},
			midpoint: 20, lower: 10, upper: 30,
		},
		"unweighted mean": {
			lhs: []int{0, 1}, rhs: []int{1, 4},
			midpoint: 25, lower: 15, upper: 35,
		},
		"empty consequent uses last antecedent": {
			lhs: []int{4, 3}, rhs: nil,
			midpoint: 30, lower: 20, upper: 40,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f := New(td.lhs)
			for _, i := range td.rhs {
				f.AppendRHS(i)
			}
			assert.InDelta(t, td.midpoint, f.Midpoint(sets, 0), 1e-9)
			assert.InDelta(t, td.lower, f.Lower(sets, 0), 1e-9)
			assert.InDelta(t, td.upper, f.Upper(sets, 0), 1e-9)
			assert.LessOrEqual(t, f.Lower(sets, 0), f.Upper(sets, 0))
		})
	}
}

func TestFLRGConsequents(t *testing.T) {
	f := New([]int{1, 2})
	assert.Equal(t, []int{2}, f.Consequents())
	f.AppendRHS(0)
	assert.Equal(t, []int{0}, f.Consequents())
	assert.Nil(t, New(nil).Consequents())
}

func TestFLRGString(t *testing.T) {
	sets := testSets(t)
	f := New([]int{1, 2})
	f.AppendRHS(3)
	f.AppendRHS(2)
	assert.Equal(t, "A1,A2 -> A2,A3", f.String(sets))
}

func TestTable(t *testing.T) {
	sets := testSets(t)
	table := make(Table)

	table.Insert([]int{1, 2}, 3)
	table.Insert([]int{2, 1}, 4)
	table.Insert([]int{0, 0}, 0, 1)
	table.Insert([]int{1, 2}, 3)

	require.Len(t, table, 2)

	f, exists := table.Get([]int{2, 1})
	require.True(t, exists)
	assert.Equal(t, []int{1, 2}, f.LHS())
	assert.Equal(t, []int{3, 4}, f.RHS())

	_, exists = table.Get([]int{3, 3})
	assert.False(t, exists)

	assert.Equal(t, []Key{NewKey([]int{0, 0}), NewKey([]int{1, 2})}, table.Keys())
	assert.Equal(t, "A0,A0 -> A0,A1\nA1,A2 -> A3,A4\n", table.String(sets))
}
