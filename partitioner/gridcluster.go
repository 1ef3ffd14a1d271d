package partitioner

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/aouyang1/go-fuzzyts/fuzzyset"
	"github.com/aouyang1/go-fuzzyts/paths"
)

var (
	ErrNoVariables   = errors.New("no variables configured for grid cluster")
	ErrInvalidTarget = errors.New("target variable index out of range")
)

const (
	DefaultNeighbors = 2
	compositeSep     = "|"
)

// ClusterOptions configures one grid per variable. Target is the index of the forecast
// variable within every row.
type ClusterOptions struct {
	Variables []*GridOptions `json:"variables"`
	Target    int            `json:"target"`

	// Neighbors is the number of best matching sets per variable combined into composites for
	// each training row
	Neighbors int `json:"neighbors"`
}

// NewDefaultClusterOptions returns default grids for n variables with the first as target
func NewDefaultClusterOptions(n int) *ClusterOptions {
	opt := &ClusterOptions{
		Neighbors: DefaultNeighbors,
	}
	for i := 0; i < n; i++ {
		v := NewDefaultGridOptions()
		v.Prefix = variablePrefix(i)
		opt.Variables = append(opt.Variables, v)
	}
	return opt
}

func variablePrefix(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("V%d_", i)
}

// GridCluster partitions several variables with independent grids and fuzzifies rows against
// the composite sets observed in the training rows. A composite's membership is the minimum of
// its component memberships. Composites are exposed to a univariate engine through the target
// variable's component set renamed to the composite name, e.g. A3|B1.
type GridCluster struct {
	opt   ClusterOptions
	grids []*Grid

	composites [][]int
	sets       []*fuzzyset.FuzzySet
	index      map[string]int
}

// NewGridCluster builds one grid per column of rows and registers every composite formed by
// the best matching sets of each row. Variables with a cyclic date part are partitioned over
// [0, period] so unobserved seasons still have sets.
func NewGridCluster(rows [][]float64, opt *ClusterOptions) (*GridCluster, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	if opt == nil {
		opt = NewDefaultClusterOptions(len(rows[0]))
	}
	nvars := len(opt.Variables)
	if nvars == 0 {
		return nil, ErrNoVariables
	}
	if opt.Target < 0 || opt.Target >= nvars {
		return nil, fmt.Errorf("target %d with %d variables, %w", opt.Target, nvars, ErrInvalidTarget)
	}

	c := &GridCluster{
		opt:   *opt,
		grids: make([]*Grid, nvars),
		index: make(map[string]int),
	}
	if c.opt.Neighbors <= 0 {
		c.opt.Neighbors = DefaultNeighbors
	}

	cols := make([][]float64, nvars)
	for r, row := range rows {
		if len(row) != nvars {
			return nil, fmt.Errorf("row %d has %d values for %d variables, %w", r, len(row), nvars, ErrVariableLenMismatch)
		}
		for v, x := range row {
			cols[v] = append(cols[v], x)
		}
	}

	for v := range nvars {
		gopt := NewDefaultGridOptions()
		if opt.Variables[v] != nil {
			cp := *opt.Variables[v]
			gopt = &cp
		}
		if gopt.Prefix == "" {
			gopt.Prefix = variablePrefix(v)
		}
		var (
			g   *Grid
			err error
		)
		if period := gopt.DatePart.Period(); period > 0 {
			g, err = NewGridFromBounds(0, period, gopt)
		} else {
			g, err = NewGrid(cols[v], gopt)
		}
		if err != nil {
			return nil, fmt.Errorf("unable to build grid for variable %d, %w", v, err)
		}
		c.grids[v] = g
	}
	for _, g := range c.grids {
		if g.Len() == 0 {
			return c, nil
		}
	}

	for _, row := range rows {
		if slices.ContainsFunc(row, math.IsNaN) {
			continue
		}
		lags := make([][]int, nvars)
		for v, x := range row {
			lags[v] = c.neighbors(v, x)
		}
		for comp := range paths.Enumerate(lags) {
			c.register(comp)
		}
	}
	return c, nil
}

// neighbors returns the best matching set indices of variable v for x
func (c *GridCluster) neighbors(v int, x float64) []int {
	deg := c.grids[v].Fuzzify(x, 0, 0)
	slices.SortStableFunc(deg, func(a, b Degree) int {
		return cmp.Compare(b.Membership, a.Membership)
	})
	if len(deg) > c.opt.Neighbors {
		deg = deg[:c.opt.Neighbors]
	}
	out := make([]int, 0, len(deg))
	for _, d := range deg {
		out = append(out, d.Index)
	}
	return out
}

func (c *GridCluster) compositeName(comp []int) string {
	names := make([]string, len(comp))
	for v, i := range comp {
		names[v] = c.grids[v].Set(i).Name()
	}
	return strings.Join(names, compositeSep)
}

func (c *GridCluster) register(comp []int) {
	name := c.compositeName(comp)
	if _, exists := c.index[name]; exists {
		return
	}
	c.index[name] = len(c.composites)
	c.composites = append(c.composites, slices.Clone(comp))
	c.sets = append(c.sets, c.grids[c.opt.Target].Set(comp[c.opt.Target]).WithName(name))
}

// Len returns the number of composite sets
func (c *GridCluster) Len() int {
	if c == nil {
		return 0
	}
	return len(c.composites)
}

// Set returns the target component of composite i under the composite name
func (c *GridCluster) Set(i int) *fuzzyset.FuzzySet {
	return c.sets[i]
}

// Composite returns the per variable set indices of composite i
func (c *GridCluster) Composite(i int) []int {
	return slices.Clone(c.composites[i])
}

// Index returns the position of a composite by name
func (c *GridCluster) Index(name string) (int, bool) {
	idx, exists := c.index[name]
	return idx, exists
}

func (c *GridCluster) Names() []string {
	names := make([]string, 0, len(c.sets))
	for _, fs := range c.sets {
		names = append(names, fs.Name())
	}
	return names
}

// Target returns the index of the forecast variable
func (c *GridCluster) Target() int {
	return c.opt.Target
}

func (c *GridCluster) NumVariables() int {
	return len(c.grids)
}

// Grid returns the partitioner of variable v
func (c *GridCluster) Grid(v int) *Grid {
	return c.grids[v]
}

// Options returns the options the cluster was built with
func (c *GridCluster) Options() ClusterOptions {
	return c.opt
}

// UoD returns the universe of discourse of the target variable
func (c *GridCluster) UoD() (float64, float64) {
	return c.grids[c.opt.Target].UoD()
}

// Membership evaluates the composite membership of a row at time index t
func (c *GridCluster) Membership(i int, row []float64, t int) float64 {
	m := 1.0
	for v, s := range c.composites[i] {
		m = min(m, c.grids[v].Membership(s, row[v], t))
	}
	return m
}

// Fuzzify returns every composite whose membership of row is above alphaCut. When none
// match, the composite with the closest component centroids stands in for row with a
// membership of 1.
func (c *GridCluster) Fuzzify(row []float64, t int, alphaCut float64) []Degree {
	if len(c.composites) == 0 || len(row) != len(c.grids) {
		return nil
	}

	// per variable memberships are shared by many composites
	memo := make([][]float64, len(c.grids))
	for v, g := range c.grids {
		memo[v] = make([]float64, g.Len())
		for i := range memo[v] {
			memo[v][i] = g.Membership(i, row[v], t)
		}
	}

	var out []Degree
	for i, comp := range c.composites {
		m := 1.0
		for v, s := range comp {
			m = min(m, memo[v][s])
		}
		if m > alphaCut {
			out = append(out, Degree{Index: i, Membership: m})
		}
	}
	if len(out) > 0 {
		return out
	}

	best, bestDist := 0, math.Inf(1)
	for i, comp := range c.composites {
		var d float64
		for v, s := range comp {
			g := c.grids[v]
			span := g.Max() - g.ShiftedMin()
			z := (row[v] - g.Set(s).Midpoint(t)) / span
			d += z * z
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return []Degree{{Index: best, Membership: 1}}
}

// Prune removes the composites for which keep returns false and returns the number removed.
// Indices of the remaining composites are compacted in their original order.
func (c *GridCluster) Prune(keep func(i int) bool) int {
	var (
		composites [][]int
		sets       []*fuzzyset.FuzzySet
	)
	index := make(map[string]int)
	for i, comp := range c.composites {
		if !keep(i) {
			continue
		}
		index[c.sets[i].Name()] = len(composites)
		composites = append(composites, comp)
		sets = append(sets, c.sets[i])
	}
	removed := len(c.composites) - len(composites)
	c.composites, c.sets, c.index = composites, sets, index
	return removed
}
