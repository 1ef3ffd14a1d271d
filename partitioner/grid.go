// Package partitioner divides a universe of discourse into ordered fuzzy sets and fuzzifies
// raw values against them.
package partitioner

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/aouyang1/go-fuzzyts/datepart"
	"github.com/aouyang1/go-fuzzyts/fuzzyset"
	"github.com/aouyang1/go-fuzzyts/membership"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrNoData              = errors.New("no data to partition")
	ErrInvalidPartitions   = errors.New("number of partitions must be positive")
	ErrUninitializedGrid   = errors.New("uninitialized grid partitioner")
	ErrVariableLenMismatch = errors.New("row has a different number of variables than the partitioner")
)

const DefaultPrefix = "A"

// Degree pairs a fuzzy set index with the membership degree of a fuzzified value
type Degree struct {
	Index      int
	Membership float64
}

// GridOptions configures an even length grid partitioning
type GridOptions struct {
	Partitions int             `json:"partitions"`
	MF         membership.Func `json:"membership_function"`
	Prefix     string          `json:"prefix"`

	// DatePart marks a seasonal variable. Within a grid cluster its universe of discourse is
	// one cycle of the date part rather than the observed range.
	DatePart datepart.DatePart `json:"date_part,omitempty"`

	// Perturbation makes every set non-stationary
	Perturbation *fuzzyset.Perturbation `json:"perturbation,omitempty"`
}

// NewDefaultGridOptions returns 10 triangular partitions named A0 through A9
func NewDefaultGridOptions() *GridOptions {
	return &GridOptions{
		Partitions: 10,
		MF:         membership.Triangular,
		Prefix:     DefaultPrefix,
	}
}

func (o *GridOptions) Validate() (*GridOptions, error) {
	if o == nil {
		return NewDefaultGridOptions(), nil
	}
	if o.Partitions <= 0 {
		return nil, fmt.Errorf("got %d, %w", o.Partitions, ErrInvalidPartitions)
	}
	if o.MF.NumParams() == 0 {
		return nil, fmt.Errorf("%s, %w", o.MF, membership.ErrUnknownFunc)
	}
	if err := o.Perturbation.Valid(); err != nil {
		return nil, err
	}
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	return o, nil
}

// Grid partitions [min, max] into evenly sized and evenly spaced fuzzy sets. The first set is
// centered on min and extends one partition width below it, which ShiftedMin reports as the
// effective lower end of the universe of discourse.
type Grid struct {
	opt *GridOptions

	min        float64
	max        float64
	shiftedMin float64

	sets  []*fuzzyset.FuzzySet
	index map[string]int
}

// NewGrid sets the universe of discourse to the observed bounds of data and builds the sets.
// NaNs are ignored.
func NewGrid(data []float64, opt *GridOptions) (*Grid, error) {
	clean := make([]float64, 0, len(data))
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		clean = append(clean, v)
	}
	if len(clean) == 0 {
		return nil, ErrNoData
	}
	return NewGridFromBounds(floats.Min(clean), floats.Max(clean), opt)
}

// NewGridFromBounds builds the sets over an explicit [min, max] universe of discourse
func NewGridFromBounds(min, max float64, opt *GridOptions) (*Grid, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	g := &Grid{
		opt: opt,
		min: min,
		max: max,
	}
	if err := g.build(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grid) build() error {
	partlen := (g.max - g.min) / float64(g.opt.Partitions)

	g.sets = nil
	g.index = make(map[string]int)
	g.shiftedMin = g.min

	if !(partlen > 0) {
		slog.Warn("degenerate universe of discourse, no fuzzy sets built",
			"min", g.min, "max", g.max, "partitions", g.opt.Partitions)
		return nil
	}

	setOpt := &fuzzyset.Options{
		Perturbation: g.opt.Perturbation,
	}
	g.sets = make([]*fuzzyset.FuzzySet, 0, g.opt.Partitions)
	for i := 0; i < g.opt.Partitions; i++ {
		c := g.min + float64(i)*partlen

		var params []float64
		switch g.opt.MF {
		case membership.Triangular:
			params = []float64{c - partlen, c, c + partlen}
		case membership.Gaussian:
			params = []float64{c, partlen / 3}
		case membership.Trapezoidal:
			q := partlen / 2
			params = []float64{c - partlen, c - q, c + q, c + partlen}
		}

		name := g.opt.Prefix + strconv.Itoa(i)
		fs, err := fuzzyset.New(name, g.opt.MF, params, c, setOpt)
		if err != nil {
			return fmt.Errorf("unable to create fuzzy set %s, %w", name, err)
		}
		g.index[name] = len(g.sets)
		g.sets = append(g.sets, fs)
	}

	g.shiftedMin = g.min - partlen
	return nil
}

// Options returns the options the grid was built with
func (g *Grid) Options() GridOptions {
	if g == nil || g.opt == nil {
		return GridOptions{}
	}
	return *g.opt
}

// Min is the observed lower bound the grid was built from
func (g *Grid) Min() float64 {
	return g.min
}

func (g *Grid) Max() float64 {
	return g.max
}

// ShiftedMin is min moved left by one partition width after building
func (g *Grid) ShiftedMin() float64 {
	return g.shiftedMin
}

// UoD returns the effective universe of discourse covered by the sets
func (g *Grid) UoD() (float64, float64) {
	return g.shiftedMin, g.max
}

func (g *Grid) Partitions() int {
	return g.opt.Partitions
}

// Len returns the number of fuzzy sets, which is zero for a degenerate universe of discourse
func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.sets)
}

func (g *Grid) Set(i int) *fuzzyset.FuzzySet {
	return g.sets[i]
}

// Sets returns the fuzzy sets ordered by centroid
func (g *Grid) Sets() []*fuzzyset.FuzzySet {
	sets := make([]*fuzzyset.FuzzySet, len(g.sets))
	copy(sets, g.sets)
	return sets
}

// OrderedNames returns the set names ordered by centroid
func (g *Grid) OrderedNames() []string {
	names := make([]string, 0, len(g.sets))
	for _, fs := range g.sets {
		names = append(names, fs.Name())
	}
	return names
}

// Index returns the position of a named set
func (g *Grid) Index(name string) (int, bool) {
	idx, exists := g.index[name]
	return idx, exists
}

func (g *Grid) LowerSet() *fuzzyset.FuzzySet {
	return g.sets[0]
}

func (g *Grid) UpperSet() *fuzzyset.FuzzySet {
	return g.sets[len(g.sets)-1]
}

// Membership evaluates the membership of x in set i at time index t
func (g *Grid) Membership(i int, x float64, t int) float64 {
	return g.sets[i].MembershipAt(x, t)
}

// Fuzzify returns every set whose membership of x at time index t is above alphaCut in
// spatial order. When no set matches, the nearest boundary set stands in for x with a
// membership of 1 so it keeps its weight in joint memberships.
func (g *Grid) Fuzzify(x float64, t int, alphaCut float64) []Degree {
	if len(g.sets) == 0 {
		return nil
	}
	var out []Degree
	for i, fs := range g.sets {
		if m := fs.MembershipAt(x, t); m > alphaCut {
			out = append(out, Degree{Index: i, Membership: m})
		}
	}
	if len(out) > 0 {
		return out
	}
	return []Degree{{Index: g.boundaryIndex(x, t), Membership: 1}}
}

// IsOutOfRange reports whether x lies strictly outside the supports of all sets at time t
func (g *Grid) IsOutOfRange(x float64, t int) bool {
	if len(g.sets) == 0 {
		return true
	}
	return x < g.LowerSet().LowerAt(t) || x > g.UpperSet().UpperAt(t)
}

func (g *Grid) boundaryIndex(x float64, t int) int {
	last := len(g.sets) - 1
	if x <= g.sets[0].Midpoint(t) {
		return 0
	}
	if x >= g.sets[last].Midpoint(t) {
		return last
	}
	best, bestDist := 0, math.Inf(1)
	for i, fs := range g.sets {
		if d := math.Abs(fs.Midpoint(t) - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
