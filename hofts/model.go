// Package hofts implements a high order non-stationary fuzzy time series model. Training slides
// a window of order lags over the data and records, for every combination of fuzzy sets
// matching the lags, the sets matching the following value. Forecasts aggregate the groups
// matching a new sample into point, interval and distribution forecasts.
package hofts

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/aouyang1/go-fuzzyts/flrg"
	"github.com/aouyang1/go-fuzzyts/fuzzyset"
	"github.com/aouyang1/go-fuzzyts/partitioner"
	"github.com/aouyang1/go-fuzzyts/paths"
)

var (
	ErrUninitializedModel = errors.New("uninitialized model")
	ErrNoPartitioner      = errors.New("no partitioner provided")
	ErrNoFuzzySets        = errors.New("partitioner has no fuzzy sets")
	ErrInsufficientData   = errors.New("insufficient data for model order")
	ErrNaNInput           = errors.New("input contains NaN")
	ErrInvalidSteps       = errors.New("number of steps must be positive")
	ErrUntrained          = errors.New("model has not been trained")
	ErrInvalidOrder       = errors.New("invalid model order")
	ErrInvalidAlphaCut    = errors.New("invalid alpha cut")
	ErrInvalidSmoothing   = errors.New("invalid smoothing")
	ErrInvalidRule        = errors.New("rule references an unknown fuzzy set")
	ErrNoNext             = errors.New("no generator for the next input")
)

// Partitioner provides the ordered fuzzy sets of a variable and fuzzifies its values
type Partitioner[T any] interface {
	Len() int
	Set(i int) *fuzzyset.FuzzySet
	Fuzzify(x T, t int, alphaCut float64) []partitioner.Degree
	UoD() (float64, float64)
}

// Next builds the next input from the history so far and the forecast target value. It is used
// to feed forecasts back into the model for ahead forecasts.
type Next[T any] func(history []T, target float64) T

// Identity feeds the forecast back unchanged for univariate series
func Identity(_ []float64, target float64) float64 {
	return target
}

// Model is a high order non-stationary fuzzy time series. A trained model is safe for
// concurrent forecasts but Train must not run concurrently with any other call.
type Model[T any] struct {
	opt   *Options
	part  Partitioner[T]
	next  Next[T]
	rules flrg.Table
}

// New creates an untrained model over the partitioner's fuzzy sets
func New[T any](part Partitioner[T], next Next[T], opt *Options) (*Model[T], error) {
	if part == nil {
		return nil, ErrNoPartitioner
	}
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Model[T]{
		opt:  opt,
		part: part,
		next: next,
	}, nil
}

// NewUnivariate creates a model over a grid partitioner of a single series
func NewUnivariate(part *partitioner.Grid, opt *Options) (*Model[float64], error) {
	if part == nil {
		return nil, ErrNoPartitioner
	}
	return New[float64](part, Identity, opt)
}

// Options returns a copy of the model options
func (m *Model[T]) Options() Options {
	return *m.opt
}

func (m *Model[T]) Order() int {
	return m.opt.Order
}

func (m *Model[T]) Partitioner() Partitioner[T] {
	return m.part
}

// Len returns the number of rules
func (m *Model[T]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

// Rule returns the group trained for a left hand side path
func (m *Model[T]) Rule(lhs []int) (*flrg.FLRG, bool) {
	return m.rules.Get(lhs)
}

// Rules returns every trained group in key order
func (m *Model[T]) Rules() []*flrg.FLRG {
	out := make([]*flrg.FLRG, 0, len(m.rules))
	for _, k := range m.rules.Keys() {
		out = append(out, m.rules[k])
	}
	return out
}

// UsedSets returns the sorted indices of the sets referenced by any rule
func (m *Model[T]) UsedSets() []int {
	seen := make(map[int]struct{})
	for _, r := range m.rules {
		for _, i := range r.LHS() {
			seen[i] = struct{}{}
		}
		for _, i := range r.RHS() {
			seen[i] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// String lists one rule per line as "A1,A2 -> A2,A3"
func (m *Model[T]) String() string {
	if m == nil {
		return ""
	}
	return m.rules.String(m.part)
}

func hasNaN[T any](x T) bool {
	switch v := any(x).(type) {
	case float64:
		return math.IsNaN(v)
	case []float64:
		return slices.ContainsFunc(v, math.IsNaN)
	}
	return false
}

func (m *Model[T]) validateInput(data []T, minLen int) error {
	if len(data) < minLen {
		return fmt.Errorf("got %d points for order %d, %w", len(data), m.opt.Order, ErrInsufficientData)
	}
	for i, x := range data {
		if hasNaN(x) {
			return fmt.Errorf("at index %d, %w", i, ErrNaNInput)
		}
	}
	return nil
}

// Train rebuilds the rule table from data. Every transition in data contributes its right hand
// side sets to one group per combination of sets matching its lags.
func (m *Model[T]) Train(data []T) error {
	if m == nil {
		return ErrUninitializedModel
	}
	if m.part.Len() == 0 {
		return ErrNoFuzzySets
	}
	order := m.opt.Order
	if err := m.validateInput(data, order+1); err != nil {
		return err
	}

	ws := m.opt.WindowSize
	rules := make(flrg.Table)
	lhs := make([]int, order)
	for k := order; k < len(data); k++ {
		rhsDeg := m.part.Fuzzify(data[k], window(k, ws), m.opt.AlphaCut)
		rhs := make([]int, len(rhsDeg))
		for i, d := range rhsDeg {
			rhs[i] = d.Index
		}

		lags := m.lags(data[k-order:k], k, ws)
		for path := range paths.Enumerate(lags) {
			for i, d := range path {
				lhs[i] = d.Index
			}
			rules.Insert(lhs, rhs...)
		}
	}
	m.rules = rules

	slog.Debug("trained high order model", "order", order, "samples", len(data), "rules", len(rules))
	return nil
}

// lags fuzzifies every lag of sample where t is the time index of the value that follows the
// sample
func (m *Model[T]) lags(sample []T, t, windowSize int) [][]partitioner.Degree {
	order := len(sample)
	lags := make([][]partitioner.Degree, order)
	for o, x := range sample {
		deg := m.part.Fuzzify(x, window(t-(order-o), windowSize), m.opt.AlphaCut)
		lags[o] = m.capCandidates(deg)
	}
	return lags
}

// capCandidates keeps the highest membership sets in spatial order
func (m *Model[T]) capCandidates(deg []partitioner.Degree) []partitioner.Degree {
	limit := m.opt.MaxCandidatesPerLag
	if limit <= 0 || len(deg) <= limit {
		return deg
	}
	top := slices.Clone(deg)
	slices.SortStableFunc(top, func(a, b partitioner.Degree) int {
		return cmp.Compare(b.Membership, a.Membership)
	})
	top = top[:limit]
	slices.SortFunc(top, func(a, b partitioner.Degree) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return top
}
