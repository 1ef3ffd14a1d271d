// Package flrg implements high order fuzzy logical relationship groups. A group collects every
// right hand side fuzzy set observed after a left hand side pattern of fuzzy sets.
package flrg

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aouyang1/go-fuzzyts/fuzzyset"
)

// MaxOrder is the largest number of lags a rule key can hold
const MaxOrder = 16

// Sets resolves fuzzy set indices to fuzzy sets
type Sets interface {
	Set(i int) *fuzzyset.FuzzySet
}

// Key identifies a rule by the fuzzy set indices of its left hand side. Indices are stored
// sorted so two patterns with the same sets in a different lag order share a rule. Key is
// comparable and can be used directly as a map key.
type Key struct {
	n   uint8
	idx [MaxOrder]int32
}

// NewKey builds the key for a left hand side. It panics if more than MaxOrder indices are
// provided.
func NewKey(indices []int) Key {
	if len(indices) > MaxOrder {
		panic(fmt.Sprintf("flrg: %d indices exceed max order %d", len(indices), MaxOrder))
	}
	var k Key
	k.n = uint8(len(indices))
	for i, v := range indices {
		k.idx[i] = int32(v)
	}
	slices.Sort(k.idx[:k.n])
	return k
}

// Len returns the number of indices in the key
func (k Key) Len() int {
	return int(k.n)
}

// Indices returns the sorted set indices of the key
func (k Key) Indices() []int {
	out := make([]int, k.n)
	for i := range out {
		out[i] = int(k.idx[i])
	}
	return out
}

// Compare orders keys by length and then lexicographically by index
func (k Key) Compare(o Key) int {
	if k.n != o.n {
		return int(k.n) - int(o.n)
	}
	return slices.Compare(k.idx[:k.n], o.idx[:o.n])
}

func (k Key) String() string {
	parts := make([]string, 0, k.n)
	for _, v := range k.idx[:k.n] {
		parts = append(parts, strconv.Itoa(int(v)))
	}
	return strings.Join(parts, ",")
}

// FLRG is a non-stationary high order fuzzy logical relationship group. The left hand side
// keeps the lag order of the first pattern that created the group and never changes length
// once built. The right hand side is an insertion ordered set that only grows.
type FLRG struct {
	lhs []int
	rhs []int
}

// New creates a group with the left hand side path, lag 1 first
func New(lhs []int) *FLRG {
	f := &FLRG{lhs: make([]int, 0, len(lhs))}
	for _, i := range lhs {
		f.AppendLHS(i)
	}
	return f
}

// AppendLHS adds the set for the next lag
func (f *FLRG) AppendLHS(i int) {
	f.lhs = append(f.lhs, i)
}

// AppendRHS adds a consequent set, ignoring sets that are already present
func (f *FLRG) AppendRHS(i int) {
	if slices.Contains(f.rhs, i) {
		return
	}
	f.rhs = append(f.rhs, i)
}

// LHS returns a copy of the antecedent set indices in lag order
func (f *FLRG) LHS() []int {
	return slices.Clone(f.lhs)
}

// RHS returns a copy of the consequent set indices in insertion order
func (f *FLRG) RHS() []int {
	return slices.Clone(f.rhs)
}

func (f *FLRG) Key() Key {
	return NewKey(f.lhs)
}

// Order is the number of lags on the left hand side
func (f *FLRG) Order() int {
	return len(f.lhs)
}

// Midpoint returns the unweighted mean midpoint of the consequent sets at time index t. A group
// with no consequents answers with its last antecedent set.
func (f *FLRG) Midpoint(sets Sets, t int) float64 {
	return f.mean(sets, func(fs *fuzzyset.FuzzySet) float64 { return fs.Midpoint(t) })
}

// Lower returns the unweighted mean lower support bound of the consequent sets at time index t
func (f *FLRG) Lower(sets Sets, t int) float64 {
	return f.mean(sets, func(fs *fuzzyset.FuzzySet) float64 { return fs.LowerAt(t) })
}

// Upper returns the unweighted mean upper support bound of the consequent sets at time index t
func (f *FLRG) Upper(sets Sets, t int) float64 {
	return f.mean(sets, func(fs *fuzzyset.FuzzySet) float64 { return fs.UpperAt(t) })
}

// Consequents returns the sets that answer for the group, falling back to the last antecedent
// when nothing was observed on the right hand side
func (f *FLRG) Consequents() []int {
	if len(f.rhs) == 0 {
		if len(f.lhs) == 0 {
			return nil
		}
		return []int{f.lhs[len(f.lhs)-1]}
	}
	return slices.Clone(f.rhs)
}

func (f *FLRG) mean(sets Sets, val func(*fuzzyset.FuzzySet) float64) float64 {
	if len(f.rhs) == 0 {
		return val(sets.Set(f.lhs[len(f.lhs)-1]))
	}
	var sum float64
	for _, i := range f.rhs {
		sum += val(sets.Set(i))
	}
	return sum / float64(len(f.rhs))
}

// String renders the group as "A1,A2 -> A2,A3" with the consequents sorted by name
func (f *FLRG) String(sets Sets) string {
	lhs := make([]string, 0, len(f.lhs))
	for _, i := range f.lhs {
		lhs = append(lhs, sets.Set(i).Name())
	}
	rhs := make([]string, 0, len(f.rhs))
	for _, i := range f.rhs {
		rhs = append(rhs, sets.Set(i).Name())
	}
	slices.Sort(rhs)
	return strings.Join(lhs, ",") + " -> " + strings.Join(rhs, ",")
}
