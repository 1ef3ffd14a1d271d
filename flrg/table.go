package flrg

import (
	"maps"
	"slices"
	"strings"
)

// Table maps rule keys to their groups
type Table map[Key]*FLRG

// Get looks up the group matching the left hand side path
func (t Table) Get(lhs []int) (*FLRG, bool) {
	f, exists := t[NewKey(lhs)]
	return f, exists
}

// Insert registers the left hand side path if it is unseen and appends every consequent to its
// group
func (t Table) Insert(lhs []int, rhs ...int) *FLRG {
	key := NewKey(lhs)
	f, exists := t[key]
	if !exists {
		f = New(lhs)
		t[key] = f
	}
	for _, i := range rhs {
		f.AppendRHS(i)
	}
	return f
}

// Keys returns the rule keys in ascending order
func (t Table) Keys() []Key {
	return slices.SortedFunc(maps.Keys(t), Key.Compare)
}

// String renders one rule per line in key order
func (t Table) String(sets Sets) string {
	var sb strings.Builder
	for _, k := range t.Keys() {
		sb.WriteString(t[k].String(sets))
		sb.WriteString("\n")
	}
	return sb.String()
}
