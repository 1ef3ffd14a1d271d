package hofts

import (
	"fmt"

	"github.com/aouyang1/go-fuzzyts/flrg"
)

// Rule is the serializable form of a group as set indices
type Rule struct {
	LHS []int `json:"lhs"`
	RHS []int `json:"rhs"`
}

// Snapshot is the serializable state of a trained model. The set indices are only meaningful
// against the partitioner the model was trained with.
type Snapshot struct {
	Options Options `json:"options"`
	Rules   []Rule  `json:"rules"`
}

// Model returns the options and rules of the model in key order
func (m *Model[T]) Model() (Snapshot, error) {
	if m == nil {
		return Snapshot{}, ErrUninitializedModel
	}
	if m.rules == nil {
		return Snapshot{}, ErrUntrained
	}
	snap := Snapshot{
		Options: *m.opt,
		Rules:   make([]Rule, 0, len(m.rules)),
	}
	for _, r := range m.Rules() {
		snap.Rules = append(snap.Rules, Rule{LHS: r.LHS(), RHS: r.RHS()})
	}
	return snap, nil
}

// NewFromModel restores a trained model against the partitioner it was trained with
func NewFromModel[T any](part Partitioner[T], next Next[T], snap Snapshot) (*Model[T], error) {
	m, err := New(part, next, &snap.Options)
	if err != nil {
		return nil, err
	}
	n := part.Len()
	valid := func(idx []int) bool {
		for _, i := range idx {
			if i < 0 || i >= n {
				return false
			}
		}
		return true
	}

	m.rules = make(flrg.Table, len(snap.Rules))
	for i, r := range snap.Rules {
		if len(r.LHS) != m.opt.Order || !valid(r.LHS) || !valid(r.RHS) {
			return nil, fmt.Errorf("rule %d with %d sets, %w", i, n, ErrInvalidRule)
		}
		m.rules.Insert(r.LHS, r.RHS...)
	}
	return m, nil
}
