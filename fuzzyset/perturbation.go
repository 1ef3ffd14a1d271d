package fuzzyset

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-fuzzyts/membership"
)

var ErrUnknownTermKind = errors.New("unknown perturbation term kind")

// TermKind selects the function of time used by a perturbation term
type TermKind string

const (
	// TermPolynomial evaluates the parameters as polynomial coefficients, highest degree first
	TermPolynomial TermKind = "polynomial"
	// TermExponential evaluates exp(t * params[0])
	TermExponential TermKind = "exponential"
	// TermPeriodic evaluates params[0] * sin(t * params[1])
	TermPeriodic TermKind = "periodic"
)

// Term is one additive component of a perturbation
type Term struct {
	Kind   TermKind  `json:"kind"`
	Params []float64 `json:"params"`
}

// Eval returns the term value at time index t
func (p Term) Eval(t float64) float64 {
	switch p.Kind {
	case TermPolynomial:
		var v float64
		for _, c := range p.Params {
			v = v*t + c
		}
		return v
	case TermExponential:
		return math.Exp(t * p.Params[0])
	case TermPeriodic:
		return p.Params[0] * math.Sin(t*p.Params[1])
	}
	return 0
}

func (p Term) Valid() error {
	switch p.Kind {
	case TermPolynomial:
		return nil
	case TermExponential:
		if len(p.Params) < 1 {
			return fmt.Errorf("exponential term needs 1 parameter, %w", ErrInvalidParams)
		}
		return nil
	case TermPeriodic:
		if len(p.Params) < 2 {
			return fmt.Errorf("periodic term needs 2 parameters, %w", ErrInvalidParams)
		}
		return nil
	}
	return fmt.Errorf("%q, %w", p.Kind, ErrUnknownTermKind)
}

// Perturbation moves and stretches a fuzzy set over time. Location terms translate the set
// while width terms widen its support. The terms are evaluated at the time index offset by
// the respective root.
type Perturbation struct {
	Location      []Term  `json:"location,omitempty"`
	LocationRoots float64 `json:"location_roots,omitempty"`
	Width         []Term  `json:"width,omitempty"`
	WidthRoots    float64 `json:"width_roots,omitempty"`
}

func (p *Perturbation) Valid() error {
	if p == nil {
		return nil
	}
	for _, term := range p.Location {
		if err := term.Valid(); err != nil {
			return fmt.Errorf("invalid location term, %w", err)
		}
	}
	for _, term := range p.Width {
		if err := term.Valid(); err != nil {
			return fmt.Errorf("invalid width term, %w", err)
		}
	}
	return nil
}

func sumTerms(terms []Term, t float64) float64 {
	var inc float64
	for _, term := range terms {
		inc += term.Eval(t)
	}
	return inc
}

// apply returns a new parameter vector with the location and width shifts at time t
func (p *Perturbation) apply(mf membership.Func, params []float64, t int) []float64 {
	out := make([]float64, len(params))
	copy(out, params)
	if p == nil {
		return out
	}

	if len(p.Location) > 0 {
		inc := sumTerms(p.Location, float64(t)+p.LocationRoots)
		switch mf {
		case membership.Gaussian:
			out[0] += inc
		default:
			for i := range out {
				out[i] += inc
			}
		}
	}

	if len(p.Width) > 0 {
		inc := sumTerms(p.Width, float64(t)+p.WidthRoots)
		switch mf {
		case membership.Gaussian:
			out[1] += inc
		case membership.Triangular:
			out[0] -= inc / 2
			out[2] += inc / 2
		case membership.Trapezoidal:
			l := out[3] - out[0]
			rab := (out[1] - out[0]) / l
			rcd := (out[3] - out[2]) / l
			out[0] -= inc
			out[1] -= inc * rab
			out[2] += inc * rcd
			out[3] += inc
		}
	}
	return out
}
