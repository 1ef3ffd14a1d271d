// Package membership implements the membership functions used to shape fuzzy sets over a
// universe of discourse.
package membership

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnknownFunc = errors.New("unknown membership function")

// Func identifies the shape of a membership function. The parameter vector passed to Eval
// must be sized to the function: 3 for triangular, 2 for gaussian and 4 for trapezoidal.
type Func int

const (
	Triangular Func = iota
	Gaussian
	Trapezoidal
)

func (f Func) String() string {
	switch f {
	case Triangular:
		return "triangular"
	case Gaussian:
		return "gaussian"
	case Trapezoidal:
		return "trapezoidal"
	}
	return fmt.Sprintf("func(%d)", int(f))
}

// NumParams returns the length of the parameter vector expected by the function
func (f Func) NumParams() int {
	switch f {
	case Triangular:
		return 3
	case Gaussian:
		return 2
	case Trapezoidal:
		return 4
	}
	return 0
}

// Parse returns the membership function for a name, accepting the short forms
// trimf, gaussmf and trapmf as well.
func Parse(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "triangular", "trimf", "tri":
		return Triangular, nil
	case "gaussian", "gaussmf", "gauss":
		return Gaussian, nil
	case "trapezoidal", "trapmf", "trap":
		return Trapezoidal, nil
	}
	return 0, fmt.Errorf("%q, %w", name, ErrUnknownFunc)
}

func (f Func) MarshalText() ([]byte, error) {
	if f.NumParams() == 0 {
		return nil, fmt.Errorf("%d, %w", int(f), ErrUnknownFunc)
	}
	return []byte(f.String()), nil
}

func (f *Func) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Eval returns the membership degree of x in [0, 1]
func (f Func) Eval(x float64, params []float64) float64 {
	switch f {
	case Triangular:
		return Tri(x, params[0], params[1], params[2])
	case Gaussian:
		return Gauss(x, params[0], params[1])
	case Trapezoidal:
		return Trap(x, params[0], params[1], params[2], params[3])
	}
	return 0
}

// Tri is a triangle with support [a, c] peaking at b
func Tri(x, a, b, c float64) float64 {
	switch {
	case x < a || x > c:
		return 0
	case x < b:
		return (x - a) / (b - a)
	case x == b:
		return 1
	default:
		return (c - x) / (c - b)
	}
}

// Gauss is a gaussian bell centered at center with the given width
func Gauss(x, center, width float64) float64 {
	z := (x - center) / width
	return math.Exp(-0.5 * z * z)
}

// Trap is a trapezoid with support [a, d] and plateau [b, c]
func Trap(x, a, b, c, d float64) float64 {
	switch {
	case x < a || x > d:
		return 0
	case x < b:
		return (x - a) / (b - a)
	case x <= c:
		return 1
	default:
		return (d - x) / (d - c)
	}
}
