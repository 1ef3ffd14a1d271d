// Package fuzzyset defines named regions of a universe of discourse with a graded membership
// function. Sets can optionally be non-stationary, drifting over a time index.
package fuzzyset

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-fuzzyts/membership"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrInvalidParams = errors.New("invalid membership function parameters")
	ErrNoName        = errors.New("no fuzzy set name")
)

const DefaultCacheSize = 1024

// Options configures the optional behaviors of a fuzzy set
type Options struct {
	Perturbation *Perturbation

	// CacheSize bounds the number of perturbed parameter vectors kept per set
	CacheSize int
}

// FuzzySet is immutable once created. Perturbed parameters are memoized per time index in a
// thread safe cache so a trained model can be shared across goroutines.
type FuzzySet struct {
	name     string
	mf       membership.Func
	params   []float64
	centroid float64
	lower    float64
	upper    float64

	perturbation *Perturbation
	perturbed    *lru.Cache[int, []float64]
}

// New creates a fuzzy set. If no options are provided the set is stationary.
func New(name string, mf membership.Func, params []float64, centroid float64, opt *Options) (*FuzzySet, error) {
	if name == "" {
		return nil, ErrNoName
	}
	if mf.NumParams() == 0 {
		return nil, fmt.Errorf("%s, %w", mf, membership.ErrUnknownFunc)
	}
	if len(params) != mf.NumParams() {
		return nil, fmt.Errorf("%s expects %d parameters but got %d, %w", mf, mf.NumParams(), len(params), ErrInvalidParams)
	}
	if opt == nil {
		opt = &Options{}
	}

	p := make([]float64, len(params))
	copy(p, params)
	lower, upper := bounds(mf, p)

	fs := &FuzzySet{
		name:     name,
		mf:       mf,
		params:   p,
		centroid: centroid,
		lower:    lower,
		upper:    upper,
	}

	if opt.Perturbation != nil {
		if err := opt.Perturbation.Valid(); err != nil {
			return nil, err
		}
		size := opt.CacheSize
		if size <= 0 {
			size = DefaultCacheSize
		}
		cache, err := lru.New[int, []float64](size)
		if err != nil {
			return nil, fmt.Errorf("unable to create perturbation cache, %w", err)
		}
		fs.perturbation = opt.Perturbation
		fs.perturbed = cache
	}
	return fs, nil
}

func bounds(mf membership.Func, p []float64) (float64, float64) {
	switch mf {
	case membership.Gaussian:
		return p[0] - 3*p[1], p[0] + 3*p[1]
	case membership.Triangular:
		return p[0], p[2]
	case membership.Trapezoidal:
		return p[0], p[3]
	}
	return 0, 0
}

func (f *FuzzySet) Name() string {
	return f.name
}

func (f *FuzzySet) MF() membership.Func {
	return f.mf
}

// Params returns a copy of the stationary parameters
func (f *FuzzySet) Params() []float64 {
	p := make([]float64, len(f.params))
	copy(p, f.params)
	return p
}

func (f *FuzzySet) Centroid() float64 {
	return f.centroid
}

// Lower is the left end of the stationary support
func (f *FuzzySet) Lower() float64 {
	return f.lower
}

// Upper is the right end of the stationary support
func (f *FuzzySet) Upper() float64 {
	return f.upper
}

func (f *FuzzySet) NonStationary() bool {
	return f.perturbation != nil
}

// Membership evaluates the stationary membership of x
func (f *FuzzySet) Membership(x float64) float64 {
	return f.mf.Eval(x, f.params)
}

// MembershipAt evaluates the membership of x with the parameters perturbed to time index t
func (f *FuzzySet) MembershipAt(x float64, t int) float64 {
	return f.mf.Eval(x, f.paramsAt(t))
}

// ParamsAt returns a copy of the parameters perturbed to time index t
func (f *FuzzySet) ParamsAt(t int) []float64 {
	src := f.paramsAt(t)
	p := make([]float64, len(src))
	copy(p, src)
	return p
}

// paramsAt returns the shared parameter slice for t, callers must not modify it
func (f *FuzzySet) paramsAt(t int) []float64 {
	if f.perturbation == nil {
		return f.params
	}
	if p, ok := f.perturbed.Get(t); ok {
		return p
	}
	p := f.perturbation.apply(f.mf, f.params, t)
	f.perturbed.Add(t, p)
	return p
}

// Midpoint returns the representative value of the set at time index t
func (f *FuzzySet) Midpoint(t int) float64 {
	if f.perturbation == nil {
		return f.centroid
	}
	p := f.paramsAt(t)
	switch f.mf {
	case membership.Gaussian:
		return p[0]
	case membership.Triangular:
		return p[1]
	case membership.Trapezoidal:
		return (p[1] + p[2]) / 2
	}
	return f.centroid
}

// LowerAt returns the left end of the support at time index t
func (f *FuzzySet) LowerAt(t int) float64 {
	lower, _ := bounds(f.mf, f.paramsAt(t))
	return lower
}

// UpperAt returns the right end of the support at time index t
func (f *FuzzySet) UpperAt(t int) float64 {
	_, upper := bounds(f.mf, f.paramsAt(t))
	return upper
}

func (f *FuzzySet) String() string {
	return fmt.Sprintf("%s: %s(%v)", f.name, f.mf, f.params)
}

// WithName returns a copy of the set under another name. The copy shares the perturbation
// cache with the original.
func (f *FuzzySet) WithName(name string) *FuzzySet {
	c := *f
	c.name = name
	return &c
}
