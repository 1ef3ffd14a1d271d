// Package distribution implements a histogram probability distribution over a bounded universe
// of discourse
package distribution

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrInvalidBins  = errors.New("number of bins must be positive")
	ErrInvalidRange = errors.New("upper bound must be greater than lower bound")
	ErrZeroMass     = errors.New("distribution has no probability mass")
)

const DefaultBins = 100

// Distribution holds the probability of evenly sized bins spanning [lower, upper]
type Distribution struct {
	lower float64
	upper float64
	width float64

	centers []float64
	prob    []float64
}

// New creates an empty distribution with nbins bins over [lower, upper]
func New(lower, upper float64, nbins int) (*Distribution, error) {
	if nbins <= 0 {
		return nil, fmt.Errorf("got %d, %w", nbins, ErrInvalidBins)
	}
	if !(upper > lower) {
		return nil, fmt.Errorf("[%v, %v], %w", lower, upper, ErrInvalidRange)
	}
	width := (upper - lower) / float64(nbins)
	centers := make([]float64, nbins)
	for i := range centers {
		centers[i] = lower + (float64(i)+0.5)*width
	}
	return &Distribution{
		lower:   lower,
		upper:   upper,
		width:   width,
		centers: centers,
		prob:    make([]float64, nbins),
	}, nil
}

func (d *Distribution) Lower() float64 {
	return d.lower
}

func (d *Distribution) Upper() float64 {
	return d.upper
}

// Len returns the number of bins
func (d *Distribution) Len() int {
	return len(d.centers)
}

// Bins returns the bin centers
func (d *Distribution) Bins() []float64 {
	return slices.Clone(d.centers)
}

// Probabilities returns the probability of each bin
func (d *Distribution) Probabilities() []float64 {
	return slices.Clone(d.prob)
}

// BinIndex returns the bin containing x, clamped to the first and last bins
func (d *Distribution) BinIndex(x float64) int {
	i := int(math.Floor((x - d.lower) / d.width))
	return max(0, min(len(d.centers)-1, i))
}

// Accumulate adds weight times f evaluated at every bin center to the unnormalized mass
func (d *Distribution) Accumulate(weight float64, f func(x float64) float64) {
	for i, x := range d.centers {
		d.prob[i] += weight * f(x)
	}
}

// Normalize scales the mass to sum to one
func (d *Distribution) Normalize() error {
	total := floats.Sum(d.prob)
	if !(total > 0) || math.IsInf(total, 0) {
		return ErrZeroMass
	}
	floats.Scale(1/total, d.prob)
	return nil
}

// SetPoint places all the probability on the bin containing x
func (d *Distribution) SetPoint(x float64) {
	clear(d.prob)
	d.prob[d.BinIndex(x)] = 1
}

// Density returns the probability of the bin containing x, or zero outside the bounds
func (d *Distribution) Density(x float64) float64 {
	if x < d.lower || x > d.upper {
		return 0
	}
	return d.prob[d.BinIndex(x)]
}

// Expected returns the probability weighted mean of the bin centers
func (d *Distribution) Expected() float64 {
	return floats.Dot(d.centers, d.prob)
}

// CDF returns the cumulative probability up to and including the bin containing x
func (d *Distribution) CDF(x float64) float64 {
	if x < d.lower {
		return 0
	}
	if x >= d.upper {
		return floats.Sum(d.prob)
	}
	return floats.Sum(d.prob[:d.BinIndex(x)+1])
}

// Quantile returns the center of the first bin whose cumulative probability reaches q
func (d *Distribution) Quantile(q float64) float64 {
	cum := make([]float64, len(d.prob))
	floats.CumSum(cum, d.prob)
	for i, c := range cum {
		if c >= q {
			return d.centers[i]
		}
	}
	return d.centers[len(d.centers)-1]
}

// Clone returns a deep copy of the distribution
func (d *Distribution) Clone() *Distribution {
	c := *d
	c.centers = slices.Clone(d.centers)
	c.prob = slices.Clone(d.prob)
	return &c
}

// Smooth convolves the distribution with a gaussian kernel of standard deviation sigma and
// returns the renormalized result. A non-positive sigma returns a copy.
func (d *Distribution) Smooth(sigma float64) *Distribution {
	out := d.Clone()
	if !(sigma > 0) {
		return out
	}
	clear(out.prob)
	for i, p := range d.prob {
		if p == 0 {
			continue
		}
		kernel := distuv.Normal{Mu: d.centers[i], Sigma: sigma}
		for j, x := range d.centers {
			out.prob[j] += p * kernel.Prob(x) * d.width
		}
	}
	if err := out.Normalize(); err != nil {
		return d.Clone()
	}
	return out
}

type jsonDistribution struct {
	Lower         float64   `json:"lower"`
	Upper         float64   `json:"upper"`
	Bins          []float64 `json:"bins"`
	Probabilities []float64 `json:"probabilities"`
}

func (d *Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonDistribution{
		Lower:         d.lower,
		Upper:         d.upper,
		Bins:          d.centers,
		Probabilities: d.prob,
	})
}

func (d *Distribution) UnmarshalJSON(data []byte) error {
	var jd jsonDistribution
	if err := json.Unmarshal(data, &jd); err != nil {
		return err
	}
	nd, err := New(jd.Lower, jd.Upper, len(jd.Probabilities))
	if err != nil {
		return err
	}
	copy(nd.prob, jd.Probabilities)
	*d = *nd
	return nil
}
