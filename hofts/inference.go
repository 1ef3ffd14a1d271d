package hofts

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-fuzzyts/distribution"
	"github.com/aouyang1/go-fuzzyts/flrg"
	"github.com/aouyang1/go-fuzzyts/fuzzyset"
	"github.com/aouyang1/go-fuzzyts/partitioner"
	"github.com/aouyang1/go-fuzzyts/paths"
)

// Interval is a forecast range
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Midpoint returns the center of the interval
func (i Interval) Midpoint() float64 {
	return (i.Lower + i.Upper) / 2
}

// candidate is a left hand side path matching a sample with its joint membership. rule is nil
// for patterns absent from the rule table.
type candidate struct {
	lhs    []int
	weight float64
	rule   *flrg.FLRG
}

// value selects which statistic of a fuzzy set or group a forecast aggregates
type value int

const (
	valueMidpoint value = iota
	valueLower
	valueUpper
)

func setValue(fs *fuzzyset.FuzzySet, v value, t int) float64 {
	switch v {
	case valueLower:
		return fs.LowerAt(t)
	case valueUpper:
		return fs.UpperAt(t)
	}
	return fs.Midpoint(t)
}

func (m *Model[T]) candidateValue(c candidate, v value, t int) float64 {
	if c.rule == nil {
		return setValue(m.part.Set(c.lhs[len(c.lhs)-1]), v, t)
	}
	switch v {
	case valueLower:
		return c.rule.Lower(m.part, t)
	case valueUpper:
		return c.rule.Upper(m.part, t)
	}
	return c.rule.Midpoint(m.part, t)
}

// affected returns every path matching the sample whose next value has time index t
func (m *Model[T]) affected(sample []T, t, windowSize int) []candidate {
	lags := m.lags(sample, t, windowSize)
	cands := make([]candidate, 0, paths.Count(lags))
	for path := range paths.Enumerate(lags) {
		c := candidate{
			lhs:    make([]int, len(path)),
			weight: 1,
		}
		for i, d := range path {
			c.lhs[i] = d.Index
			c.weight *= d.Membership
		}
		c.rule, _ = m.rules.Get(c.lhs)
		cands = append(cands, c)
	}
	return cands
}

// boundary returns the best matching set of x, which is the boundary set when x is outside
// every support
func (m *Model[T]) boundary(x T, t int) (int, bool) {
	deg := m.part.Fuzzify(x, t, m.opt.AlphaCut)
	if len(deg) == 0 {
		return 0, false
	}
	best := deg[0]
	for _, d := range deg[1:] {
		if d.Membership > best.Membership {
			best = d
		}
	}
	return best.Index, true
}

// aggregate applies the candidate policy. With no candidates the boundary set of the last lag
// answers. A single candidate answers with its value. Multiple candidates are summed weighted
// by their joint memberships without dividing by the total weight.
func (m *Model[T]) aggregate(sample []T, cands []candidate, v value, t int) float64 {
	switch len(cands) {
	case 0:
		idx, ok := m.boundary(sample[len(sample)-1], t)
		if !ok {
			return math.NaN()
		}
		return setValue(m.part.Set(idx), v, t)
	case 1:
		return m.candidateValue(cands[0], v, t)
	}
	return m.weightedSum(cands, v, t)
}

func (m *Model[T]) weightedSum(cands []candidate, v value, t int) float64 {
	var sum float64
	for _, c := range cands {
		sum += m.candidateValue(c, v, t) * c.weight
	}
	return sum
}

func (m *Model[T]) checkForecast(data []T) error {
	if m == nil {
		return ErrUninitializedModel
	}
	if m.rules == nil {
		return ErrUntrained
	}
	return m.validateInput(data, m.opt.Order)
}

func (m *Model[T]) pointAt(sample []T, t, windowSize int) float64 {
	cands := m.affected(sample, t, windowSize)
	return m.aggregate(sample, cands, valueMidpoint, window(t, windowSize))
}

func (m *Model[T]) intervalAt(sample []T, t, windowSize int) Interval {
	cands := m.affected(sample, t, windowSize)
	tw := window(t, windowSize)
	return Interval{
		Lower: m.aggregate(sample, cands, valueLower, tw),
		Upper: m.aggregate(sample, cands, valueUpper, tw),
	}
}

func (m *Model[T]) distributionAt(sample []T, t, windowSize int) (*distribution.Distribution, error) {
	lo, hi := m.part.UoD()
	dist, err := distribution.New(lo, hi, m.opt.DistributionBins)
	if err != nil {
		return nil, fmt.Errorf("unable to create distribution, %w", err)
	}

	cands := m.affected(sample, t, windowSize)
	tw := window(t, windowSize)

	if len(cands) == 0 {
		if idx, ok := m.boundary(sample[len(sample)-1], tw); ok {
			m.accumulate(dist, 1, []int{idx}, tw)
		}
	}
	for _, c := range cands {
		weight := c.weight
		if len(cands) == 1 {
			weight = 1
		}
		sets := []int{c.lhs[len(c.lhs)-1]}
		if c.rule != nil {
			sets = c.rule.Consequents()
		}
		m.accumulate(dist, weight, sets, tw)
	}

	if err := dist.Normalize(); err != nil {
		if !errors.Is(err, distribution.ErrZeroMass) {
			return nil, err
		}
		dist.SetPoint(m.aggregate(sample, cands, valueMidpoint, tw))
	}
	return dist, nil
}

// accumulate adds the mean membership of the sets at every bin scaled by weight
func (m *Model[T]) accumulate(dist *distribution.Distribution, weight float64, sets []int, t int) {
	fs := make([]*fuzzyset.FuzzySet, len(sets))
	for i, s := range sets {
		fs[i] = m.part.Set(s)
	}
	n := float64(len(fs))
	dist.Accumulate(weight, func(x float64) float64 {
		var sum float64
		for _, f := range fs {
			sum += f.MembershipAt(x, t)
		}
		return sum / n
	})
}

// Forecast returns a point forecast for every index in [order, len(data)], each forecasting
// the value following the previous order points. The output has len(data)-order+1 values.
func (m *Model[T]) Forecast(data []T, fo *ForecastOptions) ([]float64, error) {
	if err := m.checkForecast(data); err != nil {
		return nil, err
	}
	f := m.forecastOptions(fo)
	order := m.opt.Order

	out := make([]float64, 0, len(data)-order+1)
	for k := order; k <= len(data); k++ {
		out = append(out, m.pointAt(data[k-order:k], k+f.TimeDisplacement, f.WindowSize))
	}
	return out, nil
}

// ForecastInterval returns an interval forecast for every index in [order, len(data)] built
// from the support bounds of the matching groups
func (m *Model[T]) ForecastInterval(data []T, fo *ForecastOptions) ([]Interval, error) {
	if err := m.checkForecast(data); err != nil {
		return nil, err
	}
	f := m.forecastOptions(fo)
	order := m.opt.Order

	out := make([]Interval, 0, len(data)-order+1)
	for k := order; k <= len(data); k++ {
		out = append(out, m.intervalAt(data[k-order:k], k+f.TimeDisplacement, f.WindowSize))
	}
	return out, nil
}

// ForecastDistribution returns a probability distribution over the universe of discourse for
// every index in [order, len(data)]
func (m *Model[T]) ForecastDistribution(data []T, fo *ForecastOptions) ([]*distribution.Distribution, error) {
	if err := m.checkForecast(data); err != nil {
		return nil, err
	}
	f := m.forecastOptions(fo)
	order := m.opt.Order

	out := make([]*distribution.Distribution, 0, len(data)-order+1)
	for k := order; k <= len(data); k++ {
		dist, err := m.distributionAt(data[k-order:k], k+f.TimeDisplacement, f.WindowSize)
		if err != nil {
			return nil, err
		}
		out = append(out, dist)
	}
	return out, nil
}

var _ Partitioner[float64] = (*partitioner.Grid)(nil)
var _ Partitioner[[]float64] = (*partitioner.GridCluster)(nil)
