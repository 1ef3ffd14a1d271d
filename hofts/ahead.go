package hofts

import (
	"slices"

	"github.com/aouyang1/go-fuzzyts/distribution"
)

func (m *Model[T]) checkAhead(data []T, steps int) error {
	if err := m.checkForecast(data); err != nil {
		return err
	}
	if steps <= 0 {
		return ErrInvalidSteps
	}
	if m.next == nil {
		return ErrNoNext
	}
	return nil
}

// seed returns a buffer holding the last order points of data
func (m *Model[T]) seed(data []T) []T {
	return slices.Clone(data[len(data)-m.opt.Order:])
}

// aheadTime returns the time index of the forecast made at step s after the end of data
func aheadTime(data, s int, f ForecastOptions) int {
	return data + s + f.TimeDisplacement
}

// ForecastAhead recursively forecasts steps points past the end of data, feeding every
// forecast back as the newest input
func (m *Model[T]) ForecastAhead(data []T, steps int, fo *ForecastOptions) ([]float64, error) {
	if err := m.checkAhead(data, steps); err != nil {
		return nil, err
	}
	f := m.forecastOptions(fo)
	order := m.opt.Order

	buf := m.seed(data)
	out := make([]float64, 0, steps)
	for s := 0; s < steps; s++ {
		y := m.pointAt(buf[len(buf)-order:], aheadTime(len(data), s, f), f.WindowSize)
		out = append(out, y)
		buf = append(buf, m.next(buf, y))
	}
	return out, nil
}

// ForecastAheadInterval recursively forecasts the lower and upper bounds past the end of data.
// Each bound series is forecast separately and the interval half width at step s is scaled by
// 1 + smoothing*s around its midpoint.
func (m *Model[T]) ForecastAheadInterval(data []T, steps int, fo *ForecastOptions) ([]Interval, error) {
	if err := m.checkAhead(data, steps); err != nil {
		return nil, err
	}
	f := m.forecastOptions(fo)
	order := m.opt.Order

	lower := m.seed(data)
	upper := m.seed(data)
	out := make([]Interval, 0, steps)
	for s := 0; s < steps; s++ {
		t := aheadTime(len(data), s, f)
		il := m.intervalAt(lower[len(lower)-order:], t, f.WindowSize)
		iu := m.intervalAt(upper[len(upper)-order:], t, f.WindowSize)

		iv := Interval{
			Lower: min(il.Lower, iu.Lower),
			Upper: max(il.Upper, iu.Upper),
		}
		mid := iv.Midpoint()
		half := (iv.Upper - iv.Lower) / 2 * (1 + m.opt.Smoothing*float64(s))
		iv = Interval{Lower: mid - half, Upper: mid + half}

		out = append(out, iv)
		lower = append(lower, m.next(lower, iv.Lower))
		upper = append(upper, m.next(upper, iv.Upper))
	}
	return out, nil
}

// ForecastAheadDistribution recursively forecasts distributions past the end of data feeding
// back their expected values. The distribution at step s is smoothed with a gaussian kernel
// whose standard deviation is smoothing*s times the width of the universe of discourse.
func (m *Model[T]) ForecastAheadDistribution(data []T, steps int, fo *ForecastOptions) ([]*distribution.Distribution, error) {
	if err := m.checkAhead(data, steps); err != nil {
		return nil, err
	}
	f := m.forecastOptions(fo)
	order := m.opt.Order
	lo, hi := m.part.UoD()

	buf := m.seed(data)
	out := make([]*distribution.Distribution, 0, steps)
	for s := 0; s < steps; s++ {
		dist, err := m.distributionAt(buf[len(buf)-order:], aheadTime(len(data), s, f), f.WindowSize)
		if err != nil {
			return nil, err
		}
		dist = dist.Smooth(m.opt.Smoothing * float64(s) * (hi - lo))

		out = append(out, dist)
		buf = append(buf, m.next(buf, dist.Expected()))
	}
	return out, nil
}
