package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateT returns n points spaced by interval ending one interval before the minute of now
func GenerateT(n int, interval time.Duration, nowFunc func() time.Time) TimeSlice {
	end := time.Unix(nowFunc().Unix()/60*60, 0).UTC()
	return GenerateTFrom(end.Add(-time.Duration(n)*interval), n, interval)
}

// GenerateTFrom returns n points spaced by interval beginning at start
func GenerateTFrom(start time.Time, n int, interval time.Duration) TimeSlice {
	t := make(TimeSlice, n)
	for i := range t {
		t[i] = start.Add(interval * time.Duration(i))
	}
	return t
}

// Series is a chainable synthetic series builder
type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func (s Series) Scale(c float64) Series {
	floats.Scale(c, s)
	return s
}

// SetConst overwrites the values in [start, end) with val
func (s Series) SetConst(start, end int, val float64) Series {
	for i := max(start, 0); i < min(end, len(s)); i++ {
		s[i] = val
	}
	return s
}

// MaskWithWeekend zeroes every value not on a weekend
func (s Series) MaskWithWeekend(t []time.Time) Series {
	for i := range s {
		switch t[i].Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			s[i] = 0.0
		}
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make(Series, n)
	for i := range y {
		y[i] = val
	}
	return y
}

// GenerateLinearY returns intercept + slope*i
func GenerateLinearY(n int, intercept, slope float64) Series {
	y := make(Series, n)
	for i := range y {
		y[i] = intercept + slope*float64(i)
	}
	return y
}

// GenerateWaveY returns a sine wave with the given amplitude and period in samples
func GenerateWaveY(n int, amp, period, phase float64) Series {
	y := make(Series, n)
	for i := range y {
		y[i] = amp * math.Sin(2.0*math.Pi*(float64(i)+phase)/period)
	}
	return y
}

// GenerateNoise returns gaussian white noise with standard deviation sigma
func GenerateNoise(r *rand.Rand, n int, sigma float64) Series {
	y := make(Series, n)
	for i := range y {
		y[i] = r.NormFloat64() * sigma
	}
	return y
}

// GenerateRandomWalk returns a walk starting at start with gaussian steps of standard deviation
// sigma
func GenerateRandomWalk(r *rand.Rand, n int, start, sigma float64) Series {
	y := make(Series, n)
	curr := start
	for i := range y {
		y[i] = curr
		curr += r.NormFloat64() * sigma
	}
	return y
}

// GenerateGaussianLinear returns gaussian samples whose mean and standard deviation drift
// linearly every sample. This produces the non-stationary series that perturbed fuzzy sets
// follow.
func GenerateGaussianLinear(r *rand.Rand, n int, mu, sigma, muSlope, sigmaSlope float64) Series {
	y := make(Series, n)
	for i := range y {
		m := mu + muSlope*float64(i)
		s := max(sigma+sigmaSlope*float64(i), 0)
		y[i] = m + r.NormFloat64()*s
	}
	return y
}

// GenerateChange returns a level shift of bias and slope per sample starting at index chpt
func GenerateChange(n, chpt int, bias, slope float64) Series {
	y := make(Series, n)
	for i := max(chpt, 0); i < n; i++ {
		y[i] = bias + slope*float64(i-chpt)
	}
	return y
}

// GeneratePulseY returns pulses of amp every period samples lasting duty of the period
func GeneratePulseY(n int, amp, period, duty float64) Series {
	y := make(Series, n)
	cycleCutoff := 1.0 - duty/2.0
	for i := range y {
		if math.Cos(2.0*math.Pi*float64(i)/period) >= cycleCutoff {
			y[i] = amp
		}
	}
	return y
}

// NewRand returns a deterministic generator for seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
