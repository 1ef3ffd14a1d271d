package measures

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrInvalidAlpha    = errors.New("alpha must be in (0, 1)")
	ErrInvertedBounds  = errors.New("lower bound is greater than upper bound")
	ErrInvalidQuantile = errors.New("quantile must be in (0, 1)")
)

func checkBounds(lower, upper, actual []float64) error {
	if err := checkLen(len(lower), len(actual)); err != nil {
		return fmt.Errorf("lower bounds, %w", err)
	}
	if err := checkLen(len(upper), len(actual)); err != nil {
		return fmt.Errorf("upper bounds, %w", err)
	}
	for i := range lower {
		if lower[i] > upper[i] {
			return fmt.Errorf("at index %d, %w", i, ErrInvertedBounds)
		}
	}
	return nil
}

func widths(lower, upper, actual []float64) []float64 {
	w := make([]float64, 0, len(lower))
	for i := range lower {
		if math.IsNaN(lower[i]) || math.IsNaN(upper[i]) || math.IsNaN(actual[i]) {
			continue
		}
		w = append(w, upper[i]-lower[i])
	}
	return w
}

// Sharpness is the mean width of the intervals. Narrower is sharper.
func Sharpness(lower, upper, actual []float64) (float64, error) {
	if err := checkBounds(lower, upper, actual); err != nil {
		return 0, err
	}
	w := widths(lower, upper, actual)
	if len(w) == 0 {
		return math.NaN(), ErrNoValues
	}
	return stat.Mean(w, nil), nil
}

// Resolution is the mean absolute deviation of the interval widths from the sharpness
func Resolution(lower, upper, actual []float64) (float64, error) {
	if err := checkBounds(lower, upper, actual); err != nil {
		return 0, err
	}
	w := widths(lower, upper, actual)
	if len(w) == 0 {
		return math.NaN(), ErrNoValues
	}
	mean := stat.Mean(w, nil)
	floats.AddConst(-mean, w)
	for i := range w {
		w[i] = math.Abs(w[i])
	}
	return stat.Mean(w, nil), nil
}

// Coverage is the fraction of actual values falling within their interval, bounds included
func Coverage(lower, upper, actual []float64) (float64, error) {
	if err := checkBounds(lower, upper, actual); err != nil {
		return 0, err
	}
	var hit, n int
	for i := range actual {
		if math.IsNaN(lower[i]) || math.IsNaN(upper[i]) || math.IsNaN(actual[i]) {
			continue
		}
		n++
		if actual[i] >= lower[i] && actual[i] <= upper[i] {
			hit++
		}
	}
	if n == 0 {
		return math.NaN(), ErrNoValues
	}
	return float64(hit) / float64(n), nil
}

// Winkler computes the mean Winkler score of intervals at significance alpha. Each interval
// scores its width plus 2/alpha times the distance of an actual value outside of it.
func Winkler(lower, upper, actual []float64, alpha float64) (float64, error) {
	if alpha <= 0 || alpha >= 1 {
		return 0, fmt.Errorf("got %.3f, %w", alpha, ErrInvalidAlpha)
	}
	if err := checkBounds(lower, upper, actual); err != nil {
		return 0, err
	}
	var score float64
	var n int
	for i := range actual {
		if math.IsNaN(lower[i]) || math.IsNaN(upper[i]) || math.IsNaN(actual[i]) {
			continue
		}
		n++
		s := upper[i] - lower[i]
		switch {
		case actual[i] < lower[i]:
			s += 2 / alpha * (lower[i] - actual[i])
		case actual[i] > upper[i]:
			s += 2 / alpha * (actual[i] - upper[i])
		}
		score += s
	}
	if n == 0 {
		return math.NaN(), ErrNoValues
	}
	return score / float64(n), nil
}

// Pinball computes the mean pinball loss of forecasts of the tau quantile
func Pinball(quantile, actual []float64, tau float64) (float64, error) {
	if tau <= 0 || tau >= 1 {
		return 0, fmt.Errorf("got %.3f, %w", tau, ErrInvalidQuantile)
	}
	if err := checkLen(len(quantile), len(actual)); err != nil {
		return 0, err
	}
	var loss float64
	var n int
	for i := range actual {
		if !valid(quantile[i], actual[i]) {
			continue
		}
		n++
		if actual[i] >= quantile[i] {
			loss += tau * (actual[i] - quantile[i])
		} else {
			loss += (1 - tau) * (quantile[i] - actual[i])
		}
	}
	if n == 0 {
		return math.NaN(), ErrNoValues
	}
	return loss / float64(n), nil
}
