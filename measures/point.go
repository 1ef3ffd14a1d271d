// Package measures scores point, interval and probabilistic forecasts against actual values.
// NaN pairs are skipped by every measure.
package measures

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrNoValues       = errors.New("no valid values to score")
)

func checkLen(predicted, actual int) error {
	if predicted != actual {
		return fmt.Errorf("expected %d, but got %d, %w", actual, predicted, ErrResLenMismatch)
	}
	return nil
}

func valid(predicted, actual float64) bool {
	return !math.IsNaN(actual) && !math.IsNaN(predicted)
}

// MSE computes the mean squared error. A score of 0 means a perfect match with no errors.
func MSE(predicted, actual []float64) (float64, error) {
	if err := checkLen(len(predicted), len(actual)); err != nil {
		return 0, err
	}

	var mse float64
	var n int
	for i := range actual {
		if !valid(predicted[i], actual[i]) {
			continue
		}
		mse += math.Pow(actual[i]-predicted[i], 2.0)
		n++
	}
	if n == 0 {
		return math.NaN(), ErrNoValues
	}
	return mse / float64(n), nil
}

// RMSE is the square root of the mean squared error
func RMSE(predicted, actual []float64) (float64, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return math.NaN(), err
	}
	return math.Sqrt(mse), nil
}

// MAPE calculates the mean absolute percent error as a fraction. Points where the actual value is
// zero are skipped. A score of 0 means a perfect match with no errors.
func MAPE(predicted, actual []float64) (float64, error) {
	if err := checkLen(len(predicted), len(actual)); err != nil {
		return 0, err
	}

	var mape float64
	var n int
	for i := range actual {
		if !valid(predicted[i], actual[i]) || actual[i] == 0 {
			continue
		}
		mape += math.Abs((actual[i] - predicted[i]) / actual[i])
		n++
	}
	if n == 0 {
		return math.NaN(), ErrNoValues
	}
	return mape / float64(n), nil
}

// SMAPE calculates the symmetric mean absolute percent error as a fraction in [0, 1]
func SMAPE(predicted, actual []float64) (float64, error) {
	if err := checkLen(len(predicted), len(actual)); err != nil {
		return 0, err
	}

	var smape float64
	var n int
	for i := range actual {
		if !valid(predicted[i], actual[i]) {
			continue
		}
		n++
		den := math.Abs(actual[i]) + math.Abs(predicted[i])
		if den == 0 {
			continue
		}
		smape += math.Abs(actual[i]-predicted[i]) / den
	}
	if n == 0 {
		return math.NaN(), ErrNoValues
	}
	return smape / float64(n), nil
}

// RSquared computes the r squared value between the predicted and actual where 1.0 means perfect
// fit and 0 represents no relationship
func RSquared(predicted, actual []float64) (float64, error) {
	if err := checkLen(len(predicted), len(actual)); err != nil {
		return 0, err
	}

	predictCopy := make([]float64, 0, len(predicted))
	actualCopy := make([]float64, 0, len(actual))
	for i := range predicted {
		if !valid(predicted[i], actual[i]) {
			continue
		}
		predictCopy = append(predictCopy, predicted[i])
		actualCopy = append(actualCopy, actual[i])
	}
	if len(actualCopy) == 0 {
		return math.NaN(), ErrNoValues
	}
	r2 := stat.RSquaredFrom(predictCopy, actualCopy, nil)
	if math.IsNaN(r2) {
		return 1.0, nil
	}
	return r2, nil
}

// TheilU compares the relative errors of the forecast with those of a naive forecast repeating
// the previous actual value. Values below 1 beat the naive forecast.
func TheilU(predicted, actual []float64) (float64, error) {
	if err := checkLen(len(predicted), len(actual)); err != nil {
		return 0, err
	}

	var num, den float64
	var n int
	for i := 0; i < len(actual)-1; i++ {
		if !valid(predicted[i+1], actual[i+1]) || math.IsNaN(actual[i]) || actual[i] == 0 {
			continue
		}
		num += math.Pow((predicted[i+1]-actual[i+1])/actual[i], 2)
		den += math.Pow((actual[i+1]-actual[i])/actual[i], 2)
		n++
	}
	if n == 0 {
		return math.NaN(), ErrNoValues
	}
	if den == 0 {
		return math.Inf(1), nil
	}
	return math.Sqrt(num) / math.Sqrt(den), nil
}
