package fuzzyts

import "time"

// Results holds point forecasts and their interval bounds per time point
type Results struct {
	T        []time.Time `json:"time"`
	Forecast []float64   `json:"forecast"`
	Upper    []float64   `json:"upper"`
	Lower    []float64   `json:"lower"`
}

func newResults(n int) *Results {
	return &Results{
		T:        make([]time.Time, 0, n),
		Forecast: make([]float64, 0, n),
		Upper:    make([]float64, 0, n),
		Lower:    make([]float64, 0, n),
	}
}
