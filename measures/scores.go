package measures

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// Scores tracks the point forecast fit scores. Scores without any valid value are NaN.
type Scores struct {
	MSE    float64 `json:"mean_squared_error"`
	RMSE   float64 `json:"root_mean_squared_error"`
	MAPE   float64 `json:"mean_average_percent_error"`
	SMAPE  float64 `json:"symmetric_mean_average_percent_error"`
	R2     float64 `json:"r_squared"`
	TheilU float64 `json:"theil_u"`
}

// NewScores calculates the fit scores given the predicted and actual input slice values
func NewScores(predicted, actual []float64) (*Scores, error) {
	if err := checkLen(len(predicted), len(actual)); err != nil {
		return nil, err
	}

	s := &Scores{}
	scorers := []struct {
		name string
		fn   func(predicted, actual []float64) (float64, error)
		dst  *float64
	}{
		{"mean squared error", MSE, &s.MSE},
		{"root mean squared error", RMSE, &s.RMSE},
		{"mean average percent error", MAPE, &s.MAPE},
		{"symmetric mean average percent error", SMAPE, &s.SMAPE},
		{"r-squared", RSquared, &s.R2},
		{"theil's u statistic", TheilU, &s.TheilU},
	}
	for _, sc := range scorers {
		v, err := sc.fn(predicted, actual)
		if err != nil {
			if !errors.Is(err, ErrNoValues) {
				return nil, fmt.Errorf("unable to compute %s, %w", sc.name, err)
			}
			v = math.NaN()
		}
		*sc.dst = v
	}
	return s, nil
}

// MarshalJSON writes NaN and infinite scores as null
func (s Scores) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]*float64{
		"mean_squared_error":                   finite(s.MSE),
		"root_mean_squared_error":              finite(s.RMSE),
		"mean_average_percent_error":           finite(s.MAPE),
		"symmetric_mean_average_percent_error": finite(s.SMAPE),
		"r_squared":                            finite(s.R2),
		"theil_u":                              finite(s.TheilU),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
