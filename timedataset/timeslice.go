package timedataset

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrCannotInferFreq = errors.New("cannot infer frequency from less than two time points")
	ErrInvalidHorizon  = errors.New("horizon must be positive")
)

// TimeSlice is an ordered set of time points
type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}
	return t[len(t)-1]
}

// EstimateFreq returns the most common spacing between consecutive points. Ties resolve to the
// smallest spacing.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		frequencies[t[i].Sub(t[i-1])]++
	}

	var maxCnt int
	maxDelta := time.Duration(math.MaxInt64)
	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}

// Horizon returns n time points following the end time spaced by the estimated frequency
func (t TimeSlice) Horizon(n int) (TimeSlice, error) {
	if n <= 0 {
		return nil, fmt.Errorf("got %d, %w", n, ErrInvalidHorizon)
	}
	freq, err := t.EstimateFreq()
	if err != nil {
		return nil, fmt.Errorf("unable to estimate frequency, %w", err)
	}
	end := t.EndTime()
	horizon := make(TimeSlice, n)
	for i := range horizon {
		horizon[i] = end.Add(time.Duration(i+1) * freq)
	}
	return horizon, nil
}
