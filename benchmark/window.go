package benchmark

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidWindow = errors.New("invalid sliding window")

// Window is a train and test split of a scrolling window over a series. Training covers
// [Start, TrainEnd) and testing [TrainEnd, End).
type Window struct {
	Index    int `json:"index"`
	Start    int `json:"start"`
	TrainEnd int `json:"train_end"`
	End      int `json:"end"`
}

// Windows scrolls a window of size points over a series of n points advancing by incRate of the
// window size. The first trainRate of every window trains and the rest tests. The last window is
// truncated at the end of the series and windows without test points are skipped.
func Windows(n, size int, trainRate, incRate float64) ([]Window, error) {
	if size <= 0 || size > n {
		return nil, fmt.Errorf("window size %d for %d points, %w", size, n, ErrInvalidWindow)
	}
	if trainRate <= 0 || trainRate >= 1 {
		return nil, fmt.Errorf("train rate %.3f not in (0, 1), %w", trainRate, ErrInvalidWindow)
	}
	if incRate <= 0 || incRate > 1 {
		return nil, fmt.Errorf("increment rate %.3f not in (0, 1], %w", incRate, ErrInvalidWindow)
	}
	train := int(math.Round(float64(size) * trainRate))
	inc := int(math.Round(float64(size) * incRate))
	if train < 1 || train >= size || inc < 1 {
		return nil, fmt.Errorf("window size %d too small for its rates, %w", size, ErrInvalidWindow)
	}

	var windows []Window
	for start := 0; start < n-size+inc; start += inc {
		w := Window{
			Index:    len(windows),
			Start:    start,
			TrainEnd: start + train,
			End:      min(start+size, n),
		}
		if w.TrainEnd >= w.End {
			break
		}
		windows = append(windows, w)
	}
	return windows, nil
}
