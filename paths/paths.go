// Package paths enumerates every combination of per lag candidates, one candidate per lag,
// with the first lag varying slowest.
package paths

import "iter"

// Count returns the number of paths Enumerate yields, which is zero when there are no lags or
// any lag has no candidates
func Count[E any](lags [][]E) int {
	if len(lags) == 0 {
		return 0
	}
	n := 1
	for _, l := range lags {
		n *= len(l)
	}
	return n
}

// Enumerate lazily yields the Cartesian product of the lag candidates. The yielded slice is
// reused between iterations so callers must copy it to retain it. The sequence can be ranged
// over any number of times.
func Enumerate[E any](lags [][]E) iter.Seq[[]E] {
	return func(yield func([]E) bool) {
		if Count(lags) == 0 {
			return
		}
		pos := make([]int, len(lags))
		path := make([]E, len(lags))
		for {
			for i, p := range pos {
				path[i] = lags[i][p]
			}
			if !yield(path) {
				return
			}

			i := len(lags) - 1
			for ; i >= 0; i-- {
				pos[i]++
				if pos[i] < len(lags[i]) {
					break
				}
				pos[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}
