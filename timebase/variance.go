package timebase

import "math"

// runningStats is a small, single-purpose streaming statistics
// accumulator: Update(x) is O(1), and Mean/StdError are O(1) derived
// getters. Shaped after eventloop's pSquareQuantile/pSquareMultiQuantile
// (same "Update plus O(1) getters" contract), but implements Welford's
// online mean/variance algorithm rather than the P² quantile algorithm —
// calibration needs a running mean and standard error, not a quantile.
//
// Thread Safety: NOT thread-safe; Calibrate owns the only instance.
type runningStats struct {
	count int
	mean  float64
	m2    float64 // sum of squared deviations from the running mean
}

// Update folds a new observation into the running mean/variance.
func (s *runningStats) Update(x float64) {
	s.count++
	delta := x - s.mean
	s.mean += delta / float64(s.count)
	delta2 := x - s.mean
	s.m2 += delta * delta2
}

// Count returns the number of observations folded in so far.
func (s *runningStats) Count() int {
	return s.count
}

// Mean returns the running arithmetic mean.
func (s *runningStats) Mean() float64 {
	return s.mean
}

// Variance returns the running (population) variance.
func (s *runningStats) Variance() float64 {
	if s.count < 2 {
		return 0
	}
	return s.m2 / float64(s.count)
}

// StdError returns the standard error of the mean: stddev / sqrt(n).
func (s *runningStats) StdError() float64 {
	if s.count < 2 {
		return 0
	}
	return math.Sqrt(s.Variance() / float64(s.count))
}
