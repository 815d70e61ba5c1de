package timebase

import (
	"math/bits"
	"time"
)

// Calibration maps source-clock values to reference-clock nanoseconds via
// (d * Mul) >> Shift, where d is a source-clock delta. A Calibration value
// is immutable once produced; re-calibrating replaces the whole value.
type Calibration struct {
	// SrcEpoch is the source-clock value observed at calibration time.
	SrcEpoch uint64
	// RefEpoch is the reference-clock value (nanoseconds) observed at
	// calibration time.
	RefEpoch uint64
	// Mul is the fixed-point multiplier.
	Mul uint64
	// Shift is the fixed-point shift, in [0, 63].
	Shift uint32
}

// Identity is the calibration used when the reference clock is unavailable:
// it passes source-clock values through unchanged.
var Identity = Calibration{Mul: 1, Shift: 0}

// ScaleDuration converts a source-clock duration to reference nanoseconds.
func (c Calibration) ScaleDuration(d uint64) uint64 {
	hi, lo := bits.Mul64(d, c.Mul)
	return shiftRight128(hi, lo, c.Shift)
}

// ScaleTimestamp converts a source-clock timestamp to a reference-clock
// nanosecond timestamp, saturating the subtraction against SrcEpoch so
// values observed before calibration never underflow.
func (c Calibration) ScaleTimestamp(srcNow uint64) uint64 {
	delta := saturatingSub(srcNow, c.SrcEpoch)
	return c.ScaleDuration(delta) + c.RefEpoch
}

func saturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

// shiftRight128 computes ((hi:lo) >> shift) as a uint64, for shift in [0,63].
// hi is assumed to contribute nothing once shifted past bit 63, which holds
// for every Calibration produced by Calibrate (the shift is chosen so that
// the product of a single poll/calibration-loop duration and Mul fits in
// 128 bits without hi overflowing the visible range; see Calibrate).
func shiftRight128(hi, lo uint64, shift uint32) uint64 {
	if shift == 0 {
		return lo
	}
	return (hi << (64 - shift)) | (lo >> shift)
}

// sourceClock reads the fast source clock. Implemented per-architecture;
// see clock_amd64.go and clock_other.go.
type sourceClock func() uint64

// referenceClock reads the monotonic reference clock in nanoseconds. See
// clock_unix.go.
type referenceClock func() (uint64, error)

const (
	minCalibrationSamples = 500
	maxCalibrationError   = 10 * time.Nanosecond
	maxCalibrationWindow  = 200 * time.Millisecond
	calibrationSpinWindow = time.Microsecond
)

// Calibrate runs the bounded calibration loop described by the timebase
// component: it busy-spins until the reference clock advances by 1µs, then
// recomputes Mul/Shift from the observed source/reference deltas, and
// terminates once the running error estimate converges (or the 200ms
// deadline elapses). If ref is nil, or any call to it errors, Calibrate
// returns Identity: the system degrades to source-domain-only reporting.
func Calibrate(src sourceClock, ref referenceClock) Calibration {
	if src == nil || ref == nil {
		return Identity
	}

	refNow, err := ref()
	if err != nil {
		return Identity
	}
	srcNow := src()

	cal := Calibration{SrcEpoch: srcNow, RefEpoch: refNow, Mul: 1, Shift: 0}

	deadline := refNow + uint64(maxCalibrationWindow.Nanoseconds())
	stats := &runningStats{}

	last := refNow
	for {
		target := last + uint64(calibrationSpinWindow.Nanoseconds())
		for last < target {
			last, err = ref()
			if err != nil {
				return Identity
			}
		}

		if last >= deadline {
			break
		}

		srcD := src() - cal.SrcEpoch
		refD := last - cal.RefEpoch
		cal.Shift, cal.Mul = nextCalibrationRatio(srcD, refD)

		refSample, err := ref()
		if err != nil {
			return Identity
		}
		srcSample := src()
		scaled := cal.ScaleTimestamp(srcSample)
		stats.Update(float64(scaled) - float64(refSample))

		if stats.Count() > minCalibrationSamples {
			mean := stats.Mean()
			absMean := mean
			if absMean < 0 {
				absMean = -absMean
			}
			stdErr := stats.StdError()
			meanWithError := absMean + stdErr
			if meanWithError < float64(maxCalibrationError.Nanoseconds()) && (absMean == 0 || stdErr/absMean <= 1) {
				break
			}
		}
	}

	return cal
}

// nextCalibrationRatio finds shift/mul such that mul/2^shift approximates
// refDelta/srcDelta, with 2^shift the smallest power of two >= srcDelta (or
// 2^63 on overflow), per spec.md's calibration algorithm.
func nextCalibrationRatio(srcDelta, refDelta uint64) (shift uint32, mul uint64) {
	srcPo2 := nextPowerOfTwo(srcDelta)
	shift = uint32(bits.TrailingZeros64(srcPo2))
	ratio := float64(srcPo2) / float64(srcDelta)
	mul = uint64(float64(refDelta) * ratio)
	return shift, mul
}

func nextPowerOfTwo(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	if v > 1<<63 {
		return 1 << 63
	}
	shift := bits.Len64(v - 1)
	return 1 << uint(shift)
}
