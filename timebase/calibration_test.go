package timebase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibration_ScaleDuration_Identity(t *testing.T) {
	var c Calibration = Identity
	assert.Equal(t, uint64(12345), c.ScaleDuration(12345))
}

func TestCalibration_ScaleTimestamp_SaturatingSubtract(t *testing.T) {
	c := Calibration{SrcEpoch: 1000, RefEpoch: 2000, Mul: 1, Shift: 0}
	// a timestamp before SrcEpoch must not underflow
	assert.Equal(t, uint64(2000), c.ScaleTimestamp(0))
	assert.Equal(t, uint64(2100), c.ScaleTimestamp(1100))
}

func TestCalibration_Monotonic(t *testing.T) {
	c := Calibration{SrcEpoch: 0, RefEpoch: 0, Mul: 3, Shift: 1}
	var prev uint64
	for _, x := range []uint64{0, 10, 100, 1000, 1 << 40} {
		cur := c.ScaleTimestamp(x)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestCalibrate_NilReferenceYieldsIdentity(t *testing.T) {
	cal := Calibrate(func() uint64 { return 42 }, nil)
	assert.Equal(t, Identity, cal)
}

func TestCalibrate_ReferenceErrorYieldsIdentity(t *testing.T) {
	cal := Calibrate(func() uint64 { return 42 }, func() (uint64, error) {
		return 0, errors.New("boom")
	})
	assert.Equal(t, Identity, cal)
}

func TestCalibrate_ConstantRatioConverges(t *testing.T) {
	// a fake source clock running at exactly twice the reference clock's
	// rate should converge to a Calibration that scales 1:1 back to the
	// reference domain.
	var refNanos uint64
	ref := func() (uint64, error) {
		refNanos += 100
		return refNanos, nil
	}
	src := func() uint64 {
		return refNanos * 2
	}

	cal := Calibrate(src, ref)
	require.NotEqual(t, Identity, cal)

	scaled := cal.ScaleTimestamp(src())
	now, err := ref()
	require.NoError(t, err)
	diff := int64(scaled) - int64(now)
	if diff < 0 {
		diff = -diff
	}
	assert.Less(t, diff, int64(1000), "scaled timestamp should track the reference clock closely")
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[uint64]uint64{
		0:   1,
		1:   1,
		2:   2,
		3:   4,
		5:   8,
		1024: 1024,
		1025: 2048,
	}
	for in, want := range cases {
		assert.Equal(t, want, nextPowerOfTwo(in), "input %d", in)
	}
}
