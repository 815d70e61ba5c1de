//go:build !amd64

package timebase

import "golang.org/x/sys/unix"

// SourceNow returns the current source-clock value. On architectures
// without a cheap user-space cycle counter wired up here, the source clock
// is the reference clock itself (nanoseconds since an arbitrary epoch):
// Calibrate then naturally converges to the identity mapping, per
// spec.md §9 "Source clock portability".
func SourceNow() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return uint64(ts.Nano())
}
