//go:build unix

package timebase

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ReferenceNow reads the monotonic reference clock, in nanoseconds.
// Grounded on golang.org/x/sys/unix, already a direct dependency of the
// teacher's eventloop package (poller_linux.go, poller_darwin.go, loop.go).
func ReferenceNow() (uint64, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0, fmt.Errorf("timebase: clock_gettime(CLOCK_MONOTONIC): %w", err)
	}
	return uint64(ts.Nano()), nil
}
