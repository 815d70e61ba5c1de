package probe

/*
#include "shim.h"
*/
import "C"

import (
	"fmt"
	"sync"
)

var initOnce sync.Once
var initErr error

// Init creates the process-wide per-thread slots backing the probe. It is
// idempotent and safe to call from multiple goroutines; only the first
// call does any work.
func Init() error {
	initOnce.Do(func() {
		if C.pollcatch_init_slots() != 0 {
			initErr = fmt.Errorf("probe: pthread_key_create failed")
		}
	})
	return initErr
}

// writeTimestamp records the current poll's start timestamp on the
// calling thread's slot. A value of 0 marks no poll in flight.
func writeTimestamp(value uint64) {
	C.pollcatch_write_timestamp(C.uint64_t(value))
}

// readTimestamp is exposed for tests; production readers of this slot
// are the sampler helper, in C, not Go code.
func readTimestamp() uint64 {
	return uint64(C.pollcatch_read_timestamp())
}

func writeObserved(value uint64) {
	C.pollcatch_write_observed(C.uint64_t(value))
}

func readObserved() uint64 {
	return uint64(C.pollcatch_read_observed())
}
