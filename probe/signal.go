package probe

/*
#include "shim.h"
*/
import "C"

import (
	"fmt"
	"sync"
	"syscall"
)

var installMu sync.Mutex
var installed = map[syscall.Signal]bool{}

// InstallHandler installs pollcatch's chained handler for sig, preserving
// whatever handler (if any) was previously installed so that it still
// fires after the observed slot is marked. It is idempotent per signal.
//
// This must run before the external sampling profiler installs its own
// handler for the same signal, so that pollcatch's handler is the one
// the profiler's delivery chains through.
func InstallHandler(sig syscall.Signal) error {
	installMu.Lock()
	defer installMu.Unlock()

	if installed[sig] {
		return nil
	}
	if C.pollcatch_install_handler(C.int(sig)) != 0 {
		return fmt.Errorf("probe: sigaction failed for signal %d: %w", sig, syscall.EINVAL)
	}
	installed[sig] = true
	return nil
}
