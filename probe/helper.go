package probe

/*
#include "shim.h"

static void *pollcatch_sampler_helper_addr(void) {
    return (void *)&pollcatch_sampler_helper;
}
*/
import "C"

import "unsafe"

// SamplerHelperAddr returns the address of the native sampler helper
// function, for registration with an external sampling profiler that
// calls into arbitrary native function pointers from its signal handler.
// The returned pointer must never be called from Go; it is valid only as
// a value to hand to a C/cgo caller.
func SamplerHelperAddr() unsafe.Pointer {
	return C.pollcatch_sampler_helper_addr()
}
