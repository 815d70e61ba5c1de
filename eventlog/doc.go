// Package eventlog defines the binary, length-prefixed, little-endian
// event stream pollcatch's runtime instrumentation writes and its decoder
// reads: Poll events (one per timed task invocation) and Calibration
// events (the source-to-reference clock mapping in effect at the time).
//
// Writes are coalesced by a single background writer goroutine so that
// the probe's hot path never performs I/O, only a channel send.
package eventlog
