// Package timebase reads a fast source clock (a cycle counter, where the
// platform provides one) alongside the reference monotonic clock, and
// derives a fixed-point calibration that maps source-clock values to
// reference-clock nanoseconds using only a multiply and a shift.
package timebase
