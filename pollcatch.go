//go:build unix

// Package pollcatch detects and attributes long polls in cooperative,
// single-threaded-per-worker async runtimes. It instruments task bodies
// with an async-signal-safe timing probe, records a binary event log,
// and ships an offline correlator (cmd/pollcatch-decoder) that joins the
// log against a profiler's sampled stack traces.
package pollcatch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"
	"unsafe"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/arielb1/pollcatch/eventlog"
	"github.com/arielb1/pollcatch/probe"
	"github.com/arielb1/pollcatch/timebase"
)

// Runtime is the library's running state: a calibrated clock mapping and
// the background event-log writer. It is created by Enable and lives for
// the process's lifetime.
type Runtime struct {
	writer      *eventlog.Writer
	calibration timebase.Calibration
}

var (
	enableOnce sync.Once
	enableErr  error
	runtime    *Runtime
)

// Config controls Enable.
type Config struct {
	// LogFile is where the binary event log is written.
	LogFile string
	// Signal is the profiler's sampling signal. Defaults to SIGPROF.
	Signal syscall.Signal
	// Logger receives writer I/O errors and diagnostic warnings. A nil
	// Logger is a silent no-op.
	Logger *logiface.Logger[*stumpy.Event]
}

// Enable starts poll timing: it opens LogFile, calibrates the clock
// mapping, writes the initial CalibrationEvent, and installs the signal
// handler. It is idempotent: the first call's Config wins and its
// *Runtime is returned to every caller.
func Enable(cfg Config) (*Runtime, error) {
	enableOnce.Do(func() {
		runtime, enableErr = enable(cfg)
	})
	return runtime, enableErr
}

func enable(cfg Config) (*Runtime, error) {
	sig := cfg.Signal
	if sig == 0 {
		sig = syscall.SIGPROF
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pollcatch: opening log file: %w", err)
	}

	cal := timebase.Calibrate(timebase.SourceNow, timebase.ReferenceNow)

	writer := eventlog.NewWriter(f, &eventlog.WriterConfig{Logger: cfg.Logger})
	writer.EmitCalibration(eventlog.CalibrationEvent{
		SrcEpoch: cal.SrcEpoch,
		RefEpoch: cal.RefEpoch,
		Mul:      cal.Mul,
		Shift:    cal.Shift,
	})

	if err := probe.Init(); err != nil {
		return nil, fmt.Errorf("pollcatch: initialising probe slots: %w", err)
	}
	if err := probe.InstallHandler(sig); err != nil {
		return nil, fmt.Errorf("pollcatch: installing signal handler: %w", err)
	}

	return &Runtime{writer: writer, calibration: cal}, nil
}

// Wrap brackets a task body with poll timing, per spec.md's
// PollTimingWrapper. It must be the outermost wrapper applied to any
// given task: nested wrapping double-counts.
func Wrap[T any](rt *Runtime, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return probe.Wrap(rt.writer, fn)
}

// SamplerHelperAddr returns the address of the native, C-linkage sampler
// helper, for registration with an external sampling profiler. See
// probe.SamplerHelperAddr.
func SamplerHelperAddr() unsafe.Pointer {
	return probe.SamplerHelperAddr()
}
