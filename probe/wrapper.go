//go:build unix

package probe

import (
	"context"

	"golang.org/x/sys/unix"

	"github.com/arielb1/pollcatch/eventlog"
	"github.com/arielb1/pollcatch/timebase"
)

// Sink receives PollEvents as task bodies complete. *eventlog.Writer
// implements it.
type Sink interface {
	EmitPoll(eventlog.PollEvent) bool
}

// Wrap brackets fn with the poll-timing sequence: clear the observed
// slot, record the entry timestamp, run fn, record the exit timestamp and
// clear the timestamp slot. Only if the signal handler marked the observed
// slot during fn does it read the reference clock and emit a PollEvent
// (an unobserved poll never had a sample land inside it, so it is not
// worth reporting; see DESIGN.md).
//
// fn's signature is left as context.Context in, (T, error) out, matching
// the shape of a single task-body invocation in a cooperative scheduler's
// worker loop; callers adapt their own task type to this at the call
// site, per spec.md's choice not to bind to any one middleware stack.
func Wrap[T any](sink Sink, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		if err := Init(); err != nil {
			return fn(ctx)
		}

		writeObserved(0)
		start := timebase.SourceNow()
		writeTimestamp(start)

		result, err := fn(ctx)

		end := timebase.SourceNow()
		writeTimestamp(0)
		observed := readObserved()

		if observed != 0 && sink != nil {
			clockEnd, refErr := timebase.ReferenceNow()
			if refErr == nil {
				sink.EmitPoll(eventlog.PollEvent{
					Start:    start,
					End:      end,
					ClockEnd: clockEnd,
					TID:      uint32(unix.Gettid()),
				})
			}
		}

		return result, err
	}
}
