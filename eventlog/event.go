package eventlog

// Kind identifies the payload shape of a frame.
type Kind uint32

const (
	// KindPoll marks a PollEvent payload.
	KindPoll Kind = 0
	// KindCalibration marks a CalibrationEvent payload.
	KindCalibration Kind = 1
)

// PollEvent brackets one worker invocation of a task body.
//
// Invariants (enforced by the caller, not this type): End >= Start;
// ClockEnd was read on the same thread as End, immediately after it; no
// two Poll events from the same thread overlap in source-clock time.
type PollEvent struct {
	// Start is the source-clock value read before the task body ran.
	Start uint64
	// End is the source-clock value read after the task body returned.
	End uint64
	// ClockEnd is the reference-clock value (nanoseconds) read
	// immediately after End, on the same thread.
	ClockEnd uint64
	// TID is the OS thread id that executed the poll.
	TID uint32
}

// Duration returns End - Start, in source-clock units.
func (e PollEvent) Duration() uint64 {
	return e.End - e.Start
}

// CalibrationEvent is the four-field source-to-reference clock mapping:
// RefNanos = (SrcTicks - SrcEpoch) * Mul >> Shift + RefEpoch.
type CalibrationEvent struct {
	SrcEpoch uint64
	RefEpoch uint64
	Mul      uint64
	Shift    uint32
}

// Event is implemented by PollEvent and CalibrationEvent.
type Event interface {
	kind() Kind
}

func (PollEvent) kind() Kind        { return KindPoll }
func (CalibrationEvent) kind() Kind { return KindCalibration }

// UnknownEvent is yielded by Reader when a frame's kind isn't recognized;
// its bytes have already been skipped.
type UnknownEvent struct {
	Kind Kind
}

func (UnknownEvent) kind() Kind { return 0 }
