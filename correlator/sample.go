package correlator

// StackFrame is one resolved frame of a sample's stack trace, outermost
// first to match the sample container's own ordering.
type StackFrame struct {
	Class  string
	Method string
}

// Sample is a single profiler.WallClockSample/jdk.ExecutionSample event,
// reduced to the fields the correlator's join step needs (spec.md §3).
type Sample struct {
	TID            uint32
	StartTimeTicks uint64
	// HasAppword reports whether the event carried an appword field, zero
	// or not. The join treats a present-but-zero appword as absent
	// (DESIGN.md).
	HasAppword bool
	Appword    uint64
	Frames     []StackFrame
}

// Setting is a jdk.ActiveSetting event; only name=="clock" is meaningful
// to the correlator, selecting which interval index subsequent samples
// are joined against.
type Setting struct {
	Name  string
	Value string
}

// Event is exactly one of Sample or Setting.
type Event struct {
	Sample  *Sample
	Setting *Setting
}

// Chunk is one self-contained section of the sample container, carrying
// its own tick rate (see jdk.jfr's chunk format) and event stream.
type Chunk struct {
	TicksPerSecond uint64
	Events         []Event
}

// SampleSource yields the sample container's chunks in file order. It is
// the seam between the correlator's domain logic and whatever concrete
// container-reading library is in play; see jfr_adapter.go for the
// production implementation.
type SampleSource interface {
	NextChunk() (Chunk, error)
}
