package correlator

import (
	"io"

	jfrparser "github.com/grafana/jfr-parser/parser"
)

// jfrSource adapts github.com/grafana/jfr-parser's chunk/event reader to
// SampleSource. It is the only file in this package bound to that
// library; everything else here works against the neutral Sample/Setting
// types so the binding can be swapped without touching the join logic.
// See DESIGN.md for why jfr-parser (rather than a pack example) backs
// this adapter: no example repo in the retrieval pack reads JFR-format
// sample containers, and jdk.jfr's on-disk format has no alternative
// pure-Go reader in common use.
type jfrSource struct {
	r      *jfrparser.ChunkReader
	closed bool
}

// NewJFRSource opens a self-describing JFR sample container for
// streaming chunk-by-chunk correlation.
func NewJFRSource(r io.Reader) (SampleSource, error) {
	cr, err := jfrparser.NewChunkReader(r)
	if err != nil {
		return nil, err
	}
	return &jfrSource{r: cr}, nil
}

func (x *jfrSource) NextChunk() (Chunk, error) {
	if x.closed {
		return Chunk{}, io.EOF
	}

	raw, err := x.r.ReadChunk()
	if err != nil {
		x.closed = true
		return Chunk{}, err
	}

	out := Chunk{TicksPerSecond: raw.Header.TicksPerSecond}

	wallClockClassID, execSampleClassID := int64(-1), int64(-1)
	for _, t := range raw.Metadata.Types {
		switch t.Name {
		case "profiler.WallClockSample":
			wallClockClassID = t.ClassID
		case "jdk.ExecutionSample":
			execSampleClassID = t.ClassID
		}
	}

	for _, ev := range raw.Events {
		switch ev.ClassID {
		case wallClockClassID, execSampleClassID:
			out.Events = append(out.Events, Event{Sample: convertSample(ev, raw)})
		default:
			if setting := convertActiveSetting(ev, raw); setting != nil {
				out.Events = append(out.Events, Event{Setting: setting})
			}
		}
	}

	return out, nil
}

func convertSample(ev jfrparser.Event, chunk *jfrparser.Chunk) *Sample {
	tid, _ := ev.Fields["sampledThread"].(int64)
	if thread, ok := chunk.Threads[tid]; ok {
		tid = int64(thread.OSThreadID)
	}

	startTime, _ := ev.Fields["startTime"].(int64)

	s := &Sample{
		TID:            uint32(tid),
		StartTimeTicks: uint64(startTime),
	}

	if appword, ok := ev.Fields["appword"].(int64); ok {
		s.HasAppword = true
		s.Appword = uint64(appword)
	}

	if trace, ok := ev.Fields["stackTrace"]; ok {
		s.Frames = resolveStackTrace(trace, chunk)
	}

	return s
}

func resolveStackTrace(ref interface{}, chunk *jfrparser.Chunk) []StackFrame {
	traceRef, ok := ref.(int64)
	if !ok {
		return nil
	}
	trace, ok := chunk.StackTraces[traceRef]
	if !ok {
		return nil
	}

	frames := make([]StackFrame, 0, len(trace.Frames))
	for _, f := range trace.Frames {
		method := chunk.Methods[f.MethodID]
		frames = append(frames, StackFrame{
			Class:  chunk.Symbols[method.ClassNameSymbolID],
			Method: chunk.Symbols[method.NameSymbolID],
		})
	}
	return frames
}

func convertActiveSetting(ev jfrparser.Event, chunk *jfrparser.Chunk) *Setting {
	if ev.TypeName != "jdk.ActiveSetting" {
		return nil
	}
	name, _ := ev.Fields["name"].(string)
	value, _ := ev.Fields["value"].(string)
	if name == "" {
		return nil
	}
	return &Setting{Name: name, Value: value}
}
