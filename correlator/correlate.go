package correlator

import (
	"io"
	"strings"
	"time"
)

// parkTimeoutMarker identifies stack frames that mark a worker parked
// waiting for work, not executing user code; samples whose stack
// contains it are not long polls (spec.md §8, invariant 9).
const parkTimeoutMarker = "park_timeout"

// domain selects which interval index a sample is joined against.
type domain int

const (
	domainReference domain = iota // default, per spec.md §4.4
	domainSource
)

// Finding is one reported long poll: a sample whose in-poll duration met
// the threshold.
type Finding struct {
	StartTimeTicks   uint64
	StartTimeSeconds float64
	TID              uint32
	DurationMicros   float64
	Frames           []StackFrame
	ElidedFrames     int
}

// Options configures Correlate.
type Options struct {
	// Threshold is the minimum in-poll duration a sample must have to be
	// reported.
	Threshold time.Duration
	// StackDepth is the number of leading frames to keep per finding; the
	// rest are counted in ElidedFrames, not discarded from input.
	StackDepth int
}

// Correlate streams src to completion, joining each sample against idx
// and returning the findings that clear opts.Threshold, in container
// order (spec.md's "no re-sort" output rule).
func Correlate(src SampleSource, idx *Indices, opts Options) ([]Finding, error) {
	var findings []Finding
	dom := domainReference

	for {
		chunk, err := src.NextChunk()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		thresholdTicks := durationToTicks(opts.Threshold, chunk.TicksPerSecond)

		for _, ev := range chunk.Events {
			switch {
			case ev.Setting != nil:
				if ev.Setting.Name == "clock" {
					if ev.Setting.Value == "tsc" {
						dom = domainSource
					} else {
						dom = domainReference
					}
				}

			case ev.Sample != nil:
				s := ev.Sample
				durationTicks, ok := resolveDuration(s, idx, dom)
				if !ok {
					continue
				}
				if durationTicks < thresholdTicks {
					continue
				}
				if hasParkTimeout(s.Frames) {
					continue
				}

				depth := opts.StackDepth
				if depth <= 0 || depth > len(s.Frames) {
					depth = len(s.Frames)
				}
				findings = append(findings, Finding{
					StartTimeTicks:   s.StartTimeTicks,
					StartTimeSeconds: ticksToSeconds(s.StartTimeTicks, chunk.TicksPerSecond),
					TID:              s.TID,
					DurationMicros:   ticksToMicros(durationTicks, chunk.TicksPerSecond),
					Frames:           s.Frames[:depth],
					ElidedFrames:     len(s.Frames) - depth,
				})
			}
		}
	}

	return findings, nil
}

// resolveDuration implements the two-step join of spec.md §4.4: a
// present, non-zero appword is used verbatim; otherwise the sample is
// looked up in the domain-selected index.
func resolveDuration(s *Sample, idx *Indices, dom domain) (ticks uint64, ok bool) {
	if s.HasAppword && s.Appword != 0 {
		return s.Appword, true
	}

	index := idx.Reference
	if dom == domainSource {
		index = idx.Source
	}
	return index.Lookup(s.TID, s.StartTimeTicks)
}

func hasParkTimeout(frames []StackFrame) bool {
	for _, f := range frames {
		if strings.Contains(f.Method, parkTimeoutMarker) || strings.Contains(f.Class, parkTimeoutMarker) {
			return true
		}
	}
	return false
}

func durationToTicks(d time.Duration, ticksPerSecond uint64) uint64 {
	if ticksPerSecond == 0 {
		return 0
	}
	return uint64(d.Seconds() * float64(ticksPerSecond))
}

func ticksToMicros(ticks, ticksPerSecond uint64) float64 {
	if ticksPerSecond == 0 {
		return 0
	}
	return float64(ticks) * 1e6 / float64(ticksPerSecond)
}

func ticksToSeconds(ticks, ticksPerSecond uint64) float64 {
	if ticksPerSecond == 0 {
		return 0
	}
	return float64(ticks) / float64(ticksPerSecond)
}
