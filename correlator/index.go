package correlator

import (
	"io"
	"sort"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/arielb1/pollcatch/eventlog"
	"github.com/arielb1/pollcatch/timebase"
)

// PollIntervalKey is one entry of a correlator index: the interval during
// which thread TID executed one poll, in a single clock domain.
type PollIntervalKey struct {
	TID        uint32
	ClockStart uint64
	Duration   uint64
}

// end returns the interval's exclusive upper bound, in the same domain as
// ClockStart.
func (k PollIntervalKey) end() uint64 { return k.ClockStart + k.Duration }

// Index is a (tid, clock_start)-sorted, immutable-once-built sequence of
// poll intervals in one clock domain, supporting the "inside" lookup the
// correlator's join step needs.
type Index struct {
	entries []PollIntervalKey
}

func less(a, b PollIntervalKey) bool {
	if a.TID != b.TID {
		return a.TID < b.TID
	}
	return a.ClockStart < b.ClockStart
}

// Lookup finds the interval (if any) containing t on thread tid, per the
// strict-less-than "inside" predicate from spec.md §3:
//
//	I.tid == tid && I.clock_start < t && t - I.clock_start < I.duration
//
// An exact match at I.clock_start is NOT inside (DESIGN.md boundary
// resolution). Only the candidate found by the search is checked, so a
// sample taken exactly where one poll ends and the next begins is claimed
// by neither.
func (x *Index) Lookup(tid uint32, t uint64) (duration uint64, ok bool) {
	probe := PollIntervalKey{TID: tid, ClockStart: t}
	// first entry with key > probe; the candidate interval (if any) is
	// the one immediately before it.
	i := sort.Search(len(x.entries), func(i int) bool {
		return less(probe, x.entries[i])
	})
	if i == 0 {
		return 0, false
	}
	cand := x.entries[i-1]
	if cand.TID != tid {
		return 0, false
	}
	if !(cand.ClockStart < t) {
		return 0, false
	}
	if !(t-cand.ClockStart < cand.Duration) {
		return 0, false
	}
	return t - cand.ClockStart, true
}

// Len reports the number of intervals in the index.
func (x *Index) Len() int { return len(x.entries) }

// Indices bundles the two clock-domain indices the Correlator's build
// phase produces from a single event-log pass.
type Indices struct {
	Source    *Index
	Reference *Index
}

// EmptyIndices returns a pair of empty indices, for use when no event log
// is available: every sample then falls back to resolving its duration
// from its own appword field (spec.md §6 makes the event log optional;
// §4.4's index-lookup fallback simply never matches with nothing built).
func EmptyIndices() *Indices {
	return &Indices{Source: &Index{}, Reference: &Index{}}
}

// BuildIndices reads the event log to EOF, maintaining the most recently
// seen calibration, and returns both the source-domain and
// reference-domain interval indices. A Poll seen before any calibration
// is dropped from the reference-domain index with a one-time warning,
// per the simpler option spec.md explicitly allows (see DESIGN.md).
//
// Any reader error other than a clean io.EOF (a *eventlog.ParseError
// carrying the byte offset, for a corrupt or truncated log) is fatal and
// returned to the caller, per spec.md §7.
func BuildIndices(r *eventlog.Reader, logger *logiface.Logger[*stumpy.Event]) (*Indices, error) {
	var (
		src, ref    []PollIntervalKey
		cal         timebase.Calibration
		haveCal     bool
		warnedNoCal bool
	)

	for {
		ev, err := r.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		switch e := ev.(type) {
		case eventlog.CalibrationEvent:
			cal = timebase.Calibration{SrcEpoch: e.SrcEpoch, RefEpoch: e.RefEpoch, Mul: e.Mul, Shift: e.Shift}
			haveCal = true

		case eventlog.PollEvent:
			src = append(src, PollIntervalKey{
				TID:        e.TID,
				ClockStart: e.Start,
				Duration:   e.End - e.Start,
			})

			if !haveCal {
				if !warnedNoCal && logger != nil {
					logger.Warning().Log("correlator: poll events observed before any calibration; omitting from reference-domain index")
					warnedNoCal = true
				}
				continue
			}

			scaledDur := cal.ScaleDuration(e.End - e.Start)
			ref = append(ref, PollIntervalKey{
				TID:        e.TID,
				ClockStart: e.ClockEnd - scaledDur,
				Duration:   scaledDur,
			})
		}
	}

	sort.Slice(src, func(i, j int) bool { return less(src[i], src[j]) })
	sort.Slice(ref, func(i, j int) bool { return less(ref[i], ref[j]) })

	return &Indices{Source: &Index{entries: src}, Reference: &Index{entries: ref}}, nil
}
