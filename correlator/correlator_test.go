package correlator

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndex(entries ...PollIntervalKey) *Index {
	return &Index{entries: entries}
}

func TestIndex_LookupInsideInterval(t *testing.T) {
	idx := newIndex(PollIntervalKey{TID: 7, ClockStart: 2000, Duration: 1000})

	d, ok := idx.Lookup(7, 2500)
	require.True(t, ok)
	assert.Equal(t, uint64(500), d)
}

func TestIndex_LookupBoundaryExcluded(t *testing.T) {
	// Invariant 8: a sample exactly at clock_start must not be claimed.
	idx := newIndex(PollIntervalKey{TID: 7, ClockStart: 2000, Duration: 1000})

	_, ok := idx.Lookup(7, 2000)
	assert.False(t, ok)
}

func TestIndex_LookupOutsideInterval(t *testing.T) {
	idx := newIndex(PollIntervalKey{TID: 7, ClockStart: 2000, Duration: 1000})

	_, ok := idx.Lookup(7, 3000) // exactly at end: duration check is strict-less-than
	assert.False(t, ok)

	_, ok = idx.Lookup(9, 2500) // wrong thread
	assert.False(t, ok)
}

func TestIndex_AbuttingIntervalsLaterWins(t *testing.T) {
	idx := newIndex(
		PollIntervalKey{TID: 1, ClockStart: 0, Duration: 100},
		PollIntervalKey{TID: 1, ClockStart: 100, Duration: 100},
	)

	// At the shared boundary neither interval claims the sample: the later
	// one excludes its exact start, the earlier one excludes its end.
	_, ok := idx.Lookup(1, 100)
	assert.False(t, ok)

	d, ok := idx.Lookup(1, 101)
	require.True(t, ok)
	assert.Equal(t, uint64(1), d, "just past the boundary, the later interval claims the sample")
}

type fakeSource struct {
	chunks []Chunk
	i      int
}

func (f *fakeSource) NextChunk() (Chunk, error) {
	if f.i >= len(f.chunks) {
		return Chunk{}, io.EOF
	}
	c := f.chunks[f.i]
	f.i++
	return c, nil
}

func TestCorrelate_ScenarioD_Attribution(t *testing.T) {
	idx := &Indices{
		Reference: newIndex(PollIntervalKey{TID: 7, ClockStart: 2000, Duration: 1000}),
		Source:    newIndex(),
	}

	src := &fakeSource{chunks: []Chunk{{
		TicksPerSecond: 1_000_000_000,
		Events: []Event{
			{Sample: &Sample{TID: 7, StartTimeTicks: 2500}},
		},
	}}}

	findings, err := Correlate(src, idx, Options{Threshold: time.Microsecond})
	require.NoError(t, err)
	assert.Empty(t, findings, "500ns resolved duration is below the 1us threshold")

	src2 := &fakeSource{chunks: []Chunk{{
		TicksPerSecond: 1_000_000_000,
		Events: []Event{
			{Sample: &Sample{TID: 7, StartTimeTicks: 2500}},
		},
	}}}
	idx2 := &Indices{
		Reference: newIndex(PollIntervalKey{TID: 7, ClockStart: 1000, Duration: 2000}),
		Source:    newIndex(),
	}
	findings, err = Correlate(src2, idx2, Options{Threshold: time.Microsecond})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.InDelta(t, 1.5, findings[0].DurationMicros, 0.001)
}

func TestCorrelate_ScenarioE_DomainSwitch(t *testing.T) {
	idx := &Indices{
		Reference: newIndex(PollIntervalKey{TID: 1, ClockStart: 100, Duration: 50}),
		Source:    newIndex(PollIntervalKey{TID: 1, ClockStart: 100, Duration: 5}),
	}

	src := &fakeSource{chunks: []Chunk{{
		TicksPerSecond: 1_000_000_000,
		Events: []Event{
			{Sample: &Sample{TID: 1, StartTimeTicks: 120}}, // reference domain: inside, duration 20
			{Setting: &Setting{Name: "clock", Value: "tsc"}},
			{Sample: &Sample{TID: 1, StartTimeTicks: 120}}, // now source domain: outside (duration 5)
		},
	}}}

	findings, err := Correlate(src, idx, Options{Threshold: 0})
	require.NoError(t, err)
	require.Len(t, findings, 1, "only the reference-domain sample resolves to an interval")
	assert.Equal(t, uint64(20), uint64(findings[0].DurationMicros*1000))
}

func TestCorrelate_ScenarioF_ThresholdGating(t *testing.T) {
	idx := &Indices{
		Reference: newIndex(
			PollIntervalKey{TID: 1, ClockStart: 0, Duration: 999_000},
			PollIntervalKey{TID: 2, ClockStart: 2_000_000, Duration: 1_001_000},
		),
		Source: newIndex(),
	}

	src := &fakeSource{chunks: []Chunk{{
		TicksPerSecond: 1_000_000_000,
		Events: []Event{
			{Sample: &Sample{TID: 1, StartTimeTicks: 999_000 - 1}},
			{Sample: &Sample{TID: 2, StartTimeTicks: 2_000_000 + 1_001_000 - 1}},
		},
	}}}

	findings, err := Correlate(src, idx, Options{Threshold: time.Millisecond})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, uint32(2), findings[0].TID)
}

func TestCorrelate_AppwordPresentUsedVerbatim(t *testing.T) {
	idx := &Indices{Reference: newIndex(), Source: newIndex()}

	src := &fakeSource{chunks: []Chunk{{
		TicksPerSecond: 1_000_000_000,
		Events: []Event{
			{Sample: &Sample{TID: 1, StartTimeTicks: 5, HasAppword: true, Appword: 2_000_000}},
		},
	}}}

	findings, err := Correlate(src, idx, Options{Threshold: time.Millisecond})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.InDelta(t, 2000, findings[0].DurationMicros, 0.001)
}

func TestCorrelate_AppwordZeroTreatedAsAbsent(t *testing.T) {
	idx := &Indices{
		Reference: newIndex(PollIntervalKey{TID: 1, ClockStart: 0, Duration: 2_000_000}),
		Source:    newIndex(),
	}

	src := &fakeSource{chunks: []Chunk{{
		TicksPerSecond: 1_000_000_000,
		Events: []Event{
			{Sample: &Sample{TID: 1, StartTimeTicks: 1_000_000, HasAppword: true, Appword: 0}},
		},
	}}}

	findings, err := Correlate(src, idx, Options{Threshold: time.Millisecond})
	require.NoError(t, err)
	require.Len(t, findings, 1, "a zero appword falls through to index lookup, per DESIGN.md")
}

func TestCorrelate_ParkTimeoutFiltered(t *testing.T) {
	idx := &Indices{
		Reference: newIndex(PollIntervalKey{TID: 1, ClockStart: 0, Duration: 2_000_000}),
		Source:    newIndex(),
	}

	src := &fakeSource{chunks: []Chunk{{
		TicksPerSecond: 1_000_000_000,
		Events: []Event{{Sample: &Sample{
			TID:            1,
			StartTimeTicks: 1_000_000,
			Frames: []StackFrame{
				{Class: "Worker", Method: "park_timeout"},
			},
		}}},
	}}}

	findings, err := Correlate(src, idx, Options{Threshold: 0})
	require.NoError(t, err)
	assert.Empty(t, findings)
}
