//go:build unix

package probe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arielb1/pollcatch/eventlog"
)

func TestInit_Idempotent(t *testing.T) {
	require.NoError(t, Init())
	require.NoError(t, Init())
}

func TestTimestampSlot_RoundTrip(t *testing.T) {
	require.NoError(t, Init())

	writeTimestamp(0)
	assert.Equal(t, uint64(0), readTimestamp())

	writeTimestamp(12345)
	assert.Equal(t, uint64(12345), readTimestamp())

	writeTimestamp(0)
	assert.Equal(t, uint64(0), readTimestamp())
}

func TestObservedSlot_RoundTrip(t *testing.T) {
	require.NoError(t, Init())

	writeObserved(0)
	assert.Equal(t, uint64(0), readObserved())

	writeObserved(1)
	assert.Equal(t, uint64(1), readObserved())
}

type fakeSink struct {
	events []eventlog.PollEvent
}

func (f *fakeSink) EmitPoll(e eventlog.PollEvent) bool {
	f.events = append(f.events, e)
	return true
}

func TestWrap_UnobservedPollEmitsNothing(t *testing.T) {
	sink := &fakeSink{}
	wrapped := Wrap(sink, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	v, err := wrapped(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Empty(t, sink.events, "a poll with no sample landing inside it should not be reported")
}

func TestWrap_ObservedPollEmitsEvent(t *testing.T) {
	sink := &fakeSink{}
	wrapped := Wrap(sink, func(ctx context.Context) (int, error) {
		// simulate a profiler sample landing mid-poll, as the installed
		// signal handler would.
		writeObserved(1)
		return 7, nil
	})

	v, err := wrapped(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	require.Len(t, sink.events, 1)
	assert.GreaterOrEqual(t, sink.events[0].End, sink.events[0].Start)
}

func TestWrap_ClearsTimestampSlotOnExit(t *testing.T) {
	sink := &fakeSink{}
	wrapped := Wrap(sink, func(ctx context.Context) (struct{}, error) {
		assert.NotEqual(t, uint64(0), readTimestamp(), "timestamp slot should be set while the task body runs")
		return struct{}{}, nil
	})

	_, err := wrapped(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), readTimestamp())
}
