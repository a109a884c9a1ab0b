package fsevents

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBatch(ids ...uint64) []rawRecord {
	recs := make([]rawRecord, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, testRecord(id))
	}
	return recs
}

func TestBatchStreamNext(t *testing.T) {
	t.Parallel()

	b := newTestBridge(nil)
	s := newBatchStream(b, func() {})

	b.deliver(testBatch(1, 2))
	b.deliver(testBatch(3))

	batch, err := s.Next(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 2)

	batch, err = s.Next(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, uint64(3), batch[0].ID)
}

func TestBatchStreamDrainsBeforeClose(t *testing.T) {
	t.Parallel()

	b := newTestBridge(nil)
	s := newBatchStream(b, func() {})

	b.deliver(testBatch(1))
	b.deliver(testBatch(2))
	b.close()

	// buffered batches survive the close; end-of-stream only afterwards
	for want := uint64(1); want <= 2; want++ {
		batch, err := s.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, batch[0].ID)
	}
	_, err := s.Next(context.Background())
	assert.ErrorIs(t, err, ErrStreamClosed)
	// terminal: stays closed
	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestBatchStreamNextContextCancel(t *testing.T) {
	t.Parallel()

	b := newTestBridge(nil)
	s := newBatchStream(b, func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBatchStreamCloseStopsWatch(t *testing.T) {
	t.Parallel()

	var stops atomic.Int32
	b := newTestBridge(nil)
	s := newBatchStream(b, func() { stops.Add(1) })

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), stops.Load())
	assert.True(t, b.consumerGone.Load())
}

func TestFlattenPreservesOrder(t *testing.T) {
	t.Parallel()

	b := newTestBridge(nil)
	s := newBatchStream(b, func() {})

	batches := [][]uint64{{1, 2, 3}, {4}, {5, 6}}
	var want []uint64
	for _, ids := range batches {
		b.deliver(testBatch(ids...))
		want = append(want, ids...)
	}
	b.close()

	// concatenating the batches equals consuming the flattened stream
	events := s.Flatten()
	var got []uint64
	for {
		ev, err := events.Next(context.Background())
		if err != nil {
			assert.ErrorIs(t, err, ErrStreamClosed)
			break
		}
		got = append(got, ev.ID)
	}
	assert.Equal(t, want, got)
}

func TestFlattenDoesNotRefetchWhileBuffered(t *testing.T) {
	t.Parallel()

	b := newTestBridge(nil)
	s := newBatchStream(b, func() {})
	events := s.Flatten()

	b.deliver(testBatch(1, 2))

	ev, err := events.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ev.ID)

	// second event must come from the buffered batch, without a fetch:
	// if Next tried the channel it would block and hit the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ev, err = events.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ev.ID)
}

func TestEventStreamCloseUnblocksAbandonedPump(t *testing.T) {
	t.Parallel()

	b := newTestBridge(nil)
	s := newBatchStream(b, func() {})
	events := s.Flatten()

	ch := events.Events()
	b.deliver(testBatch(1, 2))

	// nobody reads ch; Close must still let the pump exit and end the channel
	require.NoError(t, events.Close())

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestEventStreamChannel(t *testing.T) {
	t.Parallel()

	b := newTestBridge(nil)
	s := newBatchStream(b, func() {})
	events := s.Flatten()

	b.deliver(testBatch(1, 2))
	b.deliver(testBatch(3))
	b.close()

	var got []uint64
	for ev := range events.Events() {
		got = append(got, ev.ID)
	}
	assert.Equal(t, []uint64{1, 2, 3}, got)
}
