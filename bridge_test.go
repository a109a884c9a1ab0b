package fsevents

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id uint64) rawRecord {
	return rawRecord{Path: "/tmp/x/a.txt", RawFlags: uint32(ItemModified), ID: id}
}

func newTestBridge(stopFn func()) *batchBridge {
	if stopFn == nil {
		stopFn = func() {}
	}
	return newBatchBridge(CreateNone, stopFn, log.WithField("session", "test"))
}

func TestBridgeDeliver(t *testing.T) {
	t.Parallel()

	b := newTestBridge(nil)
	b.deliver([]rawRecord{testRecord(1), testRecord(2)})

	select {
	case batch := <-b.ch:
		require.Len(t, batch, 2)
		assert.Equal(t, uint64(1), batch[0].ID)
		assert.Equal(t, uint64(2), batch[1].ID)
	default:
		t.Fatal("no batch delivered")
	}
}

func TestBridgeSkipsEmptyInvocation(t *testing.T) {
	t.Parallel()

	b := newTestBridge(nil)
	b.deliver(nil)
	b.deliver([]rawRecord{})
	assert.Len(t, b.ch, 0)
}

func TestBridgeDropsNewestWhenFull(t *testing.T) {
	t.Parallel()

	b := newTestBridge(nil)
	for i := 0; i < batchBufferSize+5; i++ {
		b.deliver([]rawRecord{testRecord(uint64(i))})
	}

	// buffer holds exactly the oldest batchBufferSize batches, in order
	require.Len(t, b.ch, batchBufferSize)
	first := <-b.ch
	assert.Equal(t, uint64(0), first[0].ID)
}

func TestBridgeDeliverNeverBlocks(t *testing.T) {
	t.Parallel()

	b := newTestBridge(nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		// no consumer at all; twice the buffer must still return promptly
		for i := 0; i < batchBufferSize*2; i++ {
			b.deliver([]rawRecord{testRecord(uint64(i))})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deliver blocked on a full channel")
	}
}

func TestBridgeConsumerGoneTriggersStopOnce(t *testing.T) {
	t.Parallel()

	var stops atomic.Int32
	stopped := make(chan struct{}, 4)
	b := newTestBridge(func() {
		stops.Add(1)
		stopped <- struct{}{}
	})

	b.consumerGone.Store(true)
	b.deliver([]rawRecord{testRecord(1)})
	b.deliver([]rawRecord{testRecord(2)})

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop not triggered")
	}
	// second deliver must not trigger again
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), stops.Load())
	// nothing was published after the consumer left
	assert.Len(t, b.ch, 0)
}
