package fsevents

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// batchBufferSize bounds the number of batches buffered between the native
// callback thread and the consumer.
const batchBufferSize = 1024

// batchBridge adapts the fire-and-forget native callback into the single
// producer of the batch channel. deliver runs on the run loop thread and
// must never block or panic; the consumer side only closes doneness via the
// consumerGone flag and reads from ch.
type batchBridge struct {
	createFlags CreateFlags
	ch          chan Batch
	log         *logrus.Entry

	// set when the consumer dropped the stream; observed by the producer
	consumerGone atomic.Bool
	stopOnce     sync.Once
	stopFn       func()
}

func newBatchBridge(createFlags CreateFlags, stopFn func(), log *logrus.Entry) *batchBridge {
	return &batchBridge{
		createFlags: createFlags,
		ch:          make(chan Batch, batchBufferSize),
		log:         log,
		stopFn:      stopFn,
	}
}

// deliver translates one callback invocation and publishes it as a Batch.
// Zero-entry invocations emit nothing. If the buffer is full the newest
// batch is dropped so the native thread is never blocked on the consumer.
func (b *batchBridge) deliver(recs []rawRecord) {
	if len(recs) == 0 {
		return
	}
	if b.consumerGone.Load() {
		// consumer dropped the stream: tear down the native watch instead
		b.triggerStop()
		return
	}

	batch := buildBatch(b.createFlags, recs)
	b.log.WithField("events", len(batch)).Debug("Received event batch")

	select {
	case b.ch <- batch:
	default:
		b.log.WithField("events", len(batch)).Error("Consumer too slow, dropping batch")
	}
}

// triggerStop starts the native stop sequence exactly once, off the run loop
// thread (stopping joins that thread).
func (b *batchBridge) triggerStop() {
	b.stopOnce.Do(func() {
		go b.stopFn()
	})
}

// close ends the stream. Called on the run loop thread after the run loop
// has exited, so it cannot race a deliver.
func (b *batchBridge) close() {
	close(b.ch)
}
