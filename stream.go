package fsevents

import (
	"context"
	"runtime"
	"sync"
)

// BatchStream is an asynchronous sequence of event batches, one Batch per
// native callback invocation. It has exactly one receiver and is not
// restartable: once exhausted or closed, create a new stream.
type BatchStream struct {
	bridge    *batchBridge
	stop      func()
	closeOnce sync.Once
	done      chan struct{}
}

func newBatchStream(bridge *batchBridge, stop func()) *BatchStream {
	s := &BatchStream{bridge: bridge, stop: stop, done: make(chan struct{})}
	// backstop for consumers that drop the stream without Close: the native
	// watch must still reach the invalidated state
	runtime.SetFinalizer(s, (*BatchStream).Close)
	return s
}

// Next blocks until a batch arrives, the stream ends (ErrStreamClosed), or
// ctx is done. Batches already buffered when the stream ends are drained
// before ErrStreamClosed is reported.
func (s *BatchStream) Next(ctx context.Context) (Batch, error) {
	select {
	case batch, ok := <-s.bridge.ch:
		if !ok {
			return nil, ErrStreamClosed
		}
		return batch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Batches exposes the underlying channel for select loops. The channel is
// closed when the stream ends. Do not mix with Next from multiple
// goroutines; the stream has a single receiver.
func (s *BatchStream) Batches() <-chan Batch {
	return s.bridge.ch
}

// Close cancels the stream: it stops the native watch and returns once no
// further callback invocations are possible. Idempotent. Batches buffered
// before the stop remain readable until the channel is drained.
func (s *BatchStream) Close() error {
	s.closeOnce.Do(func() {
		runtime.SetFinalizer(s, nil)
		s.bridge.consumerGone.Store(true)
		close(s.done)
		s.stop()
	})
	return nil
}

// Flatten wraps the stream into a sequence of individual events, preserving
// per-batch and intra-batch order. The BatchStream must not be consumed
// directly afterwards.
func (s *BatchStream) Flatten() *EventStream {
	return &EventStream{batches: s}
}

// EventStream is an asynchronous sequence of individual events, produced by
// flattening a BatchStream.
type EventStream struct {
	batches *BatchStream
	buf     Batch

	pumpOnce sync.Once
	pumped   chan Event
}

// Next blocks until an event is available, the stream ends (ErrStreamClosed),
// or ctx is done. Events remaining from the current batch are yielded before
// the next batch is fetched.
func (s *EventStream) Next(ctx context.Context) (Event, error) {
	for len(s.buf) == 0 {
		batch, err := s.batches.Next(ctx)
		if err != nil {
			return Event{}, err
		}
		s.buf = batch
	}
	ev := s.buf[0]
	s.buf = s.buf[1:]
	return ev, nil
}

// Events exposes the flattened sequence as a channel for select loops. The
// channel is closed when the stream ends. Use either Events or Next on a
// given EventStream, not both.
func (s *EventStream) Events() <-chan Event {
	s.pumpOnce.Do(func() {
		s.pumped = make(chan Event)
		go func() {
			defer close(s.pumped)
			for batch := range s.batches.Batches() {
				for _, ev := range batch {
					// an abandoned consumer must not pin the pump: bail out
					// once the stream is closed
					select {
					case s.pumped <- ev:
					case <-s.batches.done:
						return
					}
				}
			}
		}()
	})
	return s.pumped
}

// Close cancels the underlying BatchStream.
func (s *EventStream) Close() error {
	return s.batches.Close()
}
