//go:build darwin

package fsevents

/*
#include <CoreServices/CoreServices.h>
#include <stdlib.h>

char *fsevents_copy_path(void *eventPaths, size_t idx,
	FSEventStreamCreateFlags createFlags, long long *inode, int *has_inode);
*/
import "C"

import (
	"errors"
	"runtime"
	"runtime/cgo"
	"sync"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/streamfs/fsevents/syncx"
)

// one entry per live run loop; used to verify prompt native teardown
var activeSessions syncx.Map[uuid.UUID, *watchSession]

// ActiveSessions reports the number of watch sessions whose run loop is
// still alive. A stream that has been closed leaves this count promptly.
func ActiveSessions() int {
	count := 0
	activeSessions.Range(func(uuid.UUID, *watchSession) bool {
		count++
		return true
	})
	return count
}

// watchSession ties one native watch, its run loop thread and its batch
// bridge together for the lifetime of a stream.
type watchSession struct {
	id          uuid.UUID
	log         *logrus.Entry
	createFlags CreateFlags

	bridge *batchBridge
	stream *fsEventStream

	// written by the run loop goroutine before ready is set
	runloop  *runLoop
	startErr error
	ready    *syncx.CondBool

	stopOnce sync.Once
	done     chan struct{}
}

// CreateEventStream creates a native watch for paths and returns the batch
// stream it feeds plus a stop handle.
//
// since is the event id to resume from (EventIDSinceNow for changes from now
// on); persisting it across restarts is the caller's responsibility. A zero
// latency requests immediate delivery, aside from the service's own
// coalescing. flags selects directory- vs file-granularity (FileEvents) and
// extended-data retrieval (UseExtendedData|UseCFTypes).
//
// All construction failures are reported synchronously as *CreationError;
// nothing is left allocated on failure. Closing the returned stream (or
// calling stop.Stop) releases the native watch.
func CreateEventStream(paths []string, since uint64, latency time.Duration, flags CreateFlags) (*BatchStream, *StopHandle, error) {
	if len(paths) == 0 {
		return nil, nil, &CreationError{Err: errors.New("no paths to watch")}
	}
	if flags.Contains(UseExtendedData) && !flags.Contains(UseCFTypes) {
		return nil, nil, &CreationError{Err: errors.New("UseExtendedData requires UseCFTypes")}
	}
	// the native API silently accepts unwatchable paths; check up front so
	// the failure is recoverable instead of a dead stream
	for _, path := range paths {
		var st unix.Stat_t
		if err := unix.Lstat(path, &st); err != nil {
			return nil, nil, &CreationError{Path: path, Err: err}
		}
	}

	sess := &watchSession{
		id:          uuid.New(),
		createFlags: flags,
		ready:       syncx.NewCondBool(),
		done:        make(chan struct{}),
	}
	sess.log = log.WithField("session", sess.id)
	sess.bridge = newBatchBridge(flags, sess.stop, sess.log)

	handle := cgo.NewHandle(sess)
	stream, err := newFSEventStream(handle, paths, since, latency, flags)
	if err != nil {
		handle.Delete()
		return nil, nil, &CreationError{Err: err}
	}
	sess.stream = stream

	activeSessions.Store(sess.id, sess)
	go sess.run()

	// wait for the run loop thread to schedule and start the stream, so a
	// native start refusal surfaces here rather than as a dead stream
	sess.ready.Wait()
	if sess.startErr != nil {
		return nil, nil, &CreationError{Err: sess.startErr}
	}

	return newBatchStream(sess.bridge, sess.stop), &StopHandle{sess: sess}, nil
}

// run drives the native run loop. It is the exclusive execution context for
// the native callback and for lifecycle transitions of the stream.
func (s *watchSession) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.runloop = currentRunLoop()
	s.stream.schedule(s.runloop)
	if !s.stream.start() {
		s.startErr = errors.New("native service refused to start the stream")
		s.finish()
		s.runloop.release()
		s.ready.Set(true)
		return
	}
	s.ready.Set(true)
	s.log.WithField("flags", s.createFlags).Debug("Watch started")

	s.runloop.run()

	// run loop stopped: no further callback can be in flight
	s.finish()
	s.log.Debug("Watch stopped")
}

// finish invalidates the native stream and ends the batch channel. Run loop
// thread only.
func (s *watchSession) finish() {
	s.stream.teardown()
	activeSessions.Delete(s.id)
	s.bridge.close()
	close(s.done)
}

// stop tears the session down from the consumer side: stop the run loop,
// join its thread, release the native resources. Idempotent; safe from any
// thread; returns only once no further callback invocations are possible.
func (s *watchSession) stop() {
	s.stopOnce.Do(func() {
		s.ready.Wait()
		if s.startErr != nil {
			return
		}
		// CFRunLoopStop is lost if it lands before CFRunLoopRun has begun,
		// so retry until the run loop thread acknowledges
		for {
			s.runloop.stop()
			select {
			case <-s.done:
				s.runloop.release()
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	})
}

// StopHandle stops an event stream and terminates its backing run loop.
type StopHandle struct {
	sess *watchSession
}

// Stop stops the native watch. Calling it multiple times, or concurrently
// with the stream being closed, has no extra effect. When it returns, no
// further callback invocations are possible.
func (h *StopHandle) Stop() {
	h.sess.stop()
}

// FlushSync asks the service to deliver every pending event and waits until
// the callbacks have run. Fails with ErrStreamClosed once stopped.
func (h *StopHandle) FlushSync() error {
	return h.sess.stream.flushSync()
}

// FlushAsync asks the service to deliver every pending event without
// waiting for delivery.
func (h *StopHandle) FlushAsync() error {
	return h.sess.stream.flushAsync()
}

//export goFSEventsCallback
func goFSEventsCallback(streamRef C.FSEventStreamRef, info unsafe.Pointer, numEvents C.size_t,
	eventPaths unsafe.Pointer, eventFlags *C.FSEventStreamEventFlags, eventIDs *C.FSEventStreamEventId) {
	// never panic across the FFI boundary
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Panic in FSEvents callback")
		}
	}()

	sess := cgo.Handle(uintptr(info)).Value().(*watchSession)
	n := int(numEvents)
	if n == 0 {
		return
	}
	flags := unsafe.Slice((*uint32)(unsafe.Pointer(eventFlags)), n)
	ids := unsafe.Slice((*uint64)(unsafe.Pointer(eventIDs)), n)

	recs := make([]rawRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := rawRecord{RawFlags: flags[i], ID: ids[i]}

		var inode C.longlong
		var hasInode C.int
		cPath := C.fsevents_copy_path(eventPaths, C.size_t(i),
			C.FSEventStreamCreateFlags(sess.createFlags), &inode, &hasInode)
		if cPath != nil {
			rec.Path = C.GoString(cPath)
			C.free(unsafe.Pointer(cPath))
		} else {
			// degrade to the raw-flags-only form rather than dropping the record
			sess.log.WithField("id", rec.ID).Error("Unable to extract event path")
		}
		if sess.createFlags.Contains(UseExtendedData) {
			rec.ExtData = map[string]any{ExtendedDataPathKey: rec.Path}
			if hasInode != 0 {
				rec.ExtData[ExtendedFileIDKey] = int64(inode)
			}
		}
		recs = append(recs, rec)
	}

	sess.bridge.deliver(recs)
}

//export goFSEventsReleaseInfo
func goFSEventsReleaseInfo(info unsafe.Pointer) {
	// the native stream is deallocated; nothing refers to the handle anymore
	cgo.Handle(uintptr(info)).Delete()
}
