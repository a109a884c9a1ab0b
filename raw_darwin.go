//go:build darwin

package fsevents

/*
#cgo LDFLAGS: -framework CoreServices

#include <CoreServices/CoreServices.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

void goFSEventsCallback(FSEventStreamRef stream, void *info, size_t numEvents,
	void *eventPaths, FSEventStreamEventFlags *eventFlags, FSEventStreamEventId *eventIds);
void goFSEventsReleaseInfo(void *info);

FSEventStreamRef fsevents_create(uintptr_t info, CFMutableArrayRef paths,
	FSEventStreamEventId since, CFTimeInterval latency, FSEventStreamCreateFlags flags) {
	FSEventStreamContext ctx = {
		.version = 0,
		.info = (void *)info,
		.retain = NULL,
		.release = (CFAllocatorReleaseCallBack)goFSEventsReleaseInfo,
		.copyDescription = NULL,
	};
	return FSEventStreamCreate(NULL, (FSEventStreamCallback)goFSEventsCallback,
		&ctx, paths, since, latency, flags);
}

CFMutableArrayRef fsevents_paths_create(void) {
	return CFArrayCreateMutable(NULL, 0, &kCFTypeArrayCallBacks);
}

void fsevents_paths_append(CFMutableArrayRef arr, const char *path) {
	CFStringRef s = CFStringCreateWithCString(NULL, path, kCFStringEncodingUTF8);
	CFArrayAppendValue(arr, s);
	CFRelease(s);
}

// Copies the path of entry idx out of the native eventPaths block, handling
// all three layouts the service uses: plain char**, CFString array, and the
// extended-data dictionary array. Returns a malloc'd UTF-8 string (caller
// frees) or NULL. *inode/*has_inode are filled from the extended-data fileID
// when present.
char *fsevents_copy_path(void *eventPaths, size_t idx,
	FSEventStreamCreateFlags createFlags, long long *inode, int *has_inode) {
	*has_inode = 0;

	if (!(createFlags & kFSEventStreamCreateFlagUseCFTypes)) {
		const char **paths = (const char **)eventPaths;
		return paths[idx] ? strdup(paths[idx]) : NULL;
	}

	CFArrayRef arr = (CFArrayRef)eventPaths;
	CFStringRef str = NULL;
	if (createFlags & kFSEventStreamCreateFlagUseExtendedData) {
		CFDictionaryRef dict = (CFDictionaryRef)CFArrayGetValueAtIndex(arr, (CFIndex)idx);
		if (dict == NULL) {
			return NULL;
		}
		str = (CFStringRef)CFDictionaryGetValue(dict, CFSTR("path"));
		CFNumberRef num = (CFNumberRef)CFDictionaryGetValue(dict, CFSTR("fileID"));
		if (num != NULL && CFNumberGetValue(num, kCFNumberSInt64Type, inode)) {
			*has_inode = 1;
		}
	} else {
		str = (CFStringRef)CFArrayGetValueAtIndex(arr, (CFIndex)idx);
	}
	if (str == NULL) {
		return NULL;
	}

	CFIndex len = CFStringGetMaximumSizeForEncoding(CFStringGetLength(str), kCFStringEncodingUTF8) + 1;
	char *buf = malloc(len);
	if (buf == NULL) {
		return NULL;
	}
	if (!CFStringGetCString(str, buf, len, kCFStringEncodingUTF8)) {
		free(buf);
		return NULL;
	}
	return buf;
}

CFRunLoopRef fsevents_runloop_current(void) {
	CFRunLoopRef rl = CFRunLoopGetCurrent();
	CFRetain(rl);
	return rl;
}
*/
import "C"

import (
	"errors"
	"runtime/cgo"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/streamfs/fsevents/syncx"
)

// Native watch lifecycle: Created -> Started -> Stopped (terminal).
const (
	streamCreated int32 = iota
	streamStarted
	streamStopped
)

// fsEventStream is the exclusive owner of one native FSEventStreamRef.
//
// Lifecycle transitions (schedule/start/stop/invalidate/release) happen on
// the run loop thread; flush may be called from any thread and is serialized
// against release by mu.
type fsEventStream struct {
	mu    syncx.RWMutex
	ref   C.FSEventStreamRef
	state atomic.Int32
}

// newFSEventStream constructs a native watch. The cgo handle is registered
// as the stream context and is deleted by the context release callback when
// the native stream is deallocated.
func newFSEventStream(handle cgo.Handle, paths []string, since uint64, latency time.Duration, flags CreateFlags) (*fsEventStream, error) {
	cfPaths := C.fsevents_paths_create()
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(cfPaths)))
	for _, path := range paths {
		cPath := C.CString(path)
		C.fsevents_paths_append(cfPaths, cPath)
		C.free(unsafe.Pointer(cPath))
	}

	ref := C.fsevents_create(
		C.uintptr_t(handle),
		cfPaths,
		C.FSEventStreamEventId(since),
		C.CFTimeInterval(latency.Seconds()),
		C.FSEventStreamCreateFlags(flags),
	)
	if ref == nil {
		return nil, errors.New("native service refused to create the stream")
	}

	return &fsEventStream{ref: ref}, nil
}

// schedule attaches the stream to a run loop. Must be called on the thread
// that will drive the run loop.
func (s *fsEventStream) schedule(rl *runLoop) {
	C.FSEventStreamScheduleWithRunLoop(s.ref, rl.ref, C.kCFRunLoopDefaultMode)
}

// start begins callback delivery. Run loop thread only.
func (s *fsEventStream) start() bool {
	if C.FSEventStreamStart(s.ref) == 0 {
		return false
	}
	s.state.Store(streamStarted)
	return true
}

// flushSync delivers any pending events before returning. Any thread; fails
// once the stream is no longer started.
func (s *fsEventStream) flushSync() error {
	return s.flush(func() { C.FSEventStreamFlushSync(s.ref) })
}

// flushAsync requests delivery of pending events without waiting.
func (s *fsEventStream) flushAsync() error {
	return s.flush(func() { C.FSEventStreamFlushAsync(s.ref) })
}

func (s *fsEventStream) flush(fn func()) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Load() != streamStarted {
		return ErrStreamClosed
	}
	fn()
	return nil
}

// teardown stops, invalidates and releases the native stream. Idempotent.
// Run loop thread only; takes the write lock so an in-flight flush finishes
// first. After teardown the context release callback frees the cgo handle.
func (s *fsEventStream) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Swap(streamStopped) == streamStopped {
		return
	}
	C.FSEventStreamStop(s.ref)
	C.FSEventStreamInvalidate(s.ref)
	C.FSEventStreamRelease(s.ref)
}

// runLoop wraps a retained CFRunLoop reference so it can be stopped from
// threads other than the one driving it.
type runLoop struct {
	ref C.CFRunLoopRef
}

// currentRunLoop retains and returns the calling thread's run loop.
func currentRunLoop() *runLoop {
	return &runLoop{ref: C.fsevents_runloop_current()}
}

// run drives the run loop until it is stopped. Blocks.
func (rl *runLoop) run() {
	C.CFRunLoopRun()
}

// stop requests the run loop to exit. Safe from any thread; a no-op if the
// run loop is not currently running.
func (rl *runLoop) stop() {
	C.CFRunLoopStop(rl.ref)
}

func (rl *runLoop) release() {
	C.CFRelease(C.CFTypeRef(unsafe.Pointer(rl.ref)))
}

// LatestEventID returns the most recently generated event id, system-wide.
// Useful as a resumption cursor to persist before creating a watch.
func LatestEventID() uint64 {
	return uint64(C.FSEventsGetCurrentEventId())
}

// DeviceForPath returns the id of the device holding path, as used by the
// service to scope event ids.
func DeviceForPath(path string) (int32, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0, err
	}
	return st.Dev, nil
}
