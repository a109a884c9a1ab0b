package fsevents

import (
	"errors"
	"fmt"
)

// ErrStreamClosed is returned by Next once a stream has ended (native watch
// stopped or cancelled) and all buffered batches have been drained.
var ErrStreamClosed = errors.New("fsevents: stream closed")

// CreationError is the only recoverable failure of CreateEventStream: the
// native service refused to construct a watch. Path names the offending path
// when the failure is path-specific.
type CreationError struct {
	Path string
	Err  error
}

func (e *CreationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("fsevents: create watch for %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("fsevents: create watch: %v", e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}
