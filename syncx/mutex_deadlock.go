//go:build deadlock

package syncx

import (
	"github.com/sasha-s/go-deadlock"
)

// don't abort the process when running with -tags deadlock; potential
// lock-order reports are still printed
func init() {
	deadlock.Opts.OnPotentialDeadlock = func() {}
}

type Mutex = deadlock.Mutex
type RWMutex = deadlock.RWMutex
