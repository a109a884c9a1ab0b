package syncx

import "sync"

// CondBool is a condition-guarded bool: waiters block until the value is
// true. The value can be set back to false.
type CondBool struct {
	_ noCopy

	// fewer allocations to embed both Mutex and Cond as values, and have Cond reference mu
	mu    Mutex
	cond  sync.Cond
	value bool
}

func NewCondBool() *CondBool {
	c := &CondBool{}
	c.cond.L = &c.mu
	return c
}

func (c *CondBool) Set(value bool) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
	c.cond.Broadcast()
}

func (c *CondBool) Get() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Wait blocks until the value is true. If the value is already true, it
// returns immediately.
func (c *CondBool) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for !c.value {
		c.cond.Wait()
	}
}
