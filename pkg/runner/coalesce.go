package runner

import (
	"sync"
	"time"
)

// Coalescer folds bursts of triggers into bounded-rate callback
// invocations: however often Trigger is called, fn runs at most once
// per delay window. The same mechanism serves both the accumulator's
// render-budget flush and debounced revalidation of large pastes.
//
// At most one invocation is ever pending; Trigger checks the pending
// flag before arming the timer, so callbacks never overlap their own
// scheduling.
type Coalescer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool
}

func NewCoalescer(delay time.Duration, fn func()) *Coalescer {
	return &Coalescer{delay: delay, fn: fn}
}

// Trigger schedules fn after the delay unless an invocation is already
// pending or the coalescer was stopped.
func (c *Coalescer) Trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending || c.stopped {
		return
	}
	c.pending = true
	c.timer = time.AfterFunc(c.delay, c.fire)
}

func (c *Coalescer) fire() {
	c.mu.Lock()
	c.pending = false
	stopped := c.stopped
	c.mu.Unlock()
	if !stopped {
		c.fn()
	}
}

// Cancel drops a pending invocation without running it. The coalescer
// stays usable.
func (c *Coalescer) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = false
}

// Stop cancels any pending invocation and prevents all future ones.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = false
	c.stopped = true
}
