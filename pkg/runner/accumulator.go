package runner

import (
	"sync"
	"time"

	"proxysweep/pkg/models"
)

// flushFunc receives a drained batch plus the latest piggybacked
// progress snapshot (nil when no result in the batch carried one).
type flushFunc func(batch []models.ProxyResult, progress *models.Progress)

// accumulator batches incoming result events so a fast stream does not
// turn every event into its own state update. A single coalesced flush
// drains the batch and applies the newest pending progress in one go.
type accumulator struct {
	co    *Coalescer
	flush flushFunc

	// drainMu serializes whole drains so a synchronous flush cannot
	// overtake a timed one that is already in flight.
	drainMu sync.Mutex

	mu       sync.Mutex
	batch    []models.ProxyResult
	progress *models.Progress
}

func newAccumulator(every time.Duration, flush flushFunc) *accumulator {
	a := &accumulator{flush: flush}
	a.co = NewCoalescer(every, a.drain)
	return a
}

// Add buffers one result and schedules a flush if none is pending.
func (a *accumulator) Add(r models.ProxyResult) {
	a.mu.Lock()
	if r.Progress != nil {
		p := *r.Progress
		a.progress = &p
		r.Progress = nil
	}
	a.batch = append(a.batch, r)
	a.mu.Unlock()

	a.co.Trigger()
}

func (a *accumulator) drain() {
	a.drainMu.Lock()
	defer a.drainMu.Unlock()

	a.mu.Lock()
	batch := a.batch
	progress := a.progress
	a.batch = nil
	a.progress = nil
	a.mu.Unlock()

	if len(batch) == 0 && progress == nil {
		return
	}
	a.flush(batch, progress)
}

// FlushNow cancels any scheduled flush and drains synchronously.
// Events that must observe every earlier result (geo merges, the final
// stats) call this first so arrival order is preserved.
func (a *accumulator) FlushNow() {
	a.co.Cancel()
	a.drain()
}

// Stop ends scheduling for good and performs one last synchronous
// drain so no buffered result is lost.
func (a *accumulator) Stop() {
	a.co.Stop()
	a.drain()
}
