// Package runner owns the lifecycle of one check run: it gates the
// start on validation, opens the streamed request, decodes events in
// arrival order, batches results at a bounded rate, and walks the
// idle -> running -> done state machine.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"proxysweep/pkg/api"
	"proxysweep/pkg/models"
	"proxysweep/pkg/sse"
)

// DefaultFlushInterval is the render budget for result batching; one
// flush per interval regardless of event throughput.
const DefaultFlushInterval = 100 * time.Millisecond

// ErrValidation is returned by Start when blocking issues exist.
var ErrValidation = errors.New("input has validation errors")

// ErrAlreadyRunning is returned by Start while a run is in flight.
var ErrAlreadyRunning = errors.New("a run is already in progress")

// Snapshot is a point-in-time view of a run handed to observers. The
// results slice is a copy and safe to retain.
type Snapshot struct {
	State    models.RunState
	Results  []models.ProxyResult
	Stats    models.RunStats
	Progress models.Progress
	Elapsed  time.Duration
	// Err is the transport error that ended the run, nil after a
	// clean finish or a user stop.
	Err error
}

// Runner drives check runs against a remote check service. Create one
// per session and discard it on teardown; no global state.
type Runner struct {
	client        *api.Client
	logger        *slog.Logger
	flushInterval time.Duration

	// onUpdate observes every state change and result flush.
	// onDone fires once per run after the final done event, for
	// post-run side effects such as refreshing the session list.
	onUpdate func(Snapshot)
	onDone   func(models.RunStats)

	mu        sync.Mutex
	state     models.RunState
	set       *resultSet
	progress  models.Progress
	final     *models.RunStats
	runErr    error
	startedAt time.Time
	elapsed   time.Duration

	cancel  context.CancelFunc
	acc     *accumulator
	runDone chan struct{}
}

// Option configures a Runner.
type Option func(*Runner)

// WithFlushInterval overrides the result batching cadence.
func WithFlushInterval(d time.Duration) Option {
	return func(r *Runner) { r.flushInterval = d }
}

// WithUpdateFunc registers the observer notified on every flush, tick
// and state change.
func WithUpdateFunc(fn func(Snapshot)) Option {
	return func(r *Runner) { r.onUpdate = fn }
}

// WithDoneFunc registers a hook that fires once per run when the final
// stats arrive.
func WithDoneFunc(fn func(models.RunStats)) Option {
	return func(r *Runner) { r.onDone = fn }
}

func New(client *api.Client, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		client:        client,
		logger:        logger,
		flushInterval: DefaultFlushInterval,
		state:         models.StateIdle,
		set:           newResultSet(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current run state.
func (r *Runner) State() models.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Snapshot returns the current view of the run. During an active run
// stats are derived live from accumulated results; once the done event
// lands, its authoritative snapshot is returned instead.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Runner) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:    r.state,
		Results:  r.set.snapshot(),
		Progress: r.progress,
		Elapsed:  r.elapsed,
		Err:      r.runErr,
	}
	if r.final != nil {
		snap.Stats = *r.final
	} else {
		snap.Stats = DeriveStats(snap.Results)
	}
	return snap
}

// Start begins a new run. It refuses while a run is in flight and when
// the validation report carries errors; callers must reveal all hidden
// issues before checking this gate. On success the stream is consumed
// on a background goroutine until completion, error or Stop.
func (r *Runner) Start(req api.CheckRequest, report models.Report) error {
	if report.HasErrors() {
		return fmt.Errorf("%w: %d blocking", ErrValidation, report.Count(models.SeverityError))
	}

	r.mu.Lock()
	if r.state == models.StateRunning {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}

	// Entering running resets everything a previous run accumulated.
	r.state = models.StateRunning
	r.set = newResultSet()
	r.progress = models.Progress{}
	r.final = nil
	r.runErr = nil
	r.startedAt = time.Now()
	r.elapsed = 0

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.acc = newAccumulator(r.flushInterval, r.applyBatch)
	r.runDone = make(chan struct{})

	runID := uuid.NewString()
	acc := r.acc
	done := r.runDone
	r.mu.Unlock()

	r.logger.Info("run started", "runID", runID, "maxWorkers", req.MaxWorkers, "proxyType", req.ProxyType)
	r.notify()

	go r.tickElapsed(ctx)
	go r.consume(ctx, req, acc, done, runID)
	return nil
}

// Stop cancels the in-flight run. Safe to call in any state; a stopped
// run ends in state done with no error recorded.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current run's reader goroutine has finished.
// Returns immediately when no run was started.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.runDone
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// tickElapsed updates the elapsed clock once per second for the
// lifetime of the run.
func (r *Runner) tickElapsed(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			r.elapsed = time.Since(r.startedAt).Round(time.Second)
			r.mu.Unlock()
			r.notify()
		}
	}
}

func (r *Runner) consume(ctx context.Context, req api.CheckRequest, acc *accumulator, done chan struct{}, runID string) {
	defer close(done)

	stream, err := r.client.StartCheck(ctx, req)
	if err != nil {
		r.finish(acc, err, runID)
		return
	}
	defer stream.Close()

	dec := sse.NewDecoder()
	buf := make([]byte, 32*1024)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(buf[:n]) {
				r.dispatch(ev, acc)
			}
		}
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			r.finish(acc, err, runID)
			return
		}
	}
}

// dispatch applies one decoded event. Events are applied strictly in
// arrival order; anything that must see all earlier results forces the
// accumulator to flush first.
func (r *Runner) dispatch(ev sse.Event, acc *accumulator) {
	switch ev.Name {
	case "start":
		var payload struct {
			Total int `json:"total"`
		}
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			r.logger.Debug("dropping malformed start event", "error", err)
			return
		}
		r.mu.Lock()
		r.progress = models.Progress{Total: payload.Total}
		r.mu.Unlock()
		r.notify()

	case "result":
		var res models.ProxyResult
		if err := json.Unmarshal(ev.Data, &res); err != nil {
			r.logger.Debug("dropping malformed result event", "error", err)
			return
		}
		if res.ID == "" {
			res.ID = uuid.NewString()
		}
		acc.Add(res)

	case "geo":
		var geo map[string]models.GeoInfo
		if err := json.Unmarshal(ev.Data, &geo); err != nil {
			r.logger.Debug("dropping malformed geo event", "error", err)
			return
		}
		acc.FlushNow()
		r.mu.Lock()
		r.set.applyGeo(geo)
		r.mu.Unlock()
		r.notify()

	case "done":
		var stats models.RunStats
		if err := json.Unmarshal(ev.Data, &stats); err != nil {
			r.logger.Debug("dropping malformed done event", "error", err)
			return
		}
		acc.FlushNow()
		r.mu.Lock()
		r.final = &stats
		onDone := r.onDone
		r.mu.Unlock()
		r.notify()
		if onDone != nil {
			onDone(stats)
		}

	default:
		r.logger.Debug("ignoring unknown event", "event", ev.Name)
	}
}

// applyBatch is the accumulator's flush target: one state update per
// drained batch, carrying the newest progress snapshot along.
func (r *Runner) applyBatch(batch []models.ProxyResult, progress *models.Progress) {
	r.mu.Lock()
	r.set.append(batch)
	if progress != nil {
		r.progress = *progress
	}
	r.mu.Unlock()
	r.notify()
}

// finish moves the run to done. A cancelled context is the expected
// user stop and recorded as a clean end, unlike a transport error.
func (r *Runner) finish(acc *accumulator, err error, runID string) {
	// Final flush before the terminal snapshot so nothing buffered
	// is lost.
	acc.Stop()

	r.mu.Lock()
	if ctxCancelled(err) {
		err = nil
	}
	r.state = models.StateDone
	r.runErr = err
	r.elapsed = time.Since(r.startedAt).Round(time.Second)
	if r.cancel != nil {
		r.cancel() // release the handle on every exit path
		r.cancel = nil
	}
	total := r.set.len()
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("run failed", "runID", runID, "error", err)
	} else {
		r.logger.Info("run finished", "runID", runID, "results", total)
	}
	r.notify()
}

// ctxCancelled catches transport errors that wrap the cancellation,
// e.g. net/http's "context canceled" url.Error.
func ctxCancelled(err error) bool {
	return err != nil && errors.Is(err, context.Canceled)
}

func (r *Runner) notify() {
	r.mu.Lock()
	fn := r.onUpdate
	var snap Snapshot
	if fn != nil {
		snap = r.snapshotLocked()
	}
	r.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
