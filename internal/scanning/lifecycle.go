package scanning

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/anstrom/reconkit/internal/errors"
	"github.com/anstrom/reconkit/internal/events"
	"github.com/anstrom/reconkit/internal/logging"
	"github.com/anstrom/reconkit/internal/metrics"
)

// Run is one accepted start request. Its context is canceled by Stop.
type Run struct {
	ID      string
	Started time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	events *events.Emitter
	logger *logging.Logger
}

// Context returns the run's cancellation token.
func (r *Run) Context() context.Context {
	return r.ctx
}

// Canceled reports whether Stop was requested for the run.
func (r *Run) Canceled() bool {
	return r.ctx.Err() != nil
}

// Emit sends an event tagged with the run ID.
func (r *Run) Emit(kind events.Kind, data any) {
	r.events.Emit(kind, data)
}

// Logger returns a logger tagged with the run ID.
func (r *Run) Logger() *logging.Logger {
	return r.logger
}

// Status is a point-in-time view of a Lifecycle.
type Status struct {
	Kind    string    `json:"kind"`
	Running bool      `json:"running"`
	RunID   string    `json:"run_id,omitempty"`
	Started time.Time `json:"started,omitempty"`
}

// Lifecycle enforces at most one active run per engine. A second Begin while
// a run is active fails with ALREADY_RUNNING and has no side effects.
type Lifecycle struct {
	kind    string
	sink    events.Sink
	logger  *logging.Logger
	metrics *metrics.PrometheusMetrics

	running atomic.Bool
	mu      sync.Mutex
	current *Run
}

// NewLifecycle creates the guard for one engine kind.
func NewLifecycle(kind string, sink events.Sink, logger *logging.Logger, m *metrics.PrometheusMetrics) *Lifecycle {
	if sink == nil {
		sink = events.Discard
	}
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Lifecycle{
		kind:    kind,
		sink:    sink,
		logger:  logger.WithComponent(kind),
		metrics: m,
	}
}

// Begin claims the guard and creates a new run.
func (l *Lifecycle) Begin() (*Run, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running.CompareAndSwap(false, true) {
		l.metrics.StartRejected(l.kind, string(errors.CodeAlreadyRunning))
		return nil, errors.ErrAlreadyRunning(l.kind)
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	r := &Run{
		ID:      id,
		Started: time.Now(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		events:  events.NewEmitter(l.sink, id),
		logger:  l.logger.WithRunID(id),
	}
	l.current = r
	l.metrics.RunStarted(l.kind)
	return r, nil
}

// Reject records a start request refused before Begin.
func (l *Lifecycle) Reject(err error) {
	l.metrics.StartRejected(l.kind, string(errors.GetCode(err)))
}

// Finish releases the guard, emits the run's terminal event and wakes any
// Stop caller waiting on the run. The event is emitted before the mutex is
// released, so a racing Begin cannot publish a new run ahead of it, while an
// observer that reacts to the event by starting again finds the guard free.
func (l *Lifecycle) Finish(r *Run, kind events.Kind, data any) {
	outcome := metrics.OutcomeStopped
	switch {
	case kind == events.IPScanDone || kind == events.PortScanDone:
		outcome = metrics.OutcomeCompleted
	case !r.Canceled():
		outcome = metrics.OutcomeFailed
	}
	l.metrics.RunFinished(l.kind, outcome, time.Since(r.Started))

	l.mu.Lock()
	if l.current == r {
		l.current = nil
	}
	l.running.Store(false)
	r.Emit(kind, data)
	l.mu.Unlock()

	r.cancel()
	close(r.done)
}

// Abandon releases the guard for a run whose setup failed before any
// background work started. No terminal event is emitted; the caller returns
// err synchronously instead.
func (l *Lifecycle) Abandon(r *Run, err error) {
	l.metrics.RunFinished(l.kind, metrics.OutcomeFailed, time.Since(r.Started))
	l.metrics.StartRejected(l.kind, string(errors.GetCode(err)))

	l.mu.Lock()
	if l.current == r {
		l.current = nil
	}
	l.running.Store(false)
	l.mu.Unlock()

	r.cancel()
	close(r.done)
}

// Stop cancels the active run and waits for it to finish. It is a no-op
// when nothing is running. The wait is bounded by ctx.
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	r := l.current
	l.mu.Unlock()

	if r == nil {
		return nil
	}

	r.cancel()
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return errors.WrapScanError(errors.CodeCanceled, "gave up waiting for run to stop", ctx.Err())
	}
}

// Wait blocks until the active run, if any, has finished.
func (l *Lifecycle) Wait(ctx context.Context) error {
	l.mu.Lock()
	r := l.current
	l.mu.Unlock()

	if r == nil {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether a run is active.
func (l *Lifecycle) Running() bool {
	return l.running.Load()
}

// Status describes the guard's current state.
func (l *Lifecycle) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Status{Kind: l.kind, Running: l.running.Load()}
	if l.current != nil {
		s.RunID = l.current.ID
		s.Started = l.current.Started
	}
	return s
}
