// Package jobs runs the editor's analyses off the interactive goroutine.
//
// A Runner keeps at most one job per Kind in flight. Jobs compute against an immutable
// models.Snapshot and publish their events into an ordered, unbounded queue; the
// interactive goroutine is woken through Ready and pulls the events with Drain, so all
// store mutation stays on that goroutine.
//
// Thread Safety:
//
//	All Runner methods are safe for concurrent use.
package jobs

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TFMV/graphedit/analysis"
	"github.com/TFMV/graphedit/models"
)

// Kind identifies the analysis a job runs.
type Kind int

const (
	KindPath Kind = iota
	KindTraversal
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindTraversal:
		return "traversal"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of a job kind.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// EventType distinguishes the notifications a job emits.
type EventType int

const (
	// EventProgress carries one traversal visit.
	EventProgress EventType = iota
	// EventPathFound carries the computed path, possibly empty.
	EventPathFound
	// EventDone is always the last event of a job that ran to completion.
	EventDone
)

func (t EventType) String() string {
	switch t {
	case EventProgress:
		return "progress"
	case EventPathFound:
		return "path_found"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is a notification emitted by a job.
type Event struct {
	JobID string
	Kind  Kind
	Type  EventType
	Visit analysis.Visit
	Path  []models.NodeID
}

// Config holds the pacing of the background analyses.
type Config struct {
	// TraversalStep is the delay between two traversal visits.
	TraversalStep time.Duration
	// PathDelay is waited before the path is computed so progress can be shown.
	PathDelay time.Duration
}

type job struct {
	id      string
	kind    Kind
	cancel  context.CancelFunc
	started time.Time
}

// Runner schedules path and traversal jobs.
type Runner struct {
	cfg Config

	mu      sync.Mutex
	current [kindCount]*job
	states  [kindCount]State
	queue   []Event
	closed  bool

	ready chan struct{}
	wg    sync.WaitGroup
}

// NewRunner creates an idle runner.
func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		ready: make(chan struct{}, 1),
	}
}

// Ready is signalled whenever events are waiting to be drained.
func (r *Runner) Ready() <-chan struct{} {
	return r.ready
}

// Drain removes and returns every pending event in emission order. Kinds whose job has
// finished are moved back to StateIdle.
func (r *Runner) Drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.queue
	r.queue = nil
	for k := range r.states {
		if r.states[k] == StateCompleted || r.states[k] == StateCancelled {
			r.states[k] = StateIdle
		}
	}
	return out
}

// State reports the lifecycle state of kind.
func (r *Runner) State(kind Kind) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[kind]
}

// StartPath computes the shortest path between the snapshot's start and end nodes.
// A running path job is cancelled first. It returns the new job id.
func (r *Runner) StartPath(snap *models.Snapshot) string {
	start, end := snap.Selection.StartNode, snap.Selection.EndNode
	return r.start(KindPath, func(ctx context.Context, j *job) {
		if r.cfg.PathDelay > 0 {
			t := time.NewTimer(r.cfg.PathDelay)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
		path := analysis.ShortestPath(snap, start, end)
		if ctx.Err() != nil {
			return
		}
		if r.emit(j, Event{Type: EventPathFound, Path: path}) {
			r.finish(j)
		}
	})
}

// StartTraversal visits every node of the snapshot, emitting one progress event per node.
// A running traversal job is cancelled first. It returns the new job id.
func (r *Runner) StartTraversal(snap *models.Snapshot) string {
	return r.start(KindTraversal, func(ctx context.Context, j *job) {
		for v := range analysis.Traverse(ctx, snap, r.cfg.TraversalStep) {
			if !r.emit(j, Event{Type: EventProgress, Visit: v}) {
				return
			}
		}
		if ctx.Err() == nil {
			r.finish(j)
		}
	})
}

// Cancel stops the running job of kind, if any, and reports whether one was running.
// Undrained events of the cancelled job are discarded and it emits nothing further.
func (r *Runner) Cancel(kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelLocked(kind)
}

// Close cancels every job and waits for the workers to exit.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	for k := Kind(0); k < kindCount; k++ {
		r.cancelLocked(k)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) start(kind Kind, work func(ctx context.Context, j *job)) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ""
	}
	r.cancelLocked(kind)

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{id: uuid.NewString(), kind: kind, cancel: cancel, started: time.Now()}
	r.current[kind] = j
	r.states[kind] = StateRunning
	jobsStarted.WithLabelValues(kind.String()).Inc()
	slog.Debug("job started", "kind", kind.String(), "job_id", j.id)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		work(ctx, j)
	}()
	return j.id
}

// cancelLocked cancels the current job of kind and drops its undrained events, so a
// cancelled or restarted kind never surfaces stale results.
func (r *Runner) cancelLocked(kind Kind) bool {
	j := r.current[kind]
	if j == nil {
		return false
	}
	j.cancel()
	r.current[kind] = nil
	r.states[kind] = StateCancelled
	r.queue = slices.DeleteFunc(r.queue, func(ev Event) bool { return ev.JobID == j.id })
	jobsFinished.WithLabelValues(kind.String(), StateCancelled.String()).Inc()
	slog.Debug("job cancelled", "kind", kind.String(), "job_id", j.id)
	return true
}

// emit queues ev if j is still the current job of its kind.
func (r *Runner) emit(j *job, ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current[j.kind] != j {
		return false
	}
	ev.JobID = j.id
	ev.Kind = j.kind
	r.queue = append(r.queue, ev)
	r.signal()
	return true
}

// finish queues the terminal event of j and releases its kind.
func (r *Runner) finish(j *job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current[j.kind] != j {
		return
	}
	r.queue = append(r.queue, Event{JobID: j.id, Kind: j.kind, Type: EventDone})
	r.current[j.kind] = nil
	r.states[j.kind] = StateCompleted
	r.signal()

	elapsed := time.Since(j.started)
	jobsFinished.WithLabelValues(j.kind.String(), StateCompleted.String()).Inc()
	jobDuration.WithLabelValues(j.kind.String()).Observe(elapsed.Seconds())
	slog.Debug("job completed", "kind", j.kind.String(), "job_id", j.id, "elapsed", elapsed)
}

func (r *Runner) signal() {
	select {
	case r.ready <- struct{}{}:
	default:
	}
}
