// Package editor hosts the interactive context of the graph editor.
//
// A Session owns the graph store, the input interpreter and the job runner. Run is the
// only goroutine that touches the store: commands from other goroutines are posted to it
// and job events are drained on it. Observers receive Notifications on the same
// goroutine, so a slow observer delays the editor.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/TFMV/graphedit/analysis"
	"github.com/TFMV/graphedit/input"
	"github.com/TFMV/graphedit/jobs"
	"github.com/TFMV/graphedit/models"
)

// ErrStopped is returned by commands posted after Run has returned.
var ErrStopped = errors.New("editor session stopped")

// NoPathMessage is the status emitted when a path job finds no route.
const NoPathMessage = "no path found between these nodes"

// NotificationType names the kind of a Notification.
type NotificationType string

const (
	GraphChanged NotificationType = "graph_changed"
	Redraw       NotificationType = "redraw"
	Progress     NotificationType = "progress"
	PathFound    NotificationType = "path"
	Status       NotificationType = "status"
	JobDone      NotificationType = "job_done"
)

// Notification is published to observers whenever the editor state changes. Percent and
// Node are only set on Progress notifications.
type Notification struct {
	Type    NotificationType `json:"type"`
	Layout  models.Layout    `json:"layout,omitempty"`
	Percent *int             `json:"percent,omitempty"`
	Node    *models.NodeID   `json:"node,omitempty"`
	Path    []models.NodeID  `json:"path,omitempty"`
	Message string           `json:"message,omitempty"`
	Kind    string           `json:"kind,omitempty"`
}

// Config holds the session settings.
type Config struct {
	NodeCount       int
	EdgeProbability float64
	Weights         models.WeightRange
	Input           input.Config
	Jobs            jobs.Config
}

type command struct {
	fn   func()
	done chan struct{}
}

type subscriber struct {
	id int
	fn func(Notification)
}

// Session is the interactive editor context.
type Session struct {
	cfg    Config
	store  *models.Store
	interp *input.Interpreter
	runner *jobs.Runner

	cmds    chan command
	stopped chan struct{}
	once    sync.Once

	mu     sync.Mutex
	subs   []subscriber
	nextID int
}

// NewSession creates a session editing store. The session takes ownership of store;
// callers must not mutate it directly afterwards.
func NewSession(store *models.Store, cfg Config) *Session {
	s := &Session{
		cfg:     cfg,
		store:   store,
		runner:  jobs.NewRunner(cfg.Jobs),
		cmds:    make(chan command),
		stopped: make(chan struct{}),
	}
	s.interp = input.NewInterpreter(store, s.runner, cfg.Input)
	store.Subscribe(func(l models.Layout) {
		s.publish(Notification{Type: GraphChanged, Layout: l})
	})
	return s
}

// Run processes commands and job events until ctx is cancelled. Running jobs are
// cancelled and awaited before Run returns.
func (s *Session) Run(ctx context.Context) error {
	defer s.once.Do(func() { close(s.stopped) })
	defer s.runner.Close()

	slog.Info("editor session started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("editor session stopped")
			return nil
		case cmd := <-s.cmds:
			cmd.fn()
			close(cmd.done)
		case <-s.runner.Ready():
			for _, ev := range s.runner.Drain() {
				s.handleEvent(ev)
			}
		}
	}
}

// Subscribe registers fn for every notification and returns a function that removes it.
// fn runs on the interactive goroutine and must not call back into the session.
func (s *Session) Subscribe(fn func(Notification)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Do runs fn on the interactive goroutine with exclusive access to the store.
func (s *Session) Do(fn func(store *models.Store)) error {
	return s.call(func() { fn(s.store) })
}

// GenerateGraph replaces the graph with a random one using the configured parameters.
// Running jobs are cancelled first.
func (s *Session) GenerateGraph() error {
	var genErr error
	err := s.call(func() {
		s.cancelJobs()
		s.interp.Reset()
		genErr = s.store.GenerateRandom(s.cfg.NodeCount, s.cfg.EdgeProbability, s.cfg.Weights)
		if genErr == nil {
			slog.Info("graph generated", "nodes", s.store.Order(), "edges", s.store.Size())
		}
	})
	if err != nil {
		return err
	}
	return genErr
}

// DeleteGraph replaces the graph with the empty graph.
func (s *Session) DeleteGraph() error {
	return s.call(func() {
		s.cancelJobs()
		s.interp.Reset()
		s.store.Clear()
		slog.Info("graph deleted")
	})
}

// SetEdgeWeight overwrites the weight of the edge between a and b and reports whether
// the edge exists.
func (s *Session) SetEdgeWeight(a, b models.NodeID, weight int) (bool, error) {
	var ok bool
	err := s.call(func() {
		ok = s.store.SetEdgeWeight(a, b, weight)
	})
	return ok, err
}

// TogglePathMode enters or leaves path selection mode. A pending path job is cancelled.
func (s *Session) TogglePathMode() error {
	return s.call(func() {
		s.runner.Cancel(jobs.KindPath)
		s.apply(s.interp.TogglePathMode())
	})
}

// ResetPath clears the path endpoints and result. A pending path job is cancelled.
func (s *Session) ResetPath() error {
	return s.call(func() {
		s.runner.Cancel(jobs.KindPath)
		s.apply(s.interp.ResetPath())
	})
}

// StartTraversal clears the visited set and starts a traversal of the current graph,
// replacing any running traversal. It returns the job id.
func (s *Session) StartTraversal() (string, error) {
	var id string
	err := s.call(func() {
		s.store.ClearVisited()
		id = s.runner.StartTraversal(s.store.Snapshot())
	})
	return id, err
}

// Pointer feeds an input event to the interpreter.
func (s *Session) Pointer(ev input.Event) error {
	return s.call(func() {
		s.apply(s.interp.Handle(ev))
	})
}

// Snapshot returns an immutable copy of the graph and its selection state.
func (s *Session) Snapshot() (*models.Snapshot, error) {
	var snap *models.Snapshot
	err := s.call(func() {
		snap = s.store.Snapshot()
	})
	return snap, err
}

// Mode returns the interpreter mode.
func (s *Session) Mode() (input.Mode, error) {
	var m input.Mode
	err := s.call(func() {
		m = s.interp.Mode()
	})
	return m, err
}

// JobState returns the lifecycle state of the given job kind.
func (s *Session) JobState(kind jobs.Kind) jobs.State {
	return s.runner.State(kind)
}

func (s *Session) call(fn func()) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case s.cmds <- cmd:
	case <-s.stopped:
		return ErrStopped
	}
	<-cmd.done
	return nil
}

func (s *Session) cancelJobs() {
	s.runner.Cancel(jobs.KindPath)
	s.runner.Cancel(jobs.KindTraversal)
}

func (s *Session) apply(out input.Outcome) {
	if out.Redraw {
		s.publish(Notification{Type: Redraw, Layout: s.store.Layout()})
	}
}

func (s *Session) handleEvent(ev jobs.Event) {
	switch ev.Type {
	case jobs.EventProgress:
		s.store.AddVisited(ev.Visit.Node)
		s.publish(progressNotification(ev.Visit))
	case jobs.EventPathFound:
		s.store.SetShortestPath(ev.Path)
		s.publish(Notification{Type: PathFound, Path: ev.Path})
		if len(ev.Path) == 0 {
			s.publish(Notification{Type: Status, Message: NoPathMessage})
		}
		s.apply(s.interp.PathCompleted())
	case jobs.EventDone:
		slog.Debug("job done", "kind", ev.Kind.String(), "job_id", ev.JobID)
		s.publish(Notification{Type: JobDone, Kind: ev.Kind.String()})
	}
}

func progressNotification(v analysis.Visit) Notification {
	node, percent := v.Node, v.Percent
	return Notification{Type: Progress, Node: &node, Percent: &percent}
}

func (s *Session) publish(n Notification) {
	s.mu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		deliver(sub.fn, n)
	}
}

// deliver calls fn, logging and discarding any panic so that a failing observer never
// affects the store.
func deliver(fn func(Notification), n Notification) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("observer failed", "notification", string(n.Type), "panic", r)
		}
	}()
	fn(n)
}
