// Package input turns pointer and key events into graph edits, selection changes and
// path job requests. The Interpreter is not safe for concurrent use; it is driven by
// the editor's interactive goroutine together with the store it edits.
package input

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/graphedit/geometry"
	"github.com/TFMV/graphedit/models"
)

// Mode is the interaction mode of the interpreter.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDraggingNode
	ModeCreatingEdge
	ModePathSelection
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDraggingNode:
		return "dragging_node"
	case ModeCreatingEdge:
		return "creating_edge"
	case ModePathSelection:
		return "path_selection"
	default:
		return "unknown"
	}
}

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// Event is an input event. It is implemented by PointerDown, PointerMove, PointerUp and
// KeyDelete.
type Event interface {
	event()
}

type PointerDown struct {
	Pos    r2.Vec
	Button Button
}

type PointerMove struct {
	Pos r2.Vec
}

type PointerUp struct {
	Pos    r2.Vec
	Button Button
}

type KeyDelete struct{}

func (PointerDown) event() {}
func (PointerMove) event() {}
func (PointerUp) event()   {}
func (KeyDelete) event()   {}

// Outcome tells the caller what to do after an event was handled.
type Outcome struct {
	// Redraw is set when selection state changed without a store notification.
	Redraw bool
}

// Config holds the hit-test radii and drag threshold, in layout units.
type Config struct {
	HitRadius     float64
	EdgeHitRadius float64
	DragThreshold float64
}

// DefaultConfig returns the default radii.
func DefaultConfig() Config {
	return Config{HitRadius: 0.05, EdgeHitRadius: 0.025, DragThreshold: 0.05}
}

// PathStarter launches a shortest-path job on a snapshot of the store.
type PathStarter interface {
	StartPath(snap *models.Snapshot) string
}

// Interpreter is the input state machine.
type Interpreter struct {
	cfg   Config
	store *models.Store
	paths PathStarter

	gesture  Mode
	pathMode bool

	dragNode  models.NodeID
	dragStart r2.Vec
	dragging  bool

	edgeSource models.NodeID
}

// NewInterpreter creates an interpreter editing store. Path jobs are started on paths.
func NewInterpreter(store *models.Store, paths PathStarter, cfg Config) *Interpreter {
	return &Interpreter{
		cfg:        cfg,
		store:      store,
		paths:      paths,
		dragNode:   models.NoNode,
		edgeSource: models.NoNode,
	}
}

// Mode returns the current mode. An active gesture takes precedence over path mode.
func (in *Interpreter) Mode() Mode {
	if in.gesture != ModeIdle {
		return in.gesture
	}
	if in.pathMode {
		return ModePathSelection
	}
	return ModeIdle
}

// PathMode reports whether clicks currently select path endpoints.
func (in *Interpreter) PathMode() bool {
	return in.pathMode
}

// Handle dispatches ev to the matching handler.
func (in *Interpreter) Handle(ev Event) Outcome {
	switch e := ev.(type) {
	case PointerDown:
		return in.PointerDown(e.Pos, e.Button)
	case PointerMove:
		return in.PointerMove(e.Pos)
	case PointerUp:
		return in.PointerUp(e.Pos, e.Button)
	case KeyDelete:
		return in.KeyDelete()
	default:
		return Outcome{}
	}
}

// PointerDown handles a button press at pos.
func (in *Interpreter) PointerDown(pos r2.Vec, b Button) Outcome {
	if in.gesture != ModeIdle {
		return Outcome{}
	}
	node, hit := in.nodeAt(pos)

	if b == ButtonSecondary {
		if !hit || in.pathMode {
			return Outcome{}
		}
		in.gesture = ModeCreatingEdge
		in.edgeSource = node
		return Outcome{}
	}

	if in.pathMode && hit {
		return in.selectEndpoint(node)
	}
	if hit {
		in.store.SelectNode(node)
		in.store.SelectEdge(models.NoEdge)
		in.gesture = ModeDraggingNode
		in.dragNode = node
		in.dragStart = pos
		in.dragging = false
		return Outcome{Redraw: true}
	}
	if edge, ok := in.edgeAt(pos); ok {
		in.store.SelectEdge(edge)
		in.store.SelectNode(models.NoNode)
		return Outcome{Redraw: true}
	}
	if !in.pathMode {
		in.store.AddNode(pos)
	}
	return Outcome{}
}

// PointerMove drags the grabbed node once it has left the drag threshold.
func (in *Interpreter) PointerMove(pos r2.Vec) Outcome {
	if in.gesture != ModeDraggingNode {
		return Outcome{}
	}
	if !in.dragging {
		if r2.Norm(r2.Sub(pos, in.dragStart)) <= in.cfg.DragThreshold {
			return Outcome{}
		}
		in.dragging = true
	}
	in.store.MoveNode(in.dragNode, pos)
	return Outcome{}
}

// PointerUp ends the current gesture. Releasing an edge gesture over another node
// connects the two nodes with weight 1.
func (in *Interpreter) PointerUp(pos r2.Vec, _ Button) Outcome {
	switch in.gesture {
	case ModeCreatingEdge:
		if target, ok := in.nodeAt(pos); ok && target != in.edgeSource {
			in.store.AddEdge(in.edgeSource, target, 1)
		}
	case ModeDraggingNode:
	default:
		return Outcome{}
	}
	in.endGesture()
	return Outcome{}
}

// KeyDelete removes the selected edge, or the selected node if no edge is selected.
func (in *Interpreter) KeyDelete() Outcome {
	if k := in.store.SelectedEdge(); k != models.NoEdge {
		in.store.DeleteEdge(k.A, k.B)
		in.store.SelectEdge(models.NoEdge)
		in.store.SelectNode(models.NoNode)
		return Outcome{Redraw: true}
	}
	id := in.store.SelectedNode()
	if id == models.NoNode {
		return Outcome{}
	}
	in.store.DeleteNode(id)
	if id == in.dragNode || id == in.edgeSource {
		in.endGesture()
	}
	return Outcome{Redraw: true}
}

// TogglePathMode enters or leaves path mode. Both directions clear the path endpoints
// and any computed path.
func (in *Interpreter) TogglePathMode() Outcome {
	in.pathMode = !in.pathMode
	in.endGesture()
	in.clearPath()
	return Outcome{Redraw: true}
}

// ResetPath clears the path endpoints and computed path without leaving path mode.
func (in *Interpreter) ResetPath() Outcome {
	in.clearPath()
	return Outcome{Redraw: true}
}

// PathCompleted leaves path mode after a path job finished. The computed path is kept
// so it stays highlighted.
func (in *Interpreter) PathCompleted() Outcome {
	if !in.pathMode {
		return Outcome{}
	}
	in.pathMode = false
	return Outcome{Redraw: true}
}

// Reset abandons any gesture in progress. It is called when the whole graph is replaced,
// since node ids are reused.
func (in *Interpreter) Reset() {
	in.endGesture()
}

func (in *Interpreter) selectEndpoint(node models.NodeID) Outcome {
	start, end := in.store.StartNode(), in.store.EndNode()
	switch {
	case start == models.NoNode || !in.store.HasNode(start):
		// a deleted start reseeds the selection, so a leftover end is dropped too
		if end != models.NoNode {
			in.store.SetEndNode(models.NoNode)
		}
		in.store.SetStartNode(node)
	case end == models.NoNode && node != start:
		in.store.SetEndNode(node)
		in.paths.StartPath(in.store.Snapshot())
	}
	return Outcome{}
}

func (in *Interpreter) clearPath() {
	in.store.SetStartNode(models.NoNode)
	in.store.SetEndNode(models.NoNode)
	in.store.ResetShortestPath()
}

func (in *Interpreter) endGesture() {
	in.gesture = ModeIdle
	in.dragNode = models.NoNode
	in.edgeSource = models.NoNode
	in.dragging = false
}

func (in *Interpreter) nodeAt(pos r2.Vec) (models.NodeID, bool) {
	return geometry.NearestNode(pos, in.store.Layout(), in.store.Nodes(), in.cfg.HitRadius)
}

func (in *Interpreter) edgeAt(pos r2.Vec) (models.EdgeKey, bool) {
	return geometry.NearestEdge(pos, in.store.Layout(), in.store.Edges(), in.cfg.EdgeHitRadius)
}
