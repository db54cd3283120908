package models

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// Store owns the graph structure, node positions and derived selection state.
//
// Store is not safe for concurrent use. It is meant to be mutated by a single
// interactive goroutine; background work reads a Snapshot instead.
type Store struct {
	order   []NodeID
	adj     map[NodeID]map[NodeID]struct{}
	weights map[EdgeKey]int
	layout  Layout

	selectedNode NodeID
	selectedEdge EdgeKey
	startNode    NodeID
	endNode      NodeID
	path         []NodeID
	pathComputed bool
	visited      []NodeID
	visitedSet   map[NodeID]struct{}

	layouter  Layouter
	seed      int64
	rng       *rand.Rand
	observers []*observer
}

type observer struct {
	fn func(Layout)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLayouter sets the layout collaborator used by GenerateRandom and Clear.
func WithLayouter(l Layouter) StoreOption {
	return func(s *Store) { s.layouter = l }
}

// WithSeed sets the seed used both for the layout collaborator and for graph generation.
func WithSeed(seed int64) StoreOption {
	return func(s *Store) {
		s.seed = seed
		s.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	}
}

// NewStore creates an empty graph store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		layouter: LayouterFunc(func(View, int64) Layout { return Layout{} }),
	}
	WithSeed(42)(s)
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	s.layout = s.computeLayout()
	return s
}

// Subscribe registers fn to receive the layout map after every observable change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Layout)) func() {
	o := &observer{fn: fn}
	s.observers = append(s.observers, o)
	return func() {
		s.observers = slices.DeleteFunc(s.observers, func(x *observer) bool { return x == o })
	}
}

func (s *Store) notify() {
	if len(s.observers) == 0 {
		return
	}
	layout := s.layout.Clone()
	for _, o := range slices.Clone(s.observers) {
		o.fn(layout)
	}
}

// reset empties the graph and every piece of derived state.
func (s *Store) reset() {
	s.order = nil
	s.adj = make(map[NodeID]map[NodeID]struct{})
	s.weights = make(map[EdgeKey]int)
	s.layout = make(Layout)
	s.clearDerived()
}

func (s *Store) clearDerived() {
	s.selectedNode = NoNode
	s.selectedEdge = NoEdge
	s.startNode = NoNode
	s.endNode = NoNode
	s.path = nil
	s.pathComputed = false
	s.visited = nil
	s.visitedSet = make(map[NodeID]struct{})
}

func (s *Store) computeLayout() Layout {
	l := s.layouter.Layout(s, s.seed)
	out := make(Layout, len(s.order))
	for _, id := range s.order {
		out[id] = l[id]
	}
	return out
}

// GenerateRandom replaces the graph with a G(n,p) random graph whose edge weights are
// drawn uniformly from the inclusive weight range.
func (s *Store) GenerateRandom(order int, p float64, weights WeightRange) error {
	if order < 0 {
		return fmt.Errorf("generate %d nodes: %w", order, ErrInvalidOrder)
	}
	if p < 0 || p > 1 {
		return fmt.Errorf("generate with p=%g: %w", p, ErrInvalidProbability)
	}
	if weights.Min < 1 || weights.Min > weights.Max {
		return fmt.Errorf("generate with weights [%d,%d]: %w", weights.Min, weights.Max, ErrInvalidWeightRange)
	}

	s.reset()
	for i := 0; i < order; i++ {
		s.insertNode(NodeID(i))
	}
	for i := 0; i < order; i++ {
		for j := i + 1; j < order; j++ {
			if s.rng.Float64() < p {
				w := weights.Min + s.rng.IntN(weights.Max-weights.Min+1)
				s.insertEdge(NodeID(i), NodeID(j), w)
			}
		}
	}
	s.layout = s.computeLayout()
	s.notify()
	return nil
}

// Clear replaces the graph with the empty graph.
func (s *Store) Clear() {
	s.reset()
	s.layout = s.computeLayout()
	s.notify()
}

func (s *Store) insertNode(id NodeID) {
	s.order = append(s.order, id)
	s.adj[id] = make(map[NodeID]struct{})
}

func (s *Store) insertEdge(a, b NodeID, weight int) {
	s.adj[a][b] = struct{}{}
	s.adj[b][a] = struct{}{}
	s.weights[MakeEdgeKey(a, b)] = weight
}

// AddNode inserts a node at pos using the smallest unused non-negative id.
func (s *Store) AddNode(pos r2.Vec) NodeID {
	id := NodeID(0)
	for s.HasNode(id) {
		id++
	}
	s.insertNode(id)
	s.layout[id] = pos
	s.notify()
	return id
}

// DeleteNode removes a node, its incident edges and every reference to it.
func (s *Store) DeleteNode(id NodeID) {
	if !s.HasNode(id) {
		return
	}
	for n := range s.adj[id] {
		delete(s.adj[n], id)
		delete(s.weights, MakeEdgeKey(id, n))
	}
	delete(s.adj, id)
	delete(s.layout, id)
	s.order = slices.DeleteFunc(s.order, func(n NodeID) bool { return n == id })

	if s.selectedNode == id {
		s.selectedNode = NoNode
	}
	if s.selectedEdge.Has(id) {
		s.selectedEdge = NoEdge
	}
	if s.startNode == id {
		s.startNode = NoNode
	}
	if s.endNode == id {
		s.endNode = NoNode
	}
	if slices.Contains(s.path, id) {
		s.path = nil
		s.pathComputed = false
	}
	if _, ok := s.visitedSet[id]; ok {
		delete(s.visitedSet, id)
		s.visited = slices.DeleteFunc(s.visited, func(n NodeID) bool { return n == id })
	}
	s.notify()
}

// MoveNode updates the position of an existing node.
func (s *Store) MoveNode(id NodeID, pos r2.Vec) {
	if !s.HasNode(id) {
		return
	}
	s.layout[id] = pos
	s.notify()
}

// AddEdge inserts an undirected edge. It returns false without mutating anything when
// the endpoints are equal or missing, the edge already exists, or weight is not positive.
func (s *Store) AddEdge(a, b NodeID, weight int) bool {
	if a == b || !s.HasNode(a) || !s.HasNode(b) || weight < 1 {
		return false
	}
	if _, ok := s.weights[MakeEdgeKey(a, b)]; ok {
		return false
	}
	s.insertEdge(a, b, weight)
	s.notify()
	return true
}

// DeleteEdge removes the edge between a and b if present.
func (s *Store) DeleteEdge(a, b NodeID) {
	k := MakeEdgeKey(a, b)
	if _, ok := s.weights[k]; !ok {
		return
	}
	delete(s.weights, k)
	delete(s.adj[a], b)
	delete(s.adj[b], a)
	if s.selectedEdge == k {
		s.selectedEdge = NoEdge
	}
	s.notify()
}

// SetEdgeWeight overwrites the weight of an existing edge.
func (s *Store) SetEdgeWeight(a, b NodeID, weight int) bool {
	k := MakeEdgeKey(a, b)
	if _, ok := s.weights[k]; !ok || weight < 1 {
		return false
	}
	s.weights[k] = weight
	s.notify()
	return true
}

// SelectNode sets the selected node. Selection changes are not broadcast;
// callers redraw explicitly.
func (s *Store) SelectNode(id NodeID) {
	s.selectedNode = id
}

// SelectEdge sets the selected edge. Like SelectNode it does not notify.
func (s *Store) SelectEdge(k EdgeKey) {
	s.selectedEdge = k
}

// SetStartNode sets the path start node (NoNode clears it).
func (s *Store) SetStartNode(id NodeID) {
	s.startNode = id
	s.notify()
}

// SetEndNode sets the path end node (NoNode clears it).
func (s *Store) SetEndNode(id NodeID) {
	s.endNode = id
	s.notify()
}

// SetShortestPath records a computed path. An empty path means no path exists.
func (s *Store) SetShortestPath(path []NodeID) {
	s.path = slices.Clone(path)
	s.pathComputed = true
	s.notify()
}

// ResetShortestPath returns the path to the "not computed" state.
func (s *Store) ResetShortestPath() {
	s.path = nil
	s.pathComputed = false
	s.notify()
}

// AddVisited appends id to the visited sequence. Absent nodes and duplicates are ignored.
func (s *Store) AddVisited(id NodeID) bool {
	if !s.HasNode(id) {
		return false
	}
	if _, ok := s.visitedSet[id]; ok {
		return false
	}
	s.visitedSet[id] = struct{}{}
	s.visited = append(s.visited, id)
	s.notify()
	return true
}

// ClearVisited empties the visited sequence.
func (s *Store) ClearVisited() {
	s.visited = nil
	s.visitedSet = make(map[NodeID]struct{})
	s.notify()
}
