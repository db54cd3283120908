package models

import (
	"cmp"
	"maps"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// Selection is the derived, non-structural state of the editor.
type Selection struct {
	SelectedNode NodeID   `json:"selected_node"`
	SelectedEdge EdgeKey  `json:"selected_edge"`
	StartNode    NodeID   `json:"start_node"`
	EndNode      NodeID   `json:"end_node"`
	Path         []NodeID `json:"path"`
	PathComputed bool     `json:"path_computed"`
	Visited      []NodeID `json:"visited"`
}

// OnPath reports whether id belongs to the computed path.
func (sel Selection) OnPath(id NodeID) bool {
	return slices.Contains(sel.Path, id)
}

// PathUsesEdge reports whether the computed path walks the edge k.
func (sel Selection) PathUsesEdge(k EdgeKey) bool {
	for i := 1; i < len(sel.Path); i++ {
		if MakeEdgeKey(sel.Path[i-1], sel.Path[i]) == k {
			return true
		}
	}
	return false
}

// IsVisited reports whether id is in the visited sequence.
func (sel Selection) IsVisited(id NodeID) bool {
	return slices.Contains(sel.Visited, id)
}

// Nodes returns node ids in insertion order.
func (s *Store) Nodes() []NodeID {
	return slices.Clone(s.order)
}

// HasNode reports whether id is in the graph.
func (s *Store) HasNode(id NodeID) bool {
	_, ok := s.adj[id]
	return ok
}

// Neighbors returns the nodes adjacent to id in ascending order.
func (s *Store) Neighbors(id NodeID) []NodeID {
	return sortedKeys(s.adj[id])
}

// EdgeWeight looks up the weight of the edge between a and b in either orientation.
func (s *Store) EdgeWeight(a, b NodeID) (int, bool) {
	w, ok := s.weights[MakeEdgeKey(a, b)]
	return w, ok
}

// Edges returns every edge sorted by canonical key.
func (s *Store) Edges() []Edge {
	return sortedEdges(s.weights)
}

// Order returns the number of nodes.
func (s *Store) Order() int { return len(s.order) }

// Size returns the number of edges.
func (s *Store) Size() int { return len(s.weights) }

// Position returns the layout position of id.
func (s *Store) Position(id NodeID) (r2.Vec, bool) {
	p, ok := s.layout[id]
	return p, ok
}

// Layout returns a copy of the layout map.
func (s *Store) Layout() Layout {
	return s.layout.Clone()
}

// SelectedNode returns the selected node or NoNode.
func (s *Store) SelectedNode() NodeID { return s.selectedNode }

// SelectedEdge returns the selected edge or NoEdge.
func (s *Store) SelectedEdge() EdgeKey { return s.selectedEdge }

// StartNode returns the path start node or NoNode.
func (s *Store) StartNode() NodeID { return s.startNode }

// EndNode returns the path end node or NoNode.
func (s *Store) EndNode() NodeID { return s.endNode }

// ShortestPath returns the last computed path and whether one was computed at all.
// computed && len(path) == 0 means no path exists between the endpoints.
func (s *Store) ShortestPath() (path []NodeID, computed bool) {
	return slices.Clone(s.path), s.pathComputed
}

// Visited returns the visited nodes in visit order.
func (s *Store) Visited() []NodeID {
	return slices.Clone(s.visited)
}

// Selection returns a copy of the derived selection state.
func (s *Store) Selection() Selection {
	return Selection{
		SelectedNode: s.selectedNode,
		SelectedEdge: s.selectedEdge,
		StartNode:    s.startNode,
		EndNode:      s.endNode,
		Path:         slices.Clone(s.path),
		PathComputed: s.pathComputed,
		Visited:      slices.Clone(s.visited),
	}
}

// Snapshot is an immutable copy of the store, safe to hand to other goroutines.
type Snapshot struct {
	order     []NodeID
	adj       map[NodeID][]NodeID
	weights   map[EdgeKey]int
	Positions Layout
	Selection Selection
}

// Snapshot copies the current graph, layout and selection state.
func (s *Store) Snapshot() *Snapshot {
	adj := make(map[NodeID][]NodeID, len(s.adj))
	for id, ns := range s.adj {
		adj[id] = sortedKeys(ns)
	}
	return &Snapshot{
		order:     slices.Clone(s.order),
		adj:       adj,
		weights:   maps.Clone(s.weights),
		Positions: s.layout.Clone(),
		Selection: s.Selection(),
	}
}

// Nodes returns node ids in the store's insertion order.
func (g *Snapshot) Nodes() []NodeID { return slices.Clone(g.order) }

// HasNode reports whether id was in the graph.
func (g *Snapshot) HasNode(id NodeID) bool {
	_, ok := g.adj[id]
	return ok
}

// Neighbors returns the nodes adjacent to id in ascending order.
func (g *Snapshot) Neighbors(id NodeID) []NodeID { return slices.Clone(g.adj[id]) }

// EdgeWeight looks up the edge weight in either orientation.
func (g *Snapshot) EdgeWeight(a, b NodeID) (int, bool) {
	w, ok := g.weights[MakeEdgeKey(a, b)]
	return w, ok
}

// Edges returns every edge sorted by canonical key.
func (g *Snapshot) Edges() []Edge { return sortedEdges(g.weights) }

// Order returns the number of nodes.
func (g *Snapshot) Order() int { return len(g.order) }

// Size returns the number of edges.
func (g *Snapshot) Size() int { return len(g.weights) }

func sortedKeys(m map[NodeID]struct{}) []NodeID {
	out := make([]NodeID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func sortedEdges(weights map[EdgeKey]int) []Edge {
	out := make([]Edge, 0, len(weights))
	for k, w := range weights {
		out = append(out, Edge{A: k.A, B: k.B, Weight: w})
	}
	slices.SortFunc(out, func(x, y Edge) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return out
}
