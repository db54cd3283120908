// Package models provides data structures and interfaces for the graphedit application.
// It defines the graph store that owns nodes, weighted edges, node positions and the
// derived selection state consumed by renderers and analyses.
package models

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r2"
)

// NodeID identifies a node in the graph. Valid ids are non-negative.
type NodeID int

// NoNode marks an unset optional node reference.
const NoNode NodeID = -1

// EdgeKey is the canonical form of an unordered node pair (A < B).
type EdgeKey struct {
	A NodeID `json:"a"`
	B NodeID `json:"b"`
}

// NoEdge marks an unset optional edge reference.
var NoEdge = EdgeKey{A: NoNode, B: NoNode}

// MakeEdgeKey returns the canonical key for the pair regardless of orientation.
func MakeEdgeKey(a, b NodeID) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey{A: a, B: b}
}

// Has reports whether id is one of the edge endpoints.
func (k EdgeKey) Has(id NodeID) bool {
	return k.A == id || k.B == id
}

// Edge represents an undirected weighted edge between two nodes
type Edge struct {
	A      NodeID `json:"a"`
	B      NodeID `json:"b"`
	Weight int    `json:"weight"`
}

// Key returns the canonical key of the edge.
func (e Edge) Key() EdgeKey {
	return MakeEdgeKey(e.A, e.B)
}

// Layout maps every node to its 2-D position.
type Layout map[NodeID]r2.Vec

// Clone returns an independent copy of the layout.
func (l Layout) Clone() Layout {
	out := make(Layout, len(l))
	for id, p := range l {
		out[id] = p
	}
	return out
}

// WeightRange is an inclusive range of integer edge weights.
type WeightRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Layouter computes positions for every node of a graph. Implementations must be
// deterministic for a given graph and seed.
type Layouter interface {
	Layout(g View, seed int64) Layout
}

// LayouterFunc adapts a plain function to the Layouter interface.
type LayouterFunc func(g View, seed int64) Layout

// Layout calls f(g, seed).
func (f LayouterFunc) Layout(g View, seed int64) Layout {
	return f(g, seed)
}

// View is the read-only graph surface shared by the live store and its snapshots.
type View interface {
	// Nodes returns node ids in the graph's iteration order.
	Nodes() []NodeID
	HasNode(id NodeID) bool
	// Neighbors returns the adjacent node ids in ascending order.
	Neighbors(id NodeID) []NodeID
	EdgeWeight(a, b NodeID) (int, bool)
	Edges() []Edge
}

// Errors returned when generation parameters are invalid.
var (
	ErrInvalidOrder       = errors.New("models: order must be non-negative")
	ErrInvalidProbability = errors.New("models: edge probability must be within [0,1]")
	ErrInvalidWeightRange = errors.New("models: weight range must satisfy 1 <= min <= max")
)
