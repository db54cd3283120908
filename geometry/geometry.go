// Package geometry maps pointer positions onto graph elements.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/graphedit/models"
)

// DistancePointToSegment returns the Euclidean distance from p to the closest point of the
// closed segment [a, b]. A zero-length segment degenerates to the distance between p and a.
func DistancePointToSegment(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	length2 := r2.Norm2(ab)
	if length2 == 0 {
		return r2.Norm(r2.Sub(p, a))
	}
	t := r2.Dot(r2.Sub(p, a), ab) / length2
	t = math.Max(0, math.Min(1, t))
	closest := r2.Add(a, r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p, closest))
}

// NearestNode returns the node closest to pos among those strictly within radius.
// Nodes are examined in the order given; on equal distances the first one wins.
// Nodes without a layout entry are skipped.
func NearestNode(pos r2.Vec, layout models.Layout, nodes []models.NodeID, radius float64) (models.NodeID, bool) {
	best := models.NoNode
	bestDist := math.Inf(1)
	for _, id := range nodes {
		p, ok := layout[id]
		if !ok {
			continue
		}
		d := r2.Norm(r2.Sub(p, pos))
		if d < radius && d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, best != models.NoNode
}

// NearestEdge returns the edge whose segment lies closest to pos, strictly within radius.
// Edges are examined in the order given; on equal distances the first one wins.
func NearestEdge(pos r2.Vec, layout models.Layout, edges []models.Edge, radius float64) (models.EdgeKey, bool) {
	best := models.NoEdge
	bestDist := math.Inf(1)
	for _, e := range edges {
		a, okA := layout[e.A]
		b, okB := layout[e.B]
		if !okA || !okB {
			continue
		}
		d := DistancePointToSegment(pos, a, b)
		if d < radius && d < bestDist {
			best, bestDist = e.Key(), d
		}
	}
	return best, best != models.NoEdge
}
