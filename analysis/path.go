// Package analysis implements the graph analyses run by the editor: the weighted shortest
// path between two nodes and a paced traversal that visits every node once.
//
// Both analyses read the graph through models.View and never mutate it, so they can run
// against a models.Snapshot on a background goroutine.
package analysis

import (
	"container/heap"
	"math"
	"slices"

	"github.com/TFMV/graphedit/models"
)

// ShortestPath returns the minimum total-weight path from start to end, both inclusive.
//
// The result is empty when either endpoint is NoNode or missing from g, or when end is not
// reachable. When several paths share the minimum weight, the one found by expanding the
// lowest node id first wins: the queue is ordered by (distance, id), neighbours are relaxed
// in ascending id and a predecessor is only replaced by a strictly shorter distance.
func ShortestPath(g models.View, start, end models.NodeID) []models.NodeID {
	if g == nil || start == models.NoNode || end == models.NoNode {
		return nil
	}
	if !g.HasNode(start) || !g.HasNode(end) {
		return nil
	}
	if start == end {
		return []models.NodeID{start}
	}

	dist := map[models.NodeID]int{start: 0}
	prev := make(map[models.NodeID]models.NodeID)
	done := make(map[models.NodeID]bool)

	pq := &nodePQ{{id: start, dist: 0}}
	for pq.Len() > 0 {
		item := heap.Pop(pq).(nodeItem)
		u := item.id
		if done[u] {
			continue
		}
		done[u] = true
		if u == end {
			break
		}
		for _, v := range g.Neighbors(u) {
			if done[v] {
				continue
			}
			w, ok := g.EdgeWeight(u, v)
			if !ok || w < 0 {
				continue
			}
			nd := item.dist + w
			if cur, seen := dist[v]; seen && nd >= cur {
				continue
			}
			dist[v] = nd
			prev[v] = u
			heap.Push(pq, nodeItem{id: v, dist: nd})
		}
	}

	if !done[end] {
		return nil
	}
	path := []models.NodeID{end}
	for cur := end; cur != start; {
		cur = prev[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}

// PathWeight sums the edge weights along path. It reports false if two consecutive
// nodes are not adjacent in g.
func PathWeight(g models.View, path []models.NodeID) (int, bool) {
	total := 0
	for i := 1; i < len(path); i++ {
		w, ok := g.EdgeWeight(path[i-1], path[i])
		if !ok {
			return 0, false
		}
		if total > math.MaxInt-w {
			return math.MaxInt, true
		}
		total += w
	}
	return total, true
}

// nodeItem is a queue entry; stale entries are skipped when popped.
type nodeItem struct {
	id   models.NodeID
	dist int
}

// nodePQ is a min-heap ordered by distance, then node id.
type nodePQ []nodeItem

func (pq nodePQ) Len() int { return len(pq) }

func (pq nodePQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].id < pq[j].id
}

func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *nodePQ) Push(x any) { *pq = append(*pq, x.(nodeItem)) }

func (pq *nodePQ) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
