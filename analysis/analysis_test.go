package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/graphedit/models"
)

// buildStore creates n nodes and the given edges.
func buildStore(t *testing.T, n int, edges ...models.Edge) *models.Store {
	t.Helper()
	s := models.NewStore()
	for i := 0; i < n; i++ {
		s.AddNode(r2.Vec{X: float64(i)})
	}
	for _, e := range edges {
		require.True(t, s.AddEdge(e.A, e.B, e.Weight), "edge %v", e)
	}
	return s
}

func TestShortestPath_PrefersLighterDetour(t *testing.T) {
	s := buildStore(t, 3,
		models.Edge{A: 0, B: 1, Weight: 2},
		models.Edge{A: 1, B: 2, Weight: 2},
		models.Edge{A: 0, B: 2, Weight: 10},
	)

	path := ShortestPath(s, 0, 2)
	assert.Equal(t, []models.NodeID{0, 1, 2}, path)

	w, ok := PathWeight(s, path)
	require.True(t, ok)
	assert.Equal(t, 4, w)

	// snapshots answer the same way
	assert.Equal(t, path, ShortestPath(s.Snapshot(), 0, 2))
}

func TestShortestPath_MissingEndpoints(t *testing.T) {
	s := buildStore(t, 2, models.Edge{A: 0, B: 1, Weight: 1})

	tests := []struct {
		name       string
		start, end models.NodeID
	}{
		{"unset start", models.NoNode, 1},
		{"unset end", 0, models.NoNode},
		{"absent start", 7, 1},
		{"absent end", 0, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, ShortestPath(s, tt.start, tt.end))
		})
	}
	assert.Empty(t, ShortestPath(nil, 0, 1))
}

func TestShortestPath_DisconnectedComponents(t *testing.T) {
	s := buildStore(t, 4,
		models.Edge{A: 0, B: 1, Weight: 1},
		models.Edge{A: 2, B: 3, Weight: 1},
	)
	assert.Empty(t, ShortestPath(s, 0, 3))
}

func TestShortestPath_SameNode(t *testing.T) {
	s := buildStore(t, 2)
	assert.Equal(t, []models.NodeID{1}, ShortestPath(s, 1, 1))
}

func TestShortestPath_TieBreakLowestID(t *testing.T) {
	// 0-1-3 and 0-2-3 both weigh 2; expanding node 1 first reaches 3 first.
	s := buildStore(t, 4,
		models.Edge{A: 0, B: 2, Weight: 1},
		models.Edge{A: 0, B: 1, Weight: 1},
		models.Edge{A: 2, B: 3, Weight: 1},
		models.Edge{A: 1, B: 3, Weight: 1},
	)
	for i := 0; i < 20; i++ {
		assert.Equal(t, []models.NodeID{0, 1, 3}, ShortestPath(s, 0, 3))
	}
	assert.Equal(t, []models.NodeID{3, 1, 0}, ShortestPath(s, 3, 0))
}

func TestShortestPath_LongerChain(t *testing.T) {
	s := buildStore(t, 6,
		models.Edge{A: 0, B: 1, Weight: 7},
		models.Edge{A: 0, B: 2, Weight: 9},
		models.Edge{A: 0, B: 5, Weight: 14},
		models.Edge{A: 1, B: 2, Weight: 10},
		models.Edge{A: 1, B: 3, Weight: 15},
		models.Edge{A: 2, B: 3, Weight: 11},
		models.Edge{A: 2, B: 5, Weight: 2},
		models.Edge{A: 3, B: 4, Weight: 6},
		models.Edge{A: 4, B: 5, Weight: 9},
	)
	path := ShortestPath(s, 0, 4)
	assert.Equal(t, []models.NodeID{0, 2, 5, 4}, path)
	w, _ := PathWeight(s, path)
	assert.Equal(t, 20, w)
}

func TestPathWeight_NotAdjacent(t *testing.T) {
	s := buildStore(t, 3, models.Edge{A: 0, B: 1, Weight: 1})
	_, ok := PathWeight(s, []models.NodeID{0, 2})
	assert.False(t, ok)
	w, ok := PathWeight(s, nil)
	assert.True(t, ok)
	assert.Zero(t, w)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 100, Percent(3, 3))
	assert.Equal(t, 14, Percent(1, 7))
}

func TestTraverse_VisitsEveryNodeOnce(t *testing.T) {
	s := buildStore(t, 7)
	s.DeleteNode(3)
	s.AddNode(r2.Vec{})

	var visits []Visit
	for v := range Traverse(context.Background(), s, 0) {
		visits = append(visits, v)
	}

	require.Len(t, visits, 7)
	var order []models.NodeID
	last := 0
	for i, v := range visits {
		order = append(order, v.Node)
		assert.Equal(t, i+1, v.Index)
		assert.Equal(t, 7, v.Total)
		assert.GreaterOrEqual(t, v.Percent, last)
		last = v.Percent
	}
	assert.Equal(t, s.Nodes(), order)
	assert.Equal(t, 100, last)
}

func TestTraverse_EmptyGraph(t *testing.T) {
	count := 0
	for range Traverse(context.Background(), models.NewStore(), time.Hour) {
		count++
	}
	assert.Zero(t, count)
}

func TestTraverse_CancelAfterK(t *testing.T) {
	for _, k := range []int{1, 3, 5} {
		s := buildStore(t, 8)
		ctx, cancel := context.WithCancel(context.Background())
		count := 0
		for range Traverse(ctx, s, time.Millisecond) {
			count++
			if count == k {
				cancel()
			}
		}
		cancel()
		assert.Equal(t, k, count)
	}
}

func TestTraverse_Paced(t *testing.T) {
	s := buildStore(t, 3)
	start := time.Now()
	count := 0
	for range Traverse(context.Background(), s, 20*time.Millisecond) {
		count++
	}
	assert.Equal(t, 3, count)
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestTraverse_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	count := 0
	for range Traverse(ctx, buildStore(t, 3), 0) {
		count++
	}
	assert.Zero(t, count)
}
