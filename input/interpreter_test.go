package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/graphedit/models"
)

type recordingStarter struct {
	snaps []*models.Snapshot
}

func (r *recordingStarter) StartPath(snap *models.Snapshot) string {
	r.snaps = append(r.snaps, snap)
	return "job"
}

// fixture builds nodes 0 (-0.5,0), 1 (0.5,0), 2 (0,0.5) with a single edge 0-1.
func fixture(t *testing.T) (*Interpreter, *models.Store, *recordingStarter) {
	t.Helper()
	s := models.NewStore()
	s.AddNode(r2.Vec{X: -0.5})
	s.AddNode(r2.Vec{X: 0.5})
	s.AddNode(r2.Vec{Y: 0.5})
	require.True(t, s.AddEdge(0, 1, 3))
	starter := &recordingStarter{}
	return NewInterpreter(s, starter, DefaultConfig()), s, starter
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "idle", ModeIdle.String())
	assert.Equal(t, "dragging_node", ModeDraggingNode.String())
	assert.Equal(t, "creating_edge", ModeCreatingEdge.String())
	assert.Equal(t, "path_selection", ModePathSelection.String())
	assert.Equal(t, "unknown", Mode(42).String())
}

func TestPointerDown_Primary(t *testing.T) {
	tests := []struct {
		name       string
		pos        r2.Vec
		wantNode   models.NodeID
		wantEdge   models.EdgeKey
		wantMode   Mode
		wantOrder  int
		wantRedraw bool
	}{
		{"node hit selects and drags", r2.Vec{X: -0.49}, 0, models.NoEdge, ModeDraggingNode, 3, true},
		{"edge hit selects edge", r2.Vec{X: 0, Y: 0.01}, models.NoNode, models.MakeEdgeKey(0, 1), ModeIdle, 3, true},
		{"empty space creates node", r2.Vec{X: 0.8, Y: 0.8}, models.NoNode, models.NoEdge, ModeIdle, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, s, _ := fixture(t)
			out := in.PointerDown(tt.pos, ButtonPrimary)
			assert.Equal(t, tt.wantRedraw, out.Redraw)
			assert.Equal(t, tt.wantNode, s.SelectedNode())
			assert.Equal(t, tt.wantEdge, s.SelectedEdge())
			assert.Equal(t, tt.wantMode, in.Mode())
			assert.Equal(t, tt.wantOrder, s.Order())
		})
	}
}

func TestPointerDown_NodeClearsEdgeSelection(t *testing.T) {
	in, s, _ := fixture(t)
	in.PointerDown(r2.Vec{Y: 0.01}, ButtonPrimary)
	require.Equal(t, models.MakeEdgeKey(0, 1), s.SelectedEdge())

	in.PointerDown(r2.Vec{Y: 0.5}, ButtonPrimary)
	assert.Equal(t, models.NodeID(2), s.SelectedNode())
	assert.Equal(t, models.NoEdge, s.SelectedEdge())
}

func TestCreatedNodeGetsSmallestFreeID(t *testing.T) {
	in, s, _ := fixture(t)
	s.DeleteNode(1)
	in.PointerDown(r2.Vec{X: -0.8, Y: -0.8}, ButtonPrimary)
	p, ok := s.Position(1)
	require.True(t, ok)
	assert.Equal(t, r2.Vec{X: -0.8, Y: -0.8}, p)
}

func TestDrag_RespectsThreshold(t *testing.T) {
	in, s, _ := fixture(t)
	in.PointerDown(r2.Vec{X: -0.5}, ButtonPrimary)

	in.PointerMove(r2.Vec{X: -0.48})
	p, _ := s.Position(0)
	assert.Equal(t, r2.Vec{X: -0.5}, p, "small moves are ignored")

	in.PointerMove(r2.Vec{X: -0.3})
	p, _ = s.Position(0)
	assert.Equal(t, r2.Vec{X: -0.3}, p)

	// once past the threshold the node follows the pointer closely
	in.PointerMove(r2.Vec{X: -0.29})
	p, _ = s.Position(0)
	assert.Equal(t, r2.Vec{X: -0.29}, p)

	in.PointerUp(r2.Vec{X: -0.29}, ButtonPrimary)
	assert.Equal(t, ModeIdle, in.Mode())

	in.PointerMove(r2.Vec{X: 0.9})
	p, _ = s.Position(0)
	assert.Equal(t, r2.Vec{X: -0.29}, p)
}

func TestCreateEdge(t *testing.T) {
	tests := []struct {
		name     string
		from, to r2.Vec
		wantEdge bool
	}{
		{"released on other node", r2.Vec{X: 0.5}, r2.Vec{Y: 0.5}, true},
		{"released on same node", r2.Vec{X: 0.5}, r2.Vec{X: 0.51}, false},
		{"released on empty space", r2.Vec{X: 0.5}, r2.Vec{X: 0.9, Y: 0.9}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, s, _ := fixture(t)
			in.PointerDown(tt.from, ButtonSecondary)
			require.Equal(t, ModeCreatingEdge, in.Mode())

			in.PointerUp(tt.to, ButtonSecondary)
			assert.Equal(t, ModeIdle, in.Mode())
			w, ok := s.EdgeWeight(1, 2)
			assert.Equal(t, tt.wantEdge, ok)
			if tt.wantEdge {
				assert.Equal(t, 1, w)
			}
		})
	}
}

func TestSecondaryOnEmptySpaceIsNoop(t *testing.T) {
	in, s, _ := fixture(t)
	in.PointerDown(r2.Vec{X: 0.9, Y: 0.9}, ButtonSecondary)
	assert.Equal(t, ModeIdle, in.Mode())
	assert.Equal(t, 3, s.Order())
}

func TestKeyDelete(t *testing.T) {
	t.Run("edge before node", func(t *testing.T) {
		in, s, _ := fixture(t)
		s.SelectNode(2)
		s.SelectEdge(models.MakeEdgeKey(0, 1))
		out := in.KeyDelete()
		assert.True(t, out.Redraw)
		assert.Equal(t, 0, s.Size())
		assert.Equal(t, 3, s.Order())
		assert.Equal(t, models.NoEdge, s.SelectedEdge())
		assert.Equal(t, models.NoNode, s.SelectedNode())
	})
	t.Run("node", func(t *testing.T) {
		in, s, _ := fixture(t)
		in.PointerDown(r2.Vec{X: -0.5}, ButtonPrimary)
		in.KeyDelete()
		assert.False(t, s.HasNode(0))
		assert.Equal(t, 0, s.Size())
		assert.Equal(t, ModeIdle, in.Mode())
	})
	t.Run("nothing selected", func(t *testing.T) {
		in, s, _ := fixture(t)
		assert.False(t, in.KeyDelete().Redraw)
		assert.Equal(t, 3, s.Order())
	})
}

func TestPathSelection(t *testing.T) {
	in, s, starter := fixture(t)
	in.TogglePathMode()
	require.Equal(t, ModePathSelection, in.Mode())

	in.PointerDown(r2.Vec{X: -0.5}, ButtonPrimary)
	assert.Equal(t, models.NodeID(0), s.StartNode())
	assert.Equal(t, models.NoNode, s.SelectedNode(), "path clicks do not select")

	// same node again is rejected
	in.PointerDown(r2.Vec{X: -0.5}, ButtonPrimary)
	assert.Equal(t, models.NoNode, s.EndNode())
	assert.Empty(t, starter.snaps)

	// empty space does not create nodes in path mode
	in.PointerDown(r2.Vec{X: 0.9, Y: 0.9}, ButtonPrimary)
	assert.Equal(t, 3, s.Order())

	in.PointerDown(r2.Vec{X: 0.5}, ButtonPrimary)
	assert.Equal(t, models.NodeID(1), s.EndNode())
	require.Len(t, starter.snaps, 1)
	assert.Equal(t, models.NodeID(0), starter.snaps[0].Selection.StartNode)
	assert.Equal(t, models.NodeID(1), starter.snaps[0].Selection.EndNode)

	s.SetShortestPath([]models.NodeID{0, 1})
	assert.True(t, in.PathCompleted().Redraw)
	assert.Equal(t, ModeIdle, in.Mode())
	path, computed := s.ShortestPath()
	assert.True(t, computed)
	assert.Equal(t, []models.NodeID{0, 1}, path)
}

func TestPathSelection_DeletedStartReseedsBothEndpoints(t *testing.T) {
	in, s, starter := fixture(t)
	in.TogglePathMode()
	in.PointerDown(r2.Vec{X: -0.5}, ButtonPrimary)
	in.PointerDown(r2.Vec{X: 0.5}, ButtonPrimary)
	require.Len(t, starter.snaps, 1)

	s.DeleteNode(0)
	require.Equal(t, models.NoNode, s.StartNode())
	require.Equal(t, models.NodeID(1), s.EndNode())

	in.PointerDown(r2.Vec{X: 0.5}, ButtonPrimary)
	assert.Equal(t, models.NodeID(1), s.StartNode())
	assert.Equal(t, models.NoNode, s.EndNode())

	in.PointerDown(r2.Vec{Y: 0.5}, ButtonPrimary)
	assert.Equal(t, models.NodeID(2), s.EndNode())
	require.Len(t, starter.snaps, 2)
	assert.Equal(t, models.NodeID(1), starter.snaps[1].Selection.StartNode)
	assert.Equal(t, models.NodeID(2), starter.snaps[1].Selection.EndNode)
}

func TestTogglePathMode_ClearsEndpoints(t *testing.T) {
	in, s, _ := fixture(t)
	s.SetStartNode(0)
	s.SetEndNode(1)
	s.SetShortestPath([]models.NodeID{0, 1})

	assert.True(t, in.TogglePathMode().Redraw)
	assert.True(t, in.PathMode())
	assert.Equal(t, models.NoNode, s.StartNode())
	_, computed := s.ShortestPath()
	assert.False(t, computed)

	s.SetStartNode(2)
	in.TogglePathMode()
	assert.False(t, in.PathMode())
	assert.Equal(t, models.NoNode, s.StartNode())
}

func TestResetPath_StaysInPathMode(t *testing.T) {
	in, s, _ := fixture(t)
	in.TogglePathMode()
	in.PointerDown(r2.Vec{X: -0.5}, ButtonPrimary)
	in.ResetPath()
	assert.Equal(t, ModePathSelection, in.Mode())
	assert.Equal(t, models.NoNode, s.StartNode())
}

func TestPathCompletedOutsidePathMode(t *testing.T) {
	in, _, _ := fixture(t)
	assert.False(t, in.PathCompleted().Redraw)
	assert.Equal(t, ModeIdle, in.Mode())
}

func TestHandleDispatch(t *testing.T) {
	in, s, _ := fixture(t)
	in.Handle(PointerDown{Pos: r2.Vec{X: -0.5}, Button: ButtonPrimary})
	in.Handle(PointerMove{Pos: r2.Vec{X: -0.2}})
	in.Handle(PointerUp{Pos: r2.Vec{X: -0.2}, Button: ButtonPrimary})
	p, _ := s.Position(0)
	assert.Equal(t, r2.Vec{X: -0.2}, p)

	in.Handle(KeyDelete{})
	assert.False(t, s.HasNode(0))
}
