package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/graphedit/models"
)

// snapshot builds a triangle with node 0 selected, path 1-2 and node 3 visited.
func snapshot(t *testing.T) *models.Snapshot {
	t.Helper()
	s := models.NewStore()
	s.AddNode(r2.Vec{X: -1, Y: -1})
	s.AddNode(r2.Vec{X: 1, Y: -1})
	s.AddNode(r2.Vec{X: 0, Y: 1})
	s.AddNode(r2.Vec{X: 0, Y: 0})
	require.True(t, s.AddEdge(0, 1, 4))
	require.True(t, s.AddEdge(1, 2, 7))
	require.True(t, s.AddEdge(0, 2, 9))
	s.SelectNode(0)
	s.SetStartNode(1)
	s.SetEndNode(2)
	s.SetShortestPath([]models.NodeID{1, 2})
	s.AddVisited(3)
	return s.Snapshot()
}

func TestGetRenderer(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"svg", "SVG Renderer", false},
		{"ASCII", "ASCII Renderer", false},
		{"json", "JSON Renderer", false},
		{"dot", "DOT Renderer", false},
		{"webgl", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := GetRenderer(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Name())
			assert.NotEmpty(t, r.Description())
		})
	}
}

func TestColors(t *testing.T) {
	sel := snapshot(t).Selection
	assert.Equal(t, ColorSelected, NodeColor(sel, 0))
	assert.Equal(t, ColorPath, NodeColor(sel, 1))
	assert.Equal(t, ColorPath, NodeColor(sel, 2))
	assert.Equal(t, ColorVisited, NodeColor(sel, 3))
	assert.Equal(t, ColorNode, NodeColor(sel, 9))

	assert.Equal(t, ColorPath, EdgeColor(sel, models.MakeEdgeKey(2, 1)))
	assert.Equal(t, ColorEdge, EdgeColor(sel, models.MakeEdgeKey(0, 1)))
	sel.SelectedEdge = models.MakeEdgeKey(0, 1)
	assert.Equal(t, ColorSelected, EdgeColor(sel, models.MakeEdgeKey(1, 0)))
}

func TestProjection(t *testing.T) {
	x, y := project(r2.Vec{X: -Extent, Y: Extent}, 800, 600)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)

	x, y = project(r2.Vec{}, 800, 600)
	assert.InDelta(t, 400, x, 1e-9)
	assert.InDelta(t, 300, y, 1e-9)

	p := r2.Vec{X: 0.3, Y: -0.7}
	x, y = project(p, 800, 600)
	back := Unproject(x, y, 800, 600)
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)
}

func TestSVGRenderer(t *testing.T) {
	out, err := Render(snapshot(t), NewDefaultOptions("svg"))
	require.NoError(t, err)
	svg := string(out)
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Equal(t, 4, strings.Count(svg, "<circle"))
	assert.Equal(t, 3, strings.Count(svg, "<line"))
	assert.Contains(t, svg, `fill="`+ColorSelected+`"`)
	assert.Contains(t, svg, `stroke="`+ColorPath+`"`)
	assert.Contains(t, svg, ">7</text>")
}

func TestASCIIRenderer(t *testing.T) {
	out, err := Render(snapshot(t), NewDefaultOptions("ascii"))
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "S0")
	assert.Contains(t, text, "P1")
	assert.Contains(t, text, "V3")
	assert.Contains(t, text, "Nodes: 4 | Edges: 3")
	assert.Contains(t, text, "Path: 1 -> 2")
}

func TestJSONRenderer(t *testing.T) {
	out, err := Render(snapshot(t), NewDefaultOptions("json"))
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Len(t, doc.Nodes, 4)
	require.Len(t, doc.Edges, 3)
	assert.Equal(t, ColorSelected, doc.Nodes[0].Color)
	assert.Equal(t, -1.0, doc.Nodes[0].X)
	assert.Equal(t, DocumentEdge{A: 1, B: 2, Weight: 7, Color: ColorPath}, doc.Edges[2])
	assert.Equal(t, []models.NodeID{1, 2}, doc.Selection.Path)
	assert.True(t, doc.Selection.PathComputed)
}

func TestDOTRenderer(t *testing.T) {
	out, err := Render(snapshot(t), NewDefaultOptions("dot"))
	require.NoError(t, err)
	dot := string(out)
	assert.True(t, strings.HasPrefix(dot, "graph G {"))
	assert.Contains(t, dot, `0 -- 1 [label="4"`)
	assert.Contains(t, dot, `1 -- 2 [label="7", weight=7, color="`+ColorPath+`"]`)
}

func TestRender_EmptyGraph(t *testing.T) {
	for _, format := range []string{"svg", "ascii", "json", "dot"} {
		t.Run(format, func(t *testing.T) {
			_, err := Render(models.NewStore().Snapshot(), NewDefaultOptions(format))
			assert.NoError(t, err)
		})
	}
}

func TestRender_RecoversFromRendererPanic(t *testing.T) {
	_, err := Render(nil, NewDefaultOptions("svg"))
	assert.Error(t, err)
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(snapshot(t), NewDefaultOptions("png"))
	assert.Error(t, err)
}
