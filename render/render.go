// Package render draws graph snapshots. Renderers re-derive node and edge colours from
// the snapshot's selection state, so a snapshot taken at any time can be drawn.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/graphedit/models"
)

// Colours used for nodes and edges.
const (
	ColorNode     = "#87CEEB" // sky blue
	ColorSelected = "#FF0000"
	ColorPath     = "#FFA500"
	ColorVisited  = "#2E8B57"
	ColorEdge     = "#666666"
)

// Extent is half the side of the fixed viewport in layout units. Layouts live in
// [-1, 1], the margin leaves room for node discs and labels.
const Extent = 1.5

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format         string  // Output format (svg, ascii, json, dot)
	Width          float64 // Width of the output
	Height         float64 // Height of the output
	Background     string  // Background color
	Timestamp      bool    // Include timestamp in visualization
	NodeSize       float64 // Node radius in output units
	EdgeWidth      float64 // Default edge width
	FontSize       float64 // Font size for labels
	ShowLabels     bool    // Show node ids
	ShowEdgeLabels bool    // Show edge weights
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render creates a visualization of the snapshot using the provided options
	Render(snap *models.Snapshot, options *OutputOptions) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// Description returns a description of the renderer
	Description() string
}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:         format,
		Width:          800,
		Height:         800,
		Background:     "#f8f8f8",
		Timestamp:      false,
		NodeSize:       16.0,
		EdgeWidth:      1.5,
		FontSize:       10.0,
		ShowLabels:     true,
		ShowEdgeLabels: true,
	}
}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "ascii":
		return &ASCIIRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "dot":
		return &DOTRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Render draws snap with the renderer for options.Format. A renderer that panics is
// reported as an error; the snapshot is never modified.
func Render(snap *models.Snapshot, options *OutputOptions) (out []byte, err error) {
	renderer, err := GetRenderer(options.Format)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("render failed", "renderer", renderer.Name(), "panic", r)
			out, err = nil, fmt.Errorf("%s: %v", renderer.Name(), r)
		}
	}()
	return renderer.Render(snap, options)
}

// NodeColor returns the fill colour of node id: selected red, path endpoints and path
// members orange, visited green, otherwise sky blue.
func NodeColor(sel models.Selection, id models.NodeID) string {
	switch {
	case id == sel.SelectedNode:
		return ColorSelected
	case id == sel.StartNode || id == sel.EndNode || sel.OnPath(id):
		return ColorPath
	case sel.IsVisited(id):
		return ColorVisited
	default:
		return ColorNode
	}
}

// EdgeColor returns the stroke colour of the edge k: selected red, on the path orange.
func EdgeColor(sel models.Selection, k models.EdgeKey) string {
	switch {
	case k == sel.SelectedEdge:
		return ColorSelected
	case sel.PathUsesEdge(k):
		return ColorPath
	default:
		return ColorEdge
	}
}

// project maps a layout position to output coordinates, y pointing down.
func project(p r2.Vec, width, height float64) (float64, float64) {
	x := (p.X + Extent) / (2 * Extent) * width
	y := (Extent - p.Y) / (2 * Extent) * height
	return x, y
}

// Unproject is the inverse of the viewport projection, used to turn output
// coordinates back into layout positions.
func Unproject(x, y, width, height float64) r2.Vec {
	return r2.Vec{
		X: x/width*2*Extent - Extent,
		Y: Extent - y/height*2*Extent,
	}
}

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// Description returns a description of the renderer
func (r *SVGRenderer) Description() string {
	return "Renders graphs as Scalable Vector Graphics (SVG) for high-quality vector output"
}

// Render creates an SVG representation of the snapshot
func (r *SVGRenderer) Render(snap *models.Snapshot, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	sel := snap.Selection

	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%g" height="%g" viewBox="0 0 %g %g" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, options.Width, options.Height, options.Width, options.Height, options.Background)

	// Edges first so nodes are drawn on top
	for _, edge := range snap.Edges() {
		pa, okA := snap.Positions[edge.A]
		pb, okB := snap.Positions[edge.B]
		if !okA || !okB {
			continue
		}
		x1, y1 := project(pa, options.Width, options.Height)
		x2, y2 := project(pb, options.Width, options.Height)
		color := EdgeColor(sel, edge.Key())
		width := options.EdgeWidth
		if color != ColorEdge {
			width *= 2
		}
		fmt.Fprintf(&buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%g"/>
`, x1, y1, x2, y2, color, width)

		if options.ShowEdgeLabels {
			fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%g" fill="#333333" text-anchor="middle">%d</text>
`, (x1+x2)/2, (y1+y2)/2, options.FontSize, edge.Weight)
		}
	}

	for _, id := range snap.Nodes() {
		p, ok := snap.Positions[id]
		if !ok {
			continue
		}
		x, y := project(p, options.Width, options.Height)
		fmt.Fprintf(&buf, `<circle cx="%.2f" cy="%.2f" r="%g" fill="%s" stroke="rgba(0,0,0,0.3)" stroke-width="0.5"/>
`, x, y, options.NodeSize, NodeColor(sel, id))
		if options.ShowLabels {
			fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%g" fill="#000000" text-anchor="middle" dominant-baseline="central">%d</text>
`, x, y, options.FontSize, id)
		}
	}

	if options.Timestamp {
		fmt.Fprintf(&buf, `<text x="5" y="%g" font-family="sans-serif" font-size="8" fill="#808080">%s</text>
`, options.Height-5, time.Now().Format("2006-01-02 15:04:05"))
	}

	buf.WriteString(`</svg>`)
	return buf.Bytes(), nil
}

// ASCIIRenderer outputs ASCII art format
type ASCIIRenderer struct{}

// Name returns the name of the renderer
func (r *ASCIIRenderer) Name() string {
	return "ASCII Renderer"
}

// Description returns a description of the renderer
func (r *ASCIIRenderer) Description() string {
	return "Renders graphs as ASCII art for terminal or text-based output"
}

// Node glyphs by state, mirroring the colour scheme.
const (
	glyphNode     = 'O'
	glyphSelected = 'S'
	glyphPath     = 'P'
	glyphVisited  = 'V'
)

// Render creates an ASCII representation of the snapshot
func (r *ASCIIRenderer) Render(snap *models.Snapshot, options *OutputOptions) ([]byte, error) {
	// Scale down for ASCII, with aspect ratio adjustment
	width := max(int(options.Width/10), 40)
	height := max(int(options.Height/20), 20)

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	// Border
	for i := 0; i < width; i++ {
		grid[0][i] = '-'
		grid[height-1][i] = '-'
	}
	for i := 0; i < height; i++ {
		grid[i][0] = '|'
		grid[i][width-1] = '|'
	}
	grid[0][0] = '+'
	grid[0][width-1] = '+'
	grid[height-1][0] = '+'
	grid[height-1][width-1] = '+'

	cell := func(p r2.Vec) (int, int) {
		x, y := project(p, float64(width-2), float64(height-2))
		return clamp(int(x)+1, 1, width-2), clamp(int(y)+1, 1, height-2)
	}

	for _, edge := range snap.Edges() {
		pa, okA := snap.Positions[edge.A]
		pb, okB := snap.Positions[edge.B]
		if !okA || !okB {
			continue
		}
		x1, y1 := cell(pa)
		x2, y2 := cell(pb)
		mark := '.'
		if snap.Selection.PathUsesEdge(edge.Key()) {
			mark = '*'
		}
		drawLine(grid, x1, y1, x2, y2, mark)
	}

	sel := snap.Selection
	for _, id := range snap.Nodes() {
		p, ok := snap.Positions[id]
		if !ok {
			continue
		}
		x, y := cell(p)
		glyph := glyphNode
		switch NodeColor(sel, id) {
		case ColorSelected:
			glyph = glyphSelected
		case ColorPath:
			glyph = glyphPath
		case ColorVisited:
			glyph = glyphVisited
		}
		grid[y][x] = glyph

		if options.ShowLabels {
			label := fmt.Sprint(id)
			for i, c := range label {
				if x+1+i >= width-1 {
					break
				}
				grid[y][x+1+i] = c
			}
		}
	}

	var buf bytes.Buffer
	for _, row := range grid {
		buf.WriteString(string(row))
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "Nodes: %d | Edges: %d\n", snap.Order(), snap.Size())
	if path := sel.Path; len(path) > 0 {
		fmt.Fprintf(&buf, "Path: %s\n", joinIDs(path, " -> "))
	}
	return buf.Bytes(), nil
}

// JSONRenderer outputs JSON format
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// Description returns a description of the renderer
func (r *JSONRenderer) Description() string {
	return "Renders graphs as JSON with positions, weights and selection-derived colours"
}

// Render creates a JSON representation of the snapshot
func (r *JSONRenderer) Render(snap *models.Snapshot, options *OutputOptions) ([]byte, error) {
	return json.MarshalIndent(NewDocument(snap), "", "  ")
}

// Document is the JSON view of a snapshot.
type Document struct {
	Nodes     []DocumentNode   `json:"nodes"`
	Edges     []DocumentEdge   `json:"edges"`
	Selection models.Selection `json:"selection"`
}

type DocumentNode struct {
	ID    models.NodeID `json:"id"`
	X     float64       `json:"x"`
	Y     float64       `json:"y"`
	Color string        `json:"color"`
}

type DocumentEdge struct {
	A      models.NodeID `json:"a"`
	B      models.NodeID `json:"b"`
	Weight int           `json:"weight"`
	Color  string        `json:"color"`
}

// NewDocument converts a snapshot to its JSON view.
func NewDocument(snap *models.Snapshot) Document {
	sel := snap.Selection
	doc := Document{
		Nodes:     make([]DocumentNode, 0, snap.Order()),
		Edges:     make([]DocumentEdge, 0, snap.Size()),
		Selection: sel,
	}
	for _, id := range snap.Nodes() {
		p := snap.Positions[id]
		doc.Nodes = append(doc.Nodes, DocumentNode{ID: id, X: p.X, Y: p.Y, Color: NodeColor(sel, id)})
	}
	for _, e := range snap.Edges() {
		doc.Edges = append(doc.Edges, DocumentEdge{A: e.A, B: e.B, Weight: e.Weight, Color: EdgeColor(sel, e.Key())})
	}
	return doc
}

// DOTRenderer outputs Graphviz DOT format
type DOTRenderer struct{}

// Name returns the name of the renderer
func (r *DOTRenderer) Name() string {
	return "DOT Renderer"
}

// Description returns a description of the renderer
func (r *DOTRenderer) Description() string {
	return "Renders graphs in Graphviz DOT format for use with Graphviz tools"
}

// Render creates an undirected DOT graph with pinned positions
func (r *DOTRenderer) Render(snap *models.Snapshot, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	sel := snap.Selection

	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  graph [bgcolor=\"%s\"];\n", options.Background)
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fontname=\"Arial\", fontsize=%g];\n", options.FontSize)
	fmt.Fprintf(&buf, "  edge [fontname=\"Arial\", fontsize=%g];\n", options.FontSize*0.8)

	for _, id := range snap.Nodes() {
		p := snap.Positions[id]
		fmt.Fprintf(&buf, "  %d [fillcolor=\"%s\", pos=\"%.3f,%.3f!\"];\n", id, NodeColor(sel, id), p.X, p.Y)
	}
	for _, e := range snap.Edges() {
		fmt.Fprintf(&buf, "  %d -- %d [label=\"%d\", weight=%d, color=\"%s\"];\n",
			e.A, e.B, e.Weight, e.Weight, EdgeColor(sel, e.Key()))
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func clamp(val, lo, hi int) int {
	return int(math.Max(float64(lo), math.Min(float64(hi), float64(val))))
}

func joinIDs(ids []models.NodeID, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, sep)
}

// drawLine plots a Bresenham line with mark, leaving node glyphs and the border intact.
func drawLine(grid [][]rune, x1, y1, x2, y2 int, mark rune) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 >= x2 {
		sx = -1
	}
	sy := 1
	if y1 >= y2 {
		sy = -1
	}
	err := dx + dy

	for {
		if y1 > 0 && y1 < len(grid)-1 && x1 > 0 && x1 < len(grid[0])-1 {
			if c := grid[y1][x1]; c == ' ' || c == '.' {
				grid[y1][x1] = mark
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 >= dy {
			if x1 == x2 {
				break
			}
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			if y1 == y2 {
				break
			}
			err += dx
			y1 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
