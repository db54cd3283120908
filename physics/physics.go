// Package physics provides the layout algorithms that position graph nodes.
// Layouts are deterministic for a given graph and seed and are normalised into the
// [-1, 1] square the editor uses for hit-testing.
package physics

import (
	"fmt"
	"math"
	"strings"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/graphedit/models"
)

// LayoutAlgorithm defines an interface for layout algorithms
type LayoutAlgorithm interface {
	Initialize(g models.View, seed int64)
	Step() bool // Returns true if stable, false if needs more steps
	Positions() models.Layout
	GetName() string
}

// ForceDirectedLayout implements a Fruchterman-Reingold force-directed layout
type ForceDirectedLayout struct {
	nodes           []models.NodeID
	nodePositions   map[models.NodeID]r2.Vec
	forces          map[models.NodeID]r2.Vec
	edges           []models.Edge
	temperature     float64
	cooling         float64
	k               float64 // optimal distance
	iterations      int
	maxIterations   int
	stable          bool
	energyThreshold float64
	gravity         float64
}

// NewForceDirectedLayout creates a new force-directed layout
func NewForceDirectedLayout() *ForceDirectedLayout {
	return &ForceDirectedLayout{
		maxIterations:   50,
		energyThreshold: 1e-4,
		gravity:         0.05,
	}
}

// GetName returns the name of the layout algorithm
func (fd *ForceDirectedLayout) GetName() string {
	return "Force-Directed Layout"
}

// Initialize seeds node positions and caches the edge list.
func (fd *ForceDirectedLayout) Initialize(g models.View, seed int64) {
	fd.nodes = g.Nodes()
	fd.edges = g.Edges()
	fd.nodePositions = initialPositions(fd.nodes, seed)
	fd.forces = make(map[models.NodeID]r2.Vec, len(fd.nodes))
	fd.iterations = 0
	fd.stable = len(fd.nodes) < 2

	// Optimal distance for a unit-area canvas
	fd.k = 1 / math.Sqrt(math.Max(1, float64(len(fd.nodes))))
	fd.temperature = 0.1
	fd.cooling = fd.temperature / float64(fd.maxIterations+1)
}

// Step performs one iteration of the layout algorithm
func (fd *ForceDirectedLayout) Step() bool {
	if fd.iterations >= fd.maxIterations || fd.stable {
		return true
	}

	for _, id := range fd.nodes {
		fd.forces[id] = r2.Vec{}
	}

	// Repulsion between every pair: F = k^2 / d
	for i, a := range fd.nodes {
		pa := fd.nodePositions[a]
		for _, b := range fd.nodes[i+1:] {
			delta := r2.Sub(pa, fd.nodePositions[b])
			d := math.Max(0.01, r2.Norm(delta))
			push := r2.Scale(fd.k*fd.k/(d*d), delta)
			fd.forces[a] = r2.Add(fd.forces[a], push)
			fd.forces[b] = r2.Sub(fd.forces[b], push)
		}
		// Gravity towards the origin keeps disconnected components close
		fd.forces[a] = r2.Sub(fd.forces[a], r2.Scale(fd.gravity, pa))
	}

	// Attraction along edges: F = d^2 / k
	for _, e := range fd.edges {
		delta := r2.Sub(fd.nodePositions[e.B], fd.nodePositions[e.A])
		d := math.Max(0.01, r2.Norm(delta))
		pull := r2.Scale(d/fd.k, delta)
		fd.forces[e.A] = r2.Add(fd.forces[e.A], pull)
		fd.forces[e.B] = r2.Sub(fd.forces[e.B], pull)
	}

	// Displacement limited by temperature (simulated annealing)
	totalEnergy := 0.0
	for _, id := range fd.nodes {
		f := fd.forces[id]
		magnitude := r2.Norm(f)
		if magnitude > 0 {
			step := math.Min(magnitude, fd.temperature)
			fd.nodePositions[id] = r2.Add(fd.nodePositions[id], r2.Scale(step/magnitude, f))
			totalEnergy += step
		}
	}

	fd.temperature = math.Max(0, fd.temperature-fd.cooling)
	fd.stable = totalEnergy/float64(len(fd.nodes)) < fd.energyThreshold

	fd.iterations++
	return fd.stable
}

// Positions returns the current node positions rescaled into [-1, 1].
func (fd *ForceDirectedLayout) Positions() models.Layout {
	return rescale(fd.nodes, fd.nodePositions)
}

// CircularLayout places nodes evenly on the unit circle in iteration order.
type CircularLayout struct {
	nodePositions models.Layout
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout() *CircularLayout {
	return &CircularLayout{nodePositions: models.Layout{}}
}

// GetName returns the name of the layout algorithm
func (cl *CircularLayout) GetName() string {
	return "Circular Layout"
}

// Initialize arranges the nodes on a circle. The seed only rotates the starting angle.
func (cl *CircularLayout) Initialize(g models.View, seed int64) {
	nodes := g.Nodes()
	cl.nodePositions = make(models.Layout, len(nodes))
	if len(nodes) == 1 {
		cl.nodePositions[nodes[0]] = r2.Vec{}
		return
	}
	offset := float64(seed%360) * math.Pi / 180
	for i, id := range nodes {
		angle := offset + 2*math.Pi*float64(i)/float64(len(nodes))
		cl.nodePositions[id] = r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
	}
}

// Step is a no-op; the circular layout is final after Initialize.
func (cl *CircularLayout) Step() bool { return true }

// Positions returns the node positions.
func (cl *CircularLayout) Positions() models.Layout {
	return cl.nodePositions.Clone()
}

// GetLayoutAlgorithm returns a layout algorithm by name
func GetLayoutAlgorithm(name string) (LayoutAlgorithm, error) {
	switch strings.ToLower(name) {
	case "", "force", "spring":
		return NewForceDirectedLayout(), nil
	case "circle", "circular":
		return NewCircularLayout(), nil
	default:
		return nil, fmt.Errorf("unknown layout algorithm: %s", name)
	}
}

// Layouter adapts a named LayoutAlgorithm to models.Layouter.
type Layouter struct {
	Algorithm string
}

// NewLayouter validates the algorithm name and returns a models.Layouter.
func NewLayouter(algorithm string) (*Layouter, error) {
	if _, err := GetLayoutAlgorithm(algorithm); err != nil {
		return nil, err
	}
	return &Layouter{Algorithm: algorithm}, nil
}

// Layout runs the algorithm to stability and returns the final positions.
func (l *Layouter) Layout(g models.View, seed int64) models.Layout {
	algo, err := GetLayoutAlgorithm(l.Algorithm)
	if err != nil {
		algo = NewForceDirectedLayout()
	}
	algo.Initialize(g, seed)
	for !algo.Step() {
	}
	return algo.Positions()
}

// initialPositions spreads nodes on a sunflower spiral and perturbs them with
// simplex noise so that the same seed always yields the same starting layout.
func initialPositions(nodes []models.NodeID, seed int64) map[models.NodeID]r2.Vec {
	noise := opensimplex.New(seed)
	golden := math.Pi * (3 - math.Sqrt(5))
	out := make(map[models.NodeID]r2.Vec, len(nodes))
	for i, id := range nodes {
		r := math.Sqrt((float64(i) + 0.5) / float64(len(nodes)))
		theta := float64(i) * golden
		jitter := r2.Vec{
			X: noise.Eval2(float64(id)*0.37, 0.5),
			Y: noise.Eval2(0.5, float64(id)*0.37+17),
		}
		base := r2.Vec{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
		out[id] = r2.Add(base, r2.Scale(0.1, jitter))
	}
	return out
}

// rescale centres the positions on their mean and scales them so the largest
// coordinate magnitude is 1.
func rescale(nodes []models.NodeID, pos map[models.NodeID]r2.Vec) models.Layout {
	out := make(models.Layout, len(nodes))
	if len(nodes) == 0 {
		return out
	}
	var mean r2.Vec
	for _, id := range nodes {
		mean = r2.Add(mean, pos[id])
	}
	mean = r2.Scale(1/float64(len(nodes)), mean)

	limit := 0.0
	for _, id := range nodes {
		c := r2.Sub(pos[id], mean)
		limit = math.Max(limit, math.Max(math.Abs(c.X), math.Abs(c.Y)))
	}
	for _, id := range nodes {
		c := r2.Sub(pos[id], mean)
		if limit > 0 {
			c = r2.Scale(1/limit, c)
		}
		out[id] = c
	}
	return out
}
