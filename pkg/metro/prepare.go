package metro

import (
	"math"

	"github.com/matzehuels/transitmap/pkg/errors"
	"github.com/matzehuels/transitmap/pkg/graph"
)

// Direction is one of the eight octilinear directions.
type Direction int

const (
	West Direction = iota
	SouthWest
	South
	SouthEast
	East
	NorthEast
	North
	NorthWest
)

var directionNames = [8]string{"W", "SW", "S", "SE", "E", "NE", "N", "NW"}

func (d Direction) String() string {
	return directionNames[mod8(int(d))]
}

// Opposite returns the direction rotated by 180 degrees.
func (d Direction) Opposite() Direction {
	return mod8(int(d) + 4)
}

// Angle returns the bearing of (dx, dy) on the direction scale: 0 and 8 are
// west, 2 south, 4 east and 6 north.
func Angle(dx, dy float64) float64 {
	return 4 * (math.Atan2(dy, dx)/math.Pi + 1)
}

// ClosestDirections returns the three directions nearest to angle, nearest
// first. Ties go to the counterclockwise-lower direction.
func ClosestDirections(angle float64) [3]Direction {
	// -1 and 9 wrap around so angles near west find both neighbours.
	candidates := []int{-1, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	var out [3]Direction
	for n := range out {
		best := 0
		for i, c := range candidates {
			if math.Abs(float64(c)-angle) < math.Abs(float64(candidates[best])-angle) {
				best = i
			}
		}
		out[n] = mod8(candidates[best])
		candidates = append(candidates[:best], candidates[best+1:]...)
	}
	return out
}

func mod8(n int) Direction {
	return Direction((n%8 + 8) % 8)
}

// PreparedEdge carries the preferred directions of one edge, as seen from
// each endpoint.
type PreparedEdge struct {
	SourceDirections [3]Direction
	TargetDirections [3]Direction
}

// Main returns the direction closest to the edge's geographic bearing.
func (e PreparedEdge) Main() Direction { return e.SourceDirections[0] }

// Secondary returns the second closest direction.
func (e PreparedEdge) Secondary() Direction { return e.SourceDirections[1] }

// Prepared is a validated graph together with per-edge direction data.
// Edges[i] describes Graph.Edges[i].
type Prepared struct {
	Graph *graph.Graph
	Edges []PreparedEdge

	// Loops counts self-loop edges removed during normalization.
	Loops int

	index  map[string]int
	degree map[string]int
}

// NodeIndex returns the model index of a node, or -1.
func (p *Prepared) NodeIndex(id string) int {
	if i, ok := p.index[id]; ok {
		return i
	}
	return -1
}

// Degree returns the number of edges touching a node.
func (p *Prepared) Degree(id string) int {
	return p.degree[id]
}

// DefaultNormalizer validates the graph, drops self-loops and assigns
// closest directions to every edge.
type DefaultNormalizer struct{}

// Normalize prepares a copy of g.
func (DefaultNormalizer) Normalize(g *graph.Graph) (*Prepared, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "graph is nil")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if len(g.Nodes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "graph has no nodes")
	}

	out := g.Clone()
	p := &Prepared{Graph: out}

	edges := out.Edges[:0]
	for _, e := range out.Edges {
		if e.Source == e.Target {
			p.Loops++
			continue
		}
		edges = append(edges, e)
	}
	out.Edges = edges

	p.index = out.NodeIndices()
	p.degree = make(map[string]int, len(out.Nodes))
	p.Edges = make([]PreparedEdge, len(out.Edges))
	for i, e := range out.Edges {
		p.degree[e.Source]++
		p.degree[e.Target]++

		src := out.Nodes[p.index[e.Source]].Metadata
		dst := out.Nodes[p.index[e.Target]].Metadata
		dirs := ClosestDirections(Angle(dst.X-src.X, dst.Y-src.Y))
		p.Edges[i] = PreparedEdge{
			SourceDirections: dirs,
			TargetDirections: [3]Direction{dirs[0].Opposite(), dirs[1].Opposite(), dirs[2].Opposite()},
		}
	}
	return p, nil
}
