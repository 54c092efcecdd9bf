package metro

import (
	"math"

	"github.com/matzehuels/transitmap/pkg/errors"
	"github.com/matzehuels/transitmap/pkg/graph"
	"github.com/matzehuels/transitmap/pkg/solution"
)

// CoordinateReconstructor places every node at its solved coordinates,
// shifted back by the model offset.
type CoordinateReconstructor struct{}

// Reconstruct builds a layout from solved values. Nodes whose coordinates
// are missing or not finite keep their input position and are listed in
// Layout.Unplaced. A solution that places no node at all is an error.
func (CoordinateReconstructor) Reconstruct(p *Prepared, v solution.Values, s Settings) (*graph.Layout, error) {
	if p == nil || p.Graph == nil {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "prepared graph is nil")
	}
	if len(v) == 0 {
		return nil, errors.New(errors.ErrCodeNoSolution, "solver reported no variable values")
	}

	out := p.Graph.Clone()
	var unplaced []string
	for i := range out.Nodes {
		x, okX := v.Get(VarX(i))
		y, okY := v.Get(VarY(i))
		if !okX || !okY || !finite(x) || !finite(y) {
			unplaced = append(unplaced, out.Nodes[i].ID)
			continue
		}
		out.Nodes[i].Metadata = graph.Position{X: x - s.Offset, Y: y - s.Offset}
	}

	if len(out.Nodes) > 0 && len(unplaced) == len(out.Nodes) {
		return nil, errors.New(errors.ErrCodeNoSolution, "solution assigns no node coordinates")
	}
	return &graph.Layout{Graph: *out, Unplaced: unplaced}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
