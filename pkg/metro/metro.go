package metro

import (
	"io"

	"github.com/matzehuels/transitmap/pkg/graph"
	"github.com/matzehuels/transitmap/pkg/solution"
)

// Normalizer validates a network graph and prepares it for model generation.
// Implementations must not modify g.
type Normalizer interface {
	Normalize(g *graph.Graph) (*Prepared, error)
}

// Generator writes the optimization model for a prepared graph.
type Generator interface {
	Generate(w io.Writer, p *Prepared, s Settings) error
}

// Reconstructor maps solved variable values back onto the prepared graph.
type Reconstructor interface {
	Reconstruct(p *Prepared, v solution.Values, s Settings) (*graph.Layout, error)
}
