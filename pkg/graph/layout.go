package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Layout - Solved Schematic
// =============================================================================

// Layout is a schematic produced from a solved model. It embeds the network
// graph with node positions replaced by solved coordinates, so it serializes
// in the same node-link shape as [Graph] plus a few solver fields.
type Layout struct {
	Graph

	// Objective is the objective value reported by the solver, if any.
	Objective *float64 `json:"objective,omitempty"`

	// Unplaced lists nodes the solution assigned no coordinates to.
	// They keep their input positions.
	Unplaced []string `json:"unplaced,omitempty"`
}

// Position returns the solved position of a node.
func (l *Layout) Position(id string) (Position, bool) {
	n, ok := l.Node(id)
	return n.Metadata, ok
}

// MarshalLayout serializes a layout to indented JSON.
func MarshalLayout(l *Layout) ([]byte, error) {
	normalized(&l.Graph)
	var buf bytes.Buffer
	if err := writeJSON(l, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteLayout writes a layout as JSON to an io.Writer.
func WriteLayout(l *Layout, w io.Writer) error {
	normalized(&l.Graph)
	return writeJSON(l, w)
}

// WriteLayoutFile writes a layout to a JSON file.
func WriteLayoutFile(l *Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteLayout(l, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// UnmarshalLayout deserializes a layout from JSON.
func UnmarshalLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return &l, nil
}
