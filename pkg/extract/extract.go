package extract

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/transitmap/pkg/errors"
	"github.com/matzehuels/transitmap/pkg/graph"
)

// Stats counts what the extractor did with the input features.
type Stats struct {
	Points      int // Point features seen
	LineStrings int // LineString features seen
	Undecodable int // features the GeoJSON decoder rejected
	Ignored     int // features of other geometry types, or short line strings
	Anonymous   int // points without station_id or id
	Duplicates  int // points shadowed by an earlier station with the same ID
	Dropped     int // segments with an endpoint matching no station
	Merged      int // segments folded into an existing edge
}

// Extractor turns feature collections into graphs. It holds only
// configuration and is safe for concurrent use.
type Extractor struct {
	opts options
}

// New creates an extractor with the given options.
func New(opts ...Option) *Extractor {
	return &Extractor{opts: newOptions(opts)}
}

// Extract builds a graph from fc and logs what it skipped at debug level.
// Use [Extractor.Extract] to get the [Stats] themselves.
func Extract(fc *geojson.FeatureCollection, opts ...Option) *graph.Graph {
	x := New(opts...)
	g, stats := x.Extract(fc)
	x.logStats(g, stats)
	return g
}

// ExtractReader decodes a GeoJSON FeatureCollection from r and extracts it.
// Only input that is not a JSON object with a features array is an error;
// individual features that fail to decode are skipped.
func ExtractReader(r io.Reader, opts ...Option) (*graph.Graph, error) {
	x := New(opts...)
	fc, undecodable, err := Decode(r)
	if err != nil {
		return nil, err
	}
	g, stats := x.Extract(fc)
	stats.Undecodable = undecodable
	x.logStats(g, stats)
	return g, nil
}

// ExtractFile reads and extracts the GeoJSON file at path.
func ExtractFile(path string, opts ...Option) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()
	return ExtractReader(f, opts...)
}

// Decode reads a FeatureCollection, decoding each feature on its own so one
// malformed geometry does not discard the whole network. It returns the
// number of features that could not be decoded.
func Decode(r io.Reader) (*geojson.FeatureCollection, int, error) {
	var raw struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode feature collection")
	}

	fc := geojson.NewFeatureCollection()
	skipped := 0
	for _, data := range raw.Features {
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			skipped++
			continue
		}
		fc.Append(f)
	}
	return fc, skipped, nil
}

// Extract builds a graph from fc and reports what it skipped.
func (x *Extractor) Extract(fc *geojson.FeatureCollection) (*graph.Graph, Stats) {
	b := &builder{
		opts:  x.opts,
		lines: newRegistry(),
		seen:  make(map[string]bool),
		pairs: make(map[graph.Pair]bool),
	}
	if fc == nil {
		return b.graph(), b.stats
	}

	bounds, ok := stationBounds(fc.Features)
	if !ok {
		bounds = orb.Bound{}
	}

	for _, f := range fc.Features {
		if p, ok := f.Geometry.(orb.Point); ok {
			b.stats.Points++
			b.addStation(f, p, bounds)
		}
	}

	for _, f := range fc.Features {
		switch geom := f.Geometry.(type) {
		case orb.Point:
		case orb.LineString:
			b.stats.LineStrings++
			if len(geom) < 2 {
				b.stats.Ignored++
				continue
			}
			b.addSegment(f, geom, bounds)
		default:
			b.stats.Ignored++
		}
	}

	return b.graph(), b.stats
}

func (x *Extractor) logStats(g *graph.Graph, s Stats) {
	x.opts.logger.Debug("extracted network",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"lines", len(g.Lines),
		"dropped", s.Dropped,
		"merged", s.Merged,
		"duplicates", s.Duplicates,
		"ignored", s.Ignored+s.Undecodable+s.Anonymous)
}

// =============================================================================
// Builder
// =============================================================================

type builder struct {
	opts  options
	nodes []graph.Node
	edges []graph.Edge
	lines *registry
	seen  map[string]bool
	pairs map[graph.Pair]bool
	stats Stats
}

func (b *builder) addStation(f *geojson.Feature, p orb.Point, bounds orb.Bound) {
	id := firstNonEmpty(stringProp(f.Properties, "station_id"), stringProp(f.Properties, "id"))
	if id == "" {
		b.stats.Anonymous++
		b.opts.logger.Debug("skipping station without id", "coordinates", p)
		return
	}
	if b.seen[id] {
		b.stats.Duplicates++
		b.opts.logger.Debug("station id already used, keeping first", "id", id)
		return
	}
	b.seen[id] = true

	pos := b.opts.transform(p, bounds)
	b.nodes = append(b.nodes, graph.Node{
		ID:       id,
		Label:    firstNonEmpty(stringProp(f.Properties, "station_label"), stringProp(f.Properties, "id"), id),
		Metadata: graph.Position{X: pos.X(), Y: pos.Y()},
	})
}

func (b *builder) addSegment(f *geojson.Feature, ls orb.LineString, bounds orb.Bound) {
	src := b.match(b.opts.transform(ls[0], bounds))
	dst := b.match(b.opts.transform(ls[len(ls)-1], bounds))
	if src == nil || dst == nil {
		b.stats.Dropped++
		b.opts.logger.Debug("dropping segment with unmatched endpoint",
			"start", ls[0], "end", ls[len(ls)-1])
		return
	}

	key := graph.PairOf(src.ID, dst.ID)
	if !b.pairs[key] {
		b.pairs[key] = true
		b.edges = append(b.edges, graph.Edge{
			Source:   src.ID,
			Target:   dst.ID,
			Relation: graph.RelationSubway,
			Metadata: graph.EdgeMetadata{
				Time:  travelTime(f.Properties),
				Lines: b.segmentLines(f.Properties),
			},
		})
		return
	}

	b.stats.Merged++
	for i := range b.edges {
		if !b.edges[i].Connects(src.ID, dst.ID) {
			continue
		}
		if line := stringProp(f.Properties, "line"); line != "" {
			b.edges[i].AddLine(line)
			b.lines.add(line)
		}
		return
	}
}

// match returns the first station within tolerance of p on both axes.
func (b *builder) match(p orb.Point) *graph.Node {
	tol := b.opts.tolerance
	for i := range b.nodes {
		pos := b.nodes[i].Metadata
		if math.Abs(pos.X-p.X()) < tol && math.Abs(pos.Y-p.Y()) < tol {
			return &b.nodes[i]
		}
	}
	return nil
}

// segmentLines seeds an edge's lines from the line property, replaced by the
// lines array when one is present. Every name is registered, including a
// singular line overridden by the array.
func (b *builder) segmentLines(props geojson.Properties) []string {
	lines := []string{}
	if line := stringProp(props, "line"); line != "" {
		lines = append(lines, line)
		b.lines.add(line)
	}

	arr, ok := props["lines"].([]any)
	if !ok {
		return lines
	}
	lines = make([]string, 0, len(arr))
	for _, v := range arr {
		name := scalarString(v)
		if name == "" {
			continue
		}
		b.lines.add(name)
		if !slices.Contains(lines, name) {
			lines = append(lines, name)
		}
	}
	return lines
}

func (b *builder) graph() *graph.Graph {
	g := &graph.Graph{
		Nodes: b.nodes,
		Edges: b.edges,
		Lines: make([]graph.Line, 0, len(b.lines.order)),
	}
	if g.Nodes == nil {
		g.Nodes = []graph.Node{}
	}
	if g.Edges == nil {
		g.Edges = []graph.Edge{}
	}
	for _, id := range b.lines.order {
		g.Lines = append(g.Lines, graph.Line{
			ID:    id,
			Color: b.opts.palette.Color(id, graph.DefaultLineColor),
		})
	}
	return g
}

// =============================================================================
// Helpers
// =============================================================================

// registry is an insertion-ordered set of line names.
type registry struct {
	order []string
	known map[string]bool
}

func newRegistry() *registry {
	return &registry{known: make(map[string]bool)}
}

func (r *registry) add(name string) {
	if r.known[name] {
		return
	}
	r.known[name] = true
	r.order = append(r.order, name)
}

func stationBounds(features []*geojson.Feature) (orb.Bound, bool) {
	var (
		bound orb.Bound
		found bool
	)
	for _, f := range features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		if !found {
			bound, found = p.Bound(), true
			continue
		}
		bound = bound.Extend(p)
	}
	return bound, found
}

// travelTime reads the time property. Missing, non-numeric and non-positive
// values fall back to the default.
func travelTime(props geojson.Properties) float64 {
	var t float64
	switch v := props["time"].(type) {
	case float64:
		t = v
	case string:
		t, _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	if t > 0 && !math.IsInf(t, 0) {
		return t
	}
	return graph.DefaultTime
}

func stringProp(props geojson.Properties, key string) string {
	return scalarString(props[key])
}

// scalarString renders string and numeric JSON values as text. Numbers
// appear as IDs in many exports, e.g. "station_id": 42.
func scalarString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
