package extract

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
)

// DefaultTolerance is the per-axis distance below which a segment endpoint
// matches a station.
const DefaultTolerance = 1e-4

// Transform maps a source coordinate to a graph position. bounds is the
// bounding box of all station points in the collection.
type Transform func(p orb.Point, bounds orb.Bound) orb.Point

// Identity returns p unchanged.
func Identity(p orb.Point, _ orb.Bound) orb.Point { return p }

// Palette maps line IDs to display colors.
type Palette map[string]string

// DefaultPalette holds the colors of the Hamburg U-Bahn lines.
var DefaultPalette = Palette{
	"U1": "#55a822",
	"U2": "#ff3300",
	"U3": "#019377",
	"U4": "#ffd900",
	"U5": "#672f17",
	"U6": "#6f4e9c",
	"U7": "#3690c0",
	"U8": "#0a3c85",
	"U9": "#ff7300",
}

// Color returns the color for a line, or fallback when the palette has none.
func (p Palette) Color(line, fallback string) string {
	if c, ok := p[line]; ok {
		return c
	}
	return fallback
}

type options struct {
	transform Transform
	palette   Palette
	tolerance float64
	logger    *log.Logger
}

// Option configures an [Extractor].
type Option func(*options)

// WithTransform sets the coordinate transform. A nil transform is ignored.
func WithTransform(t Transform) Option {
	return func(o *options) {
		if t != nil {
			o.transform = t
		}
	}
}

// WithPalette sets the line color palette.
func WithPalette(p Palette) Option {
	return func(o *options) { o.palette = p }
}

// WithTolerance sets the endpoint matching tolerance. Non-positive values are ignored.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		if tol > 0 {
			o.tolerance = tol
		}
	}
}

// WithLogger sets the logger used for debug output about skipped features.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		transform: Identity,
		palette:   DefaultPalette,
		tolerance: DefaultTolerance,
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
