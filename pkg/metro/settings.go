package metro

import (
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/transitmap/pkg/errors"
)

// Settings tunes the layout model. Coordinates in the model are shifted by
// Offset so that every variable stays positive.
type Settings struct {
	Offset        float64 `toml:"offset" json:"offset"`
	MaxWidth      float64 `toml:"max_width" json:"max_width"`
	MaxHeight     float64 `toml:"max_height" json:"max_height"`
	MinEdgeLength float64 `toml:"min_edge_length" json:"min_edge_length"`
	MaxEdgeLength float64 `toml:"max_edge_length" json:"max_edge_length"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		Offset:        10000,
		MaxWidth:      300,
		MaxHeight:     300,
		MinEdgeLength: 1,
		MaxEdgeLength: 8,
	}
}

// Validate reports the first setting that cannot produce a feasible model.
func (s Settings) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"offset", s.Offset},
		{"max_width", s.MaxWidth},
		{"max_height", s.MaxHeight},
		{"min_edge_length", s.MinEdgeLength},
		{"max_edge_length", s.MaxEdgeLength},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return errors.New(errors.ErrCodeInvalidSettings, "%s must be finite", f.name)
		}
		if f.name != "offset" && f.v <= 0 {
			return errors.New(errors.ErrCodeInvalidSettings, "%s must be positive, got %g", f.name, f.v)
		}
	}
	if s.MinEdgeLength > s.MaxEdgeLength {
		return errors.New(errors.ErrCodeInvalidSettings,
			"min_edge_length %g exceeds max_edge_length %g", s.MinEdgeLength, s.MaxEdgeLength)
	}
	return nil
}

// DecodeSettings reads TOML settings from r. Keys not present keep their
// default values; unknown keys are rejected.
func DecodeSettings(r io.Reader) (Settings, error) {
	s := DefaultSettings()
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeInvalidSettings, err, "decode settings")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Settings{}, errors.New(errors.ErrCodeInvalidSettings, "unknown settings: %s", strings.Join(keys, ", "))
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettingsFile reads TOML settings from path.
func LoadSettingsFile(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeIO, err, "open settings %s", path)
	}
	defer f.Close()
	return DecodeSettings(f)
}

// EncodeSettings writes s as TOML.
func EncodeSettings(w io.Writer, s Settings) error {
	return toml.NewEncoder(w).Encode(s)
}
