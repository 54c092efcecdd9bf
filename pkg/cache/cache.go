// Package cache stores solver results keyed by the model they solve.
//
// Solving a layout model can take minutes, while the model text for a given
// network and settings never changes. The pipeline hashes the model and
// looks the solution up here before starting a solver.
//
// Backends:
//
//   - [FileCache] for local CLI use, one JSON file per entry
//   - [RedisCache] and [MongoCache] for sharing results between machines
//   - [NullCache] when caching is disabled
//
// Keys are produced by a [Keyer] so that callers never build key strings by
// hand. [ScopedKeyer] prefixes every key to separate namespaces in a shared
// backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// TTLSolution is how long solved models are kept.
const TTLSolution = 30 * 24 * time.Hour

// Keyer generates cache keys.
type Keyer interface {
	// SolutionKey returns the key of the solver output for a model.
	SolutionKey(modelHash string, opts SolutionKeyOpts) string
}

// SolutionKeyOpts holds the inputs besides the model that affect a solution.
type SolutionKeyOpts struct {
	Solver string `json:"solver"`
}

// DefaultKeyer hashes key inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SolutionKey returns "solution:" followed by a hash of the model hash and opts.
func (DefaultKeyer) SolutionKey(modelHash string, opts SolutionKeyOpts) string {
	return hashKey("solution", modelHash, opts)
}
