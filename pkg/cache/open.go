package cache

import (
	"context"
	"strings"

	"github.com/matzehuels/transitmap/pkg/errors"
)

// Open returns the cache backend for url. Redis URLs (redis://, rediss://)
// and MongoDB URIs (mongodb://, mongodb+srv://) select the remote backends;
// an empty url selects a FileCache in dir.
func Open(ctx context.Context, url, dir string) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch {
	case url == "":
		c, err = NewFileCache(dir)
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		c, err = NewRedisCache(ctx, url)
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		c, err = NewMongoCache(ctx, url, MongoOptions{})
	default:
		scheme, _, _ := strings.Cut(url, "://")
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported cache backend %q", scheme)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
