package cache

// ScopedKeyer wraps a Keyer with a prefix, so several deployments can share
// one Redis or MongoDB backend without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "berlin:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SolutionKey generates a prefixed solution key.
func (k *ScopedKeyer) SolutionKey(modelHash string, opts SolutionKeyOpts) string {
	return k.prefix + k.inner.SolutionKey(modelHash, opts)
}
