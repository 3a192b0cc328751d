package cache

// ScopedKeyer wraps a Keyer with a prefix so several hosts can share one
// backend without colliding, for example one Redis instance per team:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "team:render:")
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

// ResultKey generates a prefixed evaluation result key.
func (k *ScopedKeyer) ResultKey(docHash string, targets []string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(docHash, targets, opts)
}

// DocumentKey generates a prefixed document key.
func (k *ScopedKeyer) DocumentKey(graphID string) string {
	return k.prefix + k.inner.DocumentKey(graphID)
}
