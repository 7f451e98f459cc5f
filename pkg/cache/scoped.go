package cache

// ScopedKeyer wraps a Keyer with a prefix. A configured cache namespace keeps
// entries of different deployments apart in a shared backend:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "feed-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// FeedKey generates a prefixed feed key.
func (k *ScopedKeyer) FeedKey(url string) string {
	return k.prefix + k.inner.FeedKey(url)
}

// MapKey generates a prefixed map key.
func (k *ScopedKeyer) MapKey(feedHash string, opts MapKeyOpts) string {
	return k.prefix + k.inner.MapKey(feedHash, opts)
}
