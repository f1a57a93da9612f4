package cache

// ScopedKeyer wraps a Keyer with a prefix so separate contexts get
// separate cache namespaces. Package indexes are the main use: metadata
// cached from one index URL must never answer lookups against another.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "index:company-mirror:")
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

// PackageKey generates a prefixed key for one package release document.
func (k *ScopedKeyer) PackageKey(index, name, version string) string {
	return k.prefix + k.inner.PackageKey(index, name, version)
}

// VersionsKey generates a prefixed key for a package's release list.
func (k *ScopedKeyer) VersionsKey(index, name string) string {
	return k.prefix + k.inner.VersionsKey(index, name)
}

// InventoryKey generates a prefixed key for a site-packages snapshot.
func (k *ScopedKeyer) InventoryKey(sitePackages string) string {
	return k.prefix + k.inner.InventoryKey(sitePackages)
}
