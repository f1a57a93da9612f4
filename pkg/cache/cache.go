// Package cache provides the caching layer shared by the PyPI client and
// the environment inventory scanner. Backends are pluggable: a file cache
// for normal CLI use, Redis for shared setups, and a null cache when
// caching is disabled.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Cache is a byte-oriented cache with TTL support.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Purge removes every entry and reports how many were removed.
	Purge(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the concerns pyven caches.
type Keyer interface {
	// PackageKey identifies index metadata for one package release.
	// version may be "" for the package's latest-release document.
	PackageKey(index, name, version string) string

	// VersionsKey identifies the list of releases an index knows for a
	// package.
	VersionsKey(index, name string) string

	// InventoryKey identifies the installed-package snapshot of one
	// site-packages directory.
	InventoryKey(sitePackages string) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// PackageKey generates a key for one package release document.
func (k *DefaultKeyer) PackageKey(index, name, version string) string {
	return hashKey("pypi:pkg", index, name, version)
}

// VersionsKey generates a key for a package's release list.
func (k *DefaultKeyer) VersionsKey(index, name string) string {
	return hashKey("pypi:versions", index, name)
}

// InventoryKey generates a key for a site-packages snapshot.
func (k *DefaultKeyer) InventoryKey(sitePackages string) string {
	return hashKey("inventory", sitePackages)
}

// DefaultDir returns the default on-disk cache directory
// (~/.cache/pyven on Linux, the platform equivalent elsewhere).
func DefaultDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pyven-cache")
	}
	return filepath.Join(base, "pyven")
}
