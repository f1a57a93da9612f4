// Package inventory answers "what is actually installed" for a virtual
// environment by scanning site-packages distribution metadata. Snapshots
// are cached; every mutating action must invalidate before the next read.
package inventory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pyven-dev/pyven/pkg/cache"
	"github.com/pyven-dev/pyven/pkg/errors"
	"github.com/pyven-dev/pyven/pkg/pep440"
	"github.com/pyven-dev/pyven/pkg/venv"
)

// Package is one installed distribution.
type Package struct {
	OriginalName string   `json:"name"`         // name as recorded in metadata
	Version      string   `json:"version"`      // installed version
	Dependencies []string `json:"dependencies"` // normalized runtime dependency names

	// DependencySpecs maps a dependency name to the version spec this
	// package requires of it, "" when unconstrained.
	DependencySpecs map[string]string `json:"dependency_specs,omitempty"`
}

// Snapshot maps normalized package name to installed package.
type Snapshot map[string]Package

// SystemPackages are environment plumbing, never user dependencies.
// Keys are normalized names.
var SystemPackages = map[string]bool{
	"pip":           true,
	"setuptools":    true,
	"wheel":         true,
	"pkg-resources": true,
	"distribute":    true,
	"easy-install":  true,
}

// IsSystemPackage reports whether name (any spelling) is environment
// plumbing rather than a user dependency.
func IsSystemPackage(name string) bool {
	return SystemPackages[pep440.Normalize(name)]
}

// DefaultTTL bounds snapshot staleness against installs performed
// outside pyven, which cannot invalidate the cache.
const DefaultTTL = 5 * time.Minute

// Scanner reads installed-package snapshots for one environment.
type Scanner struct {
	env    venv.Context
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger

	// TTL for cached snapshots. Zero means DefaultTTL.
	TTL time.Duration

	// ExcludeExtras adds project-specific extras to the builtin
	// excluded set when filtering Requires-Dist markers.
	ExcludeExtras []string
}

// NewScanner creates a scanner for env. cache and keyer may be nil to
// disable snapshot caching.
func NewScanner(env venv.Context, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Scanner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{env: env, cache: c, keyer: keyer, logger: logger, TTL: DefaultTTL}
}

// Snapshot returns the installed packages. The unfiltered scan is what
// gets cached; system-package filtering happens on the way out so both
// views share one cache entry.
func (s *Scanner) Snapshot(ctx context.Context, excludeSystem bool) (Snapshot, error) {
	key := s.keyer.InventoryKey(s.env.SitePackages)

	if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return snap.filter(excludeSystem), nil
		}
	}

	snap, err := s.scan()
	if err != nil {
		return nil, err
	}

	ttl := s.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if data, err := json.Marshal(snap); err == nil {
		if err := s.cache.Set(ctx, key, data, ttl); err != nil {
			s.logger.Warn("failed to cache inventory snapshot", "error", err)
		}
	}

	return snap.filter(excludeSystem), nil
}

// Invalidate drops the cached snapshot. Must be called after any action
// that installs or uninstalls packages.
func (s *Scanner) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, s.keyer.InventoryKey(s.env.SitePackages))
}

func (snap Snapshot) filter(excludeSystem bool) Snapshot {
	if !excludeSystem {
		return snap
	}
	out := make(Snapshot, len(snap))
	for name, pkg := range snap {
		if SystemPackages[name] {
			continue
		}
		out[name] = pkg
	}
	return out
}

// Names returns the snapshot's normalized names, sorted.
func (snap Snapshot) Names() []string {
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// scan walks site-packages and parses every distribution's metadata.
// Unreadable or incomplete entries are skipped with a warning; one broken
// distribution must not hide the rest of the environment.
func (s *Scanner) scan() (Snapshot, error) {
	entries, err := os.ReadDir(s.env.SitePackages)
	if err != nil {
		return nil, err
	}

	snap := make(Snapshot)
	for _, entry := range entries {
		name := entry.Name()
		var metaPath string
		switch {
		case entry.IsDir() && strings.HasSuffix(name, ".dist-info"):
			metaPath = filepath.Join(s.env.SitePackages, name, "METADATA")
		case entry.IsDir() && strings.HasSuffix(name, ".egg-info"):
			metaPath = filepath.Join(s.env.SitePackages, name, "PKG-INFO")
		case !entry.IsDir() && strings.HasSuffix(name, ".egg-info"):
			metaPath = filepath.Join(s.env.SitePackages, name)
		default:
			continue
		}

		pkg, ok := s.readDistribution(metaPath)
		if !ok {
			continue
		}
		snap[pep440.Normalize(pkg.OriginalName)] = pkg
	}
	return snap, nil
}

func (s *Scanner) readDistribution(metaPath string) (Package, bool) {
	f, err := os.Open(metaPath)
	if err != nil {
		s.logger.Warn("skipping unreadable distribution", "path", metaPath, "error", err)
		return Package{}, false
	}
	defer f.Close()

	md, err := parseMetadata(f)
	if err != nil || md.Name == "" || md.Version == "" {
		if err == nil {
			err = errors.New(errors.ErrCodeDependency, "metadata missing Name or Version")
		} else {
			err = errors.Wrap(errors.ErrCodeDependency, err, "parse metadata")
		}
		s.logger.Warn("skipping distribution with incomplete metadata", "path", metaPath, "error", err)
		return Package{}, false
	}

	extra := make(map[string]bool, len(s.ExcludeExtras))
	for _, name := range s.ExcludeExtras {
		extra[strings.ToLower(name)] = true
	}

	pkg := Package{OriginalName: md.Name, Version: md.Version}
	for _, rd := range md.RequiresDist {
		dep, spec, ok := parseRequiresDist(rd, extra)
		if !ok {
			continue
		}
		if pkg.DependencySpecs == nil {
			pkg.DependencySpecs = make(map[string]string)
		}
		if _, dup := pkg.DependencySpecs[dep]; dup {
			continue
		}
		pkg.DependencySpecs[dep] = spec
		pkg.Dependencies = append(pkg.Dependencies, dep)
	}
	sort.Strings(pkg.Dependencies)
	return pkg, true
}
