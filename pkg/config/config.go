// Package config loads pyven's optional configuration file. Everything
// has a working default; the file only exists to override.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pyven-dev/pyven/pkg/errors"
)

// Duration is a time.Duration that unmarshals from the usual
// "30m" / "2h" syntax.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid duration %q", s)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full configuration surface.
type Config struct {
	// IndexURL overrides the package index for both metadata queries
	// and pip installs. Empty means the public index.
	IndexURL string `yaml:"index_url"`

	// ExcludeExtras adds project-specific extras to the builtin set
	// excluded when reading installed-package metadata.
	ExcludeExtras []string `yaml:"exclude_extras"`

	Cache     CacheConfig     `yaml:"cache"`
	Installer InstallerConfig `yaml:"installer"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend string `yaml:"backend"`

	// Dir overrides the file backend's directory.
	Dir string `yaml:"dir"`

	// TTL for index metadata responses.
	TTL Duration `yaml:"ttl"`

	// RedisAddr is the host:port of the redis backend.
	RedisAddr string `yaml:"redis_addr"`
}

// InstallerConfig tunes pip invocations.
type InstallerConfig struct {
	// Timeout per pip call.
	Timeout Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Backend:   "file",
			TTL:       Duration(time.Hour),
			RedisAddr: "localhost:6379",
		},
		Installer: InstallerConfig{
			Timeout: Duration(5 * time.Minute),
		},
	}
}

// DefaultPath returns the conventional config file location
// (~/.config/pyven/config.yaml on Linux).
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "pyven", "config.yaml")
}

// Load reads the config file at path, or the default location when path
// is empty. A missing file yields the defaults; a malformed file is an
// error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	return cfg, nil
}
