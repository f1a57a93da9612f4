package cli

import (
	"context"
	"fmt"

	"github.com/pyven-dev/pyven/pkg/cache"
	"github.com/pyven-dev/pyven/pkg/config"
	"github.com/pyven-dev/pyven/pkg/installer"
	"github.com/pyven-dev/pyven/pkg/inventory"
	"github.com/pyven-dev/pyven/pkg/manifest"
	"github.com/pyven-dev/pyven/pkg/pypi"
	"github.com/pyven-dev/pyven/pkg/reconcile"
	"github.com/pyven-dev/pyven/pkg/venv"
)

// session bundles the collaborators a command needs against one project:
// the detected virtual environment, the manifest store, the inventory
// scanner, the index client, pip, and the reconciliation engine built on
// top of them. Commands create one per invocation and Close it when done.
type session struct {
	cfg     config.Config
	env     venv.Context
	store   *manifest.Store
	backend cache.Cache
	scanner *inventory.Scanner
	index   *pypi.Client
	pip     *installer.Pip
	engine  *reconcile.Engine
}

// newSession wires a full session for the project named by the
// persistent flags. Any failure here is fatal to the command.
func (c *CLI) newSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.indexURL != "" {
		cfg.IndexURL = c.indexURL
	}

	env, err := c.detectVenv()
	if err != nil {
		return nil, err
	}

	store, err := manifest.Load(c.projectDir, c.Logger)
	if err != nil {
		return nil, err
	}

	backend, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize cache: %w", err)
	}

	// Metadata cached from one index must never answer lookups against
	// another, so non-default indexes get their own key namespace.
	keyer := cache.NewDefaultKeyer()
	if cfg.IndexURL != "" && cfg.IndexURL != pypi.DefaultIndexURL {
		keyer = cache.NewScopedKeyer(keyer, "index:"+cache.Hash([]byte(cfg.IndexURL))[:12]+":")
	}

	scanner := inventory.NewScanner(env, backend, keyer, c.Logger)
	scanner.ExcludeExtras = cfg.ExcludeExtras
	index := pypi.NewClient(backend, keyer, cfg.IndexURL, cfg.Cache.TTL.Std())

	pip := installer.NewPip(env, c.Logger)
	pip.Timeout = cfg.Installer.Timeout.Std()
	pip.IndexURL = c.indexURL

	return &session{
		cfg:     cfg,
		env:     env,
		store:   store,
		backend: backend,
		scanner: scanner,
		index:   index,
		pip:     pip,
		engine:  reconcile.New(store, scanner, pip, index, c.Logger),
	}, nil
}

// Close releases the session's cache backend.
func (s *session) Close() {
	s.backend.Close()
}

func (c *CLI) detectVenv() (venv.Context, error) {
	if c.venvPath != "" {
		return venv.FromRoot(c.venvPath)
	}
	return venv.Detect(c.projectDir)
}

// newCache selects the cache backend: the --no-cache flag wins, then the
// configured backend, then a file cache in the default directory.
func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr)
	default:
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		return cache.NewFileCache(dir)
	}
}
