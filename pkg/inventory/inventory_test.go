package inventory

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/pyven-dev/pyven/pkg/cache"
	"github.com/pyven-dev/pyven/pkg/venv"
)

// makeEnv lays out a fake environment with a site-packages directory.
func makeEnv(t *testing.T) venv.Context {
	t.Helper()
	root := t.TempDir()
	sp := filepath.Join(root, "lib", "python3.11", "site-packages")
	if err := os.MkdirAll(sp, 0755); err != nil {
		t.Fatal(err)
	}
	return venv.Context{Root: root, SitePackages: sp}
}

func installDist(t *testing.T, env venv.Context, dirName, metadata string) {
	t.Helper()
	dir := filepath.Join(env.SitePackages, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	file := "METADATA"
	if strings.HasSuffix(dirName, ".egg-info") {
		file = "PKG-INFO"
	}
	if err := os.WriteFile(filepath.Join(dir, file), []byte(metadata), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestScanner(env venv.Context) *Scanner {
	return NewScanner(env, cache.NewNullCache(), nil, log.New(io.Discard))
}

func TestSnapshotScansDistInfo(t *testing.T) {
	env := makeEnv(t)
	installDist(t, env, "Flask-2.0.0.dist-info", strings.Join([]string{
		"Metadata-Version: 2.1",
		"Name: Flask",
		"Version: 2.0.0",
		"Requires-Dist: Werkzeug (>=2.0)",
		"Requires-Dist: click (>=7.1.2)",
		"",
		"Flask is a micro framework.",
	}, "\n"))
	installDist(t, env, "legacy_pkg.egg-info", strings.Join([]string{
		"Name: legacy_pkg",
		"Version: 1.0.0",
		"",
	}, "\n"))

	snap, err := newTestScanner(env).Snapshot(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}

	flask, ok := snap["flask"]
	if !ok {
		t.Fatal("flask should be in the snapshot")
	}
	if flask.OriginalName != "Flask" || flask.Version != "2.0.0" {
		t.Errorf("flask = %+v", flask)
	}
	if len(flask.Dependencies) != 2 || flask.Dependencies[0] != "click" || flask.Dependencies[1] != "werkzeug" {
		t.Errorf("flask.Dependencies = %v", flask.Dependencies)
	}

	if _, ok := snap["legacy-pkg"]; !ok {
		t.Error("egg-info distribution should be in the snapshot")
	}
}

func TestSnapshotFiltersSystemPackages(t *testing.T) {
	env := makeEnv(t)
	installDist(t, env, "pip-23.0.dist-info", "Name: pip\nVersion: 23.0\n\n")
	installDist(t, env, "requests-2.31.0.dist-info", "Name: requests\nVersion: 2.31.0\n\n")

	s := newTestScanner(env)

	snap, err := s.Snapshot(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap["pip"]; ok {
		t.Error("pip should be filtered out")
	}
	if _, ok := snap["requests"]; !ok {
		t.Error("requests should remain")
	}

	full, err := s.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := full["pip"]; !ok {
		t.Error("unfiltered snapshot should include pip")
	}
}

func TestSnapshotSkipsBrokenDist(t *testing.T) {
	env := makeEnv(t)
	installDist(t, env, "broken-1.0.dist-info", "Description: no name or version\n\n")
	installDist(t, env, "good-1.0.dist-info", "Name: good\nVersion: 1.0\n\n")

	snap, err := newTestScanner(env).Snapshot(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap) != 1 {
		t.Errorf("snapshot = %v, want only good", snap.Names())
	}
}

func TestSnapshotCachedUntilInvalidate(t *testing.T) {
	env := makeEnv(t)
	installDist(t, env, "requests-2.31.0.dist-info", "Name: requests\nVersion: 2.31.0\n\n")

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := NewScanner(env, fc, nil, log.New(io.Discard))
	ctx := context.Background()

	if _, err := s.Snapshot(ctx, false); err != nil {
		t.Fatal(err)
	}

	// A new install without invalidation is not seen yet.
	installDist(t, env, "flask-2.0.0.dist-info", "Name: flask\nVersion: 2.0.0\n\n")
	snap, err := s.Snapshot(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap["flask"]; ok {
		t.Error("cached snapshot should not see the new install")
	}

	// After Invalidate the next snapshot rescans.
	if err := s.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	snap, err = s.Snapshot(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap["flask"]; !ok {
		t.Error("post-invalidate snapshot should see the new install")
	}
}

func TestIsSystemPackage(t *testing.T) {
	for name, want := range map[string]bool{
		"pip":           true,
		"Pip":           true,
		"pkg_resources": true,
		"setuptools":    true,
		"requests":      false,
	} {
		if got := IsSystemPackage(name); got != want {
			t.Errorf("IsSystemPackage(%q) = %v, want %v", name, got, want)
		}
	}
}
