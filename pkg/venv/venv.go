// Package venv locates and describes Python virtual environments. Every
// interpreter-touching operation runs against an explicit environment
// context instead of whatever python happens to be on PATH.
package venv

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pyven-dev/pyven/pkg/errors"
)

// Context describes one virtual environment. All paths are absolute.
type Context struct {
	Root         string // environment root directory
	Python       string // interpreter executable
	Pip          string // pip executable
	SitePackages string // site-packages directory
}

// Name returns the environment's directory name (e.g. "env", ".venv").
func (c Context) Name() string {
	return filepath.Base(c.Root)
}

// PythonVersion reads the interpreter version recorded in pyvenv.cfg,
// or "" when the file is missing or carries no version key.
func (c Context) PythonVersion() string {
	f, err := os.Open(filepath.Join(c.Root, "pyvenv.cfg"))
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "version", "version_info":
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// candidateDirs are the environment directory names probed under a
// project, in precedence order.
var candidateDirs = []string{"env", ".venv", "venv"}

// Detect locates the virtual environment for a project directory. It
// probes the conventional directory names first and falls back to an
// activated $VIRTUAL_ENV. Returns a NO_VENV error when nothing is found.
func Detect(projectDir string) (Context, error) {
	for _, name := range candidateDirs {
		root := filepath.Join(projectDir, name)
		if isVenv(root) {
			return FromRoot(root)
		}
	}

	if activated := os.Getenv("VIRTUAL_ENV"); activated != "" && isVenv(activated) {
		return FromRoot(activated)
	}

	return Context{}, errors.New(errors.ErrCodeNoVenv,
		"no virtual environment found in %s (looked for %s)",
		projectDir, strings.Join(candidateDirs, ", "))
}

// FromRoot builds a Context for an environment rooted at root.
// Returns a NO_VENV error when root is not a virtual environment.
func FromRoot(root string) (Context, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Context{}, err
	}
	if !isVenv(abs) {
		return Context{}, errors.New(errors.ErrCodeNoVenv, "%s is not a virtual environment", abs)
	}

	ctx := Context{
		Root:   abs,
		Python: filepath.Join(abs, binDir(), exe("python")),
		Pip:    filepath.Join(abs, binDir(), exe("pip")),
	}
	ctx.SitePackages = findSitePackages(abs)
	return ctx, nil
}

// isVenv reports whether dir looks like a virtual environment: a
// pyvenv.cfg next to a bin (or Scripts) directory.
func isVenv(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "pyvenv.cfg")); err != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(dir, binDir()))
	return err == nil
}

// binDir is "Scripts" on Windows, "bin" elsewhere.
func binDir() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}

// exe appends ".exe" on Windows.
func exe(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// findSitePackages locates the site-packages directory. On POSIX it
// lives under lib/pythonX.Y/site-packages; on Windows under
// Lib/site-packages.
func findSitePackages(root string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(root, "Lib", "site-packages")
	}

	libDir := filepath.Join(root, "lib")
	entries, err := os.ReadDir(libDir)
	if err != nil {
		return filepath.Join(libDir, "site-packages")
	}
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "python") {
			sp := filepath.Join(libDir, e.Name(), "site-packages")
			if _, err := os.Stat(sp); err == nil {
				return sp
			}
		}
	}
	return filepath.Join(libDir, "site-packages")
}
