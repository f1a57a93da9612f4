// Package cli implements the pyven command-line interface.
//
// This package provides commands for inspecting a Python virtual
// environment against its declared dependencies, installing and removing
// packages, and reconciling the two when they drift. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - list: Show top-level packages and their consistency status
//   - add / remove: Install or uninstall packages and keep the manifest in sync
//   - fix: Reconcile the environment with the declared dependencies
//   - check: Report dependency conflicts and cycles
//   - info: Show package metadata from the index
//   - graph: Export the dependency graph as DOT or SVG
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The CLI
// formats for humans by default and emits JSON with --json; the core
// packages only return structured records.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pyven-dev/pyven/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "pyven"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Persistent flag state, bound in RootCommand.
	projectDir string
	venvPath   string
	configPath string
	indexURL   string
	noCache    bool
	jsonOut    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Pyven keeps Python virtual environments in sync with their declared dependencies",
		Long:         `Pyven is a package manager for Python virtual environments. It wraps pip and venv, compares what is installed against requirements.txt and pyproject.toml, and repairs any drift between the two.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVarP(&c.projectDir, "project-dir", "p", ".", "project directory holding requirements.txt / pyproject.toml")
	pf.StringVar(&c.venvPath, "venv", "", "virtual environment root (default: auto-detect)")
	pf.StringVar(&c.configPath, "config", "", "config file (default: ~/.config/pyven/config.yaml)")
	pf.StringVar(&c.indexURL, "index-url", "", "package index base URL")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable caching")
	pf.BoolVar(&c.jsonOut, "json", false, "machine-readable JSON output")

	// Register all subcommands
	root.AddCommand(c.listCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.fixCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.envCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
