package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyven-dev/pyven/pkg/reconcile"
)

// addCommand creates the add command for installing and declaring packages.
func (c *CLI) addCommand() *cobra.Command {
	var opts reconcile.AddOptions

	cmd := &cobra.Command{
		Use:   "add <package>...",
		Short: "Install packages and declare them in the manifest",
		Long: `Install packages and declare them in the manifest.

Each argument is a pip-style requirement ("flask", "flask==2.0.0",
"uvicorn[standard]>=0.23"). After a successful install the resolved
version is pinned in pyproject.toml when the project has one, or in
requirements.txt otherwise. Packages are processed independently: one
failure does not stop the rest.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			track := newProgress(c.Logger)
			spinner := newSpinner(cmd.Context(), fmt.Sprintf("Installing %d package(s)...", len(args)))
			spinner.Start()
			results := s.engine.AddPackages(cmd.Context(), args, opts)
			spinner.Stop()

			if c.jsonOut {
				return json.NewEncoder(os.Stdout).Encode(results)
			}
			failed := printResults(results)
			track.done(fmt.Sprintf("Added %d of %d packages", len(results)-failed, len(results)))
			if failed > 0 {
				return fmt.Errorf("%d package(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Editable, "editable", "e", false, "install in editable mode")
	cmd.Flags().BoolVar(&opts.NoDeps, "no-deps", false, "skip the package's own dependencies")

	return cmd
}

// printResults renders engine item results and returns the failure count.
func printResults(results []reconcile.ItemResult) int {
	failed := 0
	for _, r := range results {
		switch {
		case r.Success && r.AutoFixed:
			printSuccess("%s %s", r.Name, r.Version)
			printDetail("requested %s was not available (%s); installed nearest release", r.RequestedVersion, r.Reason)
		case r.Success && r.Version != "":
			printSuccess("%s %s", r.Name, r.Version)
		case r.Success:
			printSuccess("%s", r.Name)
		default:
			failed++
			printError("%s: %s", r.Name, r.Message)
			if r.Reason != "" {
				printDetail("%s", r.Reason)
			}
		}
	}
	return failed
}
