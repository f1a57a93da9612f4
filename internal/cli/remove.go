package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// removeCommand creates the remove command for uninstalling packages.
func (c *CLI) removeCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <package>...",
		Short: "Uninstall packages and remove them from the manifest",
		Long: `Uninstall packages and remove them from the manifest.

Before anything is uninstalled the dependency graph is consulted: when
other installed packages still depend on a target, the dependents are
listed and confirmation is required. Removal clears the declaration from
both requirements.txt and pyproject.toml.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			g, err := buildGraph(cmd.Context(), s)
			if err != nil {
				return err
			}

			atRisk := false
			for _, name := range args {
				impact := g.AnalyzeImpact(name)
				if impact.SafeToRemove {
					continue
				}
				atRisk = true
				printWarning("%s is still needed by:", name)
				for _, dep := range impact.DirectDependents {
					printDetail("%s", dep)
				}
				for _, dep := range impact.IndirectDependents {
					printDetail("%s (indirect)", dep)
				}
			}
			if atRisk && !yes && !confirm("Remove anyway?") {
				printInfo("Aborted")
				return nil
			}

			results := s.engine.RemovePackages(cmd.Context(), args)
			if c.jsonOut {
				return json.NewEncoder(os.Stdout).Encode(results)
			}
			if failed := printResults(results); failed > 0 {
				return fmt.Errorf("%d package(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// confirm asks a yes/no question on stdin, defaulting to no.
func confirm(question string) bool {
	fmt.Print(StyleWarning.Render(question) + " [y/N] ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
