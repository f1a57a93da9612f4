package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pyven-dev/pyven/pkg/analyzer"
)

// checkReport is the structured output of the check command.
type checkReport struct {
	Conflicts []analyzer.Conflict `json:"conflicts"`
	Cycles    [][]string          `json:"cycles"`
}

// checkCommand creates the check command for graph health reports.
func (c *CLI) checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report dependency conflicts and cycles",
		Long: `Report dependency conflicts and cycles.

Every installed package's requirement specs are checked against the
versions actually installed. A conflict is a dependency that is missing
or installed at a version outside the dependent's declared range. Cycles
longer than two packages are reported as informational findings.

The command exits non-zero when any conflict is found.`,
		Args: cobra.NoArgs,
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

			report := checkReport{Conflicts: g.Conflicts(), Cycles: g.Cycles()}
			if c.jsonOut {
				if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
					return err
				}
			} else {
				printCheckReport(report)
			}

			if len(report.Conflicts) > 0 {
				return fmt.Errorf("%d dependency conflict(s)", len(report.Conflicts))
			}
			return nil
		},
	}

	return cmd
}

func printCheckReport(report checkReport) {
	if len(report.Conflicts) == 0 && len(report.Cycles) == 0 {
		printSuccess("No conflicts or cycles found")
		return
	}

	for _, conflict := range report.Conflicts {
		if conflict.NotInstalled {
			printError("%s requires %s %s, which is not installed", conflict.Package, conflict.Dependency, conflict.Required)
			continue
		}
		printError("%s requires %s %s, found %s", conflict.Package, conflict.Dependency, conflict.Required, conflict.Installed)
	}

	for _, cycle := range report.Cycles {
		printWarning("dependency cycle: %s", strings.Join(append(cycle, cycle[0]), " "+iconArrow+" "))
	}
}
