package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// infoCommand creates the info command for index metadata lookups.
func (c *CLI) infoCommand() *cobra.Command {
	var (
		version string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "info <package>",
		Short: "Show package metadata from the index",
		Long: `Show package metadata from the index.

Without --version the latest release is described. Responses are cached;
use --refresh to bypass the cache and fetch fresh metadata.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			spinner := newSpinner(cmd.Context(), fmt.Sprintf("Fetching %s...", args[0]))
			spinner.Start()
			pkg, err := s.index.FetchPackage(cmd.Context(), args[0], version, refresh)
			spinner.Stop()
			if err != nil {
				return err
			}

			if c.jsonOut {
				return json.NewEncoder(os.Stdout).Encode(pkg)
			}

			fmt.Println(StyleTitle.Render(pkg.Name) + " " + StyleValue.Render(pkg.Version))
			if pkg.Summary != "" {
				printDetail("%s", pkg.Summary)
			}
			printNewline()
			printKeyValue("Author", orDash(pkg.Author))
			printKeyValue("License", orDash(pkg.License))
			printKeyValue("Python", orDash(pkg.RequiresPython))
			if pkg.HomePage != "" {
				printKeyValue("Homepage", StyleLink.Render(pkg.HomePage))
			}
			if len(pkg.Dependencies) > 0 {
				printKeyValue("Depends on", strings.Join(pkg.Dependencies, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "describe a specific release")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the metadata cache")

	return cmd
}
