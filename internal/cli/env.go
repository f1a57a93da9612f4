package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// envCommand creates the env command for virtual environment details.
func (c *CLI) envCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Show the active virtual environment",
		Long: `Show the active virtual environment.

Detection order: the --venv flag, then the conventional directories
(env, .venv, venv) inside the project, then the VIRTUAL_ENV variable of
an activated environment. Creating an environment is left to the
standard tooling: python -m venv env`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := s.scanner.Snapshot(cmd.Context(), true)
			if err != nil {
				return err
			}

			if c.jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"root":          s.env.Root,
					"python":        s.env.Python,
					"version":       s.env.PythonVersion(),
					"site_packages": s.env.SitePackages,
					"packages":      len(snap),
				})
			}

			fmt.Println(StyleTitle.Render(s.env.Name()))
			printKeyValue("Root", s.env.Root)
			printKeyValue("Python", s.env.Python)
			printKeyValue("Version", orDash(s.env.PythonVersion()))
			printKeyValue("Site packages", s.env.SitePackages)
			printKeyValue("Packages", fmt.Sprintf("%d", len(snap)))
			return nil
		},
	}

	return cmd
}
