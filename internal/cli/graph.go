package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"
)

// graphCommand creates the graph command for dependency graph export.
func (c *CLI) graphCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the dependency graph as DOT or SVG",
		Long: `Export the dependency graph as DOT or SVG.

Without --output the DOT source is printed to stdout. With --output the
format follows the file extension: .svg renders via Graphviz, anything
else is written as DOT source. Declared packages are drawn as boxes,
transitive dependencies as ellipses.`,
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
			dot := g.DOT()

			if output == "" {
				fmt.Print(dot)
				return nil
			}

			data := []byte(dot)
			if filepath.Ext(output) == ".svg" {
				data, err = renderSVG(cmd.Context(), dot)
				if err != nil {
					return err
				}
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			printSuccess("Graph exported")
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.svg renders, otherwise DOT)")

	return cmd
}

// renderSVG renders a DOT graph to SVG using Graphviz.
func renderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
