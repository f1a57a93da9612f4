package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pyven-dev/pyven/pkg/analyzer"
)

// listCommand creates the list command for showing package status.
func (c *CLI) listCommand() *cobra.Command {
	var (
		all  bool
		tree bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show packages and their consistency status",
		Long: `Show packages and their consistency status.

By default only top-level packages are listed: everything declared in the
manifest plus any installed package no other package depends on. Each row
carries the installed version, the declared requirement, and a status
describing how the two relate.

Use --all to list the full inventory including transitive dependencies,
and --tree to render each top-level package as a dependency tree.`,
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

			if tree {
				return c.printTrees(g)
			}
			return c.printStatusTable(g, all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include transitive dependencies")
	cmd.Flags().BoolVarP(&tree, "tree", "t", false, "render dependency trees")

	return cmd
}

// buildGraph snapshots the environment and joins it with the manifest.
func buildGraph(ctx context.Context, s *session) (*analyzer.Graph, error) {
	snap, err := s.scanner.Snapshot(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("scan environment: %w", err)
	}
	return analyzer.New(snap, s.store.Entries()), nil
}

// listRows classifies either the top-level set or the full inventory.
func listRows(g *analyzer.Graph, all bool) []analyzer.PackageInfo {
	names := g.TopLevel()
	if all {
		seen := make(map[string]bool, len(names))
		for _, n := range names {
			seen[n] = true
		}
		for dep := range g.AllDependencies() {
			if !seen[dep] {
				names = append(names, dep)
			}
		}
		sort.Strings(names)
	}

	rows := make([]analyzer.PackageInfo, 0, len(names))
	for _, name := range names {
		rows = append(rows, g.Classify(name))
	}
	return rows
}

func (c *CLI) printStatusTable(g *analyzer.Graph, all bool) error {
	rows := listRows(g, all)

	if c.jsonOut {
		return json.NewEncoder(os.Stdout).Encode(rows)
	}
	if len(rows) == 0 {
		printInfo("No packages found")
		printNextStep("Add one", "pyven add <package>")
		return nil
	}

	nameW, instW, reqW := len("Package"), len("Installed"), len("Required")
	for _, r := range rows {
		nameW = max(nameW, len(r.Name))
		instW = max(instW, len(orDash(r.InstalledVersion)))
		reqW = max(reqW, len(orDash(r.RequiredVersion)))
	}

	header := fmt.Sprintf("%-*s  %-*s  %-*s  %s", nameW, "Package", instW, "Installed", reqW, "Required", "Status")
	fmt.Println(StyleTitle.Render(header))
	for _, r := range rows {
		line := fmt.Sprintf("%-*s  %-*s  %-*s  ", nameW, r.Name, instW, orDash(r.InstalledVersion), reqW, orDash(r.RequiredVersion))
		fmt.Println(StyleValue.Render(line) + statusStyle(r.Status).Render(statusLabel(r.Status)))
	}

	printNewline()
	printDetail("%d packages", len(rows))
	return nil
}

func (c *CLI) printTrees(g *analyzer.Graph) error {
	roots := g.TopLevel()

	if c.jsonOut {
		trees := make([]*analyzer.Node, 0, len(roots))
		for _, root := range roots {
			trees = append(trees, g.BuildTree(root))
		}
		return json.NewEncoder(os.Stdout).Encode(trees)
	}
	if len(roots) == 0 {
		printInfo("No packages found")
		return nil
	}

	for i, root := range roots {
		if i > 0 {
			printNewline()
		}
		fmt.Print(renderTree(g.BuildTree(root)))
	}
	return nil
}

// renderTree formats a dependency tree with box-drawing connectors.
func renderTree(root *analyzer.Node) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(nodeLabel(root)) + "\n")
	renderChildren(&b, root.Dependencies, "")
	return b.String()
}

func renderChildren(b *strings.Builder, children []*analyzer.Node, prefix string) {
	for i, child := range children {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(children)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		b.WriteString(prefix + StyleDim.Render(connector) + nodeLabel(child) + "\n")
		renderChildren(b, child.Dependencies, childPrefix)
	}
}

func nodeLabel(n *analyzer.Node) string {
	label := n.Name
	if n.InstalledVersion != "" {
		label += StyleDim.Render("@" + n.InstalledVersion)
	} else {
		label += " " + StyleError.Render("(missing)")
	}
	if n.RequiredVersion != "" {
		label += " " + StyleDim.Render("["+n.RequiredVersion+"]")
	}
	if n.Repeated {
		label += " " + StyleDim.Render("(repeated)")
	}
	return label
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
