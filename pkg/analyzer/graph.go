package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pyven-dev/pyven/pkg/inventory"
	"github.com/pyven-dev/pyven/pkg/manifest"
	"github.com/pyven-dev/pyven/pkg/pep440"
)

// Node is one entry in a dependency tree. A Repeated node's name was
// already expanded higher in the same root's traversal; it is rendered
// but never expanded again.
type Node struct {
	Name             string
	InstalledVersion string
	RequiredVersion  string
	Dependencies     []*Node
	Repeated         bool
}

// Graph is the installed-package dependency graph joined with the
// declared-dependency view. It is a read-only analysis structure built
// from one inventory snapshot.
type Graph struct {
	installed inventory.Snapshot
	declared  map[string]*manifest.Declared
	allDeps   map[string]bool
}

// New builds a graph from an inventory snapshot and the declared view.
// declared may be nil for a project with no manifests.
func New(installed inventory.Snapshot, declared map[string]*manifest.Declared) *Graph {
	if declared == nil {
		declared = map[string]*manifest.Declared{}
	}
	g := &Graph{
		installed: installed,
		declared:  declared,
		allDeps:   make(map[string]bool),
	}
	for _, pkg := range installed {
		for _, dep := range pkg.Dependencies {
			g.allDeps[dep] = true
		}
	}
	return g
}

// AllDependencies reports the union of every installed package's direct
// dependencies, keyed by normalized name.
func (g *Graph) AllDependencies() map[string]bool { return g.allDeps }

// Classify runs the status classifier for one package against this
// graph's snapshot and declarations.
func (g *Graph) Classify(name string) PackageInfo {
	return Classify(name, g.installed, g.declared, g.allDeps)
}

// frame is one level of the iterative tree traversal.
type frame struct {
	node *Node
	deps []string
	next int
}

// BuildTree expands the dependency tree below root. The traversal keeps
// a single visited set for the whole root: any name seen again anywhere
// under this root becomes a Repeated leaf, which bounds the walk at one
// expansion per name even on diamonds and true cycles.
func (g *Graph) BuildTree(root string) *Node {
	key := pep440.Normalize(root)
	visited := map[string]bool{key: true}

	rootNode := g.newNode(root, key)
	stack := []*frame{{node: rootNode, deps: g.depsOf(key)}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.deps) {
			stack = stack[:len(stack)-1]
			continue
		}
		dep := top.deps[top.next]
		top.next++

		child := g.newNode(dep, dep)
		if visited[dep] {
			child.Repeated = true
			top.node.Dependencies = append(top.node.Dependencies, child)
			continue
		}
		visited[dep] = true
		top.node.Dependencies = append(top.node.Dependencies, child)
		stack = append(stack, &frame{node: child, deps: g.depsOf(dep)})
	}
	return rootNode
}

func (g *Graph) depsOf(key string) []string {
	if pkg, ok := g.installed[key]; ok {
		return pkg.Dependencies
	}
	return nil
}

func (g *Graph) newNode(name, key string) *Node {
	node := &Node{Name: name}
	if pkg, ok := g.installed[key]; ok {
		node.Name = pkg.OriginalName
		node.InstalledVersion = pkg.Version
	}
	if decl, ok := g.declared[key]; ok {
		node.RequiredVersion = formatRequired(decl)
	}
	return node
}

// TopLevel returns the normalized names an operator directly cares
// about: every declared package plus every installed package that is not
// a dependency of any other installed package. A declared package that
// also happens to be someone's dependency stays top-level here; the
// classifier flags it redundant separately.
func (g *Graph) TopLevel() []string {
	seen := make(map[string]bool)
	for name := range g.declared {
		seen[name] = true
	}
	for name := range g.installed {
		if !g.allDeps[name] {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReverseDependencies returns the normalized names of installed packages
// that directly depend on pkg, sorted.
func (g *Graph) ReverseDependencies(pkg string) []string {
	key := pep440.Normalize(pkg)
	var dependents []string
	for name, installed := range g.installed {
		for _, dep := range installed.Dependencies {
			if dep == key {
				dependents = append(dependents, name)
				break
			}
		}
	}
	sort.Strings(dependents)
	return dependents
}

// Conflict is an installed package whose requirement on a dependency is
// not satisfied by the dependency's installed version.
type Conflict struct {
	Package      string // dependent's normalized name
	Dependency   string // dependency's normalized name
	Required     string // spec the dependent asks for
	Installed    string // version actually installed
	NotInstalled bool   // the dependency is missing entirely
}

// Conflicts scans every installed package's requirement specs against
// the installed versions, sorted by (package, dependency).
func (g *Graph) Conflicts() []Conflict {
	var out []Conflict
	for name, pkg := range g.installed {
		for _, dep := range pkg.Dependencies {
			spec := pkg.DependencySpecs[dep]
			if spec == "" {
				continue
			}
			target, ok := g.installed[dep]
			if !ok {
				out = append(out, Conflict{Package: name, Dependency: dep, Required: spec, NotInstalled: true})
				continue
			}
			if !pep440.Compatible(target.Version, spec) {
				out = append(out, Conflict{Package: name, Dependency: dep, Required: spec, Installed: target.Version})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Package != out[j].Package {
			return out[i].Package < out[j].Package
		}
		return out[i].Dependency < out[j].Dependency
	})
	return out
}

// Impact describes what removing a package would break.
type Impact struct {
	Package            string
	DirectDependents   []string
	IndirectDependents []string
	SafeToRemove       bool
}

// AnalyzeImpact reports the removal impact of pkg: the packages that
// depend on it directly, the dependents of those dependents, and whether
// removal breaks nothing.
func (g *Graph) AnalyzeImpact(pkg string) Impact {
	key := pep440.Normalize(pkg)
	direct := g.ReverseDependencies(key)

	directSet := make(map[string]bool, len(direct))
	for _, d := range direct {
		directSet[d] = true
	}

	indirectSet := make(map[string]bool)
	for _, d := range direct {
		for _, dd := range g.ReverseDependencies(d) {
			if dd == key || directSet[dd] {
				continue
			}
			indirectSet[dd] = true
		}
	}
	indirect := make([]string, 0, len(indirectSet))
	for name := range indirectSet {
		indirect = append(indirect, name)
	}
	sort.Strings(indirect)

	return Impact{
		Package:            key,
		DirectDependents:   direct,
		IndirectDependents: indirect,
		SafeToRemove:       len(direct) == 0,
	}
}

// Cycles finds dependency cycles of length greater than two in the
// installed graph. Each cycle is reported once, rotated so its
// lexicographically smallest member comes first.
func (g *Graph) Cycles() [][]string {
	names := make([]string, 0, len(g.installed))
	for name := range g.installed {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[string]bool)
	var cycles [][]string
	for _, start := range names {
		onPath := map[string]bool{start: true}
		g.findCycles(start, []string{start}, onPath, seen, &cycles)
	}
	return cycles
}

func (g *Graph) findCycles(current string, path []string, onPath map[string]bool, seen map[string]bool, cycles *[][]string) {
	for _, dep := range g.depsOf(current) {
		if dep == path[0] {
			if len(path) > 2 {
				cycle := canonicalCycle(path)
				sig := strings.Join(cycle, "\x00")
				if !seen[sig] {
					seen[sig] = true
					*cycles = append(*cycles, cycle)
				}
			}
			continue
		}
		if onPath[dep] {
			continue
		}
		if _, installed := g.installed[dep]; !installed {
			continue
		}
		onPath[dep] = true
		g.findCycles(dep, append(path, dep), onPath, seen, cycles)
		delete(onPath, dep)
	}
}

// canonicalCycle rotates a cycle path so the smallest name leads,
// making rotated duplicates identical.
func canonicalCycle(path []string) []string {
	smallest := 0
	for i, name := range path {
		if name < path[smallest] {
			smallest = i
		}
	}
	out := make([]string, 0, len(path))
	out = append(out, path[smallest:]...)
	out = append(out, path[:smallest]...)
	return out
}

// DOT renders the installed dependency graph in Graphviz DOT syntax.
// Nodes are labeled name@version; declared packages get a box shape so
// the operator's own dependencies stand out from the transitive ones.
func (g *Graph) DOT() string {
	names := make([]string, 0, len(g.installed))
	for name := range g.installed {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n")
	for _, name := range names {
		pkg := g.installed[name]
		shape := "ellipse"
		if _, ok := g.declared[name]; ok {
			shape = "box"
		}
		fmt.Fprintf(&b, "  %q [label=%q, shape=%s];\n", name, pkg.OriginalName+"@"+pkg.Version, shape)
	}
	for _, name := range names {
		for _, dep := range g.installed[name].Dependencies {
			if _, ok := g.installed[dep]; !ok {
				continue
			}
			fmt.Fprintf(&b, "  %q -> %q;\n", name, dep)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
