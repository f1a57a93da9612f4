package analyzer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pyven-dev/pyven/pkg/inventory"
	"github.com/pyven-dev/pyven/pkg/manifest"
)

func pkg(name, version string, deps ...string) inventory.Package {
	return inventory.Package{OriginalName: name, Version: version, Dependencies: deps}
}

func TestBuildTree(t *testing.T) {
	g := New(inventory.Snapshot{
		"flask":    pkg("Flask", "2.0.0", "click", "werkzeug"),
		"click":    pkg("click", "8.1.0"),
		"werkzeug": pkg("Werkzeug", "2.0.0"),
	}, nil)

	tree := g.BuildTree("flask")
	if tree.Name != "Flask" || tree.InstalledVersion != "2.0.0" {
		t.Errorf("root = %+v", tree)
	}
	if len(tree.Dependencies) != 2 {
		t.Fatalf("root has %d children, want 2", len(tree.Dependencies))
	}
	if tree.Dependencies[0].Name != "click" || tree.Dependencies[1].Name != "Werkzeug" {
		t.Errorf("children = %s, %s", tree.Dependencies[0].Name, tree.Dependencies[1].Name)
	}
}

func TestBuildTreeDiamond(t *testing.T) {
	// a depends on b and c; both depend on d. The second d is a
	// repeated leaf, not expanded again.
	g := New(inventory.Snapshot{
		"a": pkg("a", "1.0", "b", "c"),
		"b": pkg("b", "1.0", "d"),
		"c": pkg("c", "1.0", "d"),
		"d": pkg("d", "1.0"),
	}, nil)

	tree := g.BuildTree("a")
	first := tree.Dependencies[0].Dependencies[0]
	second := tree.Dependencies[1].Dependencies[0]
	if first.Repeated {
		t.Error("first occurrence of d should not be repeated")
	}
	if !second.Repeated {
		t.Error("second occurrence of d should be a repeated leaf")
	}
}

func TestBuildTreeCycleTerminates(t *testing.T) {
	// A true cycle a -> b -> c -> a must terminate with the second a
	// marked repeated.
	g := New(inventory.Snapshot{
		"a": pkg("a", "1.0", "b"),
		"b": pkg("b", "1.0", "c"),
		"c": pkg("c", "1.0", "a"),
	}, nil)

	tree := g.BuildTree("a")
	b := tree.Dependencies[0]
	c := b.Dependencies[0]
	back := c.Dependencies[0]
	if back.Name != "a" || !back.Repeated {
		t.Errorf("cycle back-edge = %+v, want repeated a", back)
	}
	if len(back.Dependencies) != 0 {
		t.Error("repeated node must not be expanded")
	}
}

func TestBuildTreeUninstalledRoot(t *testing.T) {
	g := New(inventory.Snapshot{}, nil)
	tree := g.BuildTree("ghost")
	if tree.Name != "ghost" || tree.InstalledVersion != "" || len(tree.Dependencies) != 0 {
		t.Errorf("tree = %+v", tree)
	}
}

func TestTopLevel(t *testing.T) {
	installed := inventory.Snapshot{
		"flask":    pkg("Flask", "2.0.0", "werkzeug"),
		"werkzeug": pkg("Werkzeug", "2.0.0"),
		"numpy":    pkg("numpy", "1.26.0"),
	}
	declared := map[string]*manifest.Declared{
		"flask": {Name: "flask", Specs: map[manifest.Source]string{manifest.SourceRequirements: "==2.0.0"}},
		// Declared and also a dependency: still top-level for listing.
		"werkzeug": {Name: "werkzeug", Specs: map[manifest.Source]string{manifest.SourceRequirements: ""}},
	}
	g := New(installed, declared)

	got := g.TopLevel()
	want := []string{"flask", "numpy", "werkzeug"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopLevel = %v, want %v", got, want)
	}
}

func TestReverseDependencies(t *testing.T) {
	g := New(inventory.Snapshot{
		"flask":    pkg("Flask", "2.0.0", "werkzeug"),
		"fastapi":  pkg("fastapi", "0.100.0", "werkzeug"),
		"werkzeug": pkg("Werkzeug", "2.0.0"),
	}, nil)

	got := g.ReverseDependencies("Werkzeug")
	want := []string{"fastapi", "flask"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReverseDependencies = %v, want %v", got, want)
	}

	if deps := g.ReverseDependencies("flask"); len(deps) != 0 {
		t.Errorf("flask should have no dependents, got %v", deps)
	}
}

func TestConflicts(t *testing.T) {
	installed := inventory.Snapshot{
		"flask": {
			OriginalName: "Flask", Version: "2.0.0",
			Dependencies:    []string{"missing", "werkzeug"},
			DependencySpecs: map[string]string{"werkzeug": ">=2.1", "missing": ">=1.0"},
		},
		"werkzeug": pkg("Werkzeug", "2.0.0"),
	}
	g := New(installed, nil)

	got := g.Conflicts()
	if len(got) != 2 {
		t.Fatalf("got %d conflicts, want 2: %+v", len(got), got)
	}
	if got[0].Dependency != "missing" || !got[0].NotInstalled {
		t.Errorf("first conflict = %+v, want missing dependency", got[0])
	}
	if got[1].Dependency != "werkzeug" || got[1].Installed != "2.0.0" || got[1].Required != ">=2.1" {
		t.Errorf("second conflict = %+v", got[1])
	}
}

func TestConflictsNoneWhenSatisfied(t *testing.T) {
	installed := inventory.Snapshot{
		"flask": {
			OriginalName: "Flask", Version: "2.0.0",
			Dependencies:    []string{"werkzeug"},
			DependencySpecs: map[string]string{"werkzeug": ">=2.0"},
		},
		"werkzeug": pkg("Werkzeug", "2.0.0"),
	}
	if got := New(installed, nil).Conflicts(); len(got) != 0 {
		t.Errorf("Conflicts = %+v, want none", got)
	}
}

func TestAnalyzeImpact(t *testing.T) {
	g := New(inventory.Snapshot{
		"werkzeug": pkg("Werkzeug", "2.0.0"),
		"flask":    pkg("Flask", "2.0.0", "werkzeug"),
		"app":      pkg("app", "0.1.0", "flask"),
	}, nil)

	impact := g.AnalyzeImpact("werkzeug")
	if impact.SafeToRemove {
		t.Error("werkzeug has dependents, not safe to remove")
	}
	if !reflect.DeepEqual(impact.DirectDependents, []string{"flask"}) {
		t.Errorf("direct = %v", impact.DirectDependents)
	}
	if !reflect.DeepEqual(impact.IndirectDependents, []string{"app"}) {
		t.Errorf("indirect = %v", impact.IndirectDependents)
	}
}

func TestAnalyzeImpactLeaf(t *testing.T) {
	g := New(inventory.Snapshot{
		"numpy": pkg("numpy", "1.26.0"),
	}, nil)

	impact := g.AnalyzeImpact("numpy")
	if !impact.SafeToRemove {
		t.Error("package with no dependents should be safe to remove")
	}
	if len(impact.DirectDependents) != 0 || len(impact.IndirectDependents) != 0 {
		t.Errorf("impact = %+v, want empty dependent lists", impact)
	}
}

func TestCycles(t *testing.T) {
	g := New(inventory.Snapshot{
		"a": pkg("a", "1.0", "b"),
		"b": pkg("b", "1.0", "c"),
		"c": pkg("c", "1.0", "a"),
		"x": pkg("x", "1.0"),
	}, nil)

	cycles := g.Cycles()
	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1 (rotations deduplicated): %v", len(cycles), cycles)
	}
	if !reflect.DeepEqual(cycles[0], []string{"a", "b", "c"}) {
		t.Errorf("cycle = %v, want [a b c]", cycles[0])
	}
}

func TestCyclesIgnoresShortLoops(t *testing.T) {
	g := New(inventory.Snapshot{
		"a": pkg("a", "1.0", "b"),
		"b": pkg("b", "1.0", "a"),
		"s": pkg("s", "1.0", "s"),
	}, nil)

	if cycles := g.Cycles(); len(cycles) != 0 {
		t.Errorf("cycles = %v, want none for length <= 2", cycles)
	}
}

func TestDOT(t *testing.T) {
	installed := inventory.Snapshot{
		"flask":    pkg("Flask", "2.0.0", "werkzeug", "ghost"),
		"werkzeug": pkg("Werkzeug", "2.0.0"),
	}
	declared := map[string]*manifest.Declared{
		"flask": {Name: "flask", Specs: map[manifest.Source]string{manifest.SourceRequirements: "==2.0.0"}},
	}
	dot := New(installed, declared).DOT()

	for _, want := range []string{
		"digraph dependencies",
		`"flask" [label="Flask@2.0.0", shape=box]`,
		`"werkzeug" [label="Werkzeug@2.0.0", shape=ellipse]`,
		`"flask" -> "werkzeug"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "ghost") {
		t.Error("edges to uninstalled packages should be omitted")
	}
}
