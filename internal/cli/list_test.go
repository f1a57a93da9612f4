package cli

import (
	"strings"
	"testing"

	"github.com/pyven-dev/pyven/pkg/analyzer"
	"github.com/pyven-dev/pyven/pkg/inventory"
	"github.com/pyven-dev/pyven/pkg/manifest"
)

func testGraph() *analyzer.Graph {
	installed := inventory.Snapshot{
		"flask":    {OriginalName: "Flask", Version: "2.0.0", Dependencies: []string{"werkzeug"}},
		"werkzeug": {OriginalName: "Werkzeug", Version: "2.3.0"},
	}
	declared := map[string]*manifest.Declared{
		"flask": {Name: "Flask", Specs: map[manifest.Source]string{manifest.SourceRequirements: "==2.0.0"}},
	}
	return analyzer.New(installed, declared)
}

func TestListRowsTopLevelOnly(t *testing.T) {
	rows := listRows(testGraph(), false)

	if len(rows) != 1 || rows[0].Normalized != "flask" {
		t.Fatalf("rows = %+v, want only flask", rows)
	}
}

func TestListRowsAll(t *testing.T) {
	rows := listRows(testGraph(), true)

	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Normalized != "flask" || rows[1].Normalized != "werkzeug" {
		t.Errorf("rows = %+v, want flask then werkzeug", rows)
	}
}

func TestRenderTree(t *testing.T) {
	g := testGraph()
	out := renderTree(g.BuildTree("flask"))

	if !strings.Contains(out, "Flask@2.0.0") {
		t.Errorf("output missing root label:\n%s", out)
	}
	if !strings.Contains(out, "└── ") || !strings.Contains(out, "Werkzeug@2.3.0") {
		t.Errorf("output missing dependency branch:\n%s", out)
	}
}

func TestRenderTreeMissingPackage(t *testing.T) {
	installed := inventory.Snapshot{}
	declared := map[string]*manifest.Declared{
		"flask": {Name: "Flask", Specs: map[manifest.Source]string{manifest.SourceRequirements: "==2.0.0"}},
	}
	g := analyzer.New(installed, declared)

	out := renderTree(g.BuildTree("flask"))
	if !strings.Contains(out, "(missing)") {
		t.Errorf("missing package should be marked:\n%s", out)
	}
}

func TestOrDash(t *testing.T) {
	if orDash("") != "-" {
		t.Error(`orDash("") should be "-"`)
	}
	if orDash("1.0") != "1.0" {
		t.Error("orDash should pass values through")
	}
}
