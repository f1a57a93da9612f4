package manifest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/pyven-dev/pyven/pkg/pep440"
)

const pyprojectFixture = `[build-system]
requires = ["hatchling"]
build-backend = "hatchling.build"

[project]
name = "demo"
version = "0.1.0"
description = "demo project"
dependencies = [
    "flask==2.0.0",
    "uvicorn[standard]>=0.23",
]

[tool.black]
line-length = 100
`

func TestAddPyprojectPreservesSurroundings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, PyprojectFile, pyprojectFixture)

	s, err := Load(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if s.DetermineTarget() != TargetPyproject {
		t.Fatal("pyproject.toml should be the write target")
	}
	if err := s.Add("requests", "==2.31.0"); err != nil {
		t.Fatal(err)
	}

	got := readFile(t, filepath.Join(dir, PyprojectFile))
	want := `[build-system]
requires = ["hatchling"]
build-backend = "hatchling.build"

[project]
name = "demo"
version = "0.1.0"
description = "demo project"
dependencies = [
    "flask==2.0.0",
    "uvicorn[standard]>=0.23",
    "requests==2.31.0",
]

[tool.black]
line-length = 100
`
	if got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

func TestAddPyprojectUpsertsExisting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, PyprojectFile, pyprojectFixture)

	s, err := Load(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add("Flask", "==2.1.0"); err != nil {
		t.Fatal(err)
	}

	got := readFile(t, filepath.Join(dir, PyprojectFile))
	if want := "\"Flask==2.1.0\","; !strings.Contains(got, want) {
		t.Errorf("file should contain %q:\n%s", want, got)
	}
	if strings.Contains(got, "flask==2.0.0") {
		t.Errorf("old pin should be gone:\n%s", got)
	}
	// The extras entry with brackets must survive the edit untouched.
	if want := "\"uvicorn[standard]>=0.23\","; !strings.Contains(got, want) {
		t.Errorf("file should still contain %q:\n%s", want, got)
	}
}

func TestAddPyprojectSingleLineArray(t *testing.T) {
	content := []byte(`[project]
name = "demo"
dependencies = ["flask==2.0.0"]
`)
	req := mustParse(t, "requests==2.31.0")
	out, err := setPyprojectDependency(content, req)
	if err != nil {
		t.Fatal(err)
	}
	want := `[project]
name = "demo"
dependencies = ["flask==2.0.0", "requests==2.31.0"]
`
	if string(out) != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestAddPyprojectCreatesArray(t *testing.T) {
	content := []byte(`[project]
name = "demo"
version = "0.1.0"

[tool.black]
line-length = 100
`)
	req := mustParse(t, "flask==2.0.0")
	out, err := setPyprojectDependency(content, req)
	if err != nil {
		t.Fatal(err)
	}
	want := `[project]
name = "demo"
version = "0.1.0"
dependencies = [
    "flask==2.0.0",
]

[tool.black]
line-length = 100
`
	if string(out) != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestAddPyprojectNoProjectTable(t *testing.T) {
	content := []byte("[tool.black]\nline-length = 100\n")
	if _, err := setPyprojectDependency(content, mustParse(t, "flask")); err == nil {
		t.Error("adding without a [project] table should fail")
	}
}

func TestRemovePyprojectMissingIsNoop(t *testing.T) {
	content := []byte(pyprojectFixture)
	out, removed, err := removePyprojectDependency(content, "requests")
	if err != nil {
		t.Fatal(err)
	}
	if removed {
		t.Error("nothing should have been removed")
	}
	if string(out) != pyprojectFixture {
		t.Error("content should be untouched")
	}
}

func TestRemovePyprojectLastDependency(t *testing.T) {
	content := []byte(`[project]
name = "demo"
dependencies = [
    "flask==2.0.0",
]
`)
	out, removed, err := removePyprojectDependency(content, "flask")
	if err != nil {
		t.Fatal(err)
	}
	if !removed {
		t.Fatal("flask should have been removed")
	}
	want := `[project]
name = "demo"
dependencies = []
`
	if string(out) != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func mustParse(t *testing.T, s string) *pep440.Requirement {
	t.Helper()
	req, err := pep440.ParseRequirement(s)
	if err != nil {
		t.Fatal(err)
	}
	return req
}
