// Package manifest reads and writes the files a project declares its
// dependencies in: requirements.txt and the [project] table of
// pyproject.toml. The two sources are merged into one declared-dependency
// view keyed by normalized package name, with requirements.txt taking
// precedence when both pin the same package.
package manifest

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/pyven-dev/pyven/pkg/pep440"
)

// Source identifies where a dependency is declared.
type Source string

const (
	SourceRequirements Source = "requirements"
	SourcePyproject    Source = "pyproject"
)

// Declared is one declared dependency, possibly present in both sources.
type Declared struct {
	Name  string            // name as first seen (original casing)
	Specs map[Source]string // operator+version per source, "" when unpinned
}

// InRequirements reports whether the package is declared in requirements.txt.
func (d *Declared) InRequirements() bool {
	_, ok := d.Specs[SourceRequirements]
	return ok
}

// InPyproject reports whether the package is declared in pyproject.toml.
func (d *Declared) InPyproject() bool {
	_, ok := d.Specs[SourcePyproject]
	return ok
}

// SourceTag returns the display tag for where the package is declared:
// "r", "p", or "r+p".
func (d *Declared) SourceTag() string {
	switch {
	case d.InRequirements() && d.InPyproject():
		return "r+p"
	case d.InPyproject():
		return "p"
	default:
		return "r"
	}
}

// HasConflict reports whether the two sources pin different version
// numbers. Operators are ignored for the comparison: ">=1.0" and "==1.0"
// agree, "==1.0" and "==2.0" conflict. A package pinned in only one
// source, or unpinned in either, never conflicts.
func (d *Declared) HasConflict() bool {
	r, okR := d.Specs[SourceRequirements]
	p, okP := d.Specs[SourcePyproject]
	if !okR || !okP || r == "" || p == "" {
		return false
	}
	return pep440.StripOperator(r) != pep440.StripOperator(p)
}

// EffectiveSpec returns the spec reconciliation acts on. When both
// sources declare the package, requirements.txt wins.
func (d *Declared) EffectiveSpec() string {
	if spec, ok := d.Specs[SourceRequirements]; ok && spec != "" {
		return spec
	}
	if spec, ok := d.Specs[SourcePyproject]; ok {
		return spec
	}
	return d.Specs[SourceRequirements]
}

// PinnedVersion returns the bare version of the effective spec, or ""
// when the package is declared without a version.
func (d *Declared) PinnedVersion() string {
	return pep440.StripOperator(d.EffectiveSpec())
}

// Store is the declared-dependency view of one project directory.
type Store struct {
	dir    string
	logger *log.Logger

	reqPath    string // "" when requirements.txt is absent
	pyPath     string // "" when pyproject.toml is absent
	hasProject bool   // pyproject.toml carries a [project] table

	reqs    []*pep440.Requirement // requirements.txt entries, file order
	entries map[string]*Declared  // merged view, keyed by normalized name
}

// Load reads the declaration files present in dir. Neither file is
// required; a project with no manifests yields an empty store and writes
// create requirements.txt on demand. Malformed entries are skipped with
// a warning rather than failing the load.
func Load(dir string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Store{
		dir:     dir,
		logger:  logger,
		entries: make(map[string]*Declared),
	}

	reqPath := filepath.Join(dir, RequirementsFile)
	if _, err := os.Stat(reqPath); err == nil {
		s.reqPath = reqPath
		reqs, bad, err := readRequirements(reqPath)
		if err != nil {
			return nil, err
		}
		for _, line := range bad {
			logger.Warn("skipping malformed requirement", "file", RequirementsFile, "line", line)
		}
		s.reqs = reqs
		for _, r := range reqs {
			s.record(SourceRequirements, r)
		}
	}

	pyPath := filepath.Join(dir, PyprojectFile)
	if _, err := os.Stat(pyPath); err == nil {
		s.pyPath = pyPath
		doc, hasProject, err := readPyproject(pyPath)
		if err != nil {
			return nil, err
		}
		s.hasProject = hasProject
		for _, dep := range doc.Project.Dependencies {
			r, perr := pep440.ParseRequirement(dep)
			if perr != nil || r.Name == "" {
				logger.Warn("skipping malformed dependency", "file", PyprojectFile, "entry", dep)
				continue
			}
			s.record(SourcePyproject, r)
		}
	}

	return s, nil
}

func (s *Store) record(src Source, r *pep440.Requirement) {
	key := r.Normalized()
	d, ok := s.entries[key]
	if !ok {
		d = &Declared{Name: r.Name, Specs: make(map[Source]string)}
		s.entries[key] = d
	}
	d.Specs[src] = r.Spec()
}

// Dir returns the project directory the store was loaded from.
func (s *Store) Dir() string { return s.dir }

// HasRequirements reports whether requirements.txt exists.
func (s *Store) HasRequirements() bool { return s.reqPath != "" }

// HasPyproject reports whether pyproject.toml declares a [project] table.
func (s *Store) HasPyproject() bool { return s.pyPath != "" && s.hasProject }

// Entries returns the merged declared-dependency view, keyed by
// normalized package name. The map is the store's own; callers must not
// mutate it.
func (s *Store) Entries() map[string]*Declared { return s.entries }

// Get returns the declaration for a package name (any spelling), or nil.
func (s *Store) Get(name string) *Declared {
	return s.entries[pep440.Normalize(name)]
}

// Target identifies which file declaration writes go to.
type Target int

const (
	TargetRequirements Target = iota
	TargetPyproject
)

// DetermineTarget picks the file Add writes to. A pyproject.toml with a
// [project] table wins over requirements.txt; with neither present, a new
// requirements.txt is created.
func (s *Store) DetermineTarget() Target {
	if s.HasPyproject() {
		return TargetPyproject
	}
	return TargetRequirements
}

// Add declares name at the given spec (e.g. "==2.0.0") in the target
// file, replacing any existing declaration of the same package there.
// Idempotent: adding an identical declaration twice leaves the file
// byte-identical.
func (s *Store) Add(name, spec string) error {
	req, err := pep440.ParseRequirement(name + spec)
	if err != nil {
		return err
	}

	if s.DetermineTarget() == TargetPyproject {
		content, err := os.ReadFile(s.pyPath)
		if err != nil {
			return err
		}
		updated, err := setPyprojectDependency(content, req)
		if err != nil {
			return err
		}
		if err := os.WriteFile(s.pyPath, updated, 0644); err != nil {
			return err
		}
		s.record(SourcePyproject, req)
		return nil
	}

	if s.reqPath == "" {
		s.reqPath = filepath.Join(s.dir, RequirementsFile)
	}
	s.reqs = upsertRequirement(s.reqs, req)
	if err := writeRequirements(s.reqPath, s.reqs); err != nil {
		return err
	}
	s.record(SourceRequirements, req)
	return nil
}

// Remove drops the declaration of name from every file that carries it.
// Removing an undeclared package is a no-op.
func (s *Store) Remove(name string) error {
	key := pep440.Normalize(name)

	if s.reqPath != "" {
		var removed bool
		s.reqs, removed = removeRequirement(s.reqs, key)
		if removed {
			if err := writeRequirements(s.reqPath, s.reqs); err != nil {
				return err
			}
		}
	}

	if s.pyPath != "" {
		content, err := os.ReadFile(s.pyPath)
		if err != nil {
			return err
		}
		updated, removed, err := removePyprojectDependency(content, key)
		if err != nil {
			return err
		}
		if removed {
			if err := os.WriteFile(s.pyPath, updated, 0644); err != nil {
				return err
			}
		}
	}

	delete(s.entries, key)
	return nil
}
