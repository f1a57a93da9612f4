// Package analyzer classifies packages against their declarations and
// answers structural questions about the installed dependency graph:
// trees, reverse dependencies, conflicts, removal impact, and cycles.
package analyzer

import (
	"github.com/pyven-dev/pyven/pkg/inventory"
	"github.com/pyven-dev/pyven/pkg/manifest"
	"github.com/pyven-dev/pyven/pkg/pep440"
)

// Status is a package's consistency classification. Exactly one status
// applies per package per analysis pass.
type Status string

const (
	StatusNormal            Status = "normal"
	StatusNotInstalled      Status = "not_installed"       // declared, absent
	StatusNotInRequirements Status = "not_in_requirements" // installed, undeclared
	StatusRedundant         Status = "redundant"           // declared yet also a transitive dependency
	StatusVersionMismatch   Status = "version_mismatch"    // installed version fails declared spec
	StatusVersionConflict   Status = "version_conflict"    // sources pin different versions
)

// PackageInfo is the classifier's output for one package.
type PackageInfo struct {
	Name             string   // display name
	Normalized       string   // map key
	InstalledVersion string   // "" when not installed
	RequiredVersion  string   // formatted declared version, "" when undeclared
	Dependencies     []string // normalized direct dependency names
	Status           Status
}

// Classify computes the status of one package. allDeps is the union of
// every installed package's direct dependencies; membership there is
// what makes a declared package redundant. Precedence when several
// conditions hold: not_installed > redundant > not_in_requirements >
// version_conflict > version_mismatch > normal.
func Classify(name string, installed inventory.Snapshot, declared map[string]*manifest.Declared, allDeps map[string]bool) PackageInfo {
	key := pep440.Normalize(name)
	info := PackageInfo{Name: name, Normalized: key}

	pkg, isInstalled := installed[key]
	if isInstalled {
		info.Name = pkg.OriginalName
		info.InstalledVersion = pkg.Version
		info.Dependencies = pkg.Dependencies
	}

	decl := declared[key]
	if decl != nil {
		info.RequiredVersion = formatRequired(decl)
	}

	switch {
	case decl != nil && !isInstalled:
		info.Status = StatusNotInstalled
	case decl != nil && allDeps[key]:
		info.Status = StatusRedundant
	case decl == nil && isInstalled:
		info.Status = StatusNotInRequirements
	case decl == nil:
		// Referenced by a dependency edge but neither installed nor
		// declared: a missing transitive dependency.
		info.Status = StatusNotInstalled
	case decl.HasConflict():
		info.Status = StatusVersionConflict
	case !pep440.Compatible(info.InstalledVersion, decl.EffectiveSpec()):
		info.Status = StatusVersionMismatch
	default:
		info.Status = StatusNormal
	}
	return info
}

// formatRequired renders the declared version with its provenance:
// the bare spec for a single source, "<r> / <p>" when the sources
// disagree, and "<spec> (r+p)" when both sources agree.
func formatRequired(d *manifest.Declared) string {
	if d.InRequirements() && d.InPyproject() {
		r := d.Specs[manifest.SourceRequirements]
		p := d.Specs[manifest.SourcePyproject]
		if d.HasConflict() {
			return r + " / " + p
		}
		return d.EffectiveSpec() + " (r+p)"
	}
	return d.EffectiveSpec()
}
