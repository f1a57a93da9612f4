package reconcile

import (
	"sort"

	"github.com/pyven-dev/pyven/pkg/analyzer"
	"github.com/pyven-dev/pyven/pkg/manifest"
)

// PlanItem is one pending action on one package.
type PlanItem struct {
	Name             string // normalized name
	DisplayName      string
	InstalledVersion string // "" when not installed
	TargetSpec       string // declared spec driving the action, "" when none
}

// Plan holds the four disjoint action buckets a diagnosis produces.
// A package appears in at most one bucket.
type Plan struct {
	// Install: declared but not installed.
	Install []PlanItem
	// Update: installed at a version that fails the declared spec.
	Update []PlanItem
	// Deredundant: declared explicitly yet also a transitive dependency
	// of another installed package; the declaration gets removed.
	Deredundant []PlanItem
	// Declare: installed top-level but declared nowhere; a declaration
	// gets appended.
	Declare []PlanItem
}

// Empty reports whether there is nothing to do.
func (p *Plan) Empty() bool {
	return p.Count() == 0
}

// Count returns the total number of pending actions.
func (p *Plan) Count() int {
	return len(p.Install) + len(p.Update) + len(p.Deredundant) + len(p.Declare)
}

// buildPlan derives the action buckets from classifier output over the
// graph's top-level packages. TargetSpec carries the effective declared
// spec (requirements.txt precedence applied), not the display form.
func buildPlan(g *analyzer.Graph, declared map[string]*manifest.Declared) *Plan {
	plan := &Plan{}
	for _, name := range g.TopLevel() {
		info := g.Classify(name)
		item := PlanItem{
			Name:             info.Normalized,
			DisplayName:      info.Name,
			InstalledVersion: info.InstalledVersion,
		}
		if decl := declared[info.Normalized]; decl != nil {
			item.TargetSpec = decl.EffectiveSpec()
		}
		switch info.Status {
		case analyzer.StatusNotInstalled:
			plan.Install = append(plan.Install, item)
		case analyzer.StatusVersionMismatch, analyzer.StatusVersionConflict:
			plan.Update = append(plan.Update, item)
		case analyzer.StatusRedundant:
			plan.Deredundant = append(plan.Deredundant, item)
		case analyzer.StatusNotInRequirements:
			plan.Declare = append(plan.Declare, item)
		}
	}
	for _, bucket := range [][]PlanItem{plan.Install, plan.Update, plan.Deredundant, plan.Declare} {
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].Name < bucket[j].Name })
	}
	return plan
}
