// Package reconcile drives declared dependencies and the installed
// environment back into agreement: installing what is missing, updating
// what mismatches, dropping redundant declarations, and declaring
// installed strays. Failed installs are retried once with the nearest
// available version.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pyven-dev/pyven/pkg/analyzer"
	"github.com/pyven-dev/pyven/pkg/errors"
	"github.com/pyven-dev/pyven/pkg/installer"
	"github.com/pyven-dev/pyven/pkg/inventory"
	"github.com/pyven-dev/pyven/pkg/manifest"
	"github.com/pyven-dev/pyven/pkg/pep440"
)

// Action names the kind of work an item represents.
type Action string

const (
	ActionInstall     Action = "install"
	ActionUpdate      Action = "update"
	ActionDeredundant Action = "deredundant"
	ActionDeclare     Action = "declare"
	ActionRemove      Action = "remove"
)

// ItemResult records the outcome of one attempted action. Every item in
// a plan gets exactly one record; failures never abort the run.
type ItemResult struct {
	RunID   string `json:"run_id"`
	Name    string `json:"name"`
	Action  Action `json:"action"`
	Success bool   `json:"success"`
	Version string `json:"version,omitempty"` // version installed or declared
	Message string `json:"message,omitempty"` // short cause on failure

	// Auto-fix fields, set when the first attempt failed and a retry
	// with the nearest available version was made.
	AutoFixed        bool   `json:"auto_fixed,omitempty"`
	RequestedVersion string `json:"requested_version,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// Report aggregates one Apply run.
type Report struct {
	RunID  string       `json:"run_id"`
	Fixed  int          `json:"fixed"`
	Failed int          `json:"failed"`
	Items  []ItemResult `json:"items"`
}

func (r *Report) add(item ItemResult) {
	r.Items = append(r.Items, item)
	if item.Success {
		r.Fixed++
	} else {
		r.Failed++
	}
}

// PipRunner is the slice of the installer adapter the engine needs.
type PipRunner interface {
	Install(ctx context.Context, spec string, opts installer.InstallOptions) (installer.Result, error)
	Uninstall(ctx context.Context, name string) (installer.Result, error)
}

// VersionSource lists the versions an index offers for a package.
type VersionSource interface {
	FetchVersions(ctx context.Context, pkg string, refresh bool) ([]string, error)
}

// Snapshotter is the slice of the inventory the engine needs.
type Snapshotter interface {
	Snapshot(ctx context.Context, excludeSystem bool) (inventory.Snapshot, error)
	Invalidate(ctx context.Context) error
}

// Engine reconciles one project.
type Engine struct {
	store   *manifest.Store
	scanner Snapshotter
	pip     PipRunner
	index   VersionSource
	logger  *log.Logger
}

// New creates an engine. index may be nil; auto-fix then relies solely
// on pip's own error output for candidate versions.
func New(store *manifest.Store, scanner Snapshotter, pip PipRunner, index VersionSource, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{store: store, scanner: scanner, pip: pip, index: index, logger: logger}
}

// Diagnose computes the action plan without touching anything.
func (e *Engine) Diagnose(ctx context.Context) (*Plan, error) {
	snap, err := e.scanner.Snapshot(ctx, true)
	if err != nil {
		return nil, err
	}
	declared := e.store.Entries()
	return buildPlan(analyzer.New(snap, declared), declared), nil
}

// Apply executes a plan: updates, then installs, then redundant
// declaration removals, then new declarations. Items are attempted
// independently; a failure is recorded and the run continues. The
// inventory cache is invalidated after every mutating action.
func (e *Engine) Apply(ctx context.Context, plan *Plan) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}

	for _, item := range plan.Update {
		report.add(e.install(ctx, report.RunID, item, ActionUpdate, installer.InstallOptions{}))
	}
	for _, item := range plan.Install {
		report.add(e.install(ctx, report.RunID, item, ActionInstall, installer.InstallOptions{}))
	}
	for _, item := range plan.Deredundant {
		res := ItemResult{RunID: report.RunID, Name: item.Name, Action: ActionDeredundant, Success: true}
		if err := e.store.Remove(item.Name); err != nil {
			res.Success = false
			res.Message = err.Error()
		}
		report.add(res)
	}
	for _, item := range plan.Declare {
		res := ItemResult{
			RunID:   report.RunID,
			Name:    item.Name,
			Action:  ActionDeclare,
			Success: true,
			Version: item.InstalledVersion,
		}
		if err := e.store.Add(item.DisplayName, "=="+item.InstalledVersion); err != nil {
			res.Success = false
			res.Message = err.Error()
		}
		report.add(res)
	}

	return report, nil
}

// install performs one install/update attempt with the auto-fix retry.
func (e *Engine) install(ctx context.Context, runID string, item PlanItem, action Action, opts installer.InstallOptions) ItemResult {
	res := ItemResult{RunID: runID, Name: item.Name, Action: action}

	spec := item.DisplayName + item.TargetSpec
	opts.Upgrade = opts.Upgrade || action == ActionUpdate

	out, err := e.pip.Install(ctx, spec, opts)
	if err != nil {
		res.Message = err.Error()
		return res
	}
	if out.Success {
		e.invalidate(ctx)
		res.Success = true
		// Only an exact pin tells us which version pip installed.
		if strings.HasPrefix(item.TargetSpec, "==") {
			res.Version = pep440.StripOperator(item.TargetSpec)
		}
		return res
	}

	requested := pep440.StripOperator(item.TargetSpec)
	if installer.IsVersionNotFound(out.Stderr) && requested != "" {
		return e.autoFix(ctx, res, item, requested, out)
	}

	res.Message = shortCause(out.Stderr)
	res.Reason = classifyFailure(out.Stderr)
	return res
}

func (e *Engine) invalidate(ctx context.Context) {
	if err := e.scanner.Invalidate(ctx); err != nil {
		e.logger.Warn("failed to invalidate inventory cache", "error", err)
	}
}

// AddOptions modify how AddPackages installs.
type AddOptions struct {
	// Editable installs with pip's -e flag.
	Editable bool

	// NoDeps skips the package's own dependencies.
	NoDeps bool
}

// AddPackages installs and declares each named package independently.
// Specs accept every requirement shape an operator might type
// ("flask", "flask==2.0.0", "uvicorn[standard]>=0.23").
func (e *Engine) AddPackages(ctx context.Context, specs []string, opts AddOptions) []ItemResult {
	runID := uuid.NewString()
	var results []ItemResult

	for _, raw := range specs {
		req, err := pep440.ParseRequirement(raw)
		if err != nil || req.Name == "" {
			results = append(results, ItemResult{
				RunID:   runID,
				Name:    raw,
				Action:  ActionInstall,
				Message: fmt.Sprintf("invalid requirement %q", raw),
			})
			continue
		}
		if err := errors.ValidatePackageName(req.Name); err != nil {
			results = append(results, ItemResult{
				RunID:   runID,
				Name:    req.Name,
				Action:  ActionInstall,
				Message: errors.UserMessage(err),
			})
			continue
		}

		item := PlanItem{Name: req.Normalized(), DisplayName: req.Name, TargetSpec: req.Spec()}
		res := e.install(ctx, runID, item, ActionInstall, installer.InstallOptions{
			Editable: opts.Editable,
			NoDeps:   opts.NoDeps,
		})
		if res.Success {
			version := res.Version
			if version == "" {
				version = e.installedVersion(ctx, req.Normalized())
			}
			res.Version = version
			declSpec := ""
			if version != "" {
				declSpec = "==" + version
			}
			if err := e.store.Add(req.Name, declSpec); err != nil {
				res.Success = false
				res.Message = fmt.Sprintf("installed but not declared: %v", err)
			}
		}
		results = append(results, res)
	}
	return results
}

// RemovePackages uninstalls and undeclares each named package
// independently.
func (e *Engine) RemovePackages(ctx context.Context, names []string) []ItemResult {
	runID := uuid.NewString()
	var results []ItemResult

	for _, name := range names {
		res := ItemResult{RunID: runID, Name: pep440.Normalize(name), Action: ActionRemove}

		if err := errors.ValidatePackageName(name); err != nil {
			res.Message = errors.UserMessage(err)
			results = append(results, res)
			continue
		}

		out, err := e.pip.Uninstall(ctx, name)
		switch {
		case err != nil:
			res.Message = err.Error()
		case !out.Success:
			res.Message = shortCause(out.Stderr)
		default:
			e.invalidate(ctx)
			res.Success = true
		}

		if res.Success {
			if err := e.store.Remove(name); err != nil {
				res.Success = false
				res.Message = fmt.Sprintf("uninstalled but still declared: %v", err)
			}
		}
		results = append(results, res)
	}
	return results
}

// installedVersion looks a package's version up in a fresh snapshot.
func (e *Engine) installedVersion(ctx context.Context, normalized string) string {
	snap, err := e.scanner.Snapshot(ctx, false)
	if err != nil {
		return ""
	}
	return snap[normalized].Version
}
