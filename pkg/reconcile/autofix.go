package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/pyven-dev/pyven/pkg/installer"
	"github.com/pyven-dev/pyven/pkg/pep440"
)

// Auto-fix reasons shown to the operator. Chosen by substring inspection
// of pip's failure text.
const (
	ReasonVersionNotFound = "Version not found"
	ReasonDependency      = "Dependency conflict"
	ReasonPython          = "Python compatibility issue"
	ReasonInstallFailed   = "Installation failed"
)

// autoFix retries one failed install with the single nearest available
// version. Candidates come from pip's own "from versions:" error line
// when present, else from the package index. Exactly one retry is made;
// if it fails too, the item fails with the original classification.
func (e *Engine) autoFix(ctx context.Context, res ItemResult, item PlanItem, requested string, failed installer.Result) ItemResult {
	res.RequestedVersion = requested
	res.Reason = classifyFailure(failed.Stderr)

	candidates := installer.AvailableVersions(failed.Stderr)
	if candidates == nil && e.index != nil {
		fetched, err := e.index.FetchVersions(ctx, item.Name, false)
		if err != nil {
			e.logger.Warn("failed to query index for versions", "package", item.Name, "error", err)
		}
		candidates = fetched
	}

	nearest := pep440.Nearest(requested, candidates)
	if nearest == "" || nearest == requested {
		res.Message = shortCause(failed.Stderr)
		return res
	}

	e.logger.Info("retrying with nearest available version",
		"package", item.Name, "requested", requested, "nearest", nearest)

	out, err := e.pip.Install(ctx, item.DisplayName+"=="+nearest, installer.InstallOptions{Upgrade: true})
	if err != nil {
		res.Message = err.Error()
		return res
	}
	if !out.Success {
		res.Message = shortCause(out.Stderr)
		return res
	}

	e.invalidate(ctx)
	res.Success = true
	res.AutoFixed = true
	res.Version = nearest
	// Re-pin the declaration to what actually got installed, otherwise
	// every later diagnosis re-flags the nonexistent requested version.
	if err := e.store.Add(item.DisplayName, "=="+nearest); err != nil {
		res.Success = false
		res.Message = fmt.Sprintf("installed but not declared: %v", err)
	}
	return res
}

// classifyFailure maps pip's error text onto a human-readable reason.
func classifyFailure(stderr string) string {
	lower := strings.ToLower(stderr)
	switch {
	case installer.IsVersionNotFound(stderr):
		return ReasonVersionNotFound
	case strings.Contains(lower, "conflict") || strings.Contains(lower, "resolutionimpossible"):
		return ReasonDependency
	case strings.Contains(lower, "requires-python") || strings.Contains(lower, "requires python"):
		return ReasonPython
	default:
		return ReasonInstallFailed
	}
}

// shortCause compresses pip stderr to its first ERROR line, or the first
// non-blank line when pip did not say ERROR.
func shortCause(stderr string) string {
	var first string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if first == "" {
			first = line
		}
		if strings.HasPrefix(line, "ERROR:") {
			return line
		}
	}
	if first == "" {
		return "installer failed"
	}
	return first
}
