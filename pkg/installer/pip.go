// Package installer shells out to a virtual environment's pip. The core
// treats it as an opaque install/uninstall service that reports success
// and raw output; all interpretation of pip's error text lives with the
// callers.
package installer

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pyven-dev/pyven/pkg/errors"
	"github.com/pyven-dev/pyven/pkg/venv"
)

// DefaultTimeout bounds a single pip invocation. Network-backed installs
// can otherwise hang indefinitely.
const DefaultTimeout = 5 * time.Minute

// Result is the raw outcome of one pip invocation.
type Result struct {
	Success bool
	Stdout  string
	Stderr  string
}

// InstallOptions modify an install invocation.
type InstallOptions struct {
	Editable bool // pip install -e
	NoDeps   bool // pip install --no-deps
	Upgrade  bool // pip install --upgrade
}

// Pip runs the pip bound to one environment.
type Pip struct {
	env    venv.Context
	logger *log.Logger

	// Timeout per invocation. Zero means DefaultTimeout.
	Timeout time.Duration

	// IndexURL overrides pip's package index when non-empty.
	IndexURL string
}

// NewPip creates an adapter for the environment's pip executable.
func NewPip(env venv.Context, logger *log.Logger) *Pip {
	if logger == nil {
		logger = log.Default()
	}
	return &Pip{env: env, logger: logger}
}

// Install runs pip install for a requirement spec such as
// "requests==2.31.0". A non-zero pip exit is reported through
// Result.Success, not through err; err is reserved for failures to run
// pip at all.
func (p *Pip) Install(ctx context.Context, spec string, opts InstallOptions) (Result, error) {
	args := []string{"install"}
	if opts.Upgrade {
		args = append(args, "--upgrade")
	}
	if opts.NoDeps {
		args = append(args, "--no-deps")
	}
	if opts.Editable {
		args = append(args, "-e")
	}
	if p.IndexURL != "" {
		args = append(args, "--index-url", p.IndexURL)
	}
	args = append(args, spec)
	return p.run(ctx, args)
}

// Uninstall runs pip uninstall -y for a package name.
func (p *Pip) Uninstall(ctx context.Context, name string) (Result, error) {
	return p.run(ctx, []string{"uninstall", "-y", name})
}

func (p *Pip) run(ctx context.Context, args []string) (Result, error) {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p.logger.Debug("running pip", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, p.env.Pip, args...)
	cmd.Env = append(os.Environ(), "PIP_DISABLE_PIP_VERSION_CHECK=1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Success: err == nil,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return result, errors.Wrap(errors.ErrCodeTimeout, err, "pip timed out after %s", timeout)
		}
		var exitErr *exec.ExitError
		if !stderrors.As(err, &exitErr) {
			return result, errors.Wrap(errors.ErrCodeInstallerFailed, err, "failed to run pip")
		}
	}
	return result, nil
}

var fromVersionsRE = regexp.MustCompile(`from versions:\s*([^)]*)\)`)

// AvailableVersions scrapes pip's "from versions: ..." error line for
// the versions the index offered. Returns nil when the pattern is
// absent; the caller falls back to querying the index directly.
func AvailableVersions(stderr string) []string {
	m := fromVersionsRE.FindStringSubmatch(stderr)
	if m == nil {
		return nil
	}
	var versions []string
	for _, v := range strings.Split(m[1], ",") {
		v = strings.TrimSpace(v)
		if v == "" || v == "none" {
			continue
		}
		versions = append(versions, v)
	}
	return versions
}

// IsVersionNotFound reports whether pip's error text belongs to the
// "requested version does not exist" family that triggers auto-fix.
func IsVersionNotFound(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "could not find a version") ||
		strings.Contains(lower, "no matching distribution")
}
