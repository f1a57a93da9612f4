package inventory

import (
	"bufio"
	"io"
	"regexp"
	"runtime"
	"strings"

	"github.com/pyven-dev/pyven/pkg/pep440"
)

// distMetadata is the subset of the core metadata spec pyven reads.
type distMetadata struct {
	Name         string
	Version      string
	RequiresDist []string
}

// parseMetadata reads the RFC 822 style header block of a METADATA or
// PKG-INFO file. Parsing stops at the first blank line; everything after
// it is the package description.
func parseMetadata(r io.Reader) (distMetadata, error) {
	var md distMetadata
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Name":
			md.Name = value
		case "Version":
			md.Version = value
		case "Requires-Dist":
			md.RequiresDist = append(md.RequiresDist, value)
		}
	}
	return md, scanner.Err()
}

// excludedExtras are the extras whose dependencies never count as
// runtime dependencies: tooling for developing a package is not part of
// depending on it.
var excludedExtras = map[string]bool{
	"development": true, "dev": true,
	"test": true, "testing": true,
	"doc": true, "docs": true, "documentation": true,
	"lint": true, "linting": true,
	"typing": true, "check": true,
}

var (
	extraMarkerRE    = regexp.MustCompile(`extra\s*==\s*['"]([^'"]+)['"]`)
	platformMarkerRE = regexp.MustCompile(`sys_platform\s*(==|!=)\s*['"]([^'"]+)['"]`)
)

// currentPlatform maps GOOS to Python's sys.platform values.
func currentPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "win32"
	case "darwin":
		return "darwin"
	default:
		return runtime.GOOS
	}
}

// keepRequirement decides whether a Requires-Dist marker applies to this
// environment. Dependencies gated on an excluded extra are dropped, as
// are dependencies for other platforms. Markers pyven cannot evaluate
// (python_version and friends) are kept: over-reporting a dependency is
// safer than hiding one.
func keepRequirement(marker string, extra map[string]bool) bool {
	if marker == "" {
		return true
	}
	if m := extraMarkerRE.FindStringSubmatch(marker); m != nil {
		name := strings.ToLower(m[1])
		if excludedExtras[name] || extra[name] {
			return false
		}
	}
	if m := platformMarkerRE.FindStringSubmatch(marker); m != nil {
		matches := m[2] == currentPlatform()
		if m[1] == "==" && !matches {
			return false
		}
		if m[1] == "!=" && matches {
			return false
		}
	}
	return true
}

// parseRequiresDist extracts the normalized dependency name and version
// spec from a Requires-Dist value such as
// `requests (>=2.28) ; extra == "security"`. ok is false when the marker
// rules the dependency out or the value is unparseable. extra names
// additional excluded extras beyond the builtin set.
func parseRequiresDist(value string, extra map[string]bool) (name, spec string, ok bool) {
	raw, marker, _ := strings.Cut(value, ";")
	if !keepRequirement(strings.TrimSpace(marker), extra) {
		return "", "", false
	}

	// Older metadata wraps the version constraint in parentheses.
	raw = strings.NewReplacer("(", "", ")", "").Replace(raw)
	req, err := pep440.ParseRequirement(strings.TrimSpace(raw))
	if err != nil || req.Name == "" {
		return "", "", false
	}
	return req.Normalized(), req.Spec(), true
}
