// Package pep440 implements the subset of PEP 440 version handling that
// pyven needs: version validation and ordering, requirement parsing,
// compatibility checks against specifier sets, and a numeric distance
// metric used to rank fallback candidates when a requested version does
// not exist on the index.
//
// Package names are normalized following PEP 503 (lowercase, runs of
// ".", "_" and "-" folded to a single hyphen), matching what PyPI does.
package pep440

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pyven-dev/pyven/pkg/errors"
)

// versionRE matches MAJOR.MINOR or MAJOR.MINOR.PATCH, an optional
// pre-release ((a|b|rc|alpha|beta)N, no separating dot), optional .devN,
// optional .postN, and an optional +local identifier. Any other separator
// (hyphen, underscore) is rejected.
var versionRE = regexp.MustCompile(
	`^(\d+\.\d+(?:\.\d+)?)` +
		`(?:(a|b|rc|alpha|beta)(\d+))?` +
		`(?:\.dev(\d+))?` +
		`(?:\.post(\d+))?` +
		`(?:\+[a-zA-Z0-9]+(?:\.[a-zA-Z0-9]+)*)?$`)

// Version is a parsed PEP 440 version.
// The zero value is not meaningful; use Parse.
type Version struct {
	Release []int  // Release segments (e.g., [1 2 0] for "1.2.0")
	Pre     string // Normalized pre-release phase: "a", "b", or "rc" ("" if none)
	PreNum  int    // Pre-release ordinal (valid only when Pre != "")
	Dev     int    // Development release number (valid only when HasDev)
	HasDev  bool
	Post    int // Post-release number (valid only when HasPost)
	HasPost bool
}

// IsValid reports whether s matches the version grammar.
func IsValid(s string) bool {
	return versionRE.MatchString(s)
}

// Parse parses a version string.
// Returns an INVALID_VERSION error when s does not match the grammar.
func Parse(s string) (Version, error) {
	m := versionRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, errors.New(errors.ErrCodeInvalidVersion, "invalid version: %q", s)
	}

	var v Version
	for _, part := range strings.Split(m[1], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, errors.New(errors.ErrCodeInvalidVersion, "invalid version: %q", s)
		}
		v.Release = append(v.Release, n)
	}

	if m[2] != "" {
		v.Pre = normalizePrePhase(m[2])
		v.PreNum, _ = strconv.Atoi(m[3])
	}
	if m[4] != "" {
		v.HasDev = true
		v.Dev, _ = strconv.Atoi(m[4])
	}
	if m[5] != "" {
		v.HasPost = true
		v.Post, _ = strconv.Atoi(m[5])
	}
	return v, nil
}

// normalizePrePhase maps the spelled-out phases to their canonical forms.
func normalizePrePhase(phase string) string {
	switch phase {
	case "alpha":
		return "a"
	case "beta":
		return "b"
	default:
		return phase
	}
}

// IsPreRelease reports whether the version is a pre-release (including
// dev releases, which sort before any pre-release of the same version).
func (v Version) IsPreRelease() bool {
	return v.Pre != "" || v.HasDev
}

// prePhaseRank orders pre-release phases: a < b < rc.
func prePhaseRank(phase string) int {
	switch phase {
	case "a":
		return 0
	case "b":
		return 1
	case "rc":
		return 2
	default:
		return 3
	}
}

// Compare returns -1, 0, or 1 ordering v against w per PEP 440:
// release segments first (shorter releases padded with zeros), then
// dev < pre-release < final < post-release within the same release.
// Local version identifiers are ignored.
func Compare(v, w Version) int {
	if c := compareRelease(v.Release, w.Release); c != 0 {
		return c
	}

	// Pre-release phase. A version with no pre segment but a dev segment
	// sorts before every pre-release of the same release.
	if c := cmpInt(phaseKey(v), phaseKey(w)); c != 0 {
		return c
	}
	if v.Pre != "" && w.Pre != "" {
		if c := cmpInt(v.PreNum, w.PreNum); c != 0 {
			return c
		}
	}

	// Post-release: X.Y < X.Y.postN.
	if c := cmpInt(postKey(v), postKey(w)); c != 0 {
		return c
	}
	if v.HasPost && w.HasPost {
		if c := cmpInt(v.Post, w.Post); c != 0 {
			return c
		}
	}

	// Dev release sorts before its target: X.YaN.devM < X.YaN.
	if v.HasDev != w.HasDev {
		if v.HasDev {
			return -1
		}
		return 1
	}
	if v.HasDev && w.HasDev {
		return cmpInt(v.Dev, w.Dev)
	}
	return 0
}

func phaseKey(v Version) int {
	if v.Pre != "" {
		return prePhaseRank(v.Pre)
	}
	if v.HasDev && !v.HasPost {
		return -1 // 1.0.dev1 < 1.0a1
	}
	return 3
}

func postKey(v Version) int {
	if v.HasPost {
		return 1
	}
	return 0
}

func compareRelease(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if c := cmpInt(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

var normalizeRE = regexp.MustCompile(`[-_.]+`)

// Normalize converts a package name to its canonical form following
// PEP 503: lowercase, with runs of hyphens, underscores, and dots folded
// to a single hyphen. Two names refer to the same package iff their
// normalized forms are equal.
func Normalize(name string) string {
	return normalizeRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
