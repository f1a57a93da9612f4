package pep440

import (
	"regexp"
	"strings"

	"github.com/pyven-dev/pyven/pkg/errors"
)

// Requirement is a parsed requirement string. Any of the fields may be
// empty: "flask==2.0.0" has all three, ">=1.0" has only operator and
// version, "1.0" has only a version, and "flask" has only a name.
type Requirement struct {
	Name    string   // Original (non-normalized) package name, "" if absent
	Extras  []string // Requested extras, sorted ("" entries removed)
	Op      Operator // Constraint operator, OpNone if absent
	Version string   // Version string, "" if absent
	Marker  string   // Raw environment marker after ";", "" if absent
}

// Normalized returns the PEP 503 normalized form of the requirement name.
func (r *Requirement) Normalized() string {
	return Normalize(r.Name)
}

// Spec returns the operator and version joined, e.g. ">=2.0.0".
// Returns "" when the requirement carries no version.
func (r *Requirement) Spec() string {
	if r.Version == "" {
		return ""
	}
	return string(r.Op) + r.Version
}

// String reassembles the requirement in canonical PEP 508 form
// (name, extras, operator, version; markers are dropped).
func (r *Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	b.WriteString(r.Spec())
	return b.String()
}

var nameRE = regexp.MustCompile(`^([a-zA-Z0-9][a-zA-Z0-9._-]*)(?:\[([^\]]*)\])?`)

// ParseRequirement parses a requirement string in any of the accepted
// shapes: a full spec ("pkg==1.0", "pkg[extra]>=2.0"), a bare constraint
// (">=1.0"), a bare version ("1.0"), or a bare name ("pkg"). An
// environment marker after ";" is retained verbatim in Marker.
//
// Returns an INVALID_FORMAT error when none of these shapes match.
func ParseRequirement(s string) (*Requirement, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, parseError("empty requirement")
	}

	var req Requirement
	if name, marker, ok := strings.Cut(raw, ";"); ok {
		raw = strings.TrimSpace(name)
		req.Marker = strings.TrimSpace(marker)
	}

	// Bare constraint or bare version: no leading name.
	if op, rest, ok := splitOperator(raw); ok {
		return finishVersionOnly(&req, op, rest)
	}
	if IsValid(raw) {
		return finishVersionOnly(&req, OpNone, raw)
	}

	m := nameRE.FindStringSubmatch(raw)
	if m == nil {
		return nil, parseError("invalid requirement: %q", s)
	}
	req.Name = m[1]
	if m[2] != "" {
		for _, e := range strings.Split(m[2], ",") {
			if e = strings.TrimSpace(e); e != "" {
				req.Extras = append(req.Extras, e)
			}
		}
	}

	rest := strings.TrimSpace(raw[len(m[0]):])
	if rest == "" {
		return &req, nil
	}
	op, version, ok := splitOperator(rest)
	if !ok {
		return nil, parseError("invalid requirement: %q", s)
	}
	req.Op = op
	req.Version = strings.TrimSpace(version)
	if req.Version == "" {
		return nil, parseError("invalid requirement: %q", s)
	}
	return &req, nil
}

func finishVersionOnly(req *Requirement, op Operator, version string) (*Requirement, error) {
	version = strings.TrimSpace(version)
	if !IsValid(version) {
		return nil, parseError("invalid version in requirement: %q", version)
	}
	req.Op = op
	req.Version = version
	return req, nil
}

// splitOperator splits a leading constraint operator off s.
func splitOperator(s string) (Operator, string, bool) {
	for _, op := range Operators {
		if strings.HasPrefix(s, string(op)) {
			return op, s[len(op):], true
		}
	}
	return OpNone, s, false
}

// StripOperator removes a leading constraint operator from a version
// spec, returning the bare version. Used when comparing the versions two
// declaration sources pin, where ">=1.0" and "==1.0" conflict only if
// the version numbers differ.
func StripOperator(spec string) string {
	_, rest, _ := splitOperator(strings.TrimSpace(spec))
	return strings.TrimSpace(rest)
}

func parseError(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidFormat, format, args...)
}
