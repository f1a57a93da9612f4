package pep440

import (
	"regexp"
	"strings"
)

// Operator is a version constraint operator.
type Operator string

// Supported constraint operators, longest first so that prefix matching
// never mistakes ">=" for ">".
const (
	OpCompatible Operator = "~="
	OpEq         Operator = "=="
	OpNe         Operator = "!="
	OpGe         Operator = ">="
	OpLe         Operator = "<="
	OpGt         Operator = ">"
	OpLt         Operator = "<"
	OpNone       Operator = ""
)

// Operators lists all constraint operators in prefix-match order.
var Operators = []Operator{OpCompatible, OpEq, OpNe, OpGe, OpLe, OpGt, OpLt}

var clauseRE = regexp.MustCompile(`^(~=|==|!=|>=|<=|>|<)?\s*(\S+)$`)

// specifier is one parsed constraint clause.
type specifier struct {
	op      Operator
	version Version
}

// parseSpecifierSet parses a comma-separated specifier set such as
// ">=2.0.0,<3.0.0". A bare version with no operator is treated as an
// exact match ("==" semantics).
func parseSpecifierSet(spec string) ([]specifier, error) {
	var out []specifier
	for _, clause := range strings.Split(spec, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		m := clauseRE.FindStringSubmatch(clause)
		if m == nil {
			return nil, errInvalidSpec(spec)
		}
		op := Operator(m[1])
		if op == OpNone {
			op = OpEq
		}
		v, err := Parse(m[2])
		if err != nil {
			return nil, err
		}
		out = append(out, specifier{op: op, version: v})
	}
	return out, nil
}

func errInvalidSpec(spec string) error {
	return parseError("invalid version specifier: %q", spec)
}

// Compatible reports whether an installed version satisfies a required
// specifier set. An empty spec is always compatible. Any parse failure
// (of the installed version or of the spec) yields false: the check
// fails closed, never open.
func Compatible(installed, requiredSpec string) bool {
	if strings.TrimSpace(requiredSpec) == "" {
		return true
	}
	v, err := Parse(installed)
	if err != nil {
		return false
	}
	specs, err := parseSpecifierSet(requiredSpec)
	if err != nil {
		return false
	}
	for _, s := range specs {
		if !s.matches(v) {
			return false
		}
	}
	return true
}

func (s specifier) matches(v Version) bool {
	switch s.op {
	case OpEq:
		return Compare(v, s.version) == 0
	case OpNe:
		return Compare(v, s.version) != 0
	case OpGe:
		return Compare(v, s.version) >= 0
	case OpLe:
		return Compare(v, s.version) <= 0
	case OpGt:
		return Compare(v, s.version) > 0
	case OpLt:
		return Compare(v, s.version) < 0
	case OpCompatible:
		// ~=X.Y.Z means >=X.Y.Z with the same X.Y prefix; ~=X.Y means
		// >=X.Y with the same X prefix. A single-segment release is not
		// a valid compatible-release clause.
		if len(s.version.Release) < 2 {
			return false
		}
		if Compare(v, s.version) < 0 {
			return false
		}
		prefix := s.version.Release[:len(s.version.Release)-1]
		if len(v.Release) < len(prefix) {
			return false
		}
		return compareRelease(v.Release[:len(prefix)], prefix) == 0
	default:
		return false
	}
}
