package manifest

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/pyven-dev/pyven/pkg/pep440"
)

// RequirementsFile is the conventional manifest name.
const RequirementsFile = "requirements.txt"

// readRequirements parses a requirements.txt file. Option lines (leading
// "-"), comments, and URL or VCS references are skipped outright; lines
// that look like requirements but fail to parse are returned in bad so
// the caller can warn about them.
func readRequirements(path string) (reqs []*pep440.Requirement, bad []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '-' {
			continue
		}
		if strings.Contains(line, "://") || strings.HasPrefix(line, "git+") {
			continue
		}
		// Trailing comments are not part of the requirement.
		if i := strings.Index(line, " #"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		req, perr := pep440.ParseRequirement(line)
		if perr != nil || req.Name == "" {
			bad = append(bad, line)
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs, bad, scanner.Err()
}

// writeRequirements rewrites a requirements.txt file with one
// requirement per line, sorted by normalized package name.
func writeRequirements(path string, reqs []*pep440.Requirement) error {
	sorted := make([]*pep440.Requirement, len(reqs))
	copy(sorted, reqs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Normalized() < sorted[j].Normalized()
	})

	var b strings.Builder
	for _, r := range sorted {
		b.WriteString(r.String())
		b.WriteString("\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// upsertRequirement replaces the requirement with the same normalized
// name, or appends when absent.
func upsertRequirement(reqs []*pep440.Requirement, req *pep440.Requirement) []*pep440.Requirement {
	name := req.Normalized()
	for i, r := range reqs {
		if r.Normalized() == name {
			reqs[i] = req
			return reqs
		}
	}
	return append(reqs, req)
}

// removeRequirement drops every requirement with the given normalized
// name, reporting whether anything was removed.
func removeRequirement(reqs []*pep440.Requirement, normalized string) ([]*pep440.Requirement, bool) {
	out := reqs[:0]
	removed := false
	for _, r := range reqs {
		if r.Normalized() == normalized {
			removed = true
			continue
		}
		out = append(out, r)
	}
	return out, removed
}
