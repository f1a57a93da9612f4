package manifest

import (
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/pyven-dev/pyven/pkg/errors"
	"github.com/pyven-dev/pyven/pkg/pep440"
)

// PyprojectFile is the conventional manifest name.
const PyprojectFile = "pyproject.toml"

type pyprojectDoc struct {
	Project pyprojectProject `toml:"project"`
}

type pyprojectProject struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Dependencies []string `toml:"dependencies"`
}

// readPyproject decodes pyproject.toml. hasProject reports whether the
// file carries a [project] table at all; a pyproject.toml used only for
// tool configuration does not declare dependencies.
func readPyproject(path string) (doc pyprojectDoc, hasProject bool, err error) {
	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return doc, false, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	return doc, meta.IsDefined("project"), nil
}

var (
	projectHeaderRE = regexp.MustCompile(`(?m)^\[project\][ \t]*(?:#.*)?$`)
	tableHeaderRE   = regexp.MustCompile(`(?m)^\[`)
	dependenciesRE  = regexp.MustCompile(`(?m)^([ \t]*)dependencies[ \t]*=[ \t]*\[`)
	arrayItemRE     = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"|'([^']*)'`)
)

// arraySpan locates the dependencies array inside the [project] table.
// start is the offset of "[" opening the array, end the offset just past
// the closing "]". Only the array itself is ever rewritten; every other
// byte of the file is preserved.
func arraySpan(content []byte) (keyIndent string, start, end int, ok bool) {
	header := projectHeaderRE.FindIndex(content)
	if header == nil {
		return "", 0, 0, false
	}
	tableEnd := len(content)
	if next := tableHeaderRE.FindIndex(content[header[1]:]); next != nil {
		tableEnd = header[1] + next[0]
	}

	m := dependenciesRE.FindSubmatchIndex(content[header[1]:tableEnd])
	if m == nil {
		return "", 0, 0, false
	}
	keyIndent = string(content[header[1]+m[2] : header[1]+m[3]])
	start = header[1] + m[1] - 1 // the "[" matched at the end of the pattern

	end = scanArrayEnd(content, start)
	if end < 0 {
		return "", 0, 0, false
	}
	return keyIndent, start, end, true
}

// scanArrayEnd finds the offset just past the "]" closing the array that
// opens at start. Brackets inside quoted strings (extras such as
// "uvicorn[standard]") do not count.
func scanArrayEnd(content []byte, start int) int {
	depth := 0
	var quote byte
	for i := start; i < len(content); i++ {
		c := content[i]
		if quote != 0 {
			if c == '\\' && quote == '"' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// parseArrayItems extracts the quoted strings from an array body.
func parseArrayItems(body string) []string {
	var items []string
	for _, m := range arrayItemRE.FindAllStringSubmatch(body, -1) {
		if m[1] != "" || strings.HasPrefix(m[0], `"`) {
			items = append(items, m[1])
		} else {
			items = append(items, m[2])
		}
	}
	return items
}

// renderArray rewrites the items in the file's own style: multi-line
// arrays stay multi-line with the original item indentation, single-line
// arrays stay on one line.
func renderArray(items []string, multiline bool, itemIndent, keyIndent string) string {
	if len(items) == 0 {
		return "[]"
	}
	if !multiline {
		quoted := make([]string, len(items))
		for i, it := range items {
			quoted[i] = `"` + it + `"`
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	}
	var b strings.Builder
	b.WriteString("[\n")
	for _, it := range items {
		b.WriteString(itemIndent)
		b.WriteString(`"` + it + `",`)
		b.WriteString("\n")
	}
	b.WriteString(keyIndent)
	b.WriteString("]")
	return b.String()
}

// arrayStyle inspects the existing array body and reports whether it is
// multi-line and what indentation its items use.
func arrayStyle(body string) (multiline bool, itemIndent string) {
	multiline = strings.Contains(body, "\n")
	itemIndent = "    "
	if !multiline {
		return false, itemIndent
	}
	for _, line := range strings.Split(body, "\n")[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || trimmed == "]" {
			continue
		}
		itemIndent = line[:len(line)-len(trimmed)]
		break
	}
	return true, itemIndent
}

// setPyprojectDependency upserts a dependency in the [project]
// dependencies array, editing only the array's bytes. When the array does
// not exist yet it is inserted at the end of the [project] table.
func setPyprojectDependency(content []byte, req *pep440.Requirement) ([]byte, error) {
	keyIndent, start, end, ok := arraySpan(content)
	if !ok {
		return insertDependenciesArray(content, req)
	}

	body := string(content[start:end])
	items := parseArrayItems(body)
	multiline, itemIndent := arrayStyle(body)

	name := req.Normalized()
	replaced := false
	for i, it := range items {
		existing, err := pep440.ParseRequirement(it)
		if err != nil || existing.Name == "" {
			continue
		}
		if existing.Normalized() == name {
			items[i] = req.String()
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, req.String())
		if len(items) == 1 {
			multiline = false
		}
	}

	rendered := renderArray(items, multiline, itemIndent, keyIndent)
	out := make([]byte, 0, len(content)+len(rendered))
	out = append(out, content[:start]...)
	out = append(out, rendered...)
	out = append(out, content[end:]...)
	return out, nil
}

// removePyprojectDependency drops a dependency from the array, reporting
// whether anything was removed. A file without the array is a no-op.
func removePyprojectDependency(content []byte, normalized string) ([]byte, bool, error) {
	keyIndent, start, end, ok := arraySpan(content)
	if !ok {
		return content, false, nil
	}

	body := string(content[start:end])
	items := parseArrayItems(body)
	multiline, itemIndent := arrayStyle(body)

	kept := items[:0]
	removed := false
	for _, it := range items {
		req, err := pep440.ParseRequirement(it)
		if err == nil && req.Name != "" && req.Normalized() == normalized {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	if !removed {
		return content, false, nil
	}

	rendered := renderArray(kept, multiline, itemIndent, keyIndent)
	out := make([]byte, 0, len(content))
	out = append(out, content[:start]...)
	out = append(out, rendered...)
	out = append(out, content[end:]...)
	return out, true, nil
}

// insertDependenciesArray adds a dependencies key holding req at the end
// of the [project] table. Requires the table to exist.
func insertDependenciesArray(content []byte, req *pep440.Requirement) ([]byte, error) {
	header := projectHeaderRE.FindIndex(content)
	if header == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "pyproject.toml has no [project] table")
	}
	insertAt := len(content)
	if next := tableHeaderRE.FindIndex(content[header[1]:]); next != nil {
		insertAt = header[1] + next[0]
	}
	// Anchor after the table's last non-blank line so the new key sits
	// with the rest of the [project] keys, not after the separator.
	for insertAt > header[1] {
		c := content[insertAt-1]
		if c != '\n' && c != ' ' && c != '\t' {
			break
		}
		insertAt--
	}

	block := "\ndependencies = [\n    \"" + req.String() + "\",\n]"

	out := make([]byte, 0, len(content)+len(block))
	out = append(out, content[:insertAt]...)
	out = append(out, block...)
	out = append(out, content[insertAt:]...)
	return out, nil
}
