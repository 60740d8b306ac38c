package formatter

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	modulePattern = regexp.MustCompile(`^(\.*[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*|\.+)$`)
	namePattern   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*|\*)$`)
)

// block is the leading import block of a source file
type block struct {
	lines   []string // every line of the file, without the final newline
	start   int      // index of the first line of the block
	end     int      // index after the last line of the block
	imports []Import
}

// scanImports locates the leading import block: the imports, comments and
// blank lines following any shebang, header comments and module docstring.
func scanImports(src string) (*block, error) {
	b := &block{lines: strings.Split(strings.TrimSuffix(src, "\n"), "\n")}
	if src == "" {
		b.lines = nil
	}

	i := skipHeader(b.lines)
	b.start, b.end = i, i

	var (
		pending     []string
		blankBefore bool
	)
	for i < len(b.lines) {
		raw := b.lines[i]
		t := strings.TrimSpace(raw)

		switch {
		case t == "":
			blankBefore = true
			i++
			continue
		case strings.HasPrefix(t, "#"):
			pending = append(pending, t)
			i++
			continue
		case raw != strings.TrimLeft(raw, " \t"), !isImportStart(t):
			return b, nil
		}

		stmt, comments, next := joinStatement(b.lines, i)
		parts := splitStatements(stmt.text)
		if !allImports(parts) {
			// Imports sharing a line with other code end the block
			return b, nil
		}
		var imports []Import
		for _, part := range parts {
			parsed, err := parseStatement(part)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			imports = append(imports, parsed...)
		}
		for k := range imports {
			imports[k].Line = i + 1
			if k == 0 {
				imports[k].Comment = stmt.comment
				imports[k].Leading = append(pending, comments...)
				imports[k].BlankBefore = blankBefore
			}
		}
		b.imports = append(b.imports, imports...)

		pending, blankBefore = nil, false
		i = next
		b.end = next
	}
	return b, nil
}

// empty reports whether the file has no statement besides a docstring
func (b *block) empty() bool {
	return len(b.imports) == 0 && b.start >= len(b.lines)
}

// skipHeader returns the index of the first line after the shebang, header
// comments, blank lines and module docstring.
func skipHeader(lines []string) int {
	i := 0
	docstring := false
	for i < len(lines) {
		t := strings.TrimSpace(lines[i])
		switch {
		case t == "" || strings.HasPrefix(t, "#"):
			i++
		case !docstring && isStringStart(t):
			docstring = true
			i = skipString(lines, i)
		default:
			return i
		}
	}
	return i
}

func isStringStart(t string) bool {
	t = strings.TrimLeft(t, "rRuUbBfF")
	return strings.HasPrefix(t, `"`) || strings.HasPrefix(t, `'`)
}

// skipString returns the index after the string literal starting on line i
func skipString(lines []string, i int) int {
	t := strings.TrimLeft(strings.TrimSpace(lines[i]), "rRuUbBfF")
	quote := t[:1]
	if strings.HasPrefix(t, `"""`) || strings.HasPrefix(t, `'''`) {
		quote = t[:3]
	}
	if strings.Contains(t[len(quote):], quote) {
		return i + 1
	}
	for j := i + 1; j < len(lines); j++ {
		if strings.Contains(lines[j], quote) {
			return j + 1
		}
	}
	return len(lines)
}

func isImportStart(t string) bool {
	return strings.HasPrefix(t, "import ") || strings.HasPrefix(t, "from ")
}

// splitStatements splits a logical line on the semicolons separating
// simple statements
func splitStatements(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func allImports(parts []string) bool {
	for _, part := range parts {
		if !isImportStart(part) {
			return false
		}
	}
	return len(parts) > 0
}

type statement struct {
	text    string // the statement with comments, parentheses and continuations removed
	comment string // inline comment on the statement's first line
}

// joinStatement gathers a possibly multi-line statement starting at line i.
// Comments inside parentheses are returned separately.
func joinStatement(lines []string, i int) (statement, []string, int) {
	var (
		stmt     statement
		parts    []string
		inner    []string
		inParens bool
	)
	for j := i; j < len(lines); j++ {
		code, comment := splitComment(lines[j])
		if comment != "" {
			if j == i {
				stmt.comment = comment
			} else {
				inner = append(inner, "# "+comment)
			}
		}

		code = strings.TrimSpace(code)
		continued := strings.HasSuffix(code, `\`)
		code = strings.TrimSuffix(code, `\`)
		if strings.Contains(code, "(") {
			inParens = true
		}
		if strings.Contains(code, ")") {
			inParens = false
		}
		code = strings.NewReplacer("(", " ", ")", " ").Replace(code)
		parts = append(parts, strings.TrimSpace(code))

		if !inParens && !continued {
			stmt.text = strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
			return stmt, inner, j + 1
		}
	}
	stmt.text = strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	return stmt, inner, len(lines)
}

func splitComment(line string) (string, string) {
	idx := strings.Index(line, "#")
	if idx < 0 {
		return line, ""
	}
	return line[:idx], strings.TrimSpace(strings.TrimPrefix(line[idx:], "#"))
}

// parseStatement parses a single import statement. A plain import naming
// several modules yields one Import per module.
func parseStatement(text string) ([]Import, error) {
	text = strings.TrimSuffix(strings.TrimSpace(text), ";")

	if rest, ok := strings.CutPrefix(text, "import "); ok {
		specs := splitList(rest)
		if len(specs) == 0 {
			return nil, fmt.Errorf("empty import statement %q", text)
		}
		imports := make([]Import, 0, len(specs))
		for _, spec := range specs {
			module, alias, err := parseAlias(spec, modulePattern)
			if err != nil || strings.HasPrefix(module, ".") {
				return nil, fmt.Errorf("invalid import %q", text)
			}
			imports = append(imports, Import{Module: module, Alias: alias, Multi: len(specs) > 1})
		}
		return imports, nil
	}

	rest, ok := strings.CutPrefix(text, "from ")
	if !ok {
		return nil, fmt.Errorf("not an import statement %q", text)
	}
	module, names, ok := strings.Cut(rest, " import ")
	module = strings.TrimSpace(module)
	if !ok || !modulePattern.MatchString(module) {
		return nil, fmt.Errorf("invalid from-import %q", text)
	}

	imp := Import{Module: module, From: true}
	for _, spec := range splitList(names) {
		name, alias, err := parseAlias(spec, namePattern)
		if err != nil || (name == "*" && alias != "") {
			return nil, fmt.Errorf("invalid imported name in %q", text)
		}
		imp.Names = append(imp.Names, Name{Name: name, Alias: alias})
	}
	if len(imp.Names) == 0 {
		return nil, fmt.Errorf("from-import without names %q", text)
	}
	return []Import{imp}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseAlias(spec string, pattern *regexp.Regexp) (string, string, error) {
	fields := strings.Fields(spec)
	switch {
	case len(fields) == 1 && pattern.MatchString(fields[0]):
		return fields[0], "", nil
	case len(fields) == 3 && fields[1] == "as" && pattern.MatchString(fields[0]) && namePattern.MatchString(fields[2]) && fields[2] != "*":
		return fields[0], fields[2], nil
	}
	return "", "", fmt.Errorf("invalid import spec %q", spec)
}
