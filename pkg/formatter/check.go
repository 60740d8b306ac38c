package formatter

import (
	stderrors "errors"
	"fmt"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
)

// Rule codes reported by the checker
const (
	CodeUnsorted        = "I001" // import block is not grouped and sorted per the policy
	CodeMissingRequired = "I002" // a required import is absent
	CodeMultipleImports = "E401" // several modules imported on one line
)

// Violation is a single policy violation in a file
type Violation struct {
	Path    string
	Line    int
	Code    string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s:%d: %s %s", v.Path, v.Line, v.Code, v.Message)
}

func isViolation(err error) bool {
	return stderrors.Is(err, errors.ErrPolicyViolation)
}

// check reports the violations of the section policy in src. Violations of
// rules disabled for relPath are dropped.
func (g *formatter) check(src []byte, relPath string) ([]Violation, error) {
	b, err := scanImports(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToScanImports, err)
	}
	required, err := g.requiredFor(b, relPath)
	if err != nil {
		return nil, err
	}

	imports := append([]Import(nil), b.imports...)
	g.classifyImports(imports)

	var violations []Violation
	report := func(line int, code, format string, args ...any) {
		violations = append(violations, Violation{
			Path:    relPath,
			Line:    line,
			Code:    code,
			Message: fmt.Sprintf(format, args...),
		})
	}

	blockLine := b.start + 1
	for _, req := range missingRequired(imports, required) {
		report(blockLine, CodeMissingRequired, "missing required import: %s", req.statement())
	}

	policy := g.getPolicy()
	seenMulti := make(map[int]bool)
	maxRank := -1
	var maxCat string
	unsorted := false

	for i, imp := range imports {
		if imp.Multi && !seenMulti[imp.Line] {
			seenMulti[imp.Line] = true
			report(imp.Line, CodeMultipleImports, "multiple imports on one line")
		}

		rank := policy.Rank(imp.Category)
		if rank < maxRank {
			unsorted = true
			report(imp.Line, CodeUnsorted, "%s (%s) belongs before the %s section", imp.Module, imp.Category, maxCat)
		} else {
			maxRank, maxCat = rank, string(imp.Category)
		}

		if i == 0 || imp.Line == imports[i-1].Line {
			continue
		}
		prev := imports[i-1]
		switch {
		case imp.Category != prev.Category && !imp.BlankBefore:
			unsorted = true
			report(imp.Line, CodeUnsorted, "missing blank line between sections %s and %s", prev.Category, imp.Category)
		case imp.Category == prev.Category && imp.BlankBefore:
			unsorted = true
			report(imp.Line, CodeUnsorted, "blank line inside section %s", imp.Category)
		}
	}

	if !unsorted && len(imports) > 0 {
		formatted, err := g.format(src, relPath)
		if err != nil {
			return nil, err
		}
		if fb, err := scanImports(string(formatted)); err == nil && !sameBlock(b, fb, len(required) > 0) {
			report(blockLine, CodeUnsorted, "import block is not sorted")
		}
	}

	return g.filterEnabled(violations, relPath), nil
}

// sameBlock compares the import blocks of two scans line by line. When
// required imports may have been inserted only the original's imports count.
func sameBlock(a, b *block, allowInserted bool) bool {
	al := a.lines[a.start:a.end]
	bl := b.lines[b.start:b.end]
	if len(al) == len(bl) {
		for i := range al {
			if al[i] != bl[i] {
				return false
			}
		}
		return true
	}
	return allowInserted && len(bl) > len(al) && containsInOrder(bl, al)
}

// containsInOrder reports whether every line of sub appears in lines in order
func containsInOrder(lines, sub []string) bool {
	j := 0
	for _, l := range lines {
		if j < len(sub) && l == sub[j] {
			j++
		}
	}
	return j == len(sub)
}

func (g *formatter) filterEnabled(violations []Violation, relPath string) []Violation {
	if g.config.Rules == nil {
		return violations
	}
	var out []Violation
	for _, v := range violations {
		if g.config.Rules.Enabled(v.Code, relPath) {
			out = append(out, v)
		}
	}
	return out
}
