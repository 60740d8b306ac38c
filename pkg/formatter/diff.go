package formatter

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContext is the number of unchanged lines shown around each change
const diffContext = 3

type diffLine struct {
	kind    byte // ' ', '-' or '+'
	text    string
	oldLine int // 1-based line in the original
	newLine int // 1-based line in the rewritten file
}

// unifiedDiff renders the changes from before to after in unified format.
// It returns "" when the contents are equal.
func unifiedDiff(path string, before, after []byte) string {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var lines []diffLine
	changed := false
	oldNo, newNo := 1, 1
	for _, d := range diffs {
		kind := byte(' ')
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind, changed = '+', true
		case diffmatchpatch.DiffDelete:
			kind, changed = '-', true
		}
		for _, l := range strings.SplitAfter(d.Text, "\n") {
			if l == "" {
				continue
			}
			lines = append(lines, diffLine{kind: kind, text: strings.TrimSuffix(l, "\n"), oldLine: oldNo, newLine: newNo})
			if kind != '+' {
				oldNo++
			}
			if kind != '-' {
				newNo++
			}
		}
	}
	if !changed {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)
	for i := 0; i < len(lines); {
		if lines[i].kind == ' ' {
			i++
			continue
		}
		start := max(0, i-diffContext)
		last := i
		for j := i + 1; j < len(lines) && j <= last+2*diffContext; j++ {
			if lines[j].kind != ' ' {
				last = j
			}
		}
		end := min(len(lines), last+diffContext+1)
		writeHunk(&sb, lines[start:end])
		i = end
	}
	return sb.String()
}

func writeHunk(sb *strings.Builder, hunk []diffLine) {
	oldCount, newCount := 0, 0
	for _, l := range hunk {
		if l.kind != '+' {
			oldCount++
		}
		if l.kind != '-' {
			newCount++
		}
	}
	oldStart, newStart := hunk[0].oldLine, hunk[0].newLine
	if oldCount == 0 {
		oldStart--
	}
	if newCount == 0 {
		newStart--
	}

	fmt.Fprintf(sb, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)
	for _, l := range hunk {
		sb.WriteByte(l.kind)
		sb.WriteString(l.text)
		sb.WriteByte('\n')
	}
}
