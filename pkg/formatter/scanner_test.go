package formatter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func modules(imports []Import) []string {
	var out []string
	for _, imp := range imports {
		out = append(out, imp.Module)
	}
	return out
}

func TestScanImports_semicolons(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		modules []string
		end     int
	}{
		{"two imports on one line", "import os; import sys\n\nx = 1\n", []string{"os", "sys"}, 1},
		{"trailing semicolon", "import os;\nfrom sys import argv;\n", []string{"os", "sys"}, 2},
		{"import and from-import", "from os import path; import re  # both\n", []string{"os", "re"}, 1},
		{"import followed by code", "import os\nimport sys; sys.exit(0)\n", []string{"os"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			b, err := scanImports(tt.src)
			req.NoError(err)
			req.Equal(tt.modules, modules(b.imports))
			req.Equal(tt.end, b.end)
		})
	}
}

func TestFormatter_formatSplitsSemicolonImports(t *testing.T) {
	req := require.New(t)
	g := newTestFormatter(t, &bytes.Buffer{})

	src := "from __future__ import annotations\n\nimport sys; import os\n\nprint(os, sys)\n"
	out, err := g.format([]byte(src), "x.py")
	req.NoError(err)
	req.Equal("from __future__ import annotations\n\nimport os\nimport sys\n\nprint(os, sys)\n", string(out))

	violations, err := g.check([]byte(src), "x.py")
	req.NoError(err)
	req.Len(violations, 1)
	req.Equal(CodeUnsorted, violations[0].Code)
}
