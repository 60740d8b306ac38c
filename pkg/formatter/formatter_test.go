package formatter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
	"github.com/siyuan-infoblox/pypolicy/pkg/rules"
	"github.com/siyuan-infoblox/pypolicy/pkg/sections"
)

func testPolicy(t *testing.T) *sections.Policy {
	t.Helper()
	p, err := sections.New(sections.PolicyConfig{
		Order: []string{"future", "standard-library", "third-party", "cctbx", "first-party", "local-folder"},
		Sections: map[string][]string{
			"cctbx": {"boost", "cctbx", "dxtbx", "iotbx", "libtbx", "scitbx"},
		},
		KnownFirstParty: []string{"dials"},
		RequiredImports: []string{"from __future__ import annotations"},
	})
	require.NoError(t, err)
	return p
}

func newTestFormatter(t *testing.T, out *bytes.Buffer) *formatter {
	return New(FormatterConfig{
		FilePath: "test.py",
		Policy:   testPolicy(t),
		Logger:   zap.NewNop(),
		Out:      out,
	})
}

const messySource = `#!/usr/bin/env python
"""Module docstring."""
import sys
from dials.util import show_mail_on_error
import numpy as np
from scitbx.array_family import flex
import os
from . import helpers
from dials.util.options import OptionParser, ArgumentParser

def main():
    pass
`

const formattedSource = `#!/usr/bin/env python
"""Module docstring."""
from __future__ import annotations

import os
import sys

import numpy as np

from scitbx.array_family import flex

from dials.util import show_mail_on_error
from dials.util.options import ArgumentParser, OptionParser

from . import helpers

def main():
    pass
`

func TestFormatter_format(t *testing.T) {
	req := require.New(t)
	g := newTestFormatter(t, &bytes.Buffer{})

	out, err := g.format([]byte(messySource), "x.py")
	req.NoError(err)
	req.Equal(formattedSource, string(out))

	// Formatting is idempotent
	again, err := g.format(out, "x.py")
	req.NoError(err)
	req.Equal(string(out), string(again))
}

func TestFormatter_formatWrapsLongImports(t *testing.T) {
	req := require.New(t)
	g := newTestFormatter(t, &bytes.Buffer{})

	src := `from __future__ import annotations

from dials.algorithms.indexing.assign_indices import (  # noqa: F401
    AssignIndicesStrategy,
    # local first
    AssignIndicesLocal,
    AssignIndicesGlobal,
)
`
	want := `from __future__ import annotations

# local first
from dials.algorithms.indexing.assign_indices import (  # noqa: F401
    AssignIndicesGlobal,
    AssignIndicesLocal,
    AssignIndicesStrategy,
)
`
	out, err := g.format([]byte(src), "x.py")
	req.NoError(err)
	req.Equal(want, string(out))
}

func TestFormatter_formatMergesAndDeduplicates(t *testing.T) {
	req := require.New(t)
	g := newTestFormatter(t, &bytes.Buffer{})

	src := `from __future__ import annotations
import os
from os import path
import os
from os import sep, path
from .. import base
from . import sibling
`
	want := `from __future__ import annotations

import os
from os import path, sep

from .. import base
from . import sibling
`
	out, err := g.format([]byte(src), "x.py")
	req.NoError(err)
	req.Equal(want, string(out))
}

func TestFormatter_formatWithoutImports(t *testing.T) {
	req := require.New(t)
	g := newTestFormatter(t, &bytes.Buffer{})

	out, err := g.format([]byte("\"\"\"Docs.\"\"\"\n\nVALUE = 1\n"), "x.py")
	req.NoError(err)
	req.Equal("\"\"\"Docs.\"\"\"\n\nfrom __future__ import annotations\n\nVALUE = 1\n", string(out))

	// Without required imports a file without imports is left alone
	p, err := sections.New(sections.PolicyConfig{})
	req.NoError(err)
	plain := New(FormatterConfig{Policy: p})
	src := []byte("VALUE = 1")
	out, err = plain.format(src, "x.py")
	req.NoError(err)
	req.Equal(src, out)
}

func TestFormatter_requiredImportsSkipEmptyModules(t *testing.T) {
	tests := []struct {
		name string
		path string
		src  string
	}{
		{"empty file", "src/dials/__init__.py", ""},
		{"blank lines", "src/dials/__init__.py", "\n\n"},
		{"comments only", "src/dials/__init__.py", "# Package marker\n"},
		{"docstring only", "src/dials/util/__init__.py", "\"\"\"Utilities.\n\nMore text.\n\"\"\"\n"},
		{"stub", "src/dials/ext.pyi", "import os\n\ndef f() -> os.PathLike: ...\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			g := newTestFormatter(t, &bytes.Buffer{})

			out, err := g.format([]byte(tt.src), tt.path)
			req.NoError(err)
			req.Equal(tt.src, string(out))

			violations, err := g.check([]byte(tt.src), tt.path)
			req.NoError(err)
			req.Empty(violations)
		})
	}
}

func TestFormatter_groupImports(t *testing.T) {
	req := require.New(t)
	g := newTestFormatter(t, &bytes.Buffer{})

	imports := []Import{
		{Module: "dials.array_family", From: true, Names: []Name{{Name: "flex"}}},
		{Module: "libtbx.phil"},
		{Module: "os"},
		{Module: "numpy", Alias: "np"},
		{Module: "scitbx.matrix"},
		{Module: "__future__", From: true, Names: []Name{{Name: "annotations"}}},
		{Module: "collections", From: true, Names: []Name{{Name: "defaultdict"}}},
		{Module: "collections", From: true, Names: []Name{{Name: "Counter"}}},
		{Module: ".", From: true, Names: []Name{{Name: "util"}}},
	}
	g.classifyImports(imports)
	grouped := g.groupImports(imports)

	req.Len(grouped, 6)
	req.Len(grouped[sections.StandardLibrary], 2)
	req.Equal("os", grouped[sections.StandardLibrary][0].Module)
	req.Equal([]Name{{Name: "Counter"}, {Name: "defaultdict"}}, grouped[sections.StandardLibrary][1].Names)
	req.Len(grouped[sections.Category("cctbx")], 2)
	req.Equal("libtbx.phil", grouped[sections.Category("cctbx")][0].Module)
	req.Len(grouped[sections.ThirdParty], 1)
	req.Len(grouped[sections.FirstParty], 1)
	req.Len(grouped[sections.LocalFolder], 1)
	req.Len(grouped[sections.Future], 1)
}

func TestFormatter_sortImportsInGroup(t *testing.T) {
	req := require.New(t)
	g := newTestFormatter(t, &bytes.Buffer{})

	imports := []Import{
		{Module: "typing", From: true, Names: []Name{{Name: "cast"}, {Name: "TYPE_CHECKING"}, {Name: "Any"}}},
		{Module: "Queue"},
		{Module: "sys"},
		{Module: "abc", From: true, Names: []Name{{Name: "ABC"}}},
		{Module: "os"},
	}
	g.sortImportsInGroup(imports)

	var got []string
	for _, imp := range imports {
		got = append(got, imp.statement())
	}
	req.Equal([]string{
		"import os",
		"import Queue",
		"import sys",
		"from abc import ABC",
		"from typing import TYPE_CHECKING, Any, cast",
	}, got)
}

func TestFormatter_check(t *testing.T) {
	req := require.New(t)
	g := newTestFormatter(t, &bytes.Buffer{})

	violations, err := g.check([]byte(formattedSource), "src/dials/command_line/x.py")
	req.NoError(err)
	req.Empty(violations)

	violations, err = g.check([]byte(messySource), "src/dials/command_line/x.py")
	req.NoError(err)
	req.NotEmpty(violations)

	req.Equal(CodeMissingRequired, violations[0].Code)
	req.Equal(3, violations[0].Line)
	req.Equal("src/dials/command_line/x.py:3: I002 missing required import: from __future__ import annotations", violations[0].String())

	var messages []string
	for _, v := range violations[1:] {
		req.Equal(CodeUnsorted, v.Code)
		messages = append(messages, v.Message)
	}
	joined := strings.Join(messages, "\n")
	req.Contains(joined, "missing blank line between sections standard-library and first-party")
	req.Contains(joined, "numpy (third-party) belongs before the first-party section")
	req.Contains(joined, "os (standard-library) belongs before the first-party section")
}

func TestFormatter_checkSortedWithinSection(t *testing.T) {
	req := require.New(t)
	g := newTestFormatter(t, &bytes.Buffer{})

	src := `from __future__ import annotations

import sys
import os
`
	violations, err := g.check([]byte(src), "x.py")
	req.NoError(err)
	req.Len(violations, 1)
	req.Equal(CodeUnsorted, violations[0].Code)
	req.Equal("import block is not sorted", violations[0].Message)

	// A missing required import alone is not also reported as unsorted
	violations, err = g.check([]byte("import os\nimport sys\n"), "x.py")
	req.NoError(err)
	req.Len(violations, 1)
	req.Equal(CodeMissingRequired, violations[0].Code)
}

func TestFormatter_checkHonoursRuleSet(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()

	rs, err := rules.New(rules.Config{
		Select:         []string{"I", "E401"},
		PerFileIgnores: map[string][]string{"legacy/*.py": {"I001"}},
	}, zap.NewNop())
	req.NoError(err)

	g := New(FormatterConfig{
		Policy: testPolicy(t),
		Rules:  rs,
		Root:   root,
		Out:    &bytes.Buffer{},
	})

	src := []byte("from __future__ import annotations\n\nimport os, sys\n")
	path := filepath.Join(root, "legacy", "old.py")

	violations, err := g.check(src, g.relativePath(path))
	req.NoError(err)
	req.Len(violations, 1)
	req.Equal(CodeMultipleImports, violations[0].Code)
	req.Equal("legacy/old.py", violations[0].Path)

	violations, err = g.check(src, g.relativePath(filepath.Join(root, "current.py")))
	req.NoError(err)
	req.Len(violations, 2)
}

func TestFormatter_ProcessFile(t *testing.T) {
	req := require.New(t)
	tempDir := t.TempDir()

	testFile := filepath.Join(tempDir, "main.py")
	req.NoError(os.WriteFile(testFile, []byte(messySource), 0644))

	t.Run("print import block", func(t *testing.T) {
		var out bytes.Buffer
		g := New(FormatterConfig{FilePath: testFile, Policy: testPolicy(t), Out: &out})
		req.NoError(g.ProcessFile())
		req.True(strings.HasPrefix(out.String(), "from __future__ import annotations\n\nimport os\n"))
		req.True(strings.HasSuffix(out.String(), "from . import helpers\n"))

		// The file itself is untouched
		content, err := os.ReadFile(testFile)
		req.NoError(err)
		req.Equal(messySource, string(content))
	})

	t.Run("process file in place", func(t *testing.T) {
		g := New(FormatterConfig{FilePath: testFile, Policy: testPolicy(t), InPlace: true, Out: &bytes.Buffer{}})
		req.NoError(g.ProcessFile())

		content, err := os.ReadFile(testFile)
		req.NoError(err)
		req.Equal(formattedSource, string(content))
	})

	t.Run("check formatted file", func(t *testing.T) {
		var out bytes.Buffer
		g := New(FormatterConfig{FilePath: testFile, Policy: testPolicy(t), Check: true, Out: &out})
		req.NoError(g.ProcessFile())
		req.Empty(out.String())
	})

	t.Run("process non-existent file", func(t *testing.T) {
		g := New(FormatterConfig{FilePath: "/non/existent/file.py", Policy: testPolicy(t), InPlace: true})
		err := g.ProcessFile()
		req.Error(err)
		req.Contains(err.Error(), errors.ErrMsgFailedToReadFile)
	})

	t.Run("unparseable import", func(t *testing.T) {
		bad := filepath.Join(tempDir, "bad.py")
		req.NoError(os.WriteFile(bad, []byte("from x import\n"), 0644))
		g := New(FormatterConfig{FilePath: bad, Policy: testPolicy(t), InPlace: true})
		err := g.ProcessFile()
		req.Error(err)
		req.Contains(err.Error(), errors.ErrMsgFailedToScanImports)
	})
}

func TestFormatter_ProcessPath(t *testing.T) {
	req := require.New(t)
	tempDir := t.TempDir()

	files := map[string]string{
		"src/dials/a.py":              messySource,
		"src/dials/b.py":              formattedSource,
		"src/dials/__init__.py":       "import os\n",
		"src/dials/empty/__init__.py": "",
		"build/lib/dials/a.py":        messySource,
		"src/dials/notes.txt":         "import sys",
		".venv/lib/site/mod.py":       messySource,
	}
	for name, content := range files {
		full := filepath.Join(tempDir, name)
		req.NoError(os.MkdirAll(filepath.Dir(full), 0755))
		req.NoError(os.WriteFile(full, []byte(content), 0644))
	}

	t.Run("check reports violating files", func(t *testing.T) {
		var out bytes.Buffer
		g := New(FormatterConfig{Policy: testPolicy(t), Root: tempDir, Check: true, Out: &out})
		err := g.ProcessPath(tempDir)
		req.ErrorIs(err, errors.ErrPolicyViolation)
		req.Contains(err.Error(), "2 files violate the import policy")
		req.Contains(out.String(), "src/dials/a.py:3: I002")
		req.Contains(out.String(), "src/dials/__init__.py:1: I002")
		req.NotContains(out.String(), "src/dials/empty")
		req.NotContains(out.String(), "build/lib")
	})

	t.Run("in place fixes every file", func(t *testing.T) {
		var out bytes.Buffer
		g := New(FormatterConfig{Policy: testPolicy(t), Root: tempDir, InPlace: true, Out: &out})
		req.NoError(g.ProcessPath(tempDir))
		req.Contains(out.String(), "Processed 4 files successfully")

		content, err := os.ReadFile(filepath.Join(tempDir, "src/dials/a.py"))
		req.NoError(err)
		req.Equal(formattedSource, string(content))

		content, err = os.ReadFile(filepath.Join(tempDir, "src/dials/__init__.py"))
		req.NoError(err)
		req.Equal("from __future__ import annotations\n\nimport os\n", string(content))

		content, err = os.ReadFile(filepath.Join(tempDir, "src/dials/empty/__init__.py"))
		req.NoError(err)
		req.Empty(content)

		// Skipped directories are untouched
		content, err = os.ReadFile(filepath.Join(tempDir, "build/lib/dials/a.py"))
		req.NoError(err)
		req.Equal(messySource, string(content))
	})

	t.Run("check passes after fixing", func(t *testing.T) {
		g := New(FormatterConfig{Policy: testPolicy(t), Root: tempDir, Check: true, Out: &bytes.Buffer{}})
		req.NoError(g.ProcessPath(tempDir))
	})

	t.Run("directory without python files", func(t *testing.T) {
		empty := filepath.Join(tempDir, "empty")
		req.NoError(os.Mkdir(empty, 0755))
		var out bytes.Buffer
		g := New(FormatterConfig{Policy: testPolicy(t), InPlace: true, Out: &out})
		req.NoError(g.ProcessPath(empty))
		req.Contains(out.String(), "No Python files found")
	})

	t.Run("missing path", func(t *testing.T) {
		g := New(FormatterConfig{Policy: testPolicy(t), Out: &bytes.Buffer{}})
		err := g.ProcessPath(filepath.Join(tempDir, "missing"))
		req.Error(err)
		req.Contains(err.Error(), errors.ErrMsgFailedToCheckPath)
	})
}

func TestFormatter_ProcessFilesOrdered(t *testing.T) {
	req := require.New(t)
	tempDir := t.TempDir()

	var paths []string
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py", "e.py"} {
		path := filepath.Join(tempDir, name)
		req.NoError(os.WriteFile(path, []byte("import sys\n"), 0644))
		paths = append(paths, path)
	}

	run := func(workers int) string {
		var out bytes.Buffer
		g := New(FormatterConfig{Policy: testPolicy(t), Root: tempDir, Check: true, Workers: workers, Out: &out})
		err := g.ProcessFiles(paths)
		req.ErrorIs(err, errors.ErrPolicyViolation)
		return out.String()
	}

	serial := run(1)
	req.Equal(serial, run(8))

	var got []string
	for _, line := range strings.Split(serial, "\n") {
		if strings.Contains(line, "I002") {
			got = append(got, strings.SplitN(line, ":", 2)[0])
		}
	}
	req.Equal([]string{"a.py", "b.py", "c.py", "d.py", "e.py"}, got)
}
