// Package config loads and writes the development-process policy held in a
// project's pyproject.toml.
//
// Only the tables read by the three governed tools are modelled:
//   - [tool.towncrier]
//   - [tool.ruff.lint] and [tool.ruff.lint.isort]
//   - [tool.pytest.ini_options]
//
// Every other table is left alone.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
)

// File mirrors the parts of pyproject.toml the policy lives in
type File struct {
	Tool Tool `toml:"tool" json:"tool" yaml:"tool"`
}

// Tool holds the per-tool tables
type Tool struct {
	Towncrier *Towncrier `toml:"towncrier,omitempty" json:"towncrier,omitempty" yaml:"towncrier,omitempty"`
	Ruff      *Ruff      `toml:"ruff,omitempty" json:"ruff,omitempty" yaml:"ruff,omitempty"`
	Pytest    *Pytest    `toml:"pytest,omitempty" json:"pytest,omitempty" yaml:"pytest,omitempty"`
}

// Towncrier is the changelog fragment aggregator table
type Towncrier struct {
	Package     string `toml:"package,omitempty" json:"package,omitempty" yaml:"package,omitempty"`
	PackageDir  string `toml:"package_dir,omitempty" json:"package_dir,omitempty" yaml:"package_dir,omitempty"`
	Filename    string `toml:"filename,omitempty" json:"filename,omitempty" yaml:"filename,omitempty"`
	IssueFormat string `toml:"issue_format,omitempty" json:"issue_format,omitempty" yaml:"issue_format,omitempty"`
}

// Ruff is the lint/format tool table
type Ruff struct {
	Lint Lint `toml:"lint" json:"lint" yaml:"lint"`
}

// Lint is the rule selection of the lint/format tool
type Lint struct {
	Select         []string            `toml:"select,omitempty" json:"select,omitempty" yaml:"select,omitempty"`
	Ignore         []string            `toml:"ignore,omitempty" json:"ignore,omitempty" yaml:"ignore,omitempty"`
	Unfixable      []string            `toml:"unfixable,omitempty" json:"unfixable,omitempty" yaml:"unfixable,omitempty"`
	PerFileIgnores map[string][]string `toml:"per-file-ignores,omitempty" json:"per-file-ignores,omitempty" yaml:"per-file-ignores,omitempty"`
	Isort          *Isort              `toml:"isort,omitempty" json:"isort,omitempty" yaml:"isort,omitempty"`
}

// Isort is the import section policy
type Isort struct {
	SectionOrder    []string            `toml:"section-order,omitempty" json:"section-order,omitempty" yaml:"section-order,omitempty"`
	KnownFirstParty []string            `toml:"known-first-party,omitempty" json:"known-first-party,omitempty" yaml:"known-first-party,omitempty"`
	RequiredImports []string            `toml:"required-imports,omitempty" json:"required-imports,omitempty" yaml:"required-imports,omitempty"`
	Sections        map[string][]string `toml:"sections,omitempty" json:"sections,omitempty" yaml:"sections,omitempty"`
}

// Pytest is the test runner table
type Pytest struct {
	IniOptions IniOptions `toml:"ini_options" json:"ini_options" yaml:"ini_options"`
}

// IniOptions are the test runner settings
type IniOptions struct {
	Addopts        string   `toml:"addopts,omitempty" json:"addopts,omitempty" yaml:"addopts,omitempty"`
	Testpaths      []string `toml:"testpaths,omitempty" json:"testpaths,omitempty" yaml:"testpaths,omitempty"`
	FilterWarnings []string `toml:"filterwarnings,omitempty" json:"filterwarnings,omitempty" yaml:"filterwarnings,omitempty"`
	JunitFamily    string   `toml:"junit_family,omitempty" json:"junit_family,omitempty" yaml:"junit_family,omitempty"`
}

// Project is a loaded configuration file
type Project struct {
	Path       string   // file the configuration was read from, empty when decoded from memory
	File       File     // decoded policy
	Unknown    []string // keys inside governed tables that their tool does not accept
	Unmodelled []string // valid tool options that pypolicy does not read
}

// Load reads and decodes the configuration file at path
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToLoadConfig, err)
	}
	p, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

// Decode decodes configuration text
func Decode(data []byte) (*Project, error) {
	p := &Project{}
	md, err := toml.Decode(string(data), &p.File)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", errors.ErrMsgFailedToDecodeConfig, errors.ErrInvalidConfig, err)
	}

	for _, key := range md.Undecoded() {
		k := key.String()
		governed, known := knownToTool(k)
		switch {
		case !governed:
		case known:
			p.Unmodelled = append(p.Unmodelled, k)
		default:
			p.Unknown = append(p.Unknown, k)
		}
	}
	sort.Strings(p.Unknown)
	sort.Strings(p.Unmodelled)

	p.File.normalize()
	return p, nil
}

// normalize replaces empty lists and tables with nil. Encoding omits them, so
// a decoded file and its re-decoded encoding stay identical.
func (f *File) normalize() {
	if r := f.Tool.Ruff; r != nil {
		nilIfEmpty(&r.Lint.Select)
		nilIfEmpty(&r.Lint.Ignore)
		nilIfEmpty(&r.Lint.Unfixable)
		if len(r.Lint.PerFileIgnores) == 0 {
			r.Lint.PerFileIgnores = nil
		}
		if i := r.Lint.Isort; i != nil {
			nilIfEmpty(&i.SectionOrder)
			nilIfEmpty(&i.KnownFirstParty)
			nilIfEmpty(&i.RequiredImports)
			if len(i.Sections) == 0 {
				i.Sections = nil
			}
		}
	}
	if pt := f.Tool.Pytest; pt != nil {
		nilIfEmpty(&pt.IniOptions.Testpaths)
		nilIfEmpty(&pt.IniOptions.FilterWarnings)
	}
}

func nilIfEmpty(s *[]string) {
	if len(*s) == 0 {
		*s = nil
	}
}

// Encode writes f as TOML
func (f File) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgFailedToEncodeConfig, err)
	}
	return nil
}

// Marshal returns f as TOML text
func (f File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes f to path as TOML
func (f File) Save(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgFailedToWriteConfig, err)
	}
	return nil
}
