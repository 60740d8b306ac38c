package config

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/siyuan-infoblox/pypolicy/pkg/changelog"
	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
	"github.com/siyuan-infoblox/pypolicy/pkg/pytest"
	"github.com/siyuan-infoblox/pypolicy/pkg/rules"
	"github.com/siyuan-infoblox/pypolicy/pkg/sections"
)

func (f File) lint() Lint {
	if f.Tool.Ruff == nil {
		return Lint{}
	}
	return f.Tool.Ruff.Lint
}

func (f File) isort() Isort {
	if l := f.lint(); l.Isort != nil {
		return *l.Isort
	}
	return Isort{}
}

// SectionConfig returns the raw import section policy. The changelog package
// name is treated as first-party alongside known-first-party.
func (f File) SectionConfig() sections.PolicyConfig {
	is := f.isort()
	firstParty := append([]string(nil), is.KnownFirstParty...)
	if tc := f.Tool.Towncrier; tc != nil && tc.Package != "" {
		firstParty = append(firstParty, tc.Package)
	}
	return sections.PolicyConfig{
		Order:           is.SectionOrder,
		Sections:        is.Sections,
		KnownFirstParty: firstParty,
		RequiredImports: is.RequiredImports,
	}
}

// SectionPolicy builds the validated import section policy
func (f File) SectionPolicy() (*sections.Policy, error) {
	return sections.New(f.SectionConfig())
}

// RuleConfig returns the raw lint rule selection
func (f File) RuleConfig() rules.Config {
	l := f.lint()
	return rules.Config{
		Select:         l.Select,
		Ignore:         l.Ignore,
		Unfixable:      l.Unfixable,
		PerFileIgnores: l.PerFileIgnores,
	}
}

// RuleSet builds the validated lint rule set
func (f File) RuleSet(logger *zap.Logger) (*rules.RuleSet, error) {
	return rules.New(f.RuleConfig(), logger)
}

// Changelog returns the changelog aggregator settings
func (f File) Changelog() changelog.Settings {
	tc := f.Tool.Towncrier
	if tc == nil {
		return changelog.Settings{}
	}
	return changelog.Settings{
		Package:     tc.Package,
		PackageDir:  tc.PackageDir,
		Filename:    tc.Filename,
		IssueFormat: tc.IssueFormat,
	}
}

// TestConfig builds the validated test runner configuration
func (f File) TestConfig() (*pytest.TestConfig, error) {
	if f.Tool.Pytest == nil {
		return pytest.Load(pytest.Options{})
	}
	opts := f.Tool.Pytest.IniOptions
	return pytest.Load(pytest.Options{
		Addopts:        opts.Addopts,
		Testpaths:      opts.Testpaths,
		FilterWarnings: opts.FilterWarnings,
		JunitFamily:    opts.JunitFamily,
	})
}

// Validate checks every governed table, returning all problems found. In
// strict mode keys the tools would not understand are errors too.
func (p *Project) Validate(strict bool) error {
	var err error

	if strict && len(p.Unknown) > 0 {
		err = multierr.Append(err, fmt.Errorf("%w: "+errors.ErrMsgUnknownKeys+": %s",
			errors.ErrUnknownKey, p.source(), strings.Join(p.Unknown, ", ")))
	}

	err = multierr.Append(err, sections.Validate(p.File.SectionConfig()))
	err = multierr.Append(err, rules.Validate(p.File.RuleConfig()))
	err = multierr.Append(err, p.File.Changelog().Validate())
	if _, terr := p.File.TestConfig(); terr != nil {
		err = multierr.Append(err, terr)
	}
	return err
}

func (p *Project) source() string {
	if p.Path == "" {
		return "configuration"
	}
	return p.Path
}
