package rules

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
	"github.com/siyuan-infoblox/pypolicy/pkg/utils"
)

// All selects or suppresses every rule
const All = "ALL"

var codePattern = regexp.MustCompile(`^[A-Z]+[0-9]*$`)

// Config is the lint rule selection as written in the configuration file
type Config struct {
	Select         []string
	Ignore         []string
	Unfixable      []string
	PerFileIgnores map[string][]string // glob pattern -> suppressed codes
}

type override struct {
	pattern  string
	glob     glob.Glob
	basename bool // pattern has no separator and also matches file names
	codes    []string
}

// RuleSet answers rule selection questions for files in a project
type RuleSet struct {
	config    Config
	overrides []override
	logger    *zap.Logger
}

// New validates cfg and compiles its per-file override patterns
func New(cfg Config, logger *zap.Logger) (*RuleSet, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &RuleSet{config: cfg, logger: logger}
	for _, pattern := range sortedPatterns(cfg.PerFileIgnores) {
		g, _ := compile(pattern)
		r.overrides = append(r.overrides, override{
			pattern:  pattern,
			glob:     g,
			basename: !strings.Contains(pattern, "/"),
			codes:    cfg.PerFileIgnores[pattern],
		})
	}
	return r, nil
}

func compile(pattern string) (glob.Glob, error) {
	return glob.Compile(strings.TrimPrefix(pattern, "./"), '/')
}

func sortedPatterns(m map[string][]string) []string {
	patterns := make([]string, 0, len(m))
	for p := range m {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)
	return patterns
}

// Validate checks rule codes and override patterns
func Validate(cfg Config) error {
	var err error
	check := func(field string, codes []string) {
		for _, code := range codes {
			if code != All && !codePattern.MatchString(code) {
				err = multierr.Append(err, fmt.Errorf("%w: "+errors.ErrMsgInvalidRuleCode, errors.ErrInvalidConfig, code, field))
			}
		}
	}
	check("select", cfg.Select)
	check("ignore", cfg.Ignore)
	check("unfixable", cfg.Unfixable)

	for _, pattern := range sortedPatterns(cfg.PerFileIgnores) {
		if _, cerr := compile(pattern); cerr != nil || strings.TrimSpace(pattern) == "" {
			err = multierr.Append(err, fmt.Errorf("%w: "+errors.ErrMsgInvalidGlob, errors.ErrInvalidGlob, pattern))
		}
		check(fmt.Sprintf("per-file-ignores[%q]", pattern), cfg.PerFileIgnores[pattern])
	}
	return err
}

func matchesAny(prefixes []string, code string) bool {
	for _, p := range prefixes {
		if p == All || strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

// specificity returns the length of the longest prefix matching code, 0 for
// All, or -1 when nothing matches
func specificity(prefixes []string, code string) int {
	best := -1
	for _, p := range prefixes {
		switch {
		case p == All:
			best = max(best, 0)
		case strings.HasPrefix(code, p):
			best = max(best, len(p))
		}
	}
	return best
}

// Selected reports whether code is enabled by the global selection. The
// more specific of the matching select and ignore entries decides; ignore
// wins a tie.
func (r *RuleSet) Selected(code string) bool {
	sel := specificity(r.config.Select, code)
	return sel >= 0 && sel > specificity(r.config.Ignore, code)
}

// Fixable reports whether violations of code may be fixed automatically
func (r *RuleSet) Fixable(code string) bool {
	return !matchesAny(r.config.Unfixable, code)
}

// Enabled reports whether code applies to the file at path. Per-file
// overrides only add suppressions on top of the global selection.
func (r *RuleSet) Enabled(code, filePath string) bool {
	if !r.Selected(code) {
		return false
	}
	return !matchesAny(r.Suppressed(filePath), code)
}

// Suppressed returns the codes suppressed for path by per-file overrides
func (r *RuleSet) Suppressed(filePath string) []string {
	rel := normalize(filePath)
	var codes []string
	for _, o := range r.overrides {
		if o.matches(rel) {
			codes = append(codes, o.codes...)
		}
	}
	return codes
}

// Patterns returns the per-file override patterns in sorted order
func (r *RuleSet) Patterns() []string {
	patterns := make([]string, 0, len(r.overrides))
	for _, o := range r.overrides {
		patterns = append(patterns, o.pattern)
	}
	return patterns
}

func (o override) matches(rel string) bool {
	if o.glob.Match(rel) {
		return true
	}
	return o.basename && o.glob.Match(path.Base(rel))
}

func normalize(p string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(p)), "./")
}

// StaleOverrides returns the override patterns that match no file under root
func (r *RuleSet) StaleOverrides(root string) ([]string, error) {
	files, err := utils.RelativeFiles(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToWalkTree, err)
	}

	var stale []string
	for _, o := range r.overrides {
		used := false
		for _, f := range files {
			if o.matches(f) {
				used = true
				break
			}
		}
		if !used {
			r.logger.Debug("override matches no file", zap.String("pattern", o.pattern), zap.String("root", root))
			stale = append(stale, o.pattern)
		}
	}
	return stale, nil
}
