package sections

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
	"github.com/siyuan-infoblox/pypolicy/pkg/std"
)

// Category is the name of a section imports are grouped under
type Category string

const (
	Future          Category = "future"
	StandardLibrary Category = "standard-library"
	ThirdParty      Category = "third-party"
	FirstParty      Category = "first-party"
	LocalFolder     Category = "local-folder"
)

// Builtins lists the built-in categories in their default order
var Builtins = []Category{Future, StandardLibrary, ThirdParty, FirstParty, LocalFolder}

// IsBuiltin reports whether c is one of the built-in categories
func IsBuiltin(c Category) bool {
	for _, b := range Builtins {
		if b == c {
			return true
		}
	}
	return false
}

// Provenance is where the host tool's import resolution says a module comes from
type Provenance int

const (
	FutureProvenance Provenance = iota
	StdlibProvenance
	ThirdPartyProvenance
	FirstPartyProvenance
	LocalProvenance
)

func (p Provenance) String() string {
	switch p {
	case FutureProvenance:
		return "future"
	case StdlibProvenance:
		return "stdlib"
	case FirstPartyProvenance:
		return "first-party"
	case LocalProvenance:
		return "local"
	default:
		return "third-party"
	}
}

// PolicyConfig is the raw section policy as written in the configuration file
type PolicyConfig struct {
	Order           []string            // section-order
	Sections        map[string][]string // custom section name -> module root tokens
	KnownFirstParty []string            // roots resolved as first-party
	RequiredImports []string            // statements every file must contain
}

// Policy is an immutable, validated section ordering policy
type Policy struct {
	order      []Category
	rank       map[Category]int
	tokens     map[string]Category
	firstParty map[string]bool
	required   []string
}

// New validates cfg and builds a Policy from it
func New(cfg PolicyConfig) (*Policy, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	p := &Policy{
		rank:       make(map[Category]int),
		tokens:     make(map[string]Category),
		firstParty: make(map[string]bool),
		required:   append([]string(nil), cfg.RequiredImports...),
	}

	for name, tokens := range cfg.Sections {
		for _, tok := range tokens {
			p.tokens[tok] = Category(name)
		}
	}

	if len(cfg.Order) == 0 {
		p.order = defaultOrder(cfg.Sections)
	} else {
		for _, name := range cfg.Order {
			p.order = append(p.order, Category(name))
		}
	}
	for i, cat := range p.order {
		p.rank[cat] = i
	}

	for _, root := range cfg.KnownFirstParty {
		p.firstParty[RootName(root)] = true
	}
	return p, nil
}

// defaultOrder places custom sections after the built-ins, sorted by name
func defaultOrder(custom map[string][]string) []Category {
	order := append([]Category(nil), Builtins...)
	names := sortedNames(custom)
	for _, name := range names {
		order = append(order, Category(name))
	}
	return order
}

func sortedNames(m map[string][]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the section-order and custom section invariants, returning
// every problem found.
func Validate(cfg PolicyConfig) error {
	var err error

	declared := make(map[string]bool)
	for _, b := range Builtins {
		declared[string(b)] = true
	}

	owner := make(map[string]string)
	for _, name := range sortedNames(cfg.Sections) {
		if IsBuiltin(Category(name)) {
			err = multierr.Append(err, fmt.Errorf("%w: "+errors.ErrMsgBuiltinSectionTaken, errors.ErrInvalidConfig, name))
			continue
		}
		declared[name] = true
		for _, tok := range cfg.Sections[name] {
			if strings.TrimSpace(tok) == "" {
				err = multierr.Append(err, fmt.Errorf("%w: "+errors.ErrMsgEmptyToken, errors.ErrInvalidConfig, name))
				continue
			}
			if prev, ok := owner[tok]; ok && prev != name {
				err = multierr.Append(err, fmt.Errorf("%w: "+errors.ErrMsgAmbiguousToken, errors.ErrInvalidConfig, tok, prev, name))
				continue
			}
			owner[tok] = name
		}
	}

	if len(cfg.Order) == 0 {
		return err
	}

	seen := make(map[string]bool)
	for _, name := range cfg.Order {
		if seen[name] {
			err = multierr.Append(err, fmt.Errorf("%w: "+errors.ErrMsgDuplicateSection, errors.ErrInvalidConfig, name))
			continue
		}
		seen[name] = true
		if !declared[name] {
			err = multierr.Append(err, fmt.Errorf("%w: "+errors.ErrMsgUnknownSection, errors.ErrInvalidConfig, name))
		}
	}
	for _, b := range Builtins {
		if !seen[string(b)] {
			err = multierr.Append(err, fmt.Errorf("%w: "+errors.ErrMsgMissingSection, errors.ErrInvalidConfig, b))
		}
	}
	for _, name := range sortedNames(cfg.Sections) {
		if declared[name] && !IsBuiltin(Category(name)) && !seen[name] {
			err = multierr.Append(err, fmt.Errorf("%w: "+errors.ErrMsgMissingSection, errors.ErrInvalidConfig, name))
		}
	}
	return err
}

// Order returns the categories in output order
func (p *Policy) Order() []Category {
	return append([]Category(nil), p.order...)
}

// Rank returns the position of cat in the section order, or -1
func (p *Policy) Rank(cat Category) int {
	if r, ok := p.rank[cat]; ok {
		return r
	}
	return -1
}

// RequiredImports returns the statements every file must contain verbatim
func (p *Policy) RequiredImports() []string {
	return append([]string(nil), p.required...)
}

// Classify maps a module root name and its provenance to a category. A root
// listed in a custom section always wins over provenance.
func (p *Policy) Classify(root string, prov Provenance) Category {
	if cat, ok := p.tokens[root]; ok {
		return cat
	}

	switch prov {
	case FutureProvenance:
		return Future
	case StdlibProvenance:
		return StandardLibrary
	case FirstPartyProvenance:
		return FirstParty
	case LocalProvenance:
		return LocalFolder
	default:
		return ThirdParty
	}
}

// Resolve determines the provenance of a dotted module path
func (p *Policy) Resolve(module string) Provenance {
	if strings.HasPrefix(module, ".") {
		return LocalProvenance
	}

	root := RootName(module)
	switch {
	case root == "__future__":
		return FutureProvenance
	case std.IsStandardPackage(root):
		return StdlibProvenance
	case p.firstParty[root]:
		return FirstPartyProvenance
	default:
		return ThirdPartyProvenance
	}
}

// CategoryOf resolves and classifies a dotted module path
func (p *Policy) CategoryOf(module string) Category {
	return p.Classify(RootName(module), p.Resolve(module))
}

// RootName returns the first segment of a dotted module path. Relative
// module paths have no root name.
func RootName(module string) string {
	if strings.HasPrefix(module, ".") {
		return ""
	}
	root, _, _ := strings.Cut(strings.TrimSpace(module), ".")
	return root
}
