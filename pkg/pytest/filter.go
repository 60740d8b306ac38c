package pytest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
)

// Action is what happens to a warning matched by a filter
type Action string

const (
	ActionDefault Action = "default"
	ActionError   Action = "error"
	ActionIgnore  Action = "ignore"
	ActionAlways  Action = "always"
	ActionModule  Action = "module"
	ActionOnce    Action = "once"
)

var actions = []Action{ActionDefault, ActionError, ActionIgnore, ActionAlways, ActionModule, ActionOnce}

// BaseCategory is the category every warning belongs to
const BaseCategory = "Warning"

var categoryPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Warning is a runtime warning to be matched against filters
type Warning struct {
	Message  string
	Category string
	Bases    []string // categories Category derives from, beyond Warning
	Module   string
	Lineno   int
}

// Filter is one parsed filterwarnings entry
type Filter struct {
	Action   Action
	Message  string
	Category string
	Module   string
	Lineno   int

	message *regexp.Regexp
	module  *regexp.Regexp
}

// ParseFilter parses action:message:category:module:lineno, where every
// field but the action is optional.
func ParseFilter(raw string) (Filter, error) {
	parts := strings.Split(raw, ":")
	if len(parts) > 5 {
		return Filter{}, fmt.Errorf("%w: "+errors.ErrMsgTooManyFields, errors.ErrInvalidFilter, raw)
	}
	for len(parts) < 5 {
		parts = append(parts, "")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	action, ok := resolveAction(parts[0])
	if !ok {
		return Filter{}, fmt.Errorf("%w: "+errors.ErrMsgUnknownAction, errors.ErrInvalidFilter, parts[0], raw)
	}

	f := Filter{
		Action:   action,
		Message:  parts[1],
		Category: strings.TrimPrefix(parts[2], "builtins."),
		Module:   parts[3],
	}

	if f.Category != "" && !categoryPattern.MatchString(f.Category) {
		return Filter{}, fmt.Errorf("%w: "+errors.ErrMsgInvalidCategory, errors.ErrInvalidFilter, parts[2], raw)
	}

	if parts[4] != "" {
		n, err := strconv.Atoi(parts[4])
		if err != nil || n < 0 {
			return Filter{}, fmt.Errorf("%w: "+errors.ErrMsgInvalidLineno, errors.ErrInvalidFilter, parts[4], raw)
		}
		f.Lineno = n
	}

	var err error
	if f.Message != "" {
		if f.message, err = regexp.Compile(`(?i)^(?:` + f.Message + `)`); err != nil {
			return Filter{}, fmt.Errorf("%w: "+errors.ErrMsgInvalidPattern+": %v", errors.ErrInvalidFilter, "message", raw, err)
		}
	}
	if f.Module != "" {
		if f.module, err = regexp.Compile(`^(?:` + f.Module + `)`); err != nil {
			return Filter{}, fmt.Errorf("%w: "+errors.ErrMsgInvalidPattern+": %v", errors.ErrInvalidFilter, "module", raw, err)
		}
	}
	return f, nil
}

// resolveAction accepts full action names, unique prefixes and "all"
func resolveAction(s string) (Action, bool) {
	if s == "" {
		return ActionDefault, true
	}
	if s == "all" {
		return ActionAlways, true
	}
	for _, a := range actions {
		if strings.HasPrefix(string(a), s) {
			return a, true
		}
	}
	return "", false
}

// String renders the filter back to its configuration form
func (f Filter) String() string {
	fields := []string{string(f.Action), f.Message, f.Category, f.Module, ""}
	if f.Lineno > 0 {
		fields[4] = strconv.Itoa(f.Lineno)
	}
	n := len(fields)
	for n > 1 && fields[n-1] == "" {
		n--
	}
	return strings.Join(fields[:n], ":")
}

// Matches reports whether the filter applies to w
func (f Filter) Matches(w Warning) bool {
	if f.message != nil && !f.message.MatchString(w.Message) {
		return false
	}
	if f.Category != "" && !w.isA(f.Category) {
		return false
	}
	if f.module != nil && !f.module.MatchString(w.Module) {
		return false
	}
	return f.Lineno == 0 || f.Lineno == w.Lineno
}

func (w Warning) isA(category string) bool {
	switch category {
	case BaseCategory, "Exception", "BaseException":
		return true
	}
	if strings.TrimPrefix(w.Category, "builtins.") == category {
		return true
	}
	for _, b := range w.Bases {
		if strings.TrimPrefix(b, "builtins.") == category {
			return true
		}
	}
	return false
}

// Filters is an ordered list of warning filters
type Filters []Filter

// ParseFilters parses every entry, rejecting the list if any is malformed
func ParseFilters(raw []string) (Filters, error) {
	var (
		filters Filters
		err     error
	)
	for _, r := range raw {
		f, perr := ParseFilter(r)
		if perr != nil {
			err = multierr.Append(err, perr)
			continue
		}
		filters = append(filters, f)
	}
	if err != nil {
		return nil, err
	}
	return filters, nil
}

// Action returns the action of the first filter matching w, or the default
// action when none does.
func (fs Filters) Action(w Warning) Action {
	if f, ok := fs.Match(w); ok {
		return f.Action
	}
	return ActionDefault
}

// Match returns the first filter matching w
func (fs Filters) Match(w Warning) (Filter, bool) {
	for _, f := range fs {
		if f.Matches(w) {
			return f, true
		}
	}
	return Filter{}, false
}

// Strings renders every filter back to its configuration form
func (fs Filters) Strings() []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.String())
	}
	return out
}
