package formatter

import (
	"strings"
	"unicode"

	"github.com/siyuan-infoblox/pypolicy/pkg/sections"
)

// lineLength is the width beyond which from-imports are wrapped
const lineLength = 88

// Name is a single name imported by a from-import
type Name struct {
	Name  string
	Alias string // empty if no alias
}

func (n Name) String() string {
	if n.Alias == "" {
		return n.Name
	}
	return n.Name + " as " + n.Alias
}

// Import represents a single import statement
type Import struct {
	Module      string   // dotted module path, leading dots for relative imports
	Alias       string   // alias of a plain import, empty if no alias
	Names       []Name   // names of a from-import
	From        bool     // from-import rather than plain import
	Comment     string   // inline comment, without the leading '#'
	Leading     []string // own-line comments above the statement
	Line        int      // 1-based line the statement starts on
	BlankBefore bool     // a blank line separates it from the previous statement
	Multi       bool     // plain import sharing its statement with other modules
	Category    sections.Category
}

// statement renders the import without comments on a single line
func (imp Import) statement() string {
	if !imp.From {
		if imp.Alias != "" {
			return "import " + imp.Module + " as " + imp.Alias
		}
		return "import " + imp.Module
	}
	names := make([]string, 0, len(imp.Names))
	for _, n := range imp.Names {
		names = append(names, n.String())
	}
	return "from " + imp.Module + " import " + strings.Join(names, ", ")
}

// lines renders the import, wrapping long from-imports one name per line
func (imp Import) lines() []string {
	var out []string
	out = append(out, imp.Leading...)

	comment := ""
	if imp.Comment != "" {
		comment = "  # " + imp.Comment
	}

	stmt := imp.statement()
	if !imp.From || len(imp.Names) < 2 || len(stmt)+len(comment) <= lineLength {
		return append(out, stmt+comment)
	}

	out = append(out, "from "+imp.Module+" import ("+comment)
	for _, n := range imp.Names {
		out = append(out, "    "+n.String()+",")
	}
	return append(out, ")")
}

// provides reports whether imp makes everything req imports available
func (imp Import) provides(req Import) bool {
	if imp.From != req.From || imp.Module != req.Module {
		return false
	}
	if !imp.From {
		return imp.Alias == req.Alias
	}
	for _, want := range req.Names {
		found := false
		for _, have := range imp.Names {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// nameKind orders imported names as constants, classes, then everything else
func nameKind(name string) int {
	if len(name) > 1 && strings.ToUpper(name) == name {
		return 0
	}
	for _, r := range name {
		if unicode.IsUpper(r) {
			return 1
		}
		break
	}
	return 2
}

func lessName(a, b Name) bool {
	if ka, kb := nameKind(a.Name), nameKind(b.Name); ka != kb {
		return ka < kb
	}
	if la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name); la != lb {
		return la < lb
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Alias < b.Alias
}

// moduleKey sorts absolute modules case-insensitively and relative modules
// furthest first.
func moduleKey(module string) (int, string) {
	dots := len(module) - len(strings.TrimLeft(module, "."))
	return -dots, strings.ToLower(module[dots:])
}

func lessImport(a, b Import) bool {
	if a.From != b.From {
		return !a.From
	}
	da, ka := moduleKey(a.Module)
	db, kb := moduleKey(b.Module)
	if da != db {
		return da < db
	}
	if ka != kb {
		return ka < kb
	}
	if a.Module != b.Module {
		return a.Module < b.Module
	}
	return a.Alias < b.Alias
}
