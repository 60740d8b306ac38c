package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify MODULE...",
	Short: "Show the import section of dotted module paths",
	Long: `Show which import section each dotted module path is placed in.

A root listed in a custom section always wins over the module's provenance
(future, standard library, first-party, local or third-party).

Examples:
  pypolicy classify os.path scitbx.array_family dials.util numpy .utils`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	policy, err := p.File.SectionPolicy()
	if err != nil {
		return err
	}

	width := 0
	for _, module := range args {
		width = max(width, len(module))
	}

	st := newStyles(cmd.OutOrStdout())
	for _, module := range args {
		module = strings.TrimSpace(module)
		cat := policy.CategoryOf(module)
		prov := policy.Resolve(module)
		fmt.Fprintf(cmd.OutOrStdout(), "%-*s  %s %s\n", width, module,
			st.label.Render(string(cat)), st.dim.Render("("+prov.String()+")"))
	}
	return nil
}
