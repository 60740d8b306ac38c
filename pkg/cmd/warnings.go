package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siyuan-infoblox/pypolicy/pkg/pytest"
)

var warningsFlags struct {
	message  string
	category string
	bases    []string
	module   string
	lineno   int
}

var warningsCmd = &cobra.Command{
	Use:   "warnings",
	Short: "List the warning filters or decide the action for a warning",
	Long: `List the filterwarnings entries of [tool.pytest.ini_options] in their
normalised form.

When --message, --category or --module is given, the filters are evaluated
for that warning instead and the action taken is printed together with the
filter that decided it. The first matching filter wins.

Examples:
  # List filters
  pypolicy warnings

  # Decide the action for a warning
  pypolicy warnings --category RuntimeWarning --message "numpy.dtype size changed, may indicate"`,
	Args: cobra.NoArgs,
	RunE: runWarnings,
}

func init() {
	rootCmd.AddCommand(warningsCmd)

	warningsCmd.Flags().StringVar(&warningsFlags.message, "message", "", "Warning message")
	warningsCmd.Flags().StringVar(&warningsFlags.category, "category", "", "Warning category, e.g. DeprecationWarning")
	warningsCmd.Flags().StringSliceVar(&warningsFlags.bases, "bases", nil, "Categories the warning category derives from")
	warningsCmd.Flags().StringVar(&warningsFlags.module, "module", "", "Module the warning was raised in")
	warningsCmd.Flags().IntVar(&warningsFlags.lineno, "lineno", 0, "Line the warning was raised on")
}

func runWarnings(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	tc, err := p.File.TestConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st := newStyles(out)

	if warningsFlags.message == "" && warningsFlags.category == "" && warningsFlags.module == "" {
		for _, f := range tc.Filters.Strings() {
			fmt.Fprintln(out, f)
		}
		return nil
	}

	category := warningsFlags.category
	if category == "" {
		category = "UserWarning"
	}
	w := pytest.Warning{
		Message:  warningsFlags.message,
		Category: category,
		Bases:    warningsFlags.bases,
		Module:   warningsFlags.module,
		Lineno:   warningsFlags.lineno,
	}

	f, ok := tc.Filters.Match(w)
	if !ok {
		fmt.Fprintf(out, "%s %s\n", st.label.Render(string(pytest.ActionDefault)), st.dim.Render("(no filter matched)"))
		return nil
	}
	fmt.Fprintf(out, "%s %s\n", st.label.Render(string(f.Action)), st.dim.Render("("+f.String()+")"))
	return nil
}
