package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rulesFlags struct {
	file string
}

var rulesCmd = &cobra.Command{
	Use:   "rules [CODE...]",
	Short: "Show whether lint rules are enabled",
	Long: `Show whether each lint rule code is selected and fixable, and with
--file whether it applies to that file once per-file-ignores are taken into
account. File paths are relative to the directory of pyproject.toml.

Without codes or --file the per-file-ignores patterns are listed.

Examples:
  pypolicy rules F401 E741 --file src/dials/__init__.py`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVar(&rulesFlags.file, "file", "", "File the rules are evaluated for")
}

func runRules(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	rs, err := p.File.RuleSet(logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st := newStyles(out)

	if len(args) == 0 && rulesFlags.file == "" {
		overrides := p.File.RuleConfig().PerFileIgnores
		for _, pattern := range rs.Patterns() {
			fmt.Fprintf(out, "%s %s\n", st.path.Render(pattern), strings.Join(overrides[pattern], ", "))
		}
		return nil
	}

	yesNo := func(b bool) string {
		if b {
			return st.ok.Render("yes")
		}
		return st.problem.Render("no")
	}

	for _, code := range args {
		code = strings.ToUpper(strings.TrimSpace(code))
		fmt.Fprintf(out, "%s selected=%s fixable=%s", st.path.Render(code), yesNo(rs.Selected(code)), yesNo(rs.Fixable(code)))
		if rulesFlags.file != "" {
			fmt.Fprintf(out, " enabled=%s", yesNo(rs.Enabled(code, rulesFlags.file)))
		}
		fmt.Fprintln(out)
	}

	if rulesFlags.file != "" {
		if codes := rs.Suppressed(rulesFlags.file); len(codes) > 0 {
			fmt.Fprintf(out, "%s %s\n", st.dim.Render("suppressed for "+rulesFlags.file+":"), strings.Join(codes, ", "))
		}
	}
	return nil
}
