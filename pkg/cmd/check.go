package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
)

var checkFlags struct {
	root string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the policy in pyproject.toml",
	Long: `Validate every governed table of pyproject.toml and report all problems:
  - custom import sections sharing a token
  - section-order that is not a permutation of the declared sections
  - per-file-ignores patterns that match no file in the project
  - an issue_format that does not render a valid URL
  - malformed filterwarnings entries

Examples:
  # Check the project in the current directory
  pypolicy check

  # Fail on keys the tools would not understand
  pypolicy check --strict`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkFlags.root, "root", "", "Project tree per-file-ignores patterns are matched against (default: directory of pyproject.toml)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	err = p.Validate(strict)

	// Stale patterns can only be looked for once the patterns compile
	if rs, rerr := p.File.RuleSet(logger); rerr == nil {
		root := checkFlags.root
		if root == "" {
			root = filepath.Dir(p.Path)
		}
		stale, serr := rs.StaleOverrides(root)
		err = multierr.Append(err, serr)
		for _, pattern := range stale {
			err = multierr.Append(err, fmt.Errorf("%w: "+errors.ErrMsgStaleOverride, errors.ErrInvalidGlob, pattern, root))
		}
	}

	if err != nil {
		st := newStyles(cmd.ErrOrStderr())
		for _, e := range multierr.Errors(err) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", st.path.Render(p.Path), st.problem.Render(e.Error()))
		}
		return fmt.Errorf("%w: %d problems in %s", errors.ErrInvalidConfig, len(multierr.Errors(err)), p.Path)
	}

	st := newStyles(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), st.ok.Render(fmt.Sprintf(errors.InfoMsgConfigOK, p.Path)))
	return nil
}
