package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
)

var changelogCmd = &cobra.Command{
	Use:   "changelog ISSUE...",
	Short: "Render changelog issue references",
	Long: `Render the changelog reference for each issue number using the
issue_format of [tool.towncrier].

Examples:
  pypolicy changelog 1234`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChangelog,
}

func init() {
	rootCmd.AddCommand(changelogCmd)
}

func runChangelog(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	settings := p.File.Changelog()
	if err := settings.Validate(); err != nil {
		return err
	}

	for _, arg := range args {
		issue, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: invalid issue number %q", errors.ErrInvalidTemplate, arg)
		}
		link, err := settings.Link(issue)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
	}
	return nil
}
