package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
)

var showFlags struct {
	output string
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the governed tables of pyproject.toml",
	Long: `Print the governed tables of pyproject.toml in TOML, JSON or YAML.
Tables and keys the policy does not govern are left out.

Examples:
  pypolicy show --output yaml`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&showFlags.output, "output", "o", "toml", "Output format: toml, json, yaml")
}

func runShow(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch showFlags.output {
	case "toml":
		return p.File.Encode(out)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p.File); err != nil {
			return fmt.Errorf("%s: %w", errors.ErrMsgFailedToEncodeConfig, err)
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(p.File); err != nil {
			return fmt.Errorf("%s: %w", errors.ErrMsgFailedToEncodeConfig, err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (want toml, json or yaml)", showFlags.output)
	}
}
