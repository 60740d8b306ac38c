package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siyuan-infoblox/pypolicy/pkg/config"
	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
	"github.com/siyuan-infoblox/pypolicy/pkg/utils"
)

var initFlags struct {
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Write the default policy to pyproject.toml",
	Long: `Write the default DIALS development policy to DIR/pyproject.toml
(default: the current directory). An existing file is only replaced with
--force, and only the governed tables are written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Replace an existing pyproject.toml")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	path := filepath.Join(dir, utils.ConfigFileName)

	if _, err := os.Stat(path); err == nil && !initFlags.force {
		return fmt.Errorf("%s already exists, use --force to replace it", path)
	}

	if err := config.Defaults().Save(path); err != nil {
		return err
	}
	logger.Debug("wrote default policy", zap.String("path", path))
	fmt.Fprintf(cmd.OutOrStdout(), errors.InfoMsgWroteConfig+"\n", path)
	return nil
}
