package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/siyuan-infoblox/pypolicy/pkg/config"
	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
	"github.com/siyuan-infoblox/pypolicy/pkg/utils"
	"github.com/siyuan-infoblox/pypolicy/pkg/version"
)

const (
	UseDescription   = "pypolicy [command]"
	ShortDescription = "Python project policy checker - validates and applies a pyproject.toml development policy"
	LongDescription  = `pypolicy reads the development-process policy of a Python project from
pyproject.toml and applies it.

The policy covers three tools:
1. The changelog fragment aggregator ([tool.towncrier])
2. The lint/format tool and its import sorter ([tool.ruff.lint], [tool.ruff.lint.isort])
3. The test runner ([tool.pytest.ini_options])

Imports are grouped into sections: future, standard-library, third-party,
any custom sections, first-party and local-folder, in the configured order.

Unless --config is given, pyproject.toml is searched for upwards from the
current directory.`
)

var (
	configPath  string
	verbose     bool
	strict      bool
	showVersion bool
	versionStr  string
	logger      = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:               UseDescription,
	Short:             ShortDescription,
	Long:              LongDescription,
	Args:              cobra.NoArgs,
	PersistentPreRunE: setupLogger,
	PersistentPostRun: syncLogger,
	RunE:              run,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to pyproject.toml (default: searched upwards from the current directory)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log progress information")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Treat unknown keys in governed tables as errors")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")
}

func setupLogger(cmd *cobra.Command, args []string) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	logger = l
	return nil
}

func syncLogger(cmd *cobra.Command, args []string) {
	// Syncing stderr fails on some platforms
	_ = logger.Sync()
}

func run(cmd *cobra.Command, args []string) error {
	// Handle version flag
	if showVersion {
		fmt.Fprintln(cmd.OutOrStdout(), version.Get(versionStr).String())
		return nil
	}
	return cmd.Help()
}

// resolveConfigPath returns the --config value or the nearest pyproject.toml
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("%s: %w", errors.ErrMsgFailedToGetWorkingDir, err)
	}
	path := utils.FindProjectConfig(wd)
	if path == "" {
		return "", fmt.Errorf("%w: %s", errors.ErrInvalidConfig, errors.ErrMsgConfigNotFound)
	}
	return path, nil
}

// loadProject loads the configuration and reports keys the tools would not
// understand. They are only fatal in strict mode.
func loadProject() (*config.Project, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	logger.Debug("loading configuration", zap.String("path", path))

	p, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if len(p.Unknown) > 0 && !strict {
		logger.Warn("unknown keys in governed tables", zap.String("path", path), zap.Strings("keys", p.Unknown))
	}
	if len(p.Unmodelled) > 0 {
		logger.Debug("tool options not checked", zap.String("path", path), zap.Strings("keys", p.Unmodelled))
	}
	return p, nil
}

// Execute runs the root command
func Execute(version string) error {
	versionStr = version
	return rootCmd.Execute()
}
