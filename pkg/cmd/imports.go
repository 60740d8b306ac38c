package cmd

import (
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siyuan-infoblox/pypolicy/pkg/cache"
	"github.com/siyuan-infoblox/pypolicy/pkg/config"
	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
	"github.com/siyuan-infoblox/pypolicy/pkg/formatter"
	"github.com/siyuan-infoblox/pypolicy/pkg/rules"
	"github.com/siyuan-infoblox/pypolicy/pkg/utils"
	"github.com/siyuan-infoblox/pypolicy/pkg/version"
	"github.com/siyuan-infoblox/pypolicy/pkg/watch"
)

var importsFlags struct {
	inPlace bool
	check   bool
	diff    bool
	watch   bool
	jobs    int
	noCache bool
}

var importsCmd = &cobra.Command{
	Use:   "imports PATH",
	Short: "Group and sort the imports of Python files",
	Long: `Group and sort the leading import block of Python files into the
configured sections, inserting any required imports.

PATH can be either a single Python file or a directory. When a directory is
specified, all Python source files in the directory and subdirectories will be
processed recursively. Hidden directories, __pycache__, build, dist,
node_modules and venv are skipped.

With --diff the changes are printed as a unified diff. Without --in-place,
--check or --diff the formatted import block of a single file is
printed to stdout.

With --check, files found clean are remembered in .pypolicy_cache next to
pyproject.toml and skipped until they or the configuration change. Use
--no-cache to check every file.

With --watch the directory is processed again whenever Python files or
pyproject.toml change, until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runImports,
}

func init() {
	rootCmd.AddCommand(importsCmd)

	importsCmd.Flags().BoolVar(&importsFlags.inPlace, "in-place", false, "Modify the files in place instead of printing to stdout")
	importsCmd.Flags().BoolVar(&importsFlags.check, "check", false, "Only report violations, exiting non-zero when any are found")
	importsCmd.Flags().BoolVar(&importsFlags.diff, "diff", false, "Print the changes that would be made as a unified diff")
	importsCmd.Flags().BoolVarP(&importsFlags.watch, "watch", "w", false, "Keep running and process files again when they change")
	importsCmd.Flags().IntVarP(&importsFlags.jobs, "jobs", "j", 0, "Number of files processed concurrently (default: number of CPUs)")
	importsCmd.Flags().BoolVar(&importsFlags.noCache, "no-cache", false, "Check every file, ignoring results remembered from earlier runs")
	importsCmd.MarkFlagsMutuallyExclusive("in-place", "check", "diff")
}

// fileProcessor applies the import policy to files
type fileProcessor interface {
	ProcessPath(path string) error
	ProcessFiles(paths []string) error
}

// noopRelease is returned when nothing needs releasing
func noopRelease() {}

// newImportsProcessor loads the configuration and builds a formatter for it.
// release must be called once the formatter is no longer used.
func newImportsProcessor(cmd *cobra.Command, path string) (g fileProcessor, release func(), err error) {
	p, err := loadProject()
	if err != nil {
		return nil, nil, err
	}
	policy, err := p.File.SectionPolicy()
	if err != nil {
		return nil, nil, err
	}

	root, err := filepath.Abs(filepath.Dir(p.Path))
	if err != nil {
		return nil, nil, err
	}

	// Without a selection every import violation is reported
	var rs *rules.RuleSet
	if len(p.File.RuleConfig().Select) > 0 {
		if rs, err = p.File.RuleSet(logger); err != nil {
			return nil, nil, err
		}
	}

	var resultCache formatter.ResultCache
	release = noopRelease
	if importsFlags.check && !importsFlags.noCache {
		c, err := openCache(root, p.File)
		if stderrors.Is(err, errUnversionedBuild) {
			logger.Debug("cache disabled for a development build")
		} else if err != nil {
			// The check still works without the cache
			logger.Warn("cache unavailable", zap.Error(err))
		} else {
			resultCache = c
			release = func() {
				if err := c.Close(); err != nil {
					logger.Warn("failed to close cache", zap.Error(err))
				}
			}
		}
	}

	return formatter.New(formatter.FormatterConfig{
		FilePath: path, // This will be updated for each file when processing directories
		Policy:   policy,
		Rules:    rs,
		Root:     root,
		InPlace:  importsFlags.inPlace,
		Check:    importsFlags.check,
		Diff:     importsFlags.diff,
		Workers:  importsFlags.jobs,
		Cache:    resultCache,
		Logger:   logger,
		Out:      cmd.OutOrStdout(),
	}), release, nil
}

var errUnversionedBuild = stderrors.New("build has no version or commit")

// buildIdentity names the build of this tool for cache keys. A development
// build without a version or commit has no identity.
func buildIdentity() (string, error) {
	if (versionStr == "" || versionStr == "(devel)") && version.GitCommit == "unknown" {
		return "", errUnversionedBuild
	}
	return fmt.Sprintf("%s %s %s", versionStr, version.GitCommit, version.BuildDate), nil
}

// openCache opens the project cache keyed on the configuration and the
// build of this tool
func openCache(root string, f config.File) (*cache.Cache, error) {
	build, err := buildIdentity()
	if err != nil {
		return nil, err
	}
	data, err := f.Marshal()
	if err != nil {
		return nil, err
	}
	c, err := cache.Open(cache.Path(root), cache.Fingerprint(data, []byte(build)), logger)
	if err != nil {
		return nil, err
	}
	if n, err := c.Len(); err == nil {
		logger.Debug("opened cache", zap.String("root", root), zap.Int("entries", n))
	}
	return c, nil
}

func runImports(cmd *cobra.Command, args []string) error {
	path := args[0]

	g, release, err := newImportsProcessor(cmd, path)
	if err != nil {
		return err
	}
	err = g.ProcessPath(path)
	if !importsFlags.watch {
		release()
		return err
	}
	return watchImports(cmd, path, g, release)
}

// watchImports processes changed files under dir until interrupted. A change
// to the configuration rebuilds the formatter.
func watchImports(cmd *cobra.Command, dir string, g fileProcessor, release func()) error {
	defer func() { release() }()

	if isDir, err := utils.IsDirectory(dir); err != nil || !isDir {
		return fmt.Errorf("--watch needs a directory, got %q", dir)
	}

	w, err := watch.New(watch.Config{Root: dir}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger.Info("watching for changes", zap.String("path", dir))
	return w.Run(ctx, func(paths []string) {
		var sources []string
		for _, p := range paths {
			if filepath.Base(p) == utils.ConfigFileName {
				reloaded, reloadedRelease, err := newImportsProcessor(cmd, dir)
				if err != nil {
					logger.Error("failed to reload configuration", zap.Error(err))
					continue
				}
				release()
				g, release = reloaded, reloadedRelease
				logger.Info("configuration reloaded", zap.String("path", p))
				continue
			}
			if _, err := os.Stat(p); err == nil {
				sources = append(sources, p)
			}
		}
		if len(sources) == 0 {
			return
		}
		if err := g.ProcessFiles(sources); err != nil && !stderrors.Is(err, errors.ErrPolicyViolation) {
			logger.Warn("failed to process changed files", zap.Error(err))
		}
	})
}
