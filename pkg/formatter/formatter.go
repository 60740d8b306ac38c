package formatter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
	"github.com/siyuan-infoblox/pypolicy/pkg/rules"
	"github.com/siyuan-infoblox/pypolicy/pkg/sections"
	"github.com/siyuan-infoblox/pypolicy/pkg/utils"
)

// ResultCache remembers files that passed the check
type ResultCache interface {
	Clean(path string, src []byte) bool
	MarkClean(path string, src []byte) error
}

type FormatterConfig struct {
	FilePath string           // path to the Python source file
	Policy   *sections.Policy // section ordering policy to enforce
	Rules    *rules.RuleSet   // optional rule set deciding which violations are reported
	Root     string           // project root, file paths are matched against rules relative to it
	InPlace  bool             // whether to modify the file in place
	Check    bool             // only report violations, never rewrite
	Diff     bool             // print the rewrite as a unified diff, never rewrite
	Workers  int              // files processed concurrently, defaults to GOMAXPROCS
	Cache    ResultCache      // optional, consulted in check mode only
	Logger   *zap.Logger
	Out      io.Writer // defaults to stdout
}

// formatter handles the import grouping logic
type formatter struct {
	config FormatterConfig
	logger *zap.Logger
	out    io.Writer
}

// New creates a new formatter enforcing the given section policy
func New(config FormatterConfig) *formatter {
	g := &formatter{
		config: config,
		logger: config.Logger,
		out:    config.Out,
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.out == nil {
		g.out = os.Stdout
	}
	return g
}

func (g *formatter) getFilePath() string {
	return g.config.FilePath
}

func (g *formatter) getPolicy() *sections.Policy {
	return g.config.Policy
}

func (g *formatter) getInPlace() bool {
	return g.config.InPlace
}

// reportOnly reports whether files are inspected without being rewritten
func (g *formatter) reportOnly() bool {
	return g.config.Check || g.config.Diff
}

// relativePath returns path relative to the project root for rule matching
func (g *formatter) relativePath(path string) string {
	root := g.config.Root
	if root == "" {
		return filepath.ToSlash(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// classifyImports assigns every import its section
func (g *formatter) classifyImports(imports []Import) {
	for i := range imports {
		imports[i].Category = g.getPolicy().CategoryOf(imports[i].Module)
	}
}

// requiredImports parses the policy's required statements
func (g *formatter) requiredImports() ([]Import, error) {
	var required []Import
	for _, stmt := range g.getPolicy().RequiredImports() {
		imports, err := parseStatement(stmt)
		if err != nil {
			return nil, fmt.Errorf("required import: %w", err)
		}
		required = append(required, imports...)
	}
	g.classifyImports(required)
	return required, nil
}

// missingRequired returns the required imports that no import provides
func missingRequired(imports, required []Import) []Import {
	var missing []Import
	for _, req := range required {
		found := false
		for _, imp := range imports {
			if imp.provides(req) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, req)
		}
	}
	return missing
}

// groupImports categorizes imports into sections, merging from-imports of
// the same module, and sorts each section.
func (g *formatter) groupImports(imports []Import) map[sections.Category][]Import {
	grouped := make(map[sections.Category][]Import)
	fromIndex := make(map[string]int)

	for _, imp := range imports {
		cat := imp.Category
		if imp.From {
			key := string(cat) + "\x00" + imp.Module
			if idx, ok := fromIndex[key]; ok {
				merged := &grouped[cat][idx]
				merged.Names = mergeNames(merged.Names, imp.Names)
				merged.Leading = append(merged.Leading, imp.Leading...)
				if merged.Comment == "" {
					merged.Comment = imp.Comment
				}
				continue
			}
			fromIndex[key] = len(grouped[cat])
		} else if containsPlain(grouped[cat], imp) {
			continue
		}
		grouped[cat] = append(grouped[cat], imp)
	}

	for cat := range grouped {
		g.sortImportsInGroup(grouped[cat])
	}
	return grouped
}

func containsPlain(imports []Import, imp Import) bool {
	for _, other := range imports {
		if !other.From && other.Module == imp.Module && other.Alias == imp.Alias {
			return true
		}
	}
	return false
}

func mergeNames(a, b []Name) []Name {
	out := append([]Name(nil), a...)
	for _, n := range b {
		dup := false
		for _, have := range out {
			if have == n {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}

// sortImportsInGroup sorts a section: plain imports before from-imports,
// each by module, and the names of every from-import.
func (g *formatter) sortImportsInGroup(imports []Import) {
	for i := range imports {
		names := append([]Name(nil), imports[i].Names...)
		sort.SliceStable(names, func(a, b int) bool { return lessName(names[a], names[b]) })
		imports[i].Names = names
	}
	sort.SliceStable(imports, func(i, j int) bool {
		return lessImport(imports[i], imports[j])
	})
}

// renderImports lays out grouped imports in section order with one blank
// line between sections.
func (g *formatter) renderImports(grouped map[sections.Category][]Import) []string {
	var out []string
	for _, cat := range g.getPolicy().Order() {
		imports := grouped[cat]
		if len(imports) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, "")
		}
		for _, imp := range imports {
			out = append(out, imp.lines()...)
		}
	}
	return out
}

// requiredFor returns the required imports that apply to a file. Stubs and
// modules holding nothing but comments and a docstring get none.
func (g *formatter) requiredFor(b *block, path string) ([]Import, error) {
	if isStub(path) || b.empty() {
		return nil, nil
	}
	return g.requiredImports()
}

func isStub(path string) bool {
	return strings.HasSuffix(path, ".pyi")
}

// format rewrites the leading import block of src, read from path
func (g *formatter) format(src []byte, path string) ([]byte, error) {
	b, err := scanImports(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToScanImports, err)
	}

	required, err := g.requiredFor(b, path)
	if err != nil {
		return nil, err
	}

	imports := append([]Import(nil), b.imports...)
	g.classifyImports(imports)
	imports = append(imports, missingRequired(imports, required)...)
	if len(imports) == 0 {
		return src, nil
	}

	rendered := g.renderImports(g.groupImports(imports))

	var lines []string
	lines = append(lines, b.lines[:b.start]...)
	lines = append(lines, rendered...)
	rest := b.lines[b.end:]
	if len(rest) > 0 && strings.TrimSpace(rest[0]) != "" {
		lines = append(lines, "")
	}
	lines = append(lines, rest...)

	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

// importBlock renders only the formatted import block of src
func (g *formatter) importBlock(src []byte, path string) ([]byte, error) {
	formatted, err := g.format(src, path)
	if err != nil {
		return nil, err
	}
	b, err := scanImports(string(formatted))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToScanImports, err)
	}
	block := b.lines[b.start:b.end]
	if len(block) == 0 {
		return nil, nil
	}
	return []byte(strings.Join(block, "\n") + "\n"), nil
}

// ProcessFileWithOutput processes a Python source file with optional output control
func (g *formatter) ProcessFileWithOutput(verbose bool) error {
	return g.processFile(g.getFilePath(), g.out, verbose)
}

func (g *formatter) processFile(path string, out io.Writer, verbose bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgFailedToReadFile, err)
	}

	if g.config.Check {
		rel := g.relativePath(path)
		cache := g.config.Cache
		if cache != nil && cache.Clean(rel, src) {
			g.logger.Debug("unchanged since last clean check", zap.String("file", path))
			return nil
		}
		violations, err := g.check(src, rel)
		if err != nil {
			return err
		}
		for _, v := range violations {
			fmt.Fprintln(out, v.String())
		}
		if len(violations) > 0 {
			return fmt.Errorf("%w: %d in %s", errors.ErrPolicyViolation, len(violations), path)
		}
		if cache != nil {
			if err := cache.MarkClean(rel, src); err != nil {
				g.logger.Warn("failed to update cache", zap.String("file", path), zap.Error(err))
			}
		}
		return nil
	}

	if g.config.Diff {
		output, err := g.format(src, path)
		if err != nil {
			return err
		}
		if d := unifiedDiff(g.relativePath(path), src, output); d != "" {
			fmt.Fprint(out, d)
			return fmt.Errorf("%w: %s would be rewritten", errors.ErrPolicyViolation, path)
		}
		return nil
	}

	if g.getInPlace() {
		output, err := g.format(src, path)
		if err != nil {
			return err
		}
		if bytes.Equal(output, src) {
			g.logger.Debug("already formatted", zap.String("file", path))
			return nil
		}
		if err := os.WriteFile(path, output, 0644); err != nil {
			return fmt.Errorf("%s: %w", errors.ErrMsgFailedToWriteFile, err)
		}
		g.logger.Debug("rewrote imports", zap.String("file", path))
		return nil
	}

	if verbose {
		// For stdout output, show only the import block
		block, err := g.importBlock(src, path)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(block))
	}
	return nil
}

// ProcessFile processes a Python source file and groups its imports
func (g *formatter) ProcessFile() error {
	return g.ProcessFileWithOutput(true)
}

// fileResult is the outcome of processing one file of a batch
type fileResult struct {
	out bytes.Buffer
	err error
}

// ProcessFiles processes multiple Python source files concurrently. Output
// is written in the order of filePaths.
func (g *formatter) ProcessFiles(filePaths []string) error {
	results := make([]fileResult, len(filePaths))

	var eg errgroup.Group
	eg.SetLimit(g.workers())
	for i, filePath := range filePaths {
		eg.Go(func() error {
			results[i].err = g.processFile(filePath, &results[i].out, false)
			return nil
		})
	}
	_ = eg.Wait()

	processedCount := 0
	errorCount := 0
	violatingCount := 0

	for i, filePath := range filePaths {
		_, _ = g.out.Write(results[i].out.Bytes())

		err := results[i].err
		switch {
		case err == nil:
			processedCount++
			if g.getInPlace() {
				g.logger.Info(fmt.Sprintf(errors.InfoMsgProcessedFiles, filePath))
			}
		case g.reportOnly() && isViolation(err):
			violatingCount++
		default:
			fmt.Fprintf(g.out, errors.InfoMsgErrorProcessing+"\n", filePath, err)
			g.logger.Warn("failed to process file", zap.String("file", filePath), zap.Error(err))
			errorCount++
		}
	}

	fmt.Fprintf(g.out, errors.InfoMsgProcessedCount, processedCount)
	if errorCount > 0 {
		fmt.Fprintf(g.out, errors.InfoMsgErrorCount, errorCount)
	}
	fmt.Fprintln(g.out)

	if errorCount > 0 {
		return fmt.Errorf(errors.ErrMsgFilesFailedToProcess, errorCount)
	}
	if violatingCount > 0 {
		return fmt.Errorf("%w: "+errors.ErrMsgFilesViolatePolicy, errors.ErrPolicyViolation, violatingCount)
	}
	return nil
}

func (g *formatter) workers() int {
	if g.config.Workers > 0 {
		return g.config.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// ProcessPath processes a file or directory path
func (g *formatter) ProcessPath(path string) error {
	isDir, err := utils.IsDirectory(path)
	if err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgFailedToCheckPath, err)
	}

	if !isDir {
		g.config.FilePath = path
		return g.ProcessFile()
	}

	// When processing directories, in-place or check mode is recommended
	if !g.getInPlace() && !g.reportOnly() {
		fmt.Fprintln(g.out, errors.WarnMsgProcessingDirWithoutInPlace)
		fmt.Fprintln(g.out, errors.InfoMsgUseInPlaceFlag)
		fmt.Fprintln(g.out)
	}

	pyFiles, err := utils.FindPythonFiles(path)
	if err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgFailedToFindPyFiles, err)
	}

	if len(pyFiles) == 0 {
		fmt.Fprintf(g.out, errors.InfoMsgNoPyFilesFound+"\n", path)
		return nil
	}

	g.logger.Info(fmt.Sprintf(errors.InfoMsgFoundPyFiles, len(pyFiles), path))
	return g.ProcessFiles(pyFiles)
}
