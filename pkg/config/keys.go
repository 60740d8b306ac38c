package config

import "strings"

// toolKeys lists, per governed table, the option and subtable names the tool
// itself accepts. Keys found here but not modelled by File are left alone;
// anything else is a key the tool would reject or silently ignore.
var toolKeys = map[string][]string{
	"tool.towncrier": {
		"all_bullets", "build_ignore_filenames", "create_add_extension",
		"create_eof_newline", "directory", "filename", "ignore", "issue_format",
		"issue_pattern", "name", "orphan_prefix", "package", "package_dir",
		"section", "single_file", "start_string", "template", "title_format",
		"type", "underlines", "version", "wrap",
	},
	"tool.ruff": append([]string{
		"analyze", "builtins", "cache-dir", "exclude", "extend", "extend-exclude",
		"extend-include", "fix", "fix-only", "force-exclude", "format", "include",
		"indent-width", "line-length", "lint", "namespace-packages",
		"output-format", "preview", "required-version", "respect-gitignore",
		"show-fixes", "src", "target-version", "unsafe-fixes",
	}, lintKeys...), // lint options are still accepted at the top level
	"tool.ruff.lint": lintKeys,
	"tool.ruff.lint.isort": {
		"case-sensitive", "classes", "combine-as-imports", "constants",
		"default-section", "detect-same-package", "extra-standard-library",
		"force-single-line", "force-sort-within-sections", "force-to-top",
		"force-wrap-aliases", "forced-separate", "from-first",
		"known-first-party", "known-local-folder", "known-third-party",
		"length-sort", "length-sort-straight", "lines-after-imports",
		"lines-between-types", "no-lines-before", "no-sections",
		"order-by-type", "relative-imports-order", "required-imports",
		"section-order", "sections", "single-line-exclusions",
		"split-on-trailing-comma", "variables",
	},
	"tool.pytest.ini_options": {
		"addopts", "cache_dir", "consider_namespace_packages",
		"console_output_style", "doctest_encoding", "doctest_optionflags",
		"empty_parameter_set_mark", "enable_assertion_pass_hook",
		"faulthandler_timeout", "filterwarnings", "junit_duration_report",
		"junit_family", "junit_log_passing_tests", "junit_logging",
		"junit_suite_name", "log_auto_indent", "log_cli", "log_cli_date_format",
		"log_cli_format", "log_cli_level", "log_date_format", "log_file",
		"log_file_date_format", "log_file_format", "log_file_level",
		"log_file_mode", "log_format", "log_level", "markers", "minversion",
		"norecursedirs", "python_classes", "python_files", "python_functions",
		"pythonpath", "required_plugins", "testpaths",
		"tmp_path_retention_count", "tmp_path_retention_policy",
		"usefixtures", "verbosity_assertions", "verbosity_test_cases",
		"xfail_strict",
		// Widely used plugins
		"asyncio_default_fixture_loop_scope", "asyncio_mode", "env",
		"timeout", "timeout_method",
	},
}

var lintKeys = []string{
	"allowed-confusables", "dummy-variable-rgx", "exclude",
	"explicit-preview-rules", "extend-fixable", "extend-ignore",
	"extend-per-file-ignores", "extend-safe-fixes", "extend-select",
	"extend-unsafe-fixes", "external", "fixable", "future-annotations",
	"ignore", "ignore-init-module-imports", "logger-objects",
	"per-file-ignores", "preview", "select", "task-tags", "typing-extensions",
	"typing-modules", "unfixable",
	// Plugin subtables
	"flake8-annotations", "flake8-bandit", "flake8-boolean-trap",
	"flake8-bugbear", "flake8-builtins", "flake8-comprehensions",
	"flake8-copyright", "flake8-errmsg", "flake8-gettext",
	"flake8-implicit-str-concat", "flake8-import-conventions",
	"flake8-pytest-style", "flake8-quotes", "flake8-self",
	"flake8-tidy-imports", "flake8-type-checking", "flake8-unused-arguments",
	"isort", "mccabe", "pep8-naming", "pycodestyle", "pydoclint",
	"pydocstyle", "pyflakes", "pylint", "pyupgrade", "ruff",
}

// knownToTool reports whether an undecoded key inside a governed table is an
// option its tool accepts. The longest governed table containing key decides.
func knownToTool(key string) (governed, known bool) {
	table := ""
	for t := range toolKeys {
		if strings.HasPrefix(key, t+".") && len(t) > len(table) {
			table = t
		}
	}
	if table == "" {
		return false, false
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(key, table+"."), ".")
	name = strings.Trim(name, `"'`)
	for _, k := range toolKeys[table] {
		if k == name {
			return true, true
		}
	}
	return true, false
}
