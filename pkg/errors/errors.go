package errors

import stderrors "errors"

// Sentinel errors, matched with errors.Is by callers
var (
	ErrInvalidConfig   = stderrors.New("invalid configuration")
	ErrUnknownKey      = stderrors.New("unknown configuration key")
	ErrInvalidFilter   = stderrors.New("invalid warning filter")
	ErrInvalidTemplate = stderrors.New("invalid issue format")
	ErrInvalidGlob     = stderrors.New("invalid glob pattern")
	ErrPolicyViolation = stderrors.New("import policy violation")
)

// Error message constants for the pypolicy application
const (
	// Configuration errors
	ErrMsgFailedToLoadConfig   = "failed to load configuration"
	ErrMsgFailedToDecodeConfig = "failed to decode configuration"
	ErrMsgFailedToEncodeConfig = "failed to encode configuration"
	ErrMsgFailedToWriteConfig  = "failed to write configuration"
	ErrMsgConfigNotFound       = "pyproject.toml not found"
	ErrMsgUnknownKeys          = "unknown keys in %s"

	// Section policy errors
	ErrMsgDuplicateSection    = "section %q listed more than once in section-order"
	ErrMsgUnknownSection      = "section %q in section-order is not a built-in or custom section"
	ErrMsgMissingSection      = "section %q is declared but missing from section-order"
	ErrMsgAmbiguousToken      = "token %q belongs to both %q and %q"
	ErrMsgEmptyToken          = "empty token in section %q"
	ErrMsgBuiltinSectionTaken = "custom section %q shadows a built-in section"

	// Lint rule errors
	ErrMsgInvalidRuleCode  = "invalid rule code %q in %s"
	ErrMsgInvalidGlob      = "invalid per-file-ignores pattern %q"
	ErrMsgStaleOverride    = "per-file-ignores pattern %q matches no file under %s"
	ErrMsgFailedToWalkTree = "failed to walk project tree"

	// Changelog errors
	ErrMsgMissingPlaceholder = "issue_format has no {issue} placeholder"
	ErrMsgForeignPlaceholder = "issue_format has unsupported placeholder %q"
	ErrMsgInvalidIssueURL    = "issue_format does not render a valid URL: %q"
	ErrMsgNegativeIssue      = "issue number must be positive, got %d"

	// Warning filter errors
	ErrMsgTooManyFields    = "too many fields (max 5) in %q"
	ErrMsgUnknownAction    = "unknown action %q in %q"
	ErrMsgInvalidCategory  = "invalid warning category %q in %q"
	ErrMsgInvalidPattern   = "invalid %s pattern in %q"
	ErrMsgInvalidLineno    = "invalid line number %q in %q"
	ErrMsgUnknownJunitMode = "unknown junit_family %q"

	// File processing errors
	ErrMsgFailedToReadFile      = "failed to read file"
	ErrMsgFailedToScanImports   = "failed to scan imports"
	ErrMsgFailedToWriteFile     = "failed to write file"
	ErrMsgFailedToCheckPath     = "failed to check path"
	ErrMsgFailedToFindPyFiles   = "failed to find Python files in directory"
	ErrMsgFilesFailedToProcess  = "%d files failed to process"
	ErrMsgFilesViolatePolicy    = "%d files violate the import policy"
	ErrMsgFailedToGetWorkingDir = "failed to get current working directory"

	// Info/warning messages
	WarnMsgProcessingDirWithoutInPlace = "Warning: Processing directory without --in-place flag. No files will be modified."
	InfoMsgUseInPlaceFlag              = "Use --in-place flag to modify files or --check to only report violations."
	InfoMsgNoPyFilesFound              = "No Python files found in directory: %s"
	InfoMsgFoundPyFiles                = "Found %d Python files in directory: %s"
	InfoMsgProcessedFiles              = "Processed: %s"
	InfoMsgErrorProcessing             = "Error processing %s: %v"
	InfoMsgProcessedCount              = "\nProcessed %d files successfully"
	InfoMsgErrorCount                  = ", %d files had errors"
	InfoMsgConfigOK                    = "%s: configuration OK"
	InfoMsgWroteConfig                 = "Wrote %s"
)
