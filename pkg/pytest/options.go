package pytest

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
)

// JUnit XML schema families understood by the test runner
var junitFamilies = map[string]bool{
	"legacy": true,
	"xunit1": true,
	"xunit2": true,
}

// Options are the test runner settings as written in the configuration file
type Options struct {
	Addopts        string
	Testpaths      []string
	FilterWarnings []string
	JunitFamily    string
}

// TestConfig is the validated test runner configuration
type TestConfig struct {
	Args        []string
	Testpaths   []string
	Filters     Filters
	JunitFamily string
}

// Load validates opts and parses its warning filters
func Load(opts Options) (*TestConfig, error) {
	var err error

	filters, ferr := ParseFilters(opts.FilterWarnings)
	err = multierr.Append(err, ferr)

	if opts.JunitFamily != "" && !junitFamilies[opts.JunitFamily] {
		err = multierr.Append(err, fmt.Errorf("%w: "+errors.ErrMsgUnknownJunitMode, errors.ErrInvalidConfig, opts.JunitFamily))
	}
	for _, p := range opts.Testpaths {
		if strings.TrimSpace(p) == "" {
			err = multierr.Append(err, fmt.Errorf("%w: empty entry in testpaths", errors.ErrInvalidConfig))
		}
	}
	if err != nil {
		return nil, err
	}

	return &TestConfig{
		Args:        strings.Fields(opts.Addopts),
		Testpaths:   append([]string(nil), opts.Testpaths...),
		Filters:     filters,
		JunitFamily: opts.JunitFamily,
	}, nil
}
