package changelog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
)

const dialsIssueFormat = "`#{issue} <https://github.com/dials/dials/issues/{issue}>`_"

func TestSettings_Link(t *testing.T) {
	req := require.New(t)
	s := Settings{Package: "dials", PackageDir: "src", Filename: "CHANGELOG.rst", IssueFormat: dialsIssueFormat}

	link, err := s.Link(1234)
	req.NoError(err)
	req.Equal("`#1234 <https://github.com/dials/dials/issues/1234>`_", link)

	_, err = s.Link(0)
	req.ErrorIs(err, errors.ErrInvalidTemplate)
}

func TestSettings_LinkBareURL(t *testing.T) {
	req := require.New(t)
	s := Settings{IssueFormat: "https://tracker.example.org/browse/{issue}"}

	link, err := s.Link(7)
	req.NoError(err)
	req.Equal("https://tracker.example.org/browse/7", link)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		format string
		msg    string
	}{
		{"dials format", dialsIssueFormat, ""},
		{"unset", "", ""},
		{"no placeholder", "`#1 <https://github.com/dials/dials/issues/1>`_", "no {issue} placeholder"},
		{"foreign placeholder", "`#{issue} <https://github.com/{org}/dials/issues/{issue}>`_", `unsupported placeholder "{org}"`},
		{"not a url", "`#{issue} <issues/{issue}>`_", "does not render a valid URL"},
		{"no scheme", "#{issue}", "does not render a valid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := Settings{IssueFormat: tt.format}.Validate()
			if tt.msg == "" {
				req.NoError(err)
				return
			}
			req.ErrorIs(err, errors.ErrInvalidTemplate)
			req.Contains(err.Error(), tt.msg)
		})
	}
}
