package changelog

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
)

// Placeholder is substituted with the issue number
const Placeholder = "{issue}"

var (
	placeholderPattern = regexp.MustCompile(`\{[^{}]*\}`)
	urlPattern         = regexp.MustCompile(`<([^<>\s]+)>`)
)

// Settings are the changelog aggregator options
type Settings struct {
	Package     string
	PackageDir  string
	Filename    string
	IssueFormat string
}

// Validate checks that IssueFormat carries the issue placeholder, no other
// placeholder, and renders a valid absolute URL.
func (s Settings) Validate() error {
	if s.IssueFormat == "" {
		return nil
	}
	if !strings.Contains(s.IssueFormat, Placeholder) {
		return fmt.Errorf("%w: %s", errors.ErrInvalidTemplate, errors.ErrMsgMissingPlaceholder)
	}
	for _, ph := range placeholderPattern.FindAllString(s.IssueFormat, -1) {
		if ph != Placeholder {
			return fmt.Errorf("%w: "+errors.ErrMsgForeignPlaceholder, errors.ErrInvalidTemplate, ph)
		}
	}
	_, err := s.Link(1234)
	return err
}

// Link renders the issue reference for issue
func (s Settings) Link(issue int) (string, error) {
	if issue <= 0 {
		return "", fmt.Errorf("%w: "+errors.ErrMsgNegativeIssue, errors.ErrInvalidTemplate, issue)
	}
	if !strings.Contains(s.IssueFormat, Placeholder) {
		return "", fmt.Errorf("%w: %s", errors.ErrInvalidTemplate, errors.ErrMsgMissingPlaceholder)
	}

	link := strings.ReplaceAll(s.IssueFormat, Placeholder, strconv.Itoa(issue))
	target := link
	if m := urlPattern.FindStringSubmatch(link); m != nil {
		target = m[1]
	}
	if !validURL(target) {
		return "", fmt.Errorf("%w: "+errors.ErrMsgInvalidIssueURL, errors.ErrInvalidTemplate, link)
	}
	return link, nil
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
