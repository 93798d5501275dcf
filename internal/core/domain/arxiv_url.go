package domain

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// allowedArxivHosts is the closed set of hosts a submitted URL may point at.
var allowedArxivHosts = map[string]struct{}{
	"arxiv.org":        {},
	"www.arxiv.org":    {},
	"export.arxiv.org": {},
}

var (
	arxivPathPattern = regexp.MustCompile(`^/(abs|pdf)/(\d{4}\.\d{4,5})(v\d+)?(\.pdf)?/?$`)
	arxivIDPattern   = regexp.MustCompile(`(?:abs|pdf)/(\d{4}\.\d{4,5})`)
)

// URLViolation distinguishes why a URL was rejected. Callers surface every
// violation as the same ErrInvalidURL kind; the distinction exists for logs.
type URLViolation string

const (
	ViolationLength  URLViolation = "length"
	ViolationHost    URLViolation = "host"
	ViolationPattern URLViolation = "pattern"
)

// ValidateArxivURL checks a submitted URL against the length bound, the arXiv
// host allow-list and the canonical abs/pdf path pattern. Surrounding
// whitespace is stripped before any check; the trimmed URL is returned on
// success.
func ValidateArxivURL(raw string, maxLength int) (string, URLViolation, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", ViolationPattern, WrapError(ErrInvalidURL, "validate url", errors.New("url is required"))
	}
	if maxLength > 0 && len(cleaned) > maxLength {
		return "", ViolationLength, WrapError(ErrInvalidURL, "validate url", fmt.Errorf("url exceeds %d characters", maxLength))
	}

	parsed, err := url.Parse(cleaned)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return "", ViolationPattern, WrapError(ErrInvalidURL, "validate url", errors.New("not an absolute url"))
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ViolationPattern, WrapError(ErrInvalidURL, "validate url", fmt.Errorf("unsupported scheme %q", parsed.Scheme))
	}
	if _, ok := allowedArxivHosts[strings.ToLower(parsed.Hostname())]; !ok {
		return "", ViolationHost, WrapError(ErrInvalidURL, "validate url", fmt.Errorf("host %q is not an arxiv domain", parsed.Hostname()))
	}
	if !arxivPathPattern.MatchString(parsed.Path) {
		return "", ViolationPattern, WrapError(ErrInvalidURL, "validate url", fmt.Errorf("path %q does not match abs/pdf paper pattern", parsed.Path))
	}
	// A paper URL ends at the path. Anything after it is rejected, not
	// stripped.
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return "", ViolationPattern, WrapError(ErrInvalidURL, "validate url", errors.New("query strings and fragments are not allowed"))
	}
	return cleaned, "", nil
}

// ExtractArxivID derives the bare paper identifier (without version suffix)
// from a validated arXiv URL.
func ExtractArxivID(validatedURL string) (string, error) {
	match := arxivIDPattern.FindStringSubmatch(validatedURL)
	if match == nil {
		return "", WrapError(ErrInvalidURL, "extract arxiv id", fmt.Errorf("no identifier in %q", validatedURL))
	}
	return match[1], nil
}
