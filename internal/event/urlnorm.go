package event

import (
	"fmt"
	"net/url"
	"strings"
)

const gspBase = "https://seattle.greencitypartnerships.org"

// NormalizeURL canonicalizes a URL for identity comparison:
// relative GSP paths become absolute, http is upgraded to https, a missing
// scheme defaults to https, the host is lowercased, and trailing slashes are
// dropped from the path. Query and fragment are preserved.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty url")
	}

	// GSP listing pages link to their detail pages with site-relative paths
	// like "/event/42093".
	if strings.HasPrefix(trimmed, "/") {
		trimmed = gspBase + trimmed
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}

	if parsed.Scheme == "" || parsed.Scheme == "http" {
		parsed.Scheme = "https"
	}
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Path = strings.TrimRight(parsed.Path, "/")

	return parsed.String(), nil
}

// Domain extracts the lowercased host from a URL, for per-domain throttling.
func Domain(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	return strings.ToLower(parsed.Host), nil
}
