package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL turns a bare domain or partial URL into a fetchable URL,
// prepending https:// when no scheme is present.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: website URL is empty", ErrInsufficientInput)
	}

	withScheme := raw
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		withScheme = "https://" + raw
	}

	parsed, err := url.Parse(withScheme)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrURLParse, withScheme, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q has no usable host", ErrURLParse, withScheme)
	}
	return withScheme, nil
}

// ExtractDomain derives the bare domain (scheme, www. and path stripped,
// lowercased) from a domain or website URL.
func ExtractDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: input URL is empty", ErrDomainExtraction)
	}

	withScheme := raw
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		withScheme = "https://" + raw
	}

	parsed, err := url.Parse(withScheme)
	if err != nil {
		return "", fmt.Errorf("%w: could not parse %q: %v", ErrDomainExtraction, raw, err)
	}

	host := parsed.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: no host in %q", ErrDomainExtraction, raw)
	}

	domain := strings.ToLower(strings.TrimPrefix(host, "www."))
	if domain == "" {
		return "", fmt.Errorf("%w: empty domain in %q", ErrDomainExtraction, raw)
	}
	return domain, nil
}
