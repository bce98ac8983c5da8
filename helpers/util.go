package helpers

import (
	"net/url"
	"strings"
)

// ResolveURL resolves href against base. It returns an empty string when
// href is empty or either side cannot be parsed.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}

	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ""
	}
	return b.ResolveReference(ref).String()
}

// FirstNonEmpty returns the first value that is not blank, trimmed
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// CollapseSpace joins the whitespace separated fields of s with single spaces
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
