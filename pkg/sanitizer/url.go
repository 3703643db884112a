package sanitizer

import (
	"net/url"
	"strings"
)

// NormalizeURL enforces https, lowercases the host and drops a trailing
// slash. Input that does not parse as a URL is returned trimmed so that
// validation can reject it.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if u.Scheme == "http" {
		u.Scheme = "https"
	}
	u.Host = strings.ToLower(u.Host)

	return strings.TrimSuffix(u.String(), "/")
}
