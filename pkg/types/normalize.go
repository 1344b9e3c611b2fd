package types

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizeDomain lowercases a domain and strips scheme, credentials, path,
// port, trailing dots and a leading "www." label. It is idempotent:
// NormalizeDomain(NormalizeDomain(d)) == NormalizeDomain(d).
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(strings.ToLower(raw))

	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.Index(d, "@"); i >= 0 {
		d = d[i+1:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimSuffix(d, ".")
	for strings.HasPrefix(d, "www.") {
		d = strings.TrimPrefix(d, "www.")
	}
	return d
}

// PlausibleDomain reports whether a normalized string looks like a
// registrable public domain. Used as a cheap pre-filter before spending a
// DNS lookup on a generated candidate.
func PlausibleDomain(domain string) bool {
	if domain == "" || !strings.Contains(domain, ".") {
		return false
	}
	if strings.ContainsAny(domain, " \t\r\n") {
		return false
	}
	suffix, icann := publicsuffix.PublicSuffix(domain)
	if !icann {
		return false
	}
	// Needs at least one label in front of the public suffix.
	return len(domain) > len(suffix)+1
}
