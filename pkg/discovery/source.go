// Package discovery finds candidate domains for a business query by fanning
// out to many best-effort sources, merging and validating the results.
package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// defaultProviderTimeout bounds a single external provider call.
const defaultProviderTimeout = 10 * time.Second

// Confidence tiers by provenance. Pattern-generated guesses never outrank
// data returned by a real external source, and each fallback tier below an
// external hit carries strictly lower confidence.
const (
	ConfidenceAPI       = 0.9
	ConfidenceDirectory = 0.7
	ConfidenceWebIndex  = 0.6
	ConfidenceSocial    = 0.5
	ConfidencePattern   = 0.4
	ConfidenceIndustry  = 0.3
	ConfidenceSynthetic = 0.2
	ConfidenceFallback  = 0.1
)

// DataSource is one independent domain-discovery provider. Search must not
// fail: internal errors resolve to an empty slice, and the aggregator
// treats every returned candidate as an unvalidated guess.
type DataSource interface {
	Name() string
	// Applicable reports whether the source can contribute for these
	// options (e.g. directory scrapers need a location, API providers
	// need credentials unless they degrade to pattern generation).
	Applicable(opts types.DiscoveryOptions) bool
	Search(ctx context.Context, opts types.DiscoveryOptions) []types.DiscoveryCandidate
}

// slugify turns free text into a domain-safe label: lowercase, German
// umlauts transliterated, everything else collapsed to hyphens.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(
		"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
		"é", "e", "è", "e", "ê", "e", "à", "a", "á", "a",
	)
	s = replacer.Replace(s)

	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// compactSlug is slugify without separators ("zahnarzt berlin" ->
// "zahnarztberlin").
func compactSlug(s string) string {
	return strings.ReplaceAll(slugify(s), "-", "")
}

// normalizeTLD guarantees a leading dot and a sane default.
func normalizeTLD(tld string) string {
	tld = strings.ToLower(strings.TrimSpace(tld))
	if tld == "" {
		return ".de"
	}
	if !strings.HasPrefix(tld, ".") {
		tld = "." + tld
	}
	return tld
}

// candidates builds DiscoveryCandidate values from bare domains, filtering
// anything that does not look like a registrable domain.
func candidates(source string, confidence float64, domains []string) []types.DiscoveryCandidate {
	out := make([]types.DiscoveryCandidate, 0, len(domains))
	for _, d := range domains {
		d = types.NormalizeDomain(d)
		if !types.PlausibleDomain(d) {
			continue
		}
		out = append(out, types.DiscoveryCandidate{
			Domain:     d,
			Source:     source,
			Confidence: confidence,
		})
	}
	return out
}
