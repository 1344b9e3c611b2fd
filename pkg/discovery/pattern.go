package discovery

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// LocalBusinessSource generates the domain patterns German small businesses
// actually register: query-location combinations with common joins.
type LocalBusinessSource struct{}

func NewLocalBusinessSource() *LocalBusinessSource { return &LocalBusinessSource{} }

func (s *LocalBusinessSource) Name() string { return "local-pattern" }

func (s *LocalBusinessSource) Applicable(opts types.DiscoveryOptions) bool {
	return opts.Query != "" && opts.Location != ""
}

func (s *LocalBusinessSource) Search(_ context.Context, opts types.DiscoveryOptions) []types.DiscoveryCandidate {
	query := slugify(opts.Query)
	location := slugify(opts.Location)
	tld := normalizeTLD(opts.TLD)
	if query == "" || location == "" {
		return nil
	}

	domains := []string{
		query + "-" + location + tld,
		query + location + tld,
		location + "-" + query + tld,
		compactSlug(opts.Query) + "-" + location + tld,
		query + "-" + location + "-praxis" + tld,
		query + "-in-" + location + tld,
		"ihr-" + query + "-" + location + tld,
	}
	return candidates(s.Name(), ConfidencePattern, domains)
}

// SocialPatternSource derives domain guesses from the handle patterns
// businesses reuse across social profiles and their own sites.
type SocialPatternSource struct{}

func NewSocialPatternSource() *SocialPatternSource { return &SocialPatternSource{} }

func (s *SocialPatternSource) Name() string { return "social-pattern" }

func (s *SocialPatternSource) Applicable(opts types.DiscoveryOptions) bool {
	return opts.Query != "" && opts.Location != ""
}

func (s *SocialPatternSource) Search(_ context.Context, opts types.DiscoveryOptions) []types.DiscoveryCandidate {
	handle := compactSlug(opts.Query + " " + opts.Location)
	short := compactSlug(opts.Query)
	tld := normalizeTLD(opts.TLD)
	if handle == "" {
		return nil
	}

	domains := []string{
		handle + tld,
		handle + ".com",
		short + "-team" + tld,
		short + "-studio" + tld,
		"mein-" + short + tld,
	}
	return candidates(s.Name(), ConfidenceSocial, domains)
}

// syntheticVariations is the lowest pattern tier: keyword, prefix, suffix
// and location permutations used only to top up a starved candidate list.
func syntheticVariations(opts types.DiscoveryOptions) []types.DiscoveryCandidate {
	base := slugify(opts.Query)
	if base == "" {
		base = slugify(opts.Industry)
	}
	if base == "" {
		return nil
	}
	tld := normalizeTLD(opts.TLD)

	domains := []string{
		base + tld,
		base + "24" + tld,
		base + "-online" + tld,
		base + "-service" + tld,
		"die-" + base + tld,
		base + "-profi" + tld,
	}
	if location := slugify(opts.Location); location != "" {
		domains = append(domains,
			base+"-"+location+"24"+tld,
			location+"er-"+base+tld,
		)
	}
	return candidates("synthetic", ConfidenceSynthetic, domains)
}
