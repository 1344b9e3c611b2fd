package discovery

import (
	"context"
	"strings"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// industryDomains maps industry keywords to known operating domains. The
// table is read-only after init and safe for unsynchronized concurrent
// reads; it is the fourth fallback tier, consulted only when the live
// sources found too little.
var industryDomains = map[string][]string{
	"zahnarzt": {
		"zahnarzt-zentrum.de", "dr-smile.de", "zahnklinik-berlin.de",
		"dentolo.de", "zahnarztpraxis-mitte.de",
	},
	"friseur": {
		"klier.de", "essanelle.de", "friseur-klick.de", "top-hair.de",
	},
	"restaurant": {
		"lieferando.de", "opentable.de", "bookatable.de", "speisekarte.de",
	},
	"anwalt": {
		"anwalt.de", "kanzlei-jun.de", "advocado.de", "rechtecheck.de",
	},
	"steuerberater": {
		"steuerberater.de", "datev.de", "ageras.de", "felix1.de",
	},
	"apotheke": {
		"shop-apotheke.com", "docmorris.de", "apotheken-umschau.de",
	},
	"handwerker": {
		"myhammer.de", "blauarbeit.de", "check24.de",
	},
	"fitness": {
		"mcfit.com", "fitx.de", "clever-fit.com", "urbansportsclub.com",
	},
	"immobilien": {
		"immobilienscout24.de", "immowelt.de", "immonet.de",
	},
	"hotel": {
		"hrs.de", "booking.com", "trivago.de",
	},
}

// tldFallbacks are well-known directory portals per TLD, appended when
// fewer than three candidates validate so the caller never receives a
// near-empty result for a supported TLD.
var tldFallbacks = map[string][]string{
	".de":  {"gelbeseiten.de", "dasoertliche.de", "11880.com", "jameda.de"},
	".at":  {"herold.at", "firmenabc.at", "wko.at"},
	".ch":  {"local.ch", "search.ch", "moneyhouse.ch"},
	".com": {"yelp.com", "yellowpages.com", "bbb.org"},
}

// IndustrySource serves the static industry database as a DataSource so
// the aggregator can use it as a top-up tier.
type IndustrySource struct{}

func NewIndustrySource() *IndustrySource { return &IndustrySource{} }

func (s *IndustrySource) Name() string { return "industry-db" }

func (s *IndustrySource) Applicable(opts types.DiscoveryOptions) bool {
	return opts.Query != "" || opts.Industry != ""
}

func (s *IndustrySource) Search(_ context.Context, opts types.DiscoveryOptions) []types.DiscoveryCandidate {
	var matched []string
	for _, needle := range []string{opts.Industry, opts.Query} {
		needle = strings.ToLower(strings.TrimSpace(needle))
		if needle == "" {
			continue
		}
		for keyword, domains := range industryDomains {
			if strings.Contains(needle, keyword) || strings.Contains(keyword, needle) {
				matched = append(matched, domains...)
			}
		}
	}
	return candidates(s.Name(), ConfidenceIndustry, matched)
}

// fallbackDomains returns the static well-known domains for a TLD,
// defaulting to the .de set for unsupported TLDs.
func fallbackDomains(tld string) []types.DiscoveryCandidate {
	domains, ok := tldFallbacks[normalizeTLD(tld)]
	if !ok {
		domains = tldFallbacks[".de"]
	}
	return candidates("tld-fallback", ConfidenceFallback, domains)
}
