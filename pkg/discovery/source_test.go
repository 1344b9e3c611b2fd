package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Zahnarzt", "zahnarzt"},
		{"umlauts", "Müller Schönheit", "mueller-schoenheit"},
		{"eszett", "Straßenbau", "strassenbau"},
		{"punctuation collapsed", "Dr. med. Weber & Co.", "dr-med-weber-co"},
		{"leading trailing junk", "  --zahnarzt--  ", "zahnarzt"},
		{"digits kept", "fitness24", "fitness24"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slugify(tt.input))
		})
	}
}

func TestCompactSlug(t *testing.T) {
	assert.Equal(t, "zahnarztberlin", compactSlug("Zahnarzt Berlin"))
	assert.Equal(t, "muellerschoenheit", compactSlug("Müller Schönheit"))
}

func TestNormalizeTLD(t *testing.T) {
	assert.Equal(t, ".de", normalizeTLD(""))
	assert.Equal(t, ".de", normalizeTLD("de"))
	assert.Equal(t, ".at", normalizeTLD(".AT"))
	assert.Equal(t, ".com", normalizeTLD(" com "))
}

func TestCandidatesFiltersImplausibleDomains(t *testing.T) {
	out := candidates("test", ConfidencePattern, []string{
		"zahnarzt-berlin.de",
		"not a domain",
		"localhost",
		"",
		"zahnarzt-berlin.de", // duplicate survives here; merge dedupes later
	})

	assert.Len(t, out, 2)
	for _, c := range out {
		assert.Equal(t, "zahnarzt-berlin.de", c.Domain)
		assert.Equal(t, "test", c.Source)
		assert.Equal(t, ConfidencePattern, c.Confidence)
	}
}

func TestLocalBusinessSourcePatterns(t *testing.T) {
	src := NewLocalBusinessSource()
	opts := types.DiscoveryOptions{Query: "Zahnarzt", Location: "Berlin", TLD: ".de"}

	assert.True(t, src.Applicable(opts))
	assert.False(t, src.Applicable(types.DiscoveryOptions{Query: "Zahnarzt"}))

	cands := src.Search(context.Background(), opts)
	domains := make([]string, 0, len(cands))
	for _, c := range cands {
		domains = append(domains, c.Domain)
	}
	assert.Contains(t, domains, "zahnarzt-berlin.de")
	assert.Contains(t, domains, "zahnarztberlin.de")
	assert.Contains(t, domains, "berlin-zahnarzt.de")
}

func TestSyntheticVariationsFallsBackToIndustry(t *testing.T) {
	cands := syntheticVariations(types.DiscoveryOptions{Industry: "Friseur", TLD: ".de"})
	assert.NotEmpty(t, cands)
	for _, c := range cands {
		assert.Equal(t, ConfidenceSynthetic, c.Confidence)
	}

	assert.Empty(t, syntheticVariations(types.DiscoveryOptions{TLD: ".de"}))
}

func TestIndustrySourceMatchesKeyword(t *testing.T) {
	src := NewIndustrySource()
	cands := src.Search(context.Background(), types.DiscoveryOptions{Query: "zahnarzt notdienst"})
	assert.NotEmpty(t, cands)
	for _, c := range cands {
		assert.Equal(t, ConfidenceIndustry, c.Confidence)
	}

	assert.Empty(t, src.Search(context.Background(), types.DiscoveryOptions{Query: "raumfahrt"}))
}

func TestFallbackDomainsUnknownTLDUsesDE(t *testing.T) {
	fallback := fallbackDomains(".xyz")
	assert.NotEmpty(t, fallback)
	assert.Equal(t, "gelbeseiten.de", fallback[0].Domain)
	assert.Equal(t, ConfidenceFallback, fallback[0].Confidence)
}
