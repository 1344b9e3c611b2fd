package audit

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// BuildSnapshot parses a fetched page into a PageSnapshot. Malformed HTML
// degrades to a snapshot with empty parsed fields; the raw body and headers
// are always preserved for fingerprinting.
func BuildSnapshot(result types.FetchResult) *types.PageSnapshot {
	snap := &types.PageSnapshot{
		RawHTML:          result.Body,
		Headers:          result.Headers,
		ResponseTimeMs:   result.LatencyMs,
		ContentSizeBytes: len(result.Body),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.Body))
	if err != nil {
		return snap
	}

	snap.Title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		content, _ := s.Attr("content")
		switch strings.ToLower(name) {
		case "description":
			if snap.MetaDescription == "" {
				snap.MetaDescription = strings.TrimSpace(content)
			}
		case "generator":
			if content = strings.TrimSpace(content); content != "" {
				snap.GeneratorTags = append(snap.GeneratorTags, content)
			}
		case "viewport":
			snap.HasViewportMeta = true
		case "robots":
			for _, directive := range strings.Split(content, ",") {
				if directive = strings.ToLower(strings.TrimSpace(directive)); directive != "" {
					snap.RobotsDirectives = append(snap.RobotsDirectives, directive)
				}
			}
		}
	})

	doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		snap.H1s = append(snap.H1s, strings.TrimSpace(s.Text()))
	})

	return snap
}
