package discovery

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/logger"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// PageFetcher is the slice of the proxy-relay fetch client the scraping
// sources need.
type PageFetcher interface {
	Fetch(ctx context.Context, target string) types.FetchResult
}

// hrefRe pulls absolute links out of listing HTML. Directory pages link
// each business to its own site, so the href hosts are the candidates.
var hrefRe = regexp.MustCompile(`(?i)href=["'](https?://[^"'\s>]+)["']`)

// directoryPortals are listing sites scraped per TLD. Templates receive the
// query as %[1]s and the location as %[2]s; only hosts outside the portal's
// own domain count as candidates.
var directoryPortals = map[string][]string{
	".de": {
		"https://www.gelbeseiten.de/suche/%[1]s/%[2]s",
		"https://www.dasoertliche.de/?kw=%[1]s&ci=%[2]s",
	},
	".at": {
		"https://www.herold.at/gelbe-seiten/%[2]s/was_%[1]s/",
	},
	".ch": {
		"https://www.local.ch/de/q/%[2]s/%[1]s",
	},
	".com": {
		"https://www.yellowpages.com/search?search_terms=%[1]s&geo_location_terms=%[2]s",
	},
}

// DirectorySource scrapes business-directory listing pages through the
// relay fetch client and harvests outbound website links.
type DirectorySource struct {
	fetcher PageFetcher
	log     *logger.Logger
}

func NewDirectorySource(fetcher PageFetcher, log *logger.Logger) *DirectorySource {
	return &DirectorySource{fetcher: fetcher, log: log.WithSource("directory")}
}

func (s *DirectorySource) Name() string { return "directory" }

// Applicable requires a location: directory listings are geographic and a
// query alone scrapes nothing useful.
func (s *DirectorySource) Applicable(opts types.DiscoveryOptions) bool {
	return opts.Query != "" && opts.Location != ""
}

func (s *DirectorySource) Search(ctx context.Context, opts types.DiscoveryOptions) []types.DiscoveryCandidate {
	portals, ok := directoryPortals[normalizeTLD(opts.TLD)]
	if !ok {
		portals = directoryPortals[".de"]
	}

	seen := make(map[string]bool)
	var domains []string
	for _, portal := range portals {
		listing := fmt.Sprintf(portal, url.PathEscape(opts.Query), url.PathEscape(opts.Location))
		result := s.fetcher.Fetch(ctx, listing)
		if !result.Succeeded {
			s.log.Debugw("Directory listing fetch failed",
				"portal", listing,
				"status", result.StatusCode)
			continue
		}
		for _, host := range extractLinkHosts(result.Body, portalHost(listing)) {
			if !seen[host] {
				seen[host] = true
				domains = append(domains, host)
			}
		}
	}
	return candidates(s.Name(), ConfidenceDirectory, domains)
}

// extractLinkHosts returns the distinct hosts linked from html, excluding
// the portal itself and the infrastructure domains listings embed.
func extractLinkHosts(html, selfHost string) []string {
	var hosts []string
	for _, m := range hrefRe.FindAllStringSubmatch(html, -1) {
		parsed, err := url.Parse(m[1])
		if err != nil || parsed.Host == "" {
			continue
		}
		host := types.NormalizeDomain(parsed.Host)
		if host == "" || host == selfHost || isInfrastructureHost(host) {
			continue
		}
		hosts = append(hosts, host)
	}
	return hosts
}

func portalHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return types.NormalizeDomain(parsed.Host)
}

// isInfrastructureHost filters the CDNs, trackers and social platforms
// every listing page links to regardless of the businesses shown.
func isInfrastructureHost(host string) bool {
	for _, suffix := range []string{
		"google.com", "googleapis.com", "gstatic.com", "googletagmanager.com",
		"facebook.com", "instagram.com", "twitter.com", "x.com", "linkedin.com",
		"youtube.com", "doubleclick.net", "cloudflare.com", "cookiebot.com",
		"apple.com", "microsoft.com",
	} {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}
