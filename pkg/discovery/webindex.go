package discovery

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/httpclient"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/logger"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// WebIndexSource queries the Common Crawl URL index for domains matching
// the query slug. It is an enrichment tier: the aggregator only consults
// it when the live sources came back thin, because index scans are slow
// and noisy.
type WebIndexSource struct {
	endpoint string
	client   *http.Client
	log      *logger.Logger
}

func NewWebIndexSource(log *logger.Logger) *WebIndexSource {
	return &WebIndexSource{
		endpoint: "https://index.commoncrawl.org/CC-MAIN-2025-33-index",
		client:   httpclient.NewProbeClient(defaultProviderTimeout),
		log:      log.WithSource("webindex"),
	}
}

func (s *WebIndexSource) Name() string { return "webindex" }

func (s *WebIndexSource) Applicable(opts types.DiscoveryOptions) bool {
	return opts.Query != "" || opts.Industry != ""
}

func (s *WebIndexSource) Search(ctx context.Context, opts types.DiscoveryOptions) []types.DiscoveryCandidate {
	slug := slugify(opts.Query)
	if slug == "" {
		slug = slugify(opts.Industry)
	}
	tld := strings.TrimPrefix(normalizeTLD(opts.TLD), ".")

	// Wildcard prefix query over the index: *.tld URLs whose host starts
	// with the slug. The index answers NDJSON, one capture per line.
	pattern := fmt.Sprintf("%s*.%s", slug, tld)
	endpoint := fmt.Sprintf("%s?url=%s&output=json&limit=50&matchType=domain",
		s.endpoint, url.QueryEscape(pattern))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debugw("Web index query failed", "error", err)
		return nil
	}
	defer httpclient.CloseBody(resp)
	if resp.StatusCode != http.StatusOK {
		s.log.Debugw("Web index returned non-OK status", "status", resp.StatusCode)
		return nil
	}

	seen := make(map[string]bool)
	var domains []string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var record struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		parsed, err := url.Parse(record.URL)
		if err != nil || parsed.Host == "" {
			continue
		}
		host := types.NormalizeDomain(parsed.Host)
		if host != "" && !seen[host] {
			seen[host] = true
			domains = append(domains, host)
		}
	}
	return candidates(s.Name(), ConfidenceWebIndex, domains)
}
