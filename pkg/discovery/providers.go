package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/credentials"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/httpclient"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/logger"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// apiProvider is shared plumbing for the thin paid-API wrappers. Every
// provider degrades to deterministic pattern generation when its credential
// is absent, so discovery never returns empty purely for lack of a key.
type apiProvider struct {
	name    string
	credKey string
	creds   credentials.Store
	client  *http.Client
	log     *logger.Logger
}

func (p *apiProvider) Name() string { return p.name }

func (p *apiProvider) getJSON(ctx context.Context, endpoint string, header http.Header, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer httpclient.CloseBody(resp)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", p.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// YelpSource wraps the Yelp business search API.
type YelpSource struct {
	apiProvider
	baseURL  string
	fallback *LocalBusinessSource
}

func NewYelpSource(creds credentials.Store, log *logger.Logger) *YelpSource {
	return &YelpSource{
		apiProvider: apiProvider{
			name:    "yelp",
			credKey: credentials.KeyYelp,
			creds:   creds,
			client:  httpclient.NewProbeClient(defaultProviderTimeout),
			log:     log.WithSource("yelp"),
		},
		baseURL:  "https://api.yelp.com",
		fallback: NewLocalBusinessSource(),
	}
}

func (s *YelpSource) Applicable(opts types.DiscoveryOptions) bool {
	return opts.Query != "" && opts.Location != ""
}

func (s *YelpSource) Search(ctx context.Context, opts types.DiscoveryOptions) []types.DiscoveryCandidate {
	if !s.creds.Has(s.credKey) {
		return retag(s.fallback.Search(ctx, opts), s.name+"-fallback")
	}

	endpoint := fmt.Sprintf(
		"%s/v3/businesses/search?term=%s&location=%s&limit=20",
		s.baseURL, url.QueryEscape(opts.Query), url.QueryEscape(opts.Location))

	var payload struct {
		Businesses []struct {
			URL        string `json:"url"`
			Attributes struct {
				BusinessURL string `json:"business_url"`
			} `json:"attributes"`
		} `json:"businesses"`
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.creds.Get(s.credKey))

	if err := s.getJSON(ctx, endpoint, header, &payload); err != nil {
		s.log.Debugw("Yelp lookup failed, degrading to pattern fallback", "error", err)
		return retag(s.fallback.Search(ctx, opts), s.name+"-fallback")
	}

	var domains []string
	for _, b := range payload.Businesses {
		if b.Attributes.BusinessURL != "" {
			domains = append(domains, b.Attributes.BusinessURL)
		}
	}
	return candidates(s.name, ConfidenceAPI, domains)
}

// PlacesSource wraps the Places text search API.
type PlacesSource struct {
	apiProvider
	fallback *SocialPatternSource
}

func NewPlacesSource(creds credentials.Store, log *logger.Logger) *PlacesSource {
	return &PlacesSource{
		apiProvider: apiProvider{
			name:    "places",
			credKey: credentials.KeyPlaces,
			creds:   creds,
			client:  httpclient.NewProbeClient(defaultProviderTimeout),
			log:     log.WithSource("places"),
		},
		fallback: NewSocialPatternSource(),
	}
}

func (s *PlacesSource) Applicable(opts types.DiscoveryOptions) bool {
	return opts.Query != "" && opts.Location != ""
}

func (s *PlacesSource) Search(ctx context.Context, opts types.DiscoveryOptions) []types.DiscoveryCandidate {
	if !s.creds.Has(s.credKey) {
		return retag(s.fallback.Search(ctx, opts), s.name+"-fallback")
	}

	endpoint := fmt.Sprintf(
		"https://maps.googleapis.com/maps/api/place/textsearch/json?query=%s&key=%s",
		url.QueryEscape(opts.Query+" "+opts.Location), url.QueryEscape(s.creds.Get(s.credKey)))

	var payload struct {
		Results []struct {
			Website string `json:"website"`
		} `json:"results"`
	}

	if err := s.getJSON(ctx, endpoint, nil, &payload); err != nil {
		s.log.Debugw("Places lookup failed, degrading to pattern fallback", "error", err)
		return retag(s.fallback.Search(ctx, opts), s.name+"-fallback")
	}

	var domains []string
	for _, r := range payload.Results {
		if r.Website != "" {
			domains = append(domains, r.Website)
		}
	}
	return candidates(s.name, ConfidenceAPI, domains)
}

// HunterSource wraps the Hunter domain search API, which maps company
// names to domains.
type HunterSource struct {
	apiProvider
}

func NewHunterSource(creds credentials.Store, log *logger.Logger) *HunterSource {
	return &HunterSource{
		apiProvider: apiProvider{
			name:    "hunter",
			credKey: credentials.KeyHunter,
			creds:   creds,
			client:  httpclient.NewProbeClient(defaultProviderTimeout),
			log:     log.WithSource("hunter"),
		},
	}
}

func (s *HunterSource) Applicable(opts types.DiscoveryOptions) bool {
	// Without a key Hunter has no useful pattern analogue; the other
	// pattern tiers already cover generation.
	return opts.Query != "" && s.creds.Has(s.credKey)
}

func (s *HunterSource) Search(ctx context.Context, opts types.DiscoveryOptions) []types.DiscoveryCandidate {
	endpoint := fmt.Sprintf(
		"https://api.hunter.io/v2/domain-search?company=%s&api_key=%s",
		url.QueryEscape(opts.Query), url.QueryEscape(s.creds.Get(s.credKey)))

	var payload struct {
		Data struct {
			Domain string `json:"domain"`
		} `json:"data"`
	}

	if err := s.getJSON(ctx, endpoint, nil, &payload); err != nil {
		s.log.Debugw("Hunter lookup failed", "error", err)
		return nil
	}
	if payload.Data.Domain == "" {
		return nil
	}
	return candidates(s.name, ConfidenceAPI, []string{payload.Data.Domain})
}

// CustomSearchSource wraps a programmable web search API. It prefers a
// local-business query template when a location is present, otherwise an
// industry template.
type CustomSearchSource struct {
	apiProvider
	cxKey string
}

func NewCustomSearchSource(creds credentials.Store, log *logger.Logger) *CustomSearchSource {
	return &CustomSearchSource{
		apiProvider: apiProvider{
			name:    "custom-search",
			credKey: credentials.KeyCustomSearch,
			creds:   creds,
			client:  httpclient.NewProbeClient(defaultProviderTimeout),
			log:     log.WithSource("custom-search"),
		},
		cxKey: credentials.KeyCustomSearchCX,
	}
}

func (s *CustomSearchSource) Applicable(opts types.DiscoveryOptions) bool {
	return opts.Query != "" && s.creds.Has(s.credKey) && s.creds.Has(s.cxKey)
}

func (s *CustomSearchSource) Search(ctx context.Context, opts types.DiscoveryOptions) []types.DiscoveryCandidate {
	tld := normalizeTLD(opts.TLD)
	var query string
	if opts.Location != "" {
		query = fmt.Sprintf("%s %s site:*%s", opts.Query, opts.Location, tld)
	} else {
		query = fmt.Sprintf("%s %s site:*%s", opts.Query, opts.Industry, tld)
	}

	endpoint := fmt.Sprintf(
		"https://www.googleapis.com/customsearch/v1?key=%s&cx=%s&q=%s&num=10",
		url.QueryEscape(s.creds.Get(s.credKey)),
		url.QueryEscape(s.creds.Get(s.cxKey)),
		url.QueryEscape(query))

	var payload struct {
		Items []struct {
			Link string `json:"link"`
		} `json:"items"`
	}

	if err := s.getJSON(ctx, endpoint, nil, &payload); err != nil {
		s.log.Debugw("Custom search failed", "error", err)
		return nil
	}

	var domains []string
	for _, item := range payload.Items {
		domains = append(domains, item.Link)
	}
	return candidates(s.name, ConfidenceAPI, domains)
}

// DefaultSources assembles the standard provider set in tier order: paid
// APIs, directory scraping, then the pattern generators.
func DefaultSources(fetcher PageFetcher, creds credentials.Store, log *logger.Logger) []DataSource {
	return []DataSource{
		NewYelpSource(creds, log),
		NewPlacesSource(creds, log),
		NewHunterSource(creds, log),
		NewCustomSearchSource(creds, log),
		NewDirectorySource(fetcher, log),
		NewSocialPatternSource(),
		NewLocalBusinessSource(),
	}
}

// retag relabels fallback candidates so pattern-generated data never
// masquerades as an API hit.
func retag(cands []types.DiscoveryCandidate, source string) []types.DiscoveryCandidate {
	for i := range cands {
		cands[i].Source = source
	}
	return cands
}
