// Package fetch retrieves page content through a chain of public proxy
// relays, racing them concurrently and normalizing their divergent response
// envelopes into a single FetchResult.
package fetch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/config"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/httpclient"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/logger"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// Client races relay endpoints to fetch a URL. It never returns an error
// for ordinary network or HTTP failure; total relay exhaustion yields a
// conservative failed FetchResult.
type Client struct {
	relays       []Relay
	httpClient   *http.Client
	log          *logger.Logger
	maxBodyBytes int64
	userAgent    string
	cacheTTL     time.Duration

	mu         sync.Mutex
	httpsCache map[string]cachedHTTPS
}

type cachedHTTPS struct {
	status  types.HTTPSStatus
	expires time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithRelays replaces the default relay chain. Order matters: the first
// relay is the tie-break owner when every relay fails.
func WithRelays(relays []Relay) Option {
	return func(c *Client) { c.relays = relays }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a relay-racing fetch client.
func NewClient(cfg config.FetchConfig, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		relays:       DefaultRelays(cfg.RelayTimeout),
		httpClient:   httpclient.NewRelayClient(cfg.RelayTimeout+2*time.Second, cfg.FollowRedirects),
		log:          log.WithComponent("fetch"),
		maxBodyBytes: cfg.MaxBodyBytes,
		userAgent:    cfg.UserAgent,
		cacheTTL:     cfg.HTTPSCacheTTL,
		httpsCache:   make(map[string]cachedHTTPS),
	}
	if c.maxBodyBytes <= 0 {
		c.maxBodyBytes = 1 << 20
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// raceState tracks the fetch race: Racing until a qualifying response
// arrives (EarlyAccept) or every relay settles (AllSettled), after which
// the best-effort result is chosen.
type raceState int

const (
	stateRacing raceState = iota
	stateEarlyAccept
	stateAllSettled
)

type relayOutcome struct {
	index  int
	result types.FetchResult
}

// authoritativeStatuses are definitive target answers: retrying another
// relay cannot change them, so the race stops immediately.
var authoritativeStatuses = map[int]bool{
	http.StatusUnauthorized: true,
	http.StatusForbidden:    true,
	http.StatusNotFound:     true,
}

// Fetch retrieves target through the relay chain. All relays are queried
// concurrently; the first response with a status in (0, 500) wins and the
// remaining attempts are abandoned best-effort.
func (c *Client) Fetch(ctx context.Context, target string) types.FetchResult {
	if len(c.relays) == 0 {
		return failedResult(target)
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan relayOutcome, len(c.relays))
	for i, relay := range c.relays {
		go func(idx int, r Relay) {
			outcomes <- relayOutcome{index: idx, result: c.attempt(raceCtx, r, target)}
		}(i, relay)
	}

	state := stateRacing
	settled := make([]*types.FetchResult, len(c.relays))

	for pending := len(c.relays); state == stateRacing && pending > 0; pending-- {
		out := <-outcomes
		res := out.result
		settled[out.index] = &res

		if authoritativeStatuses[res.StatusCode] {
			// Definitive rejection from the target itself.
			cancel()
			c.log.Debugw("Authoritative status short-circuited relay race",
				"url", target, "status", res.StatusCode, "relay", res.RelayUsed)
			return res
		}
		if res.StatusCode > 0 && res.StatusCode < 500 {
			state = stateEarlyAccept
			cancel()
			return res
		}
	}
	state = stateAllSettled

	// All settled without a qualifying response: first succeeded relay in
	// configured order wins.
	for _, res := range settled {
		if res != nil && res.Succeeded {
			return *res
		}
	}

	// Total exhaustion: surface the first configured relay's attempt,
	// marked failed, so the caller can still emit a partial audit.
	if settled[0] != nil {
		first := *settled[0]
		first.Succeeded = false
		return first
	}
	return failedResult(target)
}

func (c *Client) attempt(ctx context.Context, relay Relay, target string) types.FetchResult {
	result := types.FetchResult{URL: target, RelayUsed: relay.Name}
	start := time.Now()

	attemptCtx, cancel := context.WithTimeout(ctx, relay.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, relay.BuildURL(target), nil)
	if err != nil {
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and transport failures are indistinguishable to the
		// caller: the attempt simply did not succeed.
		return result
	}
	defer httpclient.CloseBody(resp)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return result
	}

	env, err := unwrap(relay.Shape, resp.StatusCode, resp.Header, raw)
	if err != nil {
		c.log.Debugw("Relay envelope parse failed", "relay", relay.Name, "error", err)
		return result
	}

	result.StatusCode = env.StatusCode
	result.FinalURL = env.FinalURL
	result.Body = env.Body
	result.Headers = env.Headers
	result.LatencyMs = time.Since(start).Milliseconds()
	result.Succeeded = env.StatusCode > 0 && env.StatusCode < 400
	result.RedirectedToHTTPS = redirectedToHTTPS(target, env.FinalURL, env.StatusCode)
	return result
}

// redirectedToHTTPS classifies an http:// fetch as upgraded when the relay
// reports an https final URL, or failing that, a 3xx status. Status range
// is the documented fallback signal when the relay hides the final URL.
func redirectedToHTTPS(target, finalURL string, status int) bool {
	if !strings.HasPrefix(strings.ToLower(target), "http://") {
		return false
	}
	if finalURL != "" {
		return strings.HasPrefix(strings.ToLower(finalURL), "https://")
	}
	return status >= 300 && status < 400
}

// CheckHTTPS classifies a domain's HTTPS posture. Results are cached for
// the configured TTL to avoid relay churn during a batch.
func (c *Client) CheckHTTPS(ctx context.Context, domain string) types.HTTPSStatus {
	domain = types.NormalizeDomain(domain)

	c.mu.Lock()
	if cached, ok := c.httpsCache[domain]; ok && time.Now().Before(cached.expires) {
		c.mu.Unlock()
		return cached.status
	}
	c.mu.Unlock()

	status := types.HTTPSStatus{Checked: true}

	httpsResult := c.Fetch(ctx, "https://"+domain)
	status.StatusCode = httpsResult.StatusCode
	status.ResponseLatencyMs = httpsResult.LatencyMs
	status.HTTPSValid = httpsResult.StatusCode > 0 && httpsResult.StatusCode < 400
	status.SSLValid = httpsResult.StatusCode > 0 && httpsResult.StatusCode < 300

	if !status.HTTPSValid {
		httpResult := c.Fetch(ctx, "http://"+domain)
		status.RedirectsToHTTPS = httpResult.RedirectedToHTTPS
		if status.StatusCode == 0 {
			status.StatusCode = httpResult.StatusCode
			status.ResponseLatencyMs = httpResult.LatencyMs
		}
	} else {
		status.RedirectsToHTTPS = true
	}

	// Cache only when some status was observed; total relay exhaustion
	// should not pin a domain as broken for the TTL.
	if status.StatusCode > 0 {
		c.mu.Lock()
		c.httpsCache[domain] = cachedHTTPS{status: status, expires: time.Now().Add(c.cacheTTL)}
		c.mu.Unlock()
	}

	return status
}

func failedResult(target string) types.FetchResult {
	return types.FetchResult{URL: target}
}
