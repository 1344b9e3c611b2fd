package discovery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/miekg/dns"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/config"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/httpclient"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/logger"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/ratelimit"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// HTTPSProber is the reachability slice of the fetch client used during
// validation.
type HTTPSProber interface {
	CheckHTTPS(ctx context.Context, domain string) types.HTTPSStatus
}

// DomainValidator confirms that a candidate domain actually exists before
// it is returned to the caller: DNS resolution over DNS-over-HTTPS first,
// then an HTTP reachability probe. Validation is sequential and throttled;
// the targets here are public resolvers and third-party sites.
type DomainValidator struct {
	resolvers []string
	client    *http.Client
	prober    HTTPSProber
	limiter   *ratelimit.Limiter
	log       *logger.Logger
}

func NewDomainValidator(cfg config.DiscoveryConfig, prober HTTPSProber, log *logger.Logger) *DomainValidator {
	return &DomainValidator{
		resolvers: cfg.Resolvers,
		client:    httpclient.NewProbeClient(cfg.ValidationTimeout),
		prober:    prober,
		limiter:   ratelimit.NewLimiter(validationLimits(cfg)),
		log:       log.WithComponent("validator"),
	}
}

// validationLimits applies the configured per-host validation delay on top
// of the stock throttling limits.
func validationLimits(cfg config.DiscoveryConfig) ratelimit.Config {
	limits := ratelimit.ValidationConfig()
	if cfg.ValidationDelay > 0 {
		limits.MinHostDelay = cfg.ValidationDelay
	}
	return limits
}

// Validate reports whether domain resolves and serves something. A domain
// that resolves but answers no HTTP probe still validates: parked and
// firewalled sites exist.
func (v *DomainValidator) Validate(ctx context.Context, domain string) bool {
	if !types.PlausibleDomain(domain) {
		return false
	}

	if err := v.limiter.WaitForHost(ctx, domain); err != nil {
		return false
	}

	resolved, err := v.resolves(ctx, domain)
	if err != nil {
		v.log.Debugw("DNS validation errored", "domain", domain, "error", err)
		return false
	}
	if !resolved {
		return false
	}

	status := v.prober.CheckHTTPS(ctx, domain)
	if status.StatusCode == 0 {
		v.log.Debugw("Domain resolves but no HTTP response", "domain", domain)
	}
	return true
}

// resolves performs an RFC 8484 DoH query for an A record, trying each
// configured resolver in order until one answers.
func (v *DomainValidator) resolves(ctx context.Context, domain string) (bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	msg.RecursionDesired = true

	wire, err := msg.Pack()
	if err != nil {
		return false, fmt.Errorf("pack query for %s: %w", domain, err)
	}

	var lastErr error
	for _, resolver := range v.resolvers {
		answer, err := v.dohExchange(ctx, resolver, wire)
		if err != nil {
			lastErr = err
			continue
		}
		if answer.Rcode == dns.RcodeNameError {
			return false, nil
		}
		if answer.Rcode == dns.RcodeSuccess {
			return len(answer.Answer) > 0, nil
		}
		lastErr = fmt.Errorf("resolver %s returned rcode %s", resolver, dns.RcodeToString[answer.Rcode])
	}
	return false, fmt.Errorf("all resolvers failed: %w", lastErr)
}

func (v *DomainValidator) dohExchange(ctx context.Context, resolver string, wire []byte) (*dns.Msg, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resolver, bytes.NewReader(wire))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/dns-message")
	req.Header.Set("Accept", "application/dns-message")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpclient.CloseBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver %s returned status %d", resolver, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, err
	}

	answer := new(dns.Msg)
	if err := answer.Unpack(body); err != nil {
		return nil, fmt.Errorf("unpack response from %s: %w", resolver, err)
	}
	return answer, nil
}
