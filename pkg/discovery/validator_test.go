package discovery

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/config"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/logger"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/ratelimit"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

type stubProber struct {
	status int
	calls  int
}

func (s *stubProber) CheckHTTPS(context.Context, string) types.HTTPSStatus {
	s.calls++
	return types.HTTPSStatus{Checked: true, StatusCode: s.status, HTTPSValid: s.status > 0 && s.status < 400}
}

// dohServer answers RFC 8484 POST queries. existing domains get an A
// record, everything else NXDOMAIN.
func dohServer(t *testing.T, existing map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/dns-message", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		query := new(dns.Msg)
		require.NoError(t, query.Unpack(body))
		require.Len(t, query.Question, 1)

		reply := new(dns.Msg)
		reply.SetReply(query)
		name := query.Question[0].Name
		if existing[name] {
			rr, err := dns.NewRR(name + " 300 IN A 93.184.216.34")
			require.NoError(t, err)
			reply.Answer = append(reply.Answer, rr)
		} else {
			reply.Rcode = dns.RcodeNameError
		}

		wire, err := reply.Pack()
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/dns-message")
		_, _ = w.Write(wire)
	}))
}

func testValidator(t *testing.T, resolvers []string, prober HTTPSProber) *DomainValidator {
	t.Helper()
	cfg := config.Default().Discovery
	cfg.Resolvers = resolvers
	cfg.ValidationTimeout = 2 * time.Second
	v := NewDomainValidator(cfg, prober, logger.Nop())
	// The production client refuses loopback; tests talk to httptest.
	v.client = &http.Client{Timeout: 2 * time.Second}
	return v
}

func TestValidateResolvingDomain(t *testing.T) {
	server := dohServer(t, map[string]bool{"zahnarzt-berlin.de.": true})
	defer server.Close()

	prober := &stubProber{status: 200}
	v := testValidator(t, []string{server.URL}, prober)

	assert.True(t, v.Validate(context.Background(), "zahnarzt-berlin.de"))
	assert.Equal(t, 1, prober.calls)
}

func TestValidateNXDomainFails(t *testing.T) {
	server := dohServer(t, nil)
	defer server.Close()

	prober := &stubProber{status: 200}
	v := testValidator(t, []string{server.URL}, prober)

	assert.False(t, v.Validate(context.Background(), "does-not-exist-anywhere.de"))
	assert.Zero(t, prober.calls, "HTTP probe must not run when DNS fails")
}

func TestValidateFallsThroughToNextResolver(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	working := dohServer(t, map[string]bool{"zahnarzt-berlin.de.": true})
	defer working.Close()

	v := testValidator(t, []string{broken.URL, working.URL}, &stubProber{status: 200})
	assert.True(t, v.Validate(context.Background(), "zahnarzt-berlin.de"))
}

func TestValidateUnreachableDomainStillValidates(t *testing.T) {
	// Resolving is what proves existence; a site that ignores HTTP
	// probes (firewalled, parked) still counts.
	server := dohServer(t, map[string]bool{"firewalled.de.": true})
	defer server.Close()

	v := testValidator(t, []string{server.URL}, &stubProber{status: 0})
	assert.True(t, v.Validate(context.Background(), "firewalled.de"))
}

func TestValidationLimitsHonorConfiguredDelay(t *testing.T) {
	cfg := config.Default().Discovery
	cfg.ValidationDelay = 750 * time.Millisecond
	assert.Equal(t, 750*time.Millisecond, validationLimits(cfg).MinHostDelay)

	cfg.ValidationDelay = 0
	assert.Equal(t, ratelimit.ValidationConfig().MinHostDelay, validationLimits(cfg).MinHostDelay)
}

func TestValidateImplausibleDomainSkipsNetwork(t *testing.T) {
	v := testValidator(t, []string{"https://unused.invalid/dns-query"}, &stubProber{})
	assert.False(t, v.Validate(context.Background(), "not a domain"))
	assert.False(t, v.Validate(context.Background(), "localhost"))
}
