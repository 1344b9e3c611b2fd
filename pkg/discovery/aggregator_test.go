package discovery

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/config"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/credentials"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/logger"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

type fakeSource struct {
	name       string
	confidence float64
	domains    []string
	calls      atomic.Int32
	panics     bool
}

func (f *fakeSource) Name() string                           { return f.name }
func (f *fakeSource) Applicable(types.DiscoveryOptions) bool { return true }

func (f *fakeSource) Search(context.Context, types.DiscoveryOptions) []types.DiscoveryCandidate {
	f.calls.Add(1)
	if f.panics {
		panic("source exploded")
	}
	return candidates(f.name, f.confidence, f.domains)
}

type fetchStub struct{}

func (fetchStub) Fetch(context.Context, string) types.FetchResult {
	return types.FetchResult{}
}

// allYesDoH answers every query with an A record.
func allYesDoH(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		query := new(dns.Msg)
		require.NoError(t, query.Unpack(body))

		reply := new(dns.Msg)
		reply.SetReply(query)
		rr, err := dns.NewRR(query.Question[0].Name + " 300 IN A 93.184.216.34")
		require.NoError(t, err)
		reply.Answer = append(reply.Answer, rr)

		wire, err := reply.Pack()
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/dns-message")
		_, _ = w.Write(wire)
	}))
}

func testAggregator(t *testing.T, sources []DataSource, opts ...AggregatorOption) (*Aggregator, *httptest.Server) {
	t.Helper()
	server := allYesDoH(t)

	cfg := config.Default().Discovery
	cfg.Resolvers = []string{server.URL}
	cfg.ValidationTimeout = 2 * time.Second
	cfg.SourceTimeout = 2 * time.Second

	validator := NewDomainValidator(cfg, &stubProber{status: 200}, logger.Nop())
	validator.client = &http.Client{Timeout: 2 * time.Second}
	// Stub out the web index so thin candidate pools never reach the
	// real endpoint from tests.
	opts = append([]AggregatorOption{WithWebIndex(&fakeSource{name: "webindex", confidence: ConfidenceWebIndex})}, opts...)
	return NewAggregator(cfg, sources, validator, logger.Nop(), opts...), server
}

func TestMergeFirstSeenWins(t *testing.T) {
	a := candidates("a", ConfidenceAPI, []string{"a.de", "b.de"})
	b := candidates("b", ConfidenceDirectory, []string{"b.de", "c.de"})

	merged := merge(a, b)
	require.Len(t, merged, 3)
	assert.Equal(t, "a.de", merged[0].Domain)
	assert.Equal(t, "b.de", merged[1].Domain)
	assert.Equal(t, "c.de", merged[2].Domain)
	// b.de keeps the metadata from the source that saw it first.
	assert.Equal(t, "a", merged[1].Source)
	assert.Equal(t, ConfidenceAPI, merged[1].Confidence)
}

func TestDiscoverEndToEndWithoutCredentials(t *testing.T) {
	sources := DefaultSources(fetchStub{}, credentials.Static{}, logger.Nop())
	agg, server := testAggregator(t, sources)
	defer server.Close()

	opts := types.DiscoveryOptions{
		Query:      "Zahnarzt",
		Location:   "Berlin",
		TLD:        ".de",
		MaxResults: 5,
	}

	domains := agg.Discover(context.Background(), opts)
	require.NotEmpty(t, domains)
	assert.LessOrEqual(t, len(domains), 5)
	assert.Contains(t, domains, "zahnarzt-berlin.de")
	for _, d := range domains {
		assert.True(t, types.PlausibleDomain(d), "returned domain %q must be plausible", d)
	}
}

func TestDiscoverCacheSkipsSources(t *testing.T) {
	src := &fakeSource{name: "fake", confidence: ConfidenceAPI, domains: []string{"one.de", "two.de", "three.de"}}
	agg, server := testAggregator(t, []DataSource{src})
	defer server.Close()

	opts := types.DiscoveryOptions{Query: "zahnarzt", TLD: ".de", MaxResults: 3}

	first := agg.Discover(context.Background(), opts)
	callsAfterFirst := src.calls.Load()
	require.GreaterOrEqual(t, callsAfterFirst, int32(1))

	second := agg.Discover(context.Background(), opts)
	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, src.calls.Load(), "cache hit must not query sources again")
}

func TestDiscoverPanickingSourceIsIsolated(t *testing.T) {
	good := &fakeSource{name: "good", confidence: ConfidenceAPI,
		domains: []string{"one.de", "two.de", "three.de", "four.de", "five.de"}}
	bad := &fakeSource{name: "bad", confidence: ConfidenceAPI, panics: true}

	agg, server := testAggregator(t, []DataSource{bad, good})
	defer server.Close()

	domains := agg.Discover(context.Background(), types.DiscoveryOptions{Query: "zahnarzt", TLD: ".de", MaxResults: 10})
	assert.Contains(t, domains, "one.de")
	assert.Equal(t, int32(1), bad.calls.Load())
}

type panickingCache struct{}

func (panickingCache) Get(context.Context, types.DiscoveryOptions) ([]string, bool) {
	panic("cache backend gone")
}
func (panickingCache) Set(context.Context, types.DiscoveryOptions, []string) {}

func TestDiscoverPipelinePanicReturnsFallbacks(t *testing.T) {
	agg, server := testAggregator(t, nil, WithCache(panickingCache{}))
	defer server.Close()

	domains := agg.Discover(context.Background(), types.DiscoveryOptions{Query: "zahnarzt", TLD: ".de", MaxResults: 3})
	require.NotEmpty(t, domains)
	assert.LessOrEqual(t, len(domains), 3)
	assert.Contains(t, domains, "gelbeseiten.de")
}

func TestDiscoverTopsUpFromFallbacksWhenNothingValidates(t *testing.T) {
	server := allYesDoH(t)
	defer server.Close()

	// NXDOMAIN resolver: nothing validates, so the tiered fallbacks and
	// finally the static TLD list must fill the result.
	nxServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		query := new(dns.Msg)
		_ = query.Unpack(body)
		reply := new(dns.Msg)
		reply.SetReply(query)
		reply.Rcode = dns.RcodeNameError
		wire, _ := reply.Pack()
		w.Header().Set("Content-Type", "application/dns-message")
		_, _ = w.Write(wire)
	}))
	defer nxServer.Close()

	cfg := config.Default().Discovery
	cfg.Resolvers = []string{nxServer.URL}
	cfg.ValidationTimeout = 2 * time.Second
	cfg.MaxValidations = 5

	validator := NewDomainValidator(cfg, &stubProber{status: 0}, logger.Nop())
	validator.client = &http.Client{Timeout: 2 * time.Second}
	src := &fakeSource{name: "fake", confidence: ConfidenceAPI, domains: []string{"ghost.de"}}
	agg := NewAggregator(cfg, []DataSource{src}, validator, logger.Nop(),
		WithWebIndex(&fakeSource{name: "webindex", confidence: ConfidenceWebIndex}))

	domains := agg.Discover(context.Background(), types.DiscoveryOptions{Query: "zahnarzt", TLD: ".at", MaxResults: 10})
	assert.Contains(t, domains, "herold.at")
	assert.NotContains(t, domains, "ghost.de")
}
