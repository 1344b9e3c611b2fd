package discovery

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/config"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/logger"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/telemetry"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// Candidate-count thresholds that trigger the fallback tiers. Each tier
// only fires when the tiers above it left the pool short.
const (
	webIndexThreshold  = 8
	patternThreshold   = 5
	validatedThreshold = 3
)

// Aggregator fans a discovery query out to every applicable source, merges
// the candidates first-seen-wins, validates the best of them and tops up
// from static fallbacks when the live sources come back thin.
type Aggregator struct {
	sources   []DataSource
	webIndex  DataSource
	validator *DomainValidator
	cache     Cache
	cfg       config.DiscoveryConfig
	log       *logger.Logger
	tel       telemetry.Telemetry
}

type AggregatorOption func(*Aggregator)

// WithCache replaces the default in-process cache.
func WithCache(cache Cache) AggregatorOption {
	return func(a *Aggregator) { a.cache = cache }
}

// WithTelemetry records discovery metrics and spans.
func WithTelemetry(tel telemetry.Telemetry) AggregatorOption {
	return func(a *Aggregator) { a.tel = tel }
}

// WithWebIndex replaces the enrichment source consulted when the primary
// sources produce too few candidates.
func WithWebIndex(source DataSource) AggregatorOption {
	return func(a *Aggregator) { a.webIndex = source }
}

func NewAggregator(cfg config.DiscoveryConfig, sources []DataSource, validator *DomainValidator, log *logger.Logger, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		sources:   sources,
		webIndex:  NewWebIndexSource(log),
		validator: validator,
		cache:     NewMemoryCache(),
		cfg:       cfg,
		log:       log.WithComponent("discovery"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Discover runs the full pipeline and returns validated domains, capped at
// opts.MaxResults. It never returns an error: any internal failure,
// including a panicking source, degrades to the static fallback list.
func (a *Aggregator) Discover(ctx context.Context, opts types.DiscoveryOptions) (domains []string) {
	start := time.Now()
	log := a.log.WithFields("query", opts.Query, "location", opts.Location)

	ctx, span := log.StartSpan(ctx, "discovery.discover",
		trace.WithAttributes(
			attribute.String("discovery.query", opts.Query),
			attribute.String("discovery.tld", normalizeTLD(opts.TLD)),
		))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Discovery pipeline panicked, returning fallback domains", "panic", r)
			domains = truncate(domainsOf(fallbackDomains(opts.TLD)), opts.MaxResults)
		}
		if a.tel != nil {
			a.tel.RecordDiscovery(ctx, opts.Query, len(domains), time.Since(start))
		}
	}()

	if cached, ok := a.cache.Get(ctx, opts); ok {
		log.Debugw("Discovery cache hit", "domains", len(cached))
		return cached
	}

	pool := a.fanOut(ctx, opts)
	log.Infow("Primary sources settled", "candidates", len(pool))

	if len(pool) < webIndexThreshold && a.webIndex.Applicable(opts) {
		pool = merge(pool, a.searchOne(ctx, a.webIndex, opts))
	}
	if len(pool) < patternThreshold {
		pool = merge(pool, NewIndustrySource().Search(ctx, opts))
		pool = merge(pool, syntheticVariations(opts))
	}

	validated := a.validatePool(ctx, pool, opts.MaxResults)
	if len(validated) < validatedThreshold {
		log.Infow("Too few validated domains, appending TLD fallbacks",
			"validated", len(validated))
		validated = merge(validated, fallbackDomains(opts.TLD))
	}

	domains = truncate(domainsOf(validated), opts.MaxResults)
	a.cache.Set(ctx, opts, domains)
	log.LogDuration(ctx, "discovery", start, "domains", len(domains))
	return domains
}

// fanOut queries every applicable source concurrently and merges the
// results in tier order. A source that panics or errors contributes
// nothing; the pipeline never fails because one provider did.
func (a *Aggregator) fanOut(ctx context.Context, opts types.DiscoveryOptions) []types.DiscoveryCandidate {
	results := make([][]types.DiscoveryCandidate, len(a.sources))

	var wg sync.WaitGroup
	for i, source := range a.sources {
		if !source.Applicable(opts) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.searchOne(ctx, source, opts)
		}()
	}
	wg.Wait()

	// Merge in registration order: sources are registered best tier
	// first, and the first source to name a domain keeps its position.
	var pool []types.DiscoveryCandidate
	for _, batch := range results {
		pool = merge(pool, batch)
	}
	return pool
}

// searchOne runs a single source with its own timeout and panic barrier.
func (a *Aggregator) searchOne(ctx context.Context, source DataSource, opts types.DiscoveryOptions) (out []types.DiscoveryCandidate) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Warnw("Discovery source panicked", "source", source.Name(), "panic", r)
			out = nil
		}
	}()

	sourceCtx := ctx
	if a.cfg.SourceTimeout > 0 {
		var cancel context.CancelFunc
		sourceCtx, cancel = context.WithTimeout(ctx, a.cfg.SourceTimeout)
		defer cancel()
	}

	out = source.Search(sourceCtx, opts)
	a.log.Debugw("Source finished", "source", source.Name(), "candidates", len(out))
	return out
}

// validatePool checks candidates sequentially in merged order, bounded by
// MaxValidations and stopping once maxResults candidates validated.
// Sequential on purpose: the probes hit public resolvers and third-party
// sites.
func (a *Aggregator) validatePool(ctx context.Context, pool []types.DiscoveryCandidate, maxResults int) []types.DiscoveryCandidate {
	budget := a.cfg.MaxValidations
	if budget <= 0 {
		budget = 15
	}

	var validated []types.DiscoveryCandidate
	for _, cand := range pool {
		if budget == 0 || ctx.Err() != nil {
			break
		}
		if maxResults > 0 && len(validated) >= maxResults {
			break
		}
		budget--
		if a.validator.Validate(ctx, cand.Domain) {
			validated = append(validated, cand)
		} else {
			a.log.Debugw("Candidate failed validation",
				"domain", cand.Domain, "source", cand.Source)
		}
	}
	return validated
}

// merge appends batch onto pool, keeping the first candidate seen for each
// domain. Earlier entries come from higher-confidence tiers.
func merge(pool, batch []types.DiscoveryCandidate) []types.DiscoveryCandidate {
	seen := make(map[string]bool, len(pool))
	for _, c := range pool {
		seen[c.Domain] = true
	}
	for _, c := range batch {
		if !seen[c.Domain] {
			seen[c.Domain] = true
			pool = append(pool, c)
		}
	}
	return pool
}

func domainsOf(cands []types.DiscoveryCandidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Domain)
	}
	return out
}

func truncate(domains []string, max int) []string {
	if max > 0 && len(domains) > max {
		return domains[:max]
	}
	return domains
}
