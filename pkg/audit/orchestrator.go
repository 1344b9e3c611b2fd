// Package audit runs the per-domain audit pipeline: fetch, fingerprint,
// heuristic scoring, and critical-issue counting.
package audit

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/logger"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/telemetry"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/fingerprint"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// maxCriticalIssues is the number of independent critical conditions.
const maxCriticalIssues = 5

// Fetcher is the slice of the proxy fetch client the orchestrator needs.
type Fetcher interface {
	Fetch(ctx context.Context, target string) types.FetchResult
	CheckHTTPS(ctx context.Context, domain string) types.HTTPSStatus
}

// Orchestrator audits domains. It is the sole writer of AuditResult values.
type Orchestrator struct {
	fetcher Fetcher
	log     *logger.Logger
	tel     telemetry.Telemetry
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithTelemetry records audit metrics.
func WithTelemetry(tel telemetry.Telemetry) Option {
	return func(o *Orchestrator) { o.tel = tel }
}

// New builds an audit orchestrator.
func New(fetcher Fetcher, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher: fetcher,
		log:     log.WithComponent("audit"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Audit runs the enabled checks against one domain. It always returns a
// well-formed result: disabled checks leave zero-value subsections, and a
// panic anywhere in the pipeline degrades to a maximally conservative
// result instead of propagating.
func (o *Orchestrator) Audit(ctx context.Context, domain string, settings types.AuditSettings) (result types.AuditResult) {
	domain = types.NormalizeDomain(domain)
	start := time.Now()

	defer func() {
		if recovered := recover(); recovered != nil {
			o.log.WithDomain(domain).Errorw("Audit pipeline panicked, degrading to conservative result",
				"panic", recovered)
			result = failedResult(domain)
		}
		if o.tel != nil {
			o.tel.RecordAudit(ctx, domain, result.CriticalIssueCount, time.Since(start))
		}
	}()

	result = types.AuditResult{
		ID:        uuid.New().String(),
		Domain:    domain,
		Timestamp: time.Now().UTC(),
	}

	// One shared fetch feeds both the technology and SEO checks.
	var snapshot *types.PageSnapshot
	if settings.Technology || settings.SEO {
		fetched := o.fetcher.Fetch(ctx, "https://"+domain)
		if fetched.Succeeded {
			snapshot = BuildSnapshot(fetched)
		} else {
			o.log.WithDomain(domain).Debugw("Page fetch failed, checks degrade to empty snapshot",
				"status", fetched.StatusCode)
		}
	}

	if settings.HTTPS {
		result.HTTPS = o.fetcher.CheckHTTPS(ctx, domain)
	}

	if settings.Technology {
		result.Technology.Checked = true
		if snapshot != nil {
			stack, posture := fingerprint.Identify(snapshot.RawHTML, snapshot.Headers)
			result.Technology.Stack = stack
			result.Technology.OutdatedTechnologies = detectLegacyGenerators(snapshot.GeneratorTags)
			result.Security = posture
		} else {
			// No page: score the all-missing headers so the posture is
			// never absent.
			_, result.Security = fingerprint.Identify("", nil)
		}
	}

	if settings.PageSpeed && snapshot != nil {
		result.PageSpeed = EstimatePageSpeed(snapshot.ResponseTimeMs, snapshot.ContentSizeBytes)
	} else if settings.PageSpeed {
		result.PageSpeed.Checked = true
	}

	if settings.SEO {
		if snapshot != nil {
			result.SEO = EvaluateSEO(snapshot)
		} else {
			result.SEO.Checked = true
			result.SEO.Issues = []string{"page could not be fetched"}
		}
	}

	if settings.Crawling {
		result.Crawl = o.checkCrawling(ctx, domain, snapshot)
	}

	result.CriticalIssueCount = ComputeCriticalIssues(result)

	o.log.WithDomain(domain).Infow("Audit completed",
		"critical_issues", result.CriticalIssueCount,
		"duration_ms", time.Since(start).Milliseconds())
	return result
}

func (o *Orchestrator) checkCrawling(ctx context.Context, domain string, snapshot *types.PageSnapshot) types.CrawlStatus {
	status := types.CrawlStatus{Checked: true}

	robots := o.fetcher.Fetch(ctx, "https://"+domain+"/robots.txt")
	status.RobotsTxt = robots.Succeeded && robots.StatusCode < 300

	status.Accessible = snapshot != nil && snapshot.ResponseTimeMs > 0

	status.HasErrors = snapshot == nil
	if snapshot != nil {
		for _, directive := range snapshot.RobotsDirectives {
			if directive == "noindex" || directive == "nofollow" {
				status.HasErrors = true
				break
			}
		}
	}
	return status
}

// legacyGenerators match authoring tools and CMS major versions old enough
// to count as outdated technology in their own right.
var legacyGenerators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)frontpage`),
	regexp.MustCompile(`(?i)dreamweaver`),
	regexp.MustCompile(`(?i)golive`),
	regexp.MustCompile(`(?i)iweb`),
	regexp.MustCompile(`(?i)netobjects`),
	regexp.MustCompile(`(?i)wordpress\s*[0-4]\.`),
	regexp.MustCompile(`(?i)joomla!?\s*[1-2]\.`),
	regexp.MustCompile(`(?i)drupal\s*[1-7]\b`),
	regexp.MustCompile(`(?i)typo3\s*(?:cms\s*)?[1-6]\.`),
}

func detectLegacyGenerators(generatorTags []string) []string {
	var outdated []string
	for _, tag := range generatorTags {
		for _, re := range legacyGenerators {
			if re.MatchString(tag) {
				outdated = append(outdated, tag)
				break
			}
		}
	}
	return outdated
}

// ComputeCriticalIssues recounts the five independent critical conditions
// from a result's fields. It is deterministic and uses no hidden state, so
// a stored result can always be re-verified.
func ComputeCriticalIssues(r types.AuditResult) int {
	count := 0

	if r.HTTPS.Checked && !r.HTTPS.HTTPSValid {
		count++
	}
	if len(r.Technology.OutdatedTechnologies) > 0 {
		count++
	}
	if r.PageSpeed.Checked && r.PageSpeed.Mobile < 50 {
		count++
	}
	if r.SEO.Checked && len(r.SEO.Issues) >= 2 {
		count++
	}
	if r.Crawl.Checked && (!r.Crawl.Accessible || r.Crawl.HasErrors) {
		count++
	}

	return count
}

// failedResult is the conservative shape returned when the pipeline itself
// breaks: every subsection empty, the issue count at its maximum.
func failedResult(domain string) types.AuditResult {
	return types.AuditResult{
		ID:                 uuid.New().String(),
		Domain:             domain,
		Timestamp:          time.Now().UTC(),
		Failed:             true,
		CriticalIssueCount: maxCriticalIssues,
	}
}

// AuditBatch audits domains with bounded concurrency. Individual failures
// never abort the batch; every input domain yields a result at its input
// position.
func (o *Orchestrator) AuditBatch(ctx context.Context, domains []string, settings types.AuditSettings, concurrency int) []types.AuditResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]types.AuditResult, len(domains))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, domain := range domains {
		g.Go(func() error {
			results[i] = o.Audit(gctx, domain, settings)
			return nil
		})
	}

	_ = g.Wait() // Audit never returns an error
	return results
}
