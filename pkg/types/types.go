package types

import (
	"net/http"
	"time"
)

// CheckType identifies one of the togglable audit checks.
type CheckType string

const (
	CheckHTTPS      CheckType = "https"
	CheckTechnology CheckType = "technology"
	CheckPageSpeed  CheckType = "pagespeed"
	CheckSEO        CheckType = "seo"
	CheckCrawling   CheckType = "crawling"
)

// AuditSettings toggles which checks an audit runs. Disabled checks still
// produce their zero-value subsection in the AuditResult so consumers always
// see a complete shape.
type AuditSettings struct {
	HTTPS      bool `json:"https" mapstructure:"https"`
	Technology bool `json:"technology" mapstructure:"technology"`
	PageSpeed  bool `json:"pagespeed" mapstructure:"pagespeed"`
	SEO        bool `json:"seo" mapstructure:"seo"`
	Crawling   bool `json:"crawling" mapstructure:"crawling"`
}

// AllChecks enables every audit check.
func AllChecks() AuditSettings {
	return AuditSettings{HTTPS: true, Technology: true, PageSpeed: true, SEO: true, Crawling: true}
}

// FetchResult is the outcome of a single proxy-relay fetch attempt.
// Ordinary network and HTTP failures are reported through Succeeded, never
// as an error.
type FetchResult struct {
	URL               string      `json:"url"`
	Succeeded         bool        `json:"succeeded"`
	StatusCode        int         `json:"status_code"`
	FinalURL          string      `json:"final_url,omitempty"`
	RedirectedToHTTPS bool        `json:"redirected_to_https"`
	RelayUsed         string      `json:"relay_used,omitempty"`
	LatencyMs         int64       `json:"latency_ms"`
	Body              string      `json:"-"`
	Headers           http.Header `json:"-"`
}

// PageSnapshot is the parsed view of one fetched page. It is built once per
// successful fetch, shared by the technology and SEO checks, and discarded
// when the audit completes.
type PageSnapshot struct {
	Title            string
	MetaDescription  string
	H1s              []string
	GeneratorTags    []string
	HasViewportMeta  bool
	RobotsDirectives []string
	RawHTML          string
	Headers          http.Header
	ResponseTimeMs   int64
	ContentSizeBytes int
}

// StackCategory buckets detected technologies. A signature contributes its
// display name to exactly one bucket.
type StackCategory string

const (
	CategoryJSLibraries StackCategory = "jsLibraries"
	CategoryCSS         StackCategory = "cssFrameworks"
	CategoryServerTech  StackCategory = "serverTech"
	CategoryCDN         StackCategory = "cdnProviders"
	CategoryEcommerce   StackCategory = "ecommercePlatforms"
	CategorySecurity    StackCategory = "securityTools"
	CategorySocial      StackCategory = "socialWidgets"
	CategoryAnalytics   StackCategory = "analyticsTools"
)

// DetectedStack maps a category to the display names matched for it,
// version-suffixed when a version pattern captured one.
type DetectedStack map[StackCategory][]string

// Names returns the bucket for a category, never nil-panicking.
func (d DetectedStack) Names(cat StackCategory) []string {
	if d == nil {
		return nil
	}
	return d[cat]
}

// SecurityPosture summarizes header hygiene and script/library risk for one
// page. Score is always within [0, 100].
type SecurityPosture struct {
	HSTSPresent             bool     `json:"hsts_present"`
	CSPPresent              bool     `json:"csp_present"`
	XFrameOptionsPresent    bool     `json:"x_frame_options_present"`
	XContentTypeOptsPresent bool     `json:"x_content_type_options_present"`
	VulnerableLibraries     []string `json:"vulnerable_libraries,omitempty"`
	OutdatedLibraries       []string `json:"outdated_libraries,omitempty"`
	RiskyScriptFindings     []string `json:"risky_script_findings,omitempty"`
	Score                   int      `json:"score"`
}

// HTTPSStatus reports the HTTPS/TLS classification of a domain.
type HTTPSStatus struct {
	Checked           bool  `json:"checked"`
	HTTPSValid        bool  `json:"https_valid"`
	SSLValid          bool  `json:"ssl_valid"`
	RedirectsToHTTPS  bool  `json:"redirects_to_https"`
	StatusCode        int   `json:"status_code"`
	ResponseLatencyMs int64 `json:"response_latency_ms"`
}

// TechnologyAudit reports the fingerprinting outcome, with legacy
// authoring-tool findings kept distinct from vulnerable libraries.
type TechnologyAudit struct {
	Checked              bool          `json:"checked"`
	Stack                DetectedStack `json:"stack,omitempty"`
	OutdatedTechnologies []string      `json:"outdated_technologies,omitempty"`
}

// PageSpeedEstimate is a latency/payload heuristic, not a lab measurement.
type PageSpeedEstimate struct {
	Checked bool   `json:"checked"`
	Mobile  int    `json:"mobile"`
	Desktop int    `json:"desktop"`
	LCP     string `json:"lcp,omitempty"`
	CLS     string `json:"cls,omitempty"`
	INP     string `json:"inp,omitempty"`
}

// SEOFindings lists on-page hygiene issues for one snapshot.
type SEOFindings struct {
	Checked         bool     `json:"checked"`
	Title           string   `json:"title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	H1Count         int      `json:"h1_count"`
	Issues          []string `json:"issues,omitempty"`
}

// CrawlStatus reports robots.txt presence and basic crawlability.
type CrawlStatus struct {
	Checked    bool `json:"checked"`
	RobotsTxt  bool `json:"robots_txt"`
	Accessible bool `json:"accessible"`
	HasErrors  bool `json:"has_errors"`
}

// AuditResult is the aggregate audit of one domain. The orchestrator is the
// sole writer; CriticalIssueCount is derived from the other fields and never
// stored independently of them.
type AuditResult struct {
	ID                 string            `json:"id" db:"id"`
	Domain             string            `json:"domain" db:"domain"`
	Timestamp          time.Time         `json:"timestamp" db:"timestamp"`
	HTTPS              HTTPSStatus       `json:"https"`
	Technology         TechnologyAudit   `json:"technology"`
	Security           SecurityPosture   `json:"security"`
	PageSpeed          PageSpeedEstimate `json:"pagespeed"`
	SEO                SEOFindings       `json:"seo"`
	Crawl              CrawlStatus       `json:"crawl"`
	CriticalIssueCount int               `json:"critical_issue_count" db:"critical_issue_count"`
	Failed             bool              `json:"failed,omitempty" db:"failed"`
}

// DiscoveryOptions parameterizes one discovery call.
type DiscoveryOptions struct {
	Query      string `json:"query"`
	Industry   string `json:"industry,omitempty"`
	Location   string `json:"location,omitempty"`
	TLD        string `json:"tld"`
	MaxResults int    `json:"max_results"`
}

// DiscoveryCandidate is an unvalidated domain guess from one source.
// Pattern-generated guesses carry lower confidence than external API hits.
type DiscoveryCandidate struct {
	Domain     string  `json:"domain"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}
