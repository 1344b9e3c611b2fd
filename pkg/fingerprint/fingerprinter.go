// Package fingerprint identifies technologies and security posture from raw
// HTML and response headers. Identification is a pure function over the
// static signature catalog: no network access, no mutable global state.
package fingerprint

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

const (
	deductMissingHSTS        = 15
	deductMissingCSP         = 20
	deductMissingXFO         = 10
	deductMissingXCTO        = 5
	deductVulnerableLibrary  = 20
	deductOutdatedLibrary    = 15
	deductRiskyScriptFinding = 10
)

var insecureScriptRe = regexp.MustCompile(`(?i)<script[^>]+src=["']http://([^"'/:]+)`)

// Identify matches the signature catalog against an HTML body and its
// response headers. Empty or malformed HTML is not an error: detections are
// simply empty and the security score reflects the headers alone.
func Identify(html string, headers http.Header) (types.DetectedStack, types.SecurityPosture) {
	combined := html + "\n" + serializeHeaders(headers)

	stack := make(types.DetectedStack)
	posture := types.SecurityPosture{
		HSTSPresent:             headers.Get("Strict-Transport-Security") != "",
		CSPPresent:              headers.Get("Content-Security-Policy") != "",
		XFrameOptionsPresent:    headers.Get("X-Frame-Options") != "",
		XContentTypeOptsPresent: headers.Get("X-Content-Type-Options") != "",
	}

	sigs := Catalog()
	for i := range sigs {
		sig := &sigs[i]
		if !sig.matches(combined) {
			continue
		}

		display := sig.Name
		version := sig.extractVersion(combined)
		if version != "" {
			display = sig.Name + " " + version
		}

		stack[sig.Category] = append(stack[sig.Category], display)

		if sig.MinSafeVersion != "" && version != "" &&
			CompareVersions(version, sig.MinSafeVersion) < 0 {
			if sig.Vulnerable {
				posture.VulnerableLibraries = append(posture.VulnerableLibraries, display)
			} else {
				posture.OutdatedLibraries = append(posture.OutdatedLibraries, display)
			}
		}
	}

	for cat := range stack {
		sort.Strings(stack[cat])
	}

	posture.RiskyScriptFindings = riskyScripts(html)
	posture.Score = scorePosture(posture)

	return stack, posture
}

func (s *Signature) matches(combined string) bool {
	for _, re := range s.compiled {
		if re.MatchString(combined) {
			return true
		}
	}
	if len(s.substrings) > 0 {
		lower := strings.ToLower(combined)
		for _, sub := range s.substrings {
			if strings.Contains(lower, sub) {
				return true
			}
		}
	}
	return false
}

func (s *Signature) extractVersion(combined string) string {
	if s.compiledVersion == nil {
		return ""
	}
	matches := s.compiledVersion.FindStringSubmatch(combined)
	if len(matches) < 2 {
		return ""
	}
	// First non-empty capture group wins; alternations leave the unused
	// branch's group empty.
	for _, group := range matches[1:] {
		if group != "" {
			return group
		}
	}
	return ""
}

func serializeHeaders(headers http.Header) string {
	if len(headers) == 0 {
		return ""
	}
	var b strings.Builder
	for key, values := range headers {
		for _, value := range values {
			b.WriteString(key)
			b.WriteString(": ")
			b.WriteString(value)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// riskyScripts flags inline-script smells: eval, direct innerHTML writes,
// and script tags loaded over plain HTTP from a non-localhost host.
func riskyScripts(html string) []string {
	var findings []string

	if strings.Contains(html, "eval(") {
		findings = append(findings, "eval() call in page scripts")
	}
	if strings.Contains(html, ".innerHTML =") || strings.Contains(html, ".innerHTML=") {
		findings = append(findings, "direct innerHTML assignment")
	}

	for _, m := range insecureScriptRe.FindAllStringSubmatch(html, -1) {
		host := strings.ToLower(m[1])
		if host == "localhost" || host == "127.0.0.1" {
			continue
		}
		findings = append(findings, fmt.Sprintf("script loaded over http:// from %s", host))
	}

	return findings
}

func scorePosture(p types.SecurityPosture) int {
	score := 100

	if !p.HSTSPresent {
		score -= deductMissingHSTS
	}
	if !p.CSPPresent {
		score -= deductMissingCSP
	}
	if !p.XFrameOptionsPresent {
		score -= deductMissingXFO
	}
	if !p.XContentTypeOptsPresent {
		score -= deductMissingXCTO
	}

	score -= deductVulnerableLibrary * len(p.VulnerableLibraries)
	score -= deductOutdatedLibrary * len(p.OutdatedLibraries)
	score -= deductRiskyScriptFinding * len(p.RiskyScriptFindings)

	if score < 0 {
		score = 0
	}
	return score
}
