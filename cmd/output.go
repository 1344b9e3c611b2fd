package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// renderResults writes audit results in the requested format. Text output
// goes through fatih/color; json and yaml are plain for piping.
func renderResults(w io.Writer, results []types.AuditResult, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(results)
	case "text", "":
		for i := range results {
			renderAuditText(w, &results[i])
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderAuditText(w io.Writer, result *types.AuditResult) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "\n%s", result.Domain)
	fmt.Fprintf(w, "  (%s)\n", result.Timestamp.Format("2006-01-02 15:04"))

	if result.Failed {
		color.New(color.FgRed).Fprintln(w, "  AUDIT FAILED - results are conservative defaults")
	}

	criticalColor := color.New(color.FgGreen)
	if result.CriticalIssueCount > 0 {
		criticalColor = color.New(color.FgRed)
	}
	criticalColor.Fprintf(w, "  Critical issues: %d\n", result.CriticalIssueCount)

	if result.HTTPS.Checked {
		if result.HTTPS.HTTPSValid {
			color.New(color.FgGreen).Fprintf(w, "  HTTPS: ok (status %d, %dms)\n",
				result.HTTPS.StatusCode, result.HTTPS.ResponseLatencyMs)
		} else {
			color.New(color.FgRed).Fprintf(w, "  HTTPS: not working (status %d)\n",
				result.HTTPS.StatusCode)
		}
	}

	if result.Technology.Checked {
		scoreColor(result.Security.Score).Fprintf(w, "  Security score: %d/100\n", result.Security.Score)
		for _, lib := range result.Security.VulnerableLibraries {
			color.New(color.FgRed).Fprintf(w, "    vulnerable: %s\n", lib)
		}
		for _, lib := range result.Security.OutdatedLibraries {
			color.New(color.FgYellow).Fprintf(w, "    outdated: %s\n", lib)
		}
		for _, finding := range result.Security.RiskyScriptFindings {
			color.New(color.FgYellow).Fprintf(w, "    risky script: %s\n", finding)
		}
		renderStack(w, result.Technology.Stack)
		for _, tech := range result.Technology.OutdatedTechnologies {
			color.New(color.FgYellow).Fprintf(w, "    legacy tooling: %s\n", tech)
		}
	}

	if result.PageSpeed.Checked {
		scoreColor(result.PageSpeed.Mobile).Fprintf(w, "  Page speed: mobile %d, desktop %d\n",
			result.PageSpeed.Mobile, result.PageSpeed.Desktop)
		if result.PageSpeed.LCP != "" {
			fmt.Fprintf(w, "    LCP %s, CLS %s, INP %s\n",
				result.PageSpeed.LCP, result.PageSpeed.CLS, result.PageSpeed.INP)
		}
	}

	if result.SEO.Checked {
		if len(result.SEO.Issues) == 0 {
			color.New(color.FgGreen).Fprintln(w, "  SEO: no issues")
		} else {
			color.New(color.FgYellow).Fprintf(w, "  SEO issues (%d):\n", len(result.SEO.Issues))
			for _, issue := range result.SEO.Issues {
				fmt.Fprintf(w, "    - %s\n", issue)
			}
		}
	}

	if result.Crawl.Checked {
		fmt.Fprintf(w, "  Crawl: robots.txt=%v accessible=%v errors=%v\n",
			result.Crawl.RobotsTxt, result.Crawl.Accessible, result.Crawl.HasErrors)
	}
}

func renderStack(w io.Writer, stack types.DetectedStack) {
	order := []types.StackCategory{
		types.CategoryJSLibraries, types.CategoryCSS, types.CategoryServerTech,
		types.CategoryCDN, types.CategoryEcommerce, types.CategorySecurity,
		types.CategorySocial, types.CategoryAnalytics,
	}
	for _, cat := range order {
		if names := stack.Names(cat); len(names) > 0 {
			fmt.Fprintf(w, "    %s: %s\n", cat, strings.Join(names, ", "))
		}
	}
}
