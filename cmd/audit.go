package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/audit"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/fetch"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

var auditCmd = &cobra.Command{
	Use:   "audit [domain]",
	Short: "Audit a website for technology, security, speed and SEO basics",
	Long: `Audit fetches the site once through the relay race and runs the
enabled checks against the shared response.

Examples:
  siteaudit audit example.com
  siteaudit audit example.com --checks https,technology
  siteaudit audit --file domains.txt --concurrency 8 --output json`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().String("checks", "", "comma-separated checks to run (https,technology,pagespeed,seo,crawling); default all")
	auditCmd.Flags().String("file", "", "file with one domain per line for batch auditing")
	auditCmd.Flags().Int("concurrency", 4, "parallel audits in batch mode")
	auditCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	if len(args) == 0 && file == "" {
		return fmt.Errorf("provide a domain or --file")
	}

	settings, err := parseChecks(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	fetcher := fetch.NewClient(cfg.Fetch, log)
	orchestrator := audit.New(fetcher, log, audit.WithTelemetry(tel))

	output, _ := cmd.Flags().GetString("output")

	if file != "" {
		domains, err := readDomainFile(file)
		if err != nil {
			return err
		}
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		results := orchestrator.AuditBatch(ctx, domains, settings, concurrency)
		for i := range results {
			if err := store.SaveAudit(ctx, &results[i]); err != nil {
				log.Warnw("Failed to persist audit", "domain", results[i].Domain, "error", err)
			}
		}
		return renderResults(cmd.OutOrStdout(), results, output)
	}

	result := orchestrator.Audit(ctx, args[0], settings)
	if err := store.SaveAudit(ctx, &result); err != nil {
		log.Warnw("Failed to persist audit", "domain", result.Domain, "error", err)
	}
	return renderResults(cmd.OutOrStdout(), []types.AuditResult{result}, output)
}

func parseChecks(cmd *cobra.Command) (types.AuditSettings, error) {
	raw, _ := cmd.Flags().GetString("checks")
	if raw == "" {
		return types.AllChecks(), nil
	}

	var settings types.AuditSettings
	for _, name := range strings.Split(raw, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "https":
			settings.HTTPS = true
		case "technology":
			settings.Technology = true
		case "pagespeed":
			settings.PageSpeed = true
		case "seo":
			settings.SEO = true
		case "crawling":
			settings.Crawling = true
		case "":
		default:
			return settings, fmt.Errorf("unknown check %q", name)
		}
	}
	return settings, nil
}

func readDomainFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open domain file: %w", err)
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read domain file: %w", err)
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("no domains in %s", path)
	}
	return domains, nil
}

// scoreColor picks a severity color for a 0-100 score.
func scoreColor(score int) *color.Color {
	switch {
	case score >= 80:
		return color.New(color.FgGreen)
	case score >= 50:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
