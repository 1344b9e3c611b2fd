package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/discovery"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/fetch"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <query>",
	Short: "Discover candidate domains for a business query",
	Long: `Discover fans the query out to every applicable source, merges and
validates the candidates and prints the surviving domains.

Examples:
  siteaudit discover "Zahnarzt" --location Berlin
  siteaudit discover "Friseur" --location Hamburg --tld .de --max-results 10
  siteaudit discover "Steuerberater" --industry steuerberater`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().String("location", "", "city or region to scope the search")
	discoverCmd.Flags().String("industry", "", "industry keyword for the static database tier")
	discoverCmd.Flags().String("tld", ".de", "preferred top-level domain")
	discoverCmd.Flags().Int("max-results", 10, "maximum domains to return")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	location, _ := cmd.Flags().GetString("location")
	industry, _ := cmd.Flags().GetString("industry")
	tld, _ := cmd.Flags().GetString("tld")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	opts := types.DiscoveryOptions{
		Query:      args[0],
		Location:   location,
		Industry:   industry,
		TLD:        tld,
		MaxResults: maxResults,
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	fetcher := fetch.NewClient(cfg.Fetch, log)
	validator := discovery.NewDomainValidator(cfg.Discovery, fetcher, log)
	sources := discovery.DefaultSources(fetcher, creds, log)

	aggOpts := []discovery.AggregatorOption{discovery.WithTelemetry(tel)}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		aggOpts = append(aggOpts, discovery.WithCache(
			discovery.NewRedisCache(client, cfg.Discovery.CacheTTL, log)))
	}

	aggregator := discovery.NewAggregator(cfg.Discovery, sources, validator, log, aggOpts...)
	domains := aggregator.Discover(ctx, opts)

	if err := store.SaveDiscovery(ctx, opts, domains); err != nil {
		log.Warnw("Failed to persist discovery run", "query", opts.Query, "error", err)
	}

	if len(domains) == 0 {
		color.Yellow("No domains found for %q\n", opts.Query)
		return nil
	}

	color.Cyan("Found %d domain(s) for %q", len(domains), opts.Query)
	if location != "" {
		color.Cyan("  in %s", location)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	for i, domain := range domains {
		fmt.Fprintf(cmd.OutOrStdout(), "  %2d. %s\n", i+1, domain)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	color.White("Audit one with: siteaudit audit %s\n", strings.TrimSpace(domains[0]))
	return nil
}
