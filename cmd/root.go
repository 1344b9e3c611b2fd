package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/config"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/credentials"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/database"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/logger"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/telemetry"
)

var (
	cfg   *config.Config
	log   *logger.Logger
	tel   telemetry.Telemetry
	store database.Store
	creds credentials.Store
)

var rootCmd = &cobra.Command{
	Use:   "siteaudit",
	Short: "Website auditing and domain discovery",
	Long: `Siteaudit - Website Auditing and Domain Discovery

Audits websites for technology stack, security posture, page speed and SEO
basics, and discovers candidate domains for a business query.

COMMANDS:
  siteaudit audit example.com           - Full audit of one domain
  siteaudit audit --file domains.txt    - Batch audit with bounded concurrency
  siteaudit discover "Zahnarzt" --location Berlin
                                        - Find candidate domains
  siteaudit results [domain]            - Show stored audit history

Pages are fetched through public CORS relays, so audits work from networks
where direct outbound HTTP is filtered.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		if err := initConfig(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		var err error
		log, err = logger.New(cfg.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		tel, err = telemetry.New(cmd.Context(), cfg.Telemetry)
		if err != nil {
			log.Warnw("Telemetry disabled", "error", err)
		}

		store, err = database.NewStore(cfg.Database, log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		creds = credentials.Layered{credentials.NewEnv(), loadCredentialFile()}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			// Sync errors on stdout/stderr are expected on Linux.
			_ = log.Sync()
		}
		if tel != nil {
			_ = tel.Shutdown(context.Background())
		}
		if store != nil {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to close database: %v\n", err)
			}
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (json, console)")
	viper.BindPFlag("logger.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logger.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindEnv("logger.level", "SITEAUDIT_LOG_LEVEL")
	viper.BindEnv("logger.format", "SITEAUDIT_LOG_FORMAT")

	rootCmd.PersistentFlags().String("db-driver", "sqlite3", "database driver (sqlite3, postgres)")
	rootCmd.PersistentFlags().String("db-dsn", "siteaudit.db", "database connection string")
	viper.BindPFlag("database.driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	viper.BindPFlag("database.dsn", rootCmd.PersistentFlags().Lookup("db-dsn"))
	viper.BindEnv("database.driver", "SITEAUDIT_DATABASE_DRIVER")
	viper.BindEnv("database.dsn", "SITEAUDIT_DATABASE_DSN", "DATABASE_URL")

	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for the shared discovery cache (empty: in-process cache)")
	viper.BindPFlag("redis.addr", rootCmd.PersistentFlags().Lookup("redis-addr"))
	viper.BindEnv("redis.addr", "SITEAUDIT_REDIS_ADDR", "REDIS_URL")

	rootCmd.PersistentFlags().String("credentials-file", "", "directory holding the encrypted API credentials file")
	viper.BindPFlag("credentials_file", rootCmd.PersistentFlags().Lookup("credentials-file"))
	viper.BindEnv("credentials_file", "SITEAUDIT_CREDENTIALS_FILE")
}

func initConfig() error {
	// Configuration comes from flags and env vars only.
	viper.AutomaticEnv()
	viper.SetEnvPrefix("SITEAUDIT")

	cfg = config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// loadCredentialFile opens the optional encrypted credential store. A
// missing directory or passphrase is not an error, the sources just run
// with their pattern fallbacks.
func loadCredentialFile() credentials.Store {
	dir := viper.GetString("credentials_file")
	passphrase := os.Getenv("SITEAUDIT_CREDENTIALS_PASSPHRASE")
	if dir == "" || passphrase == "" {
		return credentials.Static{}
	}

	fileStore, err := credentials.NewFile(dir, passphrase)
	if err != nil {
		log.Warnw("Could not open credentials store, continuing without API keys",
			"dir", dir, "error", err)
		return credentials.Static{}
	}
	return fileStore
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
