package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bowmanmike/chartsync/internal/app"
	"github.com/bowmanmike/chartsync/internal/lastfm"
	"github.com/bowmanmike/chartsync/internal/logging"
	"github.com/bowmanmike/chartsync/internal/storage/sqlite"
)

// Execute runs the root CLI command.
func Execute() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := newOptions()
	rootCmd := newRootCmd(opts)
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chartsync",
		Short:         "Ingest the Last.fm chart into the song catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.lastfmURL, "lastfm-url", getEnv("LASTFM_BASE_URL", lastfm.DefaultBaseURL), "Last.fm API base URL (or LASTFM_BASE_URL)")
	flags.StringVar(&opts.lastfmAPIKey, "lastfm-api-key", getEnv("LASTFM_API_KEY", ""), "Last.fm API key (or LASTFM_API_KEY)")
	flags.StringVar(&opts.dbPath, "db-path", getEnv("CATALOG_DB_PATH", "catalog.db"), "SQLite catalog path (or CATALOG_DB_PATH)")
	flags.StringVar(&opts.logLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error (or LOG_LEVEL)")
	flags.StringVar(&opts.logFormat, "log-format", getEnv("LOG_FORMAT", "json"), "Log format: json or text (or LOG_FORMAT)")
	flags.IntVar(&opts.chartLimit, "chart-limit", getEnvInt("CHART_LIMIT", 10), "Number of chart tracks to ingest (or CHART_LIMIT)")
	flags.DurationVar(&opts.callTimeout, "call-timeout", 10*time.Second, "Timeout for each Last.fm call")
	flags.Float64Var(&opts.rate, "rate", 5, "Maximum Last.fm requests per second")
	flags.StringVar(&opts.vocabularyPath, "vocabulary", getEnv("CHARTSYNC_VOCABULARY", ""), "YAML file overriding the tag vocabulary")
	flags.StringVar(&opts.referenceDate, "reference-date", "", "Date (YYYY-MM-DD) treated as today for release-date checks")

	cmd.AddCommand(newRefreshCmd(opts))
	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

type catalogStore interface {
	app.CatalogStore
	app.RunRecorder
	Ping(ctx context.Context) error
	Close() error
}

type options struct {
	lastfmURL      string
	lastfmAPIKey   string
	dbPath         string
	logLevel       string
	logFormat      string
	chartLimit     int
	callTimeout    time.Duration
	rate           float64
	vocabularyPath string
	referenceDate  string

	logger *slog.Logger

	newSource func(lastfm.Config) (app.Source, error)
	newStore  func(sqlite.Config) (catalogStore, error)
	newApp    func(app.Dependencies) (*app.App, error)
}

func newOptions() *options {
	return &options{
		newSource: func(cfg lastfm.Config) (app.Source, error) {
			return lastfm.NewClient(cfg)
		},
		newStore: func(cfg sqlite.Config) (catalogStore, error) {
			return sqlite.New(cfg)
		},
		newApp: app.New,
	}
}

func (o *options) ensureLogger(out io.Writer) error {
	if o.logger != nil {
		return nil
	}
	logger, err := logging.New(o.logLevel, o.logFormat, out)
	if err != nil {
		return err
	}
	o.logger = logger
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
