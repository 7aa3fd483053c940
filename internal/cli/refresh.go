package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bowmanmike/chartsync/internal/app"
	"github.com/bowmanmike/chartsync/internal/lastfm"
	"github.com/bowmanmike/chartsync/internal/storage/sqlite"
	"github.com/bowmanmike/chartsync/internal/vocab"
)

func newRefreshCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one chart ingestion and enrichment pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd.Context(), cmd, opts)
		},
	}
}

func runRefresh(ctx context.Context, cmd *cobra.Command, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	instance, store, err := buildApp(cmd, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := instance.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d tracks: %d inserted, %d updated, %d skipped\n",
		summary.Fetched, summary.Inserted, summary.Updated, summary.Skipped)
	return nil
}

// buildApp wires the Last.fm client, the catalog store and the App. The
// caller owns the returned store.
func buildApp(cmd *cobra.Command, opts *options) (*app.App, catalogStore, error) {
	if err := opts.ensureLogger(cmd.ErrOrStderr()); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := opts.logger

	if opts.lastfmAPIKey == "" {
		return nil, nil, errors.New("last.fm API key must be set via --lastfm-api-key or LASTFM_API_KEY")
	}
	if opts.dbPath == "" {
		return nil, nil, errors.New("db-path must be set via --db-path or CATALOG_DB_PATH")
	}

	reference, err := parseReferenceDate(opts.referenceDate)
	if err != nil {
		return nil, nil, err
	}

	vocabulary := vocab.Default()
	if opts.vocabularyPath != "" {
		if vocabulary, err = vocab.Load(opts.vocabularyPath); err != nil {
			return nil, nil, fmt.Errorf("load vocabulary: %w", err)
		}
		logger.Info("vocabulary loaded", "path", opts.vocabularyPath)
	}

	client, err := opts.newSource(lastfm.Config{
		BaseURL:           opts.lastfmURL,
		APIKey:            opts.lastfmAPIKey,
		RequestsPerSecond: opts.rate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init last.fm client: %w", err)
	}

	dbPath, err := filepath.Abs(opts.dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve db path: %w", err)
	}
	if err := ensureDir(dbPath); err != nil {
		return nil, nil, err
	}
	store, err := opts.newStore(sqlite.Config{Path: dbPath})
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info("catalog store configured", "db_path", dbPath)

	instance, err := opts.newApp(app.Dependencies{
		Source:     client,
		Store:      store,
		Runs:       store,
		Vocabulary: vocabulary,
		Logger:     logger,
		Config: app.Config{
			ChartLimit:    opts.chartLimit,
			CallTimeout:   opts.callTimeout,
			ReferenceDate: reference,
		},
	})
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("init app: %w", err)
	}

	return instance, store, nil
}

func parseReferenceDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse reference-date: %w", err)
	}
	return ts, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return nil
}
