package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Refresh pulls the chart and reconciles every track against the catalog.
// Only a chart fetch (or counter seeding) failure aborts the run; per-track
// failures are logged and counted as skipped.
func (a *App) Refresh(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{RunID: uuid.NewString()}
	logger := a.logger.With("run_id", summary.RunID)

	if a.runs != nil {
		if err := a.runs.StartRun(ctx, summary.RunID, a.now()); err != nil {
			logger.Warn("record run start failed", "error", err)
		}
	}

	summary, err := a.refresh(ctx, logger, summary)
	if a.runs != nil {
		if ferr := a.runs.FinishRun(ctx, summary.RunID, summary, err); ferr != nil {
			logger.Warn("record run finish failed", "error", ferr)
		}
	}
	if err != nil {
		return summary, err
	}

	logger.Info("refresh complete",
		"fetched", summary.Fetched,
		"inserted", summary.Inserted,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"artists_created", summary.ArtistsCreated,
	)
	return summary, nil
}

func (a *App) refresh(ctx context.Context, logger *slog.Logger, summary RunSummary) (RunSummary, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	tracks, err := a.source.TopTracks(callCtx, a.cfg.ChartLimit)
	cancel()
	if err != nil {
		return summary, fmt.Errorf("fetch chart: %w", err)
	}
	summary.Fetched = len(tracks)
	logger.Info("chart fetched", "tracks", len(tracks), "limit", a.cfg.ChartLimit)

	resolver, err := NewResolver(ctx, a.store, logger)
	if err != nil {
		return summary, fmt.Errorf("seed identifiers: %w", err)
	}
	writer := NewCatalogWriter(a.store, resolver)

	for i, track := range tracks {
		trackLogger := logger.With(
			"position", i+1,
			"artist", track.Artist,
			"title", track.Title,
		)
		outcome, err := a.processTrack(ctx, trackLogger, resolver, writer, track)
		if err != nil {
			summary.Skipped++
			trackLogger.Warn("track skipped", "error", err)
			continue
		}
		switch outcome {
		case Inserted:
			summary.Inserted++
		case Updated:
			summary.Updated++
		}
		trackLogger.Debug("track counted", "outcome", outcome.String())
	}
	summary.ArtistsCreated = resolver.ArtistsCreated()

	return summary, nil
}

func (a *App) processTrack(ctx context.Context, logger *slog.Logger, resolver *Resolver, writer *CatalogWriter, track ChartTrack) (WriteOutcome, error) {
	title := strings.TrimSpace(track.Title)
	artistName := strings.TrimSpace(track.Artist)
	if title == "" || artistName == "" {
		return 0, errors.New("chart entry missing title or artist")
	}

	// resolving identity
	detail, err := callSource(ctx, a.cfg, func(ctx context.Context) (ArtistDetail, error) {
		return a.source.ArtistInfo(ctx, artistName)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: artist detail: %v", ErrArtistUnresolved, err)
	}
	if name := strings.TrimSpace(detail.Name); name != "" {
		artistName = name
	}
	artist, err := resolver.ResolveArtist(ctx, artistName)
	if err != nil {
		return 0, err
	}
	identity, err := resolver.ResolveSong(ctx, title, artist.ID)
	if err != nil {
		return 0, err
	}

	// enriching
	in := EnrichInput{Chart: track}
	if in.Detail, err = callSource(ctx, a.cfg, func(ctx context.Context) (TrackDetail, error) {
		return a.source.TrackInfo(ctx, artistName, title)
	}); err != nil {
		return 0, fmt.Errorf("track detail: %w", err)
	}
	if in.TrackTags, err = callSource(ctx, a.cfg, func(ctx context.Context) ([]Tag, error) {
		return a.source.TrackTopTags(ctx, artistName, title)
	}); err != nil {
		return 0, fmt.Errorf("track tags: %w", err)
	}
	if in.ArtistTags, err = callSource(ctx, a.cfg, func(ctx context.Context) ([]Tag, error) {
		return a.source.ArtistTopTags(ctx, artistName)
	}); err != nil {
		return 0, fmt.Errorf("artist tags: %w", err)
	}
	attrs := a.enricher.Enrich(in)
	logger.Debug("track enriched",
		"genre", attrs.Genre,
		"mood", attrs.Mood,
		"tempo", attrs.Tempo,
		"duration_seconds", attrs.DurationSeconds,
		"release_date", attrs.ReleaseDate.Format("2006-01-02"),
		"release_source", string(attrs.ReleaseSource),
	)

	// writing
	if changed, err := writer.BackfillArtistGenre(ctx, artist, attrs.Genre); err != nil {
		logger.Warn("artist genre backfill failed", "artist_id", artist.ID, "error", err)
	} else if changed {
		logger.Info("artist genre backfilled", "artist_id", artist.ID, "genre", attrs.Genre)
	}
	return writer.Write(ctx, identity, attrs)
}

// callSource runs one upstream call under the per-call timeout.
func callSource[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout)
	defer cancel()
	return fn(callCtx)
}
