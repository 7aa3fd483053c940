package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bowmanmike/chartsync/internal/logging"
	"github.com/bowmanmike/chartsync/internal/vocab"
)

// Tag is a community label attached to a track or artist.
type Tag struct {
	Name  string
	Count int
}

// ChartTrack is one entry of the upstream top-tracks chart.
type ChartTrack struct {
	Title           string
	Artist          string
	DurationSeconds int
	PlayCount       int64
	MBID            string
	URL             string
}

// ArtistDetail is the upstream artist lookup. Every field may be empty.
type ArtistDetail struct {
	Name          string
	MBID          string
	BioPublished  string
	ListenerCount int64
}

// TrackDetail is the upstream track lookup. Every field may be empty.
type TrackDetail struct {
	DurationMillis   int
	PlayCount        int64
	Album            string
	AlbumReleaseDate string
	WikiPublished    string
}

// Artist is a catalog artist row.
type Artist struct {
	ID          string
	Name        string
	DateOfBirth string
	DebutDate   string
	Nationality string
	Genre       *string
}

// Song is a catalog song row.
type Song struct {
	ID              string
	ArtistID        string
	Title           string
	DurationSeconds int
	Genre           string
	Mood            string
	Tempo           int
	ReleaseDate     time.Time
	PlayCount       int64
}

// RunSummary reports the outcome of one refresh run.
type RunSummary struct {
	RunID          string `json:"run_id"`
	Fetched        int    `json:"fetched"`
	Inserted       int    `json:"inserted"`
	Updated        int    `json:"updated"`
	Skipped        int    `json:"skipped"`
	ArtistsCreated int    `json:"artists_created"`
}

// Source is the upstream metadata service.
type Source interface {
	TopTracks(ctx context.Context, limit int) ([]ChartTrack, error)
	ArtistInfo(ctx context.Context, artist string) (ArtistDetail, error)
	TrackInfo(ctx context.Context, artist, title string) (TrackDetail, error)
	TrackTopTags(ctx context.Context, artist, title string) ([]Tag, error)
	ArtistTopTags(ctx context.Context, artist string) ([]Tag, error)
}

// CatalogStore persists artists and songs. Find methods return nil, nil when
// no row matches.
type CatalogStore interface {
	ArtistIDs(ctx context.Context, prefix string) ([]string, error)
	SongIDs(ctx context.Context, prefix string) ([]string, error)
	FindArtistByName(ctx context.Context, name string) (*Artist, error)
	FindArtistByID(ctx context.Context, id string) (*Artist, error)
	InsertArtist(ctx context.Context, artist Artist) error
	BackfillArtistGenre(ctx context.Context, artistID, genre string) (bool, error)
	FindSong(ctx context.Context, title, artistID string) (*Song, error)
	InsertSong(ctx context.Context, song Song) error
	UpdateSong(ctx context.Context, song Song) error
}

// RunRecorder keeps a log of refresh runs.
type RunRecorder interface {
	StartRun(ctx context.Context, runID string, startedAt time.Time) error
	FinishRun(ctx context.Context, runID string, summary RunSummary, runErr error) error
}

// Config tunes a refresh run.
type Config struct {
	ChartLimit    int
	CallTimeout   time.Duration
	ReferenceDate time.Time
}

// Dependencies groups external adapters required by the App.
type Dependencies struct {
	Source     Source
	Store      CatalogStore
	Runs       RunRecorder
	Vocabulary *vocab.Vocabulary
	Logger     *slog.Logger
	Config     Config
	Now        func() time.Time
}

// App orchestrates catalog refreshes.
type App struct {
	source   Source
	store    CatalogStore
	runs     RunRecorder
	enricher *Enricher
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

const (
	defaultChartLimit  = 10
	defaultCallTimeout = 10 * time.Second
)

// New creates an App with the provided dependencies.
func New(deps Dependencies) (*App, error) {
	if deps.Source == nil {
		return nil, errors.New("metadata source is required")
	}
	if deps.Store == nil {
		return nil, errors.New("catalog store is required")
	}

	cfg := deps.Config
	if cfg.ChartLimit <= 0 {
		cfg.ChartLimit = defaultChartLimit
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	if cfg.ReferenceDate.IsZero() {
		cfg.ReferenceDate = now()
	}
	vocabulary := deps.Vocabulary
	if vocabulary == nil {
		vocabulary = vocab.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &App{
		source:   deps.Source,
		store:    deps.Store,
		runs:     deps.Runs,
		enricher: NewEnricher(vocabulary, cfg.ReferenceDate),
		logger:   logger,
		cfg:      cfg,
		now:      now,
	}, nil
}
