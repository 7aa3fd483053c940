package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bowmanmike/chartsync/db/migrations"
	"github.com/bowmanmike/chartsync/internal/app"
)

const dateLayout = "2006-01-02"

// Config drives Store construction.
type Config struct {
	Path string
}

// Store implements app.CatalogStore and app.RunRecorder backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a Store and applies pending migrations.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite", dsn(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite DB: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return NewFromDB(db), nil
}

// NewFromDB wraps an already migrated database.
func NewFromDB(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ArtistIDs lists artist identifiers starting with prefix.
func (s *Store) ArtistIDs(ctx context.Context, prefix string) ([]string, error) {
	return s.listIDs(ctx, selectArtistIDsSQL, prefix)
}

// SongIDs lists song identifiers starting with prefix.
func (s *Store) SongIDs(ctx context.Context, prefix string) ([]string, error) {
	return s.listIDs(ctx, selectSongIDsSQL, prefix)
}

func (s *Store) listIDs(ctx context.Context, query, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}

// FindArtistByName returns the artist with exactly this name, or nil.
func (s *Store) FindArtistByName(ctx context.Context, name string) (*app.Artist, error) {
	return s.findArtist(ctx, selectArtistByNameSQL, name)
}

// FindArtistByID returns the artist with this identifier, or nil.
func (s *Store) FindArtistByID(ctx context.Context, id string) (*app.Artist, error) {
	return s.findArtist(ctx, selectArtistByIDSQL, id)
}

func (s *Store) findArtist(ctx context.Context, query string, arg string) (*app.Artist, error) {
	var (
		a                       app.Artist
		dob, debut, nationality sql.NullString
		genre                   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Name, &dob, &debut, &nationality, &genre)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query artist: %w", err)
	}
	a.DateOfBirth = dob.String
	a.DebutDate = debut.String
	a.Nationality = nationality.String
	if genre.Valid {
		a.Genre = &genre.String
	}
	return &a, nil
}

// InsertArtist creates an artist row. An existing row with the same
// identifier is left untouched.
func (s *Store) InsertArtist(ctx context.Context, artist app.Artist) error {
	now := s.now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, insertArtistSQL,
		artist.ID,
		artist.Name,
		nullIfEmpty(artist.DateOfBirth),
		nullIfEmpty(artist.DebutDate),
		nullIfEmpty(artist.Nationality),
		nullString(artist.Genre),
		now,
		now,
	); err != nil {
		return fmt.Errorf("exec insert artist: %w", err)
	}
	return nil
}

// BackfillArtistGenre sets genre only while the stored genre is unknown.
func (s *Store) BackfillArtistGenre(ctx context.Context, artistID, genre string) (bool, error) {
	res, err := s.db.ExecContext(ctx, backfillArtistGenreSQL, genre, s.now().UTC().Format(time.RFC3339Nano), artistID)
	if err != nil {
		return false, fmt.Errorf("exec backfill genre: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// FindSong returns the song with this title and artist, or nil.
func (s *Store) FindSong(ctx context.Context, title, artistID string) (*app.Song, error) {
	var (
		song              app.Song
		genre, mood, date sql.NullString
	)
	err := s.db.QueryRowContext(ctx, selectSongSQL, title, artistID).Scan(
		&song.ID,
		&song.ArtistID,
		&song.Title,
		&song.DurationSeconds,
		&genre,
		&mood,
		&song.Tempo,
		&date,
		&song.PlayCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query song: %w", err)
	}
	song.Genre = genre.String
	song.Mood = mood.String
	if date.Valid {
		if ts, err := time.Parse(dateLayout, date.String); err == nil {
			song.ReleaseDate = ts
		}
	}
	return &song, nil
}

// InsertSong creates a song row.
func (s *Store) InsertSong(ctx context.Context, song app.Song) error {
	now := s.now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, insertSongSQL,
		song.ID,
		song.ArtistID,
		song.Title,
		song.DurationSeconds,
		nullIfEmpty(song.Genre),
		nullIfEmpty(song.Mood),
		song.Tempo,
		formatDate(song.ReleaseDate),
		song.PlayCount,
		now,
		now,
	); err != nil {
		return fmt.Errorf("exec insert song: %w", err)
	}
	return nil
}

// UpdateSong rewrites the mutable fields of an existing song.
func (s *Store) UpdateSong(ctx context.Context, song app.Song) error {
	res, err := s.db.ExecContext(ctx, updateSongSQL,
		song.DurationSeconds,
		nullIfEmpty(song.Genre),
		nullIfEmpty(song.Mood),
		song.Tempo,
		formatDate(song.ReleaseDate),
		song.PlayCount,
		s.now().UTC().Format(time.RFC3339Nano),
		song.ID,
	)
	if err != nil {
		return fmt.Errorf("exec update song: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("song %s not found", song.ID)
	}
	return nil
}

// StartRun records the start of a refresh run.
func (s *Store) StartRun(ctx context.Context, runID string, startedAt time.Time) error {
	if _, err := s.db.ExecContext(ctx, createRunSQL, runID, startedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a refresh run.
func (s *Store) FinishRun(ctx context.Context, runID string, summary app.RunSummary, runErr error) error {
	status := "completed"
	var errText interface{}
	if runErr != nil {
		status = "failed"
		errText = runErr.Error()
	}
	if _, err := s.db.ExecContext(ctx, completeRunSQL,
		s.now().UTC().Format(time.RFC3339Nano),
		status,
		summary.Fetched,
		summary.Inserted,
		summary.Updated,
		summary.Skipped,
		summary.ArtistsCreated,
		errText,
		runID,
	); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func formatDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}

func nullString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullIfEmpty(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
