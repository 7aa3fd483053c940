package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/bowmanmike/chartsync/internal/vocab"
)

// WriteOutcome says whether a song was created or refreshed.
type WriteOutcome int

const (
	Inserted WriteOutcome = iota + 1
	Updated
)

func (o WriteOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "none"
	}
}

type songIDAllocator interface {
	NextSongID() string
}

// CatalogWriter applies enriched attributes to storage.
type CatalogWriter struct {
	store CatalogStore
	ids   songIDAllocator
}

// NewCatalogWriter builds a writer that draws new song identifiers from ids.
func NewCatalogWriter(store CatalogStore, ids songIDAllocator) *CatalogWriter {
	return &CatalogWriter{store: store, ids: ids}
}

// Write inserts the song or updates its mutable fields.
func (w *CatalogWriter) Write(ctx context.Context, identity SongIdentity, attrs Attributes) (WriteOutcome, error) {
	if identity.Existing != nil {
		song := mergeSong(*identity.Existing, attrs)
		if err := w.store.UpdateSong(ctx, song); err != nil {
			return 0, fmt.Errorf("update song %s: %w", song.ID, err)
		}
		return Updated, nil
	}

	song := Song{
		ID:              w.ids.NextSongID(),
		ArtistID:        identity.ArtistID,
		Title:           identity.Title,
		DurationSeconds: attrs.DurationSeconds,
		Genre:           attrs.Genre,
		Mood:            attrs.Mood,
		Tempo:           attrs.Tempo,
		ReleaseDate:     attrs.ReleaseDate,
		PlayCount:       attrs.PlayCount,
	}
	if err := w.store.InsertSong(ctx, song); err != nil {
		return 0, fmt.Errorf("insert song %s: %w", song.ID, err)
	}
	return Inserted, nil
}

// BackfillArtistGenre sets the artist genre when it is still unknown. It
// reports whether storage changed.
func (w *CatalogWriter) BackfillArtistGenre(ctx context.Context, artist *Artist, genre string) (bool, error) {
	if isUnknown(genre) || !artistGenreUnknown(artist) {
		return false, nil
	}
	changed, err := w.store.BackfillArtistGenre(ctx, artist.ID, genre)
	if err != nil {
		return false, fmt.Errorf("backfill artist genre %s: %w", artist.ID, err)
	}
	g := genre
	artist.Genre = &g
	return changed, nil
}

// mergeSong refreshes the mutable fields of existing. Identity fields are
// untouched, play-count never decreases, and known values are not replaced
// by fallbacks.
func mergeSong(existing Song, attrs Attributes) Song {
	merged := existing
	merged.DurationSeconds = attrs.DurationSeconds
	if attrs.PlayCount > existing.PlayCount {
		merged.PlayCount = attrs.PlayCount
	}
	if !isUnknown(attrs.Genre) || isUnknown(existing.Genre) {
		merged.Genre = attrs.Genre
		merged.Tempo = attrs.Tempo
	}
	if !isUnknown(attrs.Mood) || isUnknown(existing.Mood) {
		merged.Mood = attrs.Mood
	}
	sourced := attrs.ReleaseSource != ReleaseFromDefault && attrs.ReleaseSource != ReleaseFutureCorrect
	if sourced || existing.ReleaseDate.IsZero() {
		merged.ReleaseDate = attrs.ReleaseDate
	}
	return merged
}

func artistGenreUnknown(a *Artist) bool {
	return a.Genre == nil || isUnknown(*a.Genre)
}

func isUnknown(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, vocab.Unknown)
}
