package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bowmanmike/chartsync/internal/vocab"
)

const (
	// ArtistIDPrefix namespaces artists ingested from the chart source.
	ArtistIDPrefix = "LFA"
	// SongIDPrefix namespaces songs ingested from the chart source.
	SongIDPrefix = "LFS"
	// idFloor seeds a counter when storage holds no external identifiers.
	idFloor = 1000

	placeholderDOB         = "1970-01-01"
	placeholderDebut       = "2000-01-01"
	placeholderNationality = "Unknown"
)

// ErrArtistUnresolved means no stable artist identifier could be obtained.
var ErrArtistUnresolved = errors.New("artist unresolved")

// idCounter hands out namespaced identifiers for one run.
type idCounter struct {
	prefix string
	last   int
}

func newIDCounter(prefix string, existing []string) *idCounter {
	last := idFloor
	for _, id := range existing {
		if n, ok := numericSuffix(id, prefix); ok && n > last {
			last = n
		}
	}
	return &idCounter{prefix: prefix, last: last}
}

func (c *idCounter) next() string {
	c.last++
	return c.prefix + strconv.Itoa(c.last)
}

func numericSuffix(id, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SongIdentity is the resolved identity of a chart track. Existing is nil
// when the song has not been catalogued yet; its identifier is assigned on
// insert.
type SongIdentity struct {
	Title    string
	ArtistID string
	Existing *Song
}

// Resolver maps upstream names to catalog identifiers. A Resolver belongs to
// a single run and is not safe for concurrent use.
type Resolver struct {
	store   CatalogStore
	logger  *slog.Logger
	artists *idCounter
	songs   *idCounter
	byName  map[string]*Artist
	created int
}

// NewResolver seeds both identifier counters from storage.
func NewResolver(ctx context.Context, store CatalogStore, logger *slog.Logger) (*Resolver, error) {
	artistIDs, err := store.ArtistIDs(ctx, ArtistIDPrefix)
	if err != nil {
		return nil, fmt.Errorf("load artist ids: %w", err)
	}
	songIDs, err := store.SongIDs(ctx, SongIDPrefix)
	if err != nil {
		return nil, fmt.Errorf("load song ids: %w", err)
	}
	return &Resolver{
		store:   store,
		logger:  logger,
		artists: newIDCounter(ArtistIDPrefix, artistIDs),
		songs:   newIDCounter(SongIDPrefix, songIDs),
		byName:  make(map[string]*Artist),
	}, nil
}

// ArtistsCreated reports how many artist rows this resolver inserted.
func (r *Resolver) ArtistsCreated() int {
	return r.created
}

// ResolveArtist returns the artist named name, creating it if needed.
func (r *Resolver) ResolveArtist(ctx context.Context, name string) (*Artist, error) {
	if artist, ok := r.byName[name]; ok {
		return artist, nil
	}

	existing, err := r.store.FindArtistByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find artist %q: %w", name, err)
	}
	if existing != nil {
		r.byName[name] = existing
		return existing, nil
	}

	unknown := vocab.Unknown
	artist := &Artist{
		ID:          r.artists.next(),
		Name:        name,
		DateOfBirth: placeholderDOB,
		DebutDate:   placeholderDebut,
		Nationality: placeholderNationality,
		Genre:       &unknown,
	}
	if ok, err := r.insertArtistVerified(ctx, *artist); !ok {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtistUnresolved, name, err)
	}
	r.byName[name] = artist
	r.created++
	return artist, nil
}

// insertArtistVerified inserts artist and confirms the row is readable,
// retrying the insert once.
func (r *Resolver) insertArtistVerified(ctx context.Context, artist Artist) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if err := r.store.InsertArtist(ctx, artist); err != nil {
			lastErr = fmt.Errorf("insert artist: %w", err)
		} else {
			found, err := r.store.FindArtistByID(ctx, artist.ID)
			switch {
			case err != nil:
				lastErr = fmt.Errorf("verify artist: %w", err)
			case found == nil:
				lastErr = errors.New("artist row missing after insert")
			case found.Name != artist.Name:
				lastErr = fmt.Errorf("artist id taken by %q", found.Name)
			default:
				return true, nil
			}
		}
		r.logger.Warn("artist insert not verified",
			"artist_id", artist.ID,
			"artist", artist.Name,
			"attempt", attempt,
			"error", lastErr,
		)
	}
	return false, lastErr
}

// ResolveSong looks up the song by its natural key.
func (r *Resolver) ResolveSong(ctx context.Context, title, artistID string) (SongIdentity, error) {
	existing, err := r.store.FindSong(ctx, title, artistID)
	if err != nil {
		return SongIdentity{}, fmt.Errorf("find song %q: %w", title, err)
	}
	return SongIdentity{Title: title, ArtistID: artistID, Existing: existing}, nil
}

// NextSongID allocates a song identifier. Call it only when inserting.
func (r *Resolver) NextSongID() string {
	return r.songs.next()
}
