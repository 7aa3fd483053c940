package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// memStore is an in-memory CatalogStore and RunRecorder.
type memStore struct {
	mu      sync.Mutex
	artists map[string]Artist
	songs   map[string]Song

	// dropArtistInserts silently discards the first n artist inserts.
	dropArtistInserts int
	insertArtistCalls int
	songInsertErr     error

	runsStarted  []string
	runsFinished map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		artists:      make(map[string]Artist),
		songs:        make(map[string]Song),
		runsFinished: make(map[string]error),
	}
}

func (m *memStore) ArtistIDs(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.artists {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memStore) SongIDs(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.songs {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memStore) FindArtistByName(ctx context.Context, name string) (*Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.artists {
		if a.Name == name {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindArtistByID(ctx context.Context, id string) (*Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.artists[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memStore) InsertArtist(ctx context.Context, artist Artist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertArtistCalls++
	if m.dropArtistInserts > 0 {
		m.dropArtistInserts--
		return nil
	}
	if _, ok := m.artists[artist.ID]; ok {
		return nil
	}
	m.artists[artist.ID] = artist
	return nil
}

func (m *memStore) BackfillArtistGenre(ctx context.Context, artistID, genre string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.artists[artistID]
	if !ok {
		return false, nil
	}
	if a.Genre != nil && !strings.EqualFold(*a.Genre, "unknown") {
		return false, nil
	}
	a.Genre = &genre
	m.artists[artistID] = a
	return true, nil
}

func (m *memStore) FindSong(ctx context.Context, title, artistID string) (*Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.songs {
		if s.Title == title && s.ArtistID == artistID {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertSong(ctx context.Context, song Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.songInsertErr != nil {
		return m.songInsertErr
	}
	if _, ok := m.songs[song.ID]; ok {
		return fmt.Errorf("duplicate song id %s", song.ID)
	}
	if _, ok := m.artists[song.ArtistID]; !ok {
		return fmt.Errorf("artist %s does not exist", song.ArtistID)
	}
	m.songs[song.ID] = song
	return nil
}

func (m *memStore) UpdateSong(ctx context.Context, song Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.songs[song.ID]; !ok {
		return errors.New("song not found")
	}
	m.songs[song.ID] = song
	return nil
}

func (m *memStore) StartRun(ctx context.Context, runID string, startedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runsStarted = append(m.runsStarted, runID)
	return nil
}

func (m *memStore) FinishRun(ctx context.Context, runID string, summary RunSummary, runErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runsFinished[runID] = runErr
	return nil
}

func (m *memStore) songByTitle(title string) (Song, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.songs {
		if s.Title == title {
			return s, true
		}
	}
	return Song{}, false
}

// fakeSource serves canned upstream data keyed by artist and title.
type fakeSource struct {
	chart      []ChartTrack
	chartErr   error
	artistErr  map[string]error
	details    map[string]TrackDetail
	trackTags  map[string][]Tag
	artistTags map[string][]Tag
	canonical  map[string]string
}

func newFakeSource(chart ...ChartTrack) *fakeSource {
	return &fakeSource{
		chart:      chart,
		artistErr:  make(map[string]error),
		details:    make(map[string]TrackDetail),
		trackTags:  make(map[string][]Tag),
		artistTags: make(map[string][]Tag),
		canonical:  make(map[string]string),
	}
}

func trackKey(artist, title string) string { return artist + "\x00" + title }

func (f *fakeSource) TopTracks(ctx context.Context, limit int) ([]ChartTrack, error) {
	if f.chartErr != nil {
		return nil, f.chartErr
	}
	if limit < len(f.chart) {
		return f.chart[:limit], nil
	}
	return f.chart, nil
}

func (f *fakeSource) ArtistInfo(ctx context.Context, artist string) (ArtistDetail, error) {
	if err := f.artistErr[artist]; err != nil {
		return ArtistDetail{}, err
	}
	name := artist
	if c, ok := f.canonical[artist]; ok {
		name = c
	}
	return ArtistDetail{Name: name}, nil
}

func (f *fakeSource) TrackInfo(ctx context.Context, artist, title string) (TrackDetail, error) {
	return f.details[trackKey(artist, title)], nil
}

func (f *fakeSource) TrackTopTags(ctx context.Context, artist, title string) ([]Tag, error) {
	return f.trackTags[trackKey(artist, title)], nil
}

func (f *fakeSource) ArtistTopTags(ctx context.Context, artist string) ([]Tag, error) {
	return f.artistTags[artist], nil
}

func tags(names ...string) []Tag {
	out := make([]Tag, len(names))
	for i, n := range names {
		out[i] = Tag{Name: n, Count: 100 - i}
	}
	return out
}
