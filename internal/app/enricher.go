package app

import (
	"time"

	"github.com/bowmanmike/chartsync/internal/vocab"
)

const (
	defaultDurationSeconds = 180
	minDurationSeconds     = 60
	maxDurationSeconds     = 600
	defaultPlayCount       = 0
)

// EnrichInput is everything the upstream source told us about one track.
type EnrichInput struct {
	Chart      ChartTrack
	Detail     TrackDetail
	TrackTags  []Tag
	ArtistTags []Tag
}

// Attributes are the structured values derived for one track.
type Attributes struct {
	DurationSeconds int
	PlayCount       int64
	Genre           string
	Mood            string
	Tempo           int
	ReleaseDate     time.Time
	ReleaseSource   ReleaseSource
}

// Enricher derives song attributes from noisy upstream metadata. It holds no
// mutable state and is safe for concurrent use.
type Enricher struct {
	vocab     *vocab.Vocabulary
	reference time.Time
	minYear   int
	maxYear   int
}

// NewEnricher builds an Enricher. reference is the "current date" used to
// bound plausible years and to correct future release dates.
func NewEnricher(v *vocab.Vocabulary, reference time.Time) *Enricher {
	if v == nil {
		v = &vocab.Vocabulary{}
	}
	ref := time.Date(reference.Year(), reference.Month(), reference.Day(), 0, 0, 0, 0, time.UTC)
	return &Enricher{
		vocab:     v,
		reference: ref,
		minYear:   minPlausibleYear,
		maxYear:   ref.Year() + 1,
	}
}

// Enrich derives every attribute for a track.
func (e *Enricher) Enrich(in EnrichInput) Attributes {
	genre := e.Genre(in.TrackTags, in.ArtistTags)
	released, source := e.ReleaseDate(in)
	return Attributes{
		DurationSeconds: Duration(in.Detail.DurationMillis, in.Chart.DurationSeconds),
		PlayCount:       PlayCount(in.Detail.PlayCount, in.Chart.PlayCount),
		Genre:           genre,
		Mood:            e.Mood(in.TrackTags, genre),
		Tempo:           e.Tempo(genre),
		ReleaseDate:     released,
		ReleaseSource:   source,
	}
}

// Genre checks the track's tags, then the artist's.
func (e *Enricher) Genre(trackTags, artistTags []Tag) string {
	for _, tags := range [][]Tag{trackTags, artistTags} {
		for _, tag := range tags {
			if g, ok := e.vocab.GenreForTag(tag.Name); ok {
				return g
			}
		}
	}
	return vocab.Unknown
}

// Mood prefers a mood tag on the track, then the genre's typical mood.
func (e *Enricher) Mood(trackTags []Tag, genre string) string {
	for _, tag := range trackTags {
		if m, ok := e.vocab.MoodForTag(tag.Name); ok {
			return m
		}
	}
	if genre != vocab.Unknown {
		if m, ok := e.vocab.MoodForGenre(genre); ok {
			return m
		}
	}
	return vocab.Unknown
}

// Tempo comes from the genre only.
func (e *Enricher) Tempo(genre string) int {
	return e.vocab.TempoForGenre(genre)
}

// Duration picks the detailed (milliseconds) duration, then the chart
// duration (seconds), and rejects values outside a plausible song length.
func Duration(detailMillis, chartSeconds int) int {
	seconds := defaultDurationSeconds
	switch {
	case detailMillis > 0:
		seconds = detailMillis / 1000
	case chartSeconds > 0:
		seconds = chartSeconds
	}
	if seconds < minDurationSeconds || seconds > maxDurationSeconds {
		return defaultDurationSeconds
	}
	return seconds
}

// PlayCount picks the detailed play-count, then the chart's.
func PlayCount(detail, chart int64) int64 {
	if detail > 0 {
		return detail
	}
	if chart > 0 {
		return chart
	}
	return defaultPlayCount
}
