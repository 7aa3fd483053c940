package app

import (
	"strconv"
	"strings"
	"time"
)

// ReleaseSource records which signal produced a release date.
type ReleaseSource string

const (
	ReleaseFromAlbum     ReleaseSource = "album"
	ReleaseFromWiki      ReleaseSource = "wiki"
	ReleaseFromTagYear   ReleaseSource = "tag_year"
	ReleaseFromDefault   ReleaseSource = "default"
	ReleaseFutureCorrect ReleaseSource = "future_corrected"
)

const minPlausibleYear = 1900

var (
	defaultReleaseDate = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	pastFallbackDate   = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
)

var dateLayouts = []string{
	"2 Jan 2006, 15:04",
	"2 January 2006, 15:04",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006",
}

// ReleaseDate resolves a release date. Trust order: structured album date,
// tag-corroborated wiki date, tag year, uncorroborated wiki date, default.
// Wiki dates before the plausible range are ignored; later ones go through
// the future-date correction.
func (e *Enricher) ReleaseDate(in EnrichInput) (time.Time, ReleaseSource) {
	tagYear, hasTagYear := e.tagYear(in.TrackTags)
	if !hasTagYear {
		tagYear, hasTagYear = e.tagYear(in.ArtistTags)
	}

	var (
		resolved time.Time
		source   ReleaseSource
	)
	if d, ok := parseDate(in.Detail.AlbumReleaseDate); ok && e.plausibleYear(d.Year()) {
		resolved, source = d, ReleaseFromAlbum
	} else if d, ok := parseDate(in.Detail.WikiPublished); ok && d.Year() >= e.minYear && (!hasTagYear || d.Year() == tagYear) {
		resolved, source = d, ReleaseFromWiki
	} else if hasTagYear {
		resolved, source = time.Date(tagYear, time.January, 1, 0, 0, 0, 0, time.UTC), ReleaseFromTagYear
	} else {
		resolved, source = defaultReleaseDate, ReleaseFromDefault
	}

	backed := hasTagYear && resolved.Year() == tagYear
	if resolved.After(e.reference) && !backed {
		return pastFallbackDate, ReleaseFutureCorrect
	}
	return resolved, source
}

func (e *Enricher) tagYear(tags []Tag) (int, bool) {
	for _, tag := range tags {
		token := strings.TrimSpace(tag.Name)
		if len(token) != 4 {
			continue
		}
		year, err := strconv.Atoi(token)
		if err != nil || token[0] == '+' || token[0] == '-' {
			continue
		}
		if e.plausibleYear(year) {
			return year, true
		}
	}
	return 0, false
}

func (e *Enricher) plausibleYear(year int) bool {
	return year >= e.minYear && year <= e.maxYear
}

func parseDate(value string) (time.Time, bool) {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
