package lastfm

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/bowmanmike/chartsync/internal/app"
)

type errorEnvelope struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

type chartResponse struct {
	Tracks struct {
		Track []chartTrack `json:"track"`
	} `json:"tracks"`
}

type chartTrack struct {
	Name      string  `json:"name"`
	Duration  flexInt `json:"duration"`
	PlayCount flexInt `json:"playcount"`
	Listeners flexInt `json:"listeners"`
	MBID      string  `json:"mbid"`
	URL       string  `json:"url"`
	Artist    struct {
		Name string `json:"name"`
		MBID string `json:"mbid"`
		URL  string `json:"url"`
	} `json:"artist"`
}

type artistInfoResponse struct {
	Artist struct {
		Name  string `json:"name"`
		MBID  string `json:"mbid"`
		Stats struct {
			Listeners flexInt `json:"listeners"`
			PlayCount flexInt `json:"playcount"`
		} `json:"stats"`
		Bio struct {
			Published string `json:"published"`
		} `json:"bio"`
	} `json:"artist"`
}

type trackInfoResponse struct {
	Track struct {
		Name      string  `json:"name"`
		Duration  flexInt `json:"duration"`
		PlayCount flexInt `json:"playcount"`
		Album     struct {
			Title       string `json:"title"`
			ReleaseDate string `json:"releasedate"`
		} `json:"album"`
		Wiki struct {
			Published string `json:"published"`
		} `json:"wiki"`
	} `json:"track"`
}

type topTagsResponse struct {
	TopTags struct {
		Tag tagList `json:"tag"`
	} `json:"toptags"`
}

type tagItem struct {
	Name  string  `json:"name"`
	Count flexInt `json:"count"`
}

// tagList accepts both an array of tags and the single-object form.
type tagList []tagItem

func (l *tagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '{' {
		var one tagItem
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = tagList{one}
		return nil
	}
	var many []tagItem
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

func (l tagList) toApp() []app.Tag {
	out := make([]app.Tag, 0, len(l))
	for _, t := range l {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		out = append(out, app.Tag{Name: t.Name, Count: int(t.Count)})
	}
	return out
}

// flexInt decodes numbers Last.fm sends as strings, numbers, or not at all.
// Unparseable values decode to zero.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if fl, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			*f = flexInt(fl)
			return nil
		}
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}
