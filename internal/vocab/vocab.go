// Package vocab holds the lookup tables used to turn free-text tags into
// structured genre, mood and tempo values.
package vocab

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Unknown marks an attribute no table could resolve.
const Unknown = "unknown"

// DefaultTempo applies when a genre has no tempo entry.
const DefaultTempo = 120

//go:embed default.yaml
var defaultYAML []byte

// Vocabulary is an immutable set of lookup tables. The zero value resolves
// every lookup to Unknown / DefaultTempo.
type Vocabulary struct {
	tagGenre   map[string]string
	tagMood    map[string]string
	genreMood  map[string]string
	genreTempo map[string]int
}

// Tables is the serialized form of a Vocabulary.
type Tables struct {
	TagGenre   map[string]string `yaml:"tag_genre"`
	TagMood    map[string]string `yaml:"tag_mood"`
	GenreMood  map[string]string `yaml:"genre_mood"`
	GenreTempo map[string]int    `yaml:"genre_tempo"`
}

// New copies the provided tables into a Vocabulary. Keys are matched
// case-insensitively, so two keys that differ only in case or surrounding
// space are rejected.
func New(t Tables) (*Vocabulary, error) {
	v := &Vocabulary{}
	var err error
	if v.tagGenre, err = normalizeTable("tag_genre", t.TagGenre, nonEmpty("genre")); err != nil {
		return nil, err
	}
	if v.tagMood, err = normalizeTable("tag_mood", t.TagMood, nonEmpty("mood")); err != nil {
		return nil, err
	}
	if v.genreMood, err = normalizeTable("genre_mood", t.GenreMood, nil); err != nil {
		return nil, err
	}
	if v.genreTempo, err = normalizeTable("genre_tempo", t.GenreTempo, positiveTempo); err != nil {
		return nil, err
	}
	return v, nil
}

func normalizeTable[V any](table string, in map[string]V, check func(V) error) (map[string]V, error) {
	out := make(map[string]V, len(in))
	seen := make(map[string]string, len(in))
	for k, val := range in {
		if check != nil {
			if err := check(val); err != nil {
				return nil, fmt.Errorf("%s %q: %w", table, k, err)
			}
		}
		key := normalize(k)
		if prev, dup := seen[key]; dup {
			first, second := prev, k
			if second < first {
				first, second = second, first
			}
			return nil, fmt.Errorf("%s: keys %q and %q collide", table, first, second)
		}
		seen[key] = k
		out[key] = val
	}
	return out, nil
}

func nonEmpty(what string) func(string) error {
	return func(val string) error {
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("empty %s", what)
		}
		return nil
	}
}

func positiveTempo(bpm int) error {
	if bpm <= 0 {
		return errors.New("tempo must be positive")
	}
	return nil
}

// Parse decodes YAML tables.
func Parse(data []byte) (*Vocabulary, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	if len(t.TagGenre) == 0 {
		return nil, errors.New("vocabulary has no tag_genre entries")
	}
	return New(t)
}

// Load reads a YAML vocabulary file.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded vocabulary.
func Default() *Vocabulary {
	v, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary: %v", err))
	}
	return v
}

// GenreForTag maps a tag name to a genre.
func (v *Vocabulary) GenreForTag(tag string) (string, bool) {
	g, ok := v.tagGenre[normalize(tag)]
	return g, ok
}

// MoodForTag maps a tag name to a mood.
func (v *Vocabulary) MoodForTag(tag string) (string, bool) {
	m, ok := v.tagMood[normalize(tag)]
	return m, ok
}

// MoodForGenre maps a genre to its typical mood.
func (v *Vocabulary) MoodForGenre(genre string) (string, bool) {
	m, ok := v.genreMood[normalize(genre)]
	return m, ok
}

// TempoForGenre returns the typical BPM for a genre, or DefaultTempo.
func (v *Vocabulary) TempoForGenre(genre string) int {
	if bpm, ok := v.genreTempo[normalize(genre)]; ok {
		return bpm
	}
	return DefaultTempo
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
