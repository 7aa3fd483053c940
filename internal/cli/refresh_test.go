package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/bowmanmike/chartsync/internal/app"
	"github.com/bowmanmike/chartsync/internal/lastfm"
	"github.com/bowmanmike/chartsync/internal/logging"
)

func testOptions(t *testing.T, src app.Source) *options {
	t.Helper()
	opts := newOptions()
	opts.lastfmAPIKey = "key"
	opts.dbPath = filepath.Join(t.TempDir(), "nested", "catalog.db")
	opts.chartLimit = 10
	opts.logger = logging.Discard()
	opts.newSource = func(cfg lastfm.Config) (app.Source, error) {
		if cfg.APIKey != "key" {
			t.Fatalf("api key not propagated")
		}
		return src, nil
	}
	return opts
}

func TestRunRefresh(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		opts := newOptions()
		opts.logger = logging.Discard()
		opts.dbPath = "catalog.db"
		if err := runRefresh(context.Background(), &cobra.Command{}, opts); err == nil {
			t.Fatalf("expected error for missing api key")
		}
	})

	t.Run("success prints summary", func(t *testing.T) {
		out := &bytes.Buffer{}
		cmd := &cobra.Command{}
		cmd.SetOut(out)

		src := chartSource{tracks: []app.ChartTrack{
			{Title: "One", Artist: "First", DurationSeconds: 200},
			{Title: "Two", Artist: "Second", DurationSeconds: 210},
		}}
		opts := testOptions(t, src)

		if err := runRefresh(context.Background(), cmd, opts); err != nil {
			t.Fatalf("runRefresh error: %v", err)
		}
		if got := out.String(); got != "Fetched 2 tracks: 2 inserted, 0 updated, 0 skipped\n" {
			t.Fatalf("unexpected output %q", got)
		}
		if _, err := os.Stat(opts.dbPath); err != nil {
			t.Fatalf("expected database created: %v", err)
		}

		out.Reset()
		if err := runRefresh(context.Background(), cmd, opts); err != nil {
			t.Fatalf("second runRefresh error: %v", err)
		}
		if got := out.String(); got != "Fetched 2 tracks: 0 inserted, 2 updated, 0 skipped\n" {
			t.Fatalf("unexpected second output %q", got)
		}
	})

	t.Run("propagates client errors", func(t *testing.T) {
		opts := testOptions(t, nil)
		opts.newSource = func(cfg lastfm.Config) (app.Source, error) {
			return nil, errors.New("boom")
		}
		if err := runRefresh(context.Background(), &cobra.Command{}, opts); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("propagates chart errors", func(t *testing.T) {
		opts := testOptions(t, chartSource{err: errors.New("chart down")})
		if err := runRefresh(context.Background(), &cobra.Command{}, opts); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("propagates app errors", func(t *testing.T) {
		opts := testOptions(t, chartSource{})
		opts.newApp = func(deps app.Dependencies) (*app.App, error) {
			return nil, errors.New("app error")
		}
		if err := runRefresh(context.Background(), &cobra.Command{}, opts); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("bad vocabulary file", func(t *testing.T) {
		opts := testOptions(t, chartSource{})
		opts.vocabularyPath = filepath.Join(t.TempDir(), "missing.yaml")
		if err := runRefresh(context.Background(), &cobra.Command{}, opts); err == nil {
			t.Fatalf("expected error")
		}
	})
}

type chartSource struct {
	tracks []app.ChartTrack
	err    error
}

func (c chartSource) TopTracks(ctx context.Context, limit int) ([]app.ChartTrack, error) {
	return c.tracks, c.err
}

func (c chartSource) ArtistInfo(ctx context.Context, artist string) (app.ArtistDetail, error) {
	return app.ArtistDetail{Name: artist}, nil
}

func (c chartSource) TrackInfo(ctx context.Context, artist, title string) (app.TrackDetail, error) {
	return app.TrackDetail{}, nil
}

func (c chartSource) TrackTopTags(ctx context.Context, artist, title string) ([]app.Tag, error) {
	return []app.Tag{{Name: "rock", Count: 10}}, nil
}

func (c chartSource) ArtistTopTags(ctx context.Context, artist string) ([]app.Tag, error) {
	return nil, nil
}
