package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bowmanmike/chartsync/internal/app"
)

const (
	// DefaultBaseURL is the public Last.fm 2.0 endpoint.
	DefaultBaseURL     = "http://ws.audioscrobbler.com/2.0/"
	defaultTimeout     = 30 * time.Second
	defaultRatePerSec  = 5
	maxErrorBodyLength = 200
)

// Config drives Client construction.
type Config struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client talks to the Last.fm JSON API.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewClient builds a Last.fm API client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("api key is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRatePerSec
	}

	return &Client{
		baseURL:    parsed,
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		httpClient: cfg.HTTPClient,
	}, nil
}

// TopTracks fetches the global top-tracks chart.
func (c *Client) TopTracks(ctx context.Context, limit int) ([]app.ChartTrack, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var resp chartResponse
	if err := c.call(ctx, "chart.getTopTracks", params, &resp); err != nil {
		return nil, err
	}

	tracks := make([]app.ChartTrack, 0, len(resp.Tracks.Track))
	for _, t := range resp.Tracks.Track {
		tracks = append(tracks, app.ChartTrack{
			Title:           t.Name,
			Artist:          t.Artist.Name,
			DurationSeconds: int(t.Duration),
			PlayCount:       int64(t.PlayCount),
			MBID:            t.MBID,
			URL:             t.URL,
		})
	}
	return tracks, nil
}

// ArtistInfo fetches artist detail by name.
func (c *Client) ArtistInfo(ctx context.Context, artist string) (app.ArtistDetail, error) {
	params := url.Values{}
	params.Set("artist", artist)
	params.Set("autocorrect", "1")

	var resp artistInfoResponse
	if err := c.call(ctx, "artist.getInfo", params, &resp); err != nil {
		return app.ArtistDetail{}, err
	}
	return app.ArtistDetail{
		Name:          resp.Artist.Name,
		MBID:          resp.Artist.MBID,
		BioPublished:  resp.Artist.Bio.Published,
		ListenerCount: int64(resp.Artist.Stats.Listeners),
	}, nil
}

// TrackInfo fetches track detail by artist and title.
func (c *Client) TrackInfo(ctx context.Context, artist, title string) (app.TrackDetail, error) {
	params := url.Values{}
	params.Set("artist", artist)
	params.Set("track", title)

	var resp trackInfoResponse
	if err := c.call(ctx, "track.getInfo", params, &resp); err != nil {
		return app.TrackDetail{}, err
	}
	return app.TrackDetail{
		DurationMillis:   int(resp.Track.Duration),
		PlayCount:        int64(resp.Track.PlayCount),
		Album:            resp.Track.Album.Title,
		AlbumReleaseDate: resp.Track.Album.ReleaseDate,
		WikiPublished:    resp.Track.Wiki.Published,
	}, nil
}

// TrackTopTags fetches the most-applied tags of a track.
func (c *Client) TrackTopTags(ctx context.Context, artist, title string) ([]app.Tag, error) {
	params := url.Values{}
	params.Set("artist", artist)
	params.Set("track", title)

	var resp topTagsResponse
	if err := c.call(ctx, "track.getTopTags", params, &resp); err != nil {
		return nil, err
	}
	return resp.TopTags.Tag.toApp(), nil
}

// ArtistTopTags fetches the most-applied tags of an artist.
func (c *Client) ArtistTopTags(ctx context.Context, artist string) ([]app.Tag, error) {
	params := url.Values{}
	params.Set("artist", artist)

	var resp topTagsResponse
	if err := c.call(ctx, "artist.getTopTags", params, &resp); err != nil {
		return nil, err
	}
	return resp.TopTags.Tag.toApp(), nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit wait: %w", method, err)
	}

	query := url.Values{}
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	query.Set("method", method)
	query.Set("api_key", c.apiKey)
	query.Set("format", "json")

	u := *c.baseURL
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	// Last.fm reports API errors in a JSON envelope, sometimes with a 200.
	var envelope errorEnvelope
	if json.Unmarshal(body, &envelope) == nil && envelope.Code != 0 {
		return &APIError{Method: method, Code: envelope.Code, Message: envelope.Message}
	}
	if resp.StatusCode != http.StatusOK {
		message := string(body)
		if len(message) > maxErrorBodyLength {
			message = message[:maxErrorBodyLength] + "..."
		}
		return &HTTPError{Method: method, StatusCode: resp.StatusCode, Message: message}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

// APIError is an error reported by the Last.fm API.
type APIError struct {
	Method  string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lastfm %s error %d: %s", e.Method, e.Code, e.Message)
}

// HTTPError is a non-200 response without a Last.fm error envelope.
type HTTPError struct {
	Method     string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("lastfm %s: unexpected status %d: %s", e.Method, e.StatusCode, e.Message)
}
