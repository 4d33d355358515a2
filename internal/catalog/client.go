// Package catalog resolves track IDs into playable tracks through the
// streaming service's song info endpoint.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/llehouerou/wavestream/internal/playlist"
	"github.com/llehouerou/wavestream/internal/stream"
)

// ErrNotFound is returned when the catalog has no song with the given ID.
var ErrNotFound = errors.New("song not found")

const (
	userAgent        = "wavestream/0.1 (https://github.com/llehouerou/wavestream)"
	defaultTimeout   = 10 * time.Second
	defaultCacheSize = 256
	resolveLimit     = 4
	maxErrorBody     = 4 << 10
)

// Client is a song info client with an LRU cache in front of it.
// Concurrent lookups of the same ID share one request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *lru.Cache[string, playlist.Track]
	group      singleflight.Group
	logger     *zap.Logger
	cacheSize  int
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCacheSize sets how many tracks are kept.
func WithCacheSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a catalog client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:    zap.NewNop(),
		cacheSize: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	cache, err := lru.New[string, playlist.Track](c.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create track cache: %w", err)
	}
	c.cache = cache
	return c, nil
}

// songInfo is the song info payload.
type songInfo struct {
	ID          flexID `json:"id"`
	Title       string `json:"title"`
	Duration    int    `json:"duration"` // seconds
	TrackNumber int    `json:"trackNumber"`
	AudioURL    string `json:"audioUrl"`
	CoverURL    string `json:"coverUrl"`
	Album       struct {
		Title    string `json:"title"`
		CoverURL string `json:"coverUrl"`
	} `json:"album"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

// flexID accepts both numeric and string IDs.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("song id: %w", err)
	}
	*id = flexID(n.String())
	return nil
}

func (s songInfo) track(requested string) playlist.Track {
	names := make([]string, 0, len(s.Artists))
	for _, a := range s.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	cover := s.CoverURL
	if cover == "" {
		cover = s.Album.CoverURL
	}
	id := string(s.ID)
	if id == "" {
		id = requested
	}
	return playlist.Track{
		ID:          id,
		Title:       s.Title,
		Artist:      strings.Join(names, ", "),
		Album:       s.Album.Title,
		TrackNumber: s.TrackNumber,
		CoverURL:    cover,
		Duration:    time.Duration(max(s.Duration, 0)) * time.Second,
		Locator:     s.AudioURL,
	}
}

// Lookup returns the track for id, from the cache when possible.
func (c *Client) Lookup(ctx context.Context, id string) (playlist.Track, error) {
	if id == "" {
		return playlist.Track{}, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	if t, ok := c.cache.Get(id); ok {
		return t, nil
	}

	// The shared request outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := c.group.DoChan(id, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()
		t, err := c.fetch(fctx, id)
		if err != nil {
			return playlist.Track{}, err
		}
		c.cache.Add(id, t)
		return t, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return playlist.Track{}, res.Err
		}
		if res.Shared {
			c.logger.Debug("shared song info lookup", zap.String("id", id))
		}
		return res.Val.(playlist.Track), nil
	case <-ctx.Done():
		return playlist.Track{}, ctx.Err()
	}
}

// ResolveAll looks up ids concurrently and returns the tracks in the same
// order. The first failure cancels the remaining lookups.
func (c *Client) ResolveAll(ctx context.Context, ids []string) ([]playlist.Track, error) {
	tracks := make([]playlist.Track, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveLimit)
	for i, id := range ids {
		g.Go(func() error {
			t, err := c.Lookup(gctx, id)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", id, err)
			}
			tracks[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Cached reports how many tracks are cached.
func (c *Client) Cached() int {
	return c.cache.Len()
}

func (c *Client) fetch(ctx context.Context, id string) (playlist.Track, error) {
	reqURL := fmt.Sprintf("%s/song/%s/info", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return playlist.Track{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return playlist.Track{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return playlist.Track{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return playlist.Track{}, &stream.RemoteError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	var info songInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return playlist.Track{}, fmt.Errorf("decode response: %w", err)
	}
	return info.track(id), nil
}
