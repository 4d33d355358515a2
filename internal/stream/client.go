// Package stream fetches track audio from the authenticated streaming
// endpoint and wraps it in an owned resource.
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/wavestream/internal/metrics"
	"github.com/llehouerou/wavestream/internal/playlist"
	"github.com/llehouerou/wavestream/internal/resource"
)

const (
	userAgent       = "wavestream/0.1 (https://github.com/llehouerou/wavestream)"
	defaultTimeout  = 60 * time.Second
	defaultMaxBytes = 256 << 20
	maxErrorBody    = 4 << 10
)

// Fetcher retrieves a track's audio. The returned resource is owned by the
// caller, which must release it.
type Fetcher interface {
	Fetch(ctx context.Context, track playlist.Track, token string) (*resource.Resource, error)
}

// Verify Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client fetches audio over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *resource.Store
	maxBytes   int64
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the whole-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxBytes bounds the accepted payload size.
func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records fetch metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client for the streaming service at baseURL. Fetched
// payloads are registered in store.
func New(baseURL string, store *resource.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      store,
		maxBytes:   defaultMaxBytes,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StreamURL returns the URL the audio of track is fetched from.
func (c *Client) StreamURL(track playlist.Track) string {
	if track.HasAbsoluteLocator() {
		return track.Locator
	}
	params := url.Values{}
	params.Set("id", track.ID)
	return fmt.Sprintf("%s/stream?%s", c.baseURL, params.Encode())
}

// Fetch downloads the full payload of track with token as bearer credential.
func (c *Client) Fetch(ctx context.Context, track playlist.Track, token string) (*resource.Resource, error) {
	start := time.Now()

	if token == "" {
		c.metrics.RecordFetch(metrics.FetchUnauthenticated, 0, 0)
		return nil, ErrUnauthenticated
	}

	reqURL := c.StreamURL(track)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Range", "bytes=0-")
	req.Header.Set("Accept", "audio/*")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordFetch(fetchFailureResult(err), 0, time.Since(start))
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.metrics.RecordFetch(metrics.FetchRemoteError, 0, time.Since(start))
		return nil, &RemoteError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") {
		c.logger.Warn("unexpected content type",
			zap.String("track", track.ID),
			zap.String("content_type", contentType))
	}

	data, err := c.readBody(resp)
	if err != nil {
		c.metrics.RecordFetch(fetchFailureResult(err), 0, time.Since(start))
		return nil, err
	}
	if len(data) == 0 {
		c.metrics.RecordFetch(metrics.FetchEmpty, 0, time.Since(start))
		return nil, ErrEmptyPayload
	}

	res, err := c.store.Create(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	c.metrics.RecordFetch(metrics.FetchOK, len(data), time.Since(start))
	c.logger.Debug("fetched track",
		zap.String("track", track.ID),
		zap.Int("bytes", len(data)),
		zap.String("handle", string(res.Handle())),
		zap.Duration("elapsed", time.Since(start)))

	return res, nil
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > c.maxBytes {
		return nil, ErrPayloadTooLarge
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}
	// Read one byte past the limit to detect oversize bodies without a
	// Content-Length.
	n, err := buf.ReadFrom(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if n > c.maxBytes {
		return nil, ErrPayloadTooLarge
	}
	return buf.Bytes(), nil
}

func fetchFailureResult(err error) string {
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		return metrics.FetchTooLarge
	case errors.Is(err, context.Canceled):
		return metrics.FetchCanceled
	default:
		return metrics.FetchNetwork
	}
}
