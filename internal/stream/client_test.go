package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavestream/internal/metrics"
	"github.com/llehouerou/wavestream/internal/playlist"
	"github.com/llehouerou/wavestream/internal/resource"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *resource.Store) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	store := resource.NewStore()
	return New(srv.URL+"/", store, opts...), store
}

func TestFetch_SendsAuthenticatedRangeRequest(t *testing.T) {
	var got *http.Request
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = io.WriteString(w, "ID3-audio-bytes")
	})

	res, err := c.Fetch(context.Background(), playlist.Track{ID: "42"}, "tok")
	require.NoError(t, err)
	defer res.Release()

	assert.Equal(t, "/stream", got.URL.Path)
	assert.Equal(t, "42", got.URL.Query().Get("id"))
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "bytes=0-", got.Header.Get("Range"))
	assert.Equal(t, "audio/*", got.Header.Get("Accept"))

	assert.Equal(t, "audio/mpeg", res.ContentType())
	assert.Equal(t, len("ID3-audio-bytes"), res.Size())
	assert.True(t, strings.HasPrefix(string(res.Handle()), resource.HandlePrefix))
	assert.Equal(t, 1, store.Live())

	r, err := store.Open(res.Handle())
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "ID3-audio-bytes", string(data))
}

func TestFetch_PartialContentAccepted(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/flac")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = io.WriteString(w, "fLaC")
	})

	res, err := c.Fetch(context.Background(), playlist.Track{ID: "1"}, "tok")
	require.NoError(t, err)
	assert.NoError(t, res.Release())
}

func TestFetch_AbsoluteLocator(t *testing.T) {
	var hits atomic.Int32
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/files/a.mp3", r.URL.Path)
		_, _ = io.WriteString(w, "data")
	}))
	defer other.Close()

	c, _ := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("base URL must not be used for absolute locators")
	})

	track := playlist.Track{ID: "1", Locator: other.URL + "/files/a.mp3"}
	res, err := c.Fetch(context.Background(), track, "tok")
	require.NoError(t, err)
	defer res.Release()
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_EmptyTokenMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	m := metrics.New()
	c, store := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}, WithMetrics(m))

	res, err := c.Fetch(context.Background(), playlist.Track{ID: "1"}, "")

	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, hits.Load())
	assert.Zero(t, store.Live())
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(metrics.FetchUnauthenticated)), 0)
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		opts    []Option
		check   func(t *testing.T, err error)
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "no such song", http.StatusNotFound)
			},
			check: func(t *testing.T, err error) {
				var re *RemoteError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, http.StatusNotFound, re.Status)
				assert.Equal(t, "no such song", re.Body)
				assert.True(t, IsNotFound(err))
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			check: func(t *testing.T, err error) {
				var re *RemoteError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, http.StatusUnauthorized, re.Status)
				assert.False(t, IsNotFound(err))
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "audio/mpeg")
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyPayload)
			},
		},
		{
			name: "too large with content length",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, strings.Repeat("x", 64))
			},
			opts: []Option{WithMaxBytes(16)},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrPayloadTooLarge)
			},
		},
		{
			name: "too large chunked",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				for range 8 {
					_, _ = io.WriteString(w, strings.Repeat("x", 8))
					w.(http.Flusher).Flush()
				}
			},
			opts: []Option{WithMaxBytes(16)},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrPayloadTooLarge)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store := newTestClient(t, tt.handler, tt.opts...)

			res, err := c.Fetch(context.Background(), playlist.Track{ID: "1"}, "tok")

			assert.Nil(t, res)
			require.Error(t, err)
			tt.check(t, err)
			assert.Zero(t, store.Live(), "failed fetch must not leave a resource")
		})
	}
}

func TestFetch_CanceledContext(t *testing.T) {
	release := make(chan struct{})
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx, playlist.Track{ID: "1"}, "tok")
		errc <- err
	}()
	cancel()

	err := <-errc
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, store.Live())
}

func TestRemoteError_Message(t *testing.T) {
	assert.Equal(t, "streaming service returned 404 Not Found",
		(&RemoteError{Status: 404}).Error())
	assert.Equal(t, "streaming service returned 500 Internal Server Error: boom",
		(&RemoteError{Status: 500, Body: "boom"}).Error())
}
