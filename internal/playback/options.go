package playback

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/wavestream/internal/metrics"
	"github.com/llehouerou/wavestream/internal/player"
)

const (
	DefaultErrorDisplay    = 5 * time.Second
	DefaultMetadataTimeout = 30 * time.Second
	DefaultVolume          = 70
)

// TokenSource supplies the bearer credential for each fetch.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed credential.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// FileToken reads the credential from a file on every call, so a token
// refreshed by another process is picked up on the next load. A missing
// file yields an empty token.
type FileToken string

func (f FileToken) Token(context.Context) (string, error) {
	data, err := os.ReadFile(string(f))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

type options struct {
	logger          *zap.Logger
	metrics         *metrics.Metrics
	errorDisplay    time.Duration
	metadataTimeout time.Duration
	volume          int
	muted           bool
}

// Option configures a Controller.
type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithErrorDisplay sets how long an error stays visible before it is
// cleared automatically.
func WithErrorDisplay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.errorDisplay = d
		}
	}
}

// WithMetadataTimeout sets how long a load may wait for the engine to
// report metadata before it fails.
func WithMetadataTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.metadataTimeout = d
		}
	}
}

// WithVolume sets the initial volume and mute state.
func WithVolume(level int, muted bool) Option {
	return func(o *options) {
		o.volume = player.ClampVolume(level)
		o.muted = muted
	}
}

func defaultOptions() options {
	return options{
		logger:          zap.NewNop(),
		errorDisplay:    DefaultErrorDisplay,
		metadataTimeout: DefaultMetadataTimeout,
		volume:          DefaultVolume,
	}
}
