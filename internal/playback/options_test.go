package playback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavestream/internal/player"
	"github.com/llehouerou/wavestream/internal/stream"
)

func TestFileToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")

	tok, err := FileToken(path).Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok, "missing file means no credential")

	require.NoError(t, os.WriteFile(path, []byte("  abc123\n"), 0o600))
	tok, err = FileToken(path).Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok)

	_, err = FileToken(dir).Token(context.Background())
	assert.Error(t, err, "reading a directory fails")
}

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("s3cret").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s3cret", tok)
}

func TestOptions(t *testing.T) {
	o := defaultOptions()
	WithVolume(250, true)(&o)
	WithErrorDisplay(0)(&o)
	WithMetadataTimeout(-1)(&o)
	WithLogger(nil)(&o)

	assert.Equal(t, 100, o.volume)
	assert.True(t, o.muted)
	assert.Equal(t, DefaultErrorDisplay, o.errorDisplay)
	assert.Equal(t, DefaultMetadataTimeout, o.metadataTimeout)
	assert.NotNil(t, o.logger)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{stream.ErrUnauthenticated, "unauthenticated"},
		{fmt.Errorf("%w: expired", stream.ErrUnauthenticated), "unauthenticated"},
		{&stream.RemoteError{Status: 404}, "remote_error"},
		{stream.ErrEmptyPayload, "empty_payload"},
		{stream.ErrPayloadTooLarge, "too_large"},
		{ErrLoadTimeout, "timeout"},
		{&player.MediaError{Kind: player.ErrNetwork}, "network"},
		{errors.New("other"), "unknown"},
	}
	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Errorf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
