package playback

import (
	"errors"

	"github.com/llehouerou/wavestream/internal/player"
	"github.com/llehouerou/wavestream/internal/stream"
)

var (
	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = errors.New("playback controller closed")
	// ErrNothingToPlay is returned when there is no track to start.
	ErrNothingToPlay = errors.New("nothing to play")
	// ErrInvalidIndex is returned by JumpTo for a position outside the queue.
	ErrInvalidIndex = errors.New("queue index out of range")
	// ErrLoadTimeout is recorded when the engine does not report metadata
	// within the metadata timeout.
	ErrLoadTimeout = errors.New("timed out waiting for track metadata")
)

// errorKind labels err for the load error metric.
func errorKind(err error) string {
	var (
		remote *stream.RemoteError
		media  *player.MediaError
	)
	switch {
	case errors.Is(err, stream.ErrUnauthenticated):
		return "unauthenticated"
	case errors.As(err, &remote):
		return "remote_error"
	case errors.Is(err, stream.ErrEmptyPayload):
		return "empty_payload"
	case errors.Is(err, stream.ErrPayloadTooLarge):
		return "too_large"
	case errors.Is(err, ErrLoadTimeout):
		return "timeout"
	case errors.As(err, &media):
		return media.Kind.String()
	default:
		return "unknown"
	}
}
