// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/llehouerou/wavestream/internal/player"
	"github.com/llehouerou/wavestream/internal/stream"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Playback operations
	OpPlaybackLoad  Op = "play track"
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"

	// Queue operations
	OpQueueAdd  Op = "add to queue"
	OpQueueLoad Op = "load queue"

	// Catalog
	OpCatalogLookup Op = "look up track"

	// Local state
	OpStateLoad Op = "load player state"
	OpStateSave Op = "save player state"

	// Initialization
	OpConfigLoad Op = "load configuration"
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith is FormatDescribed naming the subject the operation failed on.
func FormatWith(op Op, subject string, err error) string {
	if err == nil {
		return ""
	}
	if subject == "" {
		return FormatDescribed(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %s", op, subject, Describe(err))
}

// FormatDescribed is Format with the error replaced by its Describe text.
func FormatDescribed(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %s", op, Describe(err))
}

// Describe turns a playback pipeline error into short text for the error
// banner. Unrecognised errors keep their own message.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var (
		remote *stream.RemoteError
		media  *player.MediaError
	)
	switch {
	case errors.Is(err, stream.ErrUnauthenticated):
		return "not signed in"
	case errors.As(err, &remote):
		switch remote.Status {
		case http.StatusNotFound:
			return "track not found on the server"
		case http.StatusUnauthorized, http.StatusForbidden:
			return "access denied by the server"
		default:
			return fmt.Sprintf("server returned %d", remote.Status)
		}
	case errors.Is(err, stream.ErrEmptyPayload):
		return "the server sent no audio"
	case errors.Is(err, stream.ErrPayloadTooLarge):
		return "audio file is too large"
	case errors.As(err, &media):
		switch media.Kind {
		case player.ErrAborted:
			return "playback was aborted"
		case player.ErrNetwork:
			return "network error while loading audio"
		case player.ErrDecode:
			return "audio could not be decoded"
		case player.ErrFormatUnsupported:
			return "audio format is not supported"
		default:
			return "unknown playback error"
		}
	case errors.Is(err, context.DeadlineExceeded):
		return "the server took too long to respond"
	default:
		return err.Error()
	}
}
