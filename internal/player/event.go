package player

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/llehouerou/wavestream/internal/resource"
)

// EventKind identifies an engine lifecycle event.
type EventKind int

const (
	LoadStart EventKind = iota
	MetadataReady
	CanPlay
	TimeUpdate
	Ended
	Waiting
	PlayingEvent
	ErrorEvent
)

func (k EventKind) String() string {
	switch k {
	case LoadStart:
		return "loadstart"
	case MetadataReady:
		return "metadata"
	case CanPlay:
		return "canplay"
	case TimeUpdate:
		return "timeupdate"
	case Ended:
		return "ended"
	case Waiting:
		return "waiting"
	case PlayingEvent:
		return "playing"
	case ErrorEvent:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted by an engine. Handle names the resource the event
// belongs to so consumers can ignore events for sources they replaced.
type Event struct {
	Kind     EventKind
	Handle   resource.Handle
	Position time.Duration // TimeUpdate
	Duration time.Duration // MetadataReady
	Tags     *TagInfo      // MetadataReady, may be nil
	Err      *MediaError   // ErrorEvent
}

// ErrorKind classifies engine failures.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrAborted
	ErrNetwork
	ErrDecode
	ErrFormatUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case ErrAborted:
		return "aborted"
	case ErrNetwork:
		return "network"
	case ErrDecode:
		return "decode"
	case ErrFormatUnsupported:
		return "format_unsupported"
	default:
		return "unknown"
	}
}

// MediaError is a classified engine failure.
type MediaError struct {
	Kind ErrorKind
	Err  error
}

func (e *MediaError) Error() string {
	if e.Err == nil {
		return "media error: " + e.Kind.String()
	}
	return fmt.Sprintf("media error (%s): %v", e.Kind, e.Err)
}

func (e *MediaError) Unwrap() error { return e.Err }

// ErrNotLoaded is returned by Play when no source is loaded.
var ErrNotLoaded = errors.New("no source loaded")

// classify maps a load or decode failure onto the error taxonomy.
func classify(err error) *MediaError {
	var me *MediaError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &me):
		return me
	case errors.Is(err, resource.ErrReleased), errors.Is(err, resource.ErrUnknownHandle):
		return &MediaError{Kind: ErrAborted, Err: err}
	case errors.Is(err, errUnsupportedFormat):
		return &MediaError{Kind: ErrFormatUnsupported, Err: err}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &MediaError{Kind: ErrNetwork, Err: err}
	default:
		return &MediaError{Kind: ErrDecode, Err: err}
	}
}
