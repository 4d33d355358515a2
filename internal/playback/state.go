package playback

import (
	"time"

	"github.com/llehouerou/wavestream/internal/player"
	"github.com/llehouerou/wavestream/internal/playlist"
)

// State represents the playback state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded or being loaded.
func (s State) IsActive() bool {
	return s == StateLoading || s == StatePlaying || s == StatePaused
}

// Session is a copy of the live playback state.
type Session struct {
	// Track is the committed current track. It changes only once the audio
	// for a new track has been fetched.
	Track *playlist.Track
	// Pending is the track being fetched, nil otherwise. After a failed
	// fetch it keeps the failed track so a retry knows what to load.
	Pending *playlist.Track
	// Index is the queue position of the track being played or loaded.
	Index int

	State     State
	Buffering bool
	Position  time.Duration
	Duration  time.Duration
	Volume    int
	Muted     bool

	// Err is the latest error. It is cleared after the display timeout or
	// by ClearError while State stays Error.
	Err        error
	ErrMessage string

	Embedded *player.TagInfo
}

// Target returns the track a resume or retry would act on.
func (s Session) Target() *playlist.Track {
	if s.Pending != nil {
		return s.Pending
	}
	return s.Track
}

func (s Session) clone() Session {
	out := s
	if s.Track != nil {
		t := *s.Track
		out.Track = &t
	}
	if s.Pending != nil {
		t := *s.Pending
		out.Pending = &t
	}
	return out
}

// QueueSnapshot is a copy of the queue contents.
type QueueSnapshot struct {
	Tracks []playlist.Track
	Index  int
}
