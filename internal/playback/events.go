package playback

import (
	"time"

	"github.com/llehouerou/wavestream/internal/errmsg"
	"github.com/llehouerou/wavestream/internal/playlist"
)

// StateChange is emitted when playback state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when the committed current track changes.
//
// Emitted once the audio for the new track has been fetched, not when the
// load starts, so a failed or superseded load never produces one. Stop on an
// empty queue and Close emit a change to nil.
//
// The app should handle track-related side effects (notifications, window
// title) in response to this event.
type TrackChange struct {
	Previous *playlist.Track
	Current  *playlist.Track
	Index    int
}

// QueueChange is emitted when the queue contents or position change.
type QueueChange struct {
	Tracks []playlist.Track
	Index  int
}

// VolumeChange is emitted when volume or mute changes.
type VolumeChange struct {
	Volume int
	Muted  bool
}

// PositionChange is emitted on engine time updates and seeks.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// ErrorEvent is emitted when a load attempt fails, and again with Cleared
// set when the error stops being displayed.
type ErrorEvent struct {
	Operation errmsg.Op
	TrackID   string
	Err       error
	Message   string
	Cleared   bool
}
