// Package app contains the terminal front-end model.
package app

import (
	"github.com/llehouerou/wavestream/internal/playback"
	"github.com/llehouerou/wavestream/internal/playlist"
)

// ServiceStateChangedMsg carries a playback state transition.
type ServiceStateChangedMsg playback.StateChange

// ServiceTrackChangedMsg carries a committed track change.
type ServiceTrackChangedMsg playback.TrackChange

// ServiceQueueChangedMsg carries new queue contents.
type ServiceQueueChangedMsg playback.QueueChange

// ServiceVolumeChangedMsg carries a volume or mute change.
type ServiceVolumeChangedMsg playback.VolumeChange

// ServicePositionMsg carries a position update.
type ServicePositionMsg playback.PositionChange

// ServiceErrorMsg carries a load failure or its dismissal.
type ServiceErrorMsg playback.ErrorEvent

// ServiceClosedMsg is sent once the playback service has shut down.
type ServiceClosedMsg struct{}

// TrackResolvedMsg is the result of looking up a track typed at the prompt.
type TrackResolvedMsg struct {
	ID    string
	Track playlist.Track
	Err   error
}

// StatusClearMsg hides the status line if it still shows message Seq.
type StatusClearMsg struct {
	Seq int
}
