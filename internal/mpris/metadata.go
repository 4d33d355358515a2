// Package mpris exposes playback over the MPRIS D-Bus interface.
package mpris

import (
	"fmt"
	"hash/fnv"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/wavestream/internal/playback"
)

const noTrackPath = "/org/mpris/MediaPlayer2/TrackList/NoTrack"

func playbackStatus(s playback.State) types.PlaybackStatus {
	switch s {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying
	case playback.StatePaused, playback.StateLoading:
		return types.PlaybackStatusPaused
	case playback.StateIdle, playback.StateError:
		return types.PlaybackStatusStopped
	}
	return types.PlaybackStatusStopped
}

func metadata(s playback.Session) types.Metadata {
	if s.Track == nil {
		return types.Metadata{TrackId: noTrackPath}
	}
	t := s.Track

	length := t.Duration
	if s.Duration > 0 {
		length = s.Duration
	}

	meta := types.Metadata{
		TrackId:     trackObjectPath(t.ID),
		Length:      types.Microseconds(length.Microseconds()),
		Title:       t.DisplayTitle(),
		Album:       t.Album,
		TrackNumber: t.TrackNumber,
		ArtUrl:      t.CoverURL,
	}
	if t.Artist != "" {
		meta.Artist = []string{t.Artist}
	}
	return meta
}

// fromMPRISVolume maps the MPRIS 0.0-1.0 range to 0-100.
func fromMPRISVolume(v float64) int {
	return int(min(max(v, 0), 1)*100 + 0.5)
}

// trackObjectPath derives a D-Bus safe object path from an opaque track ID.
func trackObjectPath(id string) dbus.ObjectPath {
	h := fnv.New64a()
	h.Write([]byte(id))
	return dbus.ObjectPath(fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64()))
}
