package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/wavestream/internal/playback"
)

const (
	lookupTimeout = 15 * time.Second
	statusTimeout = 4 * time.Second
)

// WatchServiceEvents returns a command that waits for the next playback
// event and converts it to a tea.Msg. Handlers re-arm it after each event.
func WatchServiceEvents(sub *playback.Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return ServiceStateChangedMsg(e)
		case e := <-sub.TrackChanged:
			return ServiceTrackChangedMsg(e)
		case e := <-sub.QueueChanged:
			return ServiceQueueChangedMsg(e)
		case e := <-sub.VolumeChanged:
			return ServiceVolumeChangedMsg(e)
		case e := <-sub.PositionChanged:
			return ServicePositionMsg(e)
		case e := <-sub.Error:
			return ServiceErrorMsg(e)
		case <-sub.Done:
			return ServiceClosedMsg{}
		}
	}
}

// ResolveTrackCmd looks up id in the catalog.
func ResolveTrackCmd(r TrackResolver, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()
		t, err := r.Lookup(ctx, id)
		return TrackResolvedMsg{ID: id, Track: t, Err: err}
	}
}

// StatusClearCmd hides status message seq after a delay.
func StatusClearCmd(seq int) tea.Cmd {
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return StatusClearMsg{Seq: seq}
	})
}
