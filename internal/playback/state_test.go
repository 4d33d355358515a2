package playback

import (
	"testing"

	"github.com/llehouerou/wavestream/internal/playlist"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateLoading, "Loading"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{StateError, "Error"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_IsActive(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateIdle, false},
		{StateLoading, true},
		{StatePlaying, true},
		{StatePaused, true},
		{StateError, false},
	}
	for _, tt := range tests {
		if got := tt.state.IsActive(); got != tt.want {
			t.Errorf("%v.IsActive() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestSession_Target(t *testing.T) {
	a := playlist.Track{ID: "A"}
	b := playlist.Track{ID: "B"}

	if (Session{}).Target() != nil {
		t.Error("empty session should have no target")
	}
	if got := (Session{Track: &a}).Target(); got.ID != "A" {
		t.Errorf("Target() = %q, want A", got.ID)
	}
	if got := (Session{Track: &a, Pending: &b}).Target(); got.ID != "B" {
		t.Errorf("Target() = %q, want pending B", got.ID)
	}
}

func TestSession_CloneCopiesTracks(t *testing.T) {
	a := playlist.Track{ID: "A"}
	s := Session{Track: &a}
	c := s.clone()
	c.Track.ID = "changed"
	if a.ID != "A" {
		t.Error("clone shares track with session")
	}
}
