package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavestream/internal/playback"
	"github.com/llehouerou/wavestream/internal/playlist"
)

// mockNotifier records notifications for testing.
type mockNotifier struct {
	notifications []Notification
	closed        []uint32
	lastID        uint32
	err           error
}

func (m *mockNotifier) Notify(n Notification) (uint32, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.notifications = append(m.notifications, n)
	if n.ReplacesID != 0 {
		return n.ReplacesID, nil
	}
	m.lastID++
	return m.lastID, nil
}

func (m *mockNotifier) Close(id uint32) error {
	m.closed = append(m.closed, id)
	return nil
}

func TestUrgencyValues(t *testing.T) {
	// freedesktop urgency byte values
	assert.Equal(t, Urgency(0), UrgencyLow)
	assert.Equal(t, Urgency(1), UrgencyNormal)
	assert.Equal(t, Urgency(2), UrgencyCritical)
}

func TestWatcher_NowPlaying(t *testing.T) {
	mock := &mockNotifier{}
	w := NewWatcher(mock, 5000, nil)

	w.TrackChanged(playback.TrackChange{Current: &playlist.Track{
		ID: "1", Title: "Test Song", Artist: "Test Artist", Album: "Test Album",
	}})
	w.TrackChanged(playback.TrackChange{Current: &playlist.Track{ID: "2", Artist: "Solo"}})

	require.Len(t, mock.notifications, 2)

	first := mock.notifications[0]
	assert.Equal(t, "Test Song", first.Title)
	assert.Equal(t, "Test Artist · Test Album", first.Body)
	assert.Equal(t, UrgencyLow, first.Urgency)
	assert.Equal(t, int32(5000), first.Timeout)
	assert.Zero(t, first.ReplacesID)

	second := mock.notifications[1]
	assert.Equal(t, "2", second.Title, "falls back to the track id")
	assert.Equal(t, "Solo", second.Body)
	assert.Equal(t, uint32(1), second.ReplacesID, "replaces the previous bubble")
}

func TestWatcher_IgnoresClearedTrack(t *testing.T) {
	mock := &mockNotifier{}
	w := NewWatcher(mock, 0, nil)

	w.TrackChanged(playback.TrackChange{Previous: &playlist.Track{ID: "1"}})
	assert.Empty(t, mock.notifications)
}

func TestWatcher_Errors(t *testing.T) {
	mock := &mockNotifier{}
	w := NewWatcher(mock, 0, nil)

	w.ErrorRaised(playback.ErrorEvent{Message: "Failed to play track: not signed in"})
	require.Len(t, mock.notifications, 1)
	n := mock.notifications[0]
	assert.Equal(t, "Failed to play track: not signed in", n.Body)
	assert.Equal(t, UrgencyCritical, n.Urgency)

	w.ErrorRaised(playback.ErrorEvent{Cleared: true})
	assert.Equal(t, []uint32{1}, mock.closed)

	// A second clear has nothing to close.
	w.ErrorRaised(playback.ErrorEvent{Cleared: true})
	assert.Len(t, mock.closed, 1)
}

func TestWatcher_NotifierFailure(t *testing.T) {
	mock := &mockNotifier{err: errors.New("daemon gone")}
	w := NewWatcher(mock, 0, nil)

	w.TrackChanged(playback.TrackChange{Current: &playlist.Track{ID: "1"}})
	w.ErrorRaised(playback.ErrorEvent{Message: "x"})
	w.ErrorRaised(playback.ErrorEvent{Cleared: true})

	assert.Empty(t, mock.closed, "failed sends leave nothing to close")
}

func TestNowPlayingBody(t *testing.T) {
	tests := []struct {
		artist, album, want string
	}{
		{"A", "B", "A · B"},
		{"A", "", "A"},
		{"", "B", "B"},
		{" ", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nowPlayingBody(tt.artist, tt.album))
	}
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = nopNotifier{}
	id, err := n.Notify(Notification{Title: "x"})
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, n.Close(1))
}
