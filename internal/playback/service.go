package playback

import (
	"time"

	"github.com/llehouerou/wavestream/internal/playlist"
)

// Service defines the playback service contract.
type Service interface {
	// Playback control
	Play(track playlist.Track) error
	PlayQueue(tracks []playlist.Track, start int) error
	Resume() error
	Pause() error
	Toggle() error
	Stop() error
	Next() error
	Previous() error
	Seek(position time.Duration) (time.Duration, error)
	SeekBy(delta time.Duration) (time.Duration, error)

	// Output
	SetVolume(level int) error
	SetMuted(muted bool) error

	// Queue
	JumpTo(index int) error
	Enqueue(tracks ...playlist.Track) error
	Remove(index int) error
	ClearQueue() error

	ClearError() error

	// State queries
	Snapshot() Session
	State() State
	Queue() QueueSnapshot

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}

// Verify Controller implements Service at compile time.
var _ Service = (*Controller)(nil)
