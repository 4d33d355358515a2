package player

import (
	"context"
	"time"

	"github.com/llehouerou/wavestream/internal/resource"
)

// Interface defines the engine contract for dependency injection and testing.
type Interface interface {
	// Load replaces any loaded source with the resource behind h.
	Load(h resource.Handle) error
	// Play starts or resumes the loaded source. It may block while the
	// output device is brought up.
	Play(ctx context.Context) error
	Pause()
	// Seek moves to d clamped to [0, Duration()] and returns the applied
	// position.
	Seek(d time.Duration) time.Duration
	// SetVolume sets the level, 0-100.
	SetVolume(level int)
	SetMuted(muted bool)
	Position() time.Duration
	Duration() time.Duration
	// Unload stops output and drops the loaded source.
	Unload()
	Events() <-chan Event
	Close() error
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
