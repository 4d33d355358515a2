package state

import "context"

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	GetVolume() (*VolumeState, error)
	SaveVolume(v VolumeState)
	GetQueue(ctx context.Context) (*QueueState, error)
	SaveQueue(ctx context.Context, qs QueueState) error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
