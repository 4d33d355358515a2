package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/wavestream/internal/state"
)

const saveTimeout = 2 * time.Second

// saveQueue persists the current queue.
func (m *Model) saveQueue() {
	if m.state == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	err := m.state.SaveQueue(ctx, state.QueueState{
		CurrentIndex: m.queue.Index,
		Tracks:       m.queue.Tracks,
	})
	if err != nil {
		m.logger.Warn("save queue", zap.Error(err))
	}
}

// saveVolume persists volume and mute. Writes are debounced by the store.
func (m *Model) saveVolume() {
	if m.state == nil {
		return
	}
	m.state.SaveVolume(state.VolumeState{Volume: m.session.Volume, Muted: m.session.Muted})
}
