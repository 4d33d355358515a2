package state

import (
	"context"
	"sync"
)

// Mock is an in-memory test double for Manager.
type Mock struct {
	mu     sync.Mutex
	volume *VolumeState
	queue  *QueueState
	closed bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) GetVolume() (*VolumeState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.volume == nil {
		return &VolumeState{Volume: DefaultVolume}, nil
	}
	v := *m.volume
	return &v, nil
}

func (m *Mock) SaveVolume(v VolumeState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = &v
}

func (m *Mock) GetQueue(context.Context) (*QueueState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queue == nil {
		return &QueueState{CurrentIndex: -1}, nil
	}
	q := QueueState{CurrentIndex: m.queue.CurrentIndex}
	q.Tracks = append(q.Tracks, m.queue.Tracks...)
	return &q, nil
}

func (m *Mock) SaveQueue(_ context.Context, qs QueueState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = &qs
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Interface = (*Mock)(nil)
