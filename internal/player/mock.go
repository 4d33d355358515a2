package player

import (
	"context"
	"sync"
	"time"

	"github.com/llehouerou/wavestream/internal/resource"
)

const defaultMockDuration = 3 * time.Minute

// Mock is a test double for Player. It is safe for concurrent use.
type Mock struct {
	mu     sync.Mutex
	store  *resource.Store
	events chan Event
	closed bool

	handle   resource.Handle
	loaded   bool
	playing  bool
	position time.Duration
	duration time.Duration
	volume   int
	muted    bool

	loadErr      error
	playErr      error
	holdMetadata bool
	playGate     chan struct{}

	loadCalls   []resource.Handle
	playCalls   int
	pauseCalls  int
	seekCalls   []time.Duration
	unloadCalls int
}

// NewMock creates a mock player. When store is non-nil, Load resolves
// handles through it, so released resources fail like the real engine.
func NewMock(store *resource.Store) *Mock {
	return &Mock{
		store:    store,
		events:   make(chan Event, 256),
		duration: defaultMockDuration,
		volume:   MaxVolume,
	}
}

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) Load(h resource.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.loadCalls = append(m.loadCalls, h)
	m.handle = h
	m.loaded = false
	m.playing = false
	m.position = 0
	m.emitLocked(Event{Kind: LoadStart, Handle: h})

	err := m.loadErr
	m.loadErr = nil
	if err == nil && m.store != nil {
		var r *resource.Reader
		if r, err = m.store.Open(h); err == nil {
			_ = r.Close()
		}
	}
	if err != nil {
		me := classify(err)
		m.emitLocked(Event{Kind: ErrorEvent, Handle: h, Err: me})
		m.handle = ""
		return me
	}

	if !m.holdMetadata {
		m.readyLocked()
	}
	return nil
}

func (m *Mock) readyLocked() {
	m.loaded = true
	m.emitLocked(Event{Kind: MetadataReady, Handle: m.handle, Duration: m.duration, Tags: &TagInfo{Format: "MP3"}})
	m.emitLocked(Event{Kind: CanPlay, Handle: m.handle})
}

func (m *Mock) Play(ctx context.Context) error {
	m.mu.Lock()
	m.playCalls++
	gate := m.playGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	if !m.loaded {
		return ErrNotLoaded
	}
	m.playing = true
	m.emitLocked(Event{Kind: PlayingEvent, Handle: m.handle})
	return nil
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	m.playing = false
}

func (m *Mock) Seek(d time.Duration) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, d)
	if !m.loaded {
		return 0
	}
	m.position = max(0, min(d, m.duration))
	m.emitLocked(Event{Kind: TimeUpdate, Handle: m.handle, Position: m.position})
	return m.position
}

func (m *Mock) SetVolume(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = ClampVolume(level)
}

func (m *Mock) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return 0
	}
	return m.duration
}

func (m *Mock) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unloadCalls++
	m.handle = ""
	m.loaded = false
	m.playing = false
	m.position = 0
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}

func (m *Mock) emitLocked(ev Event) {
	if m.closed {
		return
	}
	select {
	case m.events <- ev:
	default:
	}
}

// Test helpers

// SetLoadError makes the next Load fail with err.
func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// SetHoldMetadata makes Load stop after LoadStart until ReleaseMetadata.
func (m *Mock) SetHoldMetadata(hold bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holdMetadata = hold
}

// ReleaseMetadata reports metadata for a held load.
func (m *Mock) ReleaseMetadata() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle != "" && !m.loaded {
		m.readyLocked()
	}
}

// GatePlay makes Play block until the returned function is called.
func (m *Mock) GatePlay() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.playGate = gate
	m.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.playGate = nil
			m.mu.Unlock()
			close(gate)
		})
	}
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// SimulateEnded reports the end of the current source.
func (m *Mock) SimulateEnded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.position = m.duration
	m.emitLocked(Event{Kind: Ended, Handle: m.handle})
}

// SimulateError reports a playback failure for the current source.
func (m *Mock) SimulateError(kind ErrorKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.emitLocked(Event{Kind: ErrorEvent, Handle: m.handle, Err: &MediaError{Kind: kind}})
}

func (m *Mock) SimulateTimeUpdate(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = pos
	m.emitLocked(Event{Kind: TimeUpdate, Handle: m.handle, Position: pos})
}

func (m *Mock) SimulateWaiting() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitLocked(Event{Kind: Waiting, Handle: m.handle})
}

// Emit sends an arbitrary event.
func (m *Mock) Emit(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitLocked(ev)
}

func (m *Mock) Handle() resource.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Mock) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *Mock) LoadCalls() []resource.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]resource.Handle(nil), m.loadCalls...)
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

func (m *Mock) UnloadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unloadCalls
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
