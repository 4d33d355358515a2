package app

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/llehouerou/wavestream/internal/keymap"
	"github.com/llehouerou/wavestream/internal/playback"
	"github.com/llehouerou/wavestream/internal/playlist"
	"github.com/llehouerou/wavestream/internal/state"
)

// TrackResolver looks tracks up by ID.
type TrackResolver interface {
	Lookup(ctx context.Context, id string) (playlist.Track, error)
}

// Deps holds what the model drives.
type Deps struct {
	Playback playback.Service
	Catalog  TrackResolver
	State    state.Interface // optional
	Logger   *zap.Logger
}

// Model is the bubbletea model of the player.
type Model struct {
	playback playback.Service
	catalog  TrackResolver
	state    state.Interface
	logger   *zap.Logger
	sub      *playback.Subscription
	keys     *keymap.Resolver

	session playback.Session
	queue   playback.QueueSnapshot
	cursor  int

	input    textinput.Model
	prompt   bool
	showHelp bool

	status    string
	statusSeq int

	width  int
	height int
}

// New creates the model and subscribes to playback events.
func New(d Deps) Model {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "track id"
	ti.Prompt = "add › "
	ti.CharLimit = 64

	m := Model{
		playback: d.Playback,
		catalog:  d.Catalog,
		state:    d.State,
		logger:   logger,
		sub:      d.Playback.Subscribe(),
		keys:     keymap.NewResolver(keymap.All),
		input:    ti,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return WatchServiceEvents(m.sub)
}

// refresh re-reads the session and queue from the service.
func (m *Model) refresh() {
	m.session = m.playback.Snapshot()
	m.queue = m.playback.Queue()
	m.clampCursor()
}

func (m *Model) clampCursor() {
	m.cursor = min(max(m.cursor, 0), max(len(m.queue.Tracks)-1, 0))
}

// setStatus shows a transient message under the queue.
func (m *Model) setStatus(s string) tea.Cmd {
	m.statusSeq++
	m.status = s
	return StatusClearCmd(m.statusSeq)
}
