package app

import (
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/llehouerou/wavestream/internal/errmsg"
	"github.com/llehouerou/wavestream/internal/keymap"
	"github.com/llehouerou/wavestream/internal/playback"
)

const (
	seekStep   = 5 * time.Second
	volumeStep = 5
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-10, 10)
		return m, nil

	case tea.KeyMsg:
		if m.prompt {
			return m.handlePromptKey(msg)
		}
		return m.handleKey(msg)

	case ServicePositionMsg:
		m.session.Position = msg.Position
		m.session.Duration = msg.Duration
		return m, WatchServiceEvents(m.sub)

	case ServiceTrackChangedMsg:
		m.refresh()
		if msg.Current != nil && msg.Index >= 0 {
			m.cursor = msg.Index
		}
		return m, WatchServiceEvents(m.sub)

	case ServiceQueueChangedMsg:
		m.refresh()
		m.saveQueue()
		return m, WatchServiceEvents(m.sub)

	case ServiceVolumeChangedMsg:
		m.session.Volume = msg.Volume
		m.session.Muted = msg.Muted
		m.saveVolume()
		return m, WatchServiceEvents(m.sub)

	case ServiceStateChangedMsg, ServiceErrorMsg:
		m.refresh()
		return m, WatchServiceEvents(m.sub)

	case ServiceClosedMsg:
		return m, tea.Quit

	case TrackResolvedMsg:
		return m.handleTrackResolved(msg)

	case StatusClearMsg:
		if msg.Seq == m.statusSeq {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error

	switch m.keys.Resolve(msg.String()) {
	case keymap.ActionQuit:
		return m, tea.Quit
	case keymap.ActionHelp:
		m.showHelp = !m.showHelp
		return m, nil

	case keymap.ActionPlayPause:
		err = m.playback.Toggle()
	case keymap.ActionStop:
		err = m.playback.Stop()
	case keymap.ActionNextTrack:
		err = m.playback.Next()
	case keymap.ActionPrevTrack:
		err = m.playback.Previous()
	case keymap.ActionSeekForward:
		_, err = m.playback.SeekBy(seekStep)
	case keymap.ActionSeekBack:
		_, err = m.playback.SeekBy(-seekStep)
	case keymap.ActionRetry:
		err = m.playback.Resume()
	case keymap.ActionDismiss:
		err = m.playback.ClearError()

	case keymap.ActionVolumeUp:
		err = m.playback.SetVolume(m.session.Volume + volumeStep)
	case keymap.ActionVolumeDown:
		err = m.playback.SetVolume(m.session.Volume - volumeStep)
	case keymap.ActionToggleMute:
		err = m.playback.SetMuted(!m.session.Muted)

	case keymap.ActionMoveUp:
		m.cursor--
		m.clampCursor()
		return m, nil
	case keymap.ActionMoveDown:
		m.cursor++
		m.clampCursor()
		return m, nil
	case keymap.ActionPlaySelect:
		if len(m.queue.Tracks) == 0 {
			return m, nil
		}
		err = m.playback.JumpTo(m.cursor)
	case keymap.ActionRemove:
		if len(m.queue.Tracks) == 0 {
			return m, nil
		}
		err = m.playback.Remove(m.cursor)
	case keymap.ActionClearQueue:
		err = m.playback.ClearQueue()
	case keymap.ActionAddTrack:
		if m.catalog == nil {
			return m, nil
		}
		m.prompt = true
		m.input.SetValue("")
		return m, m.input.Focus()

	default:
		return m, nil
	}

	return m, m.handleOpError(err)
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		id := strings.TrimSpace(m.input.Value())
		m.prompt = false
		m.input.Blur()
		if id == "" {
			return m, nil
		}
		return m, tea.Batch(m.setStatus("Looking up "+id+"…"), ResolveTrackCmd(m.catalog, id))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleTrackResolved(msg TrackResolvedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Info("track lookup failed", zap.String("id", msg.ID), zap.Error(msg.Err))
		return m, m.setStatus(errmsg.FormatWith(errmsg.OpCatalogLookup, msg.ID, msg.Err))
	}

	var err error
	if m.session.Target() == nil {
		err = m.playback.Play(msg.Track)
	} else {
		err = m.playback.Enqueue(msg.Track)
	}
	if err != nil {
		return m, m.handleOpError(err)
	}
	return m, m.setStatus("Added " + msg.Track.DisplayTitle())
}

// handleOpError reports errors returned by service calls. Load failures are
// already shown through the session's error banner.
func (m *Model) handleOpError(err error) tea.Cmd {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, playback.ErrClosed):
		return tea.Quit
	case errors.Is(err, playback.ErrNothingToPlay):
		return m.setStatus("Queue is empty")
	case errors.Is(err, playback.ErrInvalidIndex):
		return m.setStatus("No such queue entry")
	}
	m.logger.Debug("playback operation", zap.Error(err))
	m.refresh()
	return nil
}
