//go:build linux

package mpris

import (
	"time"

	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"go.uber.org/zap"

	"github.com/llehouerou/wavestream/internal/playback"
)

const busName = "wavestream"

// Adapter exposes a playback.Service as an MPRIS player over D-Bus.
type Adapter struct {
	server *server.Server
	events *events.EventHandler
	sub    *playback.Subscription
	logger *zap.Logger
	done   chan struct{}
	exited chan struct{}
}

// New registers the MPRIS object and starts forwarding playback events.
func New(service playback.Service, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Adapter{
		sub:    service.Subscribe(),
		logger: logger,
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	a.server = server.NewServer(busName, &rootAdapter{}, &playerAdapter{service: service})
	a.events = events.NewEventHandler(a.server)

	go func() {
		if err := a.server.Listen(); err != nil {
			logger.Warn("mpris listen", zap.Error(err))
		}
	}()
	go a.forward()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	close(a.done)
	<-a.exited
	return a.server.Stop()
}

func (a *Adapter) forward() {
	defer close(a.exited)
	for {
		var err error
		select {
		case <-a.done:
			return
		case <-a.sub.Done:
			return
		case <-a.sub.StateChanged:
			err = a.events.Player.OnPlayPause()
		case <-a.sub.TrackChanged:
			err = a.events.Player.OnTitle()
		case <-a.sub.VolumeChanged:
			err = a.events.Player.OnVolume()
		case <-a.sub.QueueChanged:
		case <-a.sub.PositionChanged:
		case <-a.sub.Error:
		}
		if err != nil {
			a.logger.Debug("mpris signal", zap.Error(err))
		}
	}
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error            { return nil }
func (r *rootAdapter) Quit() error             { return nil }
func (r *rootAdapter) CanQuit() (bool, error)  { return false, nil }
func (r *rootAdapter) CanRaise() (bool, error) { return false, nil }

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Wavestream", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	service playback.Service
}

func (p *playerAdapter) Next() error      { return p.service.Next() }
func (p *playerAdapter) Previous() error  { return p.service.Previous() }
func (p *playerAdapter) Pause() error     { return p.service.Pause() }
func (p *playerAdapter) PlayPause() error { return p.service.Toggle() }
func (p *playerAdapter) Stop() error      { return p.service.Stop() }
func (p *playerAdapter) Play() error      { return p.service.Resume() }

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	_, err := p.service.SeekBy(time.Duration(offset) * time.Microsecond)
	return err
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	// Stale requests for a track that is no longer current are ignored.
	s := p.service.Snapshot()
	if s.Track == nil || string(trackObjectPath(s.Track.ID)) != trackID {
		return nil
	}
	_, err := p.service.Seek(time.Duration(position) * time.Microsecond)
	return err
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return playbackStatus(p.service.State()), nil
}

func (p *playerAdapter) Rate() (float64, error)        { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error       { return nil }
func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	s := p.service.Snapshot()
	return metadata(s), nil
}

func (p *playerAdapter) Volume() (float64, error) {
	s := p.service.Snapshot()
	if s.Muted {
		return 0, nil
	}
	return float64(s.Volume) / 100, nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	return p.service.SetVolume(fromMPRISVolume(v))
}

func (p *playerAdapter) Position() (int64, error) {
	return p.service.Snapshot().Position.Microseconds(), nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return len(p.service.Queue().Tracks) > 0, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return len(p.service.Queue().Tracks) > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	s := p.service.Snapshot()
	return s.Target() != nil || len(p.service.Queue().Tracks) > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error)   { return true, nil }
func (p *playerAdapter) CanSeek() (bool, error)    { return true, nil }
func (p *playerAdapter) CanControl() (bool, error) { return true, nil }
