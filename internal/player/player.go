// Package player decodes fetched audio and plays it on the system speaker.
package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"go.uber.org/zap"

	"github.com/llehouerou/wavestream/internal/resource"
)

const (
	timeUpdateInterval = 250 * time.Millisecond
	eventBufferSize    = 64
	speakerBuffer      = time.Second / 10
	resampleQuality    = 4
)

// ErrClosed is returned by Load after Close.
var ErrClosed = errors.New("player closed")

// The speaker is process-wide and initialised once, at the sample rate of
// the first track played. Later tracks are resampled to it.
var (
	speakerMu          sync.Mutex
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

func ensureSpeaker(sr beep.SampleRate) (beep.SampleRate, error) {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if !speakerInitialized {
		if err := speaker.Init(sr, sr.N(speakerBuffer)); err != nil {
			return 0, err
		}
		speakerInitialized = true
		speakerSampleRate = sr
	}
	return speakerSampleRate, nil
}

// Player plays resources from a store through beep.
type Player struct {
	mu     sync.Mutex
	store  *resource.Store
	logger *zap.Logger
	events chan Event
	closed bool

	handle   resource.Handle
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	started  bool // handed to the speaker
	playing  bool
	stopTick chan struct{}

	volumeLevel int
	muted       bool
}

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// New creates a player that resolves handles through store.
func New(store *resource.Store, opts ...Option) *Player {
	p := &Player{
		store:       store,
		logger:      zap.NewNop(),
		events:      make(chan Event, eventBufferSize),
		volumeLevel: MaxVolume,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Player) Events() <-chan Event { return p.events }

// Load decodes the resource behind h, replacing the current source.
// Failures are also reported as an ErrorEvent.
func (p *Player) Load(h resource.Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.unloadLocked()
	p.handle = h
	p.emitLocked(Event{Kind: LoadStart, Handle: h})

	r, err := p.store.Open(h)
	if err != nil {
		return p.failLocked(h, err)
	}

	tags := readTags(r)
	streamer, format, codec, err := decode(r, r.ContentType())
	if err != nil {
		return p.failLocked(h, err)
	}

	p.streamer = streamer
	p.format = format

	tags.Format = codec
	tags.SampleRate = int(format.SampleRate)
	tags.BitDepth = format.Precision * 8
	duration := format.SampleRate.D(streamer.Len())

	p.logger.Debug("loaded source",
		zap.String("handle", string(h)),
		zap.String("codec", codec),
		zap.Duration("duration", duration))

	p.emitLocked(Event{Kind: MetadataReady, Handle: h, Duration: duration, Tags: tags})
	p.emitLocked(Event{Kind: CanPlay, Handle: h})
	return nil
}

func (p *Player) failLocked(h resource.Handle, err error) error {
	me := classify(err)
	p.logger.Warn("load failed",
		zap.String("handle", string(h)),
		zap.Stringer("kind", me.Kind),
		zap.Error(err))
	p.emitLocked(Event{Kind: ErrorEvent, Handle: h, Err: me})
	p.handle = ""
	return me
}

// Play starts or resumes output. The first call brings up the speaker.
func (p *Player) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return ErrNotLoaded
	}
	if p.playing {
		return nil
	}
	h := p.handle

	if p.started {
		speaker.Lock()
		p.ctrl.Paused = false
		speaker.Unlock()
	} else {
		p.emitLocked(Event{Kind: Waiting, Handle: h})
		rate, err := ensureSpeaker(p.format.SampleRate)
		if err != nil {
			return &MediaError{Kind: ErrUnknown, Err: err}
		}
		if p.streamer.Position() >= p.streamer.Len() {
			_ = p.streamer.Seek(0)
		}

		var s beep.Streamer = p.streamer
		if p.format.SampleRate != rate {
			s = beep.Resample(resampleQuality, p.format.SampleRate, rate, s)
		}
		p.ctrl = &beep.Ctrl{Streamer: s}
		p.volume = &effects.Volume{
			Streamer: p.ctrl,
			Base:     2,
			Volume:   levelToVolume(p.volumeLevel),
			Silent:   p.muted,
		}

		// The callback runs with the speaker locked; finish elsewhere.
		streamer := p.streamer
		speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
			go p.finished(h, streamer)
		})))
		p.started = true
	}

	p.playing = true
	p.startTickerLocked(h)
	p.emitLocked(Event{Kind: PlayingEvent, Handle: h})
	return nil
}

func (p *Player) finished(h resource.Handle, streamer beep.StreamSeekCloser) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != h || p.streamer != streamer {
		return
	}
	p.started = false
	p.playing = false
	p.stopTickerLocked()

	if err := streamer.Err(); err != nil {
		p.emitLocked(Event{Kind: ErrorEvent, Handle: h, Err: &MediaError{Kind: ErrDecode, Err: err}})
		return
	}
	p.emitLocked(Event{Kind: Ended, Handle: h})
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.playing = false
	p.stopTickerLocked()
}

func (p *Player) Seek(d time.Duration) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return 0
	}

	n := p.format.SampleRate.N(max(d, 0))
	n = min(n, p.streamer.Len())

	if p.started {
		speaker.Lock()
	}
	err := p.streamer.Seek(n)
	if p.started {
		speaker.Unlock()
	}
	if err != nil {
		p.logger.Warn("seek failed", zap.String("handle", string(p.handle)), zap.Error(err))
	}

	pos := p.positionLocked()
	p.emitLocked(Event{Kind: TimeUpdate, Handle: p.handle, Position: pos})
	return pos
}

func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Player) positionLocked() time.Duration {
	if p.streamer == nil {
		return 0
	}
	if p.started {
		speaker.Lock()
		defer speaker.Unlock()
	}
	return p.format.SampleRate.D(p.streamer.Position())
}

func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len())
}

func (p *Player) Unload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unloadLocked()
}

func (p *Player) unloadLocked() {
	p.stopTickerLocked()
	if p.started {
		speaker.Clear()
	}
	if p.streamer != nil {
		if err := p.streamer.Close(); err != nil {
			p.logger.Debug("close streamer", zap.Error(err))
		}
	}
	p.handle = ""
	p.streamer = nil
	p.ctrl = nil
	p.volume = nil
	p.started = false
	p.playing = false
}

// Close unloads the current source and closes the event channel.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.unloadLocked()
	p.closed = true
	close(p.events)
	return nil
}

func (p *Player) startTickerLocked(h resource.Handle) {
	p.stopTickerLocked()
	stop := make(chan struct{})
	p.stopTick = stop

	go func() {
		t := time.NewTicker(timeUpdateInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				p.mu.Lock()
				if p.stopTick != stop {
					p.mu.Unlock()
					return
				}
				p.emitLocked(Event{Kind: TimeUpdate, Handle: h, Position: p.positionLocked()})
				p.mu.Unlock()
			}
		}
	}()
}

func (p *Player) stopTickerLocked() {
	if p.stopTick != nil {
		close(p.stopTick)
		p.stopTick = nil
	}
}

// emitLocked never blocks: the consumer may be waiting on p.mu.
func (p *Player) emitLocked(ev Event) {
	if p.closed {
		return
	}
	select {
	case p.events <- ev:
	default:
		if ev.Kind != TimeUpdate {
			p.logger.Warn("engine event dropped", zap.Stringer("kind", ev.Kind))
		}
	}
}
