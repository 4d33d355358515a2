package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/wavestream/internal/errmsg"
	"github.com/llehouerou/wavestream/internal/player"
	"github.com/llehouerou/wavestream/internal/playlist"
	"github.com/llehouerou/wavestream/internal/stream"
)

// Everything in this file runs on the dispatch loop.

func (c *Controller) token() (string, error) {
	if c.tokens == nil {
		return "", stream.ErrUnauthenticated
	}
	token, err := c.tokens.Token(c.ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", stream.ErrUnauthenticated, err)
	}
	if token == "" {
		return "", stream.ErrUnauthenticated
	}
	return token, nil
}

// play handles a request for track and positions the queue on it.
func (c *Controller) play(track playlist.Track) error {
	if c.resumeSame(track) {
		return nil
	}
	token, err := c.token()
	if err != nil {
		c.fail(errmsg.OpPlaybackLoad, err)
		return err
	}
	if i := c.queue.IndexOf(track.ID); i >= 0 {
		c.queue.JumpTo(i)
	} else {
		c.queue.AddAndPlay(track)
	}
	c.publishQueue()
	c.startLoad(track, token)
	return nil
}

// playWithToken is play for callers that already checked the credential
// and positioned the queue.
func (c *Controller) playWithToken(track playlist.Track, token string) error {
	if c.resumeSame(track) {
		return nil
	}
	c.startLoad(track, token)
	return nil
}

// resumeSame short-circuits a request for the track already being loaded or
// played. It reports whether the request was handled.
func (c *Controller) resumeSame(track playlist.Track) bool {
	target := c.session.Target()
	if target == nil || target.ID != track.ID {
		return false
	}
	switch c.session.State {
	case StateLoading:
		c.wantPlay = true
		return true
	case StatePlaying:
		return true
	case StatePaused:
		if c.res != nil {
			c.startPlay()
			return true
		}
	}
	return false
}

func (c *Controller) resume() error {
	switch c.session.State {
	case StatePlaying:
		return nil
	case StateLoading:
		c.wantPlay = true
		return nil
	case StatePaused:
		if c.res != nil {
			c.startPlay()
			return nil
		}
	}

	target := c.session.Target()
	if target == nil || c.session.State == StateIdle {
		target = c.queue.Current()
	}
	if target == nil {
		return ErrNothingToPlay
	}
	token, err := c.token()
	if err != nil {
		c.fail(errmsg.OpPlaybackLoad, err)
		return err
	}
	c.startLoad(*target, token)
	return nil
}

func (c *Controller) pause() {
	c.wantPlay = false
	if c.session.State == StatePlaying {
		c.engine.Pause()
		c.setState(StatePaused)
	}
}

func (c *Controller) stop() {
	target := c.session.Target()
	if target == nil {
		return
	}
	c.invalidate()
	c.session.Position = 0
	c.session.Buffering = false

	prev := c.session.Track
	if c.queue.IsEmpty() {
		c.session.Track = nil
		c.session.Pending = nil
		c.session.Index = -1
		c.publishTrack(prev)
		c.setState(StateIdle)
		return
	}
	if c.session.Pending != nil {
		c.session.Track = c.session.Pending
		c.session.Pending = nil
		c.publishTrack(prev)
	}
	c.publishPosition()
	c.setState(StatePaused)
}

// step moves the queue with move and plays the new entry. Landing on the
// track already loading or playing keeps it as is.
func (c *Controller) step(move func() *playlist.Track) error {
	return c.advance(move, false)
}

// advance is step with an explicit restart: when set, the entry is fetched
// again even if it is the current track. The credential is checked first so
// a failed advance leaves the queue untouched.
func (c *Controller) advance(move func() *playlist.Track, restart bool) error {
	token, err := c.token()
	if err != nil {
		c.fail(errmsg.OpPlaybackLoad, err)
		return err
	}
	t := move()
	if t == nil {
		return ErrNothingToPlay
	}
	c.publishQueue()
	if !restart && c.resumeSame(*t) {
		return nil
	}
	c.startLoad(*t, token)
	return nil
}

func (c *Controller) seek(position time.Duration) time.Duration {
	if !c.loaded {
		return c.session.Position
	}
	position = max(position, 0)
	if c.session.Duration > 0 {
		position = min(position, c.session.Duration)
	}
	c.session.Position = c.engine.Seek(position)
	c.publishPosition()
	return c.session.Position
}

// startLoad supersedes whatever is loaded or loading and fetches track.
func (c *Controller) startLoad(track playlist.Track, token string) {
	c.invalidate()
	c.clearError()

	pending := track
	c.session.Pending = &pending
	c.session.Index = c.queue.CurrentIndex()
	c.session.Position = 0
	c.session.Duration = track.Duration
	c.session.Embedded = nil
	c.session.Buffering = false
	c.wantPlay = true
	c.setState(StateLoading)
	c.publishPosition()

	ctx, cancel := context.WithCancel(c.ctx)
	c.fetchCancel = cancel
	gen := c.gen

	c.logger.Debug("loading track", zap.String("track", track.ID), zap.Uint64("gen", gen))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res, err := c.fetcher.Fetch(ctx, track, token)
		c.post(fetchResult{gen: gen, track: track, res: res, err: err})
	}()
}

// startPlay asks the engine to play. The result arrives as a playResult.
func (c *Controller) startPlay() {
	c.wantPlay = true
	if c.playPending {
		return
	}
	c.playPending = true

	ctx, cancel := context.WithCancel(c.ctx)
	c.playCancel = cancel
	gen := c.gen

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.engine.Play(ctx)
		c.post(playResult{gen: gen, err: err})
	}()
}

// invalidate makes every outstanding message stale and releases the loaded
// audio.
func (c *Controller) invalidate() {
	c.gen++
	if c.fetchCancel != nil {
		c.fetchCancel()
		c.fetchCancel = nil
	}
	if c.playCancel != nil {
		c.playCancel()
		c.playCancel = nil
	}
	c.playPending = false
	c.stopMetadataTimer()
	if c.loaded {
		c.engine.Unload()
		c.loaded = false
	}
	c.releaseResource()
}

func (c *Controller) releaseResource() {
	if c.res == nil {
		return
	}
	if err := c.res.Release(); err != nil {
		c.logger.Warn("release audio resource", zap.String("handle", string(c.res.Handle())), zap.Error(err))
	}
	c.res = nil
	c.metrics.SetLiveResources(0)
}

func (c *Controller) stopMetadataTimer() {
	if c.metaTimer != nil {
		c.metaTimer.Stop()
		c.metaTimer = nil
	}
}

// fail ends the current load attempt and shows err.
func (c *Controller) fail(op errmsg.Op, err error) {
	c.invalidate()
	c.session.Buffering = false
	c.session.Err = err
	c.session.ErrMessage = errmsg.FormatDescribed(op, err)
	c.setState(StateError)

	trackID := ""
	if t := c.session.Target(); t != nil {
		trackID = t.ID
	}
	c.metrics.RecordLoadError(errorKind(err))
	c.logger.Warn("playback failed",
		zap.String("op", string(op)),
		zap.String("track", trackID),
		zap.Error(err),
	)
	c.publishError(ErrorEvent{
		Operation: op,
		TrackID:   trackID,
		Err:       err,
		Message:   c.session.ErrMessage,
	})

	c.errSeq++
	if c.errTimer != nil {
		c.errTimer.Stop()
	}
	seq := c.errSeq
	c.errTimer = time.AfterFunc(c.errorDisplay, func() {
		c.post(errorExpired{seq: seq})
	})
}

func (c *Controller) clearError() {
	if c.session.Err == nil {
		return
	}
	c.clearErrorQuiet()
	c.publishError(ErrorEvent{Cleared: true})
}

// clearErrorQuiet drops the displayed error without notifying.
func (c *Controller) clearErrorQuiet() {
	c.errSeq++
	if c.errTimer != nil {
		c.errTimer.Stop()
		c.errTimer = nil
	}
	c.session.Err = nil
	c.session.ErrMessage = ""
}

func (c *Controller) shutdown() {
	c.invalidate()
	c.clearErrorQuiet()
	c.cancel()

	prev := c.session.Track
	c.session.Track = nil
	c.session.Pending = nil
	c.session.Index = -1
	c.session.Position = 0
	c.session.Duration = 0
	c.session.Buffering = false
	c.session.Embedded = nil
	c.publishTrack(prev)
	c.setState(StateIdle)

	c.final = c.session.clone()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.closing = true
	c.logger.Debug("playback controller closed")
}

func (c *Controller) handleMessage(m any) {
	switch m := m.(type) {
	case fetchResult:
		c.onFetched(m)
	case playResult:
		c.onPlayed(m)
	case metadataExpired:
		if m.gen == c.gen && c.session.State == StateLoading {
			c.fail(errmsg.OpPlaybackLoad, ErrLoadTimeout)
		}
	case errorExpired:
		if m.seq == c.errSeq {
			c.errTimer = nil
			c.clearError()
		}
	}
}

func (c *Controller) onFetched(m fetchResult) {
	if m.gen != c.gen {
		c.metrics.RecordStale()
		c.logger.Debug("dropping stale load", zap.String("track", m.track.ID), zap.Error(m.err))
		if m.res != nil {
			_ = m.res.Release()
		}
		return
	}
	if c.fetchCancel != nil {
		c.fetchCancel()
		c.fetchCancel = nil
	}
	if m.err != nil {
		c.fail(errmsg.OpPlaybackLoad, m.err)
		return
	}

	c.res = m.res
	c.metrics.SetLiveResources(1)

	prev := c.session.Track
	track := m.track
	c.session.Track = &track
	c.session.Pending = nil
	c.publishTrack(prev)

	c.loaded = true
	if err := c.engine.Load(m.res.Handle()); err != nil {
		c.fail(errmsg.OpPlaybackLoad, err)
		return
	}
	gen := c.gen
	c.metaTimer = time.AfterFunc(c.metadataTimeout, func() {
		c.post(metadataExpired{gen: gen})
	})
}

func (c *Controller) onPlayed(m playResult) {
	if m.gen != c.gen {
		// The engine may have started a source we no longer want playing.
		if m.err == nil && c.session.State != StatePlaying && !c.playPending && c.loaded {
			c.engine.Pause()
		}
		return
	}
	c.playPending = false
	if c.playCancel != nil {
		c.playCancel()
		c.playCancel = nil
	}

	if m.err != nil {
		if errors.Is(m.err, context.Canceled) {
			return
		}
		var me *player.MediaError
		if !errors.As(m.err, &me) {
			me = &player.MediaError{Kind: player.ErrUnknown, Err: m.err}
		}
		c.fail(errmsg.OpPlaybackStart, me)
		return
	}

	if !c.wantPlay {
		c.engine.Pause()
		c.setState(StatePaused)
		return
	}
	c.setState(StatePlaying)
}

func (c *Controller) handleEngineEvent(ev player.Event) {
	if c.res == nil || ev.Handle != c.res.Handle() {
		return
	}

	switch ev.Kind {
	case player.MetadataReady:
		c.stopMetadataTimer()
		if ev.Duration > 0 {
			c.session.Duration = ev.Duration
		}
		c.session.Embedded = ev.Tags
		c.publishPosition()
	case player.CanPlay:
		if c.session.State != StateLoading {
			return
		}
		c.stopMetadataTimer()
		if c.wantPlay {
			c.startPlay()
		} else {
			c.setState(StatePaused)
		}
	case player.TimeUpdate:
		c.session.Position = ev.Position
		c.publishPosition()
	case player.Waiting:
		c.session.Buffering = true
	case player.PlayingEvent:
		c.session.Buffering = false
	case player.Ended:
		c.onEnded()
	case player.ErrorEvent:
		err := ev.Err
		if err == nil {
			err = &player.MediaError{Kind: player.ErrUnknown}
		}
		c.fail(errmsg.OpPlaybackStart, err)
	}
}

// onEnded advances to the next queue entry, or goes idle when the queue
// is empty.
func (c *Controller) onEnded() {
	if c.queue.IsEmpty() {
		c.invalidate()
		prev := c.session.Track
		c.session.Track = nil
		c.session.Index = -1
		c.session.Position = 0
		c.session.Buffering = false
		c.publishTrack(prev)
		c.setState(StateIdle)
		return
	}
	// A single entry queue starts its track over.
	if err := c.advance(c.queue.Next, true); err != nil {
		c.logger.Debug("advance after end failed", zap.Error(err))
	}
}

func (c *Controller) setState(s State) {
	prev := c.session.State
	if prev == s {
		return
	}
	c.session.State = s
	c.metrics.RecordTransition(strings.ToLower(s.String()))
	c.logger.Debug("state change", zap.Stringer("from", prev), zap.Stringer("to", s))
	if n := broadcast(c.subs, stateOut, StateChange{Previous: prev, Current: s}); n > 0 {
		c.logger.Debug("state change dropped", zap.Int("subscribers", n))
	}
}

func (c *Controller) publishTrack(prev *playlist.Track) {
	cur := c.session.Track
	if prev == cur {
		return
	}
	e := TrackChange{Index: c.session.Index}
	if prev != nil {
		t := *prev
		e.Previous = &t
	}
	if cur != nil {
		t := *cur
		e.Current = &t
	}
	broadcast(c.subs, trackOut, e)
}

func (c *Controller) publishQueue() {
	if len(c.subs) == 0 {
		return
	}
	broadcast(c.subs, queueOut, QueueChange{Tracks: c.queue.Tracks(), Index: c.queue.CurrentIndex()})
}

func (c *Controller) publishPosition() {
	broadcast(c.subs, positionOut, PositionChange{Position: c.session.Position, Duration: c.session.Duration})
}

func (c *Controller) publishVolume() {
	broadcast(c.subs, volumeOut, VolumeChange{Volume: c.session.Volume, Muted: c.session.Muted})
}

func (c *Controller) publishError(e ErrorEvent) {
	broadcast(c.subs, errorOut, e)
}
