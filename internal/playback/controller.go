// Package playback implements the track playback controller: the state
// machine that fetches audio for queue entries, hands it to the engine and
// sequences the queue.
//
// All session state belongs to a single dispatch goroutine. Public methods
// hand an operation to that goroutine and wait for it to run. Fetch results,
// play completions, timer expiries and engine events reach the same
// goroutine as messages and are handled one at a time.
package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/wavestream/internal/errmsg"
	"github.com/llehouerou/wavestream/internal/metrics"
	"github.com/llehouerou/wavestream/internal/player"
	"github.com/llehouerou/wavestream/internal/playlist"
	"github.com/llehouerou/wavestream/internal/resource"
	"github.com/llehouerou/wavestream/internal/stream"
)

// Controller is the playback controller. Create it with New and dispose of
// it with Close.
type Controller struct {
	fetcher stream.Fetcher
	engine  player.Interface
	tokens  TokenSource
	logger  *zap.Logger
	metrics *metrics.Metrics

	errorDisplay    time.Duration
	metadataTimeout time.Duration

	ops     chan func()
	msgs    chan any
	stopped chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup // fetch and play goroutines

	// Written by the loop before stopped is closed.
	final Session

	// Owned by the dispatch loop.
	queue       *playlist.PlayingQueue
	session     Session
	gen         uint64
	res         *resource.Resource
	loaded      bool // engine holds res
	fetchCancel context.CancelFunc
	playCancel  context.CancelFunc
	playPending bool
	wantPlay    bool
	metaTimer   *time.Timer
	errTimer    *time.Timer
	errSeq      uint64
	subs        []*Subscription
	closing     bool
}

// Messages posted to the dispatch loop.
type (
	fetchResult struct {
		gen   uint64
		track playlist.Track
		res   *resource.Resource
		err   error
	}
	playResult struct {
		gen uint64
		err error
	}
	metadataExpired struct{ gen uint64 }
	errorExpired    struct{ seq uint64 }
)

// New creates a controller and starts its dispatch loop. The controller does
// not own engine; the caller closes it after Close returns.
func New(fetcher stream.Fetcher, engine player.Interface, tokens TokenSource, opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:         fetcher,
		engine:          engine,
		tokens:          tokens,
		logger:          o.logger,
		metrics:         o.metrics,
		errorDisplay:    o.errorDisplay,
		metadataTimeout: o.metadataTimeout,
		ops:             make(chan func()),
		msgs:            make(chan any),
		stopped:         make(chan struct{}),
		ctx:             ctx,
		cancel:          cancel,
		queue:           playlist.NewQueue(),
		session: Session{
			Index:  -1,
			State:  StateIdle,
			Volume: o.volume,
			Muted:  o.muted,
		},
	}
	engine.SetVolume(o.volume)
	engine.SetMuted(o.muted)

	go c.run()
	return c
}

func (c *Controller) run() {
	defer close(c.stopped)

	events := c.engine.Events()
	for {
		select {
		case fn := <-c.ops:
			fn()
			if c.closing {
				return
			}
		case m := <-c.msgs:
			c.handleMessage(m)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.handleEngineEvent(ev)
		}
	}
}

// do runs fn on the dispatch loop and waits for it to finish.
func (c *Controller) do(fn func()) error {
	done := make(chan struct{})
	select {
	case c.ops <- func() {
		defer close(done)
		fn()
	}:
	case <-c.stopped:
		return ErrClosed
	}
	<-done
	return nil
}

// doErr is do for operations that report their own error.
func (c *Controller) doErr(fn func() error) error {
	var err error
	if derr := c.do(func() { err = fn() }); derr != nil {
		return derr
	}
	return err
}

// post delivers m to the dispatch loop. After Close the message is dropped
// and any resource it carries is released.
func (c *Controller) post(m any) {
	select {
	case c.msgs <- m:
	case <-c.stopped:
		if r, ok := m.(fetchResult); ok && r.res != nil {
			_ = r.res.Release()
		}
	}
}

// Play loads track, or resumes it when it is already the current track.
// The queue is positioned on track, appending it when it is not queued.
func (c *Controller) Play(track playlist.Track) error {
	return c.doErr(func() error {
		return c.play(track)
	})
}

// PlayQueue replaces the queue with tracks and plays the entry at start,
// clamped into range.
func (c *Controller) PlayQueue(tracks []playlist.Track, start int) error {
	if len(tracks) == 0 {
		return ErrNothingToPlay
	}
	return c.doErr(func() error {
		token, err := c.token()
		if err != nil {
			c.fail(errmsg.OpPlaybackLoad, err)
			return err
		}
		t := c.queue.Set(tracks, start)
		c.publishQueue()
		return c.playWithToken(*t, token)
	})
}

// Resume starts playback without naming a track: a paused track resumes in
// place, a failed load is retried and an idle controller starts the current
// queue entry.
func (c *Controller) Resume() error {
	return c.doErr(c.resume)
}

func (c *Controller) Pause() error {
	return c.do(c.pause)
}

// Toggle pauses when playing, or about to play, and resumes otherwise.
func (c *Controller) Toggle() error {
	return c.doErr(func() error {
		s := c.session.State
		if s == StatePlaying || (s == StateLoading && c.wantPlay) {
			c.pause()
			return nil
		}
		return c.resume()
	})
}

// Stop halts playback and releases the loaded audio. The track stays
// current so the next Resume fetches it again.
func (c *Controller) Stop() error {
	return c.do(c.stop)
}

// Next plays the following queue entry, wrapping after the last one. On an
// empty queue it stops.
func (c *Controller) Next() error {
	return c.doErr(func() error {
		if c.queue.IsEmpty() {
			c.stop()
			return nil
		}
		return c.step(c.queue.Next)
	})
}

// Previous plays the preceding queue entry, wrapping before the first one.
// On an empty queue it does nothing.
func (c *Controller) Previous() error {
	return c.doErr(func() error {
		if c.queue.IsEmpty() {
			return nil
		}
		return c.step(c.queue.Previous)
	})
}

// JumpTo plays the queue entry at index.
func (c *Controller) JumpTo(index int) error {
	return c.doErr(func() error {
		if index < 0 || index >= c.queue.Len() {
			return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
		}
		return c.step(func() *playlist.Track { return c.queue.JumpTo(index) })
	})
}

// Seek moves to position, clamped to [0, duration], and returns the applied
// position.
func (c *Controller) Seek(position time.Duration) (time.Duration, error) {
	var applied time.Duration
	err := c.do(func() { applied = c.seek(position) })
	return applied, err
}

// SeekBy moves relative to the current position.
func (c *Controller) SeekBy(delta time.Duration) (time.Duration, error) {
	var applied time.Duration
	err := c.do(func() { applied = c.seek(c.session.Position + delta) })
	return applied, err
}

// SetVolume sets the output level, clamped to 0-100.
func (c *Controller) SetVolume(level int) error {
	return c.do(func() {
		level = player.ClampVolume(level)
		c.engine.SetVolume(level)
		c.session.Volume = level
		c.publishVolume()
	})
}

func (c *Controller) SetMuted(muted bool) error {
	return c.do(func() {
		c.engine.SetMuted(muted)
		c.session.Muted = muted
		c.publishVolume()
	})
}

// Enqueue appends tracks to the queue without changing playback.
func (c *Controller) Enqueue(tracks ...playlist.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	return c.do(func() {
		c.queue.Add(tracks...)
		c.publishQueue()
	})
}

// ClearQueue empties the queue. The current track keeps playing; when it
// ends the controller goes idle.
func (c *Controller) ClearQueue() error {
	return c.do(func() {
		c.queue.Clear()
		c.publishQueue()
	})
}

// Remove deletes the queue entry at index. Removing the entry that is
// loading or playing moves playback to the entry that takes its place. When
// the queue ends up empty the track keeps playing as after ClearQueue.
func (c *Controller) Remove(index int) error {
	return c.doErr(func() error {
		if index < 0 || index >= c.queue.Len() {
			return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
		}
		current := index == c.queue.CurrentIndex()
		c.queue.RemoveAt(index)
		if !current {
			c.session.Index = c.queue.CurrentIndex()
			c.publishQueue()
			return nil
		}
		c.session.Index = -1
		active := c.session.State == StateLoading || c.session.State == StatePlaying
		if !active || c.queue.IsEmpty() {
			c.publishQueue()
			return nil
		}
		return c.step(c.queue.Current)
	})
}

// ClearError dismisses the current error immediately.
func (c *Controller) ClearError() error {
	return c.do(c.clearError)
}

// Snapshot returns a copy of the session. After Close it returns the final
// state.
func (c *Controller) Snapshot() Session {
	var s Session
	if err := c.do(func() { s = c.session.clone() }); err != nil {
		return c.final.clone()
	}
	return s
}

func (c *Controller) State() State {
	return c.Snapshot().State
}

// Queue returns a copy of the queue.
func (c *Controller) Queue() QueueSnapshot {
	var q QueueSnapshot
	if err := c.do(func() {
		q = QueueSnapshot{Tracks: c.queue.Tracks(), Index: c.queue.CurrentIndex()}
	}); err != nil {
		return QueueSnapshot{Index: -1}
	}
	return q
}

// Subscribe returns a new subscription. Events are dropped for subscribers
// that fall behind. Done is closed when the controller closes.
func (c *Controller) Subscribe() *Subscription {
	sub := newSubscription()
	if err := c.do(func() { c.subs = append(c.subs, sub) }); err != nil {
		sub.close()
	}
	return sub
}

// Close cancels any in-flight load, releases the loaded audio, returns the
// controller to Idle and closes all subscriptions. It waits for background
// fetches to finish, so no resource is live once it returns.
func (c *Controller) Close() error {
	// A second Close finds the loop gone and only waits.
	_ = c.do(c.shutdown)
	<-c.stopped
	c.wg.Wait()
	return nil
}
