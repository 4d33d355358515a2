package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/llehouerou/wavestream/internal/playback"
)

// Watcher turns playback events into desktop notifications: one
// "now playing" bubble that is replaced on each track change, and a
// critical bubble per playback error.
type Watcher struct {
	notifier Notifier
	logger   *zap.Logger
	timeout  int32

	nowPlayingID uint32
	errorID      uint32
}

// NewWatcher creates a watcher. timeoutMS follows Notification.Timeout.
func NewWatcher(n Notifier, timeoutMS int32, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{notifier: n, logger: logger, timeout: timeoutMS}
}

// Run consumes sub until ctx is done or the subscription ends.
func (w *Watcher) Run(ctx context.Context, sub *playback.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case e := <-sub.TrackChanged:
			w.TrackChanged(e)
		case e := <-sub.Error:
			w.ErrorRaised(e)
		}
	}
}

// TrackChanged shows the newly committed track.
func (w *Watcher) TrackChanged(e playback.TrackChange) {
	if e.Current == nil {
		return
	}
	id, err := w.notifier.Notify(Notification{
		Title:      e.Current.DisplayTitle(),
		Body:       nowPlayingBody(e.Current.Artist, e.Current.Album),
		Timeout:    w.timeout,
		ReplacesID: w.nowPlayingID,
		Urgency:    UrgencyLow,
	})
	if err != nil {
		w.logger.Debug("now playing notification", zap.Error(err))
		return
	}
	w.nowPlayingID = id
}

// ErrorRaised shows the error banner text; a cleared error closes it.
func (w *Watcher) ErrorRaised(e playback.ErrorEvent) {
	if e.Cleared {
		if w.errorID != 0 {
			_ = w.notifier.Close(w.errorID)
			w.errorID = 0
		}
		return
	}
	id, err := w.notifier.Notify(Notification{
		Title:      appName,
		Body:       e.Message,
		Icon:       "dialog-error",
		Timeout:    w.timeout,
		ReplacesID: w.errorID,
		Urgency:    UrgencyCritical,
	})
	if err != nil {
		w.logger.Debug("error notification", zap.Error(err))
		return
	}
	w.errorID = id
}

func nowPlayingBody(artist, album string) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{artist, album} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " · ")
}
