package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/wavestream/internal/app"
	"github.com/llehouerou/wavestream/internal/catalog"
	"github.com/llehouerou/wavestream/internal/config"
	"github.com/llehouerou/wavestream/internal/errmsg"
	"github.com/llehouerou/wavestream/internal/metrics"
	"github.com/llehouerou/wavestream/internal/mpris"
	"github.com/llehouerou/wavestream/internal/notify"
	"github.com/llehouerou/wavestream/internal/playback"
	"github.com/llehouerou/wavestream/internal/player"
	"github.com/llehouerou/wavestream/internal/resource"
	"github.com/llehouerou/wavestream/internal/state"
	"github.com/llehouerou/wavestream/internal/stderr"
	"github.com/llehouerou/wavestream/internal/stream"
)

const notifyTimeoutMS = 4000

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run starts the player. Arguments are track IDs to queue and play.
func run(trackIDs []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpConfigLoad, err))
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}
	defer func() { _ = logger.Sync() }()

	if capture, err := stderr.Start(logger.Named("stderr")); err != nil {
		logger.Warn("stderr capture unavailable", zap.Error(err))
	} else {
		defer capture.Stop()
	}

	store := resource.NewStore()
	m := metrics.New()
	m.WatchStore(store)

	fetcher := stream.New(cfg.Streaming.BaseURL, store,
		stream.WithTimeout(cfg.Streaming.Timeout),
		stream.WithMaxBytes(cfg.Streaming.MaxBytes),
		stream.WithLogger(logger.Named("stream")),
		stream.WithMetrics(m),
	)

	cat, err := catalog.New(cfg.Catalog.BaseURL,
		catalog.WithCacheSize(cfg.Catalog.CacheSize),
		catalog.WithLogger(logger.Named("catalog")),
	)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}

	// State is optional: without it volume and queue are not remembered.
	var st state.Interface
	if mgr, err := state.Open(logger.Named("state")); err != nil {
		logger.Warn("state unavailable", zap.Error(err))
	} else {
		st = mgr
		defer func() { _ = mgr.Close() }()
	}

	volume, muted := cfg.Player.Volume, false
	if st != nil {
		if v, err := st.GetVolume(); err == nil {
			volume, muted = v.Volume, v.Muted
		}
	}

	engine := player.New(store, player.WithLogger(logger.Named("player")))
	defer func() { _ = engine.Close() }()

	ctrl := playback.New(fetcher, engine, tokenSource(cfg),
		playback.WithLogger(logger.Named("playback")),
		playback.WithMetrics(m),
		playback.WithErrorDisplay(cfg.Player.ErrorDisplay),
		playback.WithMetadataTimeout(cfg.Player.MetadataTimeout),
		playback.WithVolume(volume, muted),
	)
	defer func() { _ = ctrl.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := loadInitialQueue(ctx, ctrl, cat, st, trackIDs); err != nil {
		return err
	}

	if adapter, err := mpris.New(ctrl, logger.Named("mpris")); err != nil {
		logger.Warn("mpris unavailable", zap.Error(err))
	} else {
		defer func() { _ = adapter.Close() }()
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.HasMetrics() {
		srv := metrics.NewServer(cfg.Metrics.Listen, m, logger.Named("metrics"))
		g.Go(func() error { return srv.Start(gctx) })
	}

	notifier, _ := notify.New()
	watcher := notify.NewWatcher(notifier, notifyTimeoutMS, logger.Named("notify"))
	sub := ctrl.Subscribe()
	g.Go(func() error {
		watcher.Run(gctx, sub)
		return nil
	})

	model := app.New(app.Deps{
		Playback: ctrl,
		Catalog:  cat,
		State:    st,
		Logger:   logger.Named("app"),
	})
	g.Go(func() error {
		defer cancel()
		_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
		return err
	})

	return g.Wait()
}

// loadInitialQueue plays the given IDs, or restores the saved queue when
// none are given.
func loadInitialQueue(ctx context.Context, ctrl *playback.Controller, cat *catalog.Client, st state.Interface, ids []string) error {
	if len(ids) > 0 {
		tracks, err := cat.ResolveAll(ctx, ids)
		if err != nil {
			return errors.New(errmsg.FormatDescribed(errmsg.OpCatalogLookup, err))
		}
		// Load failures surface in the UI banner.
		_ = ctrl.PlayQueue(tracks, 0)
		return nil
	}

	if st == nil {
		return nil
	}
	saved, err := st.GetQueue(ctx)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpStateLoad, err))
	}
	if len(saved.Tracks) > 0 {
		if err := ctrl.Enqueue(saved.Tracks...); err != nil {
			return errors.New(errmsg.Format(errmsg.OpQueueLoad, err))
		}
	}
	return nil
}

// tokenSource prefers the token file and falls back to a static token when
// the file is missing or empty.
func tokenSource(cfg *config.Config) playback.TokenSource {
	file := playback.FileToken(cfg.Auth.TokenFile)
	if !cfg.HasStaticToken() {
		return file
	}
	static := playback.StaticToken(cfg.Auth.Token)
	if cfg.Auth.TokenFile == "" {
		return static
	}
	return playback.TokenFunc(func(ctx context.Context) (string, error) {
		tok, err := file.Token(ctx)
		if err != nil || tok != "" {
			return tok, err
		}
		return static.Token(ctx)
	})
}

// newLogger writes JSON logs to the configured file; the terminal belongs
// to the UI.
func newLogger(lc config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lc.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.OutputPaths = []string{lc.File}
	zc.ErrorOutputPaths = []string{lc.File}
	return zc.Build()
}
