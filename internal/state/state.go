// Package state persists client-local player settings between runs.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "wavestream"
	dbFileName   = "wavestream.db"
	saveDebounce = 500 * time.Millisecond
)

type Manager struct {
	db     *sql.DB
	logger *zap.Logger

	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *VolumeState
}

// Open opens the database under the XDG data directory.
func Open(logger *zap.Logger) (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath, logger)
}

// OpenPath opens (creating if needed) the database at path.
func OpenPath(path string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Manager{db: db, logger: logger}, nil
}

// Close flushes a pending volume save and closes the database.
func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	if pending != nil {
		if err := saveVolume(m.db, *pending); err != nil {
			m.logger.Warn("flush volume", zap.Error(err))
		}
	}

	return m.db.Close()
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

// SaveVolume records the volume. Writes are coalesced; only the last value
// within the debounce window reaches the database.
func (m *Manager) SaveVolume(v VolumeState) {
	v.Volume = min(max(v.Volume, 0), 100)

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &v

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, m.flushVolume)
}

func (m *Manager) flushVolume() {
	m.saveMu.Lock()
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	if pending == nil {
		return
	}
	if err := saveVolume(m.db, *pending); err != nil {
		m.logger.Warn("save volume", zap.Error(err))
	}
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
