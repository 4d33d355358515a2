package state

import (
	"database/sql"
	"errors"
)

// DefaultVolume is reported when nothing has been saved yet.
const DefaultVolume = 70

// VolumeState represents the saved volume state.
type VolumeState struct {
	Volume int // 0-100
	Muted  bool
}

// GetVolume returns the saved volume state.
func (m *Manager) GetVolume() (*VolumeState, error) {
	var volume int
	var muted bool

	row := m.db.QueryRow(`SELECT volume, muted FROM player_state WHERE id = 1`)
	err := row.Scan(&volume, &muted)
	if errors.Is(err, sql.ErrNoRows) {
		return &VolumeState{Volume: DefaultVolume}, nil
	}
	if err != nil {
		return nil, err
	}

	return &VolumeState{Volume: volume, Muted: muted}, nil
}

func saveVolume(db *sql.DB, v VolumeState) error {
	_, err := db.Exec(`
		INSERT INTO player_state (id, volume, muted)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			muted = excluded.muted
	`, v.Volume, v.Muted)
	return err
}
