package state

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/llehouerou/wavestream/internal/playlist"
)

// QueueState represents the saved queue.
type QueueState struct {
	CurrentIndex int
	Tracks       []playlist.Track
}

// GetQueue returns the saved queue. An empty queue has CurrentIndex -1.
func (m *Manager) GetQueue(ctx context.Context) (*QueueState, error) {
	var currentIndex int
	row := m.db.QueryRowContext(ctx, `SELECT current_index FROM queue_state WHERE id = 1`)
	err := row.Scan(&currentIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return &QueueState{CurrentIndex: -1}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT track_id, title, artist, album, track_number, cover_url, duration_ms, locator
		FROM queue_tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []playlist.Track
	for rows.Next() {
		var t playlist.Track
		var artist, album, cover, locator sql.NullString
		var trackNumber, durationMS sql.NullInt64

		if err := rows.Scan(&t.ID, &t.Title, &artist, &album, &trackNumber,
			&cover, &durationMS, &locator); err != nil {
			return nil, err
		}

		t.Artist = nullStringValue(artist)
		t.Album = nullStringValue(album)
		t.CoverURL = nullStringValue(cover)
		t.Locator = nullStringValue(locator)
		t.TrackNumber = int(nullInt64Value(trackNumber))
		t.Duration = time.Duration(nullInt64Value(durationMS)) * time.Millisecond
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	currentIndex = min(max(currentIndex, 0), len(tracks)-1)

	return &QueueState{CurrentIndex: currentIndex, Tracks: tracks}, nil
}

// SaveQueue replaces the saved queue.
func (m *Manager) SaveQueue(ctx context.Context, qs QueueState) error {
	return withTx(ctx, m.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM queue_tracks`); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO queue_state (id, current_index)
			VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET current_index = excluded.current_index
		`, qs.CurrentIndex)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO queue_tracks
				(position, track_id, title, artist, album, track_number, cover_url, duration_ms, locator)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range qs.Tracks {
			_, err = stmt.ExecContext(ctx, i, t.ID, t.Title,
				nullString(t.Artist), nullString(t.Album), nullInt(int64(t.TrackNumber)),
				nullString(t.CoverURL), nullInt(t.Duration.Milliseconds()), nullString(t.Locator))
			if err != nil {
				return err
			}
		}
		return nil
	})
}
