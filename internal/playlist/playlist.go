// Package playlist holds the track model and the cyclic playing queue.
package playlist

import (
	"strings"
	"time"
)

// Track is a playable catalog item. Tracks are values: holders copy them
// and never mutate a shared one.
type Track struct {
	ID          string // server-assigned, opaque
	Title       string
	Artist      string // display name, several artists joined
	Album       string
	TrackNumber int
	CoverURL    string        // empty when the catalog has no cover
	Duration    time.Duration // 0 until known
	Locator     string        // audio locator; empty means derive from ID
}

// HasAbsoluteLocator reports whether Locator is a full http(s) URL that can be
// fetched as is.
func (t Track) HasAbsoluteLocator() bool {
	return strings.HasPrefix(t.Locator, "http://") || strings.HasPrefix(t.Locator, "https://")
}

// DisplayTitle returns the title, falling back to the ID.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.ID
}
