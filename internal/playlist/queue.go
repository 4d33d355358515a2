package playlist

import "slices"

// PlayingQueue is an ordered track list with a playback position.
//
// The queue is cyclic: Next wraps from the last track to the first and
// Previous wraps from the first to the last. The index is -1 exactly when the
// queue is empty; every method leaves tracks and index consistent.
type PlayingQueue struct {
	tracks []Track
	index  int
}

// NewQueue creates an empty queue.
func NewQueue() *PlayingQueue {
	return &PlayingQueue{index: -1}
}

// Set replaces the queue with a copy of tracks and positions it at start,
// clamped into range. Returns the current track, or nil for an empty list.
func (q *PlayingQueue) Set(tracks []Track, start int) *Track {
	q.tracks = slices.Clone(tracks)
	q.index = -1
	if len(q.tracks) > 0 {
		q.index = min(max(start, 0), len(q.tracks)-1)
	}
	return q.Current()
}

// Current returns a copy of the track at the current position, or nil.
func (q *PlayingQueue) Current() *Track {
	return q.at(q.index)
}

func (q *PlayingQueue) at(i int) *Track {
	if i < 0 || i >= len(q.tracks) {
		return nil
	}
	t := q.tracks[i]
	return &t
}

// CurrentIndex returns the current position, -1 when empty.
func (q *PlayingQueue) CurrentIndex() int { return q.index }

// Next advances one track, wrapping to the first after the last.
func (q *PlayingQueue) Next() *Track {
	return q.step(1)
}

// Previous moves back one track, wrapping to the last before the first.
func (q *PlayingQueue) Previous() *Track {
	return q.step(-1)
}

func (q *PlayingQueue) step(delta int) *Track {
	n := len(q.tracks)
	if n == 0 {
		return nil
	}
	q.index = ((q.index+delta)%n + n) % n
	return q.Current()
}

// JumpTo moves to index. An out of range index leaves the position alone
// and returns nil.
func (q *PlayingQueue) JumpTo(index int) *Track {
	t := q.at(index)
	if t != nil {
		q.index = index
	}
	return t
}

// IndexOf returns the position of the first track with the given ID, or -1.
func (q *PlayingQueue) IndexOf(id string) int {
	return slices.IndexFunc(q.tracks, func(t Track) bool { return t.ID == id })
}

// Add appends tracks without moving the position. Adding to an empty queue
// positions it on the first added track.
func (q *PlayingQueue) Add(tracks ...Track) {
	q.tracks = append(q.tracks, tracks...)
	if q.index < 0 && len(q.tracks) > 0 {
		q.index = 0
	}
}

// AddAndPlay appends tracks and moves to the first of them.
func (q *PlayingQueue) AddAndPlay(tracks ...Track) *Track {
	if len(tracks) == 0 {
		return nil
	}
	first := len(q.tracks)
	q.tracks = append(q.tracks, tracks...)
	q.index = first
	return q.Current()
}

// RemoveAt deletes the track at index. The position stays on the same track
// when possible; removing the current track moves to the one that followed
// it, or to the new last track.
func (q *PlayingQueue) RemoveAt(index int) bool {
	if index < 0 || index >= len(q.tracks) {
		return false
	}
	q.tracks = slices.Delete(q.tracks, index, index+1)
	switch {
	case len(q.tracks) == 0:
		q.index = -1
	case index < q.index:
		q.index--
	default:
		q.index = min(q.index, len(q.tracks)-1)
	}
	return true
}

// Clear empties the queue.
func (q *PlayingQueue) Clear() {
	q.tracks = nil
	q.index = -1
}

// Tracks returns a copy of the queued tracks.
func (q *PlayingQueue) Tracks() []Track { return slices.Clone(q.tracks) }

// Len returns the number of queued tracks.
func (q *PlayingQueue) Len() int { return len(q.tracks) }

// IsEmpty reports whether the queue has no tracks.
func (q *PlayingQueue) IsEmpty() bool { return len(q.tracks) == 0 }
