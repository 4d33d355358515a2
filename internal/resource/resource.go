// Package resource holds fetched audio payloads behind locally resolvable
// handles.
//
// A Resource is created once per fetch and owned by exactly one holder, which
// must call Release exactly once. Until released, the handle resolves through
// the Store that created it; afterwards it no longer resolves.
package resource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// HandlePrefix is the scheme prefix of every handle.
const HandlePrefix = "blob:"

var (
	// ErrReleased is returned when releasing a resource twice.
	ErrReleased = errors.New("resource already released")
	// ErrUnknownHandle is returned when a handle does not resolve, either
	// because it was never issued by the store or because it was released.
	ErrUnknownHandle = errors.New("unknown resource handle")
	// ErrEmpty is returned when creating a resource without data.
	ErrEmpty = errors.New("empty resource")
)

// Handle is a locally resolvable reference to a fetched payload.
type Handle string

// Resource is an exclusively owned audio payload.
type Resource struct {
	handle      Handle
	contentType string
	data        []byte
	store       *Store
	released    atomic.Bool
}

// Handle returns the handle under which the payload resolves.
func (r *Resource) Handle() Handle { return r.handle }

// ContentType returns the content type reported when the payload was fetched.
func (r *Resource) ContentType() string { return r.contentType }

// Size returns the payload size in bytes, 0 once released.
func (r *Resource) Size() int {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.data)
}

// Release invalidates the handle and drops the payload. Calling it twice
// returns ErrReleased and has no other effect.
func (r *Resource) Release() error {
	if !r.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	r.store.remove(r)
	return nil
}

// Stats counts resource allocations over the lifetime of a Store.
type Stats struct {
	Created  int64
	Released int64
	Live     int
	LiveSize int64
}

// Store issues handles and resolves them to payloads.
type Store struct {
	mu      sync.RWMutex
	live    map[Handle]*Resource
	created int64
	freed   int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{live: make(map[Handle]*Resource)}
}

// Create wraps data in a new resource with a fresh handle. The store keeps
// its own reference to data; the caller must not modify it afterwards.
func (s *Store) Create(data []byte, contentType string) (*Resource, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	r := &Resource{
		handle:      Handle(HandlePrefix + uuid.NewString()),
		contentType: contentType,
		data:        data,
		store:       s,
	}

	s.mu.Lock()
	s.live[r.handle] = r
	s.created++
	s.mu.Unlock()

	return r, nil
}

// Open resolves a handle to a reader over its payload.
func (s *Store) Open(h Handle) (*Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.live[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	return &Reader{Reader: bytes.NewReader(r.data), contentType: r.contentType}, nil
}

// Live returns the number of resources that have not been released.
func (s *Store) Live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.live)
}

// Stats returns allocation counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Created: s.created, Released: s.freed, Live: len(s.live)}
	for _, r := range s.live {
		st.LiveSize += int64(len(r.data))
	}
	return st
}

func (s *Store) remove(r *Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[r.handle]; ok {
		delete(s.live, r.handle)
		s.freed++
	}
	r.data = nil
}

// Reader reads a resolved payload. Releasing the resource does not affect a
// Reader that was already opened; it keeps the bytes it was given.
type Reader struct {
	*bytes.Reader
	contentType string
}

// ContentType returns the payload content type.
func (r *Reader) ContentType() string { return r.contentType }

// Close implements io.Closer.
func (r *Reader) Close() error { return nil }

var _ io.ReadSeekCloser = (*Reader)(nil)
