package resource

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

func TestStore_Create_IssuesUniqueHandles(t *testing.T) {
	s := NewStore()

	a, err := s.Create([]byte("aaa"), "audio/mpeg")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, err := s.Create([]byte("bbb"), "audio/mpeg")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if a.Handle() == b.Handle() {
		t.Errorf("handles should differ, both %q", a.Handle())
	}
	if !strings.HasPrefix(string(a.Handle()), HandlePrefix) {
		t.Errorf("Handle() = %q, want %s prefix", a.Handle(), HandlePrefix)
	}
	if s.Live() != 2 {
		t.Errorf("Live() = %d, want 2", s.Live())
	}
}

func TestStore_Create_RejectsEmpty(t *testing.T) {
	s := NewStore()

	_, err := s.Create(nil, "audio/mpeg")

	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Create(nil) error = %v, want ErrEmpty", err)
	}
	if s.Live() != 0 {
		t.Errorf("Live() = %d, want 0", s.Live())
	}
}

func TestStore_Open_ResolvesPayload(t *testing.T) {
	s := NewStore()
	r, _ := s.Create([]byte("payload"), "audio/flac")

	rd, err := s.Open(r.Handle())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rd.Close()

	got, _ := io.ReadAll(rd)
	if string(got) != "payload" {
		t.Errorf("read %q, want payload", got)
	}
	if rd.ContentType() != "audio/flac" {
		t.Errorf("ContentType() = %q, want audio/flac", rd.ContentType())
	}
}

func TestResource_Release_InvalidatesHandle(t *testing.T) {
	s := NewStore()
	r, _ := s.Create([]byte("payload"), "audio/mpeg")

	if err := r.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	if _, err := s.Open(r.Handle()); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Open() after release error = %v, want ErrUnknownHandle", err)
	}
	if r.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after release", r.Size())
	}
	if s.Live() != 0 {
		t.Errorf("Live() = %d, want 0", s.Live())
	}
}

func TestResource_Release_Twice(t *testing.T) {
	s := NewStore()
	r, _ := s.Create([]byte("payload"), "audio/mpeg")

	_ = r.Release()
	err := r.Release()

	if !errors.Is(err, ErrReleased) {
		t.Errorf("second Release() error = %v, want ErrReleased", err)
	}
	if st := s.Stats(); st.Released != 1 {
		t.Errorf("Stats().Released = %d, want 1", st.Released)
	}
}

func TestReader_SurvivesRelease(t *testing.T) {
	s := NewStore()
	r, _ := s.Create([]byte("payload"), "audio/mpeg")
	rd, _ := s.Open(r.Handle())

	_ = r.Release()

	got, _ := io.ReadAll(rd)
	if string(got) != "payload" {
		t.Errorf("read %q after release, want payload", got)
	}
}

func TestStore_Stats(t *testing.T) {
	s := NewStore()
	a, _ := s.Create([]byte("12345"), "")
	_, _ = s.Create([]byte("123"), "")
	_ = a.Release()

	st := s.Stats()

	if st.Created != 2 || st.Released != 1 || st.Live != 1 {
		t.Errorf("Stats() = %+v, want Created=2 Released=1 Live=1", st)
	}
	if st.LiveSize != 3 {
		t.Errorf("Stats().LiveSize = %d, want 3", st.LiveSize)
	}
}

func TestResource_ConcurrentRelease(t *testing.T) {
	s := NewStore()
	r, _ := s.Create([]byte("payload"), "")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Release() == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("%d releases succeeded, want exactly 1", succeeded)
	}
}
