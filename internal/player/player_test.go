package player

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavestream/internal/resource"
)

// makeWAV builds a silent 16-bit stereo PCM file.
func makeWAV(sampleRate, frames int) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	dataSize := uint32(frames * 4) //nolint:gosec // test sizes are small

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, le, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, le, uint32(16))
	_ = binary.Write(&buf, le, uint16(1)) // PCM
	_ = binary.Write(&buf, le, uint16(2))
	_ = binary.Write(&buf, le, uint32(sampleRate)) //nolint:gosec // test values
	_ = binary.Write(&buf, le, uint32(sampleRate*4)) //nolint:gosec // test values
	_ = binary.Write(&buf, le, uint16(4))
	_ = binary.Write(&buf, le, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, le, dataSize)
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

func drain(ch <-chan Event) []Event {
	var evs []Event
	for {
		select {
		case ev := <-ch:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func kinds(evs []Event) []EventKind {
	out := make([]EventKind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

func TestPlayer_LoadWAV(t *testing.T) {
	store := resource.NewStore()
	res, err := store.Create(makeWAV(8000, 8000), "audio/wav")
	require.NoError(t, err)
	defer res.Release()

	p := New(store)
	defer p.Close()

	require.NoError(t, p.Load(res.Handle()))

	evs := drain(p.Events())
	assert.Equal(t, []EventKind{LoadStart, MetadataReady, CanPlay}, kinds(evs))
	assert.Equal(t, time.Second, evs[1].Duration)
	require.NotNil(t, evs[1].Tags)
	assert.Equal(t, "WAV", evs[1].Tags.Format)
	assert.Equal(t, 8000, evs[1].Tags.SampleRate)
	assert.Equal(t, 16, evs[1].Tags.BitDepth)
	for _, ev := range evs {
		assert.Equal(t, res.Handle(), ev.Handle)
	}
	assert.Equal(t, time.Second, p.Duration())
}

func TestPlayer_SeekClamps(t *testing.T) {
	store := resource.NewStore()
	res, err := store.Create(makeWAV(8000, 8000), "audio/wav")
	require.NoError(t, err)
	defer res.Release()

	p := New(store)
	defer p.Close()
	require.NoError(t, p.Load(res.Handle()))

	tests := []struct {
		name string
		to   time.Duration
		want time.Duration
	}{
		{"negative", -5 * time.Second, 0},
		{"inside", 500 * time.Millisecond, 500 * time.Millisecond},
		{"past end", 10 * time.Second, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Seek(tt.to))
			assert.Equal(t, tt.want, p.Position())
		})
	}
}

func TestPlayer_SeekWithoutSource(t *testing.T) {
	p := New(resource.NewStore())
	defer p.Close()
	assert.Equal(t, time.Duration(0), p.Seek(time.Second))
	assert.Equal(t, time.Duration(0), p.Duration())
}

func TestPlayer_LoadErrors(t *testing.T) {
	store := resource.NewStore()

	garbage, err := store.Create([]byte("definitely not audio"), "text/html")
	require.NoError(t, err)
	defer garbage.Release()

	released, err := store.Create(makeWAV(8000, 10), "audio/wav")
	require.NoError(t, err)
	require.NoError(t, released.Release())

	tests := []struct {
		name   string
		handle resource.Handle
		want   ErrorKind
	}{
		{"unsupported", garbage.Handle(), ErrFormatUnsupported},
		{"released", released.Handle(), ErrAborted},
		{"unknown handle", "blob:nope", ErrAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(store)
			defer p.Close()

			err := p.Load(tt.handle)

			var me *MediaError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.want, me.Kind)

			evs := drain(p.Events())
			require.NotEmpty(t, evs)
			last := evs[len(evs)-1]
			assert.Equal(t, ErrorEvent, last.Kind)
			assert.Equal(t, tt.handle, last.Handle)
			assert.Equal(t, tt.want, last.Err.Kind)
		})
	}
}

func TestPlayer_PlayWithoutSource(t *testing.T) {
	p := New(resource.NewStore())
	defer p.Close()
	assert.ErrorIs(t, p.Play(context.Background()), ErrNotLoaded)
}

func TestPlayer_LoadAfterClose(t *testing.T) {
	p := New(resource.NewStore())
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.ErrorIs(t, p.Load("blob:x"), ErrClosed)
	_, ok := <-p.Events()
	assert.False(t, ok)
}

func TestPlayer_UnloadDropsSource(t *testing.T) {
	store := resource.NewStore()
	res, err := store.Create(makeWAV(8000, 800), "audio/wav")
	require.NoError(t, err)
	defer res.Release()

	p := New(store)
	defer p.Close()
	require.NoError(t, p.Load(res.Handle()))

	p.Unload()

	assert.Equal(t, time.Duration(0), p.Duration())
	assert.ErrorIs(t, p.Play(context.Background()), ErrNotLoaded)
}

func TestLevelToVolume(t *testing.T) {
	tests := []struct {
		level int
		want  float64
	}{
		{-5, -10},
		{0, -10},
		{25, -2},
		{50, -1},
		{100, 0},
		{150, 0},
	}
	for _, tt := range tests {
		if got := levelToVolume(tt.level); got != tt.want {
			t.Errorf("levelToVolume(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 0, ClampVolume(-1))
	assert.Equal(t, 70, ClampVolume(70))
	assert.Equal(t, 100, ClampVolume(101))
}
