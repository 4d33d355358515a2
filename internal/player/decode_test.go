package player

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavestream/internal/resource"
)

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name        string
		header      []byte
		contentType string
		want        audioFormat
	}{
		{"flac magic", []byte("fLaC\x00\x00"), "", formatFLAC},
		{"ogg magic", []byte("OggS\x00\x02"), "audio/mpeg", formatOgg},
		{"wav magic", []byte("RIFF\x24\x00\x00\x00WAVE"), "", formatWAV},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, "", formatMP3},
		{"magic wins over content type", []byte("fLaC"), "audio/mpeg", formatFLAC},
		{"content type mpeg", []byte("????"), "audio/mpeg", formatMP3},
		{"content type with params", []byte("????"), "audio/ogg; codecs=opus", formatOgg},
		{"content type flac", nil, "audio/x-flac", formatFLAC},
		{"content type wav", nil, "audio/wave", formatWAV},
		{"unknown", []byte("<html>"), "text/html", formatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sniffFormat(tt.header, tt.contentType); got != tt.want {
				t.Errorf("sniffFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSkipID3v2(t *testing.T) {
	t.Run("no tag", func(t *testing.T) {
		r := bytes.NewReader([]byte("fLaC rest of stream"))
		start, err := skipID3v2(r)
		require.NoError(t, err)
		assert.Equal(t, int64(0), start)
		pos, _ := r.Seek(0, io.SeekCurrent)
		assert.Equal(t, int64(0), pos)
	})

	t.Run("tag skipped", func(t *testing.T) {
		// 0x01 0x00 syncsafe = 128 bytes of tag body.
		data := append([]byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0x01, 0x00}, make([]byte, 128)...)
		data = append(data, []byte("fLaC")...)
		r := bytes.NewReader(data)

		start, err := skipID3v2(r)
		require.NoError(t, err)
		assert.Equal(t, int64(138), start)

		magic := make([]byte, 4)
		_, err = io.ReadFull(r, magic)
		require.NoError(t, err)
		assert.Equal(t, "fLaC", string(magic))
	})

	t.Run("short input", func(t *testing.T) {
		r := bytes.NewReader([]byte("ID3"))
		start, err := skipID3v2(r)
		require.NoError(t, err)
		assert.Equal(t, int64(0), start)
	})
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	store := resource.NewStore()
	res, err := store.Create([]byte("plain text, not audio"), "text/plain")
	require.NoError(t, err)
	defer res.Release()

	r, err := store.Open(res.Handle())
	require.NoError(t, err)

	_, _, _, err = decode(r, r.ContentType())
	assert.True(t, errors.Is(err, errUnsupportedFormat))
	assert.Equal(t, ErrFormatUnsupported, classify(err).Kind)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"released", resource.ErrReleased, ErrAborted},
		{"unknown handle", resource.ErrUnknownHandle, ErrAborted},
		{"truncated", io.ErrUnexpectedEOF, ErrNetwork},
		{"unsupported", errUnsupportedFormat, ErrFormatUnsupported},
		{"other", errors.New("bad frame"), ErrDecode},
		{"already classified", &MediaError{Kind: ErrUnknown}, ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err).Kind; got != tt.want {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}
	assert.Nil(t, classify(nil))
}
