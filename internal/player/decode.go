package player

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/wav"
)

type audioFormat int

const (
	formatUnknown audioFormat = iota
	formatMP3
	formatFLAC
	formatOgg
	formatWAV
)

func (f audioFormat) String() string {
	switch f {
	case formatMP3:
		return "MP3"
	case formatFLAC:
		return "FLAC"
	case formatOgg:
		return "OGG"
	case formatWAV:
		return "WAV"
	default:
		return "unknown"
	}
}

var errUnsupportedFormat = errors.New("unsupported audio format")

const sniffLen = 12

// sniffFormat detects the container from magic bytes, falling back to the
// declared content type.
func sniffFormat(header []byte, contentType string) audioFormat {
	switch {
	case bytes.HasPrefix(header, []byte("fLaC")):
		return formatFLAC
	case bytes.HasPrefix(header, []byte("OggS")):
		return formatOgg
	case len(header) >= 12 && string(header[0:4]) == "RIFF" && string(header[8:12]) == "WAVE":
		return formatWAV
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return formatMP3
	}

	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "audio/mpeg", "audio/mp3":
		return formatMP3
	case "audio/flac", "audio/x-flac":
		return formatFLAC
	case "audio/ogg", "audio/opus", "audio/vorbis":
		return formatOgg
	case "audio/wav", "audio/x-wav", "audio/wave":
		return formatWAV
	}
	return formatUnknown
}

// decode picks a decoder for r. ID3v2 tags are skipped before sniffing:
// MP3 files carry them, and some taggers prepend them to FLAC too.
func decode(r io.ReadSeekCloser, contentType string) (beep.StreamSeekCloser, beep.Format, string, error) {
	start, err := skipID3v2(r)
	if err != nil {
		return nil, beep.Format{}, "", err
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, beep.Format{}, "", err
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, beep.Format{}, "", err
	}

	// An ID3 tag with no recognised magic after it is MP3.
	f := sniffFormat(header[:n], contentType)
	if f == formatUnknown && start > 0 {
		f = formatMP3
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		codec    = f.String()
	)
	switch f {
	case formatMP3:
		// go-mp3 skips tags itself and expects the stream from offset 0.
		if _, err = r.Seek(0, io.SeekStart); err == nil {
			streamer, format, err = decodeGoMP3(r)
		}
	case formatFLAC:
		streamer, format, err = flac.Decode(r)
	case formatWAV:
		streamer, format, err = wav.Decode(r)
	case formatOgg:
		streamer, format, codec, err = decodeOgg(r)
	default:
		return nil, beep.Format{}, "", fmt.Errorf("%w (content type %q)", errUnsupportedFormat, contentType)
	}
	if err != nil {
		return nil, beep.Format{}, "", fmt.Errorf("decode %s: %w", f, err)
	}
	return streamer, format, codec, nil
}

// skipID3v2 skips an ID3v2 tag if present at the beginning of r and returns
// the offset audio data starts at.
func skipID3v2(r io.ReadSeeker) (int64, error) {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	if n < 10 || string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return 0, err
	}

	// Syncsafe integer: 7 bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	start := 10 + size
	if header[5]&0x10 != 0 {
		start += 10 // footer
	}
	_, err = r.Seek(start, io.SeekStart)
	return start, err
}
