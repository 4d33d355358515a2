package player

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func opusHead(version, channels byte, preSkip uint16) []byte {
	return []byte{
		'O', 'p', 'u', 's', 'H', 'e', 'a', 'd',
		version, channels,
		byte(preSkip), byte(preSkip >> 8),
		0x44, 0xAC, 0x00, 0x00, // input rate 44100, informational
		0x00, 0x00,
		0x00,
	}
}

// packetsOf returns a next func over fixed packets.
func packetsOf(pkts ...[]byte) func() ([]byte, error) {
	return func() ([]byte, error) {
		if len(pkts) == 0 {
			return nil, io.EOF
		}
		p := pkts[0]
		pkts = pkts[1:]
		return p, nil
	}
}

func TestOpenOggCodec_Opus(t *testing.T) {
	layout, dec, err := openOggCodec(packetsOf(opusHead(1, 2, 312)))
	if err != nil {
		t.Fatalf("openOggCodec: %v", err)
	}
	if _, ok := dec.(opusDecoder); !ok {
		t.Fatalf("decoder = %T, want opusDecoder", dec)
	}
	want := oggLayout{
		codec: "OPUS", rate: 48000, channels: 2, preSkip: 312,
		maxFrame: 5760, preRoll: 3840,
	}
	if layout != want {
		t.Errorf("layout = %+v, want %+v", layout, want)
	}
}

func TestOpenOggCodec_Rejects(t *testing.T) {
	badVorbis := append([]byte{0x01, 'v', 'o', 'r', 'b', 'i', 's', 1, 0, 0, 0, 2}, make([]byte, 20)...)

	tests := []struct {
		name   string
		packet []byte
	}{
		{"opus version 2", opusHead(2, 2, 0)},
		{"opus truncated", opusHead(1, 2, 0)[:18]},
		{"vorbis version 1", badVorbis},
		{"vorbis truncated", []byte{0x01, 'v', 'o', 'r', 'b', 'i', 's', 0, 0}},
		{"flac in ogg", []byte{0x7F, 'F', 'L', 'A', 'C'}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := openOggCodec(packetsOf(tt.packet)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOpenOggCodec_Unknown(t *testing.T) {
	_, _, err := openOggCodec(packetsOf([]byte("Speex   ")))
	if !errors.Is(err, errUnknownOggCodec) {
		t.Errorf("err = %v, want errUnknownOggCodec", err)
	}
}

func TestOpenOggCodec_NoPackets(t *testing.T) {
	_, _, err := openOggCodec(packetsOf())
	if !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestHeaderPackets_JoinsAcrossPages(t *testing.T) {
	long := bytes.Repeat([]byte{0xAB}, 300)

	var buf bytes.Buffer
	writeOggPage(&buf, 0, 0x02, 0, [][]byte{opusHead(1, 1, 0)})
	// 300 bytes split 255 | 45 over two pages, followed by a short packet.
	writeRawOggPage(&buf, 0, 0, 1, []byte{255}, long[:255])
	writeRawOggPage(&buf, 0, oggFlagContinue, 2, []byte{45, 3}, append(long[255:], 'x', 'y', 'z'))

	hp := &headerPackets{r: bytes.NewReader(buf.Bytes())}
	want := [][]byte{opusHead(1, 1, 0), long, []byte("xyz")}
	for i, w := range want {
		got, err := hp.next()
		if err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
		if !bytes.Equal(got, w) {
			t.Errorf("packet %d: got %d bytes, want %d", i, len(got), len(w))
		}
	}
	if _, err := hp.next(); !errors.Is(err, io.EOF) {
		t.Errorf("after last packet err = %v, want io.EOF", err)
	}
}
