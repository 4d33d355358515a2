package player

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// writeOggPage appends a page holding packets. A packet longer than the
// segments left is not supported; tests keep packets small.
func writeOggPage(w *bytes.Buffer, granule int64, flags byte, seq uint32, packets [][]byte) {
	var segs []byte
	var body []byte
	for _, pkt := range packets {
		n := len(pkt)
		for n >= 255 {
			segs = append(segs, 255)
			n -= 255
		}
		segs = append(segs, byte(n))
		body = append(body, pkt...)
	}
	writeRawOggPage(w, granule, flags, seq, segs, body)
}

func writeRawOggPage(w *bytes.Buffer, granule int64, flags byte, seq uint32, segs, body []byte) {
	w.WriteString("OggS")
	w.WriteByte(0)
	w.WriteByte(flags)
	_ = binary.Write(w, binary.LittleEndian, granule)
	_ = binary.Write(w, binary.LittleEndian, uint32(1))
	_ = binary.Write(w, binary.LittleEndian, seq)
	_ = binary.Write(w, binary.LittleEndian, uint32(0))
	w.WriteByte(byte(len(segs)))
	w.Write(segs)
	w.Write(body)
}

func TestParseOggPageHeader(t *testing.T) {
	var buf bytes.Buffer
	writeOggPage(&buf, 48000, oggFlagContinue, 7, [][]byte{make([]byte, 300)})

	hdr, err := parseOggPageHeader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("parseOggPageHeader: %v", err)
	}
	if hdr.GranulePos != 48000 {
		t.Errorf("GranulePos = %d, want 48000", hdr.GranulePos)
	}
	if hdr.SequenceNum != 7 {
		t.Errorf("SequenceNum = %d, want 7", hdr.SequenceNum)
	}
	if hdr.HeaderType != oggFlagContinue {
		t.Errorf("HeaderType = %d, want %d", hdr.HeaderType, oggFlagContinue)
	}
	if hdr.bodySize() != 300 {
		t.Errorf("bodySize = %d, want 300", hdr.bodySize())
	}
}

func TestParseOggPageHeader_Invalid(t *testing.T) {
	bad := bytes.Repeat([]byte{0}, oggHeaderSize)
	copy(bad, "BadS")
	if _, err := parseOggPageHeader(bytes.NewReader(bad)); !errors.Is(err, errInvalidOggMagic) {
		t.Errorf("err = %v, want errInvalidOggMagic", err)
	}

	copy(bad, "OggS\x01")
	if _, err := parseOggPageHeader(bytes.NewReader(bad)); !errors.Is(err, errInvalidOggVersion) {
		t.Errorf("err = %v, want errInvalidOggVersion", err)
	}
}

func TestReadOggPageBody(t *testing.T) {
	tests := []struct {
		name        string
		segments    []uint8
		wantPackets []int
		wantPartial int
	}{
		{"two packets", []uint8{100, 50}, []int{100, 50}, 0},
		{"spanning segments", []uint8{255, 255, 100}, []int{610}, 0},
		{"exact multiple of 255", []uint8{255, 0}, []int{255}, 0},
		{"open at end", []uint8{100, 255, 255}, []int{100}, 510},
		{"only partial", []uint8{255}, nil, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hdr := &oggPageHeader{NumSegments: uint8(len(tt.segments)), SegmentTable: tt.segments} //nolint:gosec // test tables are short
			body := make([]byte, hdr.bodySize())

			packets, partial, err := readOggPageBody(bytes.NewReader(body), hdr)
			if err != nil {
				t.Fatalf("readOggPageBody: %v", err)
			}
			if len(packets) != len(tt.wantPackets) {
				t.Fatalf("got %d packets, want %d", len(packets), len(tt.wantPackets))
			}
			for i, want := range tt.wantPackets {
				if len(packets[i]) != want {
					t.Errorf("packet[%d] len = %d, want %d", i, len(packets[i]), want)
				}
			}
			if len(partial) != tt.wantPartial {
				t.Errorf("partial len = %d, want %d", len(partial), tt.wantPartial)
			}
		})
	}
}

// oggStream is three audio pages of 1000 samples each, the second packet
// of page one continuing onto page two.
func oggStream(t *testing.T) *OggReader {
	t.Helper()
	var buf bytes.Buffer

	writeOggPage(&buf, 1000, 0, 0, [][]byte{{1}})
	// Page two: 10 byte packet, then 255 bytes left open.
	writeRawOggPage(&buf, 2000, 0, 1, []byte{10, 255}, make([]byte, 265))
	// Page three closes the open packet with 5 more bytes.
	writeRawOggPage(&buf, 3000, oggFlagContinue, 2, []byte{5, 3}, make([]byte, 8))

	r, err := NewOggReader(bytes.NewReader(buf.Bytes()), 48000, 0)
	if err != nil {
		t.Fatalf("NewOggReader: %v", err)
	}
	if err := r.ScanLastGranule(); err != nil {
		t.Fatalf("ScanLastGranule: %v", err)
	}
	if err := r.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	return r
}

func TestOggReader_Duration(t *testing.T) {
	r := oggStream(t)
	if got := r.Duration(); got != 3000 {
		t.Errorf("Duration = %d, want 3000", got)
	}

	withSkip, err := NewOggReader(bytes.NewReader(nil), 48000, 312)
	if err != nil {
		t.Fatal(err)
	}
	withSkip.lastGranule = 48312
	if got := withSkip.Duration(); got != 48000 {
		t.Errorf("Duration with pre-skip = %d, want 48000", got)
	}
}

func TestOggReader_ReadPageJoinsSpanningPackets(t *testing.T) {
	r := oggStream(t)

	want := [][]int{{1}, {10}, {260, 3}}
	for i, sizes := range want {
		page, err := r.ReadPage()
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		if len(page.Packets) != len(sizes) {
			t.Fatalf("page %d: %d packets, want %d", i, len(page.Packets), len(sizes))
		}
		for j, size := range sizes {
			if len(page.Packets[j]) != size {
				t.Errorf("page %d packet %d len = %d, want %d", i, j, len(page.Packets[j]), size)
			}
		}
	}

	if _, err := r.ReadPage(); !errors.Is(err, io.EOF) {
		t.Errorf("after last page err = %v, want io.EOF", err)
	}
}

func TestOggReader_SeekToGranule(t *testing.T) {
	tests := []struct {
		target     int64
		wantResume int64
		wantFirst  int // packet count on the first page read after seeking
	}{
		{0, 0, 1},
		{999, 0, 1},
		{1000, 1000, 1},
		{2500, 2000, 1}, // continued packet dropped
		{9999, 3000, -1},
	}

	for _, tt := range tests {
		r := oggStream(t)
		resume, err := r.SeekToGranule(tt.target)
		if err != nil {
			t.Fatalf("SeekToGranule(%d): %v", tt.target, err)
		}
		if resume != tt.wantResume {
			t.Errorf("SeekToGranule(%d) resume = %d, want %d", tt.target, resume, tt.wantResume)
		}

		page, err := r.ReadPage()
		if tt.wantFirst < 0 {
			if !errors.Is(err, io.EOF) {
				t.Errorf("SeekToGranule(%d): expected EOF, got %v", tt.target, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ReadPage after seek to %d: %v", tt.target, err)
		}
		if len(page.Packets) != tt.wantFirst {
			t.Errorf("seek to %d: first page has %d packets, want %d", tt.target, len(page.Packets), tt.wantFirst)
		}
	}
}

func TestNewOggReader_InvalidSampleRate(t *testing.T) {
	if _, err := NewOggReader(bytes.NewReader(nil), 0, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}
