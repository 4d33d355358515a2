package player

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	errInvalidOggMagic   = errors.New("ogg: invalid capture pattern")
	errInvalidOggVersion = errors.New("ogg: unsupported version")
	errNoOggGranule      = errors.New("ogg: no page with a granule position")
)

const (
	oggHeaderSize   = 27
	oggFlagContinue = 0x01
	oggScanWindow   = 64 << 10
	oggNoGranule    = -1
)

// oggPageHeader represents the header of an Ogg page.
type oggPageHeader struct {
	HeaderType   uint8
	GranulePos   int64
	SerialNumber uint32
	SequenceNum  uint32
	NumSegments  uint8
	SegmentTable []uint8
}

func (h *oggPageHeader) bodySize() int64 {
	var n int64
	for _, s := range h.SegmentTable {
		n += int64(s)
	}
	return n
}

// parseOggPageHeader reads and parses an Ogg page header from the reader.
func parseOggPageHeader(r io.Reader) (*oggPageHeader, error) {
	var buf [oggHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	return decodeOggPageHeader(buf[:], r)
}

func decodeOggPageHeader(buf []byte, r io.Reader) (*oggPageHeader, error) {
	if string(buf[0:4]) != "OggS" {
		return nil, errInvalidOggMagic
	}
	if buf[4] != 0 {
		return nil, errInvalidOggVersion
	}

	hdr := &oggPageHeader{
		HeaderType:   buf[5],
		GranulePos:   int64(binary.LittleEndian.Uint64(buf[6:14])), //nolint:gosec // -1 marks pages with no completed packet
		SerialNumber: binary.LittleEndian.Uint32(buf[14:18]),
		SequenceNum:  binary.LittleEndian.Uint32(buf[18:22]),
		NumSegments:  buf[26],
	}

	if hdr.NumSegments > 0 {
		hdr.SegmentTable = make([]uint8, hdr.NumSegments)
		if _, err := io.ReadFull(r, hdr.SegmentTable); err != nil {
			return nil, err
		}
	}
	return hdr, nil
}

// readOggPageBody reads the body described by hdr and splits it into the
// packets completed on this page. A packet still open at the end of the
// page is returned as partial.
func readOggPageBody(r io.Reader, hdr *oggPageHeader) (packets [][]byte, partial []byte, err error) {
	body := make([]byte, hdr.bodySize())
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, err
	}

	var (
		start int
		pos   int
	)
	for _, seg := range hdr.SegmentTable {
		pos += int(seg)
		if seg < 255 {
			packets = append(packets, body[start:pos])
			start = pos
		}
	}
	if start < len(body) {
		partial = body[start:]
	}
	return packets, partial, nil
}

// OggPage is one page worth of packets, with packets spanning pages joined.
type OggPage struct {
	GranulePos int64
	Packets    [][]byte
}

// OggReader walks the audio pages of an Ogg stream.
type OggReader struct {
	r           io.ReadSeeker
	sampleRate  int
	preSkip     int
	dataStart   int64
	lastGranule int64
	partial     []byte
}

// NewOggReader creates a reader over r. Header pages must already have been
// consumed; call SetDataStart with the offset of the first audio page.
func NewOggReader(r io.ReadSeeker, sampleRate, preSkip int) (*OggReader, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("ogg: invalid sample rate %d", sampleRate)
	}
	return &OggReader{r: r, sampleRate: sampleRate, preSkip: preSkip}, nil
}

func (o *OggReader) SampleRate() int { return o.sampleRate }

func (o *OggReader) PreSkip() int { return o.preSkip }

func (o *OggReader) SetDataStart(off int64) { o.dataStart = off }

// Duration returns the stream length in samples.
func (o *OggReader) Duration() int64 {
	return max(o.lastGranule-int64(o.preSkip), 0)
}

// Reset rewinds to the first audio page.
func (o *OggReader) Reset() error {
	o.partial = nil
	_, err := o.r.Seek(o.dataStart, io.SeekStart)
	return err
}

// ScanLastGranule finds the granule position of the last page, which is
// the stream length.
func (o *OggReader) ScanLastGranule() error {
	size, err := o.r.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	end := size
	for end > o.dataStart {
		start := max(end-oggScanWindow, o.dataStart)
		buf := make([]byte, end-start)
		if _, err := o.r.Seek(start, io.SeekStart); err != nil {
			return err
		}
		if _, err := io.ReadFull(o.r, buf); err != nil {
			return err
		}

		for i := bytes.LastIndex(buf, []byte("OggS")); i >= 0; i = bytes.LastIndex(buf[:i], []byte("OggS")) {
			if len(buf)-i < oggHeaderSize {
				continue
			}
			hdr, err := decodeOggPageHeader(buf[i:i+oggHeaderSize], bytes.NewReader(buf[i+oggHeaderSize:]))
			if err != nil || hdr.GranulePos == oggNoGranule {
				continue
			}
			o.lastGranule = hdr.GranulePos
			return nil
		}

		// Overlap so a header split across windows is found.
		if start == o.dataStart {
			break
		}
		end = start + oggHeaderSize
	}
	return errNoOggGranule
}

// ReadPage returns the next page. Packets continued from a page that was
// never read (after a seek) are dropped.
func (o *OggReader) ReadPage() (*OggPage, error) {
	hdr, err := parseOggPageHeader(o.r)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	packets, partial, err := readOggPageBody(o.r, hdr)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}

	continued := hdr.HeaderType&oggFlagContinue != 0
	switch {
	case continued && o.partial == nil:
		if len(packets) > 0 {
			packets = packets[1:]
		} else {
			partial = nil
		}
	case o.partial != nil && len(packets) > 0:
		packets[0] = append(o.partial, packets[0]...)
	case o.partial != nil && partial != nil:
		partial = append(o.partial, partial...)
	}
	o.partial = partial

	return &OggPage{GranulePos: hdr.GranulePos, Packets: packets}, nil
}

// SeekToGranule positions the reader on the page holding sample target and
// returns the sample position decoding resumes at, which is at or before
// target.
func (o *OggReader) SeekToGranule(target int64) (int64, error) {
	if err := o.Reset(); err != nil {
		return 0, err
	}

	raw := target + int64(o.preSkip)
	var prev int64
	for {
		pageStart, err := o.r.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, err
		}
		hdr, err := parseOggPageHeader(o.r)
		if err != nil {
			// Past the last page: resume from the last page boundary.
			if _, serr := o.r.Seek(pageStart, io.SeekStart); serr != nil {
				return 0, serr
			}
			return prev - int64(o.preSkip), nil
		}
		if hdr.GranulePos != oggNoGranule && hdr.GranulePos > raw {
			if _, err := o.r.Seek(pageStart, io.SeekStart); err != nil {
				return 0, err
			}
			o.partial = nil
			return prev - int64(o.preSkip), nil
		}
		if hdr.GranulePos != oggNoGranule {
			prev = hdr.GranulePos
		}
		if _, err := o.r.Seek(hdr.bodySize(), io.SeekCurrent); err != nil {
			return 0, err
		}
	}
}
