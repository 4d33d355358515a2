package player

import (
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
)

// headerPackets yields packets from the head of an Ogg stream one at a
// time, joining packets continued across pages. It reads whole pages, so
// once the codec headers are consumed the reader sits on the first audio
// page.
type headerPackets struct {
	r       io.Reader
	queued  [][]byte
	pending []byte
}

func (h *headerPackets) next() ([]byte, error) {
	for len(h.queued) == 0 {
		hdr, err := parseOggPageHeader(h.r)
		if err != nil {
			return nil, err
		}
		packets, partial, err := readOggPageBody(h.r, hdr)
		if err != nil {
			return nil, err
		}
		if len(h.pending) > 0 {
			if len(packets) > 0 {
				packets[0] = append(h.pending, packets[0]...)
			} else {
				partial = append(h.pending, partial...)
			}
		}
		h.queued, h.pending = packets, partial
	}
	p := h.queued[0]
	h.queued = h.queued[1:]
	return p, nil
}

// decodeOgg decodes an Ogg Opus or Ogg Vorbis stream. The returned name is
// the codec found in the stream.
func decodeOgg(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, string, error) {
	hp := &headerPackets{r: rc}
	layout, dec, err := openOggCodec(hp.next)
	if err != nil {
		return nil, beep.Format{}, "", err
	}
	if len(hp.queued) > 0 || len(hp.pending) > 0 {
		return nil, beep.Format{}, "", errors.New("ogg: audio shares a page with the codec headers")
	}

	dataStart, err := rc.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, beep.Format{}, "", err
	}
	pages, err := NewOggReader(rc, layout.rate, layout.preSkip)
	if err != nil {
		return nil, beep.Format{}, "", err
	}
	pages.SetDataStart(dataStart)
	if err := pages.ScanLastGranule(); err != nil {
		return nil, beep.Format{}, "", err
	}
	if err := pages.Reset(); err != nil {
		return nil, beep.Format{}, "", err
	}

	s := &oggStreamer{
		pages:    pages,
		dec:      dec,
		channels: layout.channels,
		preRoll:  layout.preRoll,
		closer:   rc,
		buf:      make([]float32, layout.maxFrame*layout.channels),
		skip:     layout.preSkip,
		length:   pages.Duration(),
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(layout.rate),
		NumChannels: min(layout.channels, 2),
		Precision:   2,
	}
	return s, format, layout.codec, nil
}

// oggStreamer adapts decoded Ogg pages to beep.StreamSeekCloser. Streams
// with more than two channels are reduced to their first two.
type oggStreamer struct {
	pages    *OggReader
	dec      packetDecoder
	channels int
	preRoll  int
	closer   io.Closer

	page   *OggPage
	packet int
	buf    []float32
	pcm    []float32 // window of buf not yet streamed
	skip   int       // samples per channel to drop before output
	pos    int64
	length int64
	err    error
}

func (s *oggStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}
	n := 0
	for n < len(samples) {
		if len(s.pcm) >= s.channels {
			n += s.drain(samples[n:])
			continue
		}
		if !s.refill() {
			return n, n > 0
		}
	}
	return n, true
}

// drain copies buffered frames into out and reports how many it wrote.
func (s *oggStreamer) drain(out [][2]float64) int {
	n := 0
	for n < len(out) && len(s.pcm) >= s.channels {
		l := float64(s.pcm[0])
		r := l
		if s.channels > 1 {
			r = float64(s.pcm[1])
		}
		out[n] = [2]float64{l, r}
		s.pcm = s.pcm[s.channels:]
		s.pos++
		n++
	}
	return n
}

// refill decodes the next packet into the buffer. It returns false at the
// end of the stream or on a read error. Packets that fail to decode are
// skipped.
func (s *oggStreamer) refill() bool {
	for {
		if s.page == nil || s.packet >= len(s.page.Packets) {
			page, err := s.pages.ReadPage()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.err = err
				}
				return false
			}
			s.page, s.packet = page, 0
			continue
		}

		pkt := s.page.Packets[s.packet]
		s.packet++
		frames, err := s.dec.decode(pkt, s.buf)
		if err != nil || frames <= 0 {
			continue
		}
		drop := min(max(s.skip, 0), frames)
		s.skip -= drop
		s.pcm = s.buf[drop*s.channels : frames*s.channels]
		if len(s.pcm) > 0 {
			return true
		}
	}
}

func (s *oggStreamer) Err() error    { return s.err }
func (s *oggStreamer) Len() int      { return int(s.length) }
func (s *oggStreamer) Position() int { return int(s.pos) }

// Seek moves to sample p. Decoding restarts preRoll samples earlier and the
// samples before p are discarded.
func (s *oggStreamer) Seek(p int) error {
	p = max(min(p, s.Len()), 0)

	resume, err := s.pages.SeekToGranule(int64(max(p-s.preRoll, 0)))
	if err != nil {
		return err
	}
	s.dec.reset()

	s.page, s.packet = nil, 0
	s.pcm = nil
	s.skip = int(int64(p) - resume)
	s.pos = int64(p)
	s.err = nil
	return nil
}

func (s *oggStreamer) Close() error {
	return s.closer.Close()
}
