package player

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/jfreymuth/vorbis"
	"github.com/jj11hh/opus"
)

var errUnknownOggCodec = errors.New("ogg: stream is neither Opus nor Vorbis")

// oggLayout describes a decoded Ogg stream.
type oggLayout struct {
	codec    string // shown in the player bar
	rate     int
	channels int
	preSkip  int // samples dropped at stream start
	maxFrame int // samples per channel one packet can decode to
	preRoll  int // samples decoded before a seek target so the codec converges
}

// packetDecoder turns one audio packet into interleaved float PCM.
type packetDecoder interface {
	decode(packet []byte, dst []float32) (perChannel int, err error)
	reset()
}

// openOggCodec reads header packets until the codec is ready to decode
// audio. next yields packets in stream order.
func openOggCodec(next func() ([]byte, error)) (oggLayout, packetDecoder, error) {
	first, err := next()
	if err != nil {
		return oggLayout{}, nil, err
	}
	switch {
	case isOpusHead(first):
		return openOpus(first)
	case isVorbisIdent(first):
		return openVorbis(first, next)
	}
	return oggLayout{}, nil, errUnknownOggCodec
}

func isOpusHead(p []byte) bool {
	return len(p) >= 8 && string(p[:8]) == "OpusHead"
}

func isVorbisIdent(p []byte) bool {
	return len(p) >= 7 && p[0] == 0x01 && string(p[1:7]) == "vorbis"
}

// Opus always decodes at 48 kHz whatever rate the header advertises.
const (
	opusRate     = 48000
	opusMaxFrame = opusRate * 120 / 1000
	opusPreRoll  = opusRate * 80 / 1000
)

type opusDecoder struct{ d *opus.Decoder }

// openOpus parses an OpusHead packet: magic(8) version(1) channels(1)
// pre-skip(2) input-rate(4) gain(2) mapping(1).
func openOpus(head []byte) (oggLayout, packetDecoder, error) {
	if len(head) < 19 {
		return oggLayout{}, nil, errors.New("opus: OpusHead too short")
	}
	if v := head[8]; v != 1 {
		return oggLayout{}, nil, fmt.Errorf("opus: unsupported version %d", v)
	}
	channels := int(head[9])
	d, err := opus.NewDecoder(opusRate, channels)
	if err != nil {
		return oggLayout{}, nil, fmt.Errorf("opus: %w", err)
	}
	return oggLayout{
		codec:    "OPUS",
		rate:     opusRate,
		channels: channels,
		preSkip:  int(binary.LittleEndian.Uint16(head[10:12])),
		maxFrame: opusMaxFrame,
		preRoll:  opusPreRoll,
	}, opusDecoder{d: d}, nil
}

func (o opusDecoder) decode(packet []byte, dst []float32) (int, error) {
	return o.d.DecodeFloat32(packet, dst)
}

// The Opus decoder resynchronises by itself.
func (opusDecoder) reset() {}

const vorbisMaxBlock = 8192

type vorbisDecoder struct {
	d        *vorbis.Decoder
	channels int
}

// openVorbis feeds the identification, comment and setup headers to the
// decoder. The identification header is: type(1) "vorbis"(6) version(4)
// channels(1) rate(4).
func openVorbis(ident []byte, next func() ([]byte, error)) (oggLayout, packetDecoder, error) {
	if len(ident) < 16 || binary.LittleEndian.Uint32(ident[7:11]) != 0 || ident[11] == 0 {
		return oggLayout{}, nil, errors.New("vorbis: invalid identification header")
	}

	d := &vorbis.Decoder{}
	if err := d.ReadHeader(ident); err != nil {
		return oggLayout{}, nil, fmt.Errorf("vorbis: %w", err)
	}
	for range 2 {
		p, err := next()
		if err != nil {
			return oggLayout{}, nil, fmt.Errorf("vorbis headers: %w", err)
		}
		if err := d.ReadHeader(p); err != nil {
			return oggLayout{}, nil, fmt.Errorf("vorbis: %w", err)
		}
	}

	channels := int(ident[11])
	return oggLayout{
		codec:    "VORBIS",
		rate:     int(binary.LittleEndian.Uint32(ident[12:16])),
		channels: channels,
		maxFrame: vorbisMaxBlock,
	}, &vorbisDecoder{d: d, channels: channels}, nil
}

func (v *vorbisDecoder) decode(packet []byte, dst []float32) (int, error) {
	pcm, err := v.d.Decode(packet)
	if err != nil {
		return 0, err
	}
	if len(pcm) > len(dst) {
		return 0, fmt.Errorf("vorbis: %d samples overflow a %d sample buffer", len(pcm), len(dst))
	}
	return copy(dst, pcm) / v.channels, nil
}

// reset drops the overlap carried from the previous block.
func (v *vorbisDecoder) reset() { v.d.Clear() }
