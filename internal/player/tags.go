package player

import (
	"io"

	"github.com/dhowden/tag"
)

// TagInfo is metadata read from the audio payload itself.
type TagInfo struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Year        int
	Track       int
	Genre       string

	// Filled from the decoder.
	Format     string
	SampleRate int
	BitDepth   int

	PictureMIME string
	Picture     []byte
}

// readTags reads embedded tags from r and rewinds it. Payloads without tags
// yield an empty TagInfo.
func readTags(r io.ReadSeeker) *TagInfo {
	info := &TagInfo{}
	defer func() { _, _ = r.Seek(0, io.SeekStart) }()

	m, err := tag.ReadFrom(r)
	if err != nil {
		return info
	}

	track, _ := m.Track()
	albumArtist := m.AlbumArtist()
	if albumArtist == "" {
		albumArtist = m.Artist()
	}

	info.Title = m.Title()
	info.Artist = m.Artist()
	info.AlbumArtist = albumArtist
	info.Album = m.Album()
	info.Year = m.Year()
	info.Track = track
	info.Genre = m.Genre()
	if pic := m.Picture(); pic != nil {
		info.PictureMIME = pic.MIMEType
		info.Picture = pic.Data
	}
	return info
}
