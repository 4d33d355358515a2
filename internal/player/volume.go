package player

import (
	"math"

	"github.com/gopxl/beep/v2/speaker"
)

const (
	MinVolume = 0
	MaxVolume = 100
)

// ClampVolume bounds a level to [MinVolume, MaxVolume].
func ClampVolume(level int) int {
	return max(MinVolume, min(level, MaxVolume))
}

// SetVolume sets the volume level (0-100).
// If muted, only stores the level without applying it.
func (p *Player) SetVolume(level int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volumeLevel = ClampVolume(level)
	if !p.muted && p.volume != nil {
		speaker.Lock()
		p.volume.Volume = levelToVolume(p.volumeLevel)
		speaker.Unlock()
	}
}

// SetMuted sets the muted state. Unmuting restores the stored level.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.muted = muted
	if p.volume != nil {
		speaker.Lock()
		p.volume.Silent = muted
		p.volume.Volume = levelToVolume(p.volumeLevel)
		speaker.Unlock()
	}
}

// levelToVolume converts a 0-100 level to beep's Volume value.
// beep's scale is logarithmic with base 2: 0 is unchanged, -1 is half,
// -2 a quarter. 100 maps to 0, 50 to -1, and 0 to -10 (essentially silent).
func levelToVolume(level int) float64 {
	if level <= MinVolume {
		return -10
	}
	if level >= MaxVolume {
		return 0
	}
	return math.Log2(float64(level) / MaxVolume)
}
