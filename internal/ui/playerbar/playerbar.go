// Package playerbar renders the now-playing bar.
package playerbar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/wavestream/internal/playback"
	"github.com/llehouerou/wavestream/internal/ui/render"
	"github.com/llehouerou/wavestream/internal/ui/styles"
)

const (
	playSymbol    = "▶"
	pauseSymbol   = "⏸"
	loadingSymbol = "…"
	errorSymbol   = "✖"
	idleSymbol    = "■"

	// Height is the rendered height: top border, content, bottom border.
	Height = 3
)

// State holds everything needed to render the player bar.
type State struct {
	Status     playback.State
	Buffering  bool
	Title      string
	Artist     string
	Album      string
	Year       int
	Format     string
	SampleRate int
	Position   time.Duration
	Duration   time.Duration
	Volume     int
	Muted      bool
}

// NewState builds a State from a session snapshot. Catalog fields win over
// tags embedded in the audio; tags fill the gaps. It reports false when
// there is nothing to show.
func NewState(s playback.Session) (State, bool) {
	t := s.Target()
	if t == nil {
		return State{}, false
	}

	st := State{
		Status:    s.State,
		Buffering: s.Buffering,
		Title:     t.Title,
		Artist:    t.Artist,
		Album:     t.Album,
		Position:  s.Position,
		Duration:  s.Duration,
		Volume:    s.Volume,
		Muted:     s.Muted,
	}
	if st.Duration == 0 {
		st.Duration = t.Duration
	}
	if tags := s.Embedded; tags != nil && s.Track != nil && s.Track.ID == t.ID {
		st.Title = orElse(st.Title, tags.Title)
		st.Artist = orElse(st.Artist, tags.Artist)
		st.Album = orElse(st.Album, tags.Album)
		st.Year = tags.Year
		st.Format = tags.Format
		st.SampleRate = tags.SampleRate
	}
	if st.Title == "" {
		st.Title = t.DisplayTitle()
	}
	return st, true
}

func orElse(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Render returns the player bar for the given outer width.
func Render(s State, width int) string {
	t := styles.T()
	innerWidth := max(width-6, 0) // border + padding

	status := statusSymbol(s.Status)
	timeStr := FormatDuration(s.Position) + " / " + FormatDuration(s.Duration)
	volume := renderVolume(s.Volume, s.Muted)

	var infoParts []string
	for _, p := range []string{s.Artist, s.Album} {
		if p != "" {
			infoParts = append(infoParts, p)
		}
	}
	if s.Year > 0 {
		infoParts = append(infoParts, strconv.Itoa(s.Year))
	}
	info := strings.Join(infoParts, " · ")

	var note string
	switch {
	case s.Status == playback.StateLoading:
		note = "loading"
	case s.Buffering:
		note = "buffering"
	case s.Format != "":
		note = formatAudio(s.Format, s.SampleRate)
	}

	const sep = "   "
	sepWidth := lipgloss.Width(sep)
	fixed := lipgloss.Width(status) + 2 + lipgloss.Width(timeStr) + lipgloss.Width(volume) + sepWidth*3
	if note != "" {
		fixed += lipgloss.Width(note) + sepWidth
	}
	const minBar = 10
	available := innerWidth - fixed - minBar

	title := s.Title
	titleWidth := render.Width(title)
	infoWidth := render.Width(info)

	var used int
	switch {
	case info != "" && titleWidth+sepWidth+infoWidth <= available:
		used = titleWidth + sepWidth + infoWidth
	case info != "" && titleWidth+sepWidth+minBar <= available:
		info = render.Truncate(info, available-titleWidth-sepWidth)
		used = titleWidth + sepWidth + render.Width(info)
	default:
		info = ""
		title = render.Truncate(title, max(available, 10))
		used = render.Width(title)
	}

	barWidth := max(innerWidth-fixed-used, 5)
	var ratio float64
	if s.Duration > 0 {
		ratio = float64(s.Position) / float64(s.Duration)
	}
	filled := min(int(float64(barWidth)*ratio), barWidth)

	var b strings.Builder
	b.WriteString(t.S().Title.Render(title))
	if info != "" {
		b.WriteString(sep)
		b.WriteString(t.S().Muted.Render(info))
	}
	if note != "" {
		b.WriteString(sep)
		b.WriteString(t.S().Subtle.Render(note))
	}
	b.WriteString(sep)
	b.WriteString(status)
	b.WriteString("  ")
	b.WriteString(styles.GradientBar(barWidth, filled, "━", "─"))
	b.WriteString(sep)
	b.WriteString(t.S().Muted.Render(timeStr))
	b.WriteString(sep)
	b.WriteString(volume)

	return t.S().Panel.Padding(0, 2).Width(max(width-2, 0)).Render(b.String())
}

func statusSymbol(s playback.State) string {
	switch s {
	case playback.StatePlaying:
		return playSymbol
	case playback.StatePaused:
		return pauseSymbol
	case playback.StateLoading:
		return loadingSymbol
	case playback.StateError:
		return styles.T().S().Warning.Render(errorSymbol)
	case playback.StateIdle:
		return idleSymbol
	}
	return idleSymbol
}

func renderVolume(volume int, muted bool) string {
	if muted {
		return styles.T().S().Subtle.Render("muted")
	}
	return styles.T().S().Muted.Render(fmt.Sprintf("vol %3d%%", volume))
}

func formatAudio(format string, sampleRate int) string {
	if sampleRate <= 0 {
		return format
	}
	khz := strconv.FormatFloat(float64(sampleRate)/1000, 'f', -1, 64)
	return format + " " + khz + " kHz"
}

// FormatDuration renders d as m:ss.
func FormatDuration(d time.Duration) string {
	d = max(d, 0)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
