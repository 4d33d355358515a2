package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/wavestream/internal/keymap"
	"github.com/llehouerou/wavestream/internal/ui/playerbar"
	"github.com/llehouerou/wavestream/internal/ui/render"
	"github.com/llehouerou/wavestream/internal/ui/styles"
)

const (
	headerHeight = 1
	footerHeight = 1
)

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	t := styles.T()

	var sections []string
	sections = append(sections, m.renderHeader())

	if m.session.ErrMessage != "" {
		banner := render.Truncate(m.session.ErrMessage, max(m.width-2, 1))
		sections = append(sections, t.S().Banner.Width(m.width).Render(banner))
	}

	bar, hasBar := playerbar.NewState(m.session)
	listHeight := m.height - headerHeight - footerHeight
	if m.session.ErrMessage != "" {
		listHeight--
	}
	if hasBar {
		listHeight -= playerbar.Height
	}

	if m.showHelp {
		sections = append(sections, m.renderHelp(listHeight))
	} else {
		sections = append(sections, m.renderQueue(listHeight))
	}

	sections = append(sections, m.renderFooter())
	if hasBar {
		sections = append(sections, playerbar.Render(bar, m.width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	t := styles.T()
	title := styles.ApplyGradient("wavestream", t.Primary, t.Secondary)
	count := t.S().Subtle.Render(fmt.Sprintf("  %d in queue", len(m.queue.Tracks)))
	return title + count
}

func (m Model) renderQueue(height int) string {
	height = max(height, 1)
	t := styles.T()
	lines := make([]string, 0, height)

	if len(m.queue.Tracks) == 0 {
		lines = append(lines, t.S().Muted.Render("Queue is empty. Press a to add a track."))
	}

	// Keep the cursor visible.
	start := max(m.cursor-height/2, 0)
	end := min(start+height, len(m.queue.Tracks))
	start = max(end-height, 0)

	numWidth := len(fmt.Sprint(len(m.queue.Tracks)))
	for i := start; i < end; i++ {
		tr := m.queue.Tracks[i]
		marker := "  "
		if i == m.queue.Index {
			marker = "▶ "
		}
		right := ""
		if tr.Duration > 0 {
			right = playerbar.FormatDuration(tr.Duration)
		}
		label := tr.DisplayTitle()
		if tr.Artist != "" {
			label += " · " + tr.Artist
		}
		num := fmt.Sprintf("%*d ", numWidth, i+1)
		width := max(m.width-lipgloss.Width(marker)-len(num)-len(right)-1, 1)
		line := marker + num + render.Fit(label, width) + " " + right

		switch {
		case i == m.cursor:
			line = t.S().Cursor.Width(m.width).Render(line)
		case i == m.queue.Index:
			line = t.S().Playing.Render(line)
		default:
			line = t.S().Base.Render(line)
		}
		lines = append(lines, line)
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHelp(height int) string {
	t := styles.T()
	var lines []string
	for _, ctx := range []string{"global", "playback", "output", "queue"} {
		lines = append(lines, t.S().Title.Render(ctx))
		for _, b := range keymap.ByContext(ctx) {
			keys := strings.Join(displayKeys(b.Keys), ", ")
			lines = append(lines, "  "+render.Fit(keys, 16)+t.S().Muted.Render(b.Description))
		}
	}
	if len(lines) > height {
		lines = lines[:max(height, 0)]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func displayKeys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if k == " " {
			k = "space"
		}
		out[i] = k
	}
	return out
}

func (m Model) renderFooter() string {
	t := styles.T()
	switch {
	case m.prompt:
		return m.input.View()
	case m.status != "":
		return t.S().Warning.Render(render.Truncate(m.status, m.width))
	default:
		return t.S().Subtle.Render("? help  a add  space play/pause  n/p next/prev  q quit")
	}
}
