package queueview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/riptide/internal/queue"
)

// Symbols for status indicators
const (
	completedSymbol = "✓" // ✓
	failedSymbol    = "✗" // ✗
	downloadingIcon = "⇩" // ⇩
	pendingIcon     = "○" // ○
)

const sepBullet = " • "

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245"))

	trackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252"))

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")) // green

	downloadingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")) // cyan/blue

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dim

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	statusLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // amber
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", m.width))
	b.WriteString("\n")
	b.WriteString(m.renderRows())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	queued, downloading, completed, failed := m.store.Counts()

	var parts []string
	if downloading > 0 {
		parts = append(parts, fmt.Sprintf("%d active", downloading))
	}
	if queued > 0 {
		parts = append(parts, fmt.Sprintf("%d queued", queued))
	}
	if completed > 0 {
		total := m.store.Page().Total
		if total > completed {
			parts = append(parts, fmt.Sprintf("%d of %d done", completed, total))
		} else {
			parts = append(parts, fmt.Sprintf("%d done", completed))
		}
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}

	title := "Riptide"
	if m.engine.Driving() {
		title += " " + m.spinner.View()
	}
	if settings, ok := m.store.Settings(); ok && settings.IsProcessing {
		parts = append(parts, "server processing")
	}
	if len(parts) > 0 {
		title += "  " + strings.Join(parts, ", ")
	}
	return headerStyle.Render(truncate(title, m.width))
}

func (m Model) renderRows() string {
	listHeight := m.listHeight()
	if len(m.rows) == 0 {
		return m.renderEmptyState(listHeight)
	}

	lines := make([]string, 0, listHeight)
	for i := m.offset; i < len(m.rows) && len(lines) < listHeight; i++ {
		r := m.rows[i]
		if r.header {
			lines = append(lines, sectionStyle.Render(truncate(r.title, m.width)))
			continue
		}
		lines = append(lines, m.renderTrackLine(r.track, i == m.cursor))
	}
	for len(lines) < listHeight {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderEmptyState(listHeight int) string {
	lines := make([]string, listHeight)
	centerLine := listHeight / 2
	for i := range lines {
		if i == centerLine {
			centered := lipgloss.NewStyle().Width(m.width).Align(lipgloss.Center).Render("Queue is empty")
			lines[i] = emptyStyle.Render(centered)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTrackLine(t queue.Track, isCursor bool) string {
	var statusText string
	var statusStyle lipgloss.Style

	switch t.Status {
	case queue.StatusDownloading:
		statusText = fmt.Sprintf("[%s %d%%]", downloadingIcon, t.Progress)
		statusStyle = downloadingStyle
	case queue.StatusCompleted:
		statusText = fmt.Sprintf("[%s]", completedSymbol)
		statusStyle = completedStyle
	case queue.StatusFailed:
		statusText = fmt.Sprintf("[%s]", failedSymbol)
		statusStyle = failedStyle
	default:
		statusText = fmt.Sprintf("[%s]", pendingIcon)
		statusStyle = pendingStyle
	}

	parts := []string{t.Artist, t.Title}
	if t.Album != "" {
		parts = append(parts, t.Album)
	}
	switch {
	case t.Status == queue.StatusFailed && t.Error != "":
		parts = append(parts, t.Error)
	case t.Status == queue.StatusCompleted && !t.CompletedAt.IsZero():
		parts = append(parts, humanize.Time(t.CompletedAt))
	case t.Status == queue.StatusQueued && !t.AddedAt.IsZero():
		parts = append(parts, "added "+humanize.Time(t.AddedAt))
	}
	info := strings.Join(parts, sepBullet)

	indent := "  "
	statusWidth := lipgloss.Width(statusText)
	contentWidth := m.width - len(indent) - statusWidth - 1
	info = pad(truncate(info, contentWidth), contentWidth)

	line := indent + info + " " + statusStyle.Render(statusText)
	if isCursor {
		return cursorStyle.Width(m.width).Render(line)
	}
	return trackStyle.Render(line)
}

func (m Model) renderStatusLine() string {
	if m.loading {
		return statusLineStyle.Render(m.spinner.View() + " loading history")
	}
	if m.status == "" {
		return ""
	}
	return statusLineStyle.Render(truncate(m.status, m.width))
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}

func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
