package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/prepboard/internal/lesson"
)

type pageLayout struct {
	windowWidth     int
	windowHeight    int
	viewportWidth   int
	viewportHeight  int
	narrationHeight int
	inputWidth      int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:   80,
		viewportHeight:  16,
		narrationHeight: narrationLines,
		inputWidth:      70,
	}
}

// Update sizes the board viewport to whatever the title, narration panel, status
// bar and help line leave free.
func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	l.inputWidth = innerWidth - 4
	if l.inputWidth > 100 {
		l.inputWidth = 100
	}
	l.narrationHeight = narrationLines
	const chrome = 9
	usable := height - chrome - l.narrationHeight
	if usable < 5 {
		usable = 5
	}
	l.viewportHeight = usable
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

// renderBoard lays board entries out top to bottom in step order. The most
// recent entry is highlighted; positions pick alignment and weight.
func renderBoard(board lesson.Board, width int) string {
	if width <= 0 {
		width = 80
	}
	cb := &contentBuilder{}
	last := len(board.Entries) - 1
	for i, entry := range board.Entries {
		if cb.Line() > 0 {
			cb.WriteRune('\n')
		}
		cb.WriteString(renderEntry(entry, width, i == last))
		cb.WriteRune('\n')
	}
	if cb.Line() == 0 {
		return helperStyle.Render("The board is empty so far.")
	}
	return strings.TrimRight(cb.String(), "\n")
}

func renderEntry(entry lesson.BoardEntry, width int, newest bool) string {
	wrapped := wordwrap.String(entry.Text, wrapWidth(width, 6))
	style := boardEntryStyle
	if newest {
		style = boardNewestStyle
	}
	switch entry.Position {
	case lesson.PositionTop:
		style = style.Bold(true).Align(lipgloss.Center)
	case lesson.PositionBelow:
		style = style.Align(lipgloss.Left).PaddingLeft(4)
	default:
		style = style.Align(lipgloss.Center)
	}
	return style.Width(width - 2).Render(wrapped)
}

func wrapWidth(width, padding int) int {
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func previewText(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
