package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/prepboard/internal/playback"
)

func (m *model) View() string {
	switch m.stage {
	case stageCompose:
		return m.viewCompose()
	case stageLoading:
		return m.viewLoading()
	case stageBoard:
		return m.viewBoard()
	case stageAttach:
		return m.viewAttach()
	default:
		return ""
	}
}

func (m *model) viewCompose() string {
	form := strings.Builder{}
	form.WriteString(sectionHeaderStyle.Render("Ask PrepBoard"))
	form.WriteRune('\n')
	form.WriteString(m.composer.View())
	if chips := m.attachmentChips(); chips != "" {
		form.WriteRune('\n')
		form.WriteString(chips)
	}
	form.WriteRune('\n')
	form.WriteString(m.submitHint())

	parts := []string{m.heroView(), form.String(), m.presetsView()}
	if notice := strings.TrimSpace(m.config.Notice); notice != "" && !m.session.Loaded() {
		parts = append(parts, accentStyle.Render(notice))
	}
	if msg := m.session.Err(); msg != "" {
		parts = append(parts, errorBoxStyle.Render(msg+"  "+helperStyle.Render("(esc to dismiss)")))
	}
	if m.attachError != "" {
		parts = append(parts, errorStyle.Render(m.attachError))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	parts = append(parts, m.help.View(composeHelp{m.keys}))
	return joinNonEmpty(parts)
}

func (m *model) viewLoading() string {
	body := []string{fmt.Sprintf("%s %s", m.spinner.View(), "Preparing lesson…")}
	if prompt := strings.TrimSpace(m.composer.Value()); prompt != "" {
		body = append(body, helperStyle.Render("Question: "+previewText(prompt, 80)))
	}
	if m.session.State() == playback.Suspended {
		body = append(body, helperStyle.Render("Auto-Play resumes once the lesson arrives."))
	}
	return m.frameWithHero(strings.Join(body, "\n"))
}

func (m *model) viewAttach() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Attach a worksheet"))
	b.WriteRune('\n')
	b.WriteString(m.attachInput.View())
	b.WriteRune('\n')
	if m.busy() {
		b.WriteString(helperStyle.Render(fmt.Sprintf("%s Reading attachments…", m.spinner.View())))
	} else {
		b.WriteString(helperStyle.Render("Images and PDFs only. Press Enter to attach, Esc to cancel."))
	}
	return m.frameWithHero(b.String())
}

func (m *model) viewBoard() string {
	if !m.session.Loaded() {
		return m.viewCompose()
	}
	m.refreshViewportIfDirty()
	parts := []string{
		titleStyle.Render("PrepBoard"),
		boardBoxStyle.Render(m.viewport.View()),
		m.narrationView(),
		m.statusBarView(),
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	parts = append(parts, m.help.View(boardHelp{m.keys}))
	return strings.Join(parts, "\n")
}

func (m *model) narrationView() string {
	board := m.session.Board()
	width := m.layout.viewportWidth
	var body string
	if board.HasExplanation {
		body = narrationStyle.Render(wordwrap.String(board.Explanation, wrapWidth(width, 6)))
	} else {
		body = helperStyle.Italic(true).Render(narrationPlaceholder)
	}
	return narrationBoxStyle.Width(width - 2).Height(m.layout.narrationHeight).Render(body)
}

// primaryActionLabel names what Continue does from the current step.
func (m *model) primaryActionLabel() string {
	if m.session.IsFinal() {
		return "Finish"
	}
	return "Continue"
}

func (m *model) autoPlayLabel() string {
	if m.session.AutoPlay() {
		return "Auto-Play"
	}
	return "Manual"
}

func (m *model) statusBarView() string {
	stats := []string{
		m.session.Progress(),
		m.autoPlayLabel(),
		m.config.LLM.Name(),
		fmt.Sprintf("→ %s", m.primaryActionLabel()),
	}
	if !m.session.CanRetreat() {
		stats = append(stats, "at first step")
	}
	if badges := m.jobStatusBadges(); len(badges) > 0 {
		stats = append(stats, badges...)
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) jobStatusBadges() []string {
	counts := map[jobKind]int{}
	for _, snapshot := range m.activeJobs {
		counts[snapshot.Kind]++
	}
	var badges []string
	for _, kind := range []jobKind{jobKindFetch, jobKindAttach} {
		if n := counts[kind]; n > 0 {
			badges = append(badges, fmt.Sprintf("%s×%d", kind, n))
		}
	}
	return badges
}

func (m *model) submitHint() string {
	hint := "Press Enter to start the lesson."
	if strings.TrimSpace(m.composer.Value()) == "" && len(m.session.Files()) == 0 {
		return dimStyle.Render(hint)
	}
	return accentStyle.Render(hint)
}

func (m *model) attachmentChips() string {
	files := m.session.Files()
	if len(files) == 0 {
		return ""
	}
	chips := make([]string, 0, len(files))
	for _, f := range files {
		name := f.Name
		if name == "" {
			name = f.MimeType
		}
		chips = append(chips, chipStyle.Render("📎 "+previewText(name, 28)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func (m *model) presetsView() string {
	cells := make([]string, 0, len(presets))
	for i, p := range presets {
		k := keyStyle.Render(fmt.Sprintf("alt+%d", i+1))
		label := keyDescStyle.Render(" " + p.Label + " ")
		if i == m.presetCursor {
			label = currentPresetStyle.Render(" " + p.Label + " ")
		}
		cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, k, label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderLogo(),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) frameWithHero(body string) string {
	return joinNonEmpty([]string{m.heroView(), body})
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width++
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}

	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}

	// Shadow first, offset by one cell, then the face on top.
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r != ' ' && y+1 < height && x+1 < width {
				grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
			}
		}
	}
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r != ' ' {
				grid[y][x] = cell{r: r, style: logoFaceStyle}
			}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}

var (
	chalkColor     = lipgloss.Color("#f1f5e9")
	boardColor     = lipgloss.Color("#1f3b2d")
	accentColor    = lipgloss.Color("#ffd166")
	secondaryColor = lipgloss.Color("#9ad1b4")

	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(accentColor).Underline(true)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	errorBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("9")).Foreground(lipgloss.Color("9")).Padding(0, 1)
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	dimStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	accentStyle        = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	taglineStyle       = lipgloss.NewStyle().Foreground(secondaryColor).Italic(true)
	chipStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(secondaryColor).Padding(0, 1).MarginRight(1)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(accentColor).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4")).MarginRight(1)
	currentPresetStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor).Underline(true).MarginRight(1)
	boardBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(secondaryColor).Background(boardColor)
	boardEntryStyle    = lipgloss.NewStyle().Foreground(chalkColor)
	boardNewestStyle   = lipgloss.NewStyle().Foreground(accentColor)
	narrationBoxStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).BorderForeground(lipgloss.Color("#56526e")).PaddingLeft(1)
	narrationStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4")).Italic(true)
	logoFaceStyle      = lipgloss.NewStyle().Bold(true).Foreground(chalkColor).Background(boardColor)
	logoShadowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#0b1a12"))
	logoContainerStyle = lipgloss.NewStyle().Padding(0, 1)
	logoArtLines       = []string{
		"██████╗   ██████╗   ███████╗  ██████╗   ██████╗    ██████╗    █████╗   ██████╗   ██████╗   ",
		"██╔══██╗  ██╔══██╗  ██╔════╝  ██╔══██╗  ██╔══██╗  ██╔═══██╗  ██╔══██╗  ██╔══██╗  ██╔══██╗  ",
		"██████╔╝  ██████╔╝  █████╗    ██████╔╝  ██████╔╝  ██║   ██║  ███████║  ██████╔╝  ██║  ██║  ",
		"██╔═══╝   ██╔══██╗  ██╔══╝    ██╔═══╝   ██╔══██╗  ██║   ██║  ██╔══██║  ██╔══██╗  ██║  ██║  ",
		"██║       ██║  ██║  ███████╗  ██║       ██████╔╝  ╚██████╔╝  ██║  ██║  ██║  ██║  ██████╔╝  ",
		"╚═╝       ╚═╝  ╚═╝  ╚══════╝  ╚═╝       ╚═════╝    ╚═════╝   ╚═╝  ╚═╝  ╚═╝  ╚═╝  ╚═════╝   ",
	}
)
