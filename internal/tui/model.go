package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/prepboard/internal/llm"
	"github.com/csheth/prepboard/internal/logger"
	"github.com/csheth/prepboard/internal/playback"
)

// Config wires runtime options into the TUI program.
type Config struct {
	LLM    llm.Client
	Logger *logger.Logger
	// Context bounds background jobs; cancelling it aborts in-flight fetches.
	Context context.Context

	AutoPlay       bool
	Prompt         string
	// Notice is shown under the composer until the first lesson starts.
	Notice         string
	Attachments    []string
	MaxAttachBytes int64
	FetchTimeout   time.Duration
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.LLM == nil {
		config.LLM = llm.MockClient{}
	}
	log := config.Logger
	if log == nil {
		log = logger.Nop()
	}

	composer := textinput.New()
	composer.Placeholder = composerPlaceholder
	composer.Focus()
	composer.CharLimit = 500
	composer.Width = 70

	attachInput := textinput.New()
	attachInput.Placeholder = attachPlaceholder
	attachInput.CharLimit = 1024
	attachInput.Width = 70

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 16)
	vp.MouseWheelEnabled = true

	session := playback.NewSession()
	session.SetAutoPlay(config.AutoPlay)

	return &model{
		config:        config,
		log:           log,
		stage:         stageCompose,
		session:       session,
		jobs:          newJobBus(config.Context, log),
		keys:          defaultKeys(),
		help:          help.New(),
		composer:      composer,
		attachInput:   attachInput,
		spinner:       spin,
		viewport:      vp,
		layout:        newPageLayout(),
		presetCursor:  -1,
		activeJobs:    map[string]jobSnapshot{},
		viewportDirty: true,
		infoMessage:   "Type a question and press Enter, or pick a sample with alt+1..4.",
	}
}

type model struct {
	config Config
	log    *logger.Logger
	stage  stage

	session *playback.Session
	jobs    *jobBus
	keys    keyMap
	help    help.Model

	composer    textinput.Model
	attachInput textinput.Model
	spinner     spinner.Model
	viewport    viewport.Model
	layout      pageLayout

	presetCursor  int
	pendingPrompt string
	// attaching counts attach jobs started but not yet reported back.
	attaching     int
	infoMessage   string
	attachError   string
	activeJobs    map[string]jobSnapshot
	lastTick      uint64
	viewportDirty bool
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	prompt := strings.TrimSpace(m.config.Prompt)
	switch {
	case len(m.config.Attachments) > 0:
		m.pendingPrompt = prompt
		m.infoMessage = "Reading attachments…"
		cmds = append(cmds, m.spinner.Tick, m.startAttach(m.config.Attachments))
	case prompt != "":
		m.composer.SetValue(prompt)
		cmds = append(cmds, m.startLesson(prompt))
	}
	return tea.Batch(cmds...)
}

// Update handles msg and then dispatches a tick for any newly armed auto-play timer.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	if tick := m.syncAutoPlay(); tick != nil {
		cmd = tea.Batch(cmd, tick)
	}
	return m, cmd
}

func (m *model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return cmd
		}
		return nil
	case jobSignalMsg:
		m.activeJobs[msg.Snapshot.ID] = msg.Snapshot
		return nil
	case jobResultEnvelope:
		delete(m.activeJobs, msg.Snapshot.ID)
		if msg.Payload == nil {
			return nil
		}
		return m.update(msg.Payload)
	case lessonResultMsg:
		return m.handleLessonResult(msg)
	case attachResultMsg:
		return m.handleAttachResult(msg)
	case autoPlayTickMsg:
		if m.session.Fire(msg.token) {
			m.markViewportDirty()
		}
		return nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return tea.Quit
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		if m.stage == stageBoard {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return cmd
		}
		return nil
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.composer.Width = m.layout.inputWidth
		m.attachInput.Width = m.layout.inputWidth
		m.help.Width = msg.Width
		m.markViewportDirty()
		return nil
	}
	return nil
}

func (m *model) busy() bool {
	return m.session.Loading() || len(m.activeJobs) > 0
}

// syncAutoPlay schedules a tick the first time each timer token is seen.
func (m *model) syncAutoPlay() tea.Cmd {
	timer, ok := m.session.Armed()
	if !ok || timer.Token == m.lastTick {
		return nil
	}
	m.lastTick = timer.Token
	return autoPlayTickCmd(timer)
}

func (m *model) startAttach(paths []string) tea.Cmd {
	m.attaching++
	return m.jobs.Start(jobKindAttach, attachFilesJob(paths, m.config.MaxAttachBytes))
}

func (m *model) startLesson(prompt string) tea.Cmd {
	if m.attaching > 0 {
		// Files still being read would miss this request; send it once they land.
		m.pendingPrompt = strings.TrimSpace(prompt)
		m.infoMessage = "Waiting for attachments. The question goes out once they are read."
		return nil
	}
	req, ok := m.session.Begin(prompt)
	if !ok {
		if m.session.Loading() {
			m.infoMessage = "A lesson is already being prepared."
		} else {
			m.infoMessage = "Type a question or attach a file first."
		}
		return nil
	}
	m.stage = stageLoading
	m.composer.Blur()
	m.attachError = ""
	m.infoMessage = "Preparing lesson…"
	m.log.Info("lesson requested", "provider", m.config.LLM.Name(), "prompt_chars", len(req.Prompt), "files", len(req.Files))
	return tea.Batch(
		m.spinner.Tick,
		m.jobs.Start(jobKindFetch, fetchLessonJob(m.config.LLM, llm.Request(req), m.config.FetchTimeout)),
	)
}

func (m *model) handleLessonResult(msg lessonResultMsg) tea.Cmd {
	m.session.Complete(msg.lesson, msg.err)
	if msg.err != nil || !m.session.Loaded() {
		m.log.Error("lesson fetch failed", "provider", m.config.LLM.Name(), "error", msg.err)
		m.stage = stageCompose
		m.infoMessage = "Press esc to dismiss the error, or try again."
		return m.composer.Focus()
	}
	m.log.Info("lesson loaded", "steps", m.session.Lesson().Len())
	m.stage = stageBoard
	m.composer.SetValue("")
	m.presetCursor = -1
	m.infoMessage = ""
	m.viewport.GotoTop()
	m.markViewportDirty()
	return nil
}

func (m *model) handleAttachResult(msg attachResultMsg) tea.Cmd {
	if m.attaching > 0 {
		m.attaching--
	}
	if m.stage != stageCompose && m.stage != stageAttach {
		return m.handleLateAttachResult(msg)
	}
	prompt := m.pendingPrompt
	m.pendingPrompt = ""
	if msg.err != nil {
		m.attachError = msg.err.Error()
		m.infoMessage = "Attachment skipped."
		m.stage = stageCompose
		if prompt != "" {
			m.composer.SetValue(prompt)
		}
		return m.composer.Focus()
	}
	m.attachError = ""
	m.session.Attach(msg.files...)
	m.infoMessage = fmt.Sprintf("Attached %d file(s). They go out with the next question.", len(msg.files))
	if prompt != "" {
		m.composer.SetValue(prompt)
		return m.startLesson(prompt)
	}
	m.stage = stageCompose
	return m.composer.Focus()
}

// handleLateAttachResult settles an attach job that finished after a lesson was
// started. The stage is left alone; files only join the session when the next
// question can still carry them.
func (m *model) handleLateAttachResult(msg attachResultMsg) tea.Cmd {
	if msg.err != nil {
		m.log.Warn("attachment failed after lesson start", "stage", m.stage, "error", msg.err)
		m.attachError = msg.err.Error()
		return nil
	}
	if m.session.Loading() {
		m.log.Warn("attachments dropped while a lesson was loading", "files", len(msg.files))
		m.infoMessage = "Attachments arrived too late for this question. Attach them again."
		return nil
	}
	m.session.Attach(msg.files...)
	m.infoMessage = fmt.Sprintf("Attached %d file(s). They go out with the next question.", len(msg.files))
	return nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.stage {
	case stageCompose:
		return m.handleComposeKey(msg)
	case stageAttach:
		return m.handleAttachKey(msg)
	case stageBoard:
		return m.handleBoardKey(msg)
	default:
		return nil
	}
}

func (m *model) handleComposeKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		switch {
		case m.session.Err() != "":
			m.session.DismissError()
			m.infoMessage = ""
		case m.attachError != "":
			m.attachError = ""
		default:
			return tea.Quit
		}
		return nil
	case key.Matches(msg, m.keys.Submit):
		return m.startLesson(m.composer.Value())
	case key.Matches(msg, m.keys.Preset):
		idx, ok := presetIndex(msg.String())
		if !ok {
			return nil
		}
		m.presetCursor = idx
		m.composer.SetValue(presets[idx].Prompt)
		m.composer.CursorEnd()
		return m.startLesson(presets[idx].Prompt)
	case key.Matches(msg, m.keys.Cycle):
		m.presetCursor = (m.presetCursor + 1) % len(presets)
		m.composer.SetValue(presets[m.presetCursor].Prompt)
		m.composer.CursorEnd()
		return nil
	case key.Matches(msg, m.keys.Attach):
		m.stage = stageAttach
		m.composer.Blur()
		m.attachInput.SetValue("")
		return m.attachInput.Focus()
	case key.Matches(msg, m.keys.Detach):
		if len(m.session.Files()) > 0 {
			m.session.ClearFiles()
			m.infoMessage = "Attachments dropped."
		}
		return nil
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return cmd
}

func (m *model) handleAttachKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.stage = stageCompose
		m.attachInput.Blur()
		return m.composer.Focus()
	case tea.KeyEnter:
		paths := splitPaths(m.attachInput.Value())
		m.attachInput.Blur()
		m.stage = stageCompose
		focus := m.composer.Focus()
		if len(paths) == 0 {
			return focus
		}
		m.infoMessage = "Reading attachments…"
		return tea.Batch(focus, m.spinner.Tick, m.startAttach(paths))
	}
	var cmd tea.Cmd
	m.attachInput, cmd = m.attachInput.Update(msg)
	return cmd
}

func (m *model) handleBoardKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Continue):
		m.session.Advance()
		if !m.session.Loaded() {
			return m.backToCompose("Lesson complete. Ask another question.")
		}
		m.markViewportDirty()
	case key.Matches(msg, m.keys.Previous):
		m.session.Retreat()
		m.markViewportDirty()
	case key.Matches(msg, m.keys.AutoPlay):
		m.session.ToggleAutoPlay()
		if m.session.AutoPlay() {
			m.infoMessage = "Auto-Play on."
		} else {
			m.infoMessage = "Auto-Play off."
		}
	case key.Matches(msg, m.keys.Reset):
		m.session.Restart()
		m.session.ClearFiles()
		return m.backToCompose("Session reset.")
	case key.Matches(msg, m.keys.Back):
		m.session.Restart()
		return m.backToCompose("")
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (m *model) backToCompose(info string) tea.Cmd {
	m.stage = stageCompose
	m.infoMessage = info
	m.help.ShowAll = false
	m.viewport.SetContent("")
	m.markViewportDirty()
	return m.composer.Focus()
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) refreshViewportIfDirty() {
	if !m.viewportDirty {
		return
	}
	m.viewportDirty = false
	if !m.session.Loaded() {
		return
	}
	m.viewport.SetContent(renderBoard(m.session.Board(), m.viewport.Width))
	m.viewport.GotoBottom()
}
