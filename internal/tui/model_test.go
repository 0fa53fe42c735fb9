package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/prepboard/internal/attach"
	"github.com/csheth/prepboard/internal/lesson"
	"github.com/csheth/prepboard/internal/llm"
	"github.com/csheth/prepboard/internal/playback"
)

type fakeLLM struct {
	mu       sync.Mutex
	requests []llm.Request
}

func (f *fakeLLM) Lesson(ctx context.Context, req llm.Request) (*lesson.Lesson, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return fixtureLesson(), nil
}

func (f *fakeLLM) Name() string { return "fake" }

func fixtureLesson() *lesson.Lesson {
	return lesson.New([]lesson.Step{
		{Action: lesson.ActionWrite, Content: "∫ sin x cos x dx", Position: lesson.PositionTop},
		{Action: lesson.ActionExplain, Content: "Let u = sin x."},
		{Action: lesson.ActionWrite, Content: "= sin² x / 2 + C"},
	})
}

func newTestModel(t *testing.T) *model {
	t.Helper()
	teaModel, ok := New(Config{LLM: &fakeLLM{}}).(*model)
	if !ok {
		t.Fatalf("expected *model, got %T", teaModel)
	}
	return teaModel
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedModel(t *testing.T) *model {
	t.Helper()
	m := newTestModel(t)
	m.composer.SetValue("Integral of sin(x)cos(x) dx")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(lessonResultMsg{lesson: fixtureLesson()})
	if m.stage != stageBoard {
		t.Fatalf("expected board stage, got %v", m.stage)
	}
	return m
}

func TestEnterWithEmptyComposerIsNoop(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.stage != stageCompose {
		t.Fatalf("stage changed on empty submit: %v", m.stage)
	}
	if m.session.Loading() {
		t.Fatal("session should not be loading after empty submit")
	}
	if !strings.Contains(m.View(), "Press Enter to start the lesson.") {
		t.Fatal("submit hint missing from compose view")
	}
}

func TestEnterStartsLesson(t *testing.T) {
	m := newTestModel(t)
	m.composer.SetValue("F=ma example problem")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("submit should return a command to start the fetch job")
	}
	if m.stage != stageLoading {
		t.Fatalf("stage not updated, got %v want %v", m.stage, stageLoading)
	}
	if !m.session.Loading() {
		t.Fatal("session should be loading")
	}
	if !strings.Contains(m.View(), "Preparing lesson…") {
		t.Fatal("loading view missing spinner text")
	}
}

func TestLessonResultShowsBoard(t *testing.T) {
	m := loadedModel(t)
	if m.session.Index() != 0 {
		t.Fatalf("expected index 0, got %d", m.session.Index())
	}
	view := m.View()
	for _, want := range []string{"Step 1 / 3", "Manual", "Continue", narrationPlaceholder, "∫ sin x cos x dx"} {
		if !strings.Contains(view, want) {
			t.Fatalf("board view missing %q:\n%s", want, view)
		}
	}
}

func TestContinueAndPrevious(t *testing.T) {
	m := loadedModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.session.Index() != 1 {
		t.Fatalf("expected index 1, got %d", m.session.Index())
	}
	if view := m.View(); !strings.Contains(view, "Let u = sin x.") {
		t.Fatalf("narration missing after advancing:\n%s", view)
	}

	m.Update(runes("l"))
	if !strings.Contains(m.View(), "Finish") {
		t.Fatal("final step should offer Finish")
	}

	m.Update(runes("h"))
	if m.session.Index() != 1 {
		t.Fatalf("expected index 1 after previous, got %d", m.session.Index())
	}
}

func TestFinishReturnsToCompose(t *testing.T) {
	m := loadedModel(t)
	for i := 0; i < 3; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	}
	if m.stage != stageCompose {
		t.Fatalf("expected compose stage after finishing, got %v", m.stage)
	}
	if m.session.Loaded() {
		t.Fatal("lesson should be unloaded after finishing")
	}
	if !m.composer.Focused() {
		t.Fatal("composer should regain focus")
	}
}

func TestLessonFailureShowsMessageAndDismisses(t *testing.T) {
	m := newTestModel(t)
	m.composer.SetValue("???")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(lessonResultMsg{err: errors.New("boom")})

	if m.stage != stageCompose {
		t.Fatalf("expected compose stage, got %v", m.stage)
	}
	if m.session.Err() != playback.FailureMessage {
		t.Fatalf("unexpected session error %q", m.session.Err())
	}
	if !strings.Contains(m.View(), playback.FailureMessage) {
		t.Fatal("failure message missing from view")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil {
		t.Fatal("esc should dismiss the error, not quit")
	}
	if m.session.Err() != "" {
		t.Fatal("error should be dismissed")
	}
}

func TestPresetStartsLesson(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3"), Alt: true})

	if got := m.composer.Value(); got != presets[2].Prompt {
		t.Fatalf("preset not applied, got %q", got)
	}
	if m.stage != stageLoading {
		t.Fatalf("preset should start the lesson, stage=%v", m.stage)
	}
}

func TestTabCyclesPresets(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.composer.Value(); got != presets[1].Prompt {
		t.Fatalf("expected second preset, got %q", got)
	}
	if m.stage != stageCompose {
		t.Fatal("cycling presets must not start a lesson")
	}
}

func TestAutoPlayTicks(t *testing.T) {
	m := loadedModel(t)

	_, cmd := m.Update(runes("p"))
	if cmd == nil {
		t.Fatal("enabling auto-play should schedule a tick")
	}
	timer, ok := m.session.Armed()
	if !ok {
		t.Fatal("expected an armed timer")
	}
	if timer.Delay != playback.ExplainDelay {
		t.Fatalf("next step explains, expected %s got %s", playback.ExplainDelay, timer.Delay)
	}
	if m.lastTick != timer.Token {
		t.Fatalf("tick for token %d not dispatched", timer.Token)
	}

	m.Update(autoPlayTickMsg{token: timer.Token + 100})
	if m.session.Index() != 0 {
		t.Fatal("stale tick must not advance")
	}

	m.Update(autoPlayTickMsg{token: timer.Token})
	if m.session.Index() != 1 {
		t.Fatalf("expected index 1 after tick, got %d", m.session.Index())
	}
	if !strings.Contains(m.View(), "Auto-Play") {
		t.Fatal("auto-play indicator missing")
	}

	m.Update(runes("h"))
	if m.session.AutoPlay() {
		t.Fatal("previous should stop auto-play")
	}
	if _, armed := m.session.Armed(); armed {
		t.Fatal("no timer should remain after manual previous")
	}
}

func TestAutoPlayFromConfig(t *testing.T) {
	m, _ := New(Config{LLM: &fakeLLM{}, AutoPlay: true}).(*model)
	m.composer.SetValue("x")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.session.State() != playback.Suspended {
		t.Fatalf("auto-play should be suspended while loading, got %s", m.session.State())
	}
	_, cmd := m.Update(lessonResultMsg{lesson: fixtureLesson()})
	if cmd == nil {
		t.Fatal("loading a lesson with auto-play on should schedule a tick")
	}
}

func TestJobEnvelopeUnwrapsPayload(t *testing.T) {
	m := newTestModel(t)
	m.composer.SetValue("x")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(jobSignalMsg{Snapshot: jobSnapshot{ID: "fetch-1", Kind: jobKindFetch, Status: jobStatusRunning}})
	if len(m.jobStatusBadges()) != 1 {
		t.Fatal("expected a running fetch badge")
	}
	m.Update(jobResultEnvelope{
		Snapshot: jobSnapshot{ID: "fetch-1", Kind: jobKindFetch, Status: jobStatusSucceeded},
		Payload:  lessonResultMsg{lesson: fixtureLesson()},
	})
	if m.stage != stageBoard {
		t.Fatalf("envelope payload not applied, stage=%v", m.stage)
	}
	if len(m.activeJobs) != 0 {
		t.Fatal("finished job still tracked")
	}
}

func TestAttachFailureLeavesSessionAlone(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	if m.stage != stageAttach {
		t.Fatalf("ctrl+a should open the attach prompt, stage=%v", m.stage)
	}
	m.Update(attachResultMsg{err: attach.ErrUnsupported})
	if m.attachError == "" {
		t.Fatal("attach error should be shown")
	}
	if m.session.Err() != "" || m.session.Loading() {
		t.Fatal("attach failure must not touch the session")
	}
	if m.stage != stageCompose {
		t.Fatalf("expected compose stage, got %v", m.stage)
	}
}

func TestAttachmentsGoOutWithRequest(t *testing.T) {
	client := &fakeLLM{}
	m, _ := New(Config{LLM: client}).(*model)
	m.Update(attachResultMsg{files: []attach.File{{Name: "sheet.png", MimeType: "image/png", Data: "cG5n"}}})
	if !strings.Contains(m.View(), "sheet.png") {
		t.Fatal("attachment chip missing")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.session.Loading() {
		t.Fatal("attachments alone should be enough to start a lesson")
	}
	if len(m.session.Files()) != 1 {
		t.Fatal("attachments are kept until the request settles")
	}
	m.Update(lessonResultMsg{lesson: fixtureLesson()})
	if len(m.session.Files()) != 0 {
		t.Fatal("attachments should be consumed by the request")
	}
}

func TestResetReturnsToCompose(t *testing.T) {
	m := loadedModel(t)
	m.Update(runes("p"))
	m.Update(runes("r"))
	if m.stage != stageCompose || m.session.Loaded() {
		t.Fatal("reset should unload the lesson")
	}
	if m.session.AutoPlay() {
		t.Fatal("reset turns auto-play off")
	}
}

func TestEscQuitsFromCleanCompose(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc on a clean compose screen should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestLateAttachFailureKeepsBoard(t *testing.T) {
	m := loadedModel(t)
	m.Update(attachResultMsg{err: errors.New("sheet.tiff: unsupported")})
	if m.stage != stageBoard {
		t.Fatalf("stage left the board while a lesson is loaded: %v", m.stage)
	}
	if !m.session.Loaded() {
		t.Fatal("lesson should stay loaded")
	}
	if m.attachError == "" {
		t.Fatal("attach error should still be recorded for the compose view")
	}
}

func TestLateAttachWhileLoadingIsDropped(t *testing.T) {
	m := newTestModel(t)
	m.composer.SetValue("F=ma example problem")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.session.Loading() {
		t.Fatal("expected loading")
	}
	m.Update(attachResultMsg{files: []attach.File{{Name: "late.png", MimeType: "image/png", Data: "cG5n"}}})
	if m.stage != stageLoading {
		t.Fatalf("stage changed while loading: %v", m.stage)
	}
	if len(m.session.Files()) != 0 {
		t.Fatal("files that missed the request must not be attached")
	}
	if !strings.Contains(m.infoMessage, "too late") {
		t.Fatalf("expected a notice, got %q", m.infoMessage)
	}
}

func TestLateAttachOnBoardWaitsForNextQuestion(t *testing.T) {
	m := loadedModel(t)
	m.Update(attachResultMsg{files: []attach.File{{Name: "next.png", MimeType: "image/png", Data: "cG5n"}}})
	if m.stage != stageBoard {
		t.Fatalf("stage left the board: %v", m.stage)
	}
	if len(m.session.Files()) != 1 {
		t.Fatal("files should be kept for the next question")
	}
}

func TestQuestionWaitsForPendingAttachments(t *testing.T) {
	client := &fakeLLM{}
	m, _ := New(Config{LLM: client}).(*model)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	m.attachInput.SetValue("sheet.png")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.stage != stageCompose {
		t.Fatalf("enter should return to compose, stage=%v", m.stage)
	}
	if m.attaching != 1 {
		t.Fatalf("expected one attach job, got %d", m.attaching)
	}

	m.composer.SetValue("Balance: C6H12O6 + O2")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.session.Loading() {
		t.Fatal("question must wait for the attachments")
	}
	if m.pendingPrompt != "Balance: C6H12O6 + O2" {
		t.Fatalf("question not queued, got %q", m.pendingPrompt)
	}

	m.Update(attachResultMsg{files: []attach.File{{Name: "sheet.png", MimeType: "image/png", Data: "cG5n"}}})
	if !m.session.Loading() || m.stage != stageLoading {
		t.Fatalf("queued question should start, loading=%v stage=%v", m.session.Loading(), m.stage)
	}
	if len(m.session.Files()) != 1 {
		t.Fatal("attachments should go out with the queued question")
	}
	if m.attaching != 0 {
		t.Fatalf("attach counter not settled: %d", m.attaching)
	}
}

func TestNoticeShownUntilLessonLoads(t *testing.T) {
	m, _ := New(Config{LLM: &fakeLLM{}, Notice: "Showing the built-in demo lesson."}).(*model)
	if !strings.Contains(m.View(), "built-in demo lesson") {
		t.Fatal("notice missing from compose view")
	}
	m.composer.SetValue("Quadratic: x^2 - 5x + 6 = 0")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(lessonResultMsg{lesson: fixtureLesson()})
	if strings.Contains(m.View(), "built-in demo lesson") {
		t.Fatal("notice should not cover the board")
	}
}
