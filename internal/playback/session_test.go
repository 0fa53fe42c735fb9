package playback

import (
	"errors"
	"testing"

	"github.com/csheth/prepboard/internal/attach"
	"github.com/csheth/prepboard/internal/lesson"
)

func integralLesson() *lesson.Lesson {
	return lesson.New([]lesson.Step{
		{Action: lesson.ActionWrite, Content: "∫sinx cosx dx"},
		{Action: lesson.ActionExplain, Content: "Use substitution u=sinx"},
		{Action: lesson.ActionWrite, Content: "=u du"},
		{Action: lesson.ActionWrite, Content: "=u²/2+C"},
	})
}

// loadedAt builds a session that has finished fetching and sits at index.
func loadedAt(t *testing.T, l *lesson.Lesson, index int) *Session {
	t.Helper()
	s := NewSession()
	if _, ok := s.Begin("integrate sin x cos x"); !ok {
		t.Fatal("begin should accept a non-empty prompt")
	}
	s.Complete(l, nil)
	for s.Index() < index {
		s.Advance()
	}
	return s
}

func TestIntegralWalkthrough(t *testing.T) {
	s := NewSession()
	s.lesson = integralLesson()
	if s.Index() != -1 {
		t.Fatalf("expected fresh cursor at -1, got %d", s.Index())
	}

	for want := 0; want < 4; want++ {
		s.Advance()
		if s.Index() != want {
			t.Fatalf("advance: index = %d, want %d", s.Index(), want)
		}
		board := s.Board()
		switch want {
		case 1:
			if len(board.Entries) != 1 || board.Entries[0].Text != "∫sinx cosx dx" {
				t.Fatalf("index 1: unexpected board %+v", board.Entries)
			}
			if board.Explanation != "Use substitution u=sinx" {
				t.Fatalf("index 1: explanation = %q", board.Explanation)
			}
		case 2:
			if len(board.Entries) != 2 || board.HasExplanation {
				t.Fatalf("index 2: expected two entries and no explanation, got %+v", board)
			}
		case 3:
			if len(board.Entries) != 3 || !s.IsFinal() {
				t.Fatalf("index 3: expected final board with three entries, got %+v", board)
			}
		}
	}

	s.Advance()
	if s.Loaded() || s.Index() != -1 {
		t.Fatalf("advance past the end should unload, got loaded=%v index=%d", s.Loaded(), s.Index())
	}
}

func TestAdvanceAtFinalDisablesAutoPlay(t *testing.T) {
	s := loadedAt(t, integralLesson(), 3)
	s.SetAutoPlay(true)
	s.Advance()
	if s.AutoPlay() {
		t.Fatal("auto-play should be disabled once the lesson ends")
	}
	if s.Loaded() {
		t.Fatal("lesson should be unloaded")
	}
}

func TestRetreatAtZeroOnlyStopsAutoPlay(t *testing.T) {
	s := loadedAt(t, integralLesson(), 0)
	s.SetAutoPlay(true)
	s.Retreat()
	if s.Index() != 0 {
		t.Fatalf("retreat at 0 should keep index, got %d", s.Index())
	}
	if s.AutoPlay() {
		t.Fatal("retreat should always disable auto-play")
	}
}

func TestRetreatDecrements(t *testing.T) {
	s := loadedAt(t, integralLesson(), 2)
	s.Retreat()
	if s.Index() != 1 {
		t.Fatalf("expected index 1, got %d", s.Index())
	}
	if got := s.Board().Explanation; got != "Use substitution u=sinx" {
		t.Fatalf("explanation after retreat = %q", got)
	}
}

func TestRestartReturnsToComposeState(t *testing.T) {
	s := loadedAt(t, integralLesson(), 2)
	s.SetAutoPlay(true)
	s.Restart()
	if s.Loaded() || s.Index() != -1 || s.AutoPlay() {
		t.Fatalf("restart should fully reset, got loaded=%v index=%d auto=%v", s.Loaded(), s.Index(), s.AutoPlay())
	}
}

func TestBeginWithEmptyInputIsNoop(t *testing.T) {
	s := loadedAt(t, integralLesson(), 1)
	if _, ok := s.Begin("   "); ok {
		t.Fatal("empty prompt without files should not start a request")
	}
	if !s.Loaded() || s.Index() != 1 || s.Loading() {
		t.Fatalf("state changed on a no-op begin: loaded=%v index=%d loading=%v", s.Loaded(), s.Index(), s.Loading())
	}
}

func TestBeginWithOnlyFiles(t *testing.T) {
	s := NewSession()
	s.Attach(attach.File{Name: "worksheet.png", Data: "AAAA", MimeType: "image/png"})
	req, ok := s.Begin("")
	if !ok {
		t.Fatal("attachments alone should start a request")
	}
	if len(req.Files) != 1 || req.Prompt != "" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !s.Loading() {
		t.Fatal("session should be loading")
	}
	if _, ok := s.Begin("again"); ok {
		t.Fatal("second begin while loading should be refused")
	}
}

func TestCompleteFailure(t *testing.T) {
	s := NewSession()
	s.Attach(attach.File{Name: "a.png", Data: "AAAA", MimeType: "image/png"})
	if _, ok := s.Begin("F=ma example problem"); !ok {
		t.Fatal("begin should start")
	}
	s.Complete(nil, errors.New("connection refused"))

	if s.Loading() {
		t.Fatal("loading should be cleared")
	}
	if s.Loaded() {
		t.Fatal("lesson should remain unset")
	}
	if s.Err() != FailureMessage {
		t.Fatalf("error = %q, want %q", s.Err(), FailureMessage)
	}
	if len(s.Files()) != 0 {
		t.Fatal("attachments should be cleared after a failed request")
	}
}

func TestCompleteSuccessStartsAtFirstStep(t *testing.T) {
	s := NewSession()
	s.Begin("Quadratic: x^2 - 5x + 6 = 0")
	s.Complete(integralLesson(), nil)
	if s.Index() != 0 || !s.Loaded() {
		t.Fatalf("expected lesson at index 0, got index=%d loaded=%v", s.Index(), s.Loaded())
	}
	if s.Progress() != "Step 1 / 4" {
		t.Fatalf("progress = %q", s.Progress())
	}
	s.DismissError()
	if s.Err() != "" {
		t.Fatal("no error expected")
	}
}

func TestBeginClearsPreviousLesson(t *testing.T) {
	s := loadedAt(t, integralLesson(), 2)
	if _, ok := s.Begin("Balance: C6H12O6 + O2"); !ok {
		t.Fatal("begin should start")
	}
	if s.Loaded() || s.Index() != -1 {
		t.Fatal("previous lesson should be cleared before fetching")
	}
	if s.CanAdvance() {
		t.Fatal("advance must be disabled while loading")
	}
}
