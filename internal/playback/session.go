package playback

import (
	"fmt"
	"strings"

	"github.com/csheth/prepboard/internal/attach"
	"github.com/csheth/prepboard/internal/lesson"
)

// FailureMessage is the only text a learner sees when a lesson cannot be produced.
const FailureMessage = "PrepBoard couldn't process that. Try a clearer question."

// Request is what a session hands to the fetch client when a lesson starts.
type Request struct {
	Prompt string
	Files  []attach.File
}

// Session holds one learner's playback state. It is driven from a single
// goroutine and every mutation goes through a transition method, each of which
// finishes by re-evaluating the auto-play timer.
type Session struct {
	lesson   *lesson.Lesson
	index    int
	autoPlay bool
	loading  bool
	errMsg   string
	files    []attach.File

	timer  Timer
	armed  bool
	tokens uint64
}

// NewSession returns an empty session with no lesson loaded.
func NewSession() *Session {
	return &Session{index: -1}
}

func (s *Session) Lesson() *lesson.Lesson { return s.lesson }
func (s *Session) Index() int             { return s.index }
func (s *Session) AutoPlay() bool         { return s.autoPlay }
func (s *Session) Loading() bool          { return s.loading }
func (s *Session) Err() string            { return s.errMsg }

// Loaded reports whether a lesson is currently playing.
func (s *Session) Loaded() bool {
	return s.lesson != nil
}

// Board reconstructs what should be on screen at the current cursor.
func (s *Session) Board() lesson.Board {
	return lesson.Reconstruct(s.lesson, s.index)
}

// IsFinal reports whether the cursor sits on the last step.
func (s *Session) IsFinal() bool {
	return s.lesson != nil && s.index >= s.lesson.Final()
}

// CanAdvance mirrors the enabled state of the continue control.
func (s *Session) CanAdvance() bool {
	return s.lesson != nil && !s.loading
}

// CanRetreat mirrors the enabled state of the previous control.
func (s *Session) CanRetreat() bool {
	return s.lesson != nil && !s.loading && s.index > 0
}

// Progress renders "Step i / n" for a loaded lesson.
func (s *Session) Progress() string {
	if s.lesson == nil {
		return ""
	}
	return fmt.Sprintf("Step %d / %d", s.index+1, s.lesson.Len())
}

// Advance moves one step forward. Advancing past the final step ends the lesson.
func (s *Session) Advance() {
	if !s.CanAdvance() {
		return
	}
	if s.index >= s.lesson.Final() {
		s.autoPlay = false
		s.unload()
	} else {
		s.index++
	}
	s.reschedule()
}

// Retreat moves one step back and always stops auto-play.
func (s *Session) Retreat() {
	s.autoPlay = false
	if s.CanRetreat() {
		s.index--
	}
	s.reschedule()
}

// Restart discards the lesson entirely and returns to the compose state.
func (s *Session) Restart() {
	s.autoPlay = false
	s.unload()
	s.reschedule()
}

// SetAutoPlay turns timed advancement on or off.
func (s *Session) SetAutoPlay(on bool) {
	s.autoPlay = on
	s.reschedule()
}

// ToggleAutoPlay flips the auto-play flag.
func (s *Session) ToggleAutoPlay() {
	s.SetAutoPlay(!s.autoPlay)
}

// Attach adds files to the pending request.
func (s *Session) Attach(files ...attach.File) {
	s.files = append(s.files, files...)
}

// Files returns a copy of the attached files.
func (s *Session) Files() []attach.File {
	return append([]attach.File(nil), s.files...)
}

// ClearFiles drops every pending attachment.
func (s *Session) ClearFiles() {
	s.files = nil
}

// DismissError hides the current failure message.
func (s *Session) DismissError() {
	s.errMsg = ""
}

// Begin starts a lesson request. It returns false without touching any state when
// there is nothing to ask or a request is already in flight.
func (s *Session) Begin(prompt string) (Request, bool) {
	prompt = strings.TrimSpace(prompt)
	if s.loading || (prompt == "" && len(s.files) == 0) {
		return Request{}, false
	}
	s.loading = true
	s.errMsg = ""
	s.unload()
	s.reschedule()
	return Request{Prompt: prompt, Files: s.Files()}, true
}

// Complete settles the in-flight request. Attachments are consumed either way.
func (s *Session) Complete(l *lesson.Lesson, err error) {
	s.loading = false
	s.files = nil
	if err == nil && l.Len() == 0 {
		err = lesson.ErrMalformed
	}
	if err != nil {
		s.unload()
		s.errMsg = FailureMessage
	} else {
		s.lesson = l
		s.index = 0
		s.errMsg = ""
	}
	s.reschedule()
}

func (s *Session) unload() {
	s.lesson = nil
	s.index = -1
}
