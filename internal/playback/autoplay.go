package playback

import (
	"time"

	"github.com/csheth/prepboard/internal/lesson"
)

const (
	// ExplainDelay gives narration more reading time than board writes.
	ExplainDelay = 2500 * time.Millisecond
	WriteDelay   = 1500 * time.Millisecond
)

// AutoPlayState describes the scheduler from the outside.
type AutoPlayState int

const (
	Idle AutoPlayState = iota
	Scheduled
	Suspended
)

func (s AutoPlayState) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Suspended:
		return "suspended"
	default:
		return "idle"
	}
}

// Timer is the handle of the single pending auto-advance. Tokens are never reused,
// so a handle that was cancelled can be recognised when it eventually fires.
type Timer struct {
	Token uint64
	Delay time.Duration
}

// Armed returns the pending timer, if any.
func (s *Session) Armed() (Timer, bool) {
	return s.timer, s.armed
}

// State reports the auto-play state.
func (s *Session) State() AutoPlayState {
	switch {
	case s.armed:
		return Scheduled
	case s.autoPlay && s.loading:
		return Suspended
	default:
		return Idle
	}
}

// Fire delivers an expired timer. Only the currently armed token advances the
// session; anything else was cancelled and is dropped.
func (s *Session) Fire(token uint64) bool {
	if !s.armed || s.timer.Token != token {
		return false
	}
	s.armed = false
	s.Advance()
	return true
}

// NextDelay picks the wait before showing the step after index.
func NextDelay(l *lesson.Lesson, index int) time.Duration {
	if next, ok := l.Step(index + 1); ok && next.Action == lesson.ActionExplain {
		return ExplainDelay
	}
	return WriteDelay
}

// reschedule cancels the pending timer and arms a fresh one when auto-play can run.
func (s *Session) reschedule() {
	s.armed = false
	s.timer = Timer{}
	if !s.autoPlay || s.loading || s.lesson == nil || s.index >= s.lesson.Final() {
		return
	}
	s.tokens++
	s.timer = Timer{Token: s.tokens, Delay: NextDelay(s.lesson, s.index)}
	s.armed = true
}
