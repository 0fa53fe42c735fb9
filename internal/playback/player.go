package playback

import (
	"context"
	"time"

	"github.com/csheth/prepboard/internal/lesson"
)

// Clock abstracts waiting so headless playback stays deterministic in tests.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// SystemClock waits on real time.
type SystemClock struct{}

func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Frame is one observed board state during headless playback.
type Frame struct {
	Index    int
	Progress string
	Board    lesson.Board
}

// Play drives an auto-playing session until nothing is armed or ctx ends. observe
// sees the current board first and then every board reached by a timer.
func Play(ctx context.Context, s *Session, clock Clock, observe func(Frame)) error {
	if clock == nil {
		clock = SystemClock{}
	}
	emit := func() {
		if observe != nil && s.Loaded() {
			observe(Frame{Index: s.Index(), Progress: s.Progress(), Board: s.Board()})
		}
	}
	emit()
	for {
		timer, ok := s.Armed()
		if !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(timer.Delay):
		}
		if s.Fire(timer.Token) {
			emit()
		}
	}
}
