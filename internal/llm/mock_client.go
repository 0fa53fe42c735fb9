package llm

import (
	"context"

	"github.com/csheth/prepboard/internal/lesson"
)

// MockClient returns a fixed walkthrough without touching the network. It backs
// demos, the PTY integration test and relays started without credentials.
type MockClient struct{}

func (MockClient) Name() string { return "Mock" }

func (MockClient) Lesson(ctx context.Context, req Request) (*lesson.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return lesson.New([]lesson.Step{
		{Action: lesson.ActionWrite, Content: "∫ sin x cos x dx", Position: lesson.PositionTop},
		{Action: lesson.ActionExplain, Content: "Substitute u = sin x, so du = cos x dx."},
		{Action: lesson.ActionWrite, Content: "= ∫ u du"},
		{Action: lesson.ActionWrite, Content: "= u² / 2 + C"},
		{Action: lesson.ActionExplain, Content: "Put sin x back in for u."},
		{Action: lesson.ActionWrite, Content: "= sin² x / 2 + C", Position: lesson.PositionBelow},
	}), nil
}
