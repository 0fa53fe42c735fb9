package lesson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action says whether a step writes to the board or narrates.
type Action string

const (
	ActionWrite   Action = "write"
	ActionExplain Action = "explain"
)

// Position is an advisory layout hint for board entries.
type Position string

const (
	PositionTop    Position = "top"
	PositionCenter Position = "center"
	PositionBelow  Position = "below"
)

func normalizePosition(raw Position) Position {
	switch Position(strings.ToLower(strings.TrimSpace(string(raw)))) {
	case PositionTop:
		return PositionTop
	case PositionBelow:
		return PositionBelow
	default:
		return PositionCenter
	}
}

// Step is a single scripted move of a lesson.
type Step struct {
	Action   Action   `json:"action"`
	Content  string   `json:"content"`
	Position Position `json:"position,omitempty"`
}

// Lesson is the immutable, ordered step list returned by a provider.
type Lesson struct {
	steps []Step
}

// New copies steps into a Lesson. Positions are normalized; actions are not validated.
func New(steps []Step) *Lesson {
	copied := make([]Step, len(steps))
	for i, step := range steps {
		step.Position = normalizePosition(step.Position)
		copied[i] = step
	}
	return &Lesson{steps: copied}
}

// Len reports the number of steps. A nil lesson has none.
func (l *Lesson) Len() int {
	if l == nil {
		return 0
	}
	return len(l.steps)
}

// Final is the last valid step index, or -1 for an empty lesson.
func (l *Lesson) Final() int {
	return l.Len() - 1
}

// Step returns the step at i.
func (l *Lesson) Step(i int) (Step, bool) {
	if i < 0 || i >= l.Len() {
		return Step{}, false
	}
	return l.steps[i], true
}

// Steps returns a copy of the step list.
func (l *Lesson) Steps() []Step {
	if l == nil {
		return nil
	}
	return append([]Step(nil), l.steps...)
}

type envelope struct {
	Lesson []Step `json:"lesson"`
}

// MarshalJSON encodes the lesson in its wire envelope: {"lesson": [...]}.
func (l *Lesson) MarshalJSON() ([]byte, error) {
	steps := l.Steps()
	if steps == nil {
		steps = []Step{}
	}
	return json.Marshal(envelope{Lesson: steps})
}

// UnmarshalJSON decodes and validates the wire envelope.
func (l *Lesson) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Lesson == nil {
		return fmt.Errorf("%w: missing lesson field", ErrMalformed)
	}
	parsed, err := validate(env.Lesson)
	if err != nil {
		return err
	}
	*l = *parsed
	return nil
}
