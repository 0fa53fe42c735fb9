package lesson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed marks provider output that could not be turned into a lesson.
var ErrMalformed = errors.New("malformed lesson")

// Parse strictly decodes a {"lesson": [...]} envelope.
func Parse(raw []byte) (*Lesson, error) {
	var l Lesson
	if err := json.Unmarshal(raw, &l); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &l, nil
}

// Extract pulls a lesson out of free-form model text. Models regularly wrap JSON in
// markdown fences or prose, so the envelope is tried on the raw text and on the
// outermost brace span, and a bare step array is accepted as a last resort.
func Extract(text string) (*Lesson, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformed)
	}

	candidates := []string{text}
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			candidates = append(candidates, text[start:end+1])
		}
	}

	var lastErr error
	for _, candidate := range candidates {
		l, err := Parse([]byte(candidate))
		if err == nil {
			return l, nil
		}
		lastErr = err
	}

	if start := strings.Index(text, "["); start >= 0 {
		if end := strings.LastIndex(text, "]"); end > start {
			var steps []Step
			if err := json.Unmarshal([]byte(text[start:end+1]), &steps); err == nil {
				return validate(steps)
			}
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no JSON object found", ErrMalformed)
	}
	return nil, lastErr
}

func validate(steps []Step) (*Lesson, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: lesson has no steps", ErrMalformed)
	}
	for i := range steps {
		action := Action(strings.ToLower(strings.TrimSpace(string(steps[i].Action))))
		switch action {
		case ActionWrite, ActionExplain:
			steps[i].Action = action
		default:
			return nil, fmt.Errorf("%w: step %d has unknown action %q", ErrMalformed, i, steps[i].Action)
		}
	}
	return New(steps), nil
}
