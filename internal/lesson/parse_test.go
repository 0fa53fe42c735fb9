package lesson

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseEnvelope(t *testing.T) {
	raw := `{"lesson":[{"action":"write","content":"F = ma","position":"top"},{"action":"Explain","content":"Newton's second law."},{"action":"write","content":"a = F/m","position":"sideways"}]}`
	l, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if l.Len() != 3 {
		t.Fatalf("expected 3 steps, got %d", l.Len())
	}
	first, _ := l.Step(0)
	if first.Position != PositionTop {
		t.Fatalf("expected top position, got %q", first.Position)
	}
	second, _ := l.Step(1)
	if second.Action != ActionExplain || second.Position != PositionCenter {
		t.Fatalf("expected normalized explain step, got %+v", second)
	}
	third, _ := l.Step(2)
	if third.Position != PositionCenter {
		t.Fatalf("unknown position should default to center, got %q", third.Position)
	}
}

func TestParseRejectsBadPayloads(t *testing.T) {
	tests := map[string]string{
		"not json":       `Easy question, here is the answer`,
		"missing lesson": `{"steps":[]}`,
		"empty lesson":   `{"lesson":[]}`,
		"unknown action": `{"lesson":[{"action":"draw","content":"circle"}]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw)); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestExtractHandlesWrappedJSON(t *testing.T) {
	tests := map[string]string{
		"fenced": "```json\n{\"lesson\":[{\"action\":\"write\",\"content\":\"x = 2\"}]}\n```",
		"prose":  "Here is your lesson: {\"lesson\":[{\"action\":\"write\",\"content\":\"x = 2\"}]} Good luck!",
		"array":  "[{\"action\":\"write\",\"content\":\"x = 2\"}]",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			l, err := Extract(raw)
			if err != nil {
				t.Fatalf("extract failed: %v", err)
			}
			step, ok := l.Step(0)
			if !ok || step.Content != "x = 2" {
				t.Fatalf("unexpected first step: %+v", step)
			}
		})
	}
}

func TestExtractEmpty(t *testing.T) {
	if _, err := Extract("   "); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for empty text, got %v", err)
	}
}

func TestLessonMarshalsEnvelope(t *testing.T) {
	l := New([]Step{{Action: ActionWrite, Content: "C6H12O6 + 6O2"}})
	buf, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.HasPrefix(string(buf), `{"lesson":[`) {
		t.Fatalf("unexpected wire shape: %s", buf)
	}
	if !strings.Contains(string(buf), `"position":"center"`) {
		t.Fatalf("position should be populated on the wire: %s", buf)
	}
}
