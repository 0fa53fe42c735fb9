package tuitest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// pollInterval is how often WaitFor re-reads the captured output.
const pollInterval = 50 * time.Millisecond

// Step is one scripted interaction. Exactly one of its fields is normally set.
type Step struct {
	Delay time.Duration
	Input []byte
	// Until blocks the script until the plain-text output contains the string.
	Until string
}

// Script is an ordered list of steps, built fluently:
//
//	tuitest.Script{}.WaitFor("PREPBOARD").Press(tuitest.Alt('1')).Wait(time.Second)
type Script []Step

// Wait pauses for d.
func (s Script) Wait(d time.Duration) Script {
	return append(s, Step{Delay: d})
}

// Press sends each key in order.
func (s Script) Press(keys ...[]byte) Script {
	for _, k := range keys {
		s = append(s, Step{Input: k})
	}
	return s
}

// Type sends text as typed characters.
func (s Script) Type(text string) Script {
	return append(s, Step{Input: []byte(text)})
}

// WaitFor blocks until text has been drawn.
func (s Script) WaitFor(text string) Script {
	return append(s, Step{Until: text})
}

func (s Script) replay(ctx context.Context, w io.Writer, out *capture) error {
	for i, step := range s {
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("tuitest: step %d: %w", i, ctx.Err())
			case <-time.After(step.Delay):
			}
		}
		if step.Until != "" {
			if err := waitForText(ctx, out, step.Until); err != nil {
				return fmt.Errorf("tuitest: step %d: %w", i, err)
			}
		}
		if len(step.Input) > 0 {
			if _, err := w.Write(step.Input); err != nil {
				return fmt.Errorf("tuitest: step %d: write input: %w", i, err)
			}
		}
	}
	return nil
}

func waitForText(ctx context.Context, out *capture, text string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if strings.Contains(stripANSI(out.String()), text) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %q: %w", text, ctx.Err())
		case <-ticker.C:
		}
	}
}

var (
	KeyEnter = []byte{'\r'}
	KeyCtrlC = []byte{3}
	KeyEsc   = []byte{27}
	KeyTab   = []byte{'\t'}
	KeyRight = []byte("\x1b[C")
	KeyLeft  = []byte("\x1b[D")
)

// Alt encodes alt+r the way terminals send it: ESC followed by the key.
func Alt(r rune) []byte {
	return append([]byte{27}, string(r)...)
}
