package tui

import (
	"strings"
	"testing"

	"github.com/csheth/prepboard/internal/lesson"
)

func TestPageLayoutUpdate(t *testing.T) {
	cases := []struct {
		name           string
		width          int
		height         int
		viewportWidth  int
		viewportHeight int
		inputWidth     int
	}{
		{name: "standard", width: 100, height: 40, viewportWidth: 96, viewportHeight: 28, inputWidth: 92},
		{name: "tiny", width: 60, height: 12, viewportWidth: 56, viewportHeight: 5, inputWidth: 52},
		{name: "wide", width: 300, height: 50, viewportWidth: 296, viewportHeight: 38, inputWidth: 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := newPageLayout()
			layout.Update(tc.width, tc.height)
			if layout.viewportWidth != tc.viewportWidth {
				t.Fatalf("viewport width mismatch: got %d want %d", layout.viewportWidth, tc.viewportWidth)
			}
			if layout.viewportHeight != tc.viewportHeight {
				t.Fatalf("viewport height mismatch: got %d want %d", layout.viewportHeight, tc.viewportHeight)
			}
			if layout.inputWidth != tc.inputWidth {
				t.Fatalf("input width mismatch: got %d want %d", layout.inputWidth, tc.inputWidth)
			}
		})
	}
}

func TestRenderBoardKeepsStepOrder(t *testing.T) {
	board := lesson.Reconstruct(fixtureLesson(), 2)
	out := renderBoard(board, 60)
	first := strings.Index(out, "∫ sin x cos x dx")
	second := strings.Index(out, "= sin² x / 2 + C")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("entries missing or out of order:\n%s", out)
	}
	if strings.Contains(out, "Let u = sin x.") {
		t.Fatal("narration must not be written on the board")
	}
}

func TestRenderBoardEmpty(t *testing.T) {
	if out := renderBoard(lesson.Board{}, 60); !strings.Contains(out, "empty") {
		t.Fatalf("unexpected empty board rendering: %q", out)
	}
}
