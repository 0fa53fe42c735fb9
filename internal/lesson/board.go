package lesson

import "fmt"

// BoardEntry is a persistent piece of board content derived from a write step.
type BoardEntry struct {
	ID       string
	Text     string
	Position Position
	Order    int
}

// Board is everything visible at a cursor position.
type Board struct {
	Entries        []BoardEntry
	Explanation    string
	HasExplanation bool
}

// Reconstruct rebuilds the board for target from scratch. A target of -1 (or a nil
// lesson) yields an empty board; targets past the end are clamped to the final step.
//
// An explain step fills the narration slot and any later write step clears it, so the
// narration shown always belongs to the current stretch of board work.
func Reconstruct(l *Lesson, target int) Board {
	if target > l.Final() {
		target = l.Final()
	}
	var board Board
	for i := 0; i <= target; i++ {
		step := l.steps[i]
		switch step.Action {
		case ActionWrite:
			board.Entries = append(board.Entries, BoardEntry{
				ID:       fmt.Sprintf("step-%d", i),
				Text:     step.Content,
				Position: step.Position,
				Order:    i,
			})
			board.Explanation = ""
			board.HasExplanation = false
		case ActionExplain:
			board.Explanation = step.Content
			board.HasExplanation = true
		}
	}
	return board
}
