package tuitest

import (
	"bytes"
	"io"
)

// terminalReplies answers the capability queries bubbletea and lipgloss send on
// startup, so the program does not stall waiting for a real terminal.
var terminalReplies = []struct {
	query, reply string
}{
	{"\x1b[6n", "\x1b[1;1R"},
	{"\x1b]10;?\x07", "\x1b]10;rgb:cccc/cccc/cccc\x07"},
	{"\x1b]10;?\x1b\\", "\x1b]10;rgb:cccc/cccc/cccc\x1b\\"},
	{"\x1b]11;?\x07", "\x1b]11;rgb:0000/0000/0000\x07"},
	{"\x1b]11;?\x1b\\", "\x1b]11;rgb:0000/0000/0000\x1b\\"},
}

type terminalResponder struct {
	w    io.Writer
	tail []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w}
}

// Process scans chunk, plus the tail of earlier reads, for queries.
func (tr *terminalResponder) Process(chunk []byte) {
	tr.tail = append(tr.tail, chunk...)
	for tr.answerOne() {
	}
	if len(tr.tail) > 256 {
		tr.tail = append([]byte(nil), tr.tail[len(tr.tail)-64:]...)
	}
}

func (tr *terminalResponder) answerOne() bool {
	first, at := -1, len(tr.tail)
	for i, r := range terminalReplies {
		if idx := bytes.Index(tr.tail, []byte(r.query)); idx >= 0 && idx < at {
			first, at = i, idx
		}
	}
	if first < 0 {
		return false
	}
	r := terminalReplies[first]
	tr.tail = tr.tail[at+len(r.query):]
	_, _ = io.WriteString(tr.w, r.reply)
	return true
}
