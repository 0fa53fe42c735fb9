package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/prepboard/internal/attach"
	"github.com/csheth/prepboard/internal/lesson"
	"github.com/csheth/prepboard/internal/llm"
	"github.com/csheth/prepboard/internal/playback"
)

const defaultFetchTimeout = 3 * time.Minute

type lessonResultMsg struct {
	lesson *lesson.Lesson
	err    error
}

type attachResultMsg struct {
	files []attach.File
	err   error
}

// autoPlayTickMsg is delivered when an armed auto-play timer expires.
type autoPlayTickMsg struct {
	token uint64
}

func fetchLessonJob(client llm.Client, req llm.Request, timeout time.Duration) jobRunner {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		l, err := client.Lesson(ctx, req)
		return lessonResultMsg{lesson: l, err: err}, err
	}
}

func attachFilesJob(paths []string, maxBytes int64) jobRunner {
	toRead := append([]string(nil), paths...)
	return func(ctx context.Context) (tea.Msg, error) {
		files, err := attach.Load(ctx, toRead, maxBytes)
		return attachResultMsg{files: files, err: err}, err
	}
}

func autoPlayTickCmd(timer playback.Timer) tea.Cmd {
	token := timer.Token
	return tea.Tick(timer.Delay, func(time.Time) tea.Msg {
		return autoPlayTickMsg{token: token}
	})
}

// splitPaths accepts comma separated paths and drops blanks.
func splitPaths(raw string) []string {
	var paths []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			paths = append(paths, part)
		}
	}
	return paths
}
