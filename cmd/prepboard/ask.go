package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/csheth/prepboard/internal/attach"
	"github.com/csheth/prepboard/internal/lesson"
	"github.com/csheth/prepboard/internal/llm"
	"github.com/csheth/prepboard/internal/logger"
	"github.com/csheth/prepboard/internal/playback"
)

func newAskCmd(global *globalOptions) *cobra.Command {
	var (
		play  bool
		files []string
	)
	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Fetch one lesson and print it as JSON, or play it back with --play",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*global)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log.Mode, firstNonEmpty(cfg.Log.File, "stderr"))
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			client, err := newClient(ctx, cfg)
			if err != nil {
				return err
			}
			if notice := fallbackNotice(cfg); notice != "" {
				log.Warn(notice)
			}
			defer llm.Close(client)

			session := playback.NewSession()
			if len(files) > 0 {
				loaded, err := attach.Load(ctx, files, cfg.Attach.MaxBytes)
				if err != nil {
					return err
				}
				session.Attach(loaded...)
			}
			req, ok := session.Begin(strings.Join(args, " "))
			if !ok {
				return errors.New("nothing to ask")
			}

			fetchCtx, cancel := context.WithTimeout(ctx, cfg.LLM.Timeout.Duration)
			defer cancel()
			l, err := client.Lesson(fetchCtx, llm.Request(req))
			if err != nil {
				log.Error("lesson fetch failed", "provider", client.Name(), "error", err)
			}
			session.Complete(l, err)
			if msg := session.Err(); msg != "" {
				return errors.New(msg)
			}

			out := cmd.OutOrStdout()
			if !play {
				return printLessonJSON(out, session.Lesson())
			}
			session.SetAutoPlay(true)
			return playback.Play(ctx, session, playback.SystemClock{}, func(f playback.Frame) {
				printFrame(out, f)
			})
		},
	}
	cmd.Flags().BoolVar(&play, "play", false, "play the lesson back with auto-play timing")
	cmd.Flags().StringSliceVar(&files, "attach", nil, "image or PDF to send with the prompt (repeatable)")
	return cmd
}

func printLessonJSON(w io.Writer, l *lesson.Lesson) error {
	raw, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func printFrame(w io.Writer, f playback.Frame) {
	_, _ = fmt.Fprintf(w, "── %s ──\n", f.Progress)
	for _, entry := range f.Board.Entries {
		_, _ = fmt.Fprintf(w, "  %s\n", entry.Text)
	}
	if f.Board.HasExplanation {
		_, _ = fmt.Fprintf(w, "  » %s\n", f.Board.Explanation)
	}
	_, _ = fmt.Fprintln(w)
}
