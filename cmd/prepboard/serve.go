package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/csheth/prepboard/internal/llm"
	"github.com/csheth/prepboard/internal/logger"
	"github.com/csheth/prepboard/internal/relay"
)

func newServeCmd(global *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /api/lesson for browsers and remote terminals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*global)
			if err != nil {
				return err
			}
			if v := strings.TrimSpace(addr); v != "" {
				cfg.Relay.Addr = v
			}

			var outputs []string
			if cfg.Log.File != "" {
				outputs = append(outputs, "stderr", cfg.Log.File)
			}
			log, err := logger.New(cfg.Log.Mode, outputs...)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			switch strings.ToLower(cfg.Log.Mode) {
			case "prod", "production":
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := newClient(ctx, cfg)
			if err != nil {
				return err
			}
			if notice := fallbackNotice(cfg); notice != "" {
				log.Warn(notice)
			}
			defer func() {
				if err := llm.Close(client); err != nil {
					log.Warn("close provider", "error", err)
				}
			}()

			return relay.New(relay.OptionsFromConfig(cfg), client, log).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to :$PORT or :5000)")
	return cmd
}
