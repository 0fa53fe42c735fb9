package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/csheth/prepboard/internal/config"
	"github.com/csheth/prepboard/internal/llm"
	"github.com/csheth/prepboard/internal/logger"
	"github.com/csheth/prepboard/internal/nets"
	"github.com/csheth/prepboard/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalOptions struct {
	configPath string
	provider   string
	model      string
	endpoint   string
}

type tuiOptions struct {
	attach      []string
	prompt      string
	autoplay    bool
	noAltScreen bool
	logFile     string
}

func newRootCmd() *cobra.Command {
	var global globalOptions
	var opts tuiOptions

	root := &cobra.Command{
		Use:           "prepboard",
		Short:         "Step-by-step whiteboard lessons from an LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), global, opts)
		},
	}
	root.PersistentFlags().StringVar(&global.configPath, "config", "", "YAML config file (defaults to $PREPBOARD_CONFIG)")
	root.PersistentFlags().StringVar(&global.provider, "provider", "", "lesson provider: gemini|openai|ollama|relay|mock")
	root.PersistentFlags().StringVar(&global.model, "model", "", "provider model override")
	root.PersistentFlags().StringVar(&global.endpoint, "endpoint", "", "provider endpoint (Ollama host, OpenAI base URL or relay URL)")
	addTUIFlags(root.Flags(), &opts)

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal lesson player",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), global, opts)
		},
	}
	addTUIFlags(tuiCmd.Flags(), &opts)

	root.AddCommand(tuiCmd)
	root.AddCommand(newServeCmd(&global))
	root.AddCommand(newAskCmd(&global))
	return root
}

func addTUIFlags(flags *pflag.FlagSet, opts *tuiOptions) {
	flags.StringSliceVar(&opts.attach, "attach", nil, "image or PDF to send with the first question (repeatable)")
	flags.StringVar(&opts.prompt, "prompt", "", "start a lesson for this question immediately")
	flags.BoolVar(&opts.autoplay, "autoplay", false, "start with auto-play enabled")
	flags.BoolVar(&opts.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	flags.StringVar(&opts.logFile, "log-file", "", "log file (defaults to prepboard.log in the user cache dir)")
}

// loadConfig layers command-line flags over the file and environment config.
func loadConfig(global globalOptions) (*config.Config, error) {
	cfg, err := config.Load(global.configPath)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(global.provider); v != "" {
		cfg.LLM.Provider = v
	}
	if v := strings.TrimSpace(global.model); v != "" {
		cfg.LLM.Model = v
	}
	if v := strings.TrimSpace(global.endpoint); v != "" {
		cfg.LLM.Endpoint = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	proxyAddr := cfg.LLM.Proxy
	if proxyAddr == "" {
		proxyAddr = nets.ProxyAddr()
	}
	dialer, err := nets.NewDialer(proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("proxy %q: %w", proxyAddr, err)
	}
	apiKey := cfg.LLM.APIKey
	provider := cfg.ResolveProvider()
	if provider == config.ProviderGemini {
		apiKey = cfg.GeminiKey()
	}
	return llm.New(ctx, llm.Config{
		Provider:       provider,
		Model:          cfg.LLM.Model,
		Endpoint:       cfg.LLM.Endpoint,
		APIKey:         apiKey,
		ThinkingBudget: cfg.LLM.ThinkingBudget,
		HTTPClient:     nets.HTTPClient(dialer, cfg.LLM.Timeout.Duration),
		Dialer:         dialer,
	})
}

// fallbackNotice explains why lessons are canned when no provider was chosen and
// no credentials were found.
func fallbackNotice(cfg *config.Config) string {
	if cfg.LLM.Provider != "" || cfg.ResolveProvider() != config.ProviderMock {
		return ""
	}
	return "No provider configured (set GEMINI_API_KEY, OPENAI_API_KEY or OLLAMA_HOST). Showing the built-in demo lesson."
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "prepboard", "prepboard.log")
}

func runTUI(ctx context.Context, global globalOptions, opts tuiOptions) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	logPath := firstNonEmpty(opts.logFile, cfg.Log.File, defaultLogFile())
	log, err := logger.New(cfg.Log.Mode, logPath)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := llm.Close(client); err != nil {
			log.Warn("close provider", "error", err)
		}
	}()
	log.Info("starting tui", "provider", client.Name(), "autoplay", opts.autoplay)
	notice := fallbackNotice(cfg)
	if notice != "" {
		log.Warn("falling back to the mock provider")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	programOpts := []tea.ProgramOption{}
	if !opts.noAltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			LLM:            client,
			Logger:         log,
			Context:        ctx,
			AutoPlay:       opts.autoplay,
			Prompt:         opts.prompt,
			Notice:         notice,
			Attachments:    opts.attach,
			MaxAttachBytes: cfg.Attach.MaxBytes,
			FetchTimeout:   cfg.LLM.Timeout.Duration,
		}),
		programOpts...,
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
