package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted by llm.provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderRelay  = "relay"
	ProviderMock   = "mock"
)

// Duration decodes YAML strings such as "90s" as well as integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	value := strings.TrimSpace(node.Value)
	if value == "" {
		d.Duration = 0
		return nil
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		d.Duration = parsed
		return nil
	}
	var n int64
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("duration must be a string like \"5s\" or integer nanoseconds: %q", value)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

type LogConfig struct {
	Mode string `yaml:"mode"`
	File string `yaml:"file"`
}

type LLMConfig struct {
	Provider string   `yaml:"provider"`
	Model    string   `yaml:"model"`
	Endpoint string   `yaml:"endpoint"`
	APIKey   string   `yaml:"api_key"`
	Timeout  Duration `yaml:"timeout"`
	// ThinkingBudget caps Gemini reasoning tokens; zero disables the thinking config.
	ThinkingBudget int `yaml:"thinking_budget"`
	Proxy          string `yaml:"proxy"`
}

type RelayConfig struct {
	Addr              string   `yaml:"addr"`
	MaxRequestBytes   int64    `yaml:"max_request_bytes"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	IdleTimeout       Duration `yaml:"idle_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
	AllowOrigins      []string `yaml:"allow_origins"`
	// Tracing selects the span exporter: "", "stdout" or "otlp".
	Tracing string `yaml:"tracing"`
}

type AttachConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// Config is the full runtime configuration shared by every subcommand.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	LLM    LLMConfig    `yaml:"llm"`
	Relay  RelayConfig  `yaml:"relay"`
	Attach AttachConfig `yaml:"attach"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Log: LogConfig{Mode: "development"},
		LLM: LLMConfig{
			Timeout:        Duration{3 * time.Minute},
			ThinkingBudget: 2000,
		},
		Relay: RelayConfig{
			Addr:              ":5000",
			MaxRequestBytes:   10 << 20,
			ReadHeaderTimeout: Duration{5 * time.Second},
			IdleTimeout:       Duration{2 * time.Minute},
			ShutdownTimeout:   Duration{15 * time.Second},
			AllowOrigins:      []string{"*"},
		},
		Attach: AttachConfig{MaxBytes: 6 << 20},
	}
}

// Validate normalizes and checks the configuration.
func (c *Config) Validate() error {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	switch c.LLM.Provider {
	case "", ProviderGemini, ProviderOpenAI, ProviderOllama, ProviderRelay, ProviderMock:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	c.LLM.Endpoint = strings.TrimRight(strings.TrimSpace(c.LLM.Endpoint), "/")
	if c.LLM.Provider == ProviderRelay && c.LLM.Endpoint == "" {
		return fmt.Errorf("relay provider requires llm.endpoint")
	}
	if c.LLM.Timeout.Duration <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	if c.LLM.ThinkingBudget < 0 {
		return fmt.Errorf("llm.thinking_budget must not be negative")
	}
	if strings.TrimSpace(c.Relay.Addr) == "" {
		return fmt.Errorf("relay.addr is required")
	}
	if c.Relay.MaxRequestBytes <= 0 {
		return fmt.Errorf("relay.max_request_bytes must be positive")
	}
	if c.Attach.MaxBytes <= 0 {
		return fmt.Errorf("attach.max_bytes must be positive")
	}
	c.Relay.Tracing = strings.ToLower(strings.TrimSpace(c.Relay.Tracing))
	switch c.Relay.Tracing {
	case "", "stdout", "otlp":
	default:
		return fmt.Errorf("unknown relay.tracing exporter %q", c.Relay.Tracing)
	}
	return nil
}
