package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load layers defaults, the YAML file at path (or $PREPBOARD_CONFIG) and the
// environment. A missing file is only an error when the path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = strings.TrimSpace(os.Getenv("PREPBOARD_CONFIG"))
		explicit = path != ""
	}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := env("LOG_MODE"); v != "" {
		cfg.Log.Mode = v
	}
	if v := env("PREPBOARD_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := env("PREPBOARD_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := env("PREPBOARD_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := env("PREPBOARD_RELAY_URL"); v != "" && cfg.LLM.Endpoint == "" {
		cfg.LLM.Endpoint = v
		if cfg.LLM.Provider == "" {
			cfg.LLM.Provider = ProviderRelay
		}
	}
	if v := env("PREPBOARD_PROXY"); v != "" {
		cfg.LLM.Proxy = v
	}
	if v := env("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			cfg.Relay.Addr = ":" + v
		}
	}
	if v := env("PREPBOARD_ADDR"); v != "" {
		cfg.Relay.Addr = v
	}
	if v := env("PREPBOARD_TRACING"); v != "" {
		switch {
		case parseBool(v):
			cfg.Relay.Tracing = "stdout"
		case strings.EqualFold(v, "otlp"), strings.EqualFold(v, "stdout"):
			cfg.Relay.Tracing = v
		}
	}
}

// ResolveProvider picks a provider when none was configured. A Gemini key wins,
// then an OpenAI key, then a local Ollama when a host or endpoint is set; with
// nothing configured the built-in mock is used.
func (c *Config) ResolveProvider() string {
	if c.LLM.Provider != "" {
		return c.LLM.Provider
	}
	switch {
	case c.GeminiKey() != "":
		return ProviderGemini
	case env("OPENAI_API_KEY") != "":
		return ProviderOpenAI
	case env("OLLAMA_HOST") != "" || c.LLM.Endpoint != "":
		return ProviderOllama
	default:
		return ProviderMock
	}
}

// GeminiKey returns the configured Gemini key, falling back to the environment.
func (c *Config) GeminiKey() string {
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	if v := env("GEMINI_API_KEY"); v != "" {
		return v
	}
	return env("API_KEY")
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
