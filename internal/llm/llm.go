package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/csheth/prepboard/internal/attach"
	"github.com/csheth/prepboard/internal/lesson"
	"github.com/csheth/prepboard/internal/nets"
)

const (
	defaultGeminiModel = "gemini-3-pro-preview"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultOllamaModel = "qwen3-vl:8b"
	defaultOllamaHost  = "http://localhost:11434"
	defaultOpenAIBase  = "https://api.openai.com/v1"
	// PDF text is inlined into prompts for providers without document support. Lessons
	// come from short worksheets, so a generous clip keeps requests bounded.
	maxDocumentChars = 60_000
)

const defaultLLMHTTPTimeout = 3 * time.Minute

// ErrFetch marks a failed exchange with a provider (network, status or protocol).
var ErrFetch = errors.New("lesson fetch failed")

// Request is the Fetch Lesson payload: a prompt plus optional attachments.
type Request struct {
	Prompt string        `json:"prompt"`
	Files  []attach.File `json:"files"`
}

// Config describes how to build an LLM client.
type Config struct {
	Provider       string
	Model          string
	Endpoint       string
	APIKey         string
	ThinkingBudget int
	HTTPClient     *http.Client
	Dialer         nets.Dialer
}

// Client turns a request into a lesson.
type Client interface {
	Lesson(ctx context.Context, req Request) (*lesson.Lesson, error)
	Name() string
}

// New builds the client for cfg.Provider. Endpoints, models and keys fall back to
// the usual environment variables for each provider.
func New(ctx context.Context, cfg Config) (Client, error) {
	httpClient := pickHTTPClient(cfg.HTTPClient, cfg.Dialer)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gemini":
		key := firstNonEmpty(cfg.APIKey, os.Getenv("GEMINI_API_KEY"), os.Getenv("API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		return newGeminiClient(ctx, key, firstNonEmpty(cfg.Model, defaultGeminiModel), cfg.ThinkingBudget, cfg.Dialer)
	case "openai":
		key := firstNonEmpty(cfg.APIKey, os.Getenv("OPENAI_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return &openAIClient{
			apiKey: key,
			model:  firstNonEmpty(cfg.Model, os.Getenv("OPENAI_MODEL"), defaultOpenAIModel),
			base:   strings.TrimRight(firstNonEmpty(cfg.Endpoint, os.Getenv("OPENAI_BASE_URL"), defaultOpenAIBase), "/"),
			client: httpClient,
		}, nil
	case "ollama":
		return &ollamaClient{
			host:   strings.TrimRight(firstNonEmpty(cfg.Endpoint, os.Getenv("OLLAMA_HOST"), defaultOllamaHost), "/"),
			model:  firstNonEmpty(cfg.Model, os.Getenv("OLLAMA_MODEL"), defaultOllamaModel),
			client: httpClient,
		}, nil
	case "relay":
		if strings.TrimSpace(cfg.Endpoint) == "" {
			return nil, fmt.Errorf("relay provider requires an endpoint")
		}
		return &relayClient{base: strings.TrimRight(cfg.Endpoint, "/"), client: httpClient}, nil
	case "mock", "":
		return MockClient{}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// Close releases provider resources for clients that hold connections.
func Close(c Client) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func pickHTTPClient(custom *http.Client, dialer nets.Dialer) *http.Client {
	if custom != nil {
		return custom
	}
	// Lesson generation with reasoning often takes well over a minute; callers cancel through ctx.
	if dialer != nil {
		return nets.HTTPClient(dialer, defaultLLMHTTPTimeout)
	}
	return &http.Client{Timeout: defaultLLMHTTPTimeout}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
