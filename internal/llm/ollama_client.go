package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/csheth/prepboard/internal/attach"
	"github.com/csheth/prepboard/internal/lesson"
)

type ollamaClient struct {
	host   string
	model  string
	client *http.Client
}

func (c *ollamaClient) Name() string {
	return fmt.Sprintf("Ollama (%s)", c.model)
}

func (c *ollamaClient) Lesson(ctx context.Context, req Request) (*lesson.Lesson, error) {
	prompt, images, err := textOnlyPrompt(req)
	if err != nil {
		return nil, err
	}
	raw, err := c.generate(ctx, prompt, images)
	if err != nil {
		return nil, err
	}
	return decodeLesson("ollama", raw)
}

func (c *ollamaClient) generate(ctx context.Context, prompt string, images []attach.File) (string, error) {
	payload := map[string]any{
		"model":  c.model,
		"system": systemInstruction,
		"prompt": prompt,
		"format": "json",
		"stream": false,
	}
	if len(images) > 0 {
		encoded := make([]string, 0, len(images))
		for _, img := range images {
			encoded = append(encoded, img.Data)
		}
		payload["images"] = encoded
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: ollama API error: %s (%s)", ErrFetch, resp.Status, string(body))
	}

	var parsed struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if parsed.Response == "" {
		return "", fmt.Errorf("%w: ollama returned an empty response", ErrFetch)
	}
	return strings.TrimSpace(parsed.Response), nil
}
