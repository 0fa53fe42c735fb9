package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/csheth/prepboard/internal/lesson"
)

type openAIClient struct {
	apiKey string
	model  string
	base   string
	client *http.Client
}

func (c *openAIClient) Name() string {
	return fmt.Sprintf("OpenAI (%s)", c.model)
}

func (c *openAIClient) Lesson(ctx context.Context, req Request) (*lesson.Lesson, error) {
	prompt, images, err := textOnlyPrompt(req)
	if err != nil {
		return nil, err
	}
	content := []map[string]any{{"type": "text", "text": prompt}}
	for _, img := range images {
		content = append(content, map[string]any{
			"type":      "image_url",
			"image_url": map[string]string{"url": "data:" + img.MimeType + ";base64," + img.Data},
		})
	}
	raw, err := c.chat(ctx, content)
	if err != nil {
		return nil, err
	}
	return decodeLesson("openai", raw)
}

func (c *openAIClient) chat(ctx context.Context, content []map[string]any) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{"role": "system", "content": systemInstruction},
			{"role": "user", "content": content},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0.2,
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/chat/completions", c.base)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
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
		return "", fmt.Errorf("%w: openai API error: %s (%s)", ErrFetch, resp.Status, string(body))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: openai API returned no choices", ErrFetch)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
