package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/csheth/prepboard/internal/attach"
	"github.com/csheth/prepboard/internal/lesson"
)

// relayClient talks to another PrepBoard instance running `serve`.
type relayClient struct {
	base   string
	client *http.Client
}

func (c *relayClient) Name() string {
	return fmt.Sprintf("Relay (%s)", c.base)
}

func (c *relayClient) Lesson(ctx context.Context, req Request) (*lesson.Lesson, error) {
	if req.Files == nil {
		req.Files = []attach.File{}
	}
	buf, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/lesson", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &failure) == nil && failure.Message != "" {
			return nil, fmt.Errorf("%w: relay %s: %s", ErrFetch, resp.Status, failure.Message)
		}
		return nil, fmt.Errorf("%w: relay %s (%s)", ErrFetch, resp.Status, string(body))
	}
	l, err := lesson.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}
	return l, nil
}
