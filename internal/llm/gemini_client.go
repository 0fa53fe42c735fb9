package llm

import (
	"context"
	"fmt"
	"net"
	"strings"

	generativelanguage "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"google.golang.org/api/option"
	"google.golang.org/grpc"

	"github.com/csheth/prepboard/internal/lesson"
	"github.com/csheth/prepboard/internal/nets"
)

type geminiClient struct {
	client         *generativelanguage.GenerativeClient
	model          string
	thinkingBudget int
}

func newGeminiClient(ctx context.Context, apiKey, model string, thinkingBudget int, dialer nets.Dialer) (*geminiClient, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if dialer != nil {
		opts = append(opts, option.WithGRPCDialOption(
			grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
				return dialer.DialContext(ctx, "tcp", addr)
			}),
		))
	}
	client, err := generativelanguage.NewGenerativeClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &geminiClient{client: client, model: model, thinkingBudget: thinkingBudget}, nil
}

func (c *geminiClient) Name() string {
	return fmt.Sprintf("Gemini (%s)", c.model)
}

func (c *geminiClient) Close() error {
	return c.client.Close()
}

func (c *geminiClient) Lesson(ctx context.Context, req Request) (*lesson.Lesson, error) {
	pbReq, err := geminiRequest(c.model, c.thinkingBudget, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.GenerateContent(ctx, pbReq)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", ErrFetch, err)
	}
	raw, err := geminiText(resp)
	if err != nil {
		return nil, err
	}
	return decodeLesson("gemini", raw)
}

func geminiRequest(model string, thinkingBudget int, req Request) (*generativelanguagepb.GenerateContentRequest, error) {
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	parts := []*generativelanguagepb.Part{textPart(promptText(req))}
	for _, f := range req.Files {
		if !f.IsImage() && !f.IsPDF() {
			return nil, fmt.Errorf("gemini: unsupported attachment type %s", f.MimeType)
		}
		data, err := f.Bytes()
		if err != nil {
			return nil, err
		}
		parts = append(parts, &generativelanguagepb.Part{
			Data: &generativelanguagepb.Part_InlineData{
				InlineData: &generativelanguagepb.Blob{MimeType: f.MimeType, Data: data},
			},
		})
	}

	genConfig := &generativelanguagepb.GenerationConfig{
		ResponseMimeType: "application/json",
		ResponseSchema:   lessonSchema(),
	}
	if thinkingBudget > 0 {
		budget := int32(thinkingBudget)
		genConfig.ThinkingConfig = &generativelanguagepb.ThinkingConfig{ThinkingBudget: &budget}
	}

	return &generativelanguagepb.GenerateContentRequest{
		Model: model,
		Contents: []*generativelanguagepb.Content{
			{Role: "user", Parts: parts},
		},
		SystemInstruction: &generativelanguagepb.Content{
			Parts: []*generativelanguagepb.Part{textPart(systemInstruction)},
		},
		GenerationConfig: genConfig,
	}, nil
}

func textPart(text string) *generativelanguagepb.Part {
	return &generativelanguagepb.Part{
		Data: &generativelanguagepb.Part_Text{Text: text},
	}
}

func lessonSchema() *generativelanguagepb.Schema {
	str := func(desc string) *generativelanguagepb.Schema {
		return &generativelanguagepb.Schema{Type: generativelanguagepb.Type_STRING, Description: desc}
	}
	return &generativelanguagepb.Schema{
		Type: generativelanguagepb.Type_OBJECT,
		Properties: map[string]*generativelanguagepb.Schema{
			"lesson": {
				Type: generativelanguagepb.Type_ARRAY,
				Items: &generativelanguagepb.Schema{
					Type: generativelanguagepb.Type_OBJECT,
					Properties: map[string]*generativelanguagepb.Schema{
						"action":   str("Either 'write' or 'explain'"),
						"content":  str("The text/LaTeX for the board or the verbal explanation."),
						"position": str("Position: top, center, below."),
					},
					Required: []string{"action", "content"},
				},
			},
		},
		Required: []string{"lesson"},
	}
}

func geminiText(resp *generativelanguagepb.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.GetCandidates()) == 0 {
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrFetch)
	}
	var b strings.Builder
	for _, part := range resp.GetCandidates()[0].GetContent().GetParts() {
		b.WriteString(part.GetText())
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned an empty response", ErrFetch)
	}
	return text, nil
}
