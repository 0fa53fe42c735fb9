package relay

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/csheth/prepboard/internal/attach"
	"github.com/csheth/prepboard/internal/llm"
)

// FailureTitle is the fixed "error" field of every failed lesson response.
const FailureTitle = "PrepBoard encountered a problem."

type failure struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// wireFile accepts both the documented mimeType field and the browser File.type name.
type wireFile struct {
	Name     string `json:"name"`
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
	Type     string `json:"type"`
}

type lessonRequest struct {
	Prompt string     `json:"prompt"`
	Files  []wireFile `json:"files"`
}

func (r lessonRequest) toLLM() llm.Request {
	req := llm.Request{Prompt: strings.TrimSpace(r.Prompt)}
	for _, f := range r.Files {
		mime := f.MimeType
		if mime == "" {
			mime = f.Type
		}
		req.Files = append(req.Files, attach.File{Name: f.Name, Data: f.Data, MimeType: mime})
	}
	return req
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) lesson(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxRequestBytes)

	var body lessonRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, errors.New("request body exceeds the size limit"))
			return
		}
		s.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if s.opts.LessonTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.LessonTimeout)
		defer cancel()
	}

	req := body.toLLM()
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("prepboard.provider", s.client.Name()),
		attribute.Int("prepboard.files", len(req.Files)),
	)

	l, err := s.client.Lesson(ctx, req)
	if err != nil {
		span.RecordError(err)
		s.fail(c, err)
		return
	}
	span.SetAttributes(attribute.Int("prepboard.steps", l.Len()))
	c.JSON(http.StatusOK, l)
}

func (s *Server) fail(c *gin.Context, err error) {
	s.log.Error("lesson request failed",
		"request_id", c.GetString(ctxKeyRequestID),
		"path", c.Request.URL.Path,
		"error", err,
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, failure{Error: FailureTitle, Message: err.Error()})
}
