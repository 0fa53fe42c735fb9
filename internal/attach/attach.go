package attach

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxBytes caps a single attachment. The relay body limit is 10 MiB and base64
// inflates by a third, so one file has to stay well below that.
const DefaultMaxBytes = 6 << 20

const mimePDF = "application/pdf"

var (
	// ErrUnsupported is returned for files that are neither images nor PDFs.
	ErrUnsupported = errors.New("unsupported attachment type")
	// ErrTooLarge is returned when a file exceeds the configured size cap.
	ErrTooLarge = errors.New("attachment too large")
)

var extraneousWhitespace = regexp.MustCompile(`\s+`)

// File is an attachment ready to send: base64 payload plus its MIME type.
type File struct {
	Name     string `json:"name,omitempty"`
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// IsImage reports whether the attachment is an image.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

// IsPDF reports whether the attachment is a PDF document.
func (f File) IsPDF() bool {
	return f.MimeType == mimePDF
}

// Bytes decodes the base64 payload.
func (f File) Bytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(f.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.label(), err)
	}
	return raw, nil
}

func (f File) label() string {
	if f.Name != "" {
		return f.Name
	}
	return "attachment"
}

// Read loads one file from disk, sniffs its type and encodes it.
func Read(path string, maxBytes int64) (File, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxBytes {
		return File{}, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrTooLarge, filepath.Base(path), info.Size(), maxBytes)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return FromBytes(filepath.Base(path), raw)
}

// FromBytes wraps an in-memory payload, detecting its type from content.
func FromBytes(name string, raw []byte) (File, error) {
	detected := mimetype.Detect(raw)
	mime := detected.String()
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	f := File{
		Name:     name,
		Data:     base64.StdEncoding.EncodeToString(raw),
		MimeType: mime,
	}
	if !f.IsImage() && !f.IsPDF() {
		return File{}, fmt.Errorf("%w: %s (%s)", ErrUnsupported, name, mime)
	}
	return f, nil
}

// Load reads every path concurrently and returns the files in argument order. It
// only returns once all reads have finished; any failure fails the whole batch.
func Load(ctx context.Context, paths []string, maxBytes int64) ([]File, error) {
	files := make([]File, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := Read(path, maxBytes)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// PDFText extracts the plain text of a PDF attachment for providers that only
// accept images.
func PDFText(f File) (string, error) {
	if !f.IsPDF() {
		return "", fmt.Errorf("%w: %s is not a PDF", ErrUnsupported, f.label())
	}
	raw, err := f.Bytes()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", err
	}
	text := extraneousWhitespace.ReplaceAllString(builder.String(), " ")
	return strings.TrimSpace(text), nil
}
