package llm

import (
	"fmt"
	"strings"

	"github.com/csheth/prepboard/internal/attach"
	"github.com/csheth/prepboard/internal/lesson"
	"github.com/csheth/prepboard/internal/worksheet"
)

// DefaultPrompt stands in for an empty prompt when only attachments were sent.
const DefaultPrompt = "Solve the problem shown."

const systemInstruction = `You are PrepBoard, an elite STEM tutor. Your goal is to simulate a real whiteboard experience.

BOARD RULES:
1. NEVER write complex equations on a single line.
2. Use VERTICAL progression (one step per line).
3. 'write' actions are for the board (use clean text or LaTeX).
4. 'explain' actions must be exactly 1 concise sentence.
5. If solving an integral or complex equation, break it down into at least 4-5 steps.

You must output ONLY valid JSON.`

// lessonFormat spells out the response shape for providers without schema support.
const lessonFormat = `Respond with a JSON object of the form {"lesson":[{"action":"write|explain","content":"...","position":"top|center|below"}]}. ` +
	`"action" and "content" are required; "position" is optional.`

func promptText(req Request) string {
	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		return prompt
	}
	return DefaultPrompt
}

// textOnlyPrompt prepares a request for providers that accept images but not
// documents: PDF attachments are flattened into the prompt and images are returned
// for the provider's own image field.
func textOnlyPrompt(req Request) (string, []attach.File, error) {
	var b strings.Builder
	b.WriteString(promptText(req))
	var images []attach.File
	for _, f := range req.Files {
		switch {
		case f.IsImage():
			images = append(images, f)
		case f.IsPDF():
			text, err := attach.PDFText(f)
			if err != nil {
				return "", nil, err
			}
			if text = worksheet.Condense(text, maxDocumentChars).Text; text == "" {
				continue
			}
			name := f.Name
			if name == "" {
				name = "document.pdf"
			}
			fmt.Fprintf(&b, "\n\nAttached document (%s):\n%s", name, text)
		default:
			return "", nil, fmt.Errorf("%w: %s", attach.ErrUnsupported, f.MimeType)
		}
	}
	b.WriteString("\n\n")
	b.WriteString(lessonFormat)
	return b.String(), images, nil
}

func decodeLesson(provider, raw string) (*lesson.Lesson, error) {
	l, err := lesson.Extract(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", provider, err)
	}
	return l, nil
}
