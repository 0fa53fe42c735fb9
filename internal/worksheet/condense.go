// Package worksheet shrinks text extracted from attached PDFs so it fits in a
// prompt for providers that cannot read documents directly.
package worksheet

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Chunk is one distinct paragraph of the source document.
type Chunk struct {
	ID    string
	Text  string
	Order int
	Score int
}

// Digest is the condensed form of a document.
type Digest struct {
	Chunks []Chunk
	Text   string
}

var (
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	spaceRun       = regexp.MustCompile(`\s+`)
	pageMarker     = regexp.MustCompile(`(?i)^(page\s*)?\d+(\s*(of|/)\s*\d+)?$`)
	problemNumber  = regexp.MustCompile(`^(\(?[0-9]{1,2}[.)]|\(?[a-h]\)|Q[0-9]+|Problem\s+[0-9]+)`)
)

var problemWords = []string{
	"solve", "find", "calculate", "evaluate", "determine", "prove", "show that",
	"simplify", "integrate", "differentiate", "balance", "compute", "derive", "?",
}

// Condense splits text into paragraphs, drops repeats and page furniture, and
// keeps as much as fits in budget runes. When everything does not fit, paragraphs
// that read like problems win over prose, and the survivors keep document order.
func Condense(text string, budget int) Digest {
	chunks := split(text)
	return Digest{Chunks: chunks, Text: fit(chunks, budget)}
}

func split(text string) []Chunk {
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n\n").Replace(text)
	seen := map[string]bool{}
	var chunks []Chunk
	for _, paragraph := range paragraphBreak.Split(text, -1) {
		flat := strings.TrimSpace(spaceRun.ReplaceAllString(paragraph, " "))
		if isFurniture(flat) {
			continue
		}
		id := hashChunk(strings.ToLower(flat))
		if seen[id] {
			continue
		}
		seen[id] = true
		chunks = append(chunks, Chunk{ID: id, Text: flat, Order: len(chunks), Score: problemScore(flat)})
	}
	return chunks
}

// isFurniture reports paragraphs that carry no content: page numbers, bare
// headings like "Name:" and lines that are mostly symbols.
func isFurniture(p string) bool {
	if p == "" || pageMarker.MatchString(p) {
		return true
	}
	lower := strings.ToLower(p)
	for _, prefix := range []string{"name:", "date:", "class:", "period:", "copyright", "all rights reserved"} {
		if strings.HasPrefix(lower, prefix) && len(lower) < 60 {
			return true
		}
	}
	letters, digits := 0, 0
	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	return letters+digits == 0
}

func problemScore(p string) int {
	lower := strings.ToLower(p)
	score := 0
	if problemNumber.MatchString(p) {
		score += 2
	}
	for _, w := range problemWords {
		if strings.Contains(lower, w) {
			score++
		}
	}
	if strings.ContainsAny(p, "=∫√∑πθ^") {
		score++
	}
	return score
}

func hashChunk(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:8])
}

const separator = "\n\n"

func fit(chunks []Chunk, budget int) string {
	if budget <= 0 || len(chunks) == 0 {
		return ""
	}
	total := 0
	for i, c := range chunks {
		if i > 0 {
			total += len(separator)
		}
		total += runeLen(c.Text)
	}
	if total <= budget {
		return join(chunks)
	}

	ranked := append([]Chunk(nil), chunks...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	var kept []Chunk
	remaining := budget
	for _, c := range ranked {
		cost := runeLen(c.Text)
		if len(kept) > 0 {
			cost += len(separator)
		}
		if cost > remaining {
			if len(kept) == 0 {
				// Nothing fits whole; keep the head of the best paragraph.
				return string([]rune(c.Text)[:budget])
			}
			continue
		}
		kept = append(kept, c)
		remaining -= cost
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Order < kept[j].Order })
	return join(kept)
}

func join(chunks []Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, separator)
}

func runeLen(s string) int {
	return len([]rune(s))
}
