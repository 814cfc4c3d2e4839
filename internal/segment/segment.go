package segment

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/claimtriage/checkprioritizer/internal/model"
)

// Sentence length bounds for candidate claims. Fragments shorter than the
// minimum are rarely verifiable statements; runs longer than the maximum
// are usually parsing artifacts, not sentences.
const (
	minSentenceLen = 30
	maxSentenceLen = 500
)

// Segmenter splits a source document into candidate claims, one per
// sentence, each carrying its character offset into the original text.
type Segmenter struct{}

// NewSegmenter creates a document segmenter
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Segment extracts candidate claims from a document. HTML input is
// reduced to its visible text first, sentences outside the length bounds
// are dropped, and duplicate sentences keep only their first occurrence.
// Offsets index into the segmented text, so for HTML input they refer to
// the visible-text rendering rather than the raw markup.
func (s *Segmenter) Segment(document string) []model.Claim {
	text := visibleText(document)

	var claims []model.Claim
	seen := make(map[string]bool)

	for _, sent := range splitSentences(text) {
		key := strings.ToLower(sent.text)
		if seen[key] {
			continue
		}
		seen[key] = true

		claims = append(claims, model.Claim{
			ID:           uuid.NewString(),
			Text:         sent.text,
			SourceOffset: sent.offset,
		})
	}

	return claims
}

type sentence struct {
	text   string
	offset int
}

// splitSentences cuts text on sentence terminators followed by whitespace,
// which avoids splitting inside abbreviations and decimal numbers. Offsets
// point at the first non-space character of each kept sentence.
func splitSentences(text string) []sentence {
	var sentences []sentence
	start := 0

	flush := func(end int) {
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		if len(trimmed) >= minSentenceLen && len(trimmed) <= maxSentenceLen {
			offset := start + strings.Index(raw, trimmed[:1])
			sentences = append(sentences, sentence{text: collapseSpace(trimmed), offset: offset})
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\t' || text[i+1] == '\n' {
				flush(i + 1)
			}
		}
	}
	if start < len(text) {
		flush(len(text))
	}

	return sentences
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// visibleText reduces HTML to the text a reader would see, skipping
// script, style, and similar non-content elements. Plain text passes
// through untouched.
func visibleText(document string) string {
	if !strings.ContainsRune(document, '<') {
		return document
	}

	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return document
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return b.String()
}
