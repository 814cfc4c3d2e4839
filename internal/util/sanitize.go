package util

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// SanitizeEvidenceText removes the noise common in social-media corpora
// (URLs, embedded HTML) and collapses whitespace, which improves embedding
// quality for short passages.
func SanitizeEvidenceText(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = StripMarkup(text)
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(text), " ")
}

// StripMarkup drops any HTML tags, keeping only text content. Input that
// fails to parse is returned unchanged.
func StripMarkup(text string) string {
	if !strings.ContainsRune(text, '<') {
		return text
	}

	root, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return text
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return b.String()
}
