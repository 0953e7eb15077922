// Package markdown extracts plain prose from Markdown bodies for embedding.
package markdown

import (
	"regexp"
	"strings"

	"github.com/doclens/doclens/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Extractor = (*Normaliser)(nil)

// Normaliser converts a Markdown body into plain text. Paragraphs, headings,
// and list items contribute their text in document order; code blocks,
// tables, raw HTML, and images contribute nothing. Extraction never fails:
// malformed Markdown degrades to partial or empty text.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

var (
	inlineImages = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	inlineLinks  = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	inlineCode   = regexp.MustCompile("`[^`]*`")
	headingMark  = regexp.MustCompile(`^#{1,6}\s+`)
	listMark     = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
	ruleLine     = regexp.MustCompile(`^[-*_]{3,}\s*$`)
)

// Extract returns the textual content of heading, paragraph, and list
// blocks, one block per line.
func (n *Normaliser) Extract(body string) string {
	var blocks []string
	var paragraph []string

	flush := func() {
		if len(paragraph) > 0 {
			blocks = append(blocks, strings.Join(paragraph, " "))
			paragraph = nil
		}
	}

	inFence := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			flush()
			continue
		}
		if inFence {
			continue
		}

		switch {
		case trimmed == "":
			flush()

		case headingMark.MatchString(trimmed):
			flush()
			if text := cleanInline(headingMark.ReplaceAllString(trimmed, "")); text != "" {
				blocks = append(blocks, text)
			}

		case listMark.MatchString(line):
			// List items are flattened to their own block each.
			flush()
			if text := cleanInline(listMark.ReplaceAllString(line, "")); text != "" {
				blocks = append(blocks, text)
			}

		case strings.HasPrefix(trimmed, "|"),
			strings.HasPrefix(trimmed, "<"),
			ruleLine.MatchString(trimmed):
			// Tables, raw HTML, and horizontal rules carry no prose.
			flush()

		default:
			text := trimmed
			text = strings.TrimPrefix(text, "> ")
			text = strings.TrimPrefix(text, ">")
			if text = cleanInline(text); text != "" {
				paragraph = append(paragraph, text)
			}
		}
	}
	flush()

	return strings.Join(blocks, "\n")
}

// cleanInline strips inline Markdown constructs, keeping link text and
// dropping images and inline code entirely.
func cleanInline(text string) string {
	text = inlineImages.ReplaceAllString(text, "")
	text = inlineLinks.ReplaceAllString(text, "$1")
	text = inlineCode.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = strings.ReplaceAll(text, "*", "")
	return strings.TrimSpace(text)
}
