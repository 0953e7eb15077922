package driven

import (
	"context"

	"github.com/doclens/doclens/internal/core/domain"
)

// DocumentSource enumerates and reads documentation pages.
type DocumentSource interface {
	// List returns relative paths of Markdown files matching the glob
	// pattern, in walk order. An empty pattern matches everything.
	List(ctx context.Context, pattern string) ([]string, error)

	// Read loads one page by relative path, separating front matter from
	// the Markdown body and deriving section, title, and URL.
	Read(ctx context.Context, path string) (*domain.Document, error)
}

// Extractor converts a Markdown body into plain prose suitable for
// embedding. Extraction is best-effort and never fails: malformed input
// degrades to partial or empty text.
type Extractor interface {
	Extract(body string) string
}

// Chunker splits extracted prose into bounded, overlapping segments on
// sentence boundaries.
type Chunker interface {
	Split(text string) []string
}
