package driving

import (
	"context"

	"github.com/doclens/doclens/internal/core/domain"
)

// SearchService answers natural-language questions against the index.
type SearchService interface {
	// Search embeds the query, runs a similarity search, and, when a
	// reranker is configured, reorders the candidates by rerank score.
	// Section, when non-empty, restricts hits to one documentation section.
	Search(ctx context.Context, query string, limit int, section string) ([]domain.SearchResult, error)

	// FetchSection returns every stored chunk of one documentation section.
	FetchSection(ctx context.Context, section string) ([]domain.SectionChunk, error)

	// FormatResults renders results for display: a heading per result,
	// the chunk body, and a source link, joined by a visible separator.
	FormatResults(results []domain.SearchResult) string
}
