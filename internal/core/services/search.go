// Package services implements the core application services on top of the
// driven ports: the retriever and the indexing pipeline.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/core/domain"
	"github.com/doclens/doclens/internal/core/ports/driven"
	"github.com/doclens/doclens/internal/core/ports/driving"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultLimit is the result count used when the caller does not specify one.
const DefaultLimit = 5

// resultSeparator joins formatted results for display.
const resultSeparator = "\n\n---\n\n"

// scrollPageSize is the page size used when scrolling a section.
const scrollPageSize = 1000

// SearchService retrieves the most relevant chunks for a question:
// embed the query, similarity-search the store, and optionally reorder the
// candidates with the rerank provider.
type SearchService struct {
	embedder   driven.EmbeddingService
	store      driven.VectorStore
	reranker   driven.Reranker // optional, may be nil
	collection string
	log        *zap.Logger
}

// NewSearchService creates a new search service. The reranker is optional
// and may be nil, in which case results keep the store's similarity order.
func NewSearchService(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	reranker driven.Reranker,
	collection string,
	log *zap.Logger,
) *SearchService {
	return &SearchService{
		embedder:   embedder,
		store:      store,
		reranker:   reranker,
		collection: collection,
		log:        log,
	}
}

// Search runs the retrieval pipeline for one query. An embedding or store
// failure is fatal to the call; a rerank failure degrades to the similarity
// ordering with a warning.
func (s *SearchService) Search(ctx context.Context, query string, limit int, section string) ([]domain.SearchResult, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.store == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := s.store.Search(ctx, s.collection, driven.SearchParams{
		Vector:  vector,
		Limit:   limit,
		Section: section,
	})
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, resultFromPayload(hit))
	}

	return s.rerank(ctx, query, results), nil
}

// rerank reorders candidates by the rerank provider's relevance score.
// Any rerank failure keeps the similarity ordering; it must never abort
// the overall search.
func (s *SearchService) rerank(ctx context.Context, query string, results []domain.SearchResult) []domain.SearchResult {
	if s.reranker == nil || len(results) < 2 {
		return results
	}

	documents := make([]string, len(results))
	for i := range results {
		documents[i] = results[i].Content
	}

	scores, err := s.reranker.Rerank(ctx, query, documents)
	if err != nil || len(scores) != len(results) {
		s.log.Warn("rerank skipped, keeping similarity order",
			zap.Int("candidates", len(results)),
			zap.Error(err))
		return results
	}

	for i := range results {
		score := scores[i]
		results[i].RerankScore = &score
	}
	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].RerankScore > *results[j].RerankScore
	})
	return results
}

// FetchSection returns every stored chunk of one documentation section.
func (s *SearchService) FetchSection(ctx context.Context, section string) ([]domain.SectionChunk, error) {
	if s.store == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}

	section = strings.TrimSpace(section)
	if section == "" {
		return nil, fmt.Errorf("%w: section is required", domain.ErrInvalidInput)
	}

	var points []driven.ScoredPoint
	offset := ""
	for {
		page, next, err := s.store.Scroll(ctx, s.collection, section, scrollPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("scrolling section %s: %w", section, err)
		}
		points = append(points, page...)
		if next == "" {
			break
		}
		offset = next
	}
	if len(points) == 0 {
		return nil, &domain.NotFoundError{Kind: "section", Name: section}
	}

	chunks := make([]domain.SectionChunk, 0, len(points))
	for _, p := range points {
		result := resultFromPayload(p)
		chunks = append(chunks, domain.SectionChunk{
			Content:  result.Content,
			Metadata: result.Metadata,
		})
	}
	return chunks, nil
}

// FormatResults renders results for display: heading, body, source link,
// joined by a visible separator.
func (s *SearchService) FormatResults(results []domain.SearchResult) string {
	if len(results) == 0 {
		return "No matching documentation found."
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "## %s (%s)\n\n", r.Metadata.Title, r.Metadata.Section)
		b.WriteString(r.Content)
		fmt.Fprintf(&b, "\n\nSource: %s", r.Metadata.URL)
		parts = append(parts, b.String())
	}
	return strings.Join(parts, resultSeparator)
}

// resultFromPayload rebuilds a search result from a stored point payload.
func resultFromPayload(p driven.ScoredPoint) domain.SearchResult {
	result := domain.SearchResult{Score: p.Score}
	if content, ok := p.Payload["content"].(string); ok {
		result.Content = content
	}
	if meta, ok := p.Payload["metadata"].(map[string]any); ok {
		str := func(key string) string {
			v, _ := meta[key].(string)
			return v
		}
		result.Metadata = domain.ChunkMetadata{
			Path:        str("path"),
			Section:     str("section"),
			Title:       str("title"),
			LastUpdated: str("lastUpdated"),
			URL:         str("url"),
		}
	}
	return result
}
