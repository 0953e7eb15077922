package mcp

import (
	"context"
	"errors"

	"github.com/doclens/doclens/internal/core/domain"
)

// fakeSearchService is a hand-rolled SearchService for server tests.
type fakeSearchService struct {
	results    []domain.SearchResult
	chunks     []domain.SectionChunk
	searchErr  error
	lastQuery  string
	lastLimit  int
	lastFetsec string
}

func (f *fakeSearchService) Search(_ context.Context, query string, limit int, _ string) ([]domain.SearchResult, error) {
	f.lastQuery = query
	f.lastLimit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeSearchService) FetchSection(_ context.Context, section string) ([]domain.SectionChunk, error) {
	f.lastFetsec = section
	if len(f.chunks) == 0 {
		return nil, &domain.NotFoundError{Kind: "section", Name: section}
	}
	return f.chunks, nil
}

func (f *fakeSearchService) FormatResults(results []domain.SearchResult) string {
	if len(results) == 0 {
		return "No matching documentation found."
	}
	out := ""
	for i, r := range results {
		if i > 0 {
			out += "\n\n---\n\n"
		}
		out += "## " + r.Metadata.Title + " (" + r.Metadata.Section + ")\n\n" + r.Content
	}
	return out
}

var errProviderDown = errors.New("connection refused")
