package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/doclens/doclens/internal/core/domain"
	"github.com/doclens/doclens/internal/core/ports/driven"
)

// fakeEmbedder returns a tiny deterministic vector per text.
type fakeEmbedder struct {
	dims    int
	failAll bool
	calls   [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.failAll {
		return nil, &domain.ProviderError{Provider: "embedding", Op: "embed", Err: errors.New("boom")}
	}
	f.calls = append(f.calls, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), float32(i)}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int {
	if f.dims > 0 {
		return f.dims
	}
	return 2
}

func (f *fakeEmbedder) ModelName() string { return "fake-embedder" }

// fakeStore is an in-memory vector store keyed by point id.
type fakeStore struct {
	points      map[string]driven.Point
	searchHits  []driven.ScoredPoint
	scrollPages [][]driven.ScoredPoint // when set, Scroll serves these page by page
	ensured     []string
	upsertErr   error
	searchErr   error
	lastParams  driven.SearchParams
	upsertCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{points: make(map[string]driven.Point)}
}

func (f *fakeStore) EnsureCollection(_ context.Context, name string, dimension int) error {
	f.ensured = append(f.ensured, fmt.Sprintf("%s/%d", name, dimension))
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, _ string, points []driven.Point) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertCalls++
	for _, p := range points {
		f.points[p.ID] = p
	}
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ string, params driven.SearchParams) ([]driven.ScoredPoint, error) {
	f.lastParams = params
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchHits, nil
}

func (f *fakeStore) Scroll(_ context.Context, _ string, section string, _ int, offset string) ([]driven.ScoredPoint, string, error) {
	if len(f.scrollPages) > 0 {
		i := 0
		if offset != "" {
			i, _ = strconv.Atoi(offset)
		}
		next := ""
		if i+1 < len(f.scrollPages) {
			next = strconv.Itoa(i + 1)
		}
		return f.scrollPages[i], next, nil
	}

	var out []driven.ScoredPoint
	for _, p := range f.points {
		meta, _ := p.Payload["metadata"].(map[string]any)
		if meta != nil && meta["section"] == section {
			out = append(out, driven.ScoredPoint{ID: p.ID, Payload: p.Payload})
		}
	}
	return out, "", nil
}

// fakeReranker scores documents by a fixed table or fails.
type fakeReranker struct {
	scores []float64
	err    error
	calls  int
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, documents []string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scores[:len(documents)], nil
}

func (f *fakeReranker) ModelName() string { return "fake-reranker" }

// fakeSource serves documents from a map of relative path to raw content.
type fakeSource struct {
	docs map[string]*domain.Document
}

func (f *fakeSource) List(_ context.Context, pattern string) ([]string, error) {
	var paths []string
	for p := range f.docs {
		paths = append(paths, p)
	}
	_ = pattern
	return paths, nil
}

func (f *fakeSource) Read(_ context.Context, path string) (*domain.Document, error) {
	doc, ok := f.docs[path]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "document", Name: path}
	}
	return doc, nil
}

// passthroughExtractor returns the body unchanged.
type passthroughExtractor struct{}

func (passthroughExtractor) Extract(body string) string { return body }

// sentenceChunker is a trivial chunker returning the whole text as one chunk.
type sentenceChunker struct{}

func (sentenceChunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	return []string{text}
}
