package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/core/domain"
	"github.com/doclens/doclens/internal/core/ports/driven"
	"github.com/doclens/doclens/internal/core/ports/driving"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService runs the indexing pipeline per file: extract prose, chunk,
// embed in chunk order, and upsert a batch of deterministic-id points.
type IndexService struct {
	source     driven.DocumentSource
	extractor  driven.Extractor
	chunker    driven.Chunker
	embedder   driven.EmbeddingService
	store      driven.VectorStore
	collection string
	log        *zap.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// NewIndexService creates a new indexing service.
func NewIndexService(
	source driven.DocumentSource,
	extractor driven.Extractor,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	collection string,
	log *zap.Logger,
) *IndexService {
	return &IndexService{
		source:     source,
		extractor:  extractor,
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		collection: collection,
		log:        log,
	}
}

// ensureCollection creates the collection on first use. The dimensionality
// comes from the embedding provider so vectors and collection always agree.
func (s *IndexService) ensureCollection(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		s.ensureErr = s.store.EnsureCollection(ctx, s.collection, s.embedder.Dimensions())
	})
	return s.ensureErr
}

// IndexFile indexes one page and returns the number of chunks written.
// Re-indexing an unchanged file reproduces the same chunk ids, so the
// upsert overwrites instead of duplicating.
func (s *IndexService) IndexFile(ctx context.Context, path string) (int, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return 0, fmt.Errorf("ensuring collection: %w", err)
	}

	doc, err := s.source.Read(ctx, path)
	if err != nil {
		return 0, err
	}

	text := s.extractor.Extract(doc.Body)
	pieces := s.chunker.Split(text)
	if len(pieces) == 0 {
		s.log.Debug("no prose extracted", zap.String("path", path))
		return 0, nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("embedding %s: %w", path, err)
	}

	points := make([]driven.Point, len(pieces))
	for i, content := range pieces {
		metadata := domain.ChunkMetadata{
			Path:        doc.Path,
			Section:     doc.Section,
			Title:       doc.Title,
			LastUpdated: doc.LastUpdated,
			URL:         doc.URL,
		}
		points[i] = driven.Point{
			ID:     domain.ChunkID(doc.Path, i),
			Vector: vectors[i],
			Payload: map[string]any{
				"content": content,
				"metadata": map[string]any{
					"path":        metadata.Path,
					"section":     metadata.Section,
					"title":       metadata.Title,
					"lastUpdated": metadata.LastUpdated,
					"url":         metadata.URL,
				},
			},
		}
	}

	if err := s.store.Upsert(ctx, s.collection, points); err != nil {
		return 0, &domain.IndexWriteError{Path: path, Chunks: len(points), Err: err}
	}

	s.log.Info("indexed file",
		zap.String("path", path),
		zap.String("section", doc.Section),
		zap.Int("chunks", len(points)))
	return len(points), nil
}

// IndexGlob indexes every page matching the glob pattern. A failing file is
// reported and skipped; it never aborts the rest of the run.
func (s *IndexService) IndexGlob(ctx context.Context, pattern string) (int, error) {
	paths, err := s.source.List(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("listing documents: %w", err)
	}

	indexed := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			return indexed, ctx.Err()
		}
		if _, err := s.IndexFile(ctx, path); err != nil {
			s.log.Error("indexing failed", zap.String("path", path), zap.Error(err))
			continue
		}
		indexed++
	}

	s.log.Info("indexing run complete",
		zap.String("pattern", pattern),
		zap.Int("files", len(paths)),
		zap.Int("indexed", indexed))
	return indexed, nil
}

// IndexAll indexes the whole documentation tree.
func (s *IndexService) IndexAll(ctx context.Context) (int, error) {
	return s.IndexGlob(ctx, "")
}
