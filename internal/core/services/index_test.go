package services

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/core/domain"
)

func stakingDoc() *domain.Document {
	return &domain.Document{
		Path:    "jitosol/staking.md",
		Section: "jitosol",
		Title:   "Staking",
		URL:     "https://docs.example.com/jitosol/staking",
		Body:    "Staking is easy. You deposit SOL. You receive JitoSOL.",
	}
}

func newIndexService(source *fakeSource, store *fakeStore) *IndexService {
	return NewIndexService(
		source,
		passthroughExtractor{},
		sentenceChunker{},
		&fakeEmbedder{},
		store,
		"docs",
		zap.NewNop(),
	)
}

func TestIndexFile(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{docs: map[string]*domain.Document{"jitosol/staking.md": stakingDoc()}}
	svc := newIndexService(source, store)

	n, err := svc.IndexFile(context.Background(), "jitosol/staking.md")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, store.points, 1)
	for _, p := range store.points {
		assert.Equal(t, "Staking is easy. You deposit SOL. You receive JitoSOL.", p.Payload["content"])
		meta := p.Payload["metadata"].(map[string]any)
		assert.Equal(t, "jitosol", meta["section"])
		assert.Equal(t, "Staking", meta["title"])
		assert.NotEmpty(t, p.Vector)
	}
	require.Len(t, store.ensured, 1)
	assert.Equal(t, "docs/2", store.ensured[0], "collection dimension follows the embedder")
}

func TestIndexFile_Idempotent(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{docs: map[string]*domain.Document{"jitosol/staking.md": stakingDoc()}}
	svc := newIndexService(source, store)

	_, err := svc.IndexFile(context.Background(), "jitosol/staking.md")
	require.NoError(t, err)
	firstIDs := pointIDs(store)

	_, err = svc.IndexFile(context.Background(), "jitosol/staking.md")
	require.NoError(t, err)
	secondIDs := pointIDs(store)

	assert.Equal(t, firstIDs, secondIDs, "unchanged file must reproduce the same chunk ids")
	assert.Len(t, store.points, 1, "re-index overwrites, never duplicates")
}

func TestIndexFile_UpsertFailure(t *testing.T) {
	store := newFakeStore()
	store.upsertErr = errors.New("qdrant down")
	source := &fakeSource{docs: map[string]*domain.Document{"jitosol/staking.md": stakingDoc()}}
	svc := newIndexService(source, store)

	_, err := svc.IndexFile(context.Background(), "jitosol/staking.md")
	require.Error(t, err)

	var werr *domain.IndexWriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "jitosol/staking.md", werr.Path)
	assert.Equal(t, 1, werr.Chunks)
}

func TestIndexFile_EmptyProse(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{docs: map[string]*domain.Document{
		"empty.md": {Path: "empty.md", Section: "empty", Body: ""},
	}}
	svc := newIndexService(source, store)

	n, err := svc.IndexFile(context.Background(), "empty.md")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, store.points)
}

func TestIndexGlob_ContinuesPastFailures(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{docs: map[string]*domain.Document{
		"jitosol/staking.md": stakingDoc(),
		"restaking/intro.md": {
			Path: "restaking/intro.md", Section: "restaking", Title: "Intro",
			Body: "Restaking extends staking.",
		},
	}}
	svc := newIndexService(source, store)

	svcRun := func() (int, error) {
		return svc.IndexGlob(context.Background(), "")
	}

	store.upsertErr = errors.New("transient")
	n, err := svcRun()
	require.NoError(t, err, "per-file failures must not abort the run")
	assert.Equal(t, 0, n)

	store.upsertErr = nil
	n, err = svcRun()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.points, 2)
}

func TestChunkID_Deterministic(t *testing.T) {
	a := domain.ChunkID("jitosol/staking.md", 0)
	b := domain.ChunkID("jitosol/staking.md", 0)
	c := domain.ChunkID("jitosol/staking.md", 1)
	d := domain.ChunkID("restaking/intro.md", 0)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func pointIDs(store *fakeStore) []string {
	ids := make([]string, 0, len(store.points))
	for id := range store.points {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
