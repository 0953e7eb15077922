package driven

import "context"

// Point is one (id, vector, payload) record in the vector store.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is a similarity search or scroll hit. Vector is omitted;
// callers only need the payload. Score is the store's similarity score,
// higher meaning closer. Tie ordering between equal scores is store-defined
// and not guaranteed stable across calls.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// SearchParams configures a similarity search.
type SearchParams struct {
	Vector []float32
	Limit  int

	// Section, when non-empty, filters hits to payload section equality.
	Section string
}

// VectorStore is the narrow contract to the external vector database.
type VectorStore interface {
	// EnsureCollection is idempotent: a no-op when the collection already
	// exists, otherwise it creates the collection with cosine distance over
	// dimension-length vectors.
	EnsureCollection(ctx context.Context, name string, dimension int) error

	// Upsert writes points by id; an existing id is fully overwritten,
	// never merged. A partial failure fails the whole batch from the
	// caller's perspective.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the nearest points with payloads but without vectors.
	Search(ctx context.Context, collection string, params SearchParams) ([]ScoredPoint, error)

	// Scroll returns up to limit points whose payload section matches,
	// with payloads but without vectors, starting after offset. An empty
	// offset starts from the beginning; the returned cursor is the offset
	// of the next page, empty once the section is exhausted.
	Scroll(ctx context.Context, collection, section string, limit int, offset string) ([]ScoredPoint, string, error)
}
