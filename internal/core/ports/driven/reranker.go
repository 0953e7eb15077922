package driven

import "context"

// Reranker scores candidate documents against a query with a finer-grained
// relevance model than vector similarity.
//
// This is an optional service - when nil, search results keep the vector
// store's similarity ordering.
type Reranker interface {
	// Rerank returns one relevance score per document, indexed like the
	// input slice. Higher means more relevant.
	Rerank(ctx context.Context, query string, documents []string) ([]float64, error)

	// ModelName returns the rerank model identifier.
	ModelName() string
}
