package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Document is a single documentation page after front matter separation.
// Body holds the raw Markdown body; extraction to plain prose happens later
// in the indexing pipeline.
type Document struct {
	// Path is the file path relative to the documentation root.
	Path string

	// Section is the first path component under the documentation root.
	Section string

	// Title comes from front matter, the first H1 heading, or the filename.
	Title string

	// LastUpdated is the front matter timestamp, if any.
	LastUpdated string

	// URL is a deterministic link back to the published page.
	URL string

	// Body is the raw Markdown body with front matter removed.
	Body string
}

// ChunkMetadata travels with every indexed chunk and is returned verbatim
// in search results.
type ChunkMetadata struct {
	Path        string `json:"path"`
	Section     string `json:"section"`
	Title       string `json:"title"`
	LastUpdated string `json:"lastUpdated,omitempty"`
	URL         string `json:"url"`
}

// Chunk is the unit of embedding and indexing.
type Chunk struct {
	// ID is derived deterministically from (path, ordinal) so that
	// re-indexing an unchanged file overwrites rather than duplicates.
	ID string

	// Content is plain-text prose, never empty once indexed.
	Content string

	// Metadata is copied into the vector store payload.
	Metadata ChunkMetadata

	// Embedding has the provider's fixed dimensionality (e.g. 1536).
	Embedding []float32
}

// ChunkID derives the stable identifier for a chunk of a document.
// Vector stores commonly require UUID point ids, so the id is a name-based
// UUID over the source path and chunk ordinal.
func ChunkID(path string, ordinal int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s#%d", path, ordinal)).String()
}

// SearchResult is a transient query hit. When RerankScore is set, it takes
// precedence over Score for the final ordering.
type SearchResult struct {
	Content     string
	Score       float64
	Metadata    ChunkMetadata
	RerankScore *float64
}

// SectionChunk is the fetch-section payload element: a stored chunk without
// its vector.
type SectionChunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}
