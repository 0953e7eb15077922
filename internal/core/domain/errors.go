package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Indexing and search are impossible without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
)

// ProviderError reports a failed call to an external collaborator: the
// embedding provider, the vector store, or the rerank provider. The Provider
// field distinguishes the cause in user-visible messages.
type ProviderError struct {
	Provider string // "embedding", "store", "rerank"
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IndexWriteError reports a failed upsert batch. It names the source path so
// a multi-file indexing run can report per-file failures and continue.
type IndexWriteError struct {
	Path   string
	Chunks int
	Err    error
}

func (e *IndexWriteError) Error() string {
	return fmt.Sprintf("index write for %s (%d chunks): %v", e.Path, e.Chunks, e.Err)
}

func (e *IndexWriteError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed or out-of-sequence transport message.
// Code follows JSON-RPC numbering and is returned to the offending caller
// without affecting other sessions.
type ProtocolError struct {
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error %d: %s", e.Code, e.Message)
}

// NotFoundError reports an unknown section or document by name.
type NotFoundError struct {
	Kind string // "section", "document"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
