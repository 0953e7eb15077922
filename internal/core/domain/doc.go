// Package domain contains the core types of the documentation retrieval
// pipeline: documents, chunks, search results, and the error taxonomy.
// It has no dependencies on adapters or external services.
package domain
