// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the embedding provider, the vector store,
// the rerank provider, and the documentation source.
package driven
