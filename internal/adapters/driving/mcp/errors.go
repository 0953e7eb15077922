// Package mcp provides the MCP (Model Context Protocol) front end for
// doclens: the tool declarations and the session transport multiplexer that
// serves them over stdio and streamable HTTP.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
