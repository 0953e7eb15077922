// Package driving provides interfaces for primary/inbound adapters:
// the MCP server and the CLI.
package driving
