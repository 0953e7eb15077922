package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Tool names exposed to callers.
const (
	toolSearch       = "search"
	toolFetchSection = "fetch_section"
)

// progressInterval spaces the progress notifications pushed on the
// session's event stream while a tool call is in flight.
const progressInterval = 2 * time.Second

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// FetchSectionInput is the input schema for the fetch_section tool.
type FetchSectionInput struct {
	Section string `json:"section"`
}

func toolDescriptors() []toolDescriptor {
	return []toolDescriptor{
		{
			Name:        toolSearch,
			Description: "Search the documentation for the most relevant passages",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "the natural-language question to search for",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "maximum number of results to return (default 5)",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        toolFetchSection,
			Description: "Fetch every indexed chunk of one documentation section",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"section": map[string]any{
						"type":        "string",
						"description": "the documentation section to fetch, e.g. jitosol",
					},
				},
				"required": []string{"section"},
			},
		},
	}
}

// handleToolCall dispatches a tools/call request. Tool failures travel back
// as isError-flagged results so the calling agent can display or retry;
// only malformed envelopes produce protocol-level errors.
func (s *Server) handleToolCall(ctx context.Context, sess *Session, req *request) []byte {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return marshalError(req.ID, codeInvalidParams, "malformed tools/call parameters")
	}

	stop := s.startProgress(sess, params.Name)
	defer stop()

	switch params.Name {
	case toolSearch:
		return s.callSearch(ctx, req.ID, params.Arguments)
	case toolFetchSection:
		return s.callFetchSection(ctx, req.ID, params.Arguments)
	default:
		return marshalError(req.ID, codeInvalidParams, fmt.Sprintf("unknown tool %q", params.Name))
	}
}

func (s *Server) callSearch(ctx context.Context, id json.RawMessage, args json.RawMessage) []byte {
	var input SearchInput
	if err := json.Unmarshal(args, &input); err != nil {
		return marshalError(id, codeInvalidParams, "malformed search arguments")
	}

	results, err := s.ports.Search.Search(ctx, input.Query, input.Limit, "")
	if err != nil {
		s.log.Error("search failed", zap.Error(err))
		return marshalResult(id, textResult(fmt.Sprintf("search failed: %v", err), true))
	}

	return marshalResult(id, textResult(s.ports.Search.FormatResults(results), false))
}

func (s *Server) callFetchSection(ctx context.Context, id json.RawMessage, args json.RawMessage) []byte {
	var input FetchSectionInput
	if err := json.Unmarshal(args, &input); err != nil {
		return marshalError(id, codeInvalidParams, "malformed fetch_section arguments")
	}

	chunks, err := s.ports.Search.FetchSection(ctx, input.Section)
	if err != nil {
		s.log.Error("fetch_section failed", zap.String("section", input.Section), zap.Error(err))
		return marshalResult(id, textResult(fmt.Sprintf("fetch_section failed: %v", err), true))
	}

	payload, err := json.Marshal(chunks)
	if err != nil {
		return marshalResult(id, textResult("encoding section payload failed", true))
	}
	return marshalResult(id, textResult(string(payload), false))
}

// startProgress pushes periodic progress notifications on the session's
// event stream while a tool call is in flight. The task stops when the call
// returns or the session closes, whichever comes first.
func (s *Server) startProgress(sess *Session, tool string) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		elapsed := 0
		for {
			select {
			case <-done:
				return
			case <-sess.Done():
				return
			case <-ticker.C:
				elapsed++
				sess.push(marshalNotification("notifications/progress", map[string]any{
					"tool":    tool,
					"elapsed": elapsed * int(progressInterval.Seconds()),
				}))
			}
		}
	}()
	return func() { close(done) }
}
