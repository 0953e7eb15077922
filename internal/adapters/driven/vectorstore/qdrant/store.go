// Package qdrant provides a vector store adapter over the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/doclens/doclens/internal/core/domain"
	"github.com/doclens/doclens/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// DefaultTimeout bounds every store request.
const DefaultTimeout = 15 * time.Second

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the Qdrant base URL, e.g. http://localhost:6333 (required).
	URL string

	// APIKey is sent in the api-key header when set.
	APIKey string

	// Timeout bounds every request (default: 15s).
	Timeout time.Duration
}

// Store is a REST client to Qdrant implementing the narrow
// put/search/filter contract of the retrieval pipeline.
type Store struct {
	url    string
	apiKey string
	client *http.Client
}

// NewStore creates a new Qdrant store client.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant: URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// EnsureCollection creates the collection with cosine distance when absent.
// An existing collection is left untouched.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return s.providerErr("ensure collection", fmt.Errorf("invalid dimension %d", dimension))
	}

	status, _, err := s.do(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return s.providerErr("ensure collection", err)
	}
	if status == http.StatusOK {
		return nil
	}
	if status != http.StatusNotFound {
		return s.providerErr("ensure collection", fmt.Errorf("unexpected status %d", status))
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	status, respBody, err := s.do(ctx, http.MethodPut, "/collections/"+name, body)
	if err != nil {
		return s.providerErr("create collection", err)
	}
	if status >= 300 {
		return s.providerErr("create collection", fmt.Errorf("status %d: %s", status, respBody))
	}
	return nil
}

// Upsert writes points by id with wait=true so the write is visible to the
// next search. Existing ids are fully overwritten.
func (s *Store) Upsert(ctx context.Context, collection string, points []driven.Point) error {
	if len(points) == 0 {
		return nil
	}

	items := make([]map[string]any, len(points))
	for i, p := range points {
		items[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", collection)
	status, respBody, err := s.do(ctx, http.MethodPut, path, map[string]any{"points": items})
	if err != nil {
		return s.providerErr("upsert", err)
	}
	if status >= 300 {
		return s.providerErr("upsert", fmt.Errorf("status %d: %s", status, respBody))
	}
	return nil
}

// searchResponse is the Qdrant search response envelope.
type searchResponse struct {
	Result []scoredPoint `json:"result"`
}

type scoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Search returns the nearest points, payloads included, vectors excluded.
// Ties between equal scores follow the store's native order.
func (s *Store) Search(ctx context.Context, collection string, params driven.SearchParams) ([]driven.ScoredPoint, error) {
	req := map[string]any{
		"vector":       params.Vector,
		"limit":        params.Limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if params.Section != "" {
		req["filter"] = sectionFilter(params.Section)
	}

	path := fmt.Sprintf("/collections/%s/points/search", collection)
	status, respBody, err := s.do(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, s.providerErr("search", err)
	}
	if status >= 300 {
		return nil, s.providerErr("search", fmt.Errorf("status %d: %s", status, respBody))
	}

	var resp searchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, s.providerErr("search", fmt.Errorf("decode response: %w", err))
	}
	return convertPoints(resp.Result), nil
}

// scrollResponse is the Qdrant scroll response envelope. The cursor is a
// point id, which Qdrant may encode as a string or a number.
type scrollResponse struct {
	Result struct {
		Points         []scoredPoint `json:"points"`
		NextPageOffset any           `json:"next_page_offset"`
	} `json:"result"`
}

// Scroll returns one page of points whose payload section matches, without
// scoring, plus the cursor for the next page.
func (s *Store) Scroll(ctx context.Context, collection, section string, limit int, offset string) ([]driven.ScoredPoint, string, error) {
	req := map[string]any{
		"filter":       sectionFilter(section),
		"with_payload": true,
		"limit":        limit,
	}
	if offset != "" {
		req["offset"] = offset
	}

	path := fmt.Sprintf("/collections/%s/points/scroll", collection)
	status, respBody, err := s.do(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, "", s.providerErr("scroll", err)
	}
	if status >= 300 {
		return nil, "", s.providerErr("scroll", fmt.Errorf("status %d: %s", status, respBody))
	}

	var resp scrollResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, "", s.providerErr("scroll", fmt.Errorf("decode response: %w", err))
	}

	next := ""
	if resp.Result.NextPageOffset != nil {
		next = fmt.Sprint(resp.Result.NextPageOffset)
	}
	return convertPoints(resp.Result.Points), next, nil
}

func sectionFilter(section string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{
				"key":   "metadata.section",
				"match": map[string]any{"value": section},
			},
		},
	}
}

func convertPoints(points []scoredPoint) []driven.ScoredPoint {
	out := make([]driven.ScoredPoint, 0, len(points))
	for _, p := range points {
		out = append(out, driven.ScoredPoint{
			ID:      fmt.Sprint(p.ID),
			Score:   p.Score,
			Payload: p.Payload,
		})
	}
	return out
}

// do sends one request and returns the status code and body. A non-2xx
// status is not an error here; callers decide per endpoint.
func (s *Store) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func (s *Store) providerErr(op string, err error) error {
	return &domain.ProviderError{Provider: "store", Op: op, Err: err}
}
