// Package jina provides a rerank adapter for Jina-compatible rerank APIs.
package jina

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

// Ensure Reranker implements the interface.
var _ driven.Reranker = (*Reranker)(nil)

// Default configuration values.
const (
	DefaultModel   = "jina-reranker-v2-base-multilingual"
	DefaultTimeout = 10 * time.Second
)

// Config holds configuration for the rerank service.
type Config struct {
	// BaseURL is the rerank service base URL (required).
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Model is the rerank model identifier (default: jina-reranker-v2).
	Model string

	// Timeout bounds every rerank request (default: 10s).
	Timeout time.Duration
}

// Reranker scores candidates against a query via an external rerank API.
// Failures surface as domain.ProviderError; the search service treats them
// as a degradation signal, not a fatal error.
type Reranker struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// rerankRequest is the rerank API request format.
type rerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

// rerankResponse is the rerank API response format.
type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// NewReranker creates a new rerank client.
func NewReranker(cfg Config) (*Reranker, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("jina: base URL is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Reranker{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Rerank returns one relevance score per document, indexed like the input.
func (r *Reranker) Rerank(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	jsonBody, err := json.Marshal(rerankRequest{
		Model:           r.model,
		Query:           query,
		Documents:       documents,
		TopN:            len(documents),
		ReturnDocuments: false,
	})
	if err != nil {
		return nil, r.providerErr(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, r.providerErr(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, r.providerErr(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, r.providerErr(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, r.providerErr(fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var rerankResp rerankResponse
	if err := json.Unmarshal(body, &rerankResp); err != nil {
		return nil, r.providerErr(fmt.Errorf("decode response: %w", err))
	}

	scores := make([]float64, len(documents))
	for _, res := range rerankResp.Results {
		if res.Index < 0 || res.Index >= len(scores) {
			return nil, r.providerErr(fmt.Errorf("result index %d out of range", res.Index))
		}
		scores[res.Index] = res.RelevanceScore
	}
	return scores, nil
}

// ModelName returns the rerank model identifier.
func (r *Reranker) ModelName() string {
	return r.model
}

// Health probes the service's liveness endpoint.
func (r *Reranker) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", http.NoBody)
	if err != nil {
		return r.providerErr(err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return r.providerErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return r.providerErr(fmt.Errorf("health status %d", resp.StatusCode))
	}
	return nil
}

func (r *Reranker) providerErr(err error) error {
	return &domain.ProviderError{Provider: "rerank", Op: "rerank", Err: err}
}
