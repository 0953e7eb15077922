// Package file loads doclens configuration from a TOML file with
// environment variable overrides for credentials.
package file

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DocsConfig locates the documentation tree.
type DocsConfig struct {
	// RepoURL, when set, is cloned/pulled into Root before indexing.
	RepoURL string `toml:"repo_url"`
	Root    string `toml:"root"`
	BaseURL string `toml:"base_url"`
}

// ChunkingConfig bounds the chunker.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// QdrantConfig points at the vector store.
type QdrantConfig struct {
	URL        string `toml:"url"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"`
	TimeoutSec int    `toml:"timeout_seconds"`
}

// OpenAIConfig points at the embedding provider.
type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// RerankConfig points at the optional rerank provider. An empty URL
// disables reranking entirely.
type RerankConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// ServerConfig configures the MCP transports.
type ServerConfig struct {
	Addr          string `toml:"addr"`
	SessionTTLMin int    `toml:"session_ttl_minutes"`
}

// Config is the full doclens configuration.
type Config struct {
	Docs     DocsConfig     `toml:"docs"`
	Chunking ChunkingConfig `toml:"chunking"`
	Qdrant   QdrantConfig   `toml:"qdrant"`
	OpenAI   OpenAIConfig   `toml:"openai"`
	Rerank   RerankConfig   `toml:"rerank"`
	Server   ServerConfig   `toml:"server"`
}

// Default returns the configuration defaults applied before file and
// environment values.
func Default() Config {
	return Config{
		Docs:     DocsConfig{Root: "./docs"},
		Chunking: ChunkingConfig{Size: 1000, Overlap: 200},
		Qdrant:   QdrantConfig{URL: "http://localhost:6333", Collection: "docs"},
		Server:   ServerConfig{Addr: ":8080", SessionTTLMin: 30},
	}
}

// Load reads the TOML file at path when it exists and applies environment
// overrides. A missing file is not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets credentials and endpoints come from the environment so the
// TOML file can stay secret-free.
func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&cfg.Qdrant.URL, "QDRANT_URL")
	set(&cfg.Qdrant.APIKey, "QDRANT_API_KEY")
	set(&cfg.Rerank.URL, "RERANK_URL")
	set(&cfg.Rerank.APIKey, "RERANK_API_KEY")
	set(&cfg.Docs.RepoURL, "DOCS_REPO_URL")
	set(&cfg.Docs.Root, "DOCS_ROOT")
}

// QdrantTimeout returns the configured store timeout.
func (c Config) QdrantTimeout() time.Duration {
	if c.Qdrant.TimeoutSec <= 0 {
		return 0
	}
	return time.Duration(c.Qdrant.TimeoutSec) * time.Second
}

// SessionTTL returns the idle session time-to-live.
func (c Config) SessionTTL() time.Duration {
	if c.Server.SessionTTLMin <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Server.SessionTTLMin) * time.Minute
}
