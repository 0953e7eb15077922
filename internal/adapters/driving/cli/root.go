// Package cli wires configuration, adapters and services into the
// doclens cobra commands.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	configfile "github.com/doclens/doclens/internal/adapters/driven/config/file"
	"github.com/doclens/doclens/internal/adapters/driven/docsource/filesystem"
	"github.com/doclens/doclens/internal/adapters/driven/embedding/openai"
	"github.com/doclens/doclens/internal/adapters/driven/rerank/jina"
	"github.com/doclens/doclens/internal/adapters/driven/vectorstore/qdrant"
	"github.com/doclens/doclens/internal/core/ports/driven"
	"github.com/doclens/doclens/internal/core/ports/driving"
	"github.com/doclens/doclens/internal/core/services"
	"github.com/doclens/doclens/internal/logger"
	"github.com/doclens/doclens/internal/normalisers/markdown"
	"github.com/doclens/doclens/internal/postprocessors/chunker"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var (
	cfgPath string
	verbose bool
)

// Shared state assembled by initServices. Commands check for nil and
// report a configuration error rather than panicking.
var (
	cfg           configfile.Config
	log           *zap.Logger
	searchService driving.SearchService
	indexService  driving.IndexService
	rerankClient  *jina.Reranker
)

var rootCmd = &cobra.Command{
	Use:   "doclens",
	Short: "Documentation retrieval over MCP",
	Long: `doclens indexes a Markdown documentation tree into a vector store
and serves semantic search to AI assistants over the Model Context
Protocol (MCP).`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "doclens.toml", "path to the TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initServices loads configuration and assembles the retrieval pipeline.
// Providers that cannot be constructed (typically a missing API key) leave
// their services nil; commands that need them report the gap themselves so
// that commands like version still work on a bare machine.
func initServices(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	var err error
	cfg, err = configfile.Load(cfgPath)
	if err != nil {
		return err
	}

	log, err = logger.New(verbose)
	if err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}

	embedder, err := openai.NewEmbeddingService(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})
	if err != nil {
		log.Debug("embedding provider not configured", zap.Error(err))
		return nil
	}

	store, err := qdrant.NewStore(qdrant.Config{
		URL:     cfg.Qdrant.URL,
		APIKey:  cfg.Qdrant.APIKey,
		Timeout: cfg.QdrantTimeout(),
	})
	if err != nil {
		log.Debug("vector store not configured", zap.Error(err))
		return nil
	}

	// Reranking is optional; a missing URL simply keeps similarity order.
	var reranker driven.Reranker
	if cfg.Rerank.URL != "" {
		r, rerr := jina.NewReranker(jina.Config{
			BaseURL: cfg.Rerank.URL,
			APIKey:  cfg.Rerank.APIKey,
			Model:   cfg.Rerank.Model,
		})
		if rerr != nil {
			log.Warn("rerank provider misconfigured, continuing without it", zap.Error(rerr))
		} else {
			reranker = r
			rerankClient = r
		}
	}

	searchService = services.NewSearchService(embedder, store, reranker, cfg.Qdrant.Collection, log)

	source, err := filesystem.NewSource(filesystem.Config{
		Root:    cfg.Docs.Root,
		BaseURL: cfg.Docs.BaseURL,
	})
	if err != nil {
		log.Debug("document source not configured", zap.Error(err))
		return nil
	}

	indexService = services.NewIndexService(
		source,
		markdown.New(),
		chunker.New(
			chunker.WithChunkSize(cfg.Chunking.Size),
			chunker.WithOverlap(cfg.Chunking.Overlap),
		),
		embedder,
		store,
		cfg.Qdrant.Collection,
		log,
	)

	return nil
}
