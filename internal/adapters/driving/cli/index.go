package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/adapters/driven/docsource/git"
)

var (
	indexSection string
	indexAll     bool
	indexWatch   bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index documentation into the vector store",
	Long: `Chunks, embeds and upserts Markdown documentation.

With a path argument, only that file is indexed. With --section, files
whose section matches the glob are indexed. Otherwise the whole tree is
indexed. When docs.repo_url is configured, the repository is cloned or
fast-forwarded first.

Examples:
  doclens index --all
  doclens index guides/staking.md
  doclens index --section 'guides/**'
  doclens index --all --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexSection, "section", "", "glob of sections to index, e.g. 'guides/**'")
	indexCmd.Flags().BoolVar(&indexAll, "all", false, "index the entire documentation tree")
	indexCmd.Flags().BoolVar(&indexWatch, "watch", false, "keep running and re-index changed files")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured (set OPENAI_API_KEY)")
	}

	ctx := cmd.Context()

	if cfg.Docs.RepoURL != "" {
		cmd.Printf("Syncing %s...\n", cfg.Docs.RepoURL)
		if err := git.Sync(ctx, cfg.Docs.RepoURL, cfg.Docs.Root); err != nil {
			return fmt.Errorf("syncing docs repository: %w", err)
		}
	}

	switch {
	case len(args) == 1:
		n, err := indexService.IndexFile(ctx, args[0])
		if err != nil {
			return fmt.Errorf("indexing %s: %w", args[0], err)
		}
		cmd.Printf("Indexed %d chunks from %s.\n", n, args[0])
	case indexSection != "":
		n, err := indexService.IndexGlob(ctx, indexSection)
		if err != nil {
			return fmt.Errorf("indexing sections %s: %w", indexSection, err)
		}
		cmd.Printf("Indexed %d files from sections matching %s.\n", n, indexSection)
	default:
		n, err := indexService.IndexAll(ctx)
		if err != nil {
			return fmt.Errorf("indexing documentation tree: %w", err)
		}
		cmd.Printf("Indexed %d files.\n", n)
	}

	if indexWatch {
		return watchAndReindex(ctx, cmd)
	}
	return nil
}

// watchAndReindex blocks, re-indexing Markdown files as they change.
// fsnotify watches are not recursive, so every directory under the root
// is registered individually, and new directories are added as they
// appear.
func watchAndReindex(ctx context.Context, cmd *cobra.Command) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchTree(watcher, cfg.Docs.Root); err != nil {
		return fmt.Errorf("watching %s: %w", cfg.Docs.Root, err)
	}

	cmd.Printf("Watching %s for changes...\n", cfg.Docs.Root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			if info, serr := os.Stat(ev.Name); serr == nil && info.IsDir() {
				if err := addWatchTree(watcher, ev.Name); err != nil {
					log.Warn("watching new directory failed", zap.String("dir", ev.Name), zap.Error(err))
				}
				continue
			}

			ext := strings.ToLower(filepath.Ext(ev.Name))
			if ext != ".md" && ext != ".mdx" {
				continue
			}

			rel, rerr := filepath.Rel(cfg.Docs.Root, ev.Name)
			if rerr != nil {
				continue
			}

			n, ierr := indexService.IndexFile(ctx, rel)
			if ierr != nil {
				log.Error("re-index failed", zap.String("path", rel), zap.Error(ierr))
				continue
			}
			cmd.Printf("Re-indexed %s (%d chunks).\n", rel, n)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", zap.Error(werr))
		}
	}
}

// addWatchTree registers root and every non-hidden directory below it.
func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return watcher.Add(p)
	})
}
