package driving

import "context"

// IndexService runs the indexing pipeline: extract, chunk, embed, upsert.
type IndexService interface {
	// IndexFile indexes one page by path relative to the documentation
	// root and returns the number of chunks written.
	IndexFile(ctx context.Context, path string) (int, error)

	// IndexGlob indexes every page matching the glob pattern. Per-file
	// failures are logged and do not abort the run; the returned count is
	// the number of files indexed successfully.
	IndexGlob(ctx context.Context, pattern string) (int, error)

	// IndexAll indexes the whole documentation tree.
	IndexAll(ctx context.Context) (int, error)
}
