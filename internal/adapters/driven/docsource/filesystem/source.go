// Package filesystem reads a Markdown documentation tree from local disk.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/doclens/doclens/internal/core/domain"
	"github.com/doclens/doclens/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Config holds configuration for the filesystem document source.
type Config struct {
	// Root is the documentation root directory (required).
	Root string

	// BaseURL is the published site prefix used to build deterministic
	// source links, e.g. https://docs.example.com.
	BaseURL string
}

// Source walks a local documentation tree. Section is the first path
// component under the root; a file sitting directly in the root uses its
// own name as section.
type Source struct {
	root    string
	baseURL string
}

// NewSource creates a filesystem document source.
func NewSource(cfg Config) (*Source, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("filesystem: root directory is required")
	}
	return &Source{
		root:    cfg.Root,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// List returns relative paths of Markdown files matching pattern, in walk
// order. An empty pattern matches everything.
func (s *Source) List(_ context.Context, pattern string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext != ".md" && ext != ".mdx" {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if pattern != "" {
			match, err := doublestar.Match(pattern, rel)
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			if !match {
				return nil
			}
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", s.root, err)
	}
	return paths, nil
}

// frontMatter is the recognised subset of page front matter.
type frontMatter struct {
	Title       string `yaml:"title"`
	Section     string `yaml:"section"`
	LastUpdated string `yaml:"lastUpdated"`
}

// Read loads one page, separating front matter from the Markdown body.
func (s *Source) Read(_ context.Context, rel string) (*domain.Document, error) {
	raw, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.NotFoundError{Kind: "document", Name: rel}
		}
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}

	meta, body := splitFrontMatter(string(raw))

	doc := &domain.Document{
		Path:        rel,
		Section:     meta.Section,
		Title:       meta.Title,
		LastUpdated: meta.LastUpdated,
		URL:         s.pageURL(rel),
		Body:        body,
	}
	if doc.Section == "" {
		doc.Section = sectionOf(rel)
	}
	if doc.Title == "" {
		doc.Title = fallbackTitle(body, rel)
	}
	return doc, nil
}

// splitFrontMatter separates the leading YAML front matter fence from the
// body. Parsing is best-effort: an unterminated or malformed fence leaves
// the whole input as body.
func splitFrontMatter(raw string) (frontMatter, string) {
	var meta frontMatter
	if !strings.HasPrefix(raw, "---\n") && !strings.HasPrefix(raw, "---\r\n") {
		return meta, raw
	}

	rest := raw[strings.Index(raw, "\n")+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return meta, raw
	}

	block := rest[:end]
	body := rest[end+len("\n---"):]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return frontMatter{}, raw
	}
	return meta, body
}

func sectionOf(rel string) string {
	dir, file := path.Split(rel)
	if dir == "" {
		return strings.TrimSuffix(file, path.Ext(file))
	}
	return strings.Split(strings.Trim(dir, "/"), "/")[0]
}

func fallbackTitle(body, rel string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

func (s *Source) pageURL(rel string) string {
	page := strings.TrimSuffix(rel, path.Ext(rel))
	if s.baseURL == "" {
		return "/" + page
	}
	return s.baseURL + "/" + page
}
