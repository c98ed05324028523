package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/kkkqkx123/codebase-index-mcp/internal/search"
)

// maxIndexedFileSize skips files larger than 1 MiB.
const maxIndexedFileSize = 1 << 20

// indexBatchSize bounds how many chunks go into one bleve batch.
const indexBatchSize = 256

var languageByExtension = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
	".rb":   "ruby",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".cs":   "csharp",
	".php":  "php",
	".sh":   "shell",
	".sql":  "sql",
	".md":   "markdown",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
}

var skippedDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
}

// NewIndexCmd creates the 'index' command for indexing a codebase.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a codebase directory for search",
		Long: `Walk a directory tree and index its source files into the search index.

Files are chunked per file; hidden directories, dependency directories
(node_modules, vendor, ...) and files over 1 MiB are skipped. Re-running
the command refreshes existing entries.`,
		Example: `  # Index the current directory
  codebase-index-mcp index .

  # Index a specific project
  codebase-index-mcp index ~/src/myproject`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args[0])
		},
	}

	return cmd
}

func runIndex(cmd *cobra.Command, root string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	comps, err := buildComponents(cfg, true)
	if err != nil {
		return err
	}
	defer comps.close()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	chunks, skipped, err := collectChunks(absRoot)
	if err != nil {
		return err
	}

	// Drop stale chunks for files being reindexed first, so a renamed
	// symbol leaves no orphaned entry behind.
	for _, chunk := range chunks {
		if err := comps.indexer.RemoveFile(chunk.Path); err != nil {
			return fmt.Errorf("failed to refresh %s: %w", chunk.Path, err)
		}
	}

	for start := 0; start < len(chunks); start += indexBatchSize {
		end := start + indexBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := comps.indexer.IndexChunks(chunks[start:end]); err != nil {
			return fmt.Errorf("failed to index: %w", err)
		}
	}

	total, err := comps.indexer.Count()
	if err != nil {
		return fmt.Errorf("failed to count index: %w", err)
	}

	cmd.Printf("Indexed %d file(s) from %s (%d skipped).\n", len(chunks), absRoot, skipped)
	cmd.Printf("Index now holds %d chunk(s).\n", total)
	return nil
}

// collectChunks walks the tree and turns indexable files into code chunks.
func collectChunks(root string) ([]search.CodeChunk, int, error) {
	var chunks []search.CodeChunk
	skipped := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || skippedDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			skipped++
			return nil
		}

		language, ok := languageByExtension[filepath.Ext(name)]
		if !ok {
			skipped++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxIndexedFileSize {
			skipped++
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !utf8.Valid(content) {
			skipped++
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		symbol := strings.TrimSuffix(name, filepath.Ext(name))
		chunks = append(chunks, search.CodeChunk{
			ID:       rel + "#" + symbol,
			Path:     rel,
			Symbol:   symbol,
			Content:  string(content),
			Language: language,
			ModTime:  info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return chunks, skipped, nil
}
