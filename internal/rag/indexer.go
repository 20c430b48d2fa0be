package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/philippgille/chromem-go"
)

// codeExtensions mirrors the reference indexer's default glob patterns.
var codeExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".java": true, ".cpp": true, ".c": true, ".h": true, ".hpp": true,
	".rs": true, ".go": true, ".rb": true, ".php": true, ".swift": true,
	".kt": true, ".scala": true, ".sh": true, ".bash": true,
	".md": true, ".txt": true, ".yaml": true, ".yml": true, ".json": true,
}

var excludeDirs = []string{"node_modules", "__pycache__", "venv", ".git"}

// IndexDirectory walks root and indexes every recognized code/doc file into
// the codebase collection, skipping hidden and vendored directories. It
// returns the number of files indexed.
func (s *Store) IndexDirectory(ctx context.Context, root string) (int, error) {
	indexed := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			for _, ex := range excludeDirs {
				if name == ex {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !codeExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		ok, err := s.IndexFile(ctx, path, root)
		if err != nil {
			return nil // best-effort: one unreadable file must not abort the walk
		}
		if ok {
			indexed++
		}
		return nil
	})
	if err != nil {
		return indexed, fmt.Errorf("index directory %s: %w", root, err)
	}
	return indexed, nil
}

// IndexFile indexes a single file into the codebase collection. root, if
// non-empty, is stripped from the stored path so retrieval results show
// project-relative paths. Unreadable or binary-looking files are skipped
// and report ok=false with a nil error.
func (s *Store) IndexFile(ctx context.Context, path, root string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false, nil
	}
	if !isLikelyText(content) {
		return false, nil
	}

	relPath := path
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil {
			relPath = rel
		}
	}
	relPath = filepath.ToSlash(relPath)

	doc := chromem.Document{
		ID:      relPath,
		Content: string(content),
		Metadata: map[string]string{
			"path":      relPath,
			"filename":  filepath.Base(path),
			"extension": filepath.Ext(path),
		},
	}
	if err := s.codebase.AddDocument(ctx, doc); err != nil {
		return false, fmt.Errorf("index file %s: %w", relPath, err)
	}
	return true, nil
}

// isLikelyText rejects content containing a NUL byte within the first 512
// bytes, the same cheap binary-detection heuristic used by git and most
// text editors.
func isLikelyText(content []byte) bool {
	probe := content
	if len(probe) > 512 {
		probe = probe[:512]
	}
	for _, b := range probe {
		if b == 0 {
			return false
		}
	}
	return true
}

// Stats reports the current size of both collections.
type Stats struct {
	CodebaseDocuments int
	SolutionDocuments int
}

// Stats mirrors the reference indexer's get_stats.
func (s *Store) Stats() Stats {
	return Stats{
		CodebaseDocuments: s.codebase.Count(),
		SolutionDocuments: s.solutions.Count(),
	}
}

// ClearCodebaseIndex deletes and recreates the codebase collection.
func (s *Store) ClearCodebaseIndex() error {
	s.db.DeleteCollection(codebaseCollection)
	col, err := s.db.CreateCollection(codebaseCollection, nil, s.embed)
	if err != nil {
		return fmt.Errorf("recreate codebase collection: %w", err)
	}
	s.codebase = col
	return nil
}
