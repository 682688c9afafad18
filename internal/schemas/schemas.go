// Package schemas serves the example form_context_md documents bundled
// alongside the server: a flat directory of .md files a client can browse
// before starting a conversation. Grounded on backend/api/routes.py's
// /schemas and /schemas/{filename} handlers.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/formpilotai/formpilot/internal/formctx"
	"github.com/formpilotai/formpilot/internal/pathutil"
)

// Entry describes one schema file in a directory listing.
type Entry struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Size     int    `json:"size"`
}

// Store lists and serves the .md files under Dir.
type Store struct {
	Dir string
}

// New builds a Store rooted at dir. dir may use "~/" or $VAR shortcuts
// (operators configure schemas.dir the same way they'd configure any other
// path on their machine); if expansion fails, dir is used as given.
func New(dir string) *Store {
	if expanded, err := pathutil.Expand(dir); err == nil && expanded != "" {
		dir = expanded
	}
	return &Store{Dir: dir}
}

// List returns every *.md file under Dir, sorted by filename, with its
// title (the document's first "# " heading, falling back to the bare file
// stem) and byte size. A missing directory yields an empty list, not an
// error — schemas are optional.
func (s *Store) List() ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("schemas: glob %s: %w", s.Dir, err)
	}
	sort.Strings(matches)

	entries := make([]Entry, 0, len(matches))
	for _, path := range matches {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		title := formctx.ExtractTitle(string(content))
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), ".md")
		}
		entries = append(entries, Entry{
			Filename: filepath.Base(path),
			Title:    title,
			Size:     len(content),
		})
	}
	return entries, nil
}

// ErrNotFound is returned by Get when filename doesn't exist under Dir.
var ErrNotFound = fmt.Errorf("schemas: file not found")

// Get returns the raw content of filename. filename is taken as a bare
// name, never a path — Base strips any directory component a caller
// passes in, closing the path-traversal hole the original's raw
// SCHEMAS_DIR / filename join left open.
func (s *Store) Get(filename string) (string, error) {
	clean := filepath.Base(filename)
	path := filepath.Join(s.Dir, clean)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("schemas: read %s: %w", clean, err)
	}
	return string(content), nil
}
