package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-novel-spider/models"
)

// TextStore writes decoded documents as UTF-8 text files.
type TextStore struct {
	dir string
}

// NewTextStore targets dir; the directory is created on first write.
func NewTextStore(dir string) *TextStore {
	return &TextStore{dir: dir}
}

// Dir returns the output directory.
func (ts *TextStore) Dir() string {
	return ts.dir
}

// Save writes doc for entry and returns the file path. The write goes
// through a temporary file and a rename, so a file either holds a complete
// document or keeps its previous content. Existing files are overwritten.
func (ts *TextStore) Save(entry models.ListingEntry, doc models.DecodedDocument) (string, error) {
	if err := os.MkdirAll(ts.dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %q: %w", ts.dir, err)
	}

	path := filepath.Join(ts.dir, FileName(entry.Title, entry.Author))
	tmp, err := os.CreateTemp(ts.dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(doc.Text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	return path, nil
}
