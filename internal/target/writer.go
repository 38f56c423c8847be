package target

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
)

// WriteResult describes one cache write.
type WriteResult struct {
	Path    string `json:"path"`
	Hash    string `json:"hash"`
	Changed bool   `json:"changed"`
	Bytes   int    `json:"bytes"`
}

// Writer persists caches atomically and skips writes that would not change the file.
type Writer struct {
	path string

	mu sync.Mutex
}

// NewWriter creates a writer for path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the cache file path.
func (w *Writer) Path() string { return w.path }

// Write encodes cache and replaces the cache file when its content changed.
func (w *Writer) Write(ctx context.Context, cache *Cache) (WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return WriteResult{}, err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return WriteResult{}, errors.WrapError(err, errors.CategoryTarget, "failed to encode cache").Build()
	}
	data = append(data, '\n')
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	res := WriteResult{Path: w.path, Hash: hash, Bytes: len(data)}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Compared against the file on disk: a removed or edited cache is rewritten.
	if fileHash(w.path) == hash {
		return res, nil
	}

	if err := writeAtomic(w.path, data); err != nil {
		return WriteResult{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to write cache").
			WithContext("path", w.path).
			Build()
	}
	res.Changed = true
	return res, nil
}

// writeAtomic writes data to a temp file in the target directory and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func fileHash(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
