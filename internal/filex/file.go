// Package filex holds filesystem helpers for the CLI: working directories and
// the lifecycle of materialized blobs.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// EnsureSubdDir creates dirName if needed and returns its absolute path.
// Relative names are resolved against the working directory.
func EnsureSubdDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// BlobHolder owns at most one materialized blob file at a time. Creating a new
// blob releases the previous one first, and Close releases whatever is held, so
// repeated retrievals never accumulate decrypted files on disk.
type BlobHolder struct {
	mu      sync.Mutex
	dir     string
	current string
}

func NewBlobHolder(dir string) *BlobHolder {
	return &BlobHolder{dir: dir}
}

// Replace releases the held blob and writes data to a new private file whose
// name ends with suffix (e.g. ".pdf"). It returns the new file path.
func (h *BlobHolder) Replace(data []byte, suffix string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.releaseLocked(); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(h.dir, "blob-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close blob: %w", err)
	}

	h.current = f.Name()
	return h.current, nil
}

// Current returns the path of the held blob, or "" when nothing is held.
func (h *BlobHolder) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Close releases the held blob.
func (h *BlobHolder) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.releaseLocked()
}

func (h *BlobHolder) releaseLocked() error {
	if h.current == "" {
		return nil
	}
	if err := os.Remove(h.current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release blob: %w", err)
	}
	h.current = ""
	return nil
}
