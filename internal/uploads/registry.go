// Package uploads keeps track of files the user has handed to the application.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
)

// Registry maps uploaded file names to their copies in the data directory.
// It is safe for concurrent use and lives for the lifetime of the process.
type Registry struct {
	dir string

	mu    sync.RWMutex
	files map[string]string
}

func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir, files: make(map[string]string)}
}

// Dir returns the directory uploads are copied into.
func (r *Registry) Dir() string { return r.dir }

// Upload copies the file at src into the data directory and registers it
// under its base name. The returned status is meant for the user.
func (r *Registry) Upload(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer in.Close()
	return r.Save(filepath.Base(src), in)
}

// Save stores the content under name. A later upload with the same name
// overwrites the earlier copy.
func (r *Registry) Save(name string, content io.Reader) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: empty file name", domain.ErrUnsupportedFormat)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	dst := filepath.Join(r.dir, name)

	r.mu.Lock()
	defer r.mu.Unlock()
	// a failed copy must not leave a truncated file under the final name
	tmp, err := os.CreateTemp(r.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store upload: %w", err)
	}
	r.files[name] = dst
	return "File uploaded: " + name, nil
}

// Lookup returns the local path registered for name.
func (r *Registry) Lookup(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	path, ok := r.files[name]
	return path, ok
}

// Names lists registered file names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.files))
	for n := range r.files {
		names = append(names, n)
	}
	return names
}
