// Package loader turns files on disk into documents with extracted text.
package loader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
)

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr strings.Builder
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Loader reads PDF, plain text and markdown files.
type Loader struct {
	pdftotext string
	runner    CommandRunner
}

// New creates a loader that extracts PDF text with the given pdftotext binary.
func New(pdftotext string) *Loader {
	if pdftotext == "" {
		pdftotext = "pdftotext"
	}
	return &Loader{pdftotext: pdftotext, runner: execRunner{}}
}

// WithRunner replaces the command runner, for tests.
func (l *Loader) WithRunner(r CommandRunner) *Loader {
	l.runner = r
	return l
}

// Supported reports whether the file extension is ingestible.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// Load reads one file. The document id is derived from the absolute path,
// so the same file always maps to the same id.
func (l *Loader) Load(ctx context.Context, path string) (domain.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%s: %w", path, domain.ErrDocumentNotFound)
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return domain.Document{}, fmt.Errorf("%s: %w", path, domain.ErrDocumentNotFound)
	}
	if !Supported(abs) {
		return domain.Document{}, fmt.Errorf("%s: %w", path, domain.ErrUnsupportedFormat)
	}

	var content string
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".pdf":
		out, err := l.runner.Run(ctx, l.pdftotext, "-enc", "UTF-8", abs, "-")
		if err != nil {
			return domain.Document{}, fmt.Errorf("extract %s: %w", path, err)
		}
		content = string(out)
	default:
		data, err := os.ReadFile(abs)
		if err != nil {
			return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
		}
		content = string(data)
	}
	if strings.TrimSpace(content) == "" {
		return domain.Document{}, fmt.Errorf("%s: %w", path, domain.ErrEmptyDocument)
	}
	return domain.Document{ID: hashString(abs), Path: path, Content: content}, nil
}

// LoadDir loads every supported file directly under dir, in name order.
// Files that yield no text are skipped; the returned slice may be empty.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	var docs []domain.Document
	for _, e := range entries {
		if e.IsDir() || e.Type()&fs.ModeSymlink != 0 || !Supported(e.Name()) {
			continue
		}
		d, err := l.Load(ctx, filepath.Join(dir, e.Name()))
		if errors.Is(err, domain.ErrEmptyDocument) {
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
