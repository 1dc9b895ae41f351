package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
)

type mockRunner struct {
	output []byte
	err    error
	calls  [][]string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	return m.output, m.err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Text(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.md", "# Attention\nTransformers use attention.")

	l := New("")
	doc, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
	assert.Contains(t, doc.Content, "Transformers")
	assert.NotEmpty(t, doc.ID)

	again, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, again.ID)
}

func TestLoad_PDFUsesPdftotext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "paper.pdf", "%PDF-1.4")
	runner := &mockRunner{output: []byte("Extracted body text.")}

	doc, err := New("/usr/bin/pdftotext").WithRunner(runner).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Extracted body text.", doc.Content)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "/usr/bin/pdftotext", runner.calls[0][0])
	assert.Equal(t, "-", runner.calls[0][len(runner.calls[0])-1])
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	l := New("").WithRunner(&mockRunner{err: errors.New("exit status 1")})

	_, err := l.Load(context.Background(), filepath.Join(dir, "missing.pdf"))
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, err = l.Load(context.Background(), dir)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, err = l.Load(context.Background(), writeFile(t, dir, "image.png", "bytes"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = l.Load(context.Background(), writeFile(t, dir, "blank.txt", "  \n\t"))
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)

	_, err = l.Load(context.Background(), writeFile(t, dir, "broken.pdf", "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "second document")
	writeFile(t, dir, "a.md", "first document")
	writeFile(t, dir, "empty.txt", "")
	writeFile(t, dir, "skip.csv", "a,b")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	docs, err := New("").LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "first document", docs[0].Content)
	assert.Equal(t, "second document", docs[1].Content)

	_, err = New("").LoadDir(context.Background(), filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("x.PDF"))
	assert.True(t, Supported("x.txt"))
	assert.False(t, Supported("x.docx"))
}
