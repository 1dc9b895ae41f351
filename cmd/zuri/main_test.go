package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/config"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/logging"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := `
data:
  papers_dir: ` + filepath.Join(dir, "papers") + `
  upload_dir: ` + filepath.Join(dir, "data") + `
embedder:
  type: hashing
chunker:
  type: sentence
  sentences_per_chunk: 2
vector_store:
  type: sqlite
  sqlite:
    path: ` + filepath.Join(dir, "index_db", "zuri.db") + `
summarizer:
  max_sentences: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgPath, logLevel = "", ""
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestIndexThenAdd(t *testing.T) {
	dir := t.TempDir()
	cfgFile := writeConfig(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "papers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "papers", "attention.txt"),
		[]byte("Attention weighs tokens. Heads run in parallel. Layers stack."), 0o644))

	out, err := execute(t, "--config", cfgFile, "--log-level", "error", "index")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully built and registered the index")
	assert.Contains(t, out, "Indexed 1 documents into 2 chunks")

	extra := filepath.Join(dir, "bert.md")
	require.NoError(t, os.WriteFile(extra, []byte("BERT is pretrained with masked language modelling."), 0o644))
	out, err = execute(t, "--config", cfgFile, "--log-level", "error", "add", extra)
	require.NoError(t, err)
	assert.Contains(t, out, "Added "+extra+" with 1 chunks")
}

func TestIndex_EmptyDirectoryFails(t *testing.T) {
	dir := t.TempDir()
	cfgFile := writeConfig(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "papers"), 0o755))

	_, err := execute(t, "--config", cfgFile, "--log-level", "error", "index")
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestNewApp_Factories(t *testing.T) {
	c, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	c.Embedder = config.EmbedderConfig{Type: "hashing", Hashing: &config.HashingEmbedderConfig{Dimension: 64}}
	c.VectorStore = config.VectorStoreConfig{Type: "memory", Collection: "llm_papers"}

	for _, chunkerType := range []string{"semantic", "fixed", "sentence"} {
		c.Chunker.Type = chunkerType
		a, err := newApp(c, logging.Discard())
		require.NoError(t, err, chunkerType)
		require.NoError(t, a.Close())
	}

	c.Chunker.Type = "paragraph"
	_, err = newApp(c, logging.Discard())
	assert.ErrorIs(t, err, domain.ErrConfig)

	c.Chunker.Type = "sentence"
	c.VectorStore.Type = "qdrant"
	_, err = newApp(c, logging.Discard())
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestAgentRequiresCompletionKey(t *testing.T) {
	c, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	c.Embedder = config.EmbedderConfig{Type: "hashing"}
	c.VectorStore = config.VectorStoreConfig{Type: "memory", Collection: "llm_papers"}
	c.LLM.APIKeyEnv = "ZURI_TEST_UNSET_KEY"
	t.Setenv("ZURI_TEST_UNSET_KEY", "")

	a, err := newApp(c, logging.Discard())
	require.NoError(t, err)
	defer a.Close()
	_, err = a.agent()
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestChatLogFile(t *testing.T) {
	buf := new(bytes.Buffer)
	chatCmd.SetErr(buf)
	t.Cleanup(func() {
		chatCmd.SetErr(nil)
		chatLogFile = ""
		closeLogFile()
	})

	// a directory cannot be opened for writing
	chatLogFile = t.TempDir()
	w := logOutput(chatCmd)
	assert.Equal(t, io.Discard, w)
	assert.Nil(t, logFile)
	assert.Contains(t, buf.String(), "cannot open log file")

	chatLogFile = filepath.Join(t.TempDir(), "chat.log")
	w = logOutput(chatCmd)
	require.NotNil(t, logFile)
	_, err := io.WriteString(w, "hello\n")
	require.NoError(t, err)

	f := logFile
	closeLogFile()
	assert.Nil(t, logFile)
	assert.Error(t, f.Close(), "handle must already be closed")
	data, err := os.ReadFile(chatLogFile)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}
