package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/chunker"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/embedding/hashing"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/loader"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/service"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/uploads"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/vectorstore/memory"
)

const paperText = `Multi head attention runs several attention heads in parallel over the same tokens.
Each head projects queries, keys and values into a smaller subspace.`

type pdfText string

func (p pdfText) Run(context.Context, string, ...string) ([]byte, error) { return []byte(p), nil }

func TestScenario_UploadIndexAndAsk(t *testing.T) {
	ctx := context.Background()
	embedder := hashing.NewEmbedder(1024)
	store := memory.NewStorage()
	registry := uploads.NewRegistry(t.TempDir())
	indexer := service.NewIndexer(service.IndexerOptions{
		Loader:     loader.New("").WithRunner(pdfText(paperText)),
		Splitter:   chunker.NewSentenceChunker(5, 0),
		Embedder:   embedder,
		Store:      store,
		Collection: "llm_papers",
	})
	retriever := service.NewRetriever(service.RetrieverOptions{Embedder: embedder, Store: store, Collection: "llm_papers"})

	status, err := registry.Upload(writeTemp(t, "transformers.pdf", "%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "File uploaded: transformers.pdf", status)

	c := &scriptedCompleter{responses: []Completion{
		toolCall(ToolAddNewPaper, `{"filename":"transformers.pdf"}`),
		{Content: "Added."},
		toolCall(ToolRAGSearch, `{"query":"multi head attention heads"}`),
		{Content: "Several heads run in parallel."},
		toolCall(ToolRAGSearch, `{"query":"quantum chromodynamics lattice"}`),
	}}
	a := NewAgent(Options{Completer: c, Retriever: retriever, Indexer: indexer, Registry: registry})

	var h History
	h = a.Turn(ctx, h, "Please add transformers.pdf")
	h = a.Turn(ctx, h, "What is multi-head attention?")
	h = a.Turn(ctx, h, "Explain quantum chromodynamics")

	require.Len(t, h, 3)
	assert.Equal(t, "Added.", h[0].Assistant)
	assert.Equal(t, "Several heads run in parallel.", h[1].Assistant)
	assert.Equal(t, DefaultFallback, h[2].Assistant)
	assert.Equal(t, 1, store.Len())

	require.Len(t, c.requests, 5)
	addResult := c.requests[1].Messages[len(c.requests[1].Messages)-1].Content
	assert.True(t, strings.HasPrefix(addResult, "Paper indexed: Added "), addResult)
	assert.True(t, strings.HasSuffix(addResult, "transformers.pdf with 1 chunks"), addResult)

	searchResult := c.requests[3].Messages[len(c.requests[3].Messages)-1].Content
	assert.Contains(t, searchResult, "Multi head attention runs several attention heads")

	// the second turn sees the first exchange as history
	assert.Equal(t, "Please add transformers.pdf", c.requests[2].Messages[1].Content)
	assert.Equal(t, "Added.", c.requests[2].Messages[2].Content)
}
