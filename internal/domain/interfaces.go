package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Document represents a single source file loaded into the system.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a semantically meaningful part of a document used for indexing.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Source     string
	Text       string
	Index      int
}

// Record is a chunk paired with its embedding, as persisted in a collection.
type Record struct {
	Chunk  Chunk
	Vector []float64
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// CollectionSpec binds a collection to the embedding model that produced its vectors.
type CollectionSpec struct {
	Name      string
	Model     string
	Dimension int
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	Path      string
	Documents int
	Chunks    int
	Summary   string
}

func (r IngestReport) String() string {
	return fmt.Sprintf("Added %s with %d chunks", r.Path, r.Chunks)
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Splitter splits documents into chunks suitable for retrieval indexing.
type Splitter interface {
	Split(ctx context.Context, document Document) ([]Chunk, error)
}

// VectorStore persists vectors and supports similarity search.
//
// Init is get-or-create: it must fail with ErrEmbeddingMismatch when the
// collection already exists with a different model or dimension.
type VectorStore interface {
	Init(ctx context.Context, spec CollectionSpec) error
	Upsert(ctx context.Context, records []Record) error
	DeleteDocument(ctx context.Context, documentID string) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Clear(ctx context.Context) error
	Close() error
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

var recordNamespace = uuid.MustParse("6f1c1f0e-1b2a-4a43-9a57-2f0c5b0d7e11")

// ChunkID derives a stable record id for the index-th chunk of a document.
// Re-ingesting a document therefore overwrites its previous records.
func ChunkID(documentID string, index int) string {
	return uuid.NewSHA1(recordNamespace, []byte(fmt.Sprintf("%s:%d", documentID, index))).String()
}
