package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/metrics"
)

// DocumentLoader reads files into documents.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (domain.Document, error)
	LoadDir(ctx context.Context, dir string) ([]domain.Document, error)
}

// IndexerOptions wires the ingestion pipeline.
type IndexerOptions struct {
	Loader              DocumentLoader
	Splitter            domain.Splitter
	Embedder            domain.Embedder
	Store               domain.VectorStore
	Summarizer          domain.Summarizer
	Collection          string
	SummaryMaxSentences int
	Metrics             *metrics.Metrics
	Logger              *slog.Logger
}

// Indexer loads, splits and embeds documents into one collection.
// Writes are serialized; a concurrent re-add of the same file resolves as
// last writer wins.
type Indexer struct {
	loader              DocumentLoader
	splitter            domain.Splitter
	embedder            domain.Embedder
	store               domain.VectorStore
	summarizer          domain.Summarizer
	collection          string
	summaryMaxSentences int
	metrics             *metrics.Metrics
	logger              *slog.Logger

	mu sync.Mutex
}

func NewIndexer(opts IndexerOptions) *Indexer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		loader:              opts.Loader,
		splitter:            opts.Splitter,
		embedder:            opts.Embedder,
		store:               opts.Store,
		summarizer:          opts.Summarizer,
		collection:          opts.Collection,
		summaryMaxSentences: opts.SummaryMaxSentences,
		metrics:             opts.Metrics,
		logger:              logger.With("component", "indexer"),
	}
}

// BuildIndex replaces the collection with every ingestible file in dir.
func (ix *Indexer) BuildIndex(ctx context.Context, dir string) (domain.IngestReport, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	docs, err := ix.loader.LoadDir(ctx, dir)
	if err != nil {
		ix.metrics.IngestFailed()
		return domain.IngestReport{}, err
	}
	if len(docs) == 0 {
		ix.metrics.IngestFailed()
		return domain.IngestReport{}, fmt.Errorf("%s: %w", dir, domain.ErrNoDocuments)
	}

	var records []domain.Record
	var corpus strings.Builder
	for _, d := range docs {
		recs, err := ix.embedDocument(ctx, d)
		if err != nil {
			ix.metrics.IngestFailed()
			return domain.IngestReport{}, err
		}
		ix.logger.Debug("document split", "path", d.Path, "chunks", len(recs))
		records = append(records, recs...)
		corpus.WriteString(d.Content)
		corpus.WriteString("\n")
	}
	if len(records) == 0 {
		ix.metrics.IngestFailed()
		return domain.IngestReport{}, fmt.Errorf("%s: %w", dir, domain.ErrNoDocuments)
	}

	if err := ix.replace(ctx, records); err != nil {
		ix.metrics.IngestFailed()
		return domain.IngestReport{}, domain.NewServiceError("vector store", err)
	}

	report := domain.IngestReport{Path: dir, Documents: len(docs), Chunks: len(records)}
	if ix.summarizer != nil {
		summary, err := ix.summarizer.Summarize(corpus.String(), ix.summaryMaxSentences)
		if err != nil {
			ix.logger.Warn("summary failed", "error", err)
		}
		report.Summary = summary
	}
	ix.metrics.Indexed(report.Documents, report.Chunks)
	ix.logger.Info("index built", "dir", dir, "documents", report.Documents, "chunks", report.Chunks, "collection", ix.collection)
	return report, nil
}

// collectionReplacer is implemented by stores that can swap a whole
// collection in one step.
type collectionReplacer interface {
	Replace(ctx context.Context, spec domain.CollectionSpec, records []domain.Record) error
}

// replace swaps the collection for records. Stores without an atomic swap
// are cleared first, so a failed write there leaves the collection empty.
func (ix *Indexer) replace(ctx context.Context, records []domain.Record) error {
	if r, ok := ix.store.(collectionReplacer); ok {
		return r.Replace(ctx, ix.spec(), records)
	}
	if err := ix.store.Clear(ctx); err != nil {
		return err
	}
	if err := ix.store.Init(ctx, ix.spec()); err != nil {
		return err
	}
	return ix.store.Upsert(ctx, records)
}

// AddDocument indexes one file into the existing collection, creating it
// if absent. Records previously stored for the same file are replaced.
func (ix *Indexer) AddDocument(ctx context.Context, path string) (domain.IngestReport, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	report, err := ix.addDocument(ctx, path)
	if err != nil {
		ix.metrics.IngestFailed()
		ix.logger.Warn("add document failed", "path", path, "error", err)
		return domain.IngestReport{}, err
	}
	ix.metrics.Indexed(1, report.Chunks)
	ix.logger.Info("document added", "path", path, "chunks", report.Chunks)
	return report, nil
}

func (ix *Indexer) addDocument(ctx context.Context, path string) (domain.IngestReport, error) {
	doc, err := ix.loader.Load(ctx, path)
	if err != nil {
		return domain.IngestReport{}, err
	}
	records, err := ix.embedDocument(ctx, doc)
	if err != nil {
		return domain.IngestReport{}, err
	}
	if len(records) == 0 {
		return domain.IngestReport{}, fmt.Errorf("%s: %w", path, domain.ErrEmptyDocument)
	}
	if err := ix.store.Init(ctx, ix.spec()); err != nil {
		return domain.IngestReport{}, domain.NewServiceError("vector store", err)
	}
	if err := ix.store.DeleteDocument(ctx, doc.ID); err != nil {
		return domain.IngestReport{}, domain.NewServiceError("vector store", err)
	}
	if err := ix.store.Upsert(ctx, records); err != nil {
		return domain.IngestReport{}, domain.NewServiceError("vector store", err)
	}
	return domain.IngestReport{Path: path, Documents: 1, Chunks: len(records)}, nil
}

func (ix *Indexer) embedDocument(ctx context.Context, doc domain.Document) ([]domain.Record, error) {
	chunks, err := ix.splitter.Split(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", doc.Path, err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, domain.NewServiceError("embedding", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.NewServiceError("embedding", fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}
	records := make([]domain.Record, len(chunks))
	for i := range chunks {
		records[i] = domain.Record{Chunk: chunks[i], Vector: vectors[i]}
	}
	return records, nil
}

// spec must be taken after the first embedding call, since remote
// embedders learn their dimension from the first response.
func (ix *Indexer) spec() domain.CollectionSpec {
	return domain.CollectionSpec{Name: ix.collection, Model: ix.embedder.Name(), Dimension: ix.embedder.Dimension()}
}
