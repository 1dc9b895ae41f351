package service

import (
	"context"
	"log/slog"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/metrics"
)

const (
	DefaultTopK     = 2
	DefaultMinScore = 0.2
)

// RetrieverOptions wires the query path. Collection must name the same
// collection the indexer writes to.
type RetrieverOptions struct {
	Embedder   domain.Embedder
	Store      domain.VectorStore
	Collection string
	TopK       int
	MinScore   float64
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Retriever finds the passages most similar to a query.
type Retriever struct {
	embedder   domain.Embedder
	store      domain.VectorStore
	collection string
	topK       int
	minScore   float64
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewRetriever(opts RetrieverOptions) *Retriever {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	minScore := opts.MinScore
	if minScore < 0 {
		minScore = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder:   opts.Embedder,
		store:      opts.Store,
		collection: opts.Collection,
		topK:       topK,
		minScore:   minScore,
		metrics:    opts.Metrics,
		logger:     logger.With("component", "retriever"),
	}
}

// Retrieve returns at most topK passages, best first. Passages scoring
// below the threshold and repeated texts are dropped; an empty result is
// not an error. A collection built by a different embedding model is
// reported as domain.ErrEmbeddingMismatch.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.SearchResult, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domain.NewServiceError("embedding", err)
	}
	spec := domain.CollectionSpec{Name: r.collection, Model: r.embedder.Name(), Dimension: len(vec)}
	if err := r.store.Init(ctx, spec); err != nil {
		return nil, domain.NewServiceError("vector store", err)
	}
	// over-fetch so duplicates do not starve the result
	hits, err := r.store.Search(ctx, vec, r.topK*2)
	if err != nil {
		return nil, domain.NewServiceError("vector store", err)
	}
	seen := make(map[string]struct{}, len(hits))
	out := make([]domain.SearchResult, 0, r.topK)
	for _, h := range hits {
		if h.Score < r.minScore {
			continue
		}
		if _, dup := seen[h.Chunk.Text]; dup {
			continue
		}
		seen[h.Chunk.Text] = struct{}{}
		out = append(out, h)
		if len(out) == r.topK {
			break
		}
	}
	r.metrics.Retrieved(len(out))
	r.logger.Debug("retrieved", "query", query, "candidates", len(hits), "kept", len(out))
	return out, nil
}
