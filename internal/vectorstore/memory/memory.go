package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/vectorstore"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
// Records are keyed by chunk id, so upserting the same chunk twice replaces it.
type Storage struct {
	mu      sync.RWMutex
	spec    *domain.CollectionSpec
	order   []string
	records map[string]domain.Record
}

func NewStorage() *Storage { return &Storage{records: make(map[string]domain.Record)} }

func (s *Storage) Init(_ context.Context, spec domain.CollectionSpec) error {
	if spec.Dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spec != nil {
		if s.spec.Model != spec.Model || s.spec.Dimension != spec.Dimension {
			return fmt.Errorf("%w: collection %q holds %s/%d, got %s/%d", domain.ErrEmbeddingMismatch,
				s.spec.Name, s.spec.Model, s.spec.Dimension, spec.Model, spec.Dimension)
		}
		return nil
	}
	s.spec = &spec
	return nil
}

func (s *Storage) Upsert(_ context.Context, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spec == nil {
		return errors.New("collection not initialised")
	}
	for _, r := range records {
		if len(r.Vector) != s.spec.Dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for _, r := range records {
		if _, ok := s.records[r.Chunk.ChunkID]; !ok {
			s.order = append(s.order, r.Chunk.ChunkID)
		}
		s.records[r.Chunk.ChunkID] = r
	}
	return nil
}

func (s *Storage) DeleteDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.order[:0]
	for _, id := range s.order {
		if s.records[id].Chunk.DocumentID == documentID {
			delete(s.records, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	results := make([]domain.SearchResult, 0, len(s.order))
	for _, id := range s.order {
		r := s.records[id]
		results = append(results, domain.SearchResult{Chunk: r.Chunk, Score: vectorstore.Cosine(r.Vector, vector)})
	}
	return vectorstore.TopK(results, topK), nil
}

func (s *Storage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spec = nil
	s.order = nil
	s.records = make(map[string]domain.Record)
	return nil
}

// Replace swaps the whole collection for records. Nothing changes if any
// record has the wrong dimension.
func (s *Storage) Replace(_ context.Context, spec domain.CollectionSpec, records []domain.Record) error {
	if spec.Dimension <= 0 {
		return errors.New("invalid dimension")
	}
	next := make(map[string]domain.Record, len(records))
	var order []string
	for _, r := range records {
		if len(r.Vector) != spec.Dimension {
			return errors.New("vector dimension mismatch")
		}
		if _, ok := next[r.Chunk.ChunkID]; !ok {
			order = append(order, r.Chunk.ChunkID)
		}
		next[r.Chunk.ChunkID] = r
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spec = &spec
	s.order = order
	s.records = next
	return nil
}

// Len returns the number of stored records.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Storage) Close() error { return nil }
