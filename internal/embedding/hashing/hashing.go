package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/textutil"
)

// DefaultDimension is the vector size used when none is configured.
const DefaultDimension = 512

// Embedder maps text to a term-frequency vector using the hashing trick.
// It needs no vocabulary, so documents can be added incrementally and the
// vectors stay comparable across process restarts.
type Embedder struct {
	dimension int
}

// NewEmbedder creates a hashing embedder producing vectors of the given size.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}
}

// Name returns the identifier of this embedder and its dimension.
func (e *Embedder) Name() string { return fmt.Sprintf("hashing-%d", e.dimension) }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the sublinear TF vector of text, L2 normalized.
// Text without content words yields the zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, e.dimension)
	tf := make(map[int]float64)
	for _, tok := range textutil.ContentWords(text) {
		idx, sign := e.bucket(tok)
		tf[idx] += sign
	}
	for idx, count := range tf {
		if count == 0 {
			continue
		}
		w := 1 + math.Log(math.Abs(count))
		vec[idx] = math.Copysign(w, count)
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Embedder) bucket(token string) (int, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	sum := h.Sum64()
	sign := 1.0
	if sum>>63 == 1 {
		sign = -1.0
	}
	return int(sum % uint64(e.dimension)), sign
}
