package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 3}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 1}, []float64{-1, -1}), 1e-9)
	assert.Zero(t, Cosine([]float64{1, 0}, []float64{1, 0, 0}))
	assert.Zero(t, Cosine([]float64{0, 0}, []float64{1, 0}))
}

func TestTopK(t *testing.T) {
	in := []domain.SearchResult{
		{Chunk: domain.Chunk{Text: "low"}, Score: 0.1},
		{Chunk: domain.Chunk{Text: "high"}, Score: 0.9},
		{Chunk: domain.Chunk{Text: "mid"}, Score: 0.5},
	}
	out := TopK(in, 2)
	assert.Len(t, out, 2)
	assert.Equal(t, "high", out[0].Chunk.Text)
	assert.Equal(t, "mid", out[1].Chunk.Text)

	assert.Len(t, TopK(in, 0), 3)
}
