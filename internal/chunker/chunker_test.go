package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/embedding/hashing"
)

// topicEmbedder puts every text on one of two axes depending on its topic.
type topicEmbedder struct {
	err   error
	calls int
}

func (e *topicEmbedder) Name() string   { return "topic" }
func (e *topicEmbedder) Dimension() int { return 2 }

func (e *topicEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if strings.Contains(strings.ToLower(text), "stock") {
		return []float64{0, 1}, nil
	}
	return []float64{1, 0}, nil
}

func (e *topicEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func doc(content string) domain.Document {
	return domain.Document{ID: "doc-1", Path: "papers/doc.pdf", Content: content}
}

func TestSentenceChunker_Split(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	chunks, err := c.Split(context.Background(), doc("One. Two. Three. Four."))
	require.NoError(t, err)

	var texts []string
	for _, ch := range chunks {
		texts = append(texts, ch.Text)
	}
	assert.Equal(t, []string{"One. Two.", "Two. Three.", "Three. Four."}, texts)
	assert.Equal(t, 2, chunks[2].Index)
	assert.Equal(t, domain.ChunkID("doc-1", 2), chunks[2].ChunkID)
	assert.Equal(t, "papers/doc.pdf", chunks[2].Source)
}

func TestSentenceChunker_Defaults(t *testing.T) {
	c := NewSentenceChunker(0, 9)
	assert.Equal(t, 5, c.sentencesPerChunk)
	assert.Equal(t, 0, c.overlapSentences)

	chunks, err := c.Split(context.Background(), doc("   "))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestFixedChunker(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := NewFixedChunker()
		assert.Equal(t, DefaultChunkSize, c.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, c.overlap)
	})

	t.Run("overlap exceeds size", func(t *testing.T) {
		c := NewFixedChunker(WithChunkSize(8), WithOverlap(10))
		assert.Equal(t, 2, c.overlap)
	})

	t.Run("windows", func(t *testing.T) {
		c := NewFixedChunker(WithChunkSize(3), WithOverlap(1))
		chunks, err := c.Split(context.Background(), doc("a b c d e f g"))
		require.NoError(t, err)
		var texts []string
		for _, ch := range chunks {
			texts = append(texts, ch.Text)
		}
		assert.Equal(t, []string{"a b c", "c d e", "e f g"}, texts)
	})

	t.Run("empty", func(t *testing.T) {
		chunks, err := NewFixedChunker().Split(context.Background(), doc("\n\t"))
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})
}

func TestSemanticChunker_SplitsOnTopicShift(t *testing.T) {
	emb := &topicEmbedder{}
	c := NewSemanticChunker(emb, 0, 95, 768)
	text := "Cats purr. Cats nap. Cats hunt. Stocks rose. Stocks fell. Stocks rallied."

	chunks, err := c.Split(context.Background(), doc(text))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Cats purr. Cats nap. Cats hunt.", chunks[0].Text)
	assert.Equal(t, "Stocks rose. Stocks fell. Stocks rallied.", chunks[1].Text)
	assert.Equal(t, 1, emb.calls)
}

func TestSemanticChunker_RespectsTokenBudget(t *testing.T) {
	c := NewSemanticChunker(&topicEmbedder{}, 1, 95, 8)
	text := "Cats purr loudly at night. Cats nap all day long. Cats hunt mice in barns."

	chunks, err := c.Split(context.Background(), doc(text))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(strings.Fields(ch.Text)), 8)
	}
}

func TestSemanticChunker_ShortTextSkipsEmbedding(t *testing.T) {
	emb := &topicEmbedder{}
	chunks, err := NewSemanticChunker(emb, 1, 95, 768).Split(context.Background(), doc("Only one sentence."))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Zero(t, emb.calls)
}

func TestSemanticChunker_EmbeddingFailure(t *testing.T) {
	emb := &topicEmbedder{err: errors.New("quota")}
	_, err := NewSemanticChunker(emb, 1, 95, 768).Split(context.Background(), doc("A. B. C. D."))
	var se *domain.ServiceError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, "embedding", se.Service)
}

func TestSemanticChunker_WithHashingEmbedder(t *testing.T) {
	c := NewSemanticChunker(hashing.NewEmbedder(256), 1, 90, 768)
	text := strings.Repeat("Attention layers weigh tokens. ", 5) + strings.Repeat("Gradient descent lowers the loss. ", 5)
	chunks, err := c.Split(context.Background(), doc(text))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var joined []string
	for _, ch := range chunks {
		joined = append(joined, ch.Text)
	}
	assert.Equal(t, strings.TrimSpace(text), strings.Join(joined, " "))
}

func TestPercentile(t *testing.T) {
	assert.Zero(t, percentile(nil, 95))
	assert.InDelta(t, 0.8, percentile([]float64{0, 1, 0, 0, 0}, 95), 1e-9)
	assert.InDelta(t, 2.0, percentile([]float64{3, 1, 2}, 50), 1e-9)
}

func TestPackWords(t *testing.T) {
	out := packWords(strings.Fields(strings.Repeat("word ", 20)), 5)
	require.Greater(t, len(out), 1)
	assert.Equal(t, 20, len(strings.Fields(strings.Join(out, " "))))
}
