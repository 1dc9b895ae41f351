package chunker

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/textutil"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/vectorstore"
)

// SemanticChunker places chunk boundaries where the meaning of the text
// shifts. Each sentence is embedded together with bufferSize neighbours on
// either side; a boundary goes after sentence i when the cosine distance
// between windows i and i+1 is above the breakpoint percentile of all
// adjacent distances. Chunks above maxTokens are cut again at sentence
// boundaries.
type SemanticChunker struct {
	embedder   domain.Embedder
	bufferSize int
	percentile float64
	maxTokens  int
}

func NewSemanticChunker(embedder domain.Embedder, bufferSize int, breakpointPercentile float64, maxTokens int) *SemanticChunker {
	if bufferSize < 0 {
		bufferSize = 1
	}
	if breakpointPercentile <= 0 || breakpointPercentile > 100 {
		breakpointPercentile = 95
	}
	if maxTokens <= 0 {
		maxTokens = DefaultChunkSize
	}
	return &SemanticChunker{
		embedder:   embedder,
		bufferSize: bufferSize,
		percentile: breakpointPercentile,
		maxTokens:  maxTokens,
	}
}

func (c *SemanticChunker) Split(ctx context.Context, document domain.Document) ([]domain.Chunk, error) {
	sentences := textutil.Sentences(document.Content)
	if len(sentences) == 0 {
		return nil, nil
	}
	groups := [][]string{sentences}
	if len(sentences) > 2 {
		var err error
		groups, err = c.semanticGroups(ctx, sentences)
		if err != nil {
			return nil, err
		}
	}
	var texts []string
	for _, g := range groups {
		texts = append(texts, packSentences(g, c.maxTokens)...)
	}
	return assemble(document, texts), nil
}

func (c *SemanticChunker) semanticGroups(ctx context.Context, sentences []string) ([][]string, error) {
	windows := make([]string, len(sentences))
	for i := range sentences {
		lo := i - c.bufferSize
		if lo < 0 {
			lo = 0
		}
		hi := i + c.bufferSize + 1
		if hi > len(sentences) {
			hi = len(sentences)
		}
		windows[i] = strings.Join(sentences[lo:hi], " ")
	}
	vectors, err := c.embedder.EmbedBatch(ctx, windows)
	if err != nil {
		return nil, domain.NewServiceError("embedding", fmt.Errorf("embed sentence windows: %w", err))
	}
	if len(vectors) != len(windows) {
		return nil, domain.NewServiceError("embedding", fmt.Errorf("got %d vectors for %d sentence windows", len(vectors), len(windows)))
	}
	distances := make([]float64, len(vectors)-1)
	for i := range distances {
		distances[i] = 1 - vectorstore.Cosine(vectors[i], vectors[i+1])
	}
	threshold := percentile(distances, c.percentile)

	var groups [][]string
	start := 0
	for i, d := range distances {
		if d > threshold {
			groups = append(groups, sentences[start:i+1])
			start = i + 1
		}
	}
	return append(groups, sentences[start:]), nil
}

// packSentences greedily fills chunks up to maxTokens. A single sentence
// over the budget is cut on word boundaries.
func packSentences(sentences []string, maxTokens int) []string {
	var out []string
	var cur []string
	curTokens := 0
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, " "))
			cur = nil
			curTokens = 0
		}
	}
	for _, s := range sentences {
		n := textutil.EstimateTokens(s)
		if n > maxTokens {
			flush()
			out = append(out, packWords(strings.Fields(s), maxTokens)...)
			continue
		}
		if curTokens+n > maxTokens {
			flush()
		}
		cur = append(cur, s)
		curTokens += n + 1
	}
	flush()
	return out
}

func packWords(words []string, maxTokens int) []string {
	var out []string
	var b strings.Builder
	for _, w := range words {
		if b.Len() > 0 && textutil.EstimateTokens(b.String())+textutil.EstimateTokens(w)+1 > maxTokens {
			out = append(out, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// percentile uses linear interpolation between closest ranks.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}
