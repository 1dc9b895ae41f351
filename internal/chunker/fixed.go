package chunker

import (
	"context"
	"errors"
	"strings"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
)

// Defaults for the fixed-width window, in whitespace-delimited tokens.
const (
	DefaultChunkSize    = 768
	DefaultChunkOverlap = 64
)

// FixedChunker cuts content into fixed windows of whitespace tokens,
// ignoring sentence and topic boundaries.
type FixedChunker struct {
	chunkSize int
	overlap   int
}

// Option configures a FixedChunker.
type Option func(*FixedChunker)

// WithChunkSize sets the window size in tokens.
func WithChunkSize(size int) Option {
	return func(c *FixedChunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the number of tokens shared by consecutive windows.
func WithOverlap(overlap int) Option {
	return func(c *FixedChunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

func NewFixedChunker(opts ...Option) *FixedChunker {
	c := &FixedChunker{chunkSize: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

func (c *FixedChunker) Split(_ context.Context, document domain.Document) ([]domain.Chunk, error) {
	step := c.chunkSize - c.overlap
	if step <= 0 {
		return nil, errors.New("chunk overlap must be smaller than chunk size")
	}
	units := strings.Fields(document.Content)
	if len(units) == 0 {
		return nil, nil
	}
	var texts []string
	for start := 0; start < len(units); start += step {
		end := start + c.chunkSize
		if end > len(units) {
			end = len(units)
		}
		texts = append(texts, strings.Join(units[start:end], " "))
		if end == len(units) {
			break
		}
	}
	return assemble(document, texts), nil
}
