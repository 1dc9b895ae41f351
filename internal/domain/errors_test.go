package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewServiceError(t *testing.T) {
	assert.NoError(t, NewServiceError("embedding", nil))

	base := errors.New("quota exceeded")
	err := NewServiceError("embedding", base)
	assert.EqualError(t, err, "embedding: quota exceeded")
	assert.ErrorIs(t, err, base)

	// already classified errors keep their original service
	again := NewServiceError("chat", fmt.Errorf("retrieve: %w", err))
	var se *ServiceError
	assert.True(t, errors.As(again, &se))
	assert.Equal(t, "embedding", se.Service)
}

func TestIsDocumentError(t *testing.T) {
	assert.True(t, IsDocumentError(fmt.Errorf("load x.pdf: %w", ErrDocumentNotFound)))
	assert.True(t, IsDocumentError(ErrUnsupportedFormat))
	assert.True(t, IsDocumentError(ErrEmptyDocument))
	assert.False(t, IsDocumentError(ErrNotUploaded))
	assert.False(t, IsDocumentError(&ServiceError{Service: "store", Err: errors.New("x")}))
}

func TestChunkIDIsDeterministic(t *testing.T) {
	a := ChunkID("doc", 0)
	assert.Equal(t, a, ChunkID("doc", 0))
	assert.NotEqual(t, a, ChunkID("doc", 1))
	assert.NotEqual(t, a, ChunkID("other", 0))
	assert.Len(t, a, 36)
}

func TestIngestReportString(t *testing.T) {
	r := IngestReport{Path: "data/transformers.pdf", Chunks: 12}
	assert.Equal(t, "Added data/transformers.pdf with 12 chunks", r.String())
}
