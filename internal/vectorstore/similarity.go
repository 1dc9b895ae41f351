// Package vectorstore holds the similarity helpers shared by the vector
// store backends. Backends live in subpackages.
package vectorstore

import (
	"math"
	"sort"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
)

// Cosine returns the cosine similarity of a and b, or 0 when the vectors
// differ in length or either has zero norm.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK sorts results by descending score and keeps at most k of them.
func TopK(results []domain.SearchResult, k int) []domain.SearchResult {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && k < len(results) {
		results = results[:k]
	}
	return results
}
