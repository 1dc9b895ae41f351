package summarizer

import (
	"math"
	"sort"
	"strings"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/textutil"
)

// DefaultMaxSentences is used when the caller asks for a non-positive length.
const DefaultMaxSentences = 5

// FrequencySummarizer ranks sentences by content-word frequency and keeps
// the best ones in document order.
type FrequencySummarizer struct {
	// MaxInput bounds the number of sentences considered; zero means no bound.
	MaxInput int
}

func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{MaxInput: 5000}
}

// Summarize returns an extractive summary of at most maxSentences sentences.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return "", nil
	}
	if s.MaxInput > 0 && len(sentences) > s.MaxInput {
		sentences = sentences[:s.MaxInput]
	}

	tokens := make([][]string, len(sentences))
	freq := map[string]float64{}
	for i, sent := range sentences {
		tokens[i] = textutil.ContentWords(sent)
		for _, tok := range tokens[i] {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i := range sentences {
		sum := 0.0
		for _, tok := range tokens[i] {
			sum += freq[tok]
		}
		// long sentences would otherwise always win
		if n := len(textutil.Words(sentences[i])); n > 0 {
			sum /= math.Sqrt(float64(n))
		}
		scores[i] = scored{i, sum}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}

	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}
