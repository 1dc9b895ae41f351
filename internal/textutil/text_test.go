package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "  \n ", want: nil},
		{name: "no terminator", in: "just words", want: []string{"just words"}},
		{
			name: "line breaks collapsed",
			in:   "Attention is all\nyou need. It works!  Does it?",
			want: []string{"Attention is all you need.", "It works!", "Does it?"},
		},
		{name: "trailing fragment", in: "One. Two", want: []string{"One.", "Two"}},
		{name: "decimals", in: "Pi is 3.14 today. Next.", want: []string{"Pi is 3.14 today.", "Next."}},
		{name: "leading ellipsis", in: "...Wait. Go.", want: []string{"...Wait.", "Go."}},
		{name: "detached ellipsis", in: "... and then?! Done", want: []string{"...", "and then?!", "Done"}},
		{name: "version numbers", in: "We used v1.2.3 of the model. It helped.", want: []string{"We used v1.2.3 of the model.", "It helped."}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sentences(tc.in))
		})
	}
}

func TestContentWords(t *testing.T) {
	assert.Equal(t, []string{"transformer", "uses", "self", "attention", "2017"},
		ContentWords("The Transformer uses self-attention in 2017"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}
