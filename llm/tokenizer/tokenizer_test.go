package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"12345678", 2},
		{"123456789", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateTokens(tt.text), "%q", tt.text)
	}
}

func TestEstimator_ImplementsTokenizer(t *testing.T) {
	t.Parallel()

	var tok Tokenizer = NewEstimator("any-model")
	n, err := tok.CountTokens("hello world")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "estimator", tok.Name())
}

func TestRegistry_PrefixMatch(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	generic := NewEstimator("llama")
	specific := NewEstimator("llama-3.2")
	r.Register("llama", generic)
	r.Register("llama-3.2", specific)

	got, err := r.Get("llama-3.2-1b-q4")
	require.NoError(t, err)
	assert.Same(t, specific, got, "longest prefix wins")

	got, err = r.Get("llama-2-7b")
	require.NoError(t, err)
	assert.Same(t, generic, got)

	_, err = r.Get("phi-3")
	assert.Error(t, err)
}

func TestRegistry_GetOrEstimator(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	tok := r.GetOrEstimator("unknown-model")
	require.NotNil(t, tok)
	assert.Equal(t, "estimator", tok.Name())
}
