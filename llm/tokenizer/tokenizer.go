// Package tokenizer counts tokens for loaded language models. Engines
// register an exact tokenizer per model id when they know the encoding;
// everything else falls back to character-based estimation.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"
)

// Tokenizer counts tokens for one model.
type Tokenizer interface {
	// CountTokens returns the token count of the given text.
	CountTokens(text string) (int, error)

	// Name identifies the tokenizer implementation.
	Name() string
}

// Registry maps model ids to tokenizers. Lookup tries an exact match
// first, then the longest registered prefix, so "llama-3.2-1b-q4"
// matches a tokenizer registered under "llama-3.2".
type Registry struct {
	mu         sync.RWMutex
	tokenizers map[string]Tokenizer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tokenizers: make(map[string]Tokenizer)}
}

// Register attaches a tokenizer to a model id or id prefix.
func (r *Registry) Register(model string, t Tokenizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenizers[model] = t
}

// Get returns the tokenizer for a model id.
func (r *Registry) Get(model string) (Tokenizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.tokenizers[model]; ok {
		return t, nil
	}
	var best Tokenizer
	bestLen := 0
	for prefix, t := range r.tokenizers {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best = t
			bestLen = len(prefix)
		}
	}
	if best != nil {
		return best, nil
	}
	return nil, fmt.Errorf("no tokenizer registered for model %q", model)
}

// GetOrEstimator returns the registered tokenizer or the character
// estimator when none is registered.
func (r *Registry) GetOrEstimator(model string) Tokenizer {
	t, err := r.Get(model)
	if err != nil {
		return NewEstimator(model)
	}
	return t
}
