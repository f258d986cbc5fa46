package tokenizer

// EstimateTokens approximates the token count of text at roughly four
// characters per token, rounding up. Non-empty text always estimates to
// at least one token.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := (len(text) + 3) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// Estimator is the fallback Tokenizer used when a model has no exact
// tokenizer registered.
type Estimator struct {
	model string
}

// NewEstimator creates an estimator for a model.
func NewEstimator(model string) *Estimator {
	return &Estimator{model: model}
}

func (e *Estimator) CountTokens(text string) (int, error) {
	return EstimateTokens(text), nil
}

func (e *Estimator) Name() string { return "estimator" }
