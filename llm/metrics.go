package llm

import (
	"strings"
	"sync"
	"time"
)

// StreamingResult is the final accounting of one generation.
type StreamingResult struct {
	Text            string
	InputTokens     int
	OutputTokens    int
	ModelID         string
	Latency         time.Duration
	TimeToFirst     time.Duration
	TokensPerSecond float64
}

// StreamingMetrics accumulates timing and token counts for a single
// generation. It is safe for concurrent use; the engine's token
// callback and the caller may touch it from different goroutines.
type StreamingMetrics struct {
	mu sync.Mutex

	modelID      string
	generationID string
	promptLength int

	start      time.Time
	firstToken time.Time
	end        time.Time

	text          strings.Builder
	tokenCount    int
	firstRecorded bool
	complete      bool

	// actual counts reported by the backend; zero means estimate
	actualInput  int
	actualOutput int
}

// NewStreamingMetrics creates a collector for one generation.
func NewStreamingMetrics(modelID, generationID string, promptLength int) *StreamingMetrics {
	return &StreamingMetrics{
		modelID:      modelID,
		generationID: generationID,
		promptLength: promptLength,
	}
}

// MarkStart records the generation start time.
func (m *StreamingMetrics) MarkStart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.start = time.Now()
}

// RecordToken accumulates one streamed token. The first call also
// records the time-to-first-token timestamp.
func (m *StreamingMetrics) RecordToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.firstRecorded {
		m.firstToken = time.Now()
		m.firstRecorded = true
	}
	m.text.WriteString(token)
	m.tokenCount++
}

// MarkComplete records the end of a successful generation.
func (m *StreamingMetrics) MarkComplete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.end = time.Now()
	m.complete = true
}

// MarkFailed records the end of a failed generation.
func (m *StreamingMetrics) MarkFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.end = time.Now()
	m.complete = true
}

// SetTokenCounts overrides estimation with exact counts from the
// backend. Zero values keep the estimate.
func (m *StreamingMetrics) SetTokenCounts(inputTokens, outputTokens int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actualInput = inputTokens
	m.actualOutput = outputTokens
}

// TimeToFirstToken returns the measured TTFT, or zero before the first
// token arrives.
func (m *StreamingMetrics) TimeToFirstToken() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.firstRecorded || m.start.IsZero() {
		return 0
	}
	return m.firstToken.Sub(m.start)
}

// TokenCount returns the number of tokens recorded so far.
func (m *StreamingMetrics) TokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenCount
}

// Text returns the accumulated text so far.
func (m *StreamingMetrics) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text.String()
}

// Result computes the final metrics. When the backend did not report
// token counts, both sides are estimated at ~4 chars per token with a
// floor of one token.
func (m *StreamingMetrics) Result() StreamingResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.end
	if end.IsZero() {
		end = time.Now()
	}
	latency := end.Sub(m.start)

	var ttft time.Duration
	if m.firstRecorded && !m.start.IsZero() {
		ttft = m.firstToken.Sub(m.start)
	}

	inputTokens := m.actualInput
	if inputTokens <= 0 {
		inputTokens = m.promptLength / 4
		if inputTokens < 1 {
			inputTokens = 1
		}
	}
	outputTokens := m.actualOutput
	if outputTokens <= 0 {
		outputTokens = m.text.Len() / 4
		if outputTokens < 1 {
			outputTokens = 1
		}
	}

	var tps float64
	if latency > 0 {
		tps = float64(outputTokens) / latency.Seconds()
	}

	return StreamingResult{
		Text:            m.text.String(),
		InputTokens:     inputTokens,
		OutputTokens:    outputTokens,
		ModelID:         m.modelID,
		Latency:         latency,
		TimeToFirst:     ttft,
		TokensPerSecond: tps,
	}
}
