package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestStreamingMetricsLifecycle(t *testing.T) {
	t.Parallel()

	sm := NewStreamingMetrics("model-a", "gen-1", 40)
	sm.MarkStart()

	assert.Equal(t, time.Duration(0), sm.TimeToFirstToken())

	sm.RecordToken("hello ")
	sm.RecordToken("world")
	assert.Equal(t, 2, sm.TokenCount())
	assert.Equal(t, "hello world", sm.Text())
	assert.GreaterOrEqual(t, sm.TimeToFirstToken(), time.Duration(0))

	sm.MarkComplete()
	res := sm.Result()
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, "model-a", res.ModelID)
	// 40 chars of prompt estimate to 10 tokens
	assert.Equal(t, 10, res.InputTokens)
	// 11 chars of output estimate to 2 tokens
	assert.Equal(t, 2, res.OutputTokens)
	assert.GreaterOrEqual(t, res.Latency, time.Duration(0))
}

func TestStreamingMetricsEstimationFloor(t *testing.T) {
	t.Parallel()

	sm := NewStreamingMetrics("m", "g", 2)
	sm.MarkStart()
	sm.RecordToken("ab")
	sm.MarkComplete()

	res := sm.Result()
	assert.Equal(t, 1, res.InputTokens)
	assert.Equal(t, 1, res.OutputTokens)
}

func TestStreamingMetricsActualCounts(t *testing.T) {
	t.Parallel()

	sm := NewStreamingMetrics("m", "g", 1000)
	sm.MarkStart()
	sm.RecordToken(strings.Repeat("x", 100))
	sm.SetTokenCounts(123, 45)
	sm.MarkComplete()

	res := sm.Result()
	assert.Equal(t, 123, res.InputTokens)
	assert.Equal(t, 45, res.OutputTokens)
}

func TestStreamingMetricsTokensPerSecond(t *testing.T) {
	t.Parallel()

	sm := NewStreamingMetrics("m", "g", 4)
	sm.MarkStart()
	sm.RecordToken(strings.Repeat("a", 400))
	time.Sleep(10 * time.Millisecond)
	sm.MarkComplete()

	res := sm.Result()
	assert.Equal(t, 100, res.OutputTokens)
	assert.Greater(t, res.TokensPerSecond, 0.0)
	assert.InDelta(t, float64(res.OutputTokens)/res.Latency.Seconds(), res.TokensPerSecond, 0.001)
}

func TestStreamingMetricsEstimationProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		promptLen := rapid.IntRange(0, 10_000).Draw(t, "promptLen")
		text := rapid.StringN(-1, 2000, 8000).Draw(t, "text")

		sm := NewStreamingMetrics("m", "g", promptLen)
		sm.MarkStart()
		if text != "" {
			sm.RecordToken(text)
		}
		sm.MarkComplete()
		res := sm.Result()

		wantIn := promptLen / 4
		if wantIn < 1 {
			wantIn = 1
		}
		wantOut := len(text) / 4
		if wantOut < 1 {
			wantOut = 1
		}
		assert.Equal(t, wantIn, res.InputTokens)
		assert.Equal(t, wantOut, res.OutputTokens)
	})
}
