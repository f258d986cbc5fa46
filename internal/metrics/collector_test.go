package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.modelLoadsTotal)
	assert.NotNil(t, collector.inferenceTotal)
	assert.NotNil(t, collector.eventsRouted)
	assert.NotNil(t, collector.voiceTurnsTotal)
}

func TestCollector_RecordModelLoad(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordModelLoad("llm", "llamacpp", "success", 2*time.Second)
	collector.RecordModelLoad("llm", "llamacpp", "failure", 0)

	assert.Greater(t, testutil.CollectAndCount(collector.modelLoadsTotal), 0)
	// failed loads do not observe a duration
	assert.Equal(t, 1, testutil.CollectAndCount(collector.modelLoadSeconds))
}

func TestCollector_RecordInference(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordInference("stt", "whispercpp", "success", 300*time.Millisecond)
	collector.RecordTokens("llamacpp", 100, 50)
	collector.RecordAudioIn("stt", 32000)
	collector.RecordAudioOut("tts", 44100)

	assert.Greater(t, testutil.CollectAndCount(collector.inferenceTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.tokensGenerated), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.audioBytesIn), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.audioBytesOut), 0)
}

func TestCollector_RecordEvent(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordEvent("load.completed", "all")
	collector.RecordEvent("llm.generation.update", "public_only")

	assert.Equal(t, 2, testutil.CollectAndCount(collector.eventsRouted))
}

func TestCollector_RecordVoiceTurn(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordVoiceTurn("success", 1200*time.Millisecond)
	collector.RecordVoiceStage("transcribe", 300*time.Millisecond)
	collector.RecordVoiceStage("generate", 600*time.Millisecond)
	collector.RecordVoiceStage("synthesize", 300*time.Millisecond)

	assert.Greater(t, testutil.CollectAndCount(collector.voiceTurnsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.voiceStageSecond), 0)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			collector.RecordInference("llm", "llamacpp", "success", 100*time.Millisecond)
			collector.RecordEvent("llm.generation.completed", "all")
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Greater(t, testutil.CollectAndCount(collector.inferenceTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.eventsRouted), 0)
}
