// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector registers and records the runtime's Prometheus metrics:
// model loads, per-capability inference calls, event routing, and
// voice turns. Metrics are namespace-isolated; promauto registers
// everything on the default registry.
type Collector struct {
	// Model lifecycle
	modelLoadsTotal  *prometheus.CounterVec
	modelLoadSeconds *prometheus.HistogramVec
	modelUnloads     *prometheus.CounterVec

	// Inference
	inferenceTotal   *prometheus.CounterVec
	inferenceSeconds *prometheus.HistogramVec
	tokensGenerated  *prometheus.CounterVec
	audioBytesIn     *prometheus.CounterVec
	audioBytesOut    *prometheus.CounterVec

	// Event bus
	eventsRouted *prometheus.CounterVec

	// Voice turns
	voiceTurnsTotal  *prometheus.CounterVec
	voiceTurnSeconds *prometheus.HistogramVec
	voiceStageSecond *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector creates the collector and registers all metric vectors
// under the given namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.modelLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Total number of model load attempts",
		},
		[]string{"capability", "framework", "status"},
	)

	c.modelLoadSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_load_duration_seconds",
			Help:      "Model load duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"capability", "framework"},
	)

	c.modelUnloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_unloads_total",
			Help:      "Total number of model unloads",
		},
		[]string{"capability", "framework"},
	)

	c.inferenceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_requests_total",
			Help:      "Total number of inference requests",
		},
		[]string{"capability", "framework", "status"},
	)

	c.inferenceSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Inference request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"capability", "framework"},
	)

	c.tokensGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_generated_total",
			Help:      "Total number of tokens produced by text generation",
		},
		[]string{"framework", "type"}, // type: prompt, completion
	)

	c.audioBytesIn = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_consumed_total",
			Help:      "Total PCM bytes consumed by transcription and speech detection",
		},
		[]string{"capability"},
	)

	c.audioBytesOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_produced_total",
			Help:      "Total audio bytes produced by speech synthesis",
		},
		[]string{"capability"},
	)

	c.eventsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_routed_total",
			Help:      "Total number of events delivered by the bus",
		},
		[]string{"type", "destination"},
	)

	c.voiceTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_turns_total",
			Help:      "Total number of voice turns",
		},
		[]string{"status"},
	)

	c.voiceTurnSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "voice_turn_duration_seconds",
			Help:      "End-to-end voice turn duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"status"},
	)

	c.voiceStageSecond = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "voice_turn_stage_duration_seconds",
			Help:      "Per-stage voice turn duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"stage"}, // stage: transcribe, generate, synthesize
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordModelLoad records one load attempt.
func (c *Collector) RecordModelLoad(capability, framework, status string, duration time.Duration) {
	c.modelLoadsTotal.WithLabelValues(capability, framework, status).Inc()
	if status == "success" {
		c.modelLoadSeconds.WithLabelValues(capability, framework).Observe(duration.Seconds())
	}
}

// RecordModelUnload records one unload.
func (c *Collector) RecordModelUnload(capability, framework string) {
	c.modelUnloads.WithLabelValues(capability, framework).Inc()
}

// RecordInference records one inference request.
func (c *Collector) RecordInference(capability, framework, status string, duration time.Duration) {
	c.inferenceTotal.WithLabelValues(capability, framework, status).Inc()
	c.inferenceSeconds.WithLabelValues(capability, framework).Observe(duration.Seconds())
}

// RecordTokens records token usage for a generation.
func (c *Collector) RecordTokens(framework string, promptTokens, completionTokens int) {
	c.tokensGenerated.WithLabelValues(framework, "prompt").Add(float64(promptTokens))
	c.tokensGenerated.WithLabelValues(framework, "completion").Add(float64(completionTokens))
}

// RecordAudioIn records PCM bytes consumed by STT or VAD.
func (c *Collector) RecordAudioIn(capability string, bytes int) {
	c.audioBytesIn.WithLabelValues(capability).Add(float64(bytes))
}

// RecordAudioOut records audio bytes produced by TTS.
func (c *Collector) RecordAudioOut(capability string, bytes int) {
	c.audioBytesOut.WithLabelValues(capability).Add(float64(bytes))
}

// RecordEvent records one bus delivery.
func (c *Collector) RecordEvent(eventType, destination string) {
	c.eventsRouted.WithLabelValues(eventType, destination).Inc()
}

// RecordVoiceTurn records a completed or failed voice turn.
func (c *Collector) RecordVoiceTurn(status string, duration time.Duration) {
	c.voiceTurnsTotal.WithLabelValues(status).Inc()
	c.voiceTurnSeconds.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordVoiceStage records one pipeline stage duration.
func (c *Collector) RecordVoiceStage(stage string, duration time.Duration) {
	c.voiceStageSecond.WithLabelValues(stage).Observe(duration.Seconds())
}
