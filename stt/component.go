package stt

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edgerun-ai/edgerun/audio"
	"github.com/edgerun-ai/edgerun/backend"
	"github.com/edgerun-ai/edgerun/events"
	"github.com/edgerun-ai/edgerun/internal/metrics"
	"github.com/edgerun-ai/edgerun/lifecycle"
	"github.com/edgerun-ai/edgerun/types"
)

// Config configures the STT component.
type Config struct {
	ModelPath string
	ModelID   string
	ModelName string
	Framework types.Framework

	Language   string
	SampleRate int
}

// Validate checks the config for loadable values.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return types.NewError(types.ErrInvalidConfiguration, "model path is required").
			WithComponent(string(types.CapabilitySTT))
	}
	if c.SampleRate < 0 {
		return types.NewError(types.ErrInvalidConfiguration, "sample rate must not be negative").
			WithComponent(string(types.CapabilitySTT))
	}
	return nil
}

// TranscriptionResult is the outcome of one transcription call.
type TranscriptionResult struct {
	TranscriptionID string
	Text            string
	WordCount       int
	AudioLength     time.Duration
	Duration        time.Duration
	RealTimeFactor  float64
}

// Component is the speech to text modality. Transcription input is
// 16-bit little-endian mono PCM at the configured sample rate.
type Component struct {
	mu  sync.Mutex
	cfg Config

	registry  *backend.Registry
	bus       *events.Bus
	logger    *zap.Logger
	collector *metrics.Collector
	analytics *Analytics

	lifecycle *lifecycle.Manager[backend.STTService]
}

// NewComponent creates an unloaded STT component. bus and collector may
// be nil.
func NewComponent(cfg Config, registry *backend.Registry, bus *events.Bus,
	logger *zap.Logger, collector *metrics.Collector) (*Component, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ModelID == "" {
		cfg.ModelID = cfg.ModelPath
	}
	if cfg.ModelName == "" {
		cfg.ModelName = cfg.ModelID
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = audio.DefaultVADSampleRate
	}

	c := &Component{
		cfg:       cfg,
		registry:  registry,
		bus:       bus,
		logger:    logger.With(zap.String("component", "stt")),
		collector: collector,
		analytics: NewAnalytics(),
	}
	c.lifecycle = lifecycle.NewManager(types.CapabilitySTT, cfg.Framework,
		bus, logger, collector,
		c.createService, nil)
	return c, nil
}

func (c *Component) createService(ctx context.Context, modelPath string) (backend.STTService, error) {
	provider, err := c.registry.ResolveSTT(c.cfg.Framework, modelPath)
	if err != nil {
		return nil, err
	}
	return provider.NewSTT(ctx, modelPath)
}

// Load loads the configured model. Loading the same path again is a
// no-op.
func (c *Component) Load(ctx context.Context) error {
	_, err := c.lifecycle.Load(ctx, c.cfg.ModelPath, c.cfg.ModelID, c.cfg.ModelName)
	return err
}

// Unload releases the model. An in-flight transcription finishes first.
func (c *Component) Unload() { c.lifecycle.Unload() }

// IsLoaded reports whether a model is loaded.
func (c *Component) IsLoaded() bool { return c.lifecycle.IsLoaded() }

// State returns the lifecycle state.
func (c *Component) State() types.ComponentState { return c.lifecycle.State() }

// ModelID returns the loaded model id, or "".
func (c *Component) ModelID() string { return c.lifecycle.ModelID() }

// LifecycleMetrics returns cumulative load/unload metrics.
func (c *Component) LifecycleMetrics() lifecycle.Metrics { return c.lifecycle.Metrics() }

// Analytics returns the transcription analytics service.
func (c *Component) Analytics() *Analytics { return c.analytics }

// audioLength converts a PCM byte count to play time at the configured
// rate, 16-bit mono.
func (c *Component) audioLength(byteCount int) time.Duration {
	samples := byteCount / 2
	return time.Duration(float64(samples) / float64(c.cfg.SampleRate) * float64(time.Second))
}

// Transcribe converts PCM audio to text. The completed event reports the
// real-time factor as audio length over processing time, so values above
// one mean faster than real time.
func (c *Component) Transcribe(ctx context.Context, pcm []byte) (*TranscriptionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(pcm) == 0 {
		return nil, types.NewError(types.ErrEmptyInput, "audio is empty").
			WithComponent(string(types.CapabilitySTT))
	}

	svc, err := c.lifecycle.RequireService()
	if err != nil {
		return nil, err
	}

	transcriptionID := uuid.NewString()
	modelID := c.lifecycle.ModelID()
	audioLength := c.audioLength(len(pcm))

	c.analytics.Start(transcriptionID, modelID, audioLength, false)
	c.emit(types.EventTranscriptionStarted, map[string]any{
		"transcription_id": transcriptionID,
		"model_id":         modelID,
		"audio_length_ms":  audioLength.Milliseconds(),
		"audio_size_bytes": len(pcm),
		"language":         c.cfg.Language,
		"sample_rate":      c.cfg.SampleRate,
		"is_streaming":     false,
	})

	start := time.Now()
	text, err := svc.Transcribe(ctx, pcm, backend.TranscribeOptions{
		Language:   c.cfg.Language,
		SampleRate: c.cfg.SampleRate,
	})
	duration := time.Since(start)

	if err != nil {
		return nil, c.transcriptionFailed(transcriptionID, modelID, duration, err)
	}

	wordCount := countWords(text)
	var rtf float64
	if audioLength > 0 && duration > 0 {
		rtf = audioLength.Seconds() / duration.Seconds()
	}

	c.analytics.Complete(transcriptionID, 0)
	if c.collector != nil {
		c.collector.RecordInference(string(types.CapabilitySTT), string(c.cfg.Framework), "success", duration)
		c.collector.RecordAudioIn(string(types.CapabilitySTT), len(pcm))
	}
	c.emit(types.EventTranscriptionCompleted, map[string]any{
		"transcription_id": transcriptionID,
		"model_id":         modelID,
		"text":             text,
		"word_count":       wordCount,
		"audio_length_ms":  audioLength.Milliseconds(),
		"audio_size_bytes": len(pcm),
		"duration_ms":      duration.Milliseconds(),
		"real_time_factor": rtf,
		"language":         c.cfg.Language,
		"sample_rate":      c.cfg.SampleRate,
		"is_streaming":     false,
	})

	c.logger.Info("transcription completed",
		zap.String("transcription_id", transcriptionID),
		zap.Duration("duration", duration),
		zap.Int("word_count", wordCount))

	return &TranscriptionResult{
		TranscriptionID: transcriptionID,
		Text:            text,
		WordCount:       wordCount,
		AudioLength:     audioLength,
		Duration:        duration,
		RealTimeFactor:  rtf,
	}, nil
}

// TranscribeStream converts PCM audio to text while delivering partial
// transcripts through onPartial. It requires a backend that implements
// streaming; others fail with NOT_SUPPORTED before any event. The
// completed event omits the word count since text arrives via the
// callback.
func (c *Component) TranscribeStream(ctx context.Context, pcm []byte, onPartial backend.PartialFunc) (*TranscriptionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(pcm) == 0 {
		return nil, types.NewError(types.ErrEmptyInput, "audio is empty").
			WithComponent(string(types.CapabilitySTT))
	}

	svc, err := c.lifecycle.RequireService()
	if err != nil {
		return nil, err
	}
	stream, ok := svc.(backend.StreamingSTTService)
	if !ok {
		return nil, types.NewError(types.ErrNotSupported, "backend does not support streaming transcription").
			WithComponent(string(types.CapabilitySTT))
	}

	transcriptionID := uuid.NewString()
	modelID := c.lifecycle.ModelID()
	audioLength := c.audioLength(len(pcm))

	c.analytics.Start(transcriptionID, modelID, audioLength, true)
	c.emit(types.EventTranscriptionStarted, map[string]any{
		"transcription_id": transcriptionID,
		"model_id":         modelID,
		"audio_length_ms":  audioLength.Milliseconds(),
		"audio_size_bytes": len(pcm),
		"language":         c.cfg.Language,
		"sample_rate":      c.cfg.SampleRate,
		"is_streaming":     true,
	})

	start := time.Now()
	text, err := stream.TranscribeStream(ctx, pcm, backend.TranscribeOptions{
		Language:   c.cfg.Language,
		SampleRate: c.cfg.SampleRate,
	}, func(partial string) {
		c.emit(types.EventTranscriptPartial, map[string]any{
			"transcription_id": transcriptionID,
			"model_id":         modelID,
			"text":             partial,
		})
		if onPartial != nil {
			onPartial(partial)
		}
	})
	duration := time.Since(start)

	if err != nil {
		return nil, c.transcriptionFailed(transcriptionID, modelID, duration, err)
	}

	var rtf float64
	if audioLength > 0 && duration > 0 {
		rtf = audioLength.Seconds() / duration.Seconds()
	}

	c.analytics.Complete(transcriptionID, 0)
	if c.collector != nil {
		c.collector.RecordInference(string(types.CapabilitySTT), string(c.cfg.Framework), "success", duration)
		c.collector.RecordAudioIn(string(types.CapabilitySTT), len(pcm))
	}
	c.emit(types.EventTranscriptionCompleted, map[string]any{
		"transcription_id": transcriptionID,
		"model_id":         modelID,
		"text":             text,
		"audio_length_ms":  audioLength.Milliseconds(),
		"audio_size_bytes": len(pcm),
		"duration_ms":      duration.Milliseconds(),
		"real_time_factor": rtf,
		"language":         c.cfg.Language,
		"sample_rate":      c.cfg.SampleRate,
		"is_streaming":     true,
	})

	c.logger.Info("streaming transcription completed",
		zap.String("transcription_id", transcriptionID),
		zap.Duration("duration", duration))

	return &TranscriptionResult{
		TranscriptionID: transcriptionID,
		Text:            text,
		WordCount:       countWords(text),
		AudioLength:     audioLength,
		Duration:        duration,
		RealTimeFactor:  rtf,
	}, nil
}

func (c *Component) transcriptionFailed(transcriptionID, modelID string, duration time.Duration, err error) error {
	c.analytics.Fail(transcriptionID)

	if types.IsCancelled(err) {
		if c.collector != nil {
			c.collector.RecordInference(string(types.CapabilitySTT), string(c.cfg.Framework), "cancelled", duration)
		}
		c.logger.Debug("transcription cancelled", zap.String("transcription_id", transcriptionID))
		if types.GetErrorCode(err) == types.ErrCancelled {
			return err
		}
		return types.NewError(types.ErrCancelled, "transcription cancelled").
			WithComponent(string(types.CapabilitySTT)).
			WithCause(err)
	}

	if c.collector != nil {
		c.collector.RecordInference(string(types.CapabilitySTT), string(c.cfg.Framework), "failure", duration)
	}
	c.emit(types.EventTranscriptionFailed, map[string]any{
		"transcription_id": transcriptionID,
		"model_id":         modelID,
		"duration_ms":      duration.Milliseconds(),
		"error":            err.Error(),
	})
	c.lifecycle.TrackError("transcribe", err)
	c.logger.Error("transcription failed",
		zap.String("transcription_id", transcriptionID),
		zap.Error(err))

	if types.GetErrorCode(err) != "" {
		return err
	}
	return types.NewError(types.ErrGenerationFailed, "transcription failed").
		WithComponent(string(types.CapabilitySTT)).
		WithCause(err)
}

func (c *Component) emit(t types.EventType, data map[string]any) {
	if c.bus == nil {
		return
	}
	c.bus.Emit(types.NewEvent(t, string(types.CapabilitySTT), data))
}

// countWords counts whitespace-delimited words.
func countWords(text string) int {
	return len(strings.Fields(text))
}
