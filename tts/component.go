package tts

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

// Config configures the TTS component. For TTS the loaded model is the
// voice.
type Config struct {
	ModelPath string
	ModelID   string
	ModelName string
	Framework types.Framework

	Voice      string
	Rate       float32
	SampleRate int
}

// Validate checks the config for loadable values.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return types.NewError(types.ErrInvalidConfiguration, "voice model path is required").
			WithComponent(string(types.CapabilityTTS))
	}
	if c.SampleRate < 0 {
		return types.NewError(types.ErrInvalidConfiguration, "sample rate must not be negative").
			WithComponent(string(types.CapabilityTTS))
	}
	return nil
}

// SynthesisResult is the outcome of one synthesis call.
type SynthesisResult struct {
	SynthesisID   string
	Samples       []float32
	SampleRate    int
	AudioDuration time.Duration
	Duration      time.Duration
	CharsPerSec   float64
}

// Component is the text to speech modality.
type Component struct {
	mu  sync.Mutex
	cfg Config

	registry  *backend.Registry
	bus       *events.Bus
	logger    *zap.Logger
	collector *metrics.Collector
	analytics *Analytics

	lifecycle *lifecycle.Manager[backend.TTSService]
}

// NewComponent creates an unloaded TTS component. bus and collector may
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
		cfg.SampleRate = audio.DefaultTTSSampleRate
	}

	c := &Component{
		cfg:       cfg,
		registry:  registry,
		bus:       bus,
		logger:    logger.With(zap.String("component", "tts")),
		collector: collector,
		analytics: NewAnalytics(),
	}
	c.lifecycle = lifecycle.NewManager(types.CapabilityTTS, cfg.Framework,
		bus, logger, collector,
		c.createService, nil)
	return c, nil
}

func (c *Component) createService(ctx context.Context, modelPath string) (backend.TTSService, error) {
	provider, err := c.registry.ResolveTTS(c.cfg.Framework, modelPath)
	if err != nil {
		return nil, err
	}
	return provider.NewTTS(ctx, modelPath)
}

// Load loads the configured voice. Loading the same path again is a
// no-op.
func (c *Component) Load(ctx context.Context) error {
	_, err := c.lifecycle.Load(ctx, c.cfg.ModelPath, c.cfg.ModelID, c.cfg.ModelName)
	return err
}

// Unload releases the voice. An in-flight synthesis finishes first.
func (c *Component) Unload() { c.lifecycle.Unload() }

// IsLoaded reports whether a voice is loaded.
func (c *Component) IsLoaded() bool { return c.lifecycle.IsLoaded() }

// State returns the lifecycle state.
func (c *Component) State() types.ComponentState { return c.lifecycle.State() }

// ModelID returns the loaded voice id, or "".
func (c *Component) ModelID() string { return c.lifecycle.ModelID() }

// LifecycleMetrics returns cumulative load/unload metrics.
func (c *Component) LifecycleMetrics() lifecycle.Metrics { return c.lifecycle.Metrics() }

// Analytics returns the synthesis analytics service.
func (c *Component) Analytics() *Analytics { return c.analytics }

// SampleRate returns the configured output sample rate.
func (c *Component) SampleRate() int { return c.cfg.SampleRate }

// Synthesize converts text to PCM samples. The started event is emitted
// before the service check, so an unloaded voice still produces a
// started then failed pair.
func (c *Component) Synthesize(ctx context.Context, text string) (*SynthesisResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return nil, types.NewError(types.ErrEmptyInput, "text is empty").
			WithComponent(string(types.CapabilityTTS))
	}

	synthesisID := uuid.NewString()
	modelID := c.lifecycle.ModelID()
	charCount := len(text)

	c.analytics.Start(synthesisID, modelID, charCount)
	c.emit(types.EventSynthesisStarted, map[string]any{
		"synthesis_id":    synthesisID,
		"model_id":        modelID,
		"character_count": charCount,
	})

	svc, err := c.lifecycle.RequireService()
	if err != nil {
		return nil, c.synthesisFailed(synthesisID, modelID, 0, err)
	}

	start := time.Now()
	res, err := svc.Synthesize(ctx, text, backend.SynthesizeOptions{
		Voice:      c.cfg.Voice,
		Rate:       c.cfg.Rate,
		SampleRate: c.cfg.SampleRate,
	})
	duration := time.Since(start)

	if err != nil {
		return nil, c.synthesisFailed(synthesisID, modelID, duration, err)
	}

	sampleRate := res.SampleRate
	if sampleRate == 0 {
		sampleRate = c.cfg.SampleRate
	}
	audioDuration := time.Duration(float64(len(res.Samples)) / float64(sampleRate) * float64(time.Second))

	var cps float64
	if duration > 0 {
		cps = float64(charCount) / duration.Seconds()
	}

	c.analytics.Complete(synthesisID, audioDuration)
	if c.collector != nil {
		c.collector.RecordInference(string(types.CapabilityTTS), string(c.cfg.Framework), "success", duration)
		c.collector.RecordAudioOut(string(types.CapabilityTTS), len(res.Samples)*2)
	}
	c.emit(types.EventSynthesisCompleted, map[string]any{
		"synthesis_id":          synthesisID,
		"model_id":              modelID,
		"character_count":       charCount,
		"audio_duration_ms":     audioDuration.Milliseconds(),
		"audio_size_bytes":      len(res.Samples) * 2,
		"duration_ms":           duration.Milliseconds(),
		"characters_per_second": cps,
		"sample_rate":           sampleRate,
	})

	c.logger.Info("synthesis completed",
		zap.String("synthesis_id", synthesisID),
		zap.Duration("duration", duration),
		zap.Int("character_count", charCount))

	return &SynthesisResult{
		SynthesisID:   synthesisID,
		Samples:       res.Samples,
		SampleRate:    sampleRate,
		AudioDuration: audioDuration,
		Duration:      duration,
		CharsPerSec:   cps,
	}, nil
}

// SynthesizeStream converts text to speech while delivering sample
// chunks through onChunk. Like Synthesize, the started event precedes
// the service check. The returned result carries timing only; audio
// arrives via the callback and is not retained.
func (c *Component) SynthesizeStream(ctx context.Context, text string, onChunk backend.ChunkFunc) (*SynthesisResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return nil, types.NewError(types.ErrEmptyInput, "text is empty").
			WithComponent(string(types.CapabilityTTS))
	}

	synthesisID := uuid.NewString()
	modelID := c.lifecycle.ModelID()
	charCount := len(text)

	c.analytics.Start(synthesisID, modelID, charCount)
	c.emit(types.EventSynthesisStarted, map[string]any{
		"synthesis_id":    synthesisID,
		"model_id":        modelID,
		"character_count": charCount,
		"is_streaming":    true,
	})

	svc, err := c.lifecycle.RequireService()
	if err != nil {
		return nil, c.synthesisFailed(synthesisID, modelID, 0, err)
	}
	stream, ok := svc.(backend.StreamingTTSService)
	if !ok {
		err := types.NewError(types.ErrNotSupported, "backend does not support streaming synthesis").
			WithComponent(string(types.CapabilityTTS))
		return nil, c.synthesisFailed(synthesisID, modelID, 0, err)
	}

	var chunkIndex, totalSamples int
	start := time.Now()
	res, err := stream.SynthesizeStream(ctx, text, backend.SynthesizeOptions{
		Voice:      c.cfg.Voice,
		Rate:       c.cfg.Rate,
		SampleRate: c.cfg.SampleRate,
	}, func(samples []float32) {
		c.emit(types.EventSynthesisChunk, map[string]any{
			"synthesis_id": synthesisID,
			"model_id":     modelID,
			"chunk_index":  chunkIndex,
			"sample_count": len(samples),
		})
		chunkIndex++
		totalSamples += len(samples)
		if onChunk != nil {
			onChunk(samples)
		}
	})
	duration := time.Since(start)

	if err != nil {
		return nil, c.synthesisFailed(synthesisID, modelID, duration, err)
	}

	sampleRate := res.SampleRate
	if sampleRate == 0 {
		sampleRate = c.cfg.SampleRate
	}
	audioDuration := time.Duration(float64(totalSamples) / float64(sampleRate) * float64(time.Second))

	var cps float64
	if duration > 0 {
		cps = float64(charCount) / duration.Seconds()
	}

	c.analytics.Complete(synthesisID, audioDuration)
	if c.collector != nil {
		c.collector.RecordInference(string(types.CapabilityTTS), string(c.cfg.Framework), "success", duration)
		c.collector.RecordAudioOut(string(types.CapabilityTTS), totalSamples*2)
	}
	c.emit(types.EventSynthesisCompleted, map[string]any{
		"synthesis_id":          synthesisID,
		"model_id":              modelID,
		"character_count":       charCount,
		"chunk_count":           chunkIndex,
		"duration_ms":           duration.Milliseconds(),
		"characters_per_second": cps,
		"sample_rate":           sampleRate,
		"is_streaming":          true,
	})

	c.logger.Info("streaming synthesis completed",
		zap.String("synthesis_id", synthesisID),
		zap.Duration("duration", duration),
		zap.Int("chunk_count", chunkIndex))

	return &SynthesisResult{
		SynthesisID:   synthesisID,
		SampleRate:    sampleRate,
		AudioDuration: audioDuration,
		Duration:      duration,
		CharsPerSec:   cps,
	}, nil
}

func (c *Component) synthesisFailed(synthesisID, modelID string, duration time.Duration, err error) error {
	c.analytics.Fail(synthesisID)

	if types.IsCancelled(err) {
		if c.collector != nil {
			c.collector.RecordInference(string(types.CapabilityTTS), string(c.cfg.Framework), "cancelled", duration)
		}
		c.logger.Debug("synthesis cancelled", zap.String("synthesis_id", synthesisID))
		if types.GetErrorCode(err) == types.ErrCancelled {
			return err
		}
		return types.NewError(types.ErrCancelled, "synthesis cancelled").
			WithComponent(string(types.CapabilityTTS)).
			WithCause(err)
	}

	if c.collector != nil {
		c.collector.RecordInference(string(types.CapabilityTTS), string(c.cfg.Framework), "failure", duration)
	}
	c.emit(types.EventSynthesisFailed, map[string]any{
		"synthesis_id": synthesisID,
		"model_id":     modelID,
		"duration_ms":  duration.Milliseconds(),
		"error":        err.Error(),
	})
	c.lifecycle.TrackError("synthesize", err)
	c.logger.Error("synthesis failed",
		zap.String("synthesis_id", synthesisID),
		zap.Error(err))

	if types.GetErrorCode(err) != "" {
		return err
	}
	return types.NewError(types.ErrGenerationFailed, "synthesis failed").
		WithComponent(string(types.CapabilityTTS)).
		WithCause(err)
}

func (c *Component) emit(t types.EventType, data map[string]any) {
	if c.bus == nil {
		return
	}
	c.bus.Emit(types.NewEvent(t, string(types.CapabilityTTS), data))
}
