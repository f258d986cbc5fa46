package vad

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/edgerun-ai/edgerun/audio"
	"github.com/edgerun-ai/edgerun/backend"
	"github.com/edgerun-ai/edgerun/events"
	"github.com/edgerun-ai/edgerun/internal/metrics"
	"github.com/edgerun-ai/edgerun/lifecycle"
	"github.com/edgerun-ai/edgerun/types"
)

// BuiltinModelPath is the pseudo model path resolved by the built-in
// energy detector provider.
const BuiltinModelPath = "builtin:energy"

// ActivityService is implemented by VAD backends that track speech
// segments and playback state, beyond raw per-frame classification.
type ActivityService interface {
	backend.VADService
	SpeechActive() bool
	Pause()
	Resume()
	SetTTSActive(active bool)
}

// Config configures the VAD component.
type Config struct {
	ModelPath string
	ModelID   string
	Framework types.Framework

	SampleRate      int
	EnergyThreshold float64
}

// Component is the voice activity modality. It wraps a detection
// backend and emits speech segment transitions on the bus.
type Component struct {
	mu  sync.Mutex
	cfg Config

	registry  *backend.Registry
	bus       *events.Bus
	logger    *zap.Logger
	collector *metrics.Collector
	analytics *Analytics

	// speaking mirrors the backend segment state for services that only
	// report raw per-frame voice
	speaking bool

	lifecycle *lifecycle.Manager[backend.VADService]
}

// NewComponent creates an unloaded VAD component. An empty model path
// selects the built-in energy detector.
func NewComponent(cfg Config, registry *backend.Registry, bus *events.Bus,
	logger *zap.Logger, collector *metrics.Collector) (*Component, error) {
	if cfg.ModelPath == "" {
		cfg.ModelPath = BuiltinModelPath
		if cfg.Framework == types.FrameworkAny {
			cfg.Framework = types.FrameworkBuiltin
		}
	}
	if cfg.ModelID == "" {
		cfg.ModelID = cfg.ModelPath
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = audio.DefaultVADSampleRate
	}
	if cfg.SampleRate < 0 {
		return nil, types.NewError(types.ErrInvalidConfiguration, "sample rate must not be negative").
			WithComponent(string(types.CapabilityVAD))
	}

	c := &Component{
		cfg:       cfg,
		registry:  registry,
		bus:       bus,
		logger:    logger.With(zap.String("component", "vad")),
		collector: collector,
		analytics: NewAnalytics(),
	}
	c.lifecycle = lifecycle.NewManager(types.CapabilityVAD, cfg.Framework,
		bus, logger, collector,
		c.createService, nil)
	return c, nil
}

func (c *Component) createService(ctx context.Context, modelPath string) (backend.VADService, error) {
	provider, err := c.registry.ResolveVAD(c.cfg.Framework, modelPath)
	if err != nil {
		return nil, err
	}
	return provider.NewVAD(ctx, modelPath)
}

// Load creates the detection service.
func (c *Component) Load(ctx context.Context) error {
	_, err := c.lifecycle.Load(ctx, c.cfg.ModelPath, c.cfg.ModelID, "")
	return err
}

// Unload releases the detection service.
func (c *Component) Unload() { c.lifecycle.Unload() }

// IsLoaded reports whether the service is created.
func (c *Component) IsLoaded() bool { return c.lifecycle.IsLoaded() }

// State returns the lifecycle state.
func (c *Component) State() types.ComponentState { return c.lifecycle.State() }

// LifecycleMetrics returns cumulative load/unload metrics.
func (c *Component) LifecycleMetrics() lifecycle.Metrics { return c.lifecycle.Metrics() }

// Analytics returns the speech segment analytics service.
func (c *Component) Analytics() *Analytics { return c.analytics }

// ProcessAudio classifies one frame of mono samples and emits speech
// started and ended events on segment transitions.
func (c *Component) ProcessAudio(ctx context.Context, frame []float32) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	svc, err := c.lifecycle.RequireService()
	if err != nil {
		return false, err
	}

	hasVoice, err := svc.Process(ctx, frame)
	if err != nil {
		c.lifecycle.TrackError("process", err)
		return false, err
	}
	if c.collector != nil {
		c.collector.RecordAudioIn(string(types.CapabilityVAD), len(frame)*4)
	}

	speaking := hasVoice
	if as, ok := svc.(ActivityService); ok {
		speaking = as.SpeechActive()
	}
	if speaking != c.speaking {
		c.speaking = speaking
		if speaking {
			c.analytics.SpeechStart()
			c.emit(types.EventSpeechStarted, nil)
		} else {
			c.analytics.SpeechEnd()
			c.emit(types.EventSpeechEnded, nil)
		}
	}

	return hasVoice, nil
}

// SpeechActive reports whether a speech segment is in progress.
func (c *Component) SpeechActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}

// Pause suspends detection and emits a paused event. A running segment
// ends.
func (c *Component) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	svc, err := c.lifecycle.RequireService()
	if err != nil {
		return
	}
	if as, ok := svc.(ActivityService); ok {
		as.Pause()
	}
	if c.speaking {
		c.speaking = false
		c.analytics.SpeechEnd()
		c.emit(types.EventSpeechEnded, nil)
	}
	c.emit(types.EventVADPaused, nil)
}

// Resume lifts a pause and emits a resumed event.
func (c *Component) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	svc, err := c.lifecycle.RequireService()
	if err != nil {
		return
	}
	if as, ok := svc.(ActivityService); ok {
		as.Resume()
	}
	c.speaking = false
	c.emit(types.EventVADResumed, nil)
}

// SetTTSActive tells the detector that synthesized audio is playing so
// it can reject playback feedback.
func (c *Component) SetTTSActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	svc, err := c.lifecycle.RequireService()
	if err != nil {
		return
	}
	if as, ok := svc.(ActivityService); ok {
		as.SetTTSActive(active)
	}
	if active && c.speaking {
		c.speaking = false
		c.analytics.SpeechEnd()
		c.emit(types.EventSpeechEnded, nil)
	}
	if !active {
		c.speaking = false
	}
}

func (c *Component) emit(t types.EventType, data map[string]any) {
	if c.bus == nil {
		return
	}
	c.bus.Emit(types.NewEvent(t, string(types.CapabilityVAD), data))
}
