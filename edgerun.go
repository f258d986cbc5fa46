// Package edgerun is an on-device multi-modal AI runtime. A Runtime
// owns the event bus, the backend and model registries, the logger and
// the metrics collector, and hands them to the modality components it
// creates.
//
// Usage:
//
//	cfg := config.MustLoad("edgerun.yaml")
//	rt, err := edgerun.New(cfg)
//	agent, err := rt.NewVoiceAgent()
package edgerun

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/edgerun-ai/edgerun/backend"
	"github.com/edgerun-ai/edgerun/config"
	"github.com/edgerun-ai/edgerun/events"
	"github.com/edgerun-ai/edgerun/internal/metrics"
	"github.com/edgerun-ai/edgerun/internal/telemetry"
	"github.com/edgerun-ai/edgerun/llm"
	"github.com/edgerun-ai/edgerun/llm/tokenizer"
	"github.com/edgerun-ai/edgerun/models"
	"github.com/edgerun-ai/edgerun/stt"
	"github.com/edgerun-ai/edgerun/tts"
	"github.com/edgerun-ai/edgerun/types"
	"github.com/edgerun-ai/edgerun/vad"
	"github.com/edgerun-ai/edgerun/voiceagent"
)

// Component is the lifecycle surface shared by every modality.
type Component interface {
	Load(ctx context.Context) error
	Unload()
	IsLoaded() bool
	State() types.ComponentState
}

// Runtime is the top-level context object. Create one per process with
// [New]; everything it owns is injected into the components it builds.
type Runtime struct {
	cfg *config.Config

	logger     *zap.Logger
	bus        *events.Bus
	backends   *backend.Registry
	models     *models.Registry
	tokenizers *tokenizer.Registry
	collector  *metrics.Collector
	telemetry  *telemetry.Providers

	collectorSet bool
}

// Option adjusts Runtime construction.
type Option func(*Runtime)

// WithLogger replaces the logger built from cfg.Log.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

// WithCollector replaces the default Prometheus collector. Pass nil to
// disable metrics. The default collector registers on the default
// Prometheus registry, so a process creating several Runtimes must
// supply its own.
func WithCollector(c *metrics.Collector) Option {
	return func(r *Runtime) {
		r.collector = c
		r.collectorSet = true
	}
}

// New builds a Runtime from cfg. The built-in energy VAD provider is
// registered so speech detection works with no external engine; models
// listed under cfg.Models are registered for LoadModel.
func New(cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runtime{
		cfg:        cfg,
		backends:   backend.NewRegistry(),
		models:     models.NewRegistry(),
		tokenizers: tokenizer.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = NewLogger(cfg.Log)
	}
	if !r.collectorSet {
		r.collector = metrics.NewCollector("edgerun", r.logger)
	}
	r.bus = events.NewBus(r.logger, r.collector)

	r.backends.Register(&vad.EnergyProvider{
		Config: vad.EnergyConfig{
			SampleRate:      cfg.VAD.SampleRate,
			EnergyThreshold: cfg.VAD.EnergyThreshold,
		},
		Logger: r.logger,
	}, 0)

	for _, info := range cfg.Models.Register {
		info.Path = r.resolvePath(info.Path)
		if err := r.models.Register(info); err != nil {
			return nil, err
		}
	}

	tel, err := telemetry.Init(cfg.Telemetry, r.logger)
	if err != nil {
		return nil, err
	}
	r.telemetry = tel

	return r, nil
}

// Logger returns the runtime logger.
func (r *Runtime) Logger() *zap.Logger { return r.logger }

// Bus returns the event bus.
func (r *Runtime) Bus() *events.Bus { return r.bus }

// Backends returns the service provider registry.
func (r *Runtime) Backends() *backend.Registry { return r.backends }

// Models returns the model registry.
func (r *Runtime) Models() *models.Registry { return r.models }

// Tokenizers returns the tokenizer registry.
func (r *Runtime) Tokenizers() *tokenizer.Registry { return r.tokenizers }

// Collector returns the metrics collector, nil when disabled.
func (r *Runtime) Collector() *metrics.Collector { return r.collector }

// NewLLM creates a text generation component from cfg.LLM.
func (r *Runtime) NewLLM() (*llm.Component, error) {
	return llm.NewComponent(r.llmConfig(), r.backends, r.tokenizers, r.bus, r.logger, r.collector)
}

// NewSTT creates a transcription component from cfg.STT.
func (r *Runtime) NewSTT() (*stt.Component, error) {
	return stt.NewComponent(r.sttConfig(), r.backends, r.bus, r.logger, r.collector)
}

// NewTTS creates a speech synthesis component from cfg.TTS.
func (r *Runtime) NewTTS() (*tts.Component, error) {
	return tts.NewComponent(r.ttsConfig(), r.backends, r.bus, r.logger, r.collector)
}

// NewVAD creates a speech detection component from cfg.VAD.
func (r *Runtime) NewVAD() (*vad.Component, error) {
	return vad.NewComponent(r.vadConfig(), r.backends, r.bus, r.logger, r.collector)
}

// NewVoiceAgent creates an owned voice agent over all four modalities.
func (r *Runtime) NewVoiceAgent() (*voiceagent.Agent, error) {
	cfg := voiceagent.Config{
		LLM:      r.llmConfig(),
		STT:      r.sttConfig(),
		TTS:      r.ttsConfig(),
		VAD:      r.vadConfig(),
		Cooldown: r.cfg.Voice.Cooldown,
	}
	return voiceagent.Owned(cfg, r.backends, r.tokenizers, r.bus, r.logger, r.collector)
}

// LoadModel resolves id in the model registry, creates the component
// for its capability and loads it.
func (r *Runtime) LoadModel(ctx context.Context, id string) (Component, error) {
	info, err := r.models.Resolve(id)
	if err != nil {
		return nil, err
	}

	var comp Component
	switch info.Capability {
	case types.CapabilityLLM:
		cfg := r.llmConfig()
		cfg.ModelPath, cfg.ModelID, cfg.ModelName, cfg.Framework = info.Path, info.ID, info.Name, info.Framework
		comp, err = llm.NewComponent(cfg, r.backends, r.tokenizers, r.bus, r.logger, r.collector)
	case types.CapabilitySTT:
		cfg := r.sttConfig()
		cfg.ModelPath, cfg.ModelID, cfg.ModelName, cfg.Framework = info.Path, info.ID, info.Name, info.Framework
		comp, err = stt.NewComponent(cfg, r.backends, r.bus, r.logger, r.collector)
	case types.CapabilityTTS:
		cfg := r.ttsConfig()
		cfg.ModelPath, cfg.ModelID, cfg.ModelName, cfg.Framework = info.Path, info.ID, info.Name, info.Framework
		comp, err = tts.NewComponent(cfg, r.backends, r.bus, r.logger, r.collector)
	case types.CapabilityVAD:
		cfg := r.vadConfig()
		cfg.ModelPath, cfg.ModelID, cfg.Framework = info.Path, info.ID, info.Framework
		comp, err = vad.NewComponent(cfg, r.backends, r.bus, r.logger, r.collector)
	default:
		return nil, types.NewError(types.ErrInvalidConfiguration, "unknown capability "+string(info.Capability)).
			WithComponent("runtime")
	}
	if err != nil {
		return nil, err
	}
	if err := comp.Load(ctx); err != nil {
		return nil, err
	}
	return comp, nil
}

// Preload loads several registered models concurrently. On the first
// failure the remaining loads are cancelled and already loaded
// components are unloaded.
func (r *Runtime) Preload(ctx context.Context, ids ...string) (map[string]Component, error) {
	g, ctx := errgroup.WithContext(ctx)
	loaded := make([]Component, len(ids))

	for i, id := range ids {
		g.Go(func() error {
			comp, err := r.LoadModel(ctx, id)
			if err != nil {
				return err
			}
			loaded[i] = comp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, comp := range loaded {
			if comp != nil {
				comp.Unload()
			}
		}
		return nil, err
	}

	out := make(map[string]Component, len(ids))
	for i, id := range ids {
		out[id] = loaded[i]
	}
	return out, nil
}

// Shutdown flushes telemetry and the logger.
func (r *Runtime) Shutdown(ctx context.Context) error {
	err := r.telemetry.Shutdown(ctx)
	_ = r.logger.Sync()
	return err
}

func (r *Runtime) llmConfig() llm.Config {
	c := r.cfg.LLM
	return llm.Config{
		ModelPath:    r.resolvePath(c.ModelPath),
		ModelID:      c.ModelID,
		Framework:    types.Framework(c.Framework),
		SystemPrompt: c.SystemPrompt,
		MaxTokens:    c.MaxTokens,
		Temperature:  c.Temperature,
		TopP:         c.TopP,
	}
}

func (r *Runtime) sttConfig() stt.Config {
	c := r.cfg.STT
	return stt.Config{
		ModelPath:  r.resolvePath(c.ModelPath),
		ModelID:    c.ModelID,
		Framework:  types.Framework(c.Framework),
		Language:   c.Language,
		SampleRate: c.SampleRate,
	}
}

func (r *Runtime) ttsConfig() tts.Config {
	c := r.cfg.TTS
	return tts.Config{
		ModelPath:  r.resolvePath(c.ModelPath),
		ModelID:    c.ModelID,
		Framework:  types.Framework(c.Framework),
		Voice:      c.Voice,
		Rate:       c.Rate,
		SampleRate: c.SampleRate,
	}
}

func (r *Runtime) vadConfig() vad.Config {
	c := r.cfg.VAD
	cfg := vad.Config{
		Framework:       types.Framework(c.Framework),
		SampleRate:      c.SampleRate,
		EnergyThreshold: c.EnergyThreshold,
	}
	// the builtin pseudo-path is not a file
	if c.ModelPath != "" && c.ModelPath != vad.BuiltinModelPath {
		cfg.ModelPath = r.resolvePath(c.ModelPath)
	} else {
		cfg.ModelPath = c.ModelPath
	}
	return cfg
}

// resolvePath joins relative model paths onto cfg.Models.Dir.
func (r *Runtime) resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.cfg.Models.Dir, path)
}

// NewLogger builds a zap logger from cfg. Console format uses the
// development encoder with colored levels, json the production one.
func NewLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         cfg.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	if zapConfig.Encoding == "" {
		zapConfig.Encoding = "json"
	}

	var buildOpts []zap.Option
	if cfg.EnableCaller {
		buildOpts = append(buildOpts, zap.AddCaller())
	}
	buildOpts = append(buildOpts, zap.AddStacktrace(zapcore.ErrorLevel))

	logger, err := zapConfig.Build(buildOpts...)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
