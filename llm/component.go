package llm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edgerun-ai/edgerun/backend"
	"github.com/edgerun-ai/edgerun/events"
	"github.com/edgerun-ai/edgerun/internal/metrics"
	"github.com/edgerun-ai/edgerun/lifecycle"
	"github.com/edgerun-ai/edgerun/llm/tokenizer"
	"github.com/edgerun-ai/edgerun/types"
)

// streamUpdateInterval is how many tokens pass between streaming update
// events. First token and completion always emit.
const streamUpdateInterval = 10

// Config configures the LLM component.
type Config struct {
	ModelPath string
	ModelID   string
	ModelName string
	Framework types.Framework

	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	TopP         float32
}

// Validate checks the config for loadable values.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return types.NewError(types.ErrInvalidConfiguration, "model path is required").
			WithComponent(string(types.CapabilityLLM))
	}
	if c.MaxTokens < 0 {
		return types.NewError(types.ErrInvalidConfiguration, "max tokens must not be negative").
			WithComponent(string(types.CapabilityLLM))
	}
	return nil
}

// GenerationResult is the outcome of one generation call.
type GenerationResult struct {
	GenerationID     string
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Duration         time.Duration
	TimeToFirstToken time.Duration
	TokensPerSecond  float64
}

// Component is the text generation modality. It owns one lifecycle
// manager and delegates inference to the backend service resolved for
// its configured framework. Generate and GenerateStream serialize
// against Load and Unload; Cancel may be called concurrently.
type Component struct {
	mu  sync.Mutex
	cfg Config

	registry   *backend.Registry
	tokenizers *tokenizer.Registry
	bus        *events.Bus
	logger     *zap.Logger
	collector  *metrics.Collector
	analytics  *Analytics

	lifecycle *lifecycle.Manager[backend.LLMService]
}

// NewComponent creates an unloaded LLM component. bus, collector, and
// tokenizers may be nil; analytics is created internally.
func NewComponent(cfg Config, registry *backend.Registry, tokenizers *tokenizer.Registry,
	bus *events.Bus, logger *zap.Logger, collector *metrics.Collector) (*Component, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ModelID == "" {
		cfg.ModelID = cfg.ModelPath
	}
	if cfg.ModelName == "" {
		cfg.ModelName = cfg.ModelID
	}

	c := &Component{
		cfg:        cfg,
		registry:   registry,
		tokenizers: tokenizers,
		bus:        bus,
		logger:     logger.With(zap.String("component", "llm")),
		collector:  collector,
		analytics:  NewAnalytics(),
	}
	c.lifecycle = lifecycle.NewManager(types.CapabilityLLM, cfg.Framework,
		bus, logger, collector,
		c.createService, nil)
	return c, nil
}

func (c *Component) createService(ctx context.Context, modelPath string) (backend.LLMService, error) {
	provider, err := c.registry.ResolveLLM(c.cfg.Framework, modelPath)
	if err != nil {
		return nil, err
	}
	return provider.NewLLM(ctx, modelPath)
}

// Load loads the configured model. Loading the same path again is a
// no-op.
func (c *Component) Load(ctx context.Context) error {
	_, err := c.lifecycle.Load(ctx, c.cfg.ModelPath, c.cfg.ModelID, c.cfg.ModelName)
	return err
}

// Unload releases the model. An in-flight generation finishes first.
func (c *Component) Unload() { c.lifecycle.Unload() }

// IsLoaded reports whether a model is loaded.
func (c *Component) IsLoaded() bool { return c.lifecycle.IsLoaded() }

// State returns the lifecycle state.
func (c *Component) State() types.ComponentState { return c.lifecycle.State() }

// ModelID returns the loaded model id, or "".
func (c *Component) ModelID() string { return c.lifecycle.ModelID() }

// LifecycleMetrics returns cumulative load/unload metrics.
func (c *Component) LifecycleMetrics() lifecycle.Metrics { return c.lifecycle.Metrics() }

// Analytics returns the generation analytics service.
func (c *Component) Analytics() *Analytics { return c.analytics }

// Cancel aborts the in-flight generation, if any. The aborted call
// returns a CANCELLED error; no failure events are emitted for it.
func (c *Component) Cancel() {
	svc, err := c.lifecycle.RequireService()
	if err != nil {
		return
	}
	svc.Cancel()
}

func (c *Component) options() backend.GenerateOptions {
	return backend.GenerateOptions{
		SystemPrompt: c.cfg.SystemPrompt,
		MaxTokens:    c.cfg.MaxTokens,
		Temperature:  c.cfg.Temperature,
		TopP:         c.cfg.TopP,
	}
}

// countTokens prefers an exact tokenizer for the model and falls back
// to the ~4 chars/token estimate.
func (c *Component) countTokens(text string) int {
	if c.tokenizers != nil {
		if tok, err := c.tokenizers.Get(c.cfg.ModelID); err == nil {
			if n, err := tok.CountTokens(text); err == nil && n > 0 {
				return n
			}
		}
	}
	return tokenizer.EstimateTokens(text)
}

// Generate produces a completion for the prompt. Token counts come from
// the backend when reported, otherwise from estimation; the completed
// event always carries estimated input tokens so metrics stay
// comparable across engines.
func (c *Component) Generate(ctx context.Context, prompt string) (*GenerationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(prompt) == "" {
		return nil, types.NewError(types.ErrEmptyInput, "prompt is empty").
			WithComponent(string(types.CapabilityLLM))
	}

	svc, err := c.lifecycle.RequireService()
	if err != nil {
		return nil, err
	}

	generationID := uuid.NewString()
	modelID := c.lifecycle.ModelID()

	c.analytics.Start(generationID, modelID)
	c.emit(types.EventGenerationStarted, map[string]any{
		"generation_id": generationID,
		"model_id":      modelID,
		"is_streaming":  false,
	})

	start := time.Now()
	res, err := svc.Generate(ctx, prompt, c.options())
	duration := time.Since(start)

	if err != nil {
		return nil, c.generationFailed(generationID, modelID, duration, err)
	}

	promptTokens := res.PromptTokens
	if promptTokens <= 0 {
		promptTokens = c.countTokens(prompt)
	}
	completionTokens := res.CompletionTokens
	if completionTokens <= 0 {
		completionTokens = c.countTokens(res.Text)
	}

	var tps float64
	if duration > 0 {
		tps = float64(completionTokens) / duration.Seconds()
	}

	c.analytics.Complete(generationID, promptTokens, completionTokens)
	c.recordInference("success", duration, promptTokens, completionTokens)
	c.emit(types.EventGenerationCompleted, map[string]any{
		"generation_id":     generationID,
		"model_id":          modelID,
		"input_tokens":      c.countTokens(prompt),
		"output_tokens":     completionTokens,
		"duration_ms":       duration.Milliseconds(),
		"tokens_per_second": tps,
		"is_streaming":      false,
	})

	c.logger.Info("generation completed",
		zap.String("generation_id", generationID),
		zap.Duration("duration", duration),
		zap.Int("output_tokens", completionTokens))

	return &GenerationResult{
		GenerationID:     generationID,
		Text:             res.Text,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		Duration:         duration,
		TokensPerSecond:  tps,
	}, nil
}

// GenerateStream produces a completion while streaming tokens through
// onToken. A first-token event is emitted once, then an update event
// every ten tokens; the completed event carries the final metrics.
func (c *Component) GenerateStream(ctx context.Context, prompt string, onToken backend.TokenFunc) (*GenerationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(prompt) == "" {
		return nil, types.NewError(types.ErrEmptyInput, "prompt is empty").
			WithComponent(string(types.CapabilityLLM))
	}

	svc, err := c.lifecycle.RequireService()
	if err != nil {
		return nil, err
	}

	generationID := uuid.NewString()
	modelID := c.lifecycle.ModelID()
	sm := NewStreamingMetrics(modelID, generationID, len(prompt))

	c.analytics.StartStreaming(generationID, modelID)
	c.emit(types.EventGenerationStarted, map[string]any{
		"generation_id": generationID,
		"model_id":      modelID,
		"is_streaming":  true,
	})

	sm.MarkStart()
	res, err := svc.GenerateStream(ctx, prompt, c.options(), func(token string) {
		first := sm.TokenCount() == 0
		sm.RecordToken(token)

		if first {
			c.analytics.TrackFirstToken(generationID)
			c.emit(types.EventGenerationFirstToken, map[string]any{
				"generation_id": generationID,
				"model_id":      modelID,
				"ttft_ms":       sm.TimeToFirstToken().Milliseconds(),
			})
		} else if sm.TokenCount()%streamUpdateInterval == 0 {
			c.analytics.TrackUpdate(generationID, sm.TokenCount())
			c.emit(types.EventGenerationUpdate, map[string]any{
				"generation_id":    generationID,
				"model_id":         modelID,
				"tokens_generated": sm.TokenCount(),
			})
		}

		if onToken != nil {
			onToken(token)
		}
	})

	if err != nil {
		sm.MarkFailed()
		return nil, c.generationFailed(generationID, modelID, sm.Result().Latency, err)
	}

	if res.PromptTokens > 0 || res.CompletionTokens > 0 {
		sm.SetTokenCounts(res.PromptTokens, res.CompletionTokens)
	}
	sm.MarkComplete()
	final := sm.Result()

	text := final.Text
	if text == "" {
		text = res.Text
	}

	c.analytics.Complete(generationID, final.InputTokens, final.OutputTokens)
	c.recordInference("success", final.Latency, final.InputTokens, final.OutputTokens)
	c.emit(types.EventGenerationCompleted, map[string]any{
		"generation_id":     generationID,
		"model_id":          modelID,
		"input_tokens":      final.InputTokens,
		"output_tokens":     final.OutputTokens,
		"duration_ms":       final.Latency.Milliseconds(),
		"tokens_per_second": final.TokensPerSecond,
		"ttft_ms":           final.TimeToFirst.Milliseconds(),
		"is_streaming":      true,
	})

	return &GenerationResult{
		GenerationID:     generationID,
		Text:             text,
		PromptTokens:     final.InputTokens,
		CompletionTokens: final.OutputTokens,
		TotalTokens:      final.InputTokens + final.OutputTokens,
		Duration:         final.Latency,
		TimeToFirstToken: final.TimeToFirst,
		TokensPerSecond:  final.TokensPerSecond,
	}, nil
}

// GenerateStructured generates a response constrained to JSON and
// extracts the payload. The prompt is wrapped with schema instructions
// when the config asks for it.
func (c *Component) GenerateStructured(ctx context.Context, prompt string, cfg StructuredConfig) (string, error) {
	prepared := PrepareStructuredPrompt(prompt, &cfg)
	res, err := c.Generate(ctx, prepared)
	if err != nil {
		return "", err
	}
	return ExtractJSON(res.Text)
}

func (c *Component) generationFailed(generationID, modelID string, duration time.Duration, err error) error {
	c.analytics.Fail(generationID)

	if types.IsCancelled(err) {
		c.recordInference("cancelled", duration, 0, 0)
		c.logger.Debug("generation cancelled", zap.String("generation_id", generationID))
		if types.GetErrorCode(err) == types.ErrCancelled {
			return err
		}
		return types.NewError(types.ErrCancelled, "generation cancelled").
			WithComponent(string(types.CapabilityLLM)).
			WithCause(err)
	}

	c.recordInference("failure", duration, 0, 0)
	c.emit(types.EventGenerationFailed, map[string]any{
		"generation_id": generationID,
		"model_id":      modelID,
		"duration_ms":   duration.Milliseconds(),
		"error":         err.Error(),
	})
	c.lifecycle.TrackError("generate", err)
	c.logger.Error("generation failed",
		zap.String("generation_id", generationID),
		zap.Error(err))

	if types.GetErrorCode(err) != "" {
		return err
	}
	return types.NewError(types.ErrGenerationFailed, "generation failed").
		WithComponent(string(types.CapabilityLLM)).
		WithCause(err)
}

func (c *Component) recordInference(status string, duration time.Duration, promptTokens, completionTokens int) {
	if c.collector == nil {
		return
	}
	c.collector.RecordInference(string(types.CapabilityLLM), string(c.cfg.Framework), status, duration)
	if promptTokens > 0 || completionTokens > 0 {
		c.collector.RecordTokens(string(c.cfg.Framework), promptTokens, completionTokens)
	}
}

func (c *Component) emit(t types.EventType, data map[string]any) {
	if c.bus == nil {
		return
	}
	c.bus.Emit(types.NewEvent(t, string(types.CapabilityLLM), data))
}
