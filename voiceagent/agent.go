package voiceagent

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edgerun-ai/edgerun/audio"
	"github.com/edgerun-ai/edgerun/backend"
	"github.com/edgerun-ai/edgerun/events"
	"github.com/edgerun-ai/edgerun/internal/metrics"
	"github.com/edgerun-ai/edgerun/llm"
	"github.com/edgerun-ai/edgerun/llm/tokenizer"
	"github.com/edgerun-ai/edgerun/stt"
	"github.com/edgerun-ai/edgerun/tts"
	"github.com/edgerun-ai/edgerun/types"
	"github.com/edgerun-ai/edgerun/vad"
)

// DefaultCooldown is how long the microphone stays closed after TTS
// playback ends.
const DefaultCooldown = 500 * time.Millisecond

// Config configures an owned agent: one sub-config per component plus
// the microphone cooldown.
type Config struct {
	LLM llm.Config
	STT stt.Config
	TTS tts.Config
	VAD vad.Config

	Cooldown time.Duration
}

// TurnResult is the outcome of one complete voice turn. Audio holds a
// WAV file ready for playback.
type TurnResult struct {
	Transcription  string
	Response       string
	Audio          []byte
	SpeechDetected bool
	Duration       time.Duration
}

// Agent drives a full voice turn across the STT, LLM, TTS, and VAD
// components. One turn runs at a time.
type Agent struct {
	mu sync.Mutex

	llm *llm.Component
	stt *stt.Component
	tts *tts.Component
	vad *vad.Component

	owned      bool
	configured bool
	cooldown   time.Duration

	bus       *events.Bus
	logger    *zap.Logger
	collector *metrics.Collector

	stateMu    sync.Mutex
	state      audio.PipelineState
	lastTTSEnd time.Time
}

// Owned creates an agent that builds and owns all four components from
// cfg. Cleanup unloads them.
func Owned(cfg Config, registry *backend.Registry, tokenizers *tokenizer.Registry,
	bus *events.Bus, logger *zap.Logger, collector *metrics.Collector) (*Agent, error) {
	llmComp, err := llm.NewComponent(cfg.LLM, registry, tokenizers, bus, logger, collector)
	if err != nil {
		return nil, err
	}
	sttComp, err := stt.NewComponent(cfg.STT, registry, bus, logger, collector)
	if err != nil {
		return nil, err
	}
	ttsComp, err := tts.NewComponent(cfg.TTS, registry, bus, logger, collector)
	if err != nil {
		return nil, err
	}
	vadComp, err := vad.NewComponent(cfg.VAD, registry, bus, logger, collector)
	if err != nil {
		return nil, err
	}

	a := newAgent(llmComp, sttComp, ttsComp, vadComp, bus, logger, collector)
	a.owned = true
	if cfg.Cooldown > 0 {
		a.cooldown = cfg.Cooldown
	}
	return a, nil
}

// Borrowed creates an agent over components the caller manages. All
// four are required; Cleanup leaves their models loaded.
func Borrowed(llmComp *llm.Component, sttComp *stt.Component, ttsComp *tts.Component,
	vadComp *vad.Component, bus *events.Bus, logger *zap.Logger, collector *metrics.Collector) (*Agent, error) {
	if llmComp == nil || sttComp == nil || ttsComp == nil || vadComp == nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "all four components are required").
			WithComponent("voiceagent")
	}
	return newAgent(llmComp, sttComp, ttsComp, vadComp, bus, logger, collector), nil
}

func newAgent(llmComp *llm.Component, sttComp *stt.Component, ttsComp *tts.Component,
	vadComp *vad.Component, bus *events.Bus, logger *zap.Logger, collector *metrics.Collector) *Agent {
	return &Agent{
		llm:       llmComp,
		stt:       sttComp,
		tts:       ttsComp,
		vad:       vadComp,
		cooldown:  DefaultCooldown,
		bus:       bus,
		logger:    logger.With(zap.String("component", "voiceagent")),
		collector: collector,
		state:     audio.PipelineIdle,
	}
}

type initStep struct {
	name string
	load func(context.Context) error
}

// Initialize loads every component that is not already loaded, in VAD,
// STT, LLM, TTS order, failing on the first error. Each component's
// outcome is published as a state event; when all are ready a final
// all-ready event follows.
func (a *Agent) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Info("initializing voice agent")

	steps := []initStep{
		{"vad", func(ctx context.Context) error {
			if a.vad.IsLoaded() {
				return nil
			}
			return a.vad.Load(ctx)
		}},
		{"stt", func(ctx context.Context) error {
			if a.stt.IsLoaded() {
				return nil
			}
			return a.stt.Load(ctx)
		}},
		{"llm", func(ctx context.Context) error {
			if a.llm.IsLoaded() {
				return nil
			}
			return a.llm.Load(ctx)
		}},
		{"tts", func(ctx context.Context) error {
			if a.tts.IsLoaded() {
				return nil
			}
			return a.tts.Load(ctx)
		}},
	}

	for _, step := range steps {
		if err := step.load(ctx); err != nil {
			a.emit(types.EventVoiceComponentState, map[string]any{
				"component": step.name,
				"state":     "failed",
				"error":     err.Error(),
			})
			a.logger.Error("component failed to initialize",
				zap.String("component", step.name), zap.Error(err))
			return err
		}
		a.emit(types.EventVoiceComponentState, map[string]any{
			"component": step.name,
			"state":     "ready",
		})
	}

	a.configured = true
	a.emit(types.EventVoiceAllReady, nil)
	a.logger.Info("voice agent ready")
	return nil
}

// Cleanup deactivates the agent. An owned agent also unloads its
// components; a borrowed agent leaves their models loaded for the
// owner.
func (a *Agent) Cleanup() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Info("cleaning up voice agent")
	if a.owned {
		a.llm.Unload()
		a.stt.Unload()
		a.tts.Unload()
		a.vad.Unload()
	}
	a.configured = false
}

// IsReady reports whether Initialize completed.
func (a *Agent) IsReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.configured
}

// LLM returns the text generation component.
func (a *Agent) LLM() *llm.Component { return a.llm }

// STT returns the transcription component.
func (a *Agent) STT() *stt.Component { return a.stt }

// TTS returns the synthesis component.
func (a *Agent) TTS() *tts.Component { return a.tts }

// VAD returns the voice activity component.
func (a *Agent) VAD() *vad.Component { return a.vad }

// validateReady re-checks that every component is still in the loaded
// state, catching models unloaded behind the agent's back.
func (a *Agent) validateReady() error {
	checks := []struct {
		name  string
		state types.ComponentState
	}{
		{"stt", a.stt.State()},
		{"llm", a.llm.State()},
		{"tts", a.tts.State()},
	}
	for _, check := range checks {
		if check.state != types.StateLoaded {
			return types.NewError(types.ErrNotInitialized, check.name+" component is not loaded").
				WithComponent("voiceagent")
		}
	}
	return nil
}

// ProcessVoiceTurn runs one full turn: transcribe the audio, generate a
// reply, synthesize it, and package the audio as WAV. An empty
// transcription aborts the turn.
func (a *Agent) ProcessVoiceTurn(ctx context.Context, pcm []byte) (*TurnResult, error) {
	return a.processTurn(ctx, pcm, nil)
}

// ProcessVoiceTurnStream runs one full turn, invoking fn after each
// stage. The WAV slice in the final event is the same slice carried by
// the audio event.
func (a *Agent) ProcessVoiceTurnStream(ctx context.Context, pcm []byte, fn TurnCallback) error {
	if fn == nil {
		return types.NewError(types.ErrInvalidInput, "callback is required").
			WithComponent("voiceagent")
	}
	_, err := a.processTurn(ctx, pcm, fn)
	return err
}

func (a *Agent) processTurn(ctx context.Context, pcm []byte, fn TurnCallback) (*TurnResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(pcm) == 0 {
		return nil, a.turnSetupFailed(fn, types.NewError(types.ErrEmptyInput, "audio is empty").
			WithComponent("voiceagent"))
	}
	if !a.configured {
		return nil, a.turnSetupFailed(fn, types.NewError(types.ErrNotInitialized, "voice agent is not initialized").
			WithComponent("voiceagent"))
	}
	if err := a.validateReady(); err != nil {
		return nil, a.turnSetupFailed(fn, err)
	}

	start := time.Now()
	a.emit(types.EventVoiceTurnStarted, map[string]any{
		"audio_size_bytes": len(pcm),
	})
	a.logger.Info("processing voice turn", zap.Int("audio_size_bytes", len(pcm)))

	transcript, err := a.stage(ctx, "transcribe", func(ctx context.Context) (string, error) {
		res, err := a.stt.Transcribe(ctx, pcm)
		if err != nil {
			return "", err
		}
		return res.Text, nil
	})
	if err != nil {
		return nil, a.turnFailed(fn, start, "transcribe", err)
	}
	if strings.TrimSpace(transcript) == "" {
		a.logger.Warn("empty transcription, skipping turn")
		err := types.NewError(types.ErrEmptyInput, "transcription is empty").
			WithComponent("voiceagent")
		return nil, a.turnFailed(fn, start, "transcribe", err)
	}
	a.emit(types.EventVoiceTurnTranscript, map[string]any{"text": transcript})
	a.invoke(fn, TurnEvent{Type: TurnTranscription, Transcription: transcript})

	response, err := a.stage(ctx, "generate", func(ctx context.Context) (string, error) {
		res, err := a.llm.Generate(ctx, transcript)
		if err != nil {
			return "", err
		}
		return res.Text, nil
	})
	if err != nil {
		return nil, a.turnFailed(fn, start, "generate", err)
	}
	a.emit(types.EventVoiceTurnResponse, map[string]any{"text": response})
	a.invoke(fn, TurnEvent{Type: TurnResponse, Response: response})

	var wav []byte
	_, err = a.stage(ctx, "synthesize", func(ctx context.Context) (string, error) {
		res, err := a.tts.Synthesize(ctx, response)
		if err != nil {
			return "", err
		}
		wav, err = audio.Float32ToWAV(res.Samples, res.SampleRate)
		return "", err
	})
	if err != nil {
		return nil, a.turnFailed(fn, start, "synthesize", err)
	}
	a.emit(types.EventVoiceTurnAudio, map[string]any{
		"audio_size_bytes": len(wav),
	})
	a.invoke(fn, TurnEvent{Type: TurnAudio, Audio: wav})

	duration := time.Since(start)
	result := &TurnResult{
		Transcription:  transcript,
		Response:       response,
		Audio:          wav,
		SpeechDetected: true,
		Duration:       duration,
	}

	if a.collector != nil {
		a.collector.RecordVoiceTurn("success", duration)
	}
	a.emit(types.EventVoiceTurnCompleted, map[string]any{
		"duration_ms":      duration.Milliseconds(),
		"audio_size_bytes": len(wav),
	})
	a.invoke(fn, TurnEvent{Type: TurnCompleted, Result: result})
	a.logger.Info("voice turn completed", zap.Duration("duration", duration))

	return result, nil
}

// stage times one pipeline stage and records its duration.
func (a *Agent) stage(ctx context.Context, name string, run func(context.Context) (string, error)) (string, error) {
	start := time.Now()
	out, err := run(ctx)
	if a.collector != nil {
		a.collector.RecordVoiceStage(name, time.Since(start))
	}
	return out, err
}

func (a *Agent) turnSetupFailed(fn TurnCallback, err error) error {
	a.invoke(fn, TurnEvent{Type: TurnError, Err: err})
	return err
}

func (a *Agent) turnFailed(fn TurnCallback, start time.Time, stage string, err error) error {
	if a.collector != nil {
		a.collector.RecordVoiceTurn("failure", time.Since(start))
	}
	if !types.IsCancelled(err) {
		a.emit(types.EventVoiceTurnFailed, map[string]any{
			"stage": stage,
			"error": err.Error(),
		})
	}
	a.invoke(fn, TurnEvent{Type: TurnError, Err: err})
	a.logger.Error("voice turn failed", zap.String("stage", stage), zap.Error(err))
	return err
}

// Transcribe converts audio to text through the STT component.
func (a *Agent) Transcribe(ctx context.Context, pcm []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.configured {
		return "", types.NewError(types.ErrNotInitialized, "voice agent is not initialized").
			WithComponent("voiceagent")
	}
	res, err := a.stt.Transcribe(ctx, pcm)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// GenerateResponse produces a reply through the LLM component.
func (a *Agent) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.configured {
		return "", types.NewError(types.ErrNotInitialized, "voice agent is not initialized").
			WithComponent("voiceagent")
	}
	res, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// SynthesizeSpeech converts text to playable WAV audio through the TTS
// component.
func (a *Agent) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.configured {
		return nil, types.NewError(types.ErrNotInitialized, "voice agent is not initialized").
			WithComponent("voiceagent")
	}
	res, err := a.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	return audio.Float32ToWAV(res.Samples, res.SampleRate)
}

// DetectSpeech classifies one frame of samples. Unlike the other
// pass-throughs it does not require Initialize, so hosts can run
// detection while models are still loading.
func (a *Agent) DetectSpeech(ctx context.Context, frame []float32) (bool, error) {
	return a.vad.ProcessAudio(ctx, frame)
}

// NotifyTTSStarted tells the detector that playback began so it can
// reject feedback.
func (a *Agent) NotifyTTSStarted() {
	a.vad.SetTTSActive(true)
}

// NotifyTTSFinished restores detection and starts the microphone
// cooldown clock.
func (a *Agent) NotifyTTSFinished() {
	a.vad.SetTTSActive(false)
	a.stateMu.Lock()
	a.lastTTSEnd = time.Now()
	a.stateMu.Unlock()
}

// PipelineState returns the current pipeline state.
func (a *Agent) PipelineState() audio.PipelineState {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.state
}

// TransitionTo moves the pipeline to a new state, rejecting transitions
// outside the adjacency table. Leaving playback records the cooldown
// start.
func (a *Agent) TransitionTo(to audio.PipelineState) error {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	if !audio.ValidTransition(a.state, to) {
		return types.NewError(types.ErrInvalidState,
			"invalid pipeline transition from "+a.state.String()+" to "+to.String()).
			WithComponent("voiceagent")
	}
	if a.state == audio.PipelinePlayingTTS && to != audio.PipelinePlayingTTS {
		a.lastTTSEnd = time.Now()
	}
	a.logger.Debug("pipeline transition",
		zap.String("from", a.state.String()),
		zap.String("to", to.String()))
	a.state = to
	return nil
}

// CanActivateMicrophone reports whether the mic may open now, honoring
// the post playback cooldown.
func (a *Agent) CanActivateMicrophone() bool {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return audio.CanActivateMicrophone(a.state, time.Now(), a.lastTTSEnd, a.cooldown)
}

// CanPlayTTS reports whether playback may start in the current state.
func (a *Agent) CanPlayTTS() bool {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return audio.CanPlayTTS(a.state)
}

func (a *Agent) emit(t types.EventType, data map[string]any) {
	if a.bus == nil {
		return
	}
	a.bus.Emit(types.NewEvent(t, "voiceagent", data))
}

func (a *Agent) invoke(fn TurnCallback, ev TurnEvent) {
	if fn != nil {
		fn(ev)
	}
}
