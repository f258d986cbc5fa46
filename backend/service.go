package backend

import (
	"context"

	"github.com/edgerun-ai/edgerun/types"
)

// GenerateOptions controls one text generation call.
type GenerateOptions struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	TopP         float32
	Stop         []string
}

// GenerateResult is the engine-level outcome of a generation. Token
// counts are zero when the engine does not report them; the component
// falls back to estimation.
type GenerateResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// TokenFunc receives tokens during streaming generation. It runs on the
// engine's goroutine; implementations must be fast.
type TokenFunc func(token string)

// LLMService is the engine-facing text generation contract.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (GenerateResult, error)
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions, onToken TokenFunc) (GenerateResult, error)
	// Cancel aborts an in-flight generation. The aborted call returns a
	// CANCELLED error.
	Cancel()
}

// TranscribeOptions controls one transcription call.
type TranscribeOptions struct {
	Language   string
	SampleRate int
}

// STTService is the engine-facing speech-to-text contract. Input is
// 16-bit little-endian mono PCM.
type STTService interface {
	Transcribe(ctx context.Context, pcm []byte, opts TranscribeOptions) (string, error)
}

// PartialFunc receives partial transcripts during streaming
// transcription. It runs on the engine's goroutine; implementations
// must be fast.
type PartialFunc func(text string)

// StreamingSTTService is implemented by STT engines that deliver
// partial transcripts while decoding. The component type-asserts for
// it; engines without it fail streaming calls with NOT_SUPPORTED.
type StreamingSTTService interface {
	STTService
	TranscribeStream(ctx context.Context, pcm []byte, opts TranscribeOptions, onPartial PartialFunc) (string, error)
}

// SynthesizeOptions controls one synthesis call.
type SynthesizeOptions struct {
	Voice      string
	Rate       float32
	SampleRate int
}

// SynthesisResult holds synthesized speech as float32 samples in [-1, 1].
type SynthesisResult struct {
	Samples    []float32
	SampleRate int
}

// TTSService is the engine-facing text-to-speech contract.
type TTSService interface {
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (SynthesisResult, error)
}

// ChunkFunc receives synthesized sample chunks during streaming
// synthesis, in playback order.
type ChunkFunc func(samples []float32)

// StreamingTTSService is implemented by TTS engines that deliver audio
// chunk by chunk as it is synthesized. The component type-asserts for
// it; engines without it fail streaming calls with NOT_SUPPORTED.
type StreamingTTSService interface {
	TTSService
	SynthesizeStream(ctx context.Context, text string, opts SynthesizeOptions, onChunk ChunkFunc) (SynthesisResult, error)
}

// VADService is the engine-facing speech detection contract. Process
// consumes one frame of float32 samples and reports whether it contains
// speech.
type VADService interface {
	Process(ctx context.Context, frame []float32) (bool, error)
}

// Provider describes an engine integration for one capability.
type Provider interface {
	Framework() types.Framework
	Capability() types.Capability
	// CanHandle reports whether this provider can load the given model
	// path, typically by extension or manifest sniffing.
	CanHandle(modelPath string) bool
}

// LLMProvider creates LLM services.
type LLMProvider interface {
	Provider
	NewLLM(ctx context.Context, modelPath string) (LLMService, error)
}

// STTProvider creates STT services.
type STTProvider interface {
	Provider
	NewSTT(ctx context.Context, modelPath string) (STTService, error)
}

// TTSProvider creates TTS services.
type TTSProvider interface {
	Provider
	NewTTS(ctx context.Context, modelPath string) (TTSService, error)
}

// VADProvider creates VAD services.
type VADProvider interface {
	Provider
	NewVAD(ctx context.Context, modelPath string) (VADService, error)
}
