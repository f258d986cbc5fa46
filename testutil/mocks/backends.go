// Package mocks provides scripted backend services and providers for
// tests. All mocks are safe for concurrent use.
package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/edgerun-ai/edgerun/backend"
	"github.com/edgerun-ai/edgerun/types"
)

// Provider is a configurable backend.Provider base embedded by the
// capability-specific mock providers.
type Provider struct {
	Fw      types.Framework
	Cap     types.Capability
	Accepts func(path string) bool
}

func (p *Provider) Framework() types.Framework   { return p.Fw }
func (p *Provider) Capability() types.Capability { return p.Cap }
func (p *Provider) CanHandle(path string) bool {
	if p.Accepts == nil {
		return true
	}
	return p.Accepts(path)
}

// LLM is a scripted backend.LLMService.
type LLM struct {
	mu sync.Mutex

	// Response is returned by Generate and, when Tokens is empty, also
	// streamed as a whole.
	Response string
	// Tokens, when set, is streamed token by token.
	Tokens []string
	// Err fails every call.
	Err error
	// TokenDelay paces streaming so cancellation tests have a window.
	TokenDelay time.Duration
	// PromptTokens / CompletionTokens are reported to the caller;
	// zero means "backend does not report counts".
	PromptTokens     int
	CompletionTokens int

	LastPrompt string
	Calls      int
	cancelled  bool
}

func (m *LLM) Generate(ctx context.Context, prompt string, _ backend.GenerateOptions) (backend.GenerateResult, error) {
	m.mu.Lock()
	m.LastPrompt = prompt
	m.Calls++
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return backend.GenerateResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return backend.GenerateResult{}, err
	}
	return backend.GenerateResult{
		Text:             m.Response,
		PromptTokens:     m.PromptTokens,
		CompletionTokens: m.CompletionTokens,
	}, nil
}

func (m *LLM) GenerateStream(ctx context.Context, prompt string, _ backend.GenerateOptions, onToken backend.TokenFunc) (backend.GenerateResult, error) {
	m.mu.Lock()
	m.LastPrompt = prompt
	m.Calls++
	m.cancelled = false
	err := m.Err
	tokens := m.Tokens
	m.mu.Unlock()

	if err != nil {
		return backend.GenerateResult{}, err
	}
	if len(tokens) == 0 && m.Response != "" {
		tokens = strings.SplitAfter(m.Response, " ")
	}

	var text strings.Builder
	for _, tok := range tokens {
		if err := ctx.Err(); err != nil {
			return backend.GenerateResult{}, err
		}
		if m.isCancelled() {
			return backend.GenerateResult{}, types.NewError(types.ErrCancelled, "generation cancelled")
		}
		if m.TokenDelay > 0 {
			time.Sleep(m.TokenDelay)
		}
		text.WriteString(tok)
		if onToken != nil {
			onToken(tok)
		}
	}
	return backend.GenerateResult{
		Text:             text.String(),
		PromptTokens:     m.PromptTokens,
		CompletionTokens: m.CompletionTokens,
	}, nil
}

func (m *LLM) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = true
}

func (m *LLM) isCancelled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}

// LLMProvider serves a fixed LLM service.
type LLMProvider struct {
	Provider
	Service *LLM
	// NewErr fails service creation, for load-failure tests.
	NewErr error
}

func (p *LLMProvider) NewLLM(context.Context, string) (backend.LLMService, error) {
	if p.NewErr != nil {
		return nil, p.NewErr
	}
	return p.Service, nil
}

// STT is a scripted backend.STTService with streaming support.
type STT struct {
	mu sync.Mutex

	Transcript string
	// Partials, when set, are delivered by TranscribeStream before the
	// final transcript. Empty means each word of Transcript is a partial.
	Partials []string
	Err      error

	LastPCM []byte
	Calls   int
}

func (m *STT) Transcribe(ctx context.Context, pcm []byte, _ backend.TranscribeOptions) (string, error) {
	m.mu.Lock()
	m.LastPCM = pcm
	m.Calls++
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.Transcript, nil
}

func (m *STT) TranscribeStream(ctx context.Context, pcm []byte, _ backend.TranscribeOptions, onPartial backend.PartialFunc) (string, error) {
	m.mu.Lock()
	m.LastPCM = pcm
	m.Calls++
	err := m.Err
	partials := m.Partials
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	if len(partials) == 0 {
		partials = strings.Fields(m.Transcript)
	}
	for _, p := range partials {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if onPartial != nil {
			onPartial(p)
		}
	}
	return m.Transcript, nil
}

// STTProvider serves a fixed STT service.
type STTProvider struct {
	Provider
	Service *STT
	NewErr  error
}

func (p *STTProvider) NewSTT(context.Context, string) (backend.STTService, error) {
	if p.NewErr != nil {
		return nil, p.NewErr
	}
	return p.Service, nil
}

// TTS is a scripted backend.TTSService with streaming support.
type TTS struct {
	mu sync.Mutex

	Samples    []float32
	SampleRate int
	// Chunks, when set, are delivered by SynthesizeStream in order.
	// Empty means Samples is delivered as a single chunk.
	Chunks [][]float32
	Err    error

	LastText string
	Calls    int
}

func (m *TTS) Synthesize(ctx context.Context, text string, opts backend.SynthesizeOptions) (backend.SynthesisResult, error) {
	m.mu.Lock()
	m.LastText = text
	m.Calls++
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return backend.SynthesisResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return backend.SynthesisResult{}, err
	}
	rate := m.SampleRate
	if rate == 0 {
		rate = opts.SampleRate
	}
	return backend.SynthesisResult{Samples: m.Samples, SampleRate: rate}, nil
}

func (m *TTS) SynthesizeStream(ctx context.Context, text string, opts backend.SynthesizeOptions, onChunk backend.ChunkFunc) (backend.SynthesisResult, error) {
	m.mu.Lock()
	m.LastText = text
	m.Calls++
	err := m.Err
	chunks := m.Chunks
	m.mu.Unlock()

	if err != nil {
		return backend.SynthesisResult{}, err
	}
	if len(chunks) == 0 && len(m.Samples) > 0 {
		chunks = [][]float32{m.Samples}
	}
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return backend.SynthesisResult{}, err
		}
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	rate := m.SampleRate
	if rate == 0 {
		rate = opts.SampleRate
	}
	return backend.SynthesisResult{SampleRate: rate}, nil
}

// TTSProvider serves a fixed TTS service.
type TTSProvider struct {
	Provider
	Service *TTS
	NewErr  error
}

func (p *TTSProvider) NewTTS(context.Context, string) (backend.TTSService, error) {
	if p.NewErr != nil {
		return nil, p.NewErr
	}
	return p.Service, nil
}

// VAD is a scripted backend.VADService.
type VAD struct {
	mu sync.Mutex

	Speech bool
	Err    error
	Calls  int
}

func (m *VAD) Process(ctx context.Context, _ []float32) (bool, error) {
	m.mu.Lock()
	m.Calls++
	err := m.Err
	speech := m.Speech
	m.mu.Unlock()

	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return speech, nil
}

// VADProvider serves a fixed VAD service.
type VADProvider struct {
	Provider
	Service *VAD
	NewErr  error
}

func (p *VADProvider) NewVAD(context.Context, string) (backend.VADService, error) {
	if p.NewErr != nil {
		return nil, p.NewErr
	}
	return p.Service, nil
}
