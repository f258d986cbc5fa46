package edgerun

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edgerun-ai/edgerun/config"
	"github.com/edgerun-ai/edgerun/testutil"
	"github.com/edgerun-ai/edgerun/testutil/mocks"
	"github.com/edgerun-ai/edgerun/types"
)

func newTestRuntime(t *testing.T, cfg *config.Config) *Runtime {
	t.Helper()
	rt, err := New(cfg, WithLogger(zap.NewNop()), WithCollector(nil))
	require.NoError(t, err)
	return rt
}

func TestNewRuntimeDefaults(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t, nil)
	assert.NotNil(t, rt.Bus())
	assert.NotNil(t, rt.Backends())
	assert.NotNil(t, rt.Models())
	assert.NotNil(t, rt.Tokenizers())
	assert.Nil(t, rt.Collector())
	require.NoError(t, rt.Shutdown(testutil.TestContext(t)))
}

func TestNewRuntimeRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Log.Level = "shouting"
	_, err := New(cfg, WithCollector(nil))
	require.Error(t, err)
}

func TestNewRuntimeRegistersModels(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Models.Dir = "/opt/models"
	cfg.Models.Register = []types.ModelInfo{
		{ID: "chat-7b", Path: "chat.gguf", Framework: types.FrameworkLlamaCpp, Capability: types.CapabilityLLM},
		{ID: "whisper-base", Path: "/abs/whisper.bin", Framework: types.FrameworkWhisperCpp, Capability: types.CapabilitySTT},
	}

	rt := newTestRuntime(t, cfg)

	info, err := rt.Models().Resolve("chat-7b")
	require.NoError(t, err)
	assert.Equal(t, "/opt/models/chat.gguf", info.Path)

	info, err = rt.Models().Resolve("whisper-base")
	require.NoError(t, err)
	assert.Equal(t, "/abs/whisper.bin", info.Path)
}

func TestRuntimeBuiltinVAD(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t, nil)
	comp, err := rt.NewVAD()
	require.NoError(t, err)
	require.NoError(t, comp.Load(testutil.TestContext(t)))
	assert.True(t, comp.IsLoaded())
}

func TestRuntimeNewVoiceAgent(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.LLM.ModelPath = "/models/chat.gguf"
	cfg.STT.ModelPath = "/models/whisper.bin"
	cfg.TTS.ModelPath = "/models/voice.onnx"

	rt := newTestRuntime(t, cfg)
	rt.Backends().Register(&mocks.LLMProvider{
		Provider: mocks.Provider{Cap: types.CapabilityLLM},
		Service:  &mocks.LLM{Response: "ok"},
	}, 10)
	rt.Backends().Register(&mocks.STTProvider{
		Provider: mocks.Provider{Cap: types.CapabilitySTT},
		Service:  &mocks.STT{Transcript: "ok"},
	}, 10)
	rt.Backends().Register(&mocks.TTSProvider{
		Provider: mocks.Provider{Cap: types.CapabilityTTS},
		Service:  &mocks.TTS{Samples: make([]float32, 100), SampleRate: 22050},
	}, 10)

	agent, err := rt.NewVoiceAgent()
	require.NoError(t, err)
	require.NoError(t, agent.Initialize(testutil.TestContext(t)))
	assert.True(t, agent.IsReady())
}

func TestRuntimeLoadModel(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Models.Register = []types.ModelInfo{
		{ID: "chat-7b", Path: "/models/chat.gguf", Framework: types.FrameworkLlamaCpp, Capability: types.CapabilityLLM},
	}

	rt := newTestRuntime(t, cfg)
	rt.Backends().Register(&mocks.LLMProvider{
		Provider: mocks.Provider{Fw: types.FrameworkLlamaCpp, Cap: types.CapabilityLLM},
		Service:  &mocks.LLM{Response: "ok"},
	}, 10)

	comp, err := rt.LoadModel(testutil.TestContext(t), "chat-7b")
	require.NoError(t, err)
	assert.True(t, comp.IsLoaded())
	assert.Equal(t, types.StateLoaded, comp.State())

	comp.Unload()
	assert.False(t, comp.IsLoaded())
}

func TestRuntimeLoadModelUnknown(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t, nil)
	_, err := rt.LoadModel(testutil.TestContext(t), "missing")
	require.Error(t, err)
	assert.Equal(t, types.ErrModelNotFound, types.GetErrorCode(err))
}

func TestRuntimePreload(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Models.Register = []types.ModelInfo{
		{ID: "chat-7b", Path: "/models/chat.gguf", Framework: types.FrameworkLlamaCpp, Capability: types.CapabilityLLM},
		{ID: "whisper-base", Path: "/models/whisper.bin", Framework: types.FrameworkWhisperCpp, Capability: types.CapabilitySTT},
	}

	rt := newTestRuntime(t, cfg)
	rt.Backends().Register(&mocks.LLMProvider{
		Provider: mocks.Provider{Fw: types.FrameworkLlamaCpp, Cap: types.CapabilityLLM},
		Service:  &mocks.LLM{Response: "ok"},
	}, 10)
	rt.Backends().Register(&mocks.STTProvider{
		Provider: mocks.Provider{Fw: types.FrameworkWhisperCpp, Cap: types.CapabilitySTT},
		Service:  &mocks.STT{Transcript: "ok"},
	}, 10)

	comps, err := rt.Preload(testutil.TestContext(t), "chat-7b", "whisper-base")
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.True(t, comps["chat-7b"].IsLoaded())
	assert.True(t, comps["whisper-base"].IsLoaded())
}

func TestRuntimePreloadFailureUnloads(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Models.Register = []types.ModelInfo{
		{ID: "chat-7b", Path: "/models/chat.gguf", Framework: types.FrameworkLlamaCpp, Capability: types.CapabilityLLM},
		{ID: "whisper-base", Path: "/models/whisper.bin", Framework: types.FrameworkWhisperCpp, Capability: types.CapabilitySTT},
	}

	rt := newTestRuntime(t, cfg)
	rt.Backends().Register(&mocks.LLMProvider{
		Provider: mocks.Provider{Fw: types.FrameworkLlamaCpp, Cap: types.CapabilityLLM},
		Service:  &mocks.LLM{Response: "ok"},
	}, 10)
	// no STT provider registered, so whisper-base cannot load

	_, err := rt.Preload(testutil.TestContext(t), "chat-7b", "whisper-base")
	require.Error(t, err)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	t.Parallel()

	logger := NewLogger(config.LogConfig{Level: "unknown", Format: "json", OutputPaths: []string{"stderr"}})
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}
