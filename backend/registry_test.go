package backend

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgerun-ai/edgerun/types"
)

type stubProvider struct {
	framework  types.Framework
	capability types.Capability
	ext        string
}

func (p *stubProvider) Framework() types.Framework   { return p.framework }
func (p *stubProvider) Capability() types.Capability { return p.capability }
func (p *stubProvider) CanHandle(path string) bool {
	return p.ext == "" || strings.HasSuffix(path, p.ext)
}

type stubLLMProvider struct{ stubProvider }

func (p *stubLLMProvider) NewLLM(context.Context, string) (LLMService, error) { return nil, nil }

func TestRegistry_PriorityOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	low := &stubProvider{framework: "engine-a", capability: types.CapabilityLLM}
	high := &stubProvider{framework: "engine-b", capability: types.CapabilityLLM}
	r.Register(low, 10)
	r.Register(high, 100)

	got, err := r.Resolve(types.CapabilityLLM, types.FrameworkAny, "/m/x.gguf")
	require.NoError(t, err)
	assert.Equal(t, types.Framework("engine-b"), got.Framework())
	assert.Equal(t, []types.Framework{"engine-b", "engine-a"}, r.List(types.CapabilityLLM))
}

func TestRegistry_CanHandleSkipsMismatch(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubProvider{framework: "gguf-only", capability: types.CapabilitySTT, ext: ".gguf"}, 100)
	r.Register(&stubProvider{framework: "onnx-only", capability: types.CapabilitySTT, ext: ".onnx"}, 10)

	got, err := r.Resolve(types.CapabilitySTT, types.FrameworkAny, "/models/whisper.onnx")
	require.NoError(t, err)
	assert.Equal(t, types.Framework("onnx-only"), got.Framework())
}

func TestRegistry_ExplicitFramework(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubProvider{framework: "engine-a", capability: types.CapabilityTTS}, 100)
	r.Register(&stubProvider{framework: "engine-b", capability: types.CapabilityTTS}, 10)

	got, err := r.Resolve(types.CapabilityTTS, "engine-b", "/voices/en.bin")
	require.NoError(t, err)
	assert.Equal(t, types.Framework("engine-b"), got.Framework())

	_, err = r.Resolve(types.CapabilityTTS, "engine-c", "/voices/en.bin")
	require.Error(t, err)
	assert.Equal(t, types.ErrIncompatible, types.GetErrorCode(err))
}

func TestRegistry_ReregisterReplaces(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubProvider{framework: "engine-a", capability: types.CapabilityVAD, ext: ".old"}, 10)
	r.Register(&stubProvider{framework: "engine-a", capability: types.CapabilityVAD}, 10)

	assert.Equal(t, 1, r.Len(types.CapabilityVAD))
	_, err := r.Resolve(types.CapabilityVAD, "engine-a", "/models/vad.bin")
	assert.NoError(t, err, "replacement provider accepts any path")
}

func TestRegistry_Unregister(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubProvider{framework: "engine-a", capability: types.CapabilityLLM}, 10)
	r.Unregister(types.CapabilityLLM, "engine-a")

	assert.Zero(t, r.Len(types.CapabilityLLM))
	_, err := r.Resolve(types.CapabilityLLM, types.FrameworkAny, "/m/x.gguf")
	assert.Error(t, err)
}

func TestRegistry_ResolveLLMRequiresConstructor(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	// registered for LLM but lacks NewLLM
	r.Register(&stubProvider{framework: "broken", capability: types.CapabilityLLM}, 10)
	_, err := r.ResolveLLM(types.FrameworkAny, "/m/x.gguf")
	require.Error(t, err)
	assert.Equal(t, types.ErrIncompatible, types.GetErrorCode(err))

	r.Register(&stubLLMProvider{stubProvider{framework: "good", capability: types.CapabilityLLM}}, 100)
	p, err := r.ResolveLLM(types.FrameworkAny, "/m/x.gguf")
	require.NoError(t, err)
	assert.Equal(t, types.Framework("good"), p.Framework())
}
