package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgerun-ai/edgerun/types"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	err := r.Register(types.ModelInfo{
		ID:         "whisper-tiny",
		Path:       "/models/whisper-tiny.onnx",
		Framework:  types.FrameworkONNX,
		Capability: types.CapabilitySTT,
	})
	require.NoError(t, err)

	info, err := r.Resolve("whisper-tiny")
	require.NoError(t, err)
	assert.Equal(t, "/models/whisper-tiny.onnx", info.Path)
	assert.Equal(t, "whisper-tiny", info.Name, "name defaults to id")

	_, err = r.Resolve("missing")
	require.Error(t, err)
	assert.Equal(t, types.ErrModelNotFound, types.GetErrorCode(err))
}

func TestRegistry_RegisterValidation(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	assert.Error(t, r.Register(types.ModelInfo{Path: "/x"}))
	assert.Error(t, r.Register(types.ModelInfo{ID: "x"}))
}

func TestRegistry_ReplaceAndRemove(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Register(types.ModelInfo{ID: "m", Path: "/a"}))
	require.NoError(t, r.Register(types.ModelInfo{ID: "m", Path: "/b"}))

	info, err := r.Resolve("m")
	require.NoError(t, err)
	assert.Equal(t, "/b", info.Path)
	assert.Equal(t, 1, r.Len())

	r.Remove("m")
	r.Remove("m") // no-op
	assert.Zero(t, r.Len())
}

func TestRegistry_ListByCapability(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Register(types.ModelInfo{ID: "b-llm", Path: "/b", Capability: types.CapabilityLLM}))
	require.NoError(t, r.Register(types.ModelInfo{ID: "a-llm", Path: "/a", Capability: types.CapabilityLLM}))
	require.NoError(t, r.Register(types.ModelInfo{ID: "stt", Path: "/s", Capability: types.CapabilitySTT}))

	all := r.List("")
	require.Len(t, all, 3)
	assert.Equal(t, "a-llm", all[0].ID, "sorted by id")

	llms := r.List(types.CapabilityLLM)
	require.Len(t, llms, 2)
	for _, m := range llms {
		assert.Equal(t, types.CapabilityLLM, m.Capability)
	}
}
