package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDestinationFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  EventType
		want Destination
	}{
		{"streaming update is public only", EventGenerationUpdate, DestinationPublicOnly},
		{"partial transcript is public only", EventTranscriptPartial, DestinationPublicOnly},
		{"synthesis chunk is public only", EventSynthesisChunk, DestinationPublicOnly},
		{"download progress is public only", EventDownloadProgress, DestinationPublicOnly},
		{"speech start is analytics only", EventSpeechStarted, DestinationAnalyticsOnly},
		{"speech end is analytics only", EventSpeechEnded, DestinationAnalyticsOnly},
		{"connectivity is analytics only", EventConnectivityChanged, DestinationAnalyticsOnly},
		{"load completed goes everywhere", EventLoadCompleted, DestinationAll},
		{"turn completed goes everywhere", EventVoiceTurnCompleted, DestinationAll},
		{"unknown type goes everywhere", EventType("custom.thing"), DestinationAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DestinationFor(tt.typ))
		})
	}
}

func TestComponentState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "loaded", StateLoaded.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", ComponentState(42).String())
}
