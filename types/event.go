package types

import "time"

// EventType names a runtime event. The dotted prefix is the emitting
// subsystem; routing is decided per type, not per category.
type EventType string

// Lifecycle events
const (
	EventLoadStarted   EventType = "load.started"
	EventLoadCompleted EventType = "load.completed"
	EventLoadFailed    EventType = "load.failed"
	EventUnloaded      EventType = "unloaded"
)

// LLM events
const (
	EventGenerationStarted    EventType = "llm.generation.started"
	EventGenerationFirstToken EventType = "llm.generation.first_token"
	EventGenerationUpdate     EventType = "llm.generation.update"
	EventGenerationCompleted  EventType = "llm.generation.completed"
	EventGenerationFailed     EventType = "llm.generation.failed"
)

// STT events
const (
	EventTranscriptionStarted   EventType = "stt.transcription.started"
	EventTranscriptPartial      EventType = "stt.transcription.partial"
	EventTranscriptionCompleted EventType = "stt.transcription.completed"
	EventTranscriptionFailed    EventType = "stt.transcription.failed"
)

// TTS events
const (
	EventSynthesisStarted   EventType = "tts.synthesis.started"
	EventSynthesisChunk     EventType = "tts.synthesis.chunk"
	EventSynthesisCompleted EventType = "tts.synthesis.completed"
	EventSynthesisFailed    EventType = "tts.synthesis.failed"
)

// VAD events
const (
	EventSpeechStarted EventType = "vad.speech.started"
	EventSpeechEnded   EventType = "vad.speech.ended"
	EventVADPaused     EventType = "vad.paused"
	EventVADResumed    EventType = "vad.resumed"
)

// Voice agent events
const (
	EventVoiceComponentState EventType = "voice.component.state"
	EventVoiceAllReady       EventType = "voice.all_ready"
	EventVoiceTurnStarted    EventType = "voice.turn.started"
	EventVoiceTurnTranscript EventType = "voice.turn.transcript"
	EventVoiceTurnResponse   EventType = "voice.turn.response"
	EventVoiceTurnAudio      EventType = "voice.turn.audio"
	EventVoiceTurnCompleted  EventType = "voice.turn.completed"
	EventVoiceTurnFailed     EventType = "voice.turn.failed"
)

// System events
const (
	EventDownloadProgress    EventType = "download.progress"
	EventExtractionProgress  EventType = "extraction.progress"
	EventConnectivityChanged EventType = "connectivity.changed"
	EventError               EventType = "error"
)

// Destination selects which sinks receive an event.
type Destination int

const (
	// DestinationAll delivers to both the analytics and the public sink.
	DestinationAll Destination = iota
	// DestinationPublicOnly delivers only to the public sink. Used for
	// high-frequency streaming updates that would flood analytics.
	DestinationPublicOnly
	// DestinationAnalyticsOnly delivers only to the analytics sink. Used
	// for internal signals with no UI value.
	DestinationAnalyticsOnly
)

func (d Destination) String() string {
	switch d {
	case DestinationPublicOnly:
		return "public_only"
	case DestinationAnalyticsOnly:
		return "analytics_only"
	default:
		return "all"
	}
}

// DestinationFor returns the fixed routing for an event type. The mapping
// is total: unknown types go to both sinks.
func DestinationFor(t EventType) Destination {
	switch t {
	case EventGenerationUpdate, EventTranscriptPartial, EventSynthesisChunk,
		EventDownloadProgress, EventExtractionProgress:
		return DestinationPublicOnly
	case EventSpeechStarted, EventSpeechEnded, EventVADPaused, EventVADResumed,
		EventConnectivityChanged:
		return DestinationAnalyticsOnly
	default:
		return DestinationAll
	}
}

// Event is the unit routed through the bus. Data holds type-specific
// payload fields; values must be safe to read after Emit returns.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Component string         `json:"component,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(t EventType, component string, data map[string]any) Event {
	return Event{Type: t, Timestamp: time.Now(), Component: component, Data: data}
}
