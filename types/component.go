package types

// Capability identifies a modality a backend service can provide.
type Capability string

const (
	CapabilityLLM Capability = "llm"
	CapabilitySTT Capability = "stt"
	CapabilityTTS Capability = "tts"
	CapabilityVAD Capability = "vad"
)

// Framework identifies the inference engine behind a backend service.
// The set is open; these are the identifiers the runtime knows about.
type Framework string

const (
	FrameworkLlamaCpp   Framework = "llamacpp"
	FrameworkWhisperCpp Framework = "whispercpp"
	FrameworkONNX       Framework = "onnx"
	FrameworkSystem     Framework = "system"
	FrameworkBuiltin    Framework = "builtin"
	FrameworkAny        Framework = ""
)

// ComponentState is the lifecycle state of a modality component's resource.
type ComponentState int32

const (
	StateIdle ComponentState = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s ComponentState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ModelInfo describes a registered model: where it lives on disk, which
// engine loads it, and which modality it serves.
type ModelInfo struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	Path        string     `json:"path" yaml:"path"`
	Framework   Framework  `json:"framework" yaml:"framework"`
	Capability  Capability `json:"capability" yaml:"capability"`
	ContextSize int        `json:"context_size,omitempty" yaml:"context_size,omitempty"`
}
