package audio

import "time"

// PipelineState is the coarse state of the audio pipeline. Transitions
// are validated by ValidTransition; the functions in this file are pure
// so hosts can drive the state machine from any threading model.
type PipelineState int

const (
	PipelineIdle PipelineState = iota
	PipelineListening
	PipelineProcessingSpeech
	PipelineGeneratingResponse
	PipelinePlayingTTS
	PipelineCooldown
	PipelineError
)

func (s PipelineState) String() string {
	switch s {
	case PipelineIdle:
		return "idle"
	case PipelineListening:
		return "listening"
	case PipelineProcessingSpeech:
		return "processingSpeech"
	case PipelineGeneratingResponse:
		return "generatingResponse"
	case PipelinePlayingTTS:
		return "playingTTS"
	case PipelineCooldown:
		return "cooldown"
	case PipelineError:
		return "error"
	default:
		return "unknown"
	}
}

// CanActivateMicrophone reports whether the microphone may be opened in
// the given state. After TTS playback a cooldown applies: the mic stays
// closed until cooldown has elapsed since lastTTSEnd, so the assistant
// does not hear the tail of its own speech. A zero lastTTSEnd means TTS
// has never played.
func CanActivateMicrophone(state PipelineState, now, lastTTSEnd time.Time, cooldown time.Duration) bool {
	switch state {
	case PipelineIdle, PipelineListening:
		if !lastTTSEnd.IsZero() && now.Sub(lastTTSEnd) < cooldown {
			return false
		}
		return true
	default:
		return false
	}
}

// CanPlayTTS reports whether speech playback may start. Playback is only
// allowed while a response is being generated.
func CanPlayTTS(state PipelineState) bool {
	return state == PipelineGeneratingResponse
}

// ValidTransition reports whether moving from one state to another is
// allowed. Every state may transition to PipelineError; PipelineError
// only recovers through PipelineIdle.
func ValidTransition(from, to PipelineState) bool {
	if to == PipelineError {
		return true
	}
	switch from {
	case PipelineIdle:
		return to == PipelineListening || to == PipelineCooldown
	case PipelineListening:
		return to == PipelineIdle || to == PipelineProcessingSpeech
	case PipelineProcessingSpeech:
		return to == PipelineIdle || to == PipelineGeneratingResponse || to == PipelineListening
	case PipelineGeneratingResponse:
		return to == PipelinePlayingTTS || to == PipelineIdle || to == PipelineCooldown
	case PipelinePlayingTTS:
		return to == PipelineCooldown || to == PipelineIdle
	case PipelineCooldown:
		return to == PipelineIdle
	case PipelineError:
		return to == PipelineIdle
	default:
		return false
	}
}
