package voiceagent

// TurnEventType identifies a stage outcome during a streamed turn.
type TurnEventType int

const (
	// TurnTranscription carries the transcript after the STT stage.
	TurnTranscription TurnEventType = iota
	// TurnResponse carries the generated reply after the LLM stage.
	TurnResponse
	// TurnAudio carries the synthesized WAV after the TTS stage.
	TurnAudio
	// TurnCompleted carries the assembled result.
	TurnCompleted
	// TurnError carries the failure that aborted the turn.
	TurnError
)

func (t TurnEventType) String() string {
	switch t {
	case TurnTranscription:
		return "transcription"
	case TurnResponse:
		return "response"
	case TurnAudio:
		return "audio"
	case TurnCompleted:
		return "completed"
	case TurnError:
		return "error"
	default:
		return "unknown"
	}
}

// TurnEvent is one stage outcome delivered to a TurnCallback. Only the
// fields for its type are set.
type TurnEvent struct {
	Type          TurnEventType
	Transcription string
	Response      string
	Audio         []byte
	Result        *TurnResult
	Err           error
}

// TurnCallback receives stage outcomes during ProcessVoiceTurnStream.
// It runs synchronously on the calling goroutine.
type TurnCallback func(TurnEvent)
