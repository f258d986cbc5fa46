package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var allPipelineStates = []PipelineState{
	PipelineIdle, PipelineListening, PipelineProcessingSpeech,
	PipelineGeneratingResponse, PipelinePlayingTTS, PipelineCooldown, PipelineError,
}

func TestValidTransition_Table(t *testing.T) {
	t.Parallel()

	allowed := map[PipelineState][]PipelineState{
		PipelineIdle:               {PipelineListening, PipelineCooldown},
		PipelineListening:          {PipelineIdle, PipelineProcessingSpeech},
		PipelineProcessingSpeech:   {PipelineIdle, PipelineGeneratingResponse, PipelineListening},
		PipelineGeneratingResponse: {PipelinePlayingTTS, PipelineIdle, PipelineCooldown},
		PipelinePlayingTTS:         {PipelineCooldown, PipelineIdle},
		PipelineCooldown:           {PipelineIdle},
		PipelineError:              {PipelineIdle},
	}

	for _, from := range allPipelineStates {
		for _, to := range allPipelineStates {
			want := to == PipelineError
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, ValidTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestValidTransition_Properties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		from := rapid.SampledFrom(allPipelineStates).Draw(t, "from")
		to := rapid.SampledFrom(allPipelineStates).Draw(t, "to")

		// any state may fail
		if to == PipelineError && !ValidTransition(from, to) {
			t.Fatalf("%s must be able to enter error", from)
		}
		// error and cooldown only recover through idle
		if (from == PipelineError || from == PipelineCooldown) &&
			to != PipelineIdle && to != PipelineError && ValidTransition(from, to) {
			t.Fatalf("%s -> %s must be rejected", from, to)
		}
	})
}

func TestCanActivateMicrophone(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cooldown := 500 * time.Millisecond

	// only idle and listening may open the mic
	for _, s := range allPipelineStates {
		want := s == PipelineIdle || s == PipelineListening
		assert.Equal(t, want, CanActivateMicrophone(s, now, time.Time{}, cooldown), "%s", s)
	}

	// cooldown since last TTS end blocks activation
	assert.False(t, CanActivateMicrophone(PipelineIdle, now, now.Add(-100*time.Millisecond), cooldown))
	assert.True(t, CanActivateMicrophone(PipelineIdle, now, now.Add(-600*time.Millisecond), cooldown))
	assert.False(t, CanActivateMicrophone(PipelineListening, now, now.Add(-499*time.Millisecond), cooldown))
}

func TestCanPlayTTS(t *testing.T) {
	t.Parallel()

	for _, s := range allPipelineStates {
		assert.Equal(t, s == PipelineGeneratingResponse, CanPlayTTS(s), "%s", s)
	}
}

func TestPipelineState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "generatingResponse", PipelineGeneratingResponse.String())
	assert.Equal(t, "unknown", PipelineState(99).String())
}
