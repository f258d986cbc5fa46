package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/edgerun-ai/edgerun/backend"
	"github.com/edgerun-ai/edgerun/config"
	"github.com/edgerun-ai/edgerun/types"
)

// Demo backends stand in for real inference engines so a turn can run
// end to end on any machine: the STT describes the audio it received,
// the LLM echoes the transcript, the TTS plays a tone per word.

const demoModelPath = "demo:echo"

// useDemoBackends points empty model paths at the demo engines.
func useDemoBackends(cfg *config.Config) {
	if cfg.LLM.ModelPath == "" {
		cfg.LLM.ModelPath = demoModelPath
		cfg.LLM.Framework = string(types.FrameworkSystem)
	}
	if cfg.STT.ModelPath == "" {
		cfg.STT.ModelPath = demoModelPath
		cfg.STT.Framework = string(types.FrameworkSystem)
	}
	if cfg.TTS.ModelPath == "" {
		cfg.TTS.ModelPath = demoModelPath
		cfg.TTS.Framework = string(types.FrameworkSystem)
	}
}

func registerDemoProviders(r *backend.Registry) {
	r.Register(&demoProvider{capability: types.CapabilityLLM}, 1)
	r.Register(&demoProvider{capability: types.CapabilitySTT}, 1)
	r.Register(&demoProvider{capability: types.CapabilityTTS}, 1)
}

type demoProvider struct {
	capability types.Capability
}

func (p *demoProvider) Framework() types.Framework   { return types.FrameworkSystem }
func (p *demoProvider) Capability() types.Capability { return p.capability }

func (p *demoProvider) CanHandle(modelPath string) bool {
	return strings.HasPrefix(modelPath, "demo:")
}

func (p *demoProvider) NewLLM(ctx context.Context, modelPath string) (backend.LLMService, error) {
	return &echoLLM{}, nil
}

func (p *demoProvider) NewSTT(ctx context.Context, modelPath string) (backend.STTService, error) {
	return &describeSTT{}, nil
}

func (p *demoProvider) NewTTS(ctx context.Context, modelPath string) (backend.TTSService, error) {
	return &toneTTS{}, nil
}

// echoLLM repeats the prompt back.
type echoLLM struct{}

func (e *echoLLM) Generate(ctx context.Context, prompt string, opts backend.GenerateOptions) (backend.GenerateResult, error) {
	return backend.GenerateResult{Text: "You said: " + prompt}, nil
}

func (e *echoLLM) GenerateStream(ctx context.Context, prompt string, opts backend.GenerateOptions, onToken backend.TokenFunc) (backend.GenerateResult, error) {
	text := "You said: " + prompt
	for _, tok := range strings.SplitAfter(text, " ") {
		if err := ctx.Err(); err != nil {
			return backend.GenerateResult{}, err
		}
		onToken(tok)
		time.Sleep(10 * time.Millisecond)
	}
	return backend.GenerateResult{Text: text}, nil
}

func (e *echoLLM) Cancel() {}

// describeSTT reports the shape of the audio instead of its words.
type describeSTT struct{}

func (s *describeSTT) Transcribe(ctx context.Context, pcm []byte, opts backend.TranscribeOptions) (string, error) {
	rate := opts.SampleRate
	if rate <= 0 {
		rate = 16000
	}
	ms := len(pcm) / 2 * 1000 / rate
	return fmt.Sprintf("an utterance of %d milliseconds", ms), nil
}

// toneTTS renders one short sine beep per word.
type toneTTS struct{}

func (t *toneTTS) Synthesize(ctx context.Context, text string, opts backend.SynthesizeOptions) (backend.SynthesisResult, error) {
	rate := opts.SampleRate
	if rate <= 0 {
		rate = 22050
	}
	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}

	beep := rate / 8
	gap := rate / 16
	samples := make([]float32, 0, words*(beep+gap))
	for w := 0; w < words; w++ {
		freq := 440.0 + 40.0*float64(w%5)
		for i := 0; i < beep; i++ {
			v := 0.3 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
			samples = append(samples, float32(v))
		}
		samples = append(samples, make([]float32, gap)...)
	}
	return backend.SynthesisResult{Samples: samples, SampleRate: rate}, nil
}

// readWAV extracts 16-bit mono PCM and the sample rate from a WAV file.
func readWAV(path string) ([]byte, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("%s is not a WAV file", path)
	}

	sampleRate := 0
	// walk the chunk list; fmt carries the rate, data carries the PCM
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			return nil, 0, fmt.Errorf("%s: truncated %q chunk", path, id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("%s: malformed fmt chunk", path)
			}
			if bits := binary.LittleEndian.Uint16(data[body+14 : body+16]); bits != 16 {
				return nil, 0, fmt.Errorf("%s: %d-bit samples, want 16", path, bits)
			}
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
		case "data":
			if sampleRate == 0 {
				return nil, 0, fmt.Errorf("%s: data chunk before fmt", path)
			}
			return data[body : body+size], sampleRate, nil
		}
		off = body + size + size%2
	}
	return nil, 0, fmt.Errorf("%s: no data chunk", path)
}
