package config

import "time"

// DefaultConfig returns the baseline configuration. Model paths are
// intentionally empty; components refuse to load without one.
func DefaultConfig() *Config {
	return &Config{
		Models:    ModelsConfig{Dir: "models"},
		LLM:       DefaultLLMConfig(),
		STT:       DefaultSTTConfig(),
		TTS:       DefaultTTSConfig(),
		VAD:       DefaultVADConfig(),
		Voice:     DefaultVoiceConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		MaxTokens:   512,
		Temperature: 0.7,
		TopP:        0.95,
	}
}

func DefaultSTTConfig() STTConfig {
	return STTConfig{
		Language:   "en",
		SampleRate: 16000,
	}
}

func DefaultTTSConfig() TTSConfig {
	return TTSConfig{
		Rate:       1.0,
		SampleRate: 22050,
	}
}

func DefaultVADConfig() VADConfig {
	return VADConfig{
		SampleRate: 16000,
	}
}

func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		Cooldown: 500 * time.Millisecond,
	}
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{"stderr"},
	}
}

func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "edgerun",
		SampleRate:   1.0,
	}
}
