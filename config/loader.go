package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edgerun-ai/edgerun/types"
)

// Config is the full runtime configuration.
type Config struct {
	Models ModelsConfig `yaml:"models" env:"MODELS"`

	LLM LLMConfig `yaml:"llm" env:"LLM"`
	STT STTConfig `yaml:"stt" env:"STT"`
	TTS TTSConfig `yaml:"tts" env:"TTS"`
	VAD VADConfig `yaml:"vad" env:"VAD"`

	Voice VoiceConfig `yaml:"voice" env:"VOICE"`

	Log       LogConfig       `yaml:"log" env:"LOG"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ModelsConfig seeds the model registry.
type ModelsConfig struct {
	// Dir is the base directory for relative model paths.
	Dir string `yaml:"dir" env:"DIR"`
	// Register lists models known at startup. File only, no env form.
	Register []types.ModelInfo `yaml:"register"`
}

// LLMConfig configures the text generation component.
type LLMConfig struct {
	ModelPath string `yaml:"model_path" env:"MODEL_PATH"`
	ModelID   string `yaml:"model_id" env:"MODEL_ID"`
	Framework string `yaml:"framework" env:"FRAMEWORK"`

	SystemPrompt string  `yaml:"system_prompt" env:"SYSTEM_PROMPT"`
	MaxTokens    int     `yaml:"max_tokens" env:"MAX_TOKENS"`
	Temperature  float32 `yaml:"temperature" env:"TEMPERATURE"`
	TopP         float32 `yaml:"top_p" env:"TOP_P"`
}

// STTConfig configures the transcription component.
type STTConfig struct {
	ModelPath string `yaml:"model_path" env:"MODEL_PATH"`
	ModelID   string `yaml:"model_id" env:"MODEL_ID"`
	Framework string `yaml:"framework" env:"FRAMEWORK"`

	Language   string `yaml:"language" env:"LANGUAGE"`
	SampleRate int    `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// TTSConfig configures the speech synthesis component.
type TTSConfig struct {
	ModelPath string `yaml:"model_path" env:"MODEL_PATH"`
	ModelID   string `yaml:"model_id" env:"MODEL_ID"`
	Framework string `yaml:"framework" env:"FRAMEWORK"`

	Voice      string  `yaml:"voice" env:"VOICE"`
	Rate       float32 `yaml:"rate" env:"RATE"`
	SampleRate int     `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// VADConfig configures speech detection. An empty model path selects
// the built-in energy detector.
type VADConfig struct {
	ModelPath string `yaml:"model_path" env:"MODEL_PATH"`
	Framework string `yaml:"framework" env:"FRAMEWORK"`

	SampleRate      int     `yaml:"sample_rate" env:"SAMPLE_RATE"`
	EnergyThreshold float64 `yaml:"energy_threshold" env:"ENERGY_THRESHOLD"`
}

// VoiceConfig configures the voice agent.
type VoiceConfig struct {
	// Cooldown is the quiet period after TTS playback before the
	// microphone may reactivate.
	Cooldown time.Duration `yaml:"cooldown" env:"COOLDOWN"`
}

// LogConfig configures zap.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths are zap sink URLs, stderr by default.
	OutputPaths  []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// TelemetryConfig configures the OTel SDK.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Loader builds a Config from defaults, an optional YAML file, and
// environment overrides, in that order.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the EDGERUN env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "EDGERUN"}
}

// WithConfigPath sets the YAML file to load. A missing file is not an
// error; defaults and environment still apply.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a validation function run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	}
	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// setFieldsFromEnv walks the struct and applies PREFIX_SECTION_FIELD
// environment variables to fields carrying an env tag.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("set %s: %w", envKey, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}

// MustLoad loads from path and panics on error.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	return cfg
}

// LoadFromEnv resolves configuration from defaults and environment only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks value ranges across all sections.
func (c *Config) Validate() error {
	var errs []string

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "llm temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 0 {
		errs = append(errs, "llm max_tokens must not be negative")
	}
	if c.STT.SampleRate < 0 || c.TTS.SampleRate < 0 || c.VAD.SampleRate < 0 {
		errs = append(errs, "sample rates must not be negative")
	}
	if c.Voice.Cooldown < 0 {
		errs = append(errs, "voice cooldown must not be negative")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry sample_rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
