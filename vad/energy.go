package vad

import (
	"context"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/edgerun-ai/edgerun/audio"
	"github.com/edgerun-ai/edgerun/backend"
	"github.com/edgerun-ai/edgerun/types"
)

const (
	// DefaultEnergyThreshold is the RMS level above which a frame counts
	// as voice before calibration adjusts it.
	DefaultEnergyThreshold = 0.015
	// DefaultFrameLength is the analysis window in seconds.
	DefaultFrameLength = 0.1

	// frames of voice needed to start a speech segment
	voiceStartFrames = 1
	// frames of silence needed to end a speech segment
	voiceEndFrames = 12
	// stricter thresholds while TTS plays, to reject playback feedback
	ttsVoiceStartFrames = 10
	ttsVoiceEndFrames   = 5

	calibrationFramesNeeded = 20

	defaultCalibrationMultiplier = 2.0
	defaultTTSMultiplier         = 3.0

	minThreshold = 0.003
	maxThreshold = 0.020

	maxRecentValues = 50
)

// EnergyConfig configures the energy detector.
type EnergyConfig struct {
	SampleRate      int
	FrameLength     float64
	EnergyThreshold float64
}

func (c EnergyConfig) withDefaults() EnergyConfig {
	if c.SampleRate == 0 {
		c.SampleRate = audio.DefaultVADSampleRate
	}
	if c.FrameLength == 0 {
		c.FrameLength = DefaultFrameLength
	}
	if c.EnergyThreshold == 0 {
		c.EnergyThreshold = DefaultEnergyThreshold
	}
	return c
}

// Stats is a snapshot of recent energy readings.
type Stats struct {
	Current   float64
	Threshold float64
	Ambient   float64
	RecentAvg float64
	RecentMax float64
}

// EnergyVAD detects voice activity by comparing frame RMS energy against
// a threshold, with hysteresis on segment starts and ends. Calibration
// measures ambient noise over a fixed number of frames and derives the
// threshold from its 90th percentile.
type EnergyVAD struct {
	mu sync.Mutex

	sampleRate    int
	frameSamples  int
	threshold     float64
	baseThreshold float64

	calibrationMultiplier float64
	ttsMultiplier         float64

	active    bool
	speaking  bool
	paused    bool
	ttsActive bool

	silentFrames int
	voiceFrames  int

	calibrating       bool
	calibrationFrames []float64
	ambientNoise      float64

	recentEnergy []float64

	onActivity func(started bool)

	logger *zap.Logger
}

// NewEnergyVAD creates a detector in the stopped state.
func NewEnergyVAD(cfg EnergyConfig, logger *zap.Logger) *EnergyVAD {
	cfg = cfg.withDefaults()
	return &EnergyVAD{
		sampleRate:            cfg.SampleRate,
		frameSamples:          int(cfg.FrameLength * float64(cfg.SampleRate)),
		threshold:             cfg.EnergyThreshold,
		baseThreshold:         cfg.EnergyThreshold,
		calibrationMultiplier: defaultCalibrationMultiplier,
		ttsMultiplier:         defaultTTSMultiplier,
		logger:                logger.With(zap.String("component", "vad")),
	}
}

// SetActivityCallback registers a callback fired on speech segment
// starts (true) and ends (false). It runs under the detector mutex.
func (v *EnergyVAD) SetActivityCallback(fn func(started bool)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onActivity = fn
}

// Initialize activates the detector and begins ambient noise
// calibration.
func (v *EnergyVAD) Initialize() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.active = true
	v.speaking = false
	v.silentFrames = 0
	v.voiceFrames = 0

	v.logger.Info("starting calibration, measuring ambient noise")
	v.calibrating = true
	v.calibrationFrames = nil
}

// Start activates the detector without recalibrating. Already active is
// a no-op.
func (v *EnergyVAD) Start() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.active {
		return
	}
	v.active = true
	v.speaking = false
	v.silentFrames = 0
	v.voiceFrames = 0
}

// Stop deactivates the detector. A speech segment in progress ends.
func (v *EnergyVAD) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.active {
		return
	}
	if v.speaking {
		v.speaking = false
		v.fireLocked(false)
	}
	v.active = false
	v.silentFrames = 0
	v.voiceFrames = 0
}

// Reset deactivates and clears segment state.
func (v *EnergyVAD) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.active = false
	v.speaking = false
	v.silentFrames = 0
	v.voiceFrames = 0
}

// Process classifies one frame of mono samples. While inactive, paused,
// blocked by TTS playback, or calibrating it reports no voice.
func (v *EnergyVAD) Process(_ context.Context, frame []float32) (bool, error) {
	if len(frame) == 0 {
		return false, types.NewError(types.ErrInvalidInput, "frame is empty").
			WithComponent(string(types.CapabilityVAD))
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.active || v.ttsActive || v.paused {
		return false, nil
	}

	energy := RMS(frame)
	v.recordEnergyLocked(energy)

	if v.calibrating {
		v.calibrateLocked(energy)
		return false, nil
	}

	hasVoice := energy > v.threshold
	v.updateActivityLocked(hasVoice)
	return hasVoice, nil
}

func (v *EnergyVAD) recordEnergyLocked(energy float64) {
	v.recentEnergy = append(v.recentEnergy, energy)
	if len(v.recentEnergy) > maxRecentValues {
		v.recentEnergy = v.recentEnergy[1:]
	}
}

func (v *EnergyVAD) calibrateLocked(energy float64) {
	v.calibrationFrames = append(v.calibrationFrames, energy)
	if len(v.calibrationFrames) < calibrationFramesNeeded {
		return
	}

	sorted := append([]float64(nil), v.calibrationFrames...)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * 0.90)
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	v.ambientNoise = sorted[idx]

	minimum := math.Max(v.ambientNoise*2, minThreshold)
	calculated := v.ambientNoise * v.calibrationMultiplier
	v.threshold = math.Max(calculated, minimum)
	if v.threshold > maxThreshold {
		v.threshold = maxThreshold
		v.logger.Warn("high ambient noise, capping threshold")
	}
	v.baseThreshold = v.threshold

	v.logger.Info("calibration complete",
		zap.Float64("ambient_noise", v.ambientNoise),
		zap.Float64("threshold", v.threshold))

	v.calibrating = false
	v.calibrationFrames = nil
}

func (v *EnergyVAD) updateActivityLocked(hasVoice bool) {
	startFrames := voiceStartFrames
	endFrames := voiceEndFrames
	if v.ttsActive {
		startFrames = ttsVoiceStartFrames
		endFrames = ttsVoiceEndFrames
	}

	if hasVoice {
		v.voiceFrames++
		v.silentFrames = 0

		if !v.speaking && v.voiceFrames >= startFrames {
			if v.ttsActive {
				v.logger.Warn("voice detected during playback, likely feedback, ignoring")
				return
			}
			v.speaking = true
			v.logger.Info("speech started")
			v.fireLocked(true)
		}
		return
	}

	v.silentFrames++
	v.voiceFrames = 0

	if v.speaking && v.silentFrames >= endFrames {
		v.speaking = false
		v.logger.Info("speech ended")
		v.fireLocked(false)
	}
}

func (v *EnergyVAD) fireLocked(started bool) {
	if v.onActivity != nil {
		v.onActivity(started)
	}
}

// Pause suspends detection. A speech segment in progress ends.
func (v *EnergyVAD) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.paused {
		return
	}
	v.paused = true
	if v.speaking {
		v.speaking = false
		v.fireLocked(false)
	}
	v.recentEnergy = nil
	v.silentFrames = 0
	v.voiceFrames = 0
}

// Resume lifts a pause and clears segment state.
func (v *EnergyVAD) Resume() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.paused {
		return
	}
	v.paused = false
	v.speaking = false
	v.silentFrames = 0
	v.voiceFrames = 0
	v.recentEnergy = nil
}

// StartCalibration begins a new ambient noise measurement.
func (v *EnergyVAD) StartCalibration() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calibrating = true
	v.calibrationFrames = nil
}

// Calibrating reports whether a calibration pass is in progress.
func (v *EnergyVAD) Calibrating() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calibrating
}

// SetCalibrationMultiplier sets the ambient-to-threshold factor,
// clamped to [1.5, 4].
func (v *EnergyVAD) SetCalibrationMultiplier(m float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calibrationMultiplier = math.Max(1.5, math.Min(4.0, m))
}

// SetTTSMultiplier sets the threshold boost while TTS plays, clamped to
// [2, 5].
func (v *EnergyVAD) SetTTSMultiplier(m float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ttsMultiplier = math.Max(2.0, math.Min(5.0, m))
}

// SetTTSActive blocks detection while TTS plays. On activation the
// threshold is raised to reject feedback and a running segment ends; on
// deactivation the base threshold is restored.
func (v *EnergyVAD) SetTTSActive(active bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if active {
		v.ttsActive = true
		v.baseThreshold = v.threshold
		v.threshold = math.Min(v.threshold*v.ttsMultiplier, 0.1)
		if v.speaking {
			v.speaking = false
			v.fireLocked(false)
		}
		v.silentFrames = 0
		v.voiceFrames = 0
		return
	}

	v.ttsActive = false
	v.threshold = v.baseThreshold
	v.recentEnergy = nil
	v.silentFrames = 0
	v.voiceFrames = 0
	v.speaking = false
}

// SpeechActive reports whether a speech segment is in progress.
func (v *EnergyVAD) SpeechActive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.speaking
}

// Threshold returns the current energy threshold.
func (v *EnergyVAD) Threshold() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.threshold
}

// SetThreshold overrides the threshold and its calibration base.
func (v *EnergyVAD) SetThreshold(threshold float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.threshold = threshold
	v.baseThreshold = threshold
}

// SampleRate returns the configured sample rate.
func (v *EnergyVAD) SampleRate() int { return v.sampleRate }

// FrameSamples returns the analysis window size in samples.
func (v *EnergyVAD) FrameSamples() int { return v.frameSamples }

// Statistics returns a snapshot of recent energy readings.
func (v *EnergyVAD) Statistics() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := Stats{
		Threshold: v.threshold,
		Ambient:   v.ambientNoise,
	}
	if len(v.recentEnergy) > 0 {
		var sum float64
		for _, e := range v.recentEnergy {
			sum += e
			if e > s.RecentMax {
				s.RecentMax = e
			}
		}
		s.RecentAvg = sum / float64(len(v.recentEnergy))
		s.Current = v.recentEnergy[len(v.recentEnergy)-1]
	}
	return s
}

// RMS computes root mean square energy of a frame.
func RMS(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// EnergyProvider serves EnergyVAD detectors through the backend
// registry. It accepts any model path since the detector needs no model.
type EnergyProvider struct {
	Config EnergyConfig
	Logger *zap.Logger
}

// Framework identifies the provider as the built-in engine.
func (p *EnergyProvider) Framework() types.Framework { return types.FrameworkBuiltin }

// Capability returns the VAD capability.
func (p *EnergyProvider) Capability() types.Capability { return types.CapabilityVAD }

// CanHandle accepts any path.
func (p *EnergyProvider) CanHandle(string) bool { return true }

// NewVAD creates an initialized detector with calibration running.
func (p *EnergyProvider) NewVAD(_ context.Context, _ string) (backend.VADService, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := NewEnergyVAD(p.Config, logger)
	v.Initialize()
	return v, nil
}
