package stt

import (
	"sync"
	"time"
)

type transcriptionTracker struct {
	modelID     string
	start       time.Time
	audioLength time.Duration
	streaming   bool
}

// AnalyticsMetrics is an aggregate snapshot across all transcriptions.
type AnalyticsMetrics struct {
	TotalTranscriptions   int
	AverageConfidence     float64
	AverageLatency        time.Duration
	AverageRealTimeFactor float64
	TotalAudioProcessed   time.Duration
	StartTime             time.Time
	LastEventTime         time.Time
}

// Analytics aggregates transcription statistics. The real-time factor
// here is processing time divided by audio length, so values below one
// mean faster than real time.
type Analytics struct {
	mu sync.Mutex

	active map[string]*transcriptionTracker

	count           int
	totalConfidence float64
	totalLatency    time.Duration
	totalAudio      time.Duration
	totalRTF        float64
	startTime       time.Time
	lastEventTime   time.Time
}

// NewAnalytics creates an empty Analytics service.
func NewAnalytics() *Analytics {
	return &Analytics{
		active:    make(map[string]*transcriptionTracker),
		startTime: time.Now(),
	}
}

// Start tracks the beginning of a transcription.
func (a *Analytics) Start(transcriptionID, modelID string, audioLength time.Duration, streaming bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active[transcriptionID] = &transcriptionTracker{
		modelID:     modelID,
		start:       time.Now(),
		audioLength: audioLength,
		streaming:   streaming,
	}
}

// Complete finalizes a transcription and folds it into the aggregates.
// Unknown ids are ignored.
func (a *Analytics) Complete(transcriptionID string, confidence float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tracker, ok := a.active[transcriptionID]
	if !ok {
		return
	}
	delete(a.active, transcriptionID)

	end := time.Now()
	processing := end.Sub(tracker.start)

	var rtf float64
	if tracker.audioLength > 0 {
		rtf = processing.Seconds() / tracker.audioLength.Seconds()
	}

	a.count++
	a.totalConfidence += confidence
	a.totalLatency += processing
	a.totalAudio += tracker.audioLength
	a.totalRTF += rtf
	a.lastEventTime = end
}

// Fail drops a transcription from tracking without touching aggregates.
func (a *Analytics) Fail(transcriptionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.active, transcriptionID)
	a.lastEventTime = time.Now()
}

// Metrics returns an aggregate snapshot.
func (a *Analytics) Metrics() AnalyticsMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := AnalyticsMetrics{
		TotalTranscriptions: a.count,
		TotalAudioProcessed: a.totalAudio,
		StartTime:           a.startTime,
		LastEventTime:       a.lastEventTime,
	}
	if a.count > 0 {
		m.AverageConfidence = a.totalConfidence / float64(a.count)
		m.AverageLatency = a.totalLatency / time.Duration(a.count)
		m.AverageRealTimeFactor = a.totalRTF / float64(a.count)
	}
	return m
}

// Reset clears all aggregates and active trackers.
func (a *Analytics) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.active = make(map[string]*transcriptionTracker)
	a.count = 0
	a.totalConfidence = 0
	a.totalLatency = 0
	a.totalAudio = 0
	a.totalRTF = 0
	a.startTime = time.Now()
	a.lastEventTime = time.Time{}
}
