package tts

import (
	"sync"
	"time"
)

type synthesisTracker struct {
	modelID   string
	start     time.Time
	charCount int
}

// AnalyticsMetrics is an aggregate snapshot across all syntheses.
type AnalyticsMetrics struct {
	TotalSyntheses      int
	TotalCharacters     int64
	TotalAudioGenerated time.Duration
	AverageLatency      time.Duration
	AverageCharsPerSec  float64
	StartTime           time.Time
	LastEventTime       time.Time
}

// Analytics aggregates synthesis statistics.
type Analytics struct {
	mu sync.Mutex

	active map[string]*synthesisTracker

	count         int
	totalChars    int64
	totalAudio    time.Duration
	totalLatency  time.Duration
	totalCPS      float64
	startTime     time.Time
	lastEventTime time.Time
}

// NewAnalytics creates an empty Analytics service.
func NewAnalytics() *Analytics {
	return &Analytics{
		active:    make(map[string]*synthesisTracker),
		startTime: time.Now(),
	}
}

// Start tracks the beginning of a synthesis.
func (a *Analytics) Start(synthesisID, modelID string, charCount int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active[synthesisID] = &synthesisTracker{
		modelID:   modelID,
		start:     time.Now(),
		charCount: charCount,
	}
}

// Complete finalizes a synthesis and folds it into the aggregates.
// Unknown ids are ignored.
func (a *Analytics) Complete(synthesisID string, audioDuration time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tracker, ok := a.active[synthesisID]
	if !ok {
		return
	}
	delete(a.active, synthesisID)

	end := time.Now()
	processing := end.Sub(tracker.start)

	var cps float64
	if processing > 0 {
		cps = float64(tracker.charCount) / processing.Seconds()
	}

	a.count++
	a.totalChars += int64(tracker.charCount)
	a.totalAudio += audioDuration
	a.totalLatency += processing
	a.totalCPS += cps
	a.lastEventTime = end
}

// Fail drops a synthesis from tracking without touching aggregates.
func (a *Analytics) Fail(synthesisID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.active, synthesisID)
	a.lastEventTime = time.Now()
}

// Metrics returns an aggregate snapshot.
func (a *Analytics) Metrics() AnalyticsMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := AnalyticsMetrics{
		TotalSyntheses:      a.count,
		TotalCharacters:     a.totalChars,
		TotalAudioGenerated: a.totalAudio,
		StartTime:           a.startTime,
		LastEventTime:       a.lastEventTime,
	}
	if a.count > 0 {
		m.AverageLatency = a.totalLatency / time.Duration(a.count)
		m.AverageCharsPerSec = a.totalCPS / float64(a.count)
	}
	return m
}

// Reset clears all aggregates and active trackers.
func (a *Analytics) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.active = make(map[string]*synthesisTracker)
	a.count = 0
	a.totalChars = 0
	a.totalAudio = 0
	a.totalLatency = 0
	a.totalCPS = 0
	a.startTime = time.Now()
	a.lastEventTime = time.Time{}
}
