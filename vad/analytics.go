package vad

import (
	"sync"
	"time"
)

// AnalyticsMetrics is an aggregate snapshot across all speech segments.
type AnalyticsMetrics struct {
	TotalSpeechSegments   int
	TotalSpeechDuration   time.Duration
	AverageSpeechDuration time.Duration
	StartTime             time.Time
	LastEventTime         time.Time
}

// Analytics aggregates speech segment statistics. A segment runs from
// SpeechStart to the matching SpeechEnd; an end without a start is
// ignored.
type Analytics struct {
	mu sync.Mutex

	segmentStart  time.Time
	inSegment     bool
	count         int
	totalDuration time.Duration
	startTime     time.Time
	lastEventTime time.Time
}

// NewAnalytics creates an empty Analytics service.
func NewAnalytics() *Analytics {
	return &Analytics{startTime: time.Now()}
}

// SpeechStart marks the beginning of a speech segment. A start inside a
// running segment restarts it.
func (a *Analytics) SpeechStart() {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := time.Now()
	a.segmentStart = now
	a.inSegment = true
	a.lastEventTime = now
}

// SpeechEnd closes the running segment and folds its duration into the
// aggregates.
func (a *Analytics) SpeechEnd() {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	a.lastEventTime = now
	if !a.inSegment {
		return
	}
	a.inSegment = false
	a.count++
	a.totalDuration += now.Sub(a.segmentStart)
}

// SpeechActive reports whether a segment is being tracked.
func (a *Analytics) SpeechActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inSegment
}

// Metrics returns an aggregate snapshot.
func (a *Analytics) Metrics() AnalyticsMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := AnalyticsMetrics{
		TotalSpeechSegments: a.count,
		TotalSpeechDuration: a.totalDuration,
		StartTime:           a.startTime,
		LastEventTime:       a.lastEventTime,
	}
	if a.count > 0 {
		m.AverageSpeechDuration = a.totalDuration / time.Duration(a.count)
	}
	return m
}

// Reset clears all aggregates and any running segment.
func (a *Analytics) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.inSegment = false
	a.count = 0
	a.totalDuration = 0
	a.startTime = time.Now()
	a.lastEventTime = time.Time{}
}
