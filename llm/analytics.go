package llm

import (
	"sync"
	"time"
)

type generationTracker struct {
	modelID       string
	start         time.Time
	firstToken    time.Time
	streaming     bool
	firstRecorded bool
}

// AnalyticsMetrics is an aggregate snapshot across all generations seen
// by one Analytics service.
type AnalyticsMetrics struct {
	TotalGenerations        int
	StreamingGenerations    int
	NonStreamingGenerations int
	AverageTTFT             time.Duration
	AverageTokensPerSecond  float64
	TotalInputTokens        int64
	TotalOutputTokens       int64
	StartTime               time.Time
	LastEventTime           time.Time
}

// Analytics aggregates generation statistics for the lifetime of a
// runtime: counts split by streaming mode, mean TTFT over streaming
// generations, and mean tokens per second over all generations.
type Analytics struct {
	mu sync.Mutex

	active map[string]*generationTracker

	totalGenerations     int
	streamingGenerations int
	totalTPS             float64
	totalTTFT            time.Duration
	ttftCount            int
	totalInputTokens     int64
	totalOutputTokens    int64
	startTime            time.Time
	lastEventTime        time.Time
}

// NewAnalytics creates an empty Analytics service.
func NewAnalytics() *Analytics {
	return &Analytics{
		active:    make(map[string]*generationTracker),
		startTime: time.Now(),
	}
}

// Start tracks the beginning of a non-streaming generation.
func (a *Analytics) Start(generationID, modelID string) {
	a.track(generationID, modelID, false)
}

// StartStreaming tracks the beginning of a streaming generation.
func (a *Analytics) StartStreaming(generationID, modelID string) {
	a.track(generationID, modelID, true)
}

func (a *Analytics) track(generationID, modelID string, streaming bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active[generationID] = &generationTracker{
		modelID:   modelID,
		start:     time.Now(),
		streaming: streaming,
	}
}

// TrackFirstToken records the first-token timestamp for a streaming
// generation. Repeat calls and calls for non-streaming generations are
// no-ops.
func (a *Analytics) TrackFirstToken(generationID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tracker, ok := a.active[generationID]
	if !ok || !tracker.streaming || tracker.firstRecorded {
		return
	}
	tracker.firstToken = time.Now()
	tracker.firstRecorded = true
}

// TrackUpdate notes streaming progress; it only refreshes the last
// event time.
func (a *Analytics) TrackUpdate(generationID string, tokensGenerated int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.active[generationID]; ok {
		a.lastEventTime = time.Now()
	}
	_ = tokensGenerated
}

// Complete finalizes a generation and folds it into the aggregates.
// Unknown generation ids are ignored.
func (a *Analytics) Complete(generationID string, inputTokens, outputTokens int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tracker, ok := a.active[generationID]
	if !ok {
		return
	}
	delete(a.active, generationID)

	end := time.Now()
	totalTime := end.Sub(tracker.start)
	var tps float64
	if totalTime > 0 {
		tps = float64(outputTokens) / totalTime.Seconds()
	}

	if tracker.streaming && tracker.firstRecorded {
		a.totalTTFT += tracker.firstToken.Sub(tracker.start)
		a.ttftCount++
	}

	a.totalGenerations++
	if tracker.streaming {
		a.streamingGenerations++
	}
	a.totalTPS += tps
	a.totalInputTokens += int64(inputTokens)
	a.totalOutputTokens += int64(outputTokens)
	a.lastEventTime = end
}

// Fail drops a generation from tracking without touching aggregates.
func (a *Analytics) Fail(generationID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.active, generationID)
	a.lastEventTime = time.Now()
}

// Metrics returns an aggregate snapshot.
func (a *Analytics) Metrics() AnalyticsMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	var avgTTFT time.Duration
	if a.ttftCount > 0 {
		avgTTFT = a.totalTTFT / time.Duration(a.ttftCount)
	}
	var avgTPS float64
	if a.totalGenerations > 0 {
		avgTPS = a.totalTPS / float64(a.totalGenerations)
	}

	return AnalyticsMetrics{
		TotalGenerations:        a.totalGenerations,
		StreamingGenerations:    a.streamingGenerations,
		NonStreamingGenerations: a.totalGenerations - a.streamingGenerations,
		AverageTTFT:             avgTTFT,
		AverageTokensPerSecond:  avgTPS,
		TotalInputTokens:        a.totalInputTokens,
		TotalOutputTokens:       a.totalOutputTokens,
		StartTime:               a.startTime,
		LastEventTime:           a.lastEventTime,
	}
}

// Reset clears all aggregates and active trackers.
func (a *Analytics) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.active = make(map[string]*generationTracker)
	a.totalGenerations = 0
	a.streamingGenerations = 0
	a.totalTPS = 0
	a.totalTTFT = 0
	a.ttftCount = 0
	a.totalInputTokens = 0
	a.totalOutputTokens = 0
	a.startTime = time.Now()
	a.lastEventTime = time.Time{}
}
