// Package lifecycle manages the load/unload state machine shared by all
// modality components. A Manager owns at most one backend service at a
// time, tracks cumulative load metrics, and emits lifecycle events on
// every transition.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edgerun-ai/edgerun/events"
	"github.com/edgerun-ai/edgerun/internal/metrics"
	"github.com/edgerun-ai/edgerun/types"
)

// CreateFunc loads the backend service for a model path.
type CreateFunc[S any] func(ctx context.Context, modelPath string) (S, error)

// DestroyFunc releases a backend service. May be nil when the service
// needs no explicit teardown.
type DestroyFunc[S any] func(service S)

// Metrics is a snapshot of cumulative lifecycle activity.
type Metrics struct {
	TotalEvents     int
	TotalLoads      int
	SuccessfulLoads int
	FailedLoads     int
	TotalUnloads    int
	AverageLoadTime time.Duration
	StartTime       time.Time
	LastEventTime   time.Time
}

// Manager drives the Idle -> Loading -> Loaded/Failed state machine for
// one resource. All methods are safe for concurrent use; Load and Unload
// serialize against each other, so an Unload issued during a Load waits
// for it to finish.
type Manager[S any] struct {
	capability types.Capability
	framework  types.Framework

	create  CreateFunc[S]
	destroy DestroyFunc[S]

	bus       *events.Bus
	logger    *zap.Logger
	collector *metrics.Collector

	mu        sync.Mutex
	state     types.ComponentState
	modelPath string
	modelID   string
	modelName string
	service   S
	hasSvc    bool

	loadCount     int
	failedLoads   int
	totalUnloads  int
	totalLoadTime time.Duration
	startTime     time.Time
	lastEventTime time.Time
}

// NewManager creates an idle manager. bus and collector may be nil.
func NewManager[S any](capability types.Capability, framework types.Framework,
	bus *events.Bus, logger *zap.Logger, collector *metrics.Collector,
	create CreateFunc[S], destroy DestroyFunc[S]) *Manager[S] {
	return &Manager[S]{
		capability: capability,
		framework:  framework,
		create:     create,
		destroy:    destroy,
		bus:        bus,
		logger:     logger.With(zap.String("component", "lifecycle"), zap.String("capability", string(capability))),
		collector:  collector,
		state:      types.StateIdle,
		startTime:  time.Now(),
	}
}

// Load loads the model at modelPath. When the same path is already
// loaded the call is idempotent: the existing service is returned and no
// events are emitted. modelID defaults to modelPath and modelName to
// modelID when empty.
func (m *Manager[S]) Load(ctx context.Context, modelPath, modelID, modelName string) (S, error) {
	var zero S
	if modelPath == "" {
		return zero, types.NewError(types.ErrInvalidInput, "model path is empty").
			WithComponent(string(m.capability))
	}
	if modelID == "" {
		modelID = modelPath
	}
	if modelName == "" {
		modelName = modelID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == types.StateLoaded && m.modelPath == modelPath && m.hasSvc {
		m.logger.Info("model already loaded, skipping duplicate load",
			zap.String("model_id", m.modelID))
		return m.service, nil
	}

	start := time.Now()
	m.state = types.StateLoading
	m.emitLocked(types.EventLoadStarted, modelID, 0, nil)

	m.logger.Info("loading model",
		zap.String("model_id", modelID),
		zap.String("model_path", modelPath))

	service, err := m.create(ctx, modelPath)
	loadTime := time.Since(start)

	if err != nil {
		m.state = types.StateFailed
		m.failedLoads++
		m.emitLocked(types.EventLoadFailed, modelID, loadTime, err)
		if m.collector != nil {
			m.collector.RecordModelLoad(string(m.capability), string(m.framework), "failure", loadTime)
		}
		m.logger.Error("failed to load model",
			zap.String("model_id", modelID),
			zap.Error(err))
		return zero, types.NewError(types.ErrLoadFailed, "model load failed").
			WithComponent(string(m.capability)).
			WithCause(err)
	}

	m.modelPath = modelPath
	m.modelID = modelID
	m.modelName = modelName
	m.service = service
	m.hasSvc = true
	m.state = types.StateLoaded

	m.emitLocked(types.EventLoadCompleted, modelID, loadTime, nil)
	m.loadCount++
	m.totalLoadTime += loadTime
	if m.collector != nil {
		m.collector.RecordModelLoad(string(m.capability), string(m.framework), "success", loadTime)
	}

	m.logger.Info("loaded model",
		zap.String("model_id", modelID),
		zap.Duration("load_time", loadTime))

	return service, nil
}

// Unload releases the current service and returns the manager to Idle.
// Unloading an idle manager is a no-op.
func (m *Manager[S]) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.modelID != "" {
		m.logger.Info("unloading model", zap.String("model_id", m.modelID))
		if m.destroy != nil && m.hasSvc {
			m.destroy(m.service)
		}
		m.emitLocked(types.EventUnloaded, m.modelID, 0, nil)
		m.totalUnloads++
		if m.collector != nil {
			m.collector.RecordModelUnload(string(m.capability), string(m.framework))
		}
	}
	m.resetLocked()
}

// Reset is Unload for error recovery: it tears down whatever is present,
// including a Failed state, and returns to Idle.
func (m *Manager[S]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.modelID != "" {
		m.emitLocked(types.EventUnloaded, m.modelID, 0, nil)
		if m.destroy != nil && m.hasSvc {
			m.destroy(m.service)
		}
	}
	m.resetLocked()
}

func (m *Manager[S]) resetLocked() {
	var zero S
	m.modelPath = ""
	m.modelID = ""
	m.modelName = ""
	m.service = zero
	m.hasSvc = false
	m.state = types.StateIdle
}

// State returns the current lifecycle state.
func (m *Manager[S]) State() types.ComponentState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsLoaded reports whether a service is currently loaded.
func (m *Manager[S]) IsLoaded() bool {
	return m.State() == types.StateLoaded
}

// ModelID returns the identifier of the loaded model, or "".
func (m *Manager[S]) ModelID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelID
}

// ModelName returns the display name of the loaded model, or "".
func (m *Manager[S]) ModelName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelName
}

// RequireService returns the loaded service or a NOT_INITIALIZED error.
// This is the only sanctioned way for components to reach their backend:
// a handle held across an Unload is invalidated here, not at use time.
func (m *Manager[S]) RequireService() (S, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero S
	if m.state != types.StateLoaded || !m.hasSvc {
		return zero, types.NewError(types.ErrNotInitialized, "service not loaded, call Load first").
			WithComponent(string(m.capability))
	}
	return m.service, nil
}

// TrackError publishes an operation failure as an error event.
// Cancellations are skipped.
func (m *Manager[S]) TrackError(operation string, err error) {
	if err == nil || types.IsCancelled(err) || m.bus == nil {
		return
	}
	m.bus.Emit(types.NewEvent(types.EventError, string(m.capability), map[string]any{
		"operation": operation,
		"code":      string(types.GetErrorCode(err)),
		"message":   err.Error(),
	}))
	m.mu.Lock()
	m.lastEventTime = time.Now()
	m.mu.Unlock()
}

// Metrics returns a snapshot of cumulative lifecycle metrics.
func (m *Manager[S]) Metrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avg time.Duration
	if m.loadCount > 0 {
		avg = m.totalLoadTime / time.Duration(m.loadCount)
	}
	return Metrics{
		TotalEvents:     m.loadCount + m.totalUnloads + m.failedLoads,
		TotalLoads:      m.loadCount + m.failedLoads,
		SuccessfulLoads: m.loadCount,
		FailedLoads:     m.failedLoads,
		TotalUnloads:    m.totalUnloads,
		AverageLoadTime: avg,
		StartTime:       m.startTime,
		LastEventTime:   m.lastEventTime,
	}
}

// emitLocked publishes a lifecycle event. Callers hold m.mu; the bus has
// its own lock and never calls back into the manager.
func (m *Manager[S]) emitLocked(t types.EventType, modelID string, duration time.Duration, err error) {
	m.lastEventTime = time.Now()
	if m.bus == nil {
		return
	}
	data := map[string]any{"model_id": modelID}
	if duration > 0 {
		data["duration_ms"] = duration.Milliseconds()
	}
	if err != nil {
		data["error"] = err.Error()
		data["code"] = string(types.GetErrorCode(err))
	}
	m.bus.Emit(types.NewEvent(t, string(m.capability), data))
}
