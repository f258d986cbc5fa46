// Package events implements the runtime's event bus. Two sinks exist:
// the analytics sink (internal telemetry consumers) and the public sink
// (host application callbacks). Each event type carries a fixed
// destination; high-frequency streaming updates go public-only while
// internal VAD signals stay analytics-only.
//
// Delivery is synchronous. Emit invokes sinks on the caller's goroutine
// while holding the bus mutex, so sinks must be fast and must not call
// back into the bus.
package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/edgerun-ai/edgerun/internal/metrics"
	"github.com/edgerun-ai/edgerun/types"
)

// Sink receives routed events. The event and its Data map must be
// treated as read-only.
type Sink func(types.Event)

// Bus routes events to its analytics and public sinks according to the
// per-type destination mapping. A nil sink drops its share silently.
type Bus struct {
	mu        sync.Mutex
	analytics Sink
	public    Sink

	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewBus creates a bus with no sinks attached. metrics may be nil.
func NewBus(logger *zap.Logger, collector *metrics.Collector) *Bus {
	return &Bus{
		logger:  logger.With(zap.String("component", "events")),
		metrics: collector,
	}
}

// SetAnalyticsSink replaces the analytics sink. The last registration
// wins; nil detaches.
func (b *Bus) SetAnalyticsSink(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.analytics = s
}

// SetPublicSink replaces the public sink. The last registration wins;
// nil detaches.
func (b *Bus) SetPublicSink(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.public = s
}

// Emit routes one event. Events emitted before any sink is attached are
// dropped without error.
func (b *Bus) Emit(ev types.Event) {
	dest := types.DestinationFor(ev.Type)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.RecordEvent(string(ev.Type), dest.String())
	}

	switch dest {
	case types.DestinationPublicOnly:
		b.deliver(b.public, ev)
	case types.DestinationAnalyticsOnly:
		b.deliver(b.analytics, ev)
	default:
		b.deliver(b.analytics, ev)
		b.deliver(b.public, ev)
	}
}

// EmitError emits a runtime error as an event, skipping cancellations.
func (b *Bus) EmitError(component string, err error) {
	if err == nil || types.IsCancelled(err) {
		return
	}
	b.Emit(types.NewEvent(types.EventError, component, map[string]any{
		"code":    string(types.GetErrorCode(err)),
		"message": err.Error(),
	}))
}

func (b *Bus) deliver(s Sink, ev types.Event) {
	if s == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event sink panicked",
				zap.String("event_type", string(ev.Type)),
				zap.Any("panic", r),
			)
		}
	}()
	s(ev)
}
