// Package testutil provides shared helpers for tests: bounded contexts,
// event capture, and small waiting utilities. Engine mocks live in the
// mocks subpackage.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/edgerun-ai/edgerun/types"
)

// TestContext returns a context that expires with a generous test
// timeout and is cancelled on cleanup.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext returns an already-cancelled context.
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// EventRecorder captures events from a bus sink for assertions.
type EventRecorder struct {
	mu     sync.Mutex
	events []types.Event
}

// NewEventRecorder creates an empty recorder.
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// Sink is the function to attach to a bus.
func (r *EventRecorder) Sink(ev types.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything captured so far.
func (r *EventRecorder) Events() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the captured event types in order.
func (r *EventRecorder) Types() []types.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// CountOf returns how many captured events have the given type.
func (r *EventRecorder) CountOf(t types.EventType) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// FirstOf returns the first captured event of the given type.
func (r *EventRecorder) FirstOf(t types.EventType) (types.Event, bool) {
	for _, ev := range r.Events() {
		if ev.Type == t {
			return ev, true
		}
	}
	return types.Event{}, false
}

// AssertEventuallyTrue polls cond until it holds or the deadline hits.
func AssertEventuallyTrue(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
