package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edgerun-ai/edgerun/types"
)

func newTestBus() *Bus {
	return NewBus(zap.NewNop(), nil)
}

func TestBus_RoutesByDestination(t *testing.T) {
	t.Parallel()

	bus := newTestBus()

	var analytics, public []types.EventType
	bus.SetAnalyticsSink(func(ev types.Event) { analytics = append(analytics, ev.Type) })
	bus.SetPublicSink(func(ev types.Event) { public = append(public, ev.Type) })

	bus.Emit(types.NewEvent(types.EventLoadCompleted, "llm", nil))       // all
	bus.Emit(types.NewEvent(types.EventGenerationUpdate, "llm", nil))    // public only
	bus.Emit(types.NewEvent(types.EventSpeechStarted, "vad", nil))       // analytics only
	bus.Emit(types.NewEvent(types.EventVoiceTurnCompleted, "voice", nil)) // all

	assert.Equal(t, []types.EventType{
		types.EventLoadCompleted, types.EventSpeechStarted, types.EventVoiceTurnCompleted,
	}, analytics)
	assert.Equal(t, []types.EventType{
		types.EventLoadCompleted, types.EventGenerationUpdate, types.EventVoiceTurnCompleted,
	}, public)
}

func TestBus_EmitWithoutSinksIsDropped(t *testing.T) {
	t.Parallel()

	bus := newTestBus()
	// must not panic or block
	bus.Emit(types.NewEvent(types.EventLoadStarted, "stt", nil))
}

func TestBus_LastRegistrationWins(t *testing.T) {
	t.Parallel()

	bus := newTestBus()

	var first, second int
	bus.SetPublicSink(func(types.Event) { first++ })
	bus.SetPublicSink(func(types.Event) { second++ })

	bus.Emit(types.NewEvent(types.EventUnloaded, "tts", nil))

	assert.Zero(t, first)
	assert.Equal(t, 1, second)
}

func TestBus_DeliveryIsSynchronous(t *testing.T) {
	t.Parallel()

	bus := newTestBus()

	delivered := false
	bus.SetPublicSink(func(types.Event) { delivered = true })
	bus.Emit(types.NewEvent(types.EventLoadStarted, "llm", nil))

	require.True(t, delivered, "sink must run before Emit returns")
}

func TestBus_SinkPanicIsContained(t *testing.T) {
	t.Parallel()

	bus := newTestBus()

	bus.SetAnalyticsSink(func(types.Event) { panic("boom") })
	var publicCount int
	bus.SetPublicSink(func(types.Event) { publicCount++ })

	bus.Emit(types.NewEvent(types.EventLoadFailed, "llm", nil))

	assert.Equal(t, 1, publicCount, "public sink still runs after analytics panic")
}

func TestBus_EmitError(t *testing.T) {
	t.Parallel()

	bus := newTestBus()

	var got []types.Event
	bus.SetAnalyticsSink(func(ev types.Event) { got = append(got, ev) })

	bus.EmitError("llm", types.NewError(types.ErrGenerationFailed, "backend crashed"))
	bus.EmitError("llm", types.NewError(types.ErrCancelled, "stopped"))
	bus.EmitError("llm", nil)
	bus.EmitError("llm", errors.Join()) // nil-equivalent

	require.Len(t, got, 1, "cancellations and nil errors are not error events")
	assert.Equal(t, types.EventError, got[0].Type)
	assert.Equal(t, "GENERATION_FAILED", got[0].Data["code"])
}
