/*
Package metrics provides Prometheus metric collection for the runtime,
covering model lifecycle, inference, event routing, and voice turns.

The Collector registers all metric vectors through promauto under one
namespace. Callers record through typed methods; there is no direct
access to the underlying vectors outside this package and its tests.

  - Model lifecycle: load attempts by capability/framework/status, load
    duration on success, unload counts.
  - Inference: request counts and durations per capability, token usage
    split into prompt/completion, audio bytes in (STT, VAD) and out (TTS).
  - Event bus: deliveries by event type and destination.
  - Voice turns: end-to-end counts and durations by status, plus
    per-stage durations (transcribe, generate, synthesize).
*/
package metrics
