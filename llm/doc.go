/*
Package llm implements the text generation modality: the component that
wraps a backend engine behind the shared lifecycle state machine, the
per-generation streaming metrics collector, runtime-wide generation
analytics, and structured (JSON) output extraction.

Generation is synchronous and serialized per component; Cancel is the
one call that may arrive from another goroutine while a generation is
in flight. Streaming generations emit a first-token event once and an
update event every ten tokens, with full metrics on completion.
*/
package llm
