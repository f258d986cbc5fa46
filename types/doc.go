// Package types defines the shared vocabulary of the runtime: capability
// and framework identifiers, component lifecycle states, the structured
// error type, and the event model routed through the event bus.
//
// Every other package depends on types; types depends on nothing but the
// standard library.
package types
