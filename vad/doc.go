// Package vad implements voice activity detection: an energy-threshold
// detector with ambient noise calibration as the built-in backend, and a
// component that routes speech segment transitions to the event bus.
package vad
