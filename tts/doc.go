// Package tts implements the text to speech modality: voice lifecycle,
// synthesis with analytics events, and aggregate synthesis statistics.
package tts
