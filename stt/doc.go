// Package stt implements the speech to text modality: model lifecycle,
// batch transcription with analytics events, and aggregate transcription
// statistics.
package stt
