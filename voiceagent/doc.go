// Package voiceagent orchestrates the four modality components into a
// voice conversation turn: detect speech, transcribe, generate a reply,
// synthesize it. The agent either owns its components or borrows ones
// the caller already manages.
package voiceagent
