// Package backend defines the contracts between modality components and
// inference engines, plus the registry that resolves a provider for a
// (capability, framework) pair.
//
// Engines register a Provider per capability with a priority. Components
// never import engine packages; they resolve a provider at load time and
// talk to the returned service interface.
package backend
