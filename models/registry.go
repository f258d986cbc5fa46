// Package models keeps the catalog of models known to the runtime.
// Entries map a stable model identifier to its on-disk path, framework,
// and capability, so callers can load by id instead of path.
package models

import (
	"sort"
	"sync"

	"github.com/edgerun-ai/edgerun/types"
)

// Registry is a thread-safe model catalog. Registering an id that
// already exists replaces the earlier entry.
type Registry struct {
	mu     sync.RWMutex
	models map[string]types.ModelInfo
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]types.ModelInfo)}
}

// Register adds or replaces a model entry. The id and path must be
// non-empty.
func (r *Registry) Register(info types.ModelInfo) error {
	if info.ID == "" {
		return types.NewError(types.ErrInvalidInput, "model id is empty")
	}
	if info.Path == "" {
		return types.NewError(types.ErrInvalidInput, "model path is empty")
	}
	if info.Name == "" {
		info.Name = info.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[info.ID] = info
	return nil
}

// Resolve returns the entry for a model id.
func (r *Registry) Resolve(id string) (types.ModelInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.models[id]
	if !ok {
		return types.ModelInfo{}, types.Errorf(types.ErrModelNotFound, "model %q not registered", id)
	}
	return info, nil
}

// Remove deletes a model entry. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.models, id)
}

// List returns all entries sorted by id, optionally filtered by
// capability. Pass "" to list everything.
func (r *Registry) List(capability types.Capability) []types.ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.ModelInfo, 0, len(r.models))
	for _, info := range r.models {
		if capability != "" && info.Capability != capability {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
