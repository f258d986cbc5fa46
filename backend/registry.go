package backend

import (
	"sort"
	"sync"

	"github.com/edgerun-ai/edgerun/types"
)

type entry struct {
	provider Provider
	priority int
	seq      int
}

// Registry is a thread-safe provider registry. Providers register per
// capability with a priority; resolution walks providers from highest to
// lowest priority and returns the first that can handle the model path.
// Registering the same (capability, framework) pair again replaces the
// earlier registration.
type Registry struct {
	mu      sync.RWMutex
	entries map[types.Capability][]entry
	seq     int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[types.Capability][]entry)}
}

// Register adds a provider with the given priority. Higher priority wins;
// ties resolve in registration order.
func (r *Registry) Register(p Provider, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	capability := p.Capability()
	list := r.entries[capability]
	for i, e := range list {
		if e.provider.Framework() == p.Framework() {
			list[i].provider = p
			list[i].priority = priority
			r.sortLocked(capability, list)
			return
		}
	}
	r.seq++
	list = append(list, entry{provider: p, priority: priority, seq: r.seq})
	r.sortLocked(capability, list)
}

func (r *Registry) sortLocked(capability types.Capability, list []entry) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority > list[j].priority
		}
		return list[i].seq < list[j].seq
	})
	r.entries[capability] = list
}

// Unregister removes the provider for a (capability, framework) pair.
func (r *Registry) Unregister(capability types.Capability, framework types.Framework) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.entries[capability]
	for i, e := range list {
		if e.provider.Framework() == framework {
			r.entries[capability] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Resolve returns the best provider for a capability and model path.
// When framework is types.FrameworkAny the priority order decides;
// otherwise only the named framework is considered. The provider must
// still accept the model path.
func (r *Registry) Resolve(capability types.Capability, framework types.Framework, modelPath string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries[capability] {
		if framework != types.FrameworkAny && e.provider.Framework() != framework {
			continue
		}
		if e.provider.CanHandle(modelPath) {
			return e.provider, nil
		}
	}
	return nil, types.Errorf(types.ErrIncompatible,
		"no %s provider accepts model %q", capability, modelPath)
}

// ResolveLLM resolves and type-checks an LLM provider.
func (r *Registry) ResolveLLM(framework types.Framework, modelPath string) (LLMProvider, error) {
	p, err := r.Resolve(types.CapabilityLLM, framework, modelPath)
	if err != nil {
		return nil, err
	}
	lp, ok := p.(LLMProvider)
	if !ok {
		return nil, types.Errorf(types.ErrIncompatible,
			"provider %s does not implement LLM creation", p.Framework())
	}
	return lp, nil
}

// ResolveSTT resolves and type-checks an STT provider.
func (r *Registry) ResolveSTT(framework types.Framework, modelPath string) (STTProvider, error) {
	p, err := r.Resolve(types.CapabilitySTT, framework, modelPath)
	if err != nil {
		return nil, err
	}
	sp, ok := p.(STTProvider)
	if !ok {
		return nil, types.Errorf(types.ErrIncompatible,
			"provider %s does not implement STT creation", p.Framework())
	}
	return sp, nil
}

// ResolveTTS resolves and type-checks a TTS provider.
func (r *Registry) ResolveTTS(framework types.Framework, modelPath string) (TTSProvider, error) {
	p, err := r.Resolve(types.CapabilityTTS, framework, modelPath)
	if err != nil {
		return nil, err
	}
	tp, ok := p.(TTSProvider)
	if !ok {
		return nil, types.Errorf(types.ErrIncompatible,
			"provider %s does not implement TTS creation", p.Framework())
	}
	return tp, nil
}

// ResolveVAD resolves and type-checks a VAD provider.
func (r *Registry) ResolveVAD(framework types.Framework, modelPath string) (VADProvider, error) {
	p, err := r.Resolve(types.CapabilityVAD, framework, modelPath)
	if err != nil {
		return nil, err
	}
	vp, ok := p.(VADProvider)
	if !ok {
		return nil, types.Errorf(types.ErrIncompatible,
			"provider %s does not implement VAD creation", p.Framework())
	}
	return vp, nil
}

// List returns the frameworks registered for a capability in resolution
// order.
func (r *Registry) List(capability types.Capability) []types.Framework {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Framework, 0, len(r.entries[capability]))
	for _, e := range r.entries[capability] {
		out = append(out, e.provider.Framework())
	}
	return out
}

// Len returns the number of providers registered for a capability.
func (r *Registry) Len(capability types.Capability) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries[capability])
}
