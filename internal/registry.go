package internal

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps queue names to handles.
// It is written during setup and read concurrently afterwards.
type Registry struct {
	handles map[string]Handle
	names   []string
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]Handle)}
}

// Register adds a handle under a unique name.
// Registering a name twice is a configuration error; the first handle stays.
func (r *Registry) Register(name string, h Handle) error {
	if name == "" || h == nil {
		return fmt.Errorf("%w: queue name and handle are required", ErrConfiguration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateQueue, name)
	}
	r.handles[name] = h
	r.names = append(r.names, name)
	return nil
}

// Has reports whether a handle is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handles[name]
	return ok
}

// Resolve returns the handle a request targets.
// An empty name resolves to the only registered queue; with zero or several
// queues it fails with ErrAmbiguousQueue.
func (r *Registry) Resolve(name string) (Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name != "" {
		h, ok := r.handles[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, name)
		}
		return h, nil
	}

	if len(r.names) != 1 {
		return nil, ErrAmbiguousQueue
	}
	return r.handles[r.names[0]], nil
}

// Names returns queue names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.names)
}

// Handles returns the handles in registration order.
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Handle, len(r.names))
	for i, name := range r.names {
		out[i] = r.handles[name]
	}
	return out
}
