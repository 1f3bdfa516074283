package backend

import (
	"sort"
	"sync"

	"github.com/anthropics/dezzy/lir"
)

// Registry is a process-wide (instance-scoped) mapping from backend
// name to implementation. Writes are expected only at startup; reads
// (Get, Generate) are safe for concurrent use from multiple goroutines
// once registration is complete (spec §5).
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: map[string]Backend{}}
}

// Register adds backend under its own Name(), overwriting any
// previously registered backend of the same name (last write wins).
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
}

// Get returns the backend registered under name, or false if absent.
func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

// Names returns every registered backend name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate dispatches to the backend registered under name.
func (r *Registry) Generate(name string, format *lir.Format) (*GeneratedCode, error) {
	b, ok := r.Get(name)
	if !ok {
		return nil, &Error{Kind: NotFound, Name: name}
	}
	return b.Generate(format)
}
