package provider

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Backend factory
// ---------------------------------------------------------------------------

// Settings is what a backend needs to build a Client.
type Settings struct {
	Endpoint string
	Model    string
	// Timeout bounds each generation request.
	Timeout time.Duration
}

// Factory builds a Client for one backend. Each backend package registers
// its own factory:
//
//	func init() {
//	    provider.Register("ollama", factory)
//	}
type Factory func(s Settings) (Client, error)

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

// Registry is a thread-safe store of backend factories, filled at init()
// time and resolved by name from the configuration.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty Registry. Useful for testing.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under name. It panics if the name is already
// registered.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("provider: factory already registered for %q", name))
	}
	r.factories[name] = f
}

// Get builds a Client for the named backend.
func (r *Registry) Get(name string, s Settings) (Client, error) {
	r.mu.RLock()
	f, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("provider: unknown backend %q (registered: %v)",
			name, r.Names())
	}
	return f(s)
}

// Names returns the sorted registered backend names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ---------------------------------------------------------------------------
// Package-level convenience functions (delegate to globalRegistry)
// ---------------------------------------------------------------------------

// Register adds a factory to the global registry.
func Register(name string, f Factory) {
	globalRegistry.Register(name, f)
}

// Get resolves a backend by name from the global registry.
func Get(name string, s Settings) (Client, error) {
	return globalRegistry.Get(name, s)
}

// Names returns all registered backend names from the global registry.
func Names() []string {
	return globalRegistry.Names()
}
