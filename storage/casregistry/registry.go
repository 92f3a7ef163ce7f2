// Package casregistry is the build-time plugin surface for artifact store
// backends.
//
// A backend package registers itself in init() and the node binary links it
// with a blank import. Backends are opened from configuration: each receives
// the option map of its [[storage.backend]] table and decides which keys it
// understands.
package casregistry

import (
	"fmt"
	"sort"
	"sync"

	"lumen.art/node/storage"
)

// Backend opens one kind of artifact store.
type Backend struct {
	// Kind is the configuration name, e.g. "localfs" or "grpc".
	Kind string

	// Description is a one-line summary shown in CLI help output.
	Description string

	// Open constructs the store from backend-specific options.
	// It returns an optional close function.
	Open func(opts map[string]string) (storage.CAS, func() error, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register registers a backend kind. Registering the same kind twice is an
// error; backends are expected to register exactly once from init().
func Register(b Backend) error {
	if b.Kind == "" {
		return fmt.Errorf("casregistry: backend kind is required")
	}
	if b.Open == nil {
		return fmt.Errorf("casregistry: backend %q missing Open", b.Kind)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Kind]; exists {
		return fmt.Errorf("casregistry: backend %q already registered", b.Kind)
	}
	backends[b.Kind] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// Open opens a registered backend kind with the given options.
func Open(kind string, opts map[string]string) (storage.CAS, func() error, error) {
	mu.RLock()
	b, ok := backends[kind]
	mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q (known: %v)", storage.ErrUnknownBackend, kind, Kinds())
	}
	return b.Open(opts)
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(backends))
	for k := range backends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// List returns the registered backends sorted by kind.
func List() []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
