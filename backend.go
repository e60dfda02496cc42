package o4e

import (
	"sync"

	"github.com/glyphkit/o4e/errs"
	"github.com/glyphkit/o4e/fontcache"
	"github.com/glyphkit/o4e/segment"
)

// Backend is the C9 facade contract. Every backend, portable or
// platform-native, implements the same five operations; callers depend on
// this interface rather than on a concrete implementation so the default can
// change per host OS without touching call sites.
type Backend interface {
	// Name returns the backend identifier (e.g. "portable", "coretext").
	Name() string

	// Segment splits text into runs ready for per-run font resolution and
	// shaping.
	Segment(text string, opts segment.Options) []segment.Run

	// Shape resolves run's font (via the fallback chain, if run has none
	// bound) and shapes it against the backend's face cache.
	Shape(run segment.Run, font Font) (ShapingResult, error)

	// Render shapes text end to end and produces a RenderOutput per opts.
	Render(text string, font Font, opts RenderOptions) (RenderOutput, error)

	// EmitSVG shapes text and serializes its glyph outlines to an SVG
	// document, per the C8 contract.
	EmitSVG(text string, font Font, opts SvgOptions) (string, error)

	// ClearCache drains every cache layer the backend owns. Subsequent
	// CacheStats report empty until the next Shape or Render call.
	ClearCache()

	// CacheStats reports cache hit/miss/eviction counters, or a zero value
	// for backends that do not cache.
	CacheStats() fontcache.CacheStats
}

// BackendFactory creates a new Backend instance.
type BackendFactory func() Backend

var (
	registryMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
	// backendPriority orders Default()'s search: platform-native backends
	// before the always-available portable one, mirroring
	// gogpu-gg/backend/registry.go's static backendPriority list. Unlike
	// that list this one is fixed at compile time rather than built from
	// each backend's init(), so Default()'s behavior never depends on
	// package initialization order.
	backendPriority = []string{"coretext", "directwrite", "portable"}
)

// Register registers a backend factory under name, typically from an init()
// function in the backend's own package. A later Register call with the
// same name replaces the earlier factory.
func Register(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry. Mainly useful in tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// SetPriority replaces the name order Default() consults before falling back
// to "any registered backend". Backend init() functions do not call it; the
// static backendPriority list applies unless a caller (such as a registry
// test) replaces it here.
func SetPriority(names ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backendPriority = append([]string(nil), names...)
}

// Available returns the names of every registered backend.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// IsRegistered reports whether a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get constructs and returns the named backend, or nil if unregistered.
func Get(name string) Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available backend: the first name in the
// platform priority list that is registered, falling back to any
// registered backend, or nil if none are registered at all.
func Default() Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			if b := factory(); b != nil {
				return b
			}
		}
	}
	for _, factory := range backends {
		if b := factory(); b != nil {
			return b
		}
	}
	return nil
}

// MustDefault returns Default() or panics if no backend is registered.
func MustDefault() Backend {
	b := Default()
	if b == nil {
		panic("o4e: no backend registered")
	}
	return b
}

// InitDefault resolves the default backend, returning errs.BackendUnavailable
// if none are registered.
func InitDefault() (Backend, error) {
	b := Default()
	if b == nil {
		return nil, errs.New(errs.BackendUnavailable, "o4e.InitDefault", nil)
	}
	return b, nil
}
