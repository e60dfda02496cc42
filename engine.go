package o4e

import (
	"sync"

	"github.com/glyphkit/o4e/batch"
	"github.com/glyphkit/o4e/errs"
	"github.com/glyphkit/o4e/fontcache"
	"github.com/glyphkit/o4e/segment"
)

// Engine is the public entry point: a bound Backend plus the convenience
// methods that mirror the facade contract (render, shape, render_batch,
// clear_cache, cache_stats). Construct one with New or NewWithBackend.
type Engine struct {
	backend  Backend
	poolOnce sync.Once
	pool     *batch.Pool
}

// EngineOption configures New.
type EngineOption func(*engineConfig)

type engineConfig struct {
	backendName string
}

// WithBackendName selects a specific registered backend by name instead of
// the host-default one.
func WithBackendName(name string) EngineOption {
	return func(c *engineConfig) { c.backendName = name }
}

// New constructs an Engine using the default backend for the host, or the
// backend named via WithBackendName. Returns errs.BackendUnavailable if no
// matching backend is registered.
func New(opts ...EngineOption) (*Engine, error) {
	var cfg engineConfig
	for _, o := range opts {
		o(&cfg)
	}

	var b Backend
	if cfg.backendName != "" {
		b = Get(cfg.backendName)
		if b == nil {
			return nil, errs.New(errs.BackendUnavailable, "o4e.New["+cfg.backendName+"]", nil)
		}
	} else {
		var err error
		b, err = InitDefault()
		if err != nil {
			return nil, err
		}
	}
	return &Engine{backend: b}, nil
}

// NewWithBackend wraps an already-constructed Backend. Useful for tests and
// for callers that built a backend outside the registry.
func NewWithBackend(b Backend) *Engine {
	return &Engine{backend: b}
}

// Name returns the bound backend's identifier.
func (e *Engine) Name() string { return e.backend.Name() }

// Segment splits text into runs using the bound backend.
func (e *Engine) Segment(text string, opts segment.Options) []segment.Run {
	return e.backend.Segment(text, opts)
}

// Shape produces one ShapingResult per run, resolving each run's font via
// the backend's fallback chain when font has no bound family/path/bytes for
// that run's script.
func (e *Engine) Shape(text string, font Font) ([]ShapingResult, error) {
	runs := e.backend.Segment(text, segment.Options{})
	results := make([]ShapingResult, 0, len(runs))
	for _, run := range runs {
		r, err := e.backend.Shape(run, font)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Render shapes and rasterizes text in one call.
func (e *Engine) Render(text string, font Font, opts RenderOptions) (RenderOutput, error) {
	return e.backend.Render(text, font, opts)
}

// EmitSVG shapes text and serializes it as an SVG document.
func (e *Engine) EmitSVG(text string, font Font, opts SvgOptions) (string, error) {
	return e.backend.EmitSVG(text, font, opts)
}

// ClearCache drains every cache layer the bound backend owns.
func (e *Engine) ClearCache() { e.backend.ClearCache() }

// CacheStats reports the bound backend's cache counters.
func (e *Engine) CacheStats() fontcache.CacheStats { return e.backend.CacheStats() }
