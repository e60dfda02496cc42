//go:build darwin

package coretext

import (
	"github.com/glyphkit/o4e"
	"github.com/glyphkit/o4e/errs"
	"github.com/glyphkit/o4e/fontcache"
	"github.com/glyphkit/o4e/segment"
)

// Name is this backend's registry identifier.
const Name = "coretext"

func init() {
	o4e.Register(Name, func() o4e.Backend { return &Backend{} })
}

// Backend is an unimplemented CoreText-backed facade. Shape, Render and
// EmitSVG return errs.BackendUnavailable, while Segment delegates to
// segment.Segment; o4e.Default() still prefers it by name
// on darwin, so a caller that explicitly requests "coretext" gets a precise
// error rather than silently falling back to the portable backend.
type Backend struct{}

func (b *Backend) Name() string { return Name }

func (b *Backend) Segment(text string, opts segment.Options) []segment.Run {
	return segment.Segment(text, opts)
}

func (b *Backend) Shape(segment.Run, o4e.Font) (o4e.ShapingResult, error) {
	return o4e.ShapingResult{}, unavailable("Shape")
}

func (b *Backend) Render(string, o4e.Font, o4e.RenderOptions) (o4e.RenderOutput, error) {
	return o4e.RenderOutput{}, unavailable("Render")
}

func (b *Backend) EmitSVG(string, o4e.Font, o4e.SvgOptions) (string, error) {
	return "", unavailable("EmitSVG")
}

func (b *Backend) ClearCache() {}

func (b *Backend) CacheStats() fontcache.CacheStats { return fontcache.CacheStats{} }

func unavailable(op string) error {
	return errs.New(errs.BackendUnavailable, "coretext."+op, nil)
}
