// Package fontcache owns memory-mapped font bytes, parsed face handles, the
// shaped-result cache, and the rasterized glyph-mask cache behind one
// bounded, concurrent API, grounded on the sharded LRU cache
// (github.com/gogpu/gg/cache) and the doubly-linked LRU list primitive
// (github.com/gogpu/gg/internal/cache) of the teacher repository.
package fontcache

import (
	"fmt"

	"github.com/glyphkit/o4e/errs"
)

const (
	// DefaultFaceCapacity is the default per-shard face-layer capacity; with
	// 16 shards this bounds the face layer to roughly 512 entries overall,
	// matching the engine's documented default.
	DefaultFaceCapacity = 32
	// DefaultShapeCapacity bounds the shape-result layer per shard.
	DefaultShapeCapacity = 64
	// DefaultGlyphCapacity bounds the glyph-mask layer per shard.
	DefaultGlyphCapacity = 256
)

// ShapeFunc computes a ShapingResult for a cache miss. V is left generic so
// the shape package's concrete result type can be cached without fontcache
// importing it.
type ShapeFunc[V any] func() (V, error)

// Cache is the C3 font cache: three independently sized, independently
// evicted layers sharing nothing but the eviction discipline.
type Cache struct {
	faces  *shardedCache[FaceKey, *Face]
	shapes *shardedCache[ShapeKey, any]
	masks  *shardedCache[GlyphMaskKey, any]
}

// Option configures a Cache at construction.
type Option func(*config)

type config struct {
	faceCap, shapeCap, glyphCap int
}

func WithFaceCapacity(n int) Option  { return func(c *config) { c.faceCap = n } }
func WithShapeCapacity(n int) Option { return func(c *config) { c.shapeCap = n } }
func WithGlyphCapacity(n int) Option { return func(c *config) { c.glyphCap = n } }

// New constructs a Cache with the given options, or the documented defaults.
func New(opts ...Option) *Cache {
	cfg := config{faceCap: DefaultFaceCapacity, shapeCap: DefaultShapeCapacity, glyphCap: DefaultGlyphCapacity}
	for _, o := range opts {
		o(&cfg)
	}
	c := &Cache{
		faces:  newShardedCache[FaceKey, *Face](cfg.faceCap, faceHash),
		shapes: newShardedCache[ShapeKey, any](cfg.shapeCap, shapeHash),
		masks:  newShardedCache[GlyphMaskKey, any](cfg.glyphCap, maskHash),
	}
	c.faces.onEvict = func(_ FaceKey, f *Face) {
		if f != nil {
			f.release()
		}
	}
	return c
}

func faceHash(k FaceKey) uint64 {
	return StringHasher(fmt.Sprintf("%s|%d|%d|%s", k.SourceID, k.Weight, k.Style, k.Axes))
}

func shapeHash(k ShapeKey) uint64 {
	return StringHasher(fmt.Sprintf("%s|%s|%d|%s|%s|%s", k.Text, faceKeyString(k.Face), k.Direction, k.Script, k.Language, k.Features))
}

func maskHash(k GlyphMaskKey) uint64 {
	return StringHasher(fmt.Sprintf("%s|%d|%d|%d", faceKeyString(k.Face), k.GlyphID, k.SizeQuantum, k.AAMode))
}

func faceKeyString(k FaceKey) string {
	return fmt.Sprintf("%s|%d|%d|%s", k.SourceID, k.Weight, k.Style, k.Axes)
}

// GetFace returns the shared Face for key, loading it via load exactly once
// per key under contention. load is expected to return raw font bytes,
// either mmapped from a path or passed through from caller-owned bytes.
func (c *Cache) GetFace(key FaceKey, load func() (data []byte, closeMmap func() error, err error)) (*Face, error) {
	return c.faces.GetOrCreate(key, func() (*Face, error) {
		data, closeMmap, err := load()
		if err != nil {
			return nil, err
		}
		return newFace(key, data, closeMmap), nil
	})
}

// GetFaceFile is a convenience over GetFace for filesystem-backed faces: it
// mmaps path (falling back to a full read if mmap is unavailable or fails).
func (c *Cache) GetFaceFile(key FaceKey, path string) (*Face, error) {
	return c.GetFace(key, func() ([]byte, func() error, error) {
		return mmapFile(path)
	})
}

// GetFaceBytes is a convenience over GetFace for caller-owned raw bytes.
func (c *Cache) GetFaceBytes(key FaceKey, data []byte) (*Face, error) {
	return c.GetFace(key, func() ([]byte, func() error, error) {
		if len(data) == 0 {
			return nil, nil, errs.New(errs.UnsupportedFontFormat, "fontcache.GetFaceBytes", nil)
		}
		return data, func() error { return nil }, nil
	})
}

// GetOrShape returns the cached value for key, computing it via compute
// exactly once per key under contention. V must match across calls sharing
// a Cache; a type assertion mismatch indicates a programming error and
// panics. No caller recovers that panic.
func GetOrShape[V any](c *Cache, key ShapeKey, compute func() (V, error)) (V, error) {
	v, err := c.shapes.GetOrCreate(key, func() (any, error) {
		return compute()
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// GetOrRaster returns the cached value for key, computing it via compute
// exactly once per key under contention.
func GetOrRaster[V any](c *Cache, key GlyphMaskKey, compute func() (V, error)) (V, error) {
	v, err := c.masks.GetOrCreate(key, func() (any, error) {
		return compute()
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Clear empties every layer.
func (c *Cache) Clear() {
	c.faces.Clear()
	c.shapes.Clear()
	c.masks.Clear()
}

// IsEmpty reports whether every layer is currently empty.
func (c *Cache) IsEmpty() bool {
	return c.faces.Len() == 0 && c.shapes.Len() == 0 && c.masks.Len() == 0
}

// CacheStats summarizes hit/miss/eviction counters per layer.
type CacheStats struct {
	Faces, Shapes, Masks Stats
}

func (c *Cache) Stats() CacheStats {
	return CacheStats{Faces: c.faces.Stats(), Shapes: c.shapes.Stats(), Masks: c.masks.Stats()}
}
