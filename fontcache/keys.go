package fontcache

// FaceKey identifies a parsed face: font source identity plus the
// variable-font axis/weight/style state that selects among instances of the
// same source.
type FaceKey struct {
	SourceID string // stable identity: resolved path, or a hash of raw bytes
	Weight   uint16
	Style    uint8
	Axes     string // canonicalized "tag=value;tag=value" encoding, sorted
}

// ShapeKey identifies a cached ShapingResult.
type ShapeKey struct {
	Text      string
	Face      FaceKey
	Direction uint8
	Script    string
	Language  string
	Features  string // canonicalized "tag=0/1;..." encoding, sorted
}

// GlyphMaskKey identifies a cached rasterized glyph mask. SizeQuantum is the
// font size rounded to the nearest 1/64 px, collapsing near-duplicate sizes.
type GlyphMaskKey struct {
	Face        FaceKey
	GlyphID     uint32
	SizeQuantum int32
	AAMode      uint8
}

// QuantizeSize rounds a pixel size to the nearest 1/64 px unit used by
// GlyphMaskKey, following the same 26.6 fixed-point convention the shaper
// uses for advances and offsets.
func QuantizeSize(px float64) int32 {
	return int32(px*64 + 0.5)
}
