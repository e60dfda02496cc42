package raster

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
)

// Mask is a glyph's rasterized grayscale coverage, positioned relative to
// the glyph's own coordinate origin (OffsetX, OffsetY, in pixels).
type Mask struct {
	Img     *image.Alpha
	OffsetX int
	OffsetY int
}

// IsEmpty reports whether the mask has no pixels (e.g. a space glyph).
func (m *Mask) IsEmpty() bool { return m.Img == nil || m.Img.Bounds().Empty() }

// Canvas is a destination RGBA surface glyphs are composited onto.
type Canvas struct {
	Img *image.RGBA
}

// NewCanvas allocates a transparent canvas of the given pixel size.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{Img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Composite source-over blends mask, tinted by ink, onto the canvas at
// (originX, originY) plus the mask's own offset — the conventional
// pen-position-plus-glyph-origin placement used by every text renderer.
func (c *Canvas) Composite(mask *Mask, originX, originY int, ink color.Color) {
	if mask.IsEmpty() {
		return
	}
	dstRect := mask.Img.Bounds().Add(image.Pt(originX+mask.OffsetX, originY+mask.OffsetY))
	inkImg := &image.Uniform{C: ink}
	draw.DrawMask(c.Img, dstRect, inkImg, image.Point{}, mask.Img, mask.Img.Bounds().Min, draw.Over)
}

// EncodePNG writes the canvas to w as a PNG, per the engine's documented
// raster output format.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.Img)
}
