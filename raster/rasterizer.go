// Package raster rasterizes glyph outlines into grayscale coverage masks
// using a pure-CPU scanline Active Edge Table, grounded on Edge/EdgeList/
// SimpleAET (github.com/gogpu/gg/raster) for edge bookkeeping and on
// AlphaRuns (github.com/gogpu/gg/core) for run-length coverage accumulation.
// Unlike the teacher's GPU tile-compute filler, this rasterizer never
// touches a GPU context: every scanline is walked on the CPU, matching the
// engine's documented CPU-only rendering guarantee.
package raster

import (
	"image"
	"math"

	"github.com/glyphkit/o4e/outline"
)

// FillRule selects how overlapping contours combine into coverage.
type FillRule uint8

const (
	NonZero FillRule = iota
	EvenOdd
)

// Options configures a rasterization pass.
type Options struct {
	Rule FillRule
	// Supersamples is the number of vertical sub-scanlines sampled per
	// output row (antialiasing quality vs. cost). 4 is the default, which
	// the portable backend uses for AAGrayscale and AASubpixel.
	Supersamples int
}

// DefaultOptions returns the engine's documented default rasterization
// settings: non-zero winding, 4x vertical supersampling.
func DefaultOptions() Options { return Options{Rule: NonZero, Supersamples: 4} }

// line is a flattened straight segment in device pixels.
type line struct{ x0, y0, x1, y1 float32 }

// Rasterize converts an outline into a grayscale coverage mask sized to the
// outline's bounds (rounded outward), with Mask.OffsetX/OffsetY giving the
// mask's origin relative to the glyph's own coordinate space. An outline
// with no segments (e.g. a space) yields a 0x0 mask and no error.
func Rasterize(o *outline.Outline, opts Options) (*Mask, error) {
	if o == nil || o.IsEmpty() {
		return &Mask{}, nil
	}
	if opts.Supersamples <= 0 {
		opts.Supersamples = 4
	}

	minX := int(math.Floor(o.Bounds.MinX))
	minY := int(math.Floor(o.Bounds.MinY))
	maxX := int(math.Ceil(o.Bounds.MaxX)) + 1
	maxY := int(math.Ceil(o.Bounds.MaxY)) + 1
	w := maxX - minX
	h := maxY - minY
	if w <= 0 || h <= 0 {
		return &Mask{}, nil
	}

	lines := flatten(o, minX, minY)
	edges := buildEdges(lines)
	if edges.Len() == 0 {
		return &Mask{OffsetX: minX, OffsetY: minY, Img: image.NewAlpha(image.Rect(0, 0, w, h))}, nil
	}
	edges.SortByYMin()

	img := image.NewAlpha(image.Rect(0, 0, w, h))
	aet := NewSimpleAET()
	ar := NewAlphaRuns(w)
	row := make([]uint8, w)

	sub := opts.Supersamples
	subWeight := uint8(255 / sub)

	for y := 0; y < h; y++ {
		ar.Reset()
		for s := 0; s < sub; s++ {
			sy := float32(y) + (float32(s)+0.5)/float32(sub)
			activateEdges(aet, edges, sy)
			aet.RemoveExpired(sy)
			aet.UpdateX(sy)
			aet.SortByX()
			ar.SetOffset(0)
			accumulateSpans(ar, aet.Active(), w, opts.Rule, subWeight)
		}
		ar.CopyTo(row)
		copy(img.Pix[y*img.Stride:y*img.Stride+w], row)
	}

	return &Mask{OffsetX: minX, OffsetY: minY, Img: img}, nil
}

// activateEdges inserts every edge whose YMin has been reached by sy and
// that isn't already active. Edges is walked once since it is sorted by
// YMin; a cursor on Edges would be more efficient for many glyphs sharing a
// mask, but glyph outlines are small enough that a linear scan is simpler
// and correct.
func activateEdges(aet *SimpleAET, edges *EdgeList, sy float32) {
	active := aet.Active()
	for i := range edges.edges {
		e := &edges.edges[i]
		if !e.ContainsY(sy) {
			continue
		}
		found := false
		for j := range active {
			if active[j].Edge == e {
				found = true
				break
			}
		}
		if !found {
			aet.InsertEdge(e, sy)
		}
	}
}

// accumulateSpans fills ar using the fill rule over the active edge
// table's current X crossings, adding subWeight of coverage per covered
// pixel for this sub-scanline.
func accumulateSpans(ar *AlphaRuns, active []ActiveEdge, w int, rule FillRule, subWeight uint8) {
	winding := 0
	for i := 0; i < len(active); i++ {
		winding += int(active[i].Edge.Winding)
		if i+1 >= len(active) {
			break
		}
		inside := winding != 0
		if rule == EvenOdd {
			inside = winding%2 != 0
		}
		if !inside {
			continue
		}
		x0 := int(math.Ceil(float64(active[i].X)))
		x1 := int(math.Floor(float64(active[i+1].X)))
		if x0 < 0 {
			x0 = 0
		}
		if x1 >= w {
			x1 = w - 1
		}
		if x0 > x1 {
			continue
		}
		ar.AddWithCoverage(x0, 0, x1-x0+1, 0, subWeight)
	}
}

func buildEdges(lines []line) *EdgeList {
	el := NewEdgeList()
	for _, ln := range lines {
		el.AddLine(ln.x0, ln.y0, ln.x1, ln.y1)
	}
	return el
}

// flatten converts an outline's curves into line segments in mask-local
// pixel space (outline coordinates minus the mask origin), subdividing
// quadratic and cubic segments by fixed step count — glyph curves are short
// enough that adaptive subdivision isn't needed for acceptable quality.
func flatten(o *outline.Outline, originX, originY int) []line {
	const curveSteps = 8
	var lines []line
	var cur, start outline.Point
	hasCur := false

	toLocal := func(p outline.Point) (float32, float32) {
		return float32(p.X - float64(originX)), float32(p.Y - float64(originY))
	}

	for _, seg := range o.Segments {
		switch seg.Op {
		case outline.MoveTo:
			if hasCur && cur != start {
				x0, y0 := toLocal(cur)
				x1, y1 := toLocal(start)
				lines = append(lines, line{x0, y0, x1, y1})
			}
			cur = seg.Points[0]
			start = cur
			hasCur = true
		case outline.LineTo:
			x0, y0 := toLocal(cur)
			x1, y1 := toLocal(seg.Points[0])
			lines = append(lines, line{x0, y0, x1, y1})
			cur = seg.Points[0]
		case outline.QuadTo:
			lines = append(lines, flattenQuad(cur, seg.Points[0], seg.Points[1], curveSteps, toLocal)...)
			cur = seg.Points[1]
		case outline.CubicTo:
			lines = append(lines, flattenCubic(cur, seg.Points[0], seg.Points[1], seg.Points[2], curveSteps, toLocal)...)
			cur = seg.Points[2]
		case outline.Close:
			if hasCur && cur != start {
				x0, y0 := toLocal(cur)
				x1, y1 := toLocal(start)
				lines = append(lines, line{x0, y0, x1, y1})
			}
			cur = start
		}
	}
	return lines
}

func flattenQuad(p0, p1, p2 outline.Point, steps int, toLocal func(outline.Point) (float32, float32)) []line {
	out := make([]line, 0, steps)
	prevX, prevY := toLocal(p0)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		mt := 1 - t
		x := mt*mt*p0.X + 2*mt*t*p1.X + t*t*p2.X
		y := mt*mt*p0.Y + 2*mt*t*p1.Y + t*t*p2.Y
		px, py := toLocal(outline.Point{X: x, Y: y})
		out = append(out, line{prevX, prevY, px, py})
		prevX, prevY = px, py
	}
	return out
}

func flattenCubic(p0, p1, p2, p3 outline.Point, steps int, toLocal func(outline.Point) (float32, float32)) []line {
	out := make([]line, 0, steps)
	prevX, prevY := toLocal(p0)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		mt := 1 - t
		x := mt*mt*mt*p0.X + 3*mt*mt*t*p1.X + 3*mt*t*t*p2.X + t*t*t*p3.X
		y := mt*mt*mt*p0.Y + 3*mt*mt*t*p1.Y + 3*mt*t*t*p2.Y + t*t*t*p3.Y
		px, py := toLocal(outline.Point{X: x, Y: y})
		out = append(out, line{prevX, prevY, px, py})
		prevX, prevY = px, py
	}
	return out
}
