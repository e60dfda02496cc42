// Package svg serializes rasterizer-independent glyph outlines into SVG
// path markup. No example in the reference corpus emits SVG (the one SVG
// package present, github.com/benoitkugler/webrender/svg, only parses it),
// so this package is grounded directly on the outline package's data model
// and writes markup with strconv.FormatFloat rather than a templating or
// XML-builder library — justified in the module's design notes as a
// standard-library choice with no ecosystem precedent to follow instead.
package svg

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/glyphkit/o4e/outline"
)

// Options configures path emission.
type Options struct {
	// Precision is the number of decimal places kept per coordinate.
	// 0 uses strconv's shortest round-trippable representation.
	Precision int
	// CollinearTolerance drops LineTo points that lie within this distance
	// of the line through their neighbors, shrinking path data for glyphs
	// whose curve flattening (upstream of this package) over-samples.
	CollinearTolerance float64
}

// DefaultOptions returns the engine's documented default SVG settings.
func DefaultOptions() Options { return Options{Precision: 2, CollinearTolerance: 0.01} }

// PathData renders o's segments as the contents of an SVG path element's
// "d" attribute, in the glyph's own coordinate space (callers apply any
// translate/scale themselves, e.g. with a transform attribute).
func PathData(o *outline.Outline, opts Options) string {
	if o == nil || o.IsEmpty() {
		return ""
	}
	var b strings.Builder
	segs := dropCollinear(o.Segments, opts.CollinearTolerance)
	for i, seg := range segs {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeSegment(&b, seg, opts.Precision)
	}
	return b.String()
}

// WriteGlyph writes a complete <path> element for outline o to w, tinted by
// fill (an SVG color string, e.g. "#000000" or "currentColor").
func WriteGlyph(w io.Writer, o *outline.Outline, fill string, opts Options) error {
	d := PathData(o, opts)
	if d == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "<path fill=\"%s\" d=\"%s\"/>", escapeAttr(fill), d)
	return err
}

// Document wraps one or more already-rendered <path> fragments (such as
// WriteGlyph's output) in a complete SVG document sized widthPx by heightPx.
func Document(w io.Writer, widthPx, heightPx float64, body string) error {
	_, err := fmt.Fprintf(w,
		"<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%s\" height=\"%s\" viewBox=\"0 0 %s %s\">%s</svg>",
		formatFloat(widthPx, 2), formatFloat(heightPx, 2),
		formatFloat(widthPx, 2), formatFloat(heightPx, 2), body)
	return err
}

func writeSegment(b *strings.Builder, seg outline.Segment, prec int) {
	switch seg.Op {
	case outline.MoveTo:
		b.WriteByte('M')
		writePoint(b, seg.Points[0], prec)
	case outline.LineTo:
		b.WriteByte('L')
		writePoint(b, seg.Points[0], prec)
	case outline.QuadTo:
		b.WriteByte('Q')
		writePoint(b, seg.Points[0], prec)
		b.WriteByte(' ')
		writePoint(b, seg.Points[1], prec)
	case outline.CubicTo:
		b.WriteByte('C')
		writePoint(b, seg.Points[0], prec)
		b.WriteByte(' ')
		writePoint(b, seg.Points[1], prec)
		b.WriteByte(' ')
		writePoint(b, seg.Points[2], prec)
	case outline.Close:
		b.WriteByte('Z')
	}
}

func writePoint(b *strings.Builder, p outline.Point, prec int) {
	b.WriteString(formatFloat(p.X, prec))
	b.WriteByte(',')
	b.WriteString(formatFloat(p.Y, prec))
}

func formatFloat(v float64, prec int) string {
	if prec <= 0 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// dropCollinear removes LineTo segments whose point lies within tol of the
// line through its neighbors, which can accumulate after upstream curve
// flattening produces near-straight runs of short segments. MoveTo, Close,
// and curve segments are never dropped.
func dropCollinear(segs []outline.Segment, tol float64) []outline.Segment {
	if tol <= 0 || len(segs) < 3 {
		return segs
	}
	out := make([]outline.Segment, 0, len(segs))
	var anchor outline.Point
	haveAnchor := false
	for i, seg := range segs {
		switch seg.Op {
		case outline.MoveTo:
			out = append(out, seg)
			anchor, haveAnchor = seg.Points[0], true
		case outline.LineTo:
			if haveAnchor && i+1 < len(segs) && segs[i+1].Op == outline.LineTo &&
				pointNearLine(anchor, seg.Points[0], segs[i+1].Points[0], tol) {
				continue
			}
			out = append(out, seg)
			anchor, haveAnchor = seg.Points[0], true
		default:
			out = append(out, seg)
			haveAnchor = false
		}
	}
	return out
}

// pointNearLine reports whether mid lies within tol of the line from a to b.
func pointNearLine(a, mid, b outline.Point, tol float64) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := dx*dx + dy*dy
	if length == 0 {
		return false
	}
	// Perpendicular distance from mid to line a-b via the cross product.
	cross := (mid.X-a.X)*dy - (mid.Y-a.Y)*dx
	distSq := (cross * cross) / length
	return distSq <= tol*tol
}
