// Package outline extracts glyph vector outlines from parsed fonts,
// grounded on OutlineExtractor (github.com/gogpu/gg/text), converting
// golang.org/x/image/font/sfnt's SegmentOp stream into a closed command
// representation independent of any particular font-source type.
package outline

import (
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/glyphkit/o4e/errs"
)

// Op is a path command in a glyph outline.
type Op uint8

const (
	MoveTo Op = iota
	LineTo
	QuadTo
	CubicTo
	Close
)

func (op Op) String() string {
	switch op {
	case MoveTo:
		return "MoveTo"
	case LineTo:
		return "LineTo"
	case QuadTo:
		return "QuadTo"
	case CubicTo:
		return "CubicTo"
	case Close:
		return "Close"
	default:
		return "Unknown"
	}
}

// Point is a single coordinate in font-unit-scaled pixel space.
type Point struct{ X, Y float64 }

// Segment is one path command. Points holds up to 3 coordinates depending
// on Op: MoveTo/LineTo use Points[0]; QuadTo uses Points[0] (control) and
// Points[1] (target); CubicTo uses all three; Close uses none.
type Segment struct {
	Op     Op
	Points [3]Point
}

// Outline is the vector contour set for one glyph at one pixel size.
type Outline struct {
	GID      uint32
	Segments []Segment
	Bounds   Rect
	Advance  float64
}

// Rect is an axis-aligned bounding box in the same space as Outline.Segments.
type Rect struct{ MinX, MinY, MaxX, MaxY float64 }

// IsEmpty reports whether the outline has no path segments (e.g. space).
func (o *Outline) IsEmpty() bool { return len(o.Segments) == 0 }

// SFNTSource is the minimal capability outline needs from a loaded face:
// access to its parsed sfnt.Font. Satisfied structurally by *fontcache.Face.
type SFNTSource interface {
	SFNT() (*sfnt.Font, error)
}

// Extractor extracts glyph outlines, reusing an internal sfnt.Buffer across
// calls. An Extractor is not safe for concurrent use; callers needing
// concurrency should use one Extractor per goroutine (it is cheap to
// construct) or guard it with a pool, mirroring sfnt.Buffer's own contract.
type Extractor struct {
	buf sfnt.Buffer
}

// New constructs an Extractor.
func New() *Extractor { return &Extractor{} }

// Extract returns the outline of glyph gid in face, scaled for rendering at
// sizePx pixels per em. A glyph with no contours (e.g. space) returns a
// non-nil Outline with zero Segments and a populated Advance.
func (e *Extractor) Extract(face SFNTSource, gid uint32, sizePx float64) (*Outline, error) {
	f, err := face.SFNT()
	if err != nil {
		return nil, errs.New(errs.CorruptFont, "outline.Extract", err)
	}

	ppem := fixed.Int26_6(sizePx * 64)
	segs, err := f.LoadGlyph(&e.buf, sfnt.GlyphIndex(gid), ppem, nil)
	if err != nil {
		return nil, errs.New(errs.GlyphOutlineMissing, "outline.Extract", err)
	}

	advance := glyphAdvance(f, &e.buf, gid, ppem)

	if len(segs) == 0 {
		return &Outline{GID: gid, Advance: advance}, nil
	}

	out := &Outline{GID: gid, Segments: make([]Segment, 0, len(segs)), Advance: advance}
	minX, minY := 1e10, 1e10
	maxX, maxY := -1e10, -1e10
	track := func(p Point) {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	for _, seg := range segs {
		s := Segment{}
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			s.Op = MoveTo
			s.Points[0] = toPoint(seg.Args[0])
			track(s.Points[0])
		case sfnt.SegmentOpLineTo:
			s.Op = LineTo
			s.Points[0] = toPoint(seg.Args[0])
			track(s.Points[0])
		case sfnt.SegmentOpQuadTo:
			s.Op = QuadTo
			s.Points[0] = toPoint(seg.Args[0])
			s.Points[1] = toPoint(seg.Args[1])
			track(s.Points[0])
			track(s.Points[1])
		case sfnt.SegmentOpCubeTo:
			s.Op = CubicTo
			s.Points[0] = toPoint(seg.Args[0])
			s.Points[1] = toPoint(seg.Args[1])
			s.Points[2] = toPoint(seg.Args[2])
			track(s.Points[0])
			track(s.Points[1])
			track(s.Points[2])
		default:
			continue
		}
		out.Segments = append(out.Segments, s)
	}
	out.Segments = append(out.Segments, Segment{Op: Close})
	out.Bounds = Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	return out, nil
}

func glyphAdvance(f *sfnt.Font, buf *sfnt.Buffer, gid uint32, ppem fixed.Int26_6) float64 {
	adv, err := f.GlyphAdvance(buf, sfnt.GlyphIndex(gid), ppem, 0) // no hinting for outline extraction
	if err != nil {
		return 0
	}
	return float64(adv) / 64.0
}

func toPoint(p fixed.Point26_6) Point {
	return Point{X: float64(p.X) / 64.0, Y: float64(p.Y) / 64.0}
}
