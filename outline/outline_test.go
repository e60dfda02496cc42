package outline

import (
	"testing"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/font/gofont/goregular"
)

type testFace struct{ f *sfnt.Font }

func (t *testFace) SFNT() (*sfnt.Font, error) { return t.f, nil }

func newTestFace(t *testing.T) *testFace {
	t.Helper()
	f, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("sfnt.Parse: %v", err)
	}
	return &testFace{f: f}
}

func glyphIndexFor(t *testing.T, face *testFace, r rune) uint32 {
	t.Helper()
	var buf sfnt.Buffer
	gid, err := face.f.GlyphIndex(&buf, r)
	if err != nil {
		t.Fatalf("GlyphIndex: %v", err)
	}
	return uint32(gid)
}

func TestExtractLetterHasSegments(t *testing.T) {
	face := newTestFace(t)
	gid := glyphIndexFor(t, face, 'A')

	e := New()
	out, err := e.Extract(face, gid, 16)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out.IsEmpty() {
		t.Fatal("outline for 'A' should not be empty")
	}
	if out.Segments[0].Op != MoveTo {
		t.Errorf("first segment op = %v, want MoveTo", out.Segments[0].Op)
	}
	if out.Segments[len(out.Segments)-1].Op != Close {
		t.Errorf("last segment op = %v, want Close", out.Segments[len(out.Segments)-1].Op)
	}
	if out.Advance <= 0 {
		t.Errorf("Advance = %f, want > 0", out.Advance)
	}
}

func TestExtractSpaceIsEmpty(t *testing.T) {
	face := newTestFace(t)
	gid := glyphIndexFor(t, face, ' ')

	e := New()
	out, err := e.Extract(face, gid, 16)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !out.IsEmpty() {
		t.Error("space glyph should have no segments")
	}
}

func TestExtractBoundsNonDegenerate(t *testing.T) {
	face := newTestFace(t)
	gid := glyphIndexFor(t, face, 'O')

	e := New()
	out, err := e.Extract(face, gid, 32)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out.Bounds.MaxX <= out.Bounds.MinX || out.Bounds.MaxY <= out.Bounds.MinY {
		t.Errorf("degenerate bounds: %+v", out.Bounds)
	}
}

func TestOpString(t *testing.T) {
	cases := map[Op]string{MoveTo: "MoveTo", LineTo: "LineTo", QuadTo: "QuadTo", CubicTo: "CubicTo", Close: "Close"}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("Op(%d).String() = %q, want %q", op, got, want)
		}
	}
}
