package portable

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/glyphkit/o4e"
	"github.com/glyphkit/o4e/segment"
)

func testFont() o4e.Font {
	return o4e.Font{Bytes: goregular.TTF, SizePx: 24}
}

func TestBackendName(t *testing.T) {
	b := New()
	if b.Name() != Name {
		t.Errorf("Name() = %q, want %q", b.Name(), Name)
	}
}

func TestBackendIsRegistered(t *testing.T) {
	if !o4e.IsRegistered(Name) {
		t.Fatal("portable backend did not self-register")
	}
}

func TestRenderProducesNonEmptyBitmap(t *testing.T) {
	b := New()
	out, err := b.Render("Hi", testFont(), o4e.RenderOptions{Width: 200, Height: 60, Foreground: o4e.Color{A: 255}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Bitmap == nil {
		t.Fatal("Bitmap is nil")
	}
	if out.Bitmap.Width != 200 || out.Bitmap.Height != 60 {
		t.Errorf("Bitmap dims = %dx%d, want 200x60", out.Bitmap.Width, out.Bitmap.Height)
	}

	nonZero := false
	for _, px := range out.Bitmap.Pixels {
		if px != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("expected some non-zero pixel coverage after rendering text")
	}
}

func TestRenderEmptyText(t *testing.T) {
	b := New()
	out, err := b.Render("", testFont(), o4e.RenderOptions{Width: 50, Height: 50})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Bitmap == nil {
		t.Fatal("Bitmap is nil")
	}
}

func TestRenderInvalidDimensions(t *testing.T) {
	b := New()
	if _, err := b.Render("x", testFont(), o4e.RenderOptions{Width: 0, Height: 10}); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestRenderPNGFormat(t *testing.T) {
	b := New()
	out, err := b.Render("Go", testFont(), o4e.RenderOptions{Width: 100, Height: 40, Format: o4e.FormatPNG})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out.PNG) == 0 {
		t.Error("expected non-empty PNG encoding")
	}
	// PNG signature.
	sig := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if len(out.PNG) < len(sig) {
		t.Fatal("PNG output too short")
	}
	for i, b := range sig {
		if out.PNG[i] != b {
			t.Fatalf("PNG output missing signature at byte %d", i)
		}
	}
}

func TestEmitSVGProducesPaths(t *testing.T) {
	b := New()
	doc, err := b.EmitSVG("Hi", testFont(), o4e.SvgOptions{Precision: 2})
	if err != nil {
		t.Fatalf("EmitSVG: %v", err)
	}
	if doc == "" {
		t.Fatal("expected non-empty SVG document")
	}
	if !contains(doc, "<svg") || !contains(doc, "<path") {
		t.Errorf("SVG document missing expected elements: %s", doc)
	}
}

func TestShapeProducesGlyphs(t *testing.T) {
	b := New()
	runs := b.Segment("run", segment.Options{})
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	res, err := b.Shape(runs[0], testFont())
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if len(res.Glyphs) != 3 {
		t.Fatalf("got %d glyphs, want 3", len(res.Glyphs))
	}
}

func TestRenderAANoneDisablesSupersampling(t *testing.T) {
	b := New()
	out, err := b.Render("W", testFont(), o4e.RenderOptions{Width: 60, Height: 40, Antialias: o4e.AANone})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Bitmap == nil {
		t.Fatal("Bitmap is nil")
	}
}

func TestNewWithCacheCapacity(t *testing.T) {
	b := NewWithCacheCapacity(4)
	if _, err := b.Render("x", testFont(), o4e.RenderOptions{Width: 20, Height: 20}); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

func TestNewWithCacheCapacityNonPositiveUsesDefaults(t *testing.T) {
	b := NewWithCacheCapacity(0)
	if b.cache == nil {
		t.Fatal("expected a default cache")
	}
}

func TestShapeClusterRebasesToOriginalStringOffset(t *testing.T) {
	b := New()
	runs := b.Segment("ab\ncd", segment.Options{})
	if len(runs) < 2 {
		t.Fatalf("got %d runs, want at least 2 (hard break should split)", len(runs))
	}
	// The second run does not start at byte 0 of the original string, so
	// its glyph clusters must be rebased by its run.Start, not left as
	// offsets relative to the run's own text.
	second := runs[1]
	if second.Start == 0 {
		t.Fatalf("expected second run to start past byte 0, got Start=%d", second.Start)
	}
	res, err := b.Shape(second, testFont())
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	for i, g := range res.Glyphs {
		if g.Cluster < second.Start {
			t.Errorf("glyph %d: Cluster=%d, want >= run.Start=%d", i, g.Cluster, second.Start)
		}
	}
}

func TestClearCacheThenRenderAgain(t *testing.T) {
	b := New()
	if _, err := b.Render("warm", testFont(), o4e.RenderOptions{Width: 80, Height: 30}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	b.ClearCache()
	if _, err := b.Render("warm", testFont(), o4e.RenderOptions{Width: 80, Height: 30}); err != nil {
		t.Fatalf("Render after ClearCache: %v", err)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
