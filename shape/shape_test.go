package shape

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

// testFace is a minimal FaceSource backed by an embedded TTF, standing in
// for *fontcache.Face without pulling in that package. It must be used as a
// pointer: Shaper keys its font cache by FaceSource identity, and a slice
// field makes the value itself non-comparable.
type testFace struct{ data []byte }

func (f *testFace) Bytes() []byte { return f.data }

func newTestFace() FaceSource { return &testFace{data: goregular.TTF} }

func TestShapeBasicLatin(t *testing.T) {
	s := New()
	res, err := s.Shape(Input{Text: "Hello", Size: 16, Face: newTestFace()})
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if len(res.Glyphs) != 5 {
		t.Fatalf("got %d glyphs, want 5", len(res.Glyphs))
	}
	for i, g := range res.Glyphs {
		if g.XAdvance <= 0 {
			t.Errorf("glyph %d: XAdvance=%f, want > 0", i, g.XAdvance)
		}
	}
}

func TestShapeEmptyText(t *testing.T) {
	s := New()
	res, err := s.Shape(Input{Text: "", Size: 16, Face: newTestFace()})
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if len(res.Glyphs) != 0 {
		t.Fatalf("got %d glyphs, want 0", len(res.Glyphs))
	}
}

func TestShapeNilFace(t *testing.T) {
	s := New()
	if _, err := s.Shape(Input{Text: "Hello", Size: 16}); err == nil {
		t.Fatal("expected error for nil face")
	}
}

func TestShapeFontCacheReused(t *testing.T) {
	s := New()
	face := newTestFace()
	if _, err := s.Shape(Input{Text: "one", Size: 16, Face: face}); err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if _, err := s.Shape(Input{Text: "two", Size: 16, Face: face}); err != nil {
		t.Fatalf("Shape: %v", err)
	}
	s.mu.RLock()
	n := len(s.fontCache)
	s.mu.RUnlock()
	if n != 1 {
		t.Fatalf("fontCache has %d entries, want 1 (same face reused)", n)
	}
}

func TestShapeConcurrent(t *testing.T) {
	s := New()
	face := newTestFace()
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := s.Shape(Input{Text: "concurrent", Size: 16, Face: face})
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent Shape: %v", err)
		}
	}
}

func TestShapeClusterIsByteOffsetNotRuneIndex(t *testing.T) {
	s := New()
	// '€' (U+20AC) is 3 bytes in UTF-8, so rune index and byte offset
	// diverge starting at the third rune.
	text := "a€b"
	res, err := s.Shape(Input{Text: text, Size: 16, Face: newTestFace()})
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if len(res.Glyphs) != 3 {
		t.Fatalf("got %d glyphs, want 3", len(res.Glyphs))
	}
	wantClusters := []int{0, 1, 4} // byte offsets of 'a', '€', 'b'
	for i, g := range res.Glyphs {
		if g.Cluster != wantClusters[i] {
			t.Errorf("glyph %d: Cluster = %d, want %d (byte offset, not rune index)", i, g.Cluster, wantClusters[i])
		}
	}
}

func TestRuneByteOffsets(t *testing.T) {
	offsets := runeByteOffsets([]rune("a€b"))
	want := []int{0, 1, 4, 5}
	if len(offsets) != len(want) {
		t.Fatalf("got %d offsets, want %d", len(offsets), len(want))
	}
	for i, o := range offsets {
		if o != want[i] {
			t.Errorf("offsets[%d] = %d, want %d", i, o, want[i])
		}
	}
}

func TestShapeClearCache(t *testing.T) {
	s := New()
	face := newTestFace()
	if _, err := s.Shape(Input{Text: "x", Size: 16, Face: face}); err != nil {
		t.Fatalf("Shape: %v", err)
	}
	s.ClearCache()
	s.mu.RLock()
	n := len(s.fontCache)
	s.mu.RUnlock()
	if n != 0 {
		t.Fatalf("fontCache has %d entries after ClearCache, want 0", n)
	}
}
