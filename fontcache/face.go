package fontcache

import (
	"sync"

	"golang.org/x/image/font/sfnt"

	"github.com/glyphkit/o4e/errs"
)

// Face is a loaded, parsed font resource. It owns (or shares, when backed by
// caller-provided raw bytes) the underlying byte buffer and exposes the
// parsed sfnt.Font used by the shaper and outline extractor. Faces are
// created on first demand by the Cache and shared by every caller that
// requests the same FaceKey; they are dropped only on eviction.
type Face struct {
	Key  FaceKey
	data []byte
	closeMmap func() error

	once sync.Once
	font *sfnt.Font
	ferr error

	unitsPerEm int32
}

// newFace builds a Face from raw bytes that are already owned (caller-
// supplied, or mmapped by the Cache). Parsing is deferred to first use of
// SFNT/GlyphIndex/Metrics so that constructing a Face never itself fails.
func newFace(key FaceKey, data []byte, closeMmap func() error) *Face {
	return &Face{Key: key, data: data, closeMmap: closeMmap}
}

func (f *Face) parse() (*sfnt.Font, error) {
	f.once.Do(func() {
		ft, err := sfnt.Parse(f.data)
		if err != nil {
			f.ferr = errs.New(errs.CorruptFont, "fontcache.Face.parse", err)
			return
		}
		f.font = ft
		f.unitsPerEm = int32(ft.UnitsPerEm())
	})
	return f.font, f.ferr
}

// SFNT returns the parsed sfnt.Font, parsing it on first call. Satisfies the
// outline and shape packages' FaceSource interfaces structurally.
func (f *Face) SFNT() (*sfnt.Font, error) { return f.parse() }

// Bytes returns the face's raw font bytes, shared (not copied) with every
// caller holding this Face.
func (f *Face) Bytes() []byte { return f.data }

// UnitsPerEm returns the font's design-space units per em, valid only after
// a successful SFNT() call; 0 before then.
func (f *Face) UnitsPerEm() int32 { return f.unitsPerEm }

// HasGlyph reports whether the face maps r to a nonzero glyph index, used
// by the portable backend's coverage check when it chooses a face for a run.
func (f *Face) HasGlyph(r rune) bool {
	ft, err := f.parse()
	if err != nil {
		return false
	}
	var buf sfnt.Buffer
	gid, err := ft.GlyphIndex(&buf, r)
	return err == nil && gid != 0
}

// release drops the mmap (if any). Called only by the Cache on eviction,
// after the shard lock has already been released, per the "eviction must
// not hold the map lock during deallocation" design note.
func (f *Face) release() {
	if f.closeMmap != nil {
		_ = f.closeMmap()
	}
}
