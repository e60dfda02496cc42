// Package shape converts a text run plus a font face into positioned
// glyphs, grounded on GoTextShaper (github.com/gogpu/gg/text), which wraps
// github.com/go-text/typesetting/shaping's HarfbuzzShaper behind a
// sync.Pool since a single shaper instance is not safe for concurrent use.
package shape

import (
	"bytes"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/glyphkit/o4e/errs"
)

// Direction mirrors segment.Direction without importing it, keeping shape
// independent of the segmenter.
type Direction uint8

const (
	LTR Direction = iota
	RTL
	TTB
	BTT
)

func (d Direction) toDI() di.Direction {
	switch d {
	case RTL:
		return di.DirectionRTL
	case TTB:
		return di.DirectionTTB
	case BTT:
		return di.DirectionBTT
	default:
		return di.DirectionLTR
	}
}

func (d Direction) isVertical() bool { return d == TTB || d == BTT }

// Glyph is one shaped unit: a glyph id tied back to its source cluster, an
// advance, and a fine positioning offset, all in pixels.
type Glyph struct {
	GID      uint32
	Cluster  int // byte offset into Result.Text marking this glyph's source cluster
	XAdvance float64
	YAdvance float64
	XOffset  float64
	YOffset  float64
}

// Result is the output of shaping one run.
type Result struct {
	Glyphs    []Glyph
	Text      string
	Direction Direction
	Script    string // ISO 15924 tag, echoed from the input run
	Language  string
	Ascent    float64
	Descent   float64
	Width     float64
}

// FaceSource is the minimal capability shape needs from a loaded face: its
// raw bytes, from which a go-text font.Font is parsed and cached. Satisfied
// structurally by *fontcache.Face. Implementations must be pointer types:
// Shaper keys its parsed-font cache by FaceSource identity.
type FaceSource interface {
	Bytes() []byte
}

// Input describes one run to shape.
type Input struct {
	Text      string
	Direction Direction
	Script    string // ISO 15924 tag; "" lets the shaper infer from content
	Language  string // BCP 47 tag; "" defaults to "en"
	Size      float64
	Face      FaceSource
	Features  map[string]bool // 4-char OpenType feature tag -> enabled
}

// Shaper is the portable shaping backend.
type Shaper struct {
	pool sync.Pool

	mu        sync.RWMutex
	fontCache map[FaceSource]*font.Font
}

// New constructs a Shaper. The returned value is safe for concurrent use;
// internally it pools one HarfbuzzShaper per concurrent caller.
func New() *Shaper {
	return &Shaper{
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
		fontCache: make(map[FaceSource]*font.Font),
	}
}

// Shape runs in.Face through the HarfBuzz-equivalent shaper and returns a
// Result whose glyph clusters are monotonic per in.Direction. An empty
// in.Text yields an empty, error-free Result. A non-empty input that
// produces no glyphs fails with errs.ShapingFailed.
func (s *Shaper) Shape(in Input) (Result, error) {
	res := Result{Text: in.Text, Direction: in.Direction, Script: in.Script, Language: in.Language}
	if in.Text == "" {
		return res, nil
	}
	if in.Face == nil {
		return res, errs.New(errs.ShapingFailed, "shape.Shape", nil)
	}

	gtFont, err := s.getOrCreateFont(in.Face)
	if err != nil {
		return res, errs.New(errs.CorruptFont, "shape.Shape", err)
	}
	gtFace := font.NewFace(gtFont)

	runes := []rune(in.Text)
	dir := in.Direction.toDI()

	lang := in.Language
	if lang == "" {
		lang = "en"
	}

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      gtFace,
		Size:      toFixed(in.Size),
		Script:       scriptFor(in.Script, runes),
		Language:     language.NewLanguage(lang),
		FontFeatures: buildFeatures(in.Features),
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.pool.Put(hb)

	res.Glyphs = convertGlyphs(output.Glyphs, runes, in.Direction)
	if len(res.Glyphs) == 0 {
		return res, errs.New(errs.ShapingFailed, "shape.Shape", nil)
	}

	for _, g := range res.Glyphs {
		if in.Direction.isVertical() {
			res.Width += g.YAdvance
		} else {
			res.Width += g.XAdvance
		}
	}
	res.Ascent = fromFixed(output.LineBounds.Ascent)
	res.Descent = fromFixed(output.LineBounds.Descent)
	return res, nil
}

func (s *Shaper) getOrCreateFont(src FaceSource) (*font.Font, error) {
	s.mu.RLock()
	if f, ok := s.fontCache[src]; ok {
		s.mu.RUnlock()
		return f, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.fontCache[src]; ok {
		return f, nil
	}
	gtFace, err := font.ParseTTF(bytes.NewReader(src.Bytes()))
	if err != nil {
		return nil, err
	}
	s.fontCache[src] = gtFace.Font
	return gtFace.Font, nil
}

// ClearCache drops every cached parsed font.Font.
func (s *Shaper) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fontCache = make(map[FaceSource]*font.Font)
}

func buildFeatures(features map[string]bool) []shaping.FontFeature {
	if len(features) == 0 {
		return nil
	}
	out := make([]shaping.FontFeature, 0, len(features))
	for tag, enabled := range features {
		v := uint32(0)
		if enabled {
			v = 1
		}
		var b [4]byte
		copy(b[:], tag+"    ") // pad short tags ("kern" is 4, but be defensive)
		out = append(out, shaping.FontFeature{Tag: opentype.NewTag(b[0], b[1], b[2], b[3]), Value: v})
	}
	return out
}

func scriptFor(tag string, runes []rune) language.Script {
	if tag != "" {
		if s, err := language.ParseScript(tag); err == nil {
			return s
		}
	}
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func toFixed(px float64) fixed.Int26_6  { return fixed.Int26_6(px * 64) }
func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64.0 }

func convertGlyphs(glyphs []shaping.Glyph, runes []rune, dir Direction) []Glyph {
	if len(glyphs) == 0 {
		return nil
	}
	byteOffsets := runeByteOffsets(runes)
	out := make([]Glyph, len(glyphs))
	for i, g := range glyphs {
		out[i] = Glyph{
			GID:     uint32(g.GlyphID),
			Cluster: byteOffsets[g.TextIndex()],
			XOffset: fromFixed(g.XOffset),
			YOffset: fromFixed(g.YOffset),
		}
		adv := fromFixed(g.Advance)
		if dir.isVertical() {
			out[i].YAdvance = adv
		} else {
			out[i].XAdvance = adv
		}
	}
	return out
}

// runeByteOffsets maps each rune index in runes to its UTF-8 byte offset
// within the string runes was decoded from, so a shaper's rune-indexed
// TextIndex() can be converted to the byte-offset cluster value the public
// API documents. The library's own TextIndex() is, despite its name, a rune
// index into the []rune input (go-text/typesetting shaping/output.go),
// never a byte offset, so this conversion is required, not defensive.
func runeByteOffsets(runes []rune) []int {
	offsets := make([]int, len(runes)+1)
	offset := 0
	for i, r := range runes {
		offsets[i] = offset
		offset += len(string(r))
	}
	offsets[len(runes)] = offset
	return offsets
}
