// Package portable implements o4e's default, platform-independent Backend:
// segmentation, font-database fallback resolution, HarfBuzz-equivalent
// shaping, CPU scanline rasterization, and SVG emission wired end to end,
// each stage backed by its own leaf package and shared through one
// fontcache.Cache. It registers itself under the name "portable" and is
// always available, unlike the native backends it yields priority to.
package portable

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image/color"
	"sort"
	"strings"

	"github.com/go-text/typesetting/language"

	"github.com/glyphkit/o4e"
	"github.com/glyphkit/o4e/errs"
	"github.com/glyphkit/o4e/fontcache"
	"github.com/glyphkit/o4e/fontdb"
	"github.com/glyphkit/o4e/outline"
	"github.com/glyphkit/o4e/raster"
	"github.com/glyphkit/o4e/segment"
	"github.com/glyphkit/o4e/shape"
	"github.com/glyphkit/o4e/svg"
)

// Name is this backend's registry identifier.
const Name = "portable"

func init() {
	o4e.Register(Name, func() o4e.Backend { return New() })
}

// Backend wires the portable rendering pipeline behind o4e.Backend.
type Backend struct {
	db     *fontdb.Database
	cache  *fontcache.Cache
	shaper *shape.Shaper
}

// New constructs a portable Backend with a fresh font database and cache.
func New() *Backend {
	return &Backend{db: fontdb.New(), cache: fontcache.New(), shaper: shape.New()}
}

// NewWithCacheCapacity constructs a portable Backend whose three cache
// layers hold at most n entries per shard (16 shards per layer) rather than
// the package defaults, for
// callers (such as cmd/o4e) that expose cache sizing as a user-facing flag.
func NewWithCacheCapacity(n int) *Backend {
	if n <= 0 {
		return New()
	}
	cache := fontcache.New(
		fontcache.WithFaceCapacity(n),
		fontcache.WithShapeCapacity(n),
		fontcache.WithGlyphCapacity(n),
	)
	return &Backend{db: fontdb.New(), cache: cache, shaper: shape.New()}
}

// AddFontDir adds a directory to the font database's scan, in addition to
// O4E_FONT_DIRS and the platform defaults. Safe to call at any time; takes
// effect on the next Shape/Render that triggers a font database scan.
// Family-name resolution still fails with errs.FontNotFound (see
// fontdb.Database.Resolve), so the directory does not change which faces load.
func (b *Backend) AddFontDir(dir string) {
	b.db.AddDirs(dir)
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Segment(text string, opts segment.Options) []segment.Run {
	return segment.Segment(text, opts)
}

func (b *Backend) ClearCache() {
	b.cache.Clear()
	b.shaper.ClearCache()
}

func (b *Backend) CacheStats() fontcache.CacheStats { return b.cache.Stats() }

// Shape resolves run's font (falling back through the database's chain when
// the primary face doesn't cover the run's text) and shapes it.
func (b *Backend) Shape(run segment.Run, font o4e.Font) (o4e.ShapingResult, error) {
	face, key, err := b.resolveFace(font, run)
	if err != nil {
		return o4e.ShapingResult{}, err
	}
	return b.shapeWithFace(run, font, face, key)
}

// Render shapes text end to end and rasterizes it onto a canvas.
func (b *Backend) Render(text string, font o4e.Font, opts o4e.RenderOptions) (o4e.RenderOutput, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return o4e.RenderOutput{}, errs.New(errs.InvalidDimensions, "portable.Render", nil)
	}

	runs := segment.Segment(text, segment.Options{})
	canvas := raster.NewCanvas(opts.Width, opts.Height)
	if opts.Background.A > 0 {
		fillBackground(canvas, opts.Background)
	}

	baseline := opts.Baseline
	if baseline == 0 {
		baseline = float64(opts.Height) * o4e.DefaultBaselineRatio
	}
	penX, penY := opts.OriginX, baseline
	ink := color.NRGBA{R: opts.Foreground.R, G: opts.Foreground.G, B: opts.Foreground.B, A: opts.Foreground.A}

	rasterOpts := raster.DefaultOptions()
	if opts.Antialias == o4e.AANone {
		// No supersampling: coverage becomes a hard 0/1 edge per pixel.
		rasterOpts.Supersamples = 1
	}
	if opts.Supersamples > 0 {
		rasterOpts.Supersamples = opts.Supersamples
	}

	for _, run := range runs {
		face, key, err := b.resolveFace(font, run)
		if err != nil {
			return o4e.RenderOutput{}, err
		}
		result, err := b.shapeWithFace(run, font, face, key)
		if err != nil {
			return o4e.RenderOutput{}, err
		}

		for _, g := range result.Glyphs {
			mask, err := b.glyphMask(face, key, g.GlyphID, font.SizePx, rasterOpts)
			if err != nil {
				return o4e.RenderOutput{}, err
			}
			gx := int(penX + g.XOffset)
			gy := int(penY - g.YOffset)
			canvas.Composite(mask, gx, gy, ink)
			penX += g.XAdvance
			penY += g.YAdvance
		}
	}

	bitmap := &o4e.Bitmap{
		Width: opts.Width, Height: opts.Height,
		Format: o4e.PixelRGBA8, RowBytes: canvas.Img.Stride,
		Pixels: canvas.Img.Pix, Premultiplied: true,
	}
	out := o4e.RenderOutput{Bitmap: bitmap}
	if opts.Format == o4e.FormatPNG {
		var buf bytes.Buffer
		if err := canvas.EncodePNG(&buf); err != nil {
			return o4e.RenderOutput{}, errs.New(errs.Internal, "portable.Render", err)
		}
		out.PNG = buf.Bytes()
	}
	return out, nil
}

// EmitSVG shapes text and serializes every glyph as an SVG path.
func (b *Backend) EmitSVG(text string, font o4e.Font, opts o4e.SvgOptions) (string, error) {
	runs := segment.Segment(text, segment.Options{})
	svgOpts := svg.Options{Precision: opts.Precision, CollinearTolerance: opts.Tolerance}

	var body strings.Builder
	penX, penY := 0.0, 0.0
	maxWidth, maxHeight := 0.0, 0.0

	for _, run := range runs {
		face, key, err := b.resolveFace(font, run)
		if err != nil {
			return "", err
		}
		result, err := b.shapeWithFace(run, font, face, key)
		if err != nil {
			return "", err
		}

		ext := outline.New()
		for _, g := range result.Glyphs {
			o, err := ext.Extract(face, g.GlyphID, font.SizePx)
			if err != nil {
				return "", err
			}
			d := svg.PathData(flipY(o), svgOpts)
			if d != "" {
				fmt.Fprintf(&body, "<path fill=\"currentColor\" transform=\"translate(%s,%s)\" d=\"%s\"/>",
					formatCoord(penX+g.XOffset, opts.Precision), formatCoord(-penY-g.YOffset, opts.Precision), d)
			}
			penX += g.XAdvance
			penY += g.YAdvance
		}
		if penX > maxWidth {
			maxWidth = penX
		}
		if result.Ascent-result.Descent > maxHeight {
			maxHeight = result.Ascent - result.Descent
		}
	}

	var doc strings.Builder
	if err := svg.Document(&doc, maxWidth, maxHeight, body.String()); err != nil {
		return "", errs.New(errs.Internal, "portable.EmitSVG", err)
	}
	return doc.String(), nil
}

func formatCoord(v float64, precision int) string {
	if precision <= 0 {
		precision = 2
	}
	return fmt.Sprintf("%.*f", precision, v)
}

// shapeWithFace shapes run against face, caching the result by its ShapeKey.
func (b *Backend) shapeWithFace(run segment.Run, font o4e.Font, face *fontcache.Face, key fontcache.FaceKey) (o4e.ShapingResult, error) {
	shapeKey := fontcache.ShapeKey{
		Text: run.Text, Face: key,
		Direction: uint8(run.Direction), Script: string(run.Script),
		Language: run.Language, Features: canonicalizeFeatures(font.Features),
	}

	cached, err := fontcache.GetOrShape(b.cache, shapeKey, func() (shape.Result, error) {
		return b.shaper.Shape(shape.Input{
			Text: run.Text, Direction: shape.Direction(run.Direction),
			Script: string(run.Script), Language: run.Language,
			Size: font.SizePx, Face: face, Features: font.Features,
		})
	})
	if err != nil {
		return o4e.ShapingResult{}, err
	}
	return toShapingResult(cached, font, run.Start), nil
}

// toShapingResult converts a shape.Result into the public ShapingResult,
// rebasing each glyph's cluster from a byte offset within the run's own
// text (shape.Glyph.Cluster) to a byte offset into the original input
// string Segment was called with, per the documented cluster semantics.
func toShapingResult(r shape.Result, font o4e.Font, runStart int) o4e.ShapingResult {
	glyphs := make([]o4e.Glyph, len(r.Glyphs))
	for i, g := range r.Glyphs {
		glyphs[i] = o4e.Glyph{
			GlyphID: g.GID, Cluster: runStart + g.Cluster,
			XAdvance: g.XAdvance, YAdvance: g.YAdvance,
			XOffset: g.XOffset, YOffset: g.YOffset,
		}
	}
	return o4e.ShapingResult{
		Glyphs: glyphs, Text: r.Text, Font: font,
		Direction: o4e.Direction(r.Direction), Script: r.Script, Language: r.Language,
		Ascent: r.Ascent, Descent: r.Descent, Width: r.Width,
	}
}

// glyphMask returns the cached rasterized mask for one glyph, extracting and
// rasterizing its outline on a cache miss. Outlines are flipped from the
// font's Y-up convention to the canvas's Y-down convention before
// rasterization, so raster and outline keep the orientation their own tests
// assume (mask space matches outline space, unflipped).
func (b *Backend) glyphMask(face *fontcache.Face, key fontcache.FaceKey, gid uint32, sizePx float64, opts raster.Options) (*raster.Mask, error) {
	maskKey := fontcache.GlyphMaskKey{Face: key, GlyphID: gid, SizeQuantum: fontcache.QuantizeSize(sizePx)}
	return fontcache.GetOrRaster(b.cache, maskKey, func() (*raster.Mask, error) {
		ext := outline.New()
		o, err := ext.Extract(face, gid, sizePx)
		if err != nil {
			return nil, err
		}
		return raster.Rasterize(flipY(o), opts)
	})
}

// flipY returns a copy of o with every Y coordinate negated, converting
// between the font's ascender-up convention and the canvas's row-increases-
// downward convention.
func flipY(o *outline.Outline) *outline.Outline {
	if o == nil || o.IsEmpty() {
		return o
	}
	out := &outline.Outline{GID: o.GID, Advance: o.Advance, Segments: make([]outline.Segment, len(o.Segments))}
	for i, seg := range o.Segments {
		flipped := seg
		for j := range flipped.Points {
			flipped.Points[j].Y = -flipped.Points[j].Y
		}
		out.Segments[i] = flipped
	}
	out.Bounds = outline.Rect{
		MinX: o.Bounds.MinX, MaxX: o.Bounds.MaxX,
		MinY: -o.Bounds.MaxY, MaxY: -o.Bounds.MinY,
	}
	return out
}

func fillBackground(c *raster.Canvas, bg o4e.Color) {
	fill := color.NRGBA{R: bg.R, G: bg.G, B: bg.B, A: bg.A}
	b := c.Img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c.Img.Set(x, y, fill)
		}
	}
}

// resolveFace loads the primary Face for font, falling back through the
// font database's script-ordered chain when the primary face is missing
// coverage for any rune in run's text (checked via Face.HasGlyph). One face
// is returned for the whole run; the run is not split at uncovered runes.
func (b *Backend) resolveFace(font o4e.Font, run segment.Run) (*fontcache.Face, fontcache.FaceKey, error) {
	face, key, err := b.loadFace(font)
	if err == nil && coversAll(face, run.Text) {
		return face, key, nil
	}

	for _, family := range b.db.FallbackChain(language.Script(string(run.Script)), font.Weight, fontdb.Style(font.Style)) {
		fbFont := font
		fbFont.Family, fbFont.Path, fbFont.Bytes = family, "", nil
		fbFace, fbKey, fbErr := b.loadFace(fbFont)
		if fbErr == nil && coversAll(fbFace, run.Text) {
			return fbFace, fbKey, nil
		}
	}

	if err == nil {
		// Primary face resolved but doesn't fully cover the run and no
		// fallback did either; render with it anyway (best effort, .notdef
		// glyphs for uncovered runes) rather than failing a request that
		// bound a concrete font.
		return face, key, nil
	}
	return nil, fontcache.FaceKey{}, err
}

// coversAll reports whether face has a glyph for every non-whitespace rune
// in text. An empty face (nil) never covers.
func coversAll(face *fontcache.Face, text string) bool {
	if face == nil {
		return false
	}
	for _, r := range text {
		if segment.IsWhitespace(r) {
			continue
		}
		if !face.HasGlyph(r) {
			return false
		}
	}
	return true
}

func (b *Backend) loadFace(font o4e.Font) (*fontcache.Face, fontcache.FaceKey, error) {
	key := faceKeyFor(font)
	switch {
	case len(font.Bytes) > 0:
		f, err := b.cache.GetFaceBytes(key, font.Bytes)
		return f, key, err
	case font.Path != "":
		path, _, err := b.db.Resolve(fontdb.Source{Path: font.Path})
		if err != nil {
			return nil, key, err
		}
		f, err := b.cache.GetFaceFile(key, path)
		return f, key, err
	case font.Family != "":
		path, data, err := b.db.Resolve(fontdb.Source{Family: font.Family, Weight: font.Weight, Style: fontdb.Style(font.Style)})
		if err != nil {
			return nil, key, err
		}
		if len(data) > 0 {
			f, err := b.cache.GetFaceBytes(key, data)
			return f, key, err
		}
		f, err := b.cache.GetFaceFile(key, path)
		return f, key, err
	default:
		return nil, key, errs.New(errs.InvalidOption, "portable.loadFace", nil)
	}
}

func faceKeyFor(font o4e.Font) fontcache.FaceKey {
	weight := font.Weight
	if weight == 0 {
		weight = 400
	}
	return fontcache.FaceKey{
		SourceID: sourceID(font),
		Weight:   weight,
		Style:    uint8(font.Style),
		Axes:     canonicalizeAxes(font.Variations),
	}
}

func sourceID(font o4e.Font) string {
	switch {
	case len(font.Bytes) > 0:
		h := fnv.New64a()
		_, _ = h.Write(font.Bytes)
		return fmt.Sprintf("bytes:%x", h.Sum64())
	case font.Path != "":
		return "path:" + font.Path
	default:
		return "family:" + font.Family
	}
}

func canonicalizeAxes(axes map[string]float64) string {
	if len(axes) == 0 {
		return ""
	}
	tags := make([]string, 0, len(axes))
	for tag := range axes {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	var b strings.Builder
	for i, tag := range tags {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%s=%g", tag, axes[tag])
	}
	return b.String()
}

func canonicalizeFeatures(features map[string]bool) string {
	if len(features) == 0 {
		return ""
	}
	tags := make([]string, 0, len(features))
	for tag := range features {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	var b strings.Builder
	for i, tag := range tags {
		if i > 0 {
			b.WriteByte(';')
		}
		v := 0
		if features[tag] {
			v = 1
		}
		fmt.Fprintf(&b, "%s=%d", tag, v)
	}
	return b.String()
}
