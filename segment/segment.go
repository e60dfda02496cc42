// Package segment splits Unicode text into script-, direction- and
// break-coherent runs, grounded on BuiltinSegmenter
// (github.com/gogpu/gg/text), which already combines golang.org/x/text's
// bidi paragraph algorithm with a script-detection pass in exactly this
// shape. Segment does not split runs by font coverage, since that needs a
// fallback chain and a loaded face — concerns that belong to
// fontdb/fontcache, not here; SplitByCoverage splits a run given a
// caller-supplied coverage test.
package segment

import (
	"unicode"

	"golang.org/x/text/unicode/bidi"
)

// Direction is a resolved paragraph direction.
type Direction uint8

const (
	LTR Direction = iota
	RTL
)

// Run is a contiguous substring sharing script, direction, and (until a
// caller splits it further) font binding.
type Run struct {
	Text      string
	Start     int // byte offset into the original text
	End       int
	Direction Direction
	Script    Script
	Level     int // bidi embedding level; even = LTR, odd = RTL
	Language  string
	HardBreak bool // true if this run ends at a forced line break
}

// RuneCount returns the number of Unicode code points in the run's text.
func (r Run) RuneCount() int {
	n := 0
	for range r.Text {
		n++
	}
	return n
}

// Options configures Segment.
type Options struct {
	// BaseDirection seeds the bidi algorithm's paragraph default when no
	// strong directional character establishes one.
	BaseDirection Direction
}

// Segment splits text into runs: script changes, bidi-level changes and
// hard line breaks terminate a run (grapheme and word boundaries are not
// computed); runs are emitted in logical (paragraph) order. An empty input
// returns nil. The concatenation of every Run.Text equals text exactly.
func Segment(text string, opts Options) []Run {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	levels := computeBidiLevels(text, runes, opts.BaseDirection)
	scripts := detectScripts(runes)
	scripts = resolveInheritedScripts(scripts)
	hardBreaks := detectHardBreaks(runes)
	return buildRuns(text, runes, levels, scripts, hardBreaks)
}

func computeBidiLevels(text string, runes []rune, base Direction) []int {
	levels := make([]int, len(runes))

	defaultDir := bidi.Neutral
	if base == RTL {
		defaultDir = bidi.RightToLeft
	}

	var p bidi.Paragraph
	if _, err := p.SetString(text, bidi.DefaultDirection(defaultDir)); err != nil {
		return levels
	}
	ordering, err := p.Order()
	if err != nil {
		return levels
	}

	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		startRune, endRune := run.Pos()
		lvl := 0
		if run.Direction() == bidi.RightToLeft {
			lvl = 1
		}
		for j := startRune; j <= endRune && j < len(levels); j++ {
			levels[j] = lvl
		}
	}
	return levels
}

func detectScripts(runes []rune) []Script {
	scripts := make([]Script, len(runes))
	for i, r := range runes {
		scripts[i] = DetectScript(r)
	}
	return scripts
}

// resolveInheritedScripts propagates a concrete script across Inherited
// (combining-mark) code points, then resolves remaining Common code points
// from surrounding context, mirroring BuiltinSegmenter.resolveInheritedScripts.
func resolveInheritedScripts(scripts []Script) []Script {
	resolved := make([]Script, len(scripts))
	copy(resolved, scripts)

	last := ScriptCommon
	for i := range resolved {
		switch {
		case resolved[i] == ScriptInherited:
			resolved[i] = last
		case resolved[i] != ScriptCommon:
			last = resolved[i]
		}
	}

	last = ScriptCommon
	for i := range resolved {
		if resolved[i] != ScriptCommon {
			if resolved[i] != ScriptInherited {
				last = resolved[i]
			}
			continue
		}
		next := nextConcreteScript(resolved, i+1)
		resolved[i] = resolveCommonScript(last, next)
	}
	return resolved
}

func nextConcreteScript(scripts []Script, start int) Script {
	for j := start; j < len(scripts); j++ {
		if scripts[j] != ScriptCommon && scripts[j] != ScriptInherited {
			return scripts[j]
		}
	}
	return ScriptCommon
}

func resolveCommonScript(prev, next Script) Script {
	switch {
	case prev != ScriptCommon && prev == next:
		return prev
	case prev != ScriptCommon && next == ScriptCommon:
		return prev
	case prev == ScriptCommon && next != ScriptCommon:
		return next
	default:
		return ScriptCommon
	}
}

// detectHardBreaks marks, per rune index, whether that code point ends a
// forced line break: LF, CR, LINE SEPARATOR, or PARAGRAPH SEPARATOR. A CR
// immediately followed by LF is one break, marked on the LF so the pair
// stays together in the run it terminates rather than splitting into a run
// holding only CR and a following run holding only LF.
func detectHardBreaks(runes []rune) []bool {
	breaks := make([]bool, len(runes))
	for i, r := range runes {
		switch r {
		case '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				continue
			}
			breaks[i] = true
		case '\n', ' ', ' ':
			breaks[i] = true
		}
	}
	return breaks
}

func buildRuns(text string, runes []rune, levels []int, scripts []Script, hardBreaks []bool) []Run {
	runs := make([]Run, 0, 4)
	byteOffsets := computeByteOffsets(text, runes)

	level := levels[0]
	script := scripts[0]
	start := 0

	flush := func(end int, hard bool) {
		runs = append(runs, makeRun(text, byteOffsets, start, end, level, script, hard))
		start = end
	}

	for i := 1; i < len(runes); i++ {
		if hardBreaks[i-1] {
			flush(i, true)
			level = levels[i]
			script = scripts[i]
			continue
		}
		if levels[i] == level && scripts[i] == script {
			continue
		}
		flush(i, false)
		level = levels[i]
		script = scripts[i]
	}
	flush(len(runes), len(hardBreaks) > 0 && hardBreaks[len(hardBreaks)-1])

	return runs
}

func computeByteOffsets(text string, runes []rune) []int {
	offsets := make([]int, len(runes)+1)
	offset := 0
	for i, r := range runes {
		offsets[i] = offset
		offset += len(string(r))
	}
	offsets[len(runes)] = len(text)
	return offsets
}

func makeRun(text string, byteOffsets []int, startRune, endRune, level int, script Script, hard bool) Run {
	startByte := byteOffsets[startRune]
	endByte := byteOffsets[endRune]

	dir := LTR
	if level%2 == 1 {
		dir = RTL
	}

	return Run{
		Text:      text[startByte:endByte],
		Start:     startByte,
		End:       endByte,
		Direction: dir,
		Script:    script,
		Level:     level,
		HardBreak: hard,
	}
}

// IsWhitespace reports whether r is a space code point, used by callers
// deciding whether a run boundary may fall inside a word.
func IsWhitespace(r rune) bool { return unicode.IsSpace(r) }

// IsPunctuation reports whether r is a punctuation code point.
func IsPunctuation(r rune) bool { return unicode.IsPunct(r) }

// SplitByCoverage further splits run at the first code point not covered by
// cover (a caller-supplied predicate, typically the selected face's
// HasGlyph), recursing with the remainder checked against the same
// predicate. If cover never returns false, run is returned unchanged. This
// realizes spec step 6 without segment depending on fontdb or fontcache.
func SplitByCoverage(run Run, cover func(r rune) bool) []Run {
	var out []Run
	text := run.Text
	offset := run.Start
	for len(text) > 0 {
		uncoveredAt := -1
		idx := 0
		for _, r := range text {
			if !cover(r) {
				uncoveredAt = idx
				break
			}
			idx += len(string(r))
		}
		if uncoveredAt == -1 {
			out = append(out, sliceRun(run, text, offset))
			break
		}
		if uncoveredAt > 0 {
			out = append(out, sliceRun(run, text[:uncoveredAt], offset))
		}
		// Find the extent of the uncovered rune itself so it forms its own
		// single-codepoint run rather than being silently dropped.
		_, size := decodeRune(text[uncoveredAt:])
		out = append(out, sliceRun(run, text[uncoveredAt:uncoveredAt+size], offset+uncoveredAt))
		offset += uncoveredAt + size
		text = text[uncoveredAt+size:]
	}
	return out
}

func sliceRun(run Run, text string, start int) Run {
	r := run
	r.Text = text
	r.Start = start
	r.End = start + len(text)
	return r
}

func decodeRune(s string) (rune, int) {
	for _, r := range s {
		return r, len(string(r))
	}
	return 0, 0
}
