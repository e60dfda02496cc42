// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

// AlphaRuns is a run-length-encoded coverage accumulator for one scanline.
// It is efficient for paths with long horizontal spans of constant coverage:
// instead of storing one alpha value per pixel, it stores runs of
// consecutive pixels sharing a value, following tiny-skia's alpha_runs.rs.
type AlphaRuns struct {
	runs   []uint16
	alpha  []uint8
	width  int
	offset int
}

// NewAlphaRuns creates a run buffer for a scanline of the given pixel width.
func NewAlphaRuns(width int) *AlphaRuns {
	if width <= 0 {
		width = 1
	}
	ar := &AlphaRuns{
		runs:  make([]uint16, width+1),
		alpha: make([]uint8, width+1),
		width: width,
	}
	ar.Reset()
	return ar
}

// Reset reinitializes the buffer for a new scanline in O(1) time.
func (ar *AlphaRuns) Reset() {
	ar.offset = 0
	if ar.width > 65535 {
		ar.runs[0] = 65535
	} else {
		ar.runs[0] = uint16(ar.width)
	}
	ar.runs[ar.width] = 0
	ar.alpha[0] = 0
}

// Width returns the scanline width.
func (ar *AlphaRuns) Width() int { return ar.width }

func catchOverflow(alpha uint16) uint8 {
	if alpha > 256 {
		alpha = 256
	}
	return uint8(alpha - (alpha >> 8))
}

// Add accumulates coverage starting at x: startAlpha for the fractional
// left pixel, middleCount full-coverage pixels, then endAlpha for the
// fractional right pixel. Multiple calls accumulate, which is what makes
// non-zero winding fills correct.
func (ar *AlphaRuns) Add(x int, startAlpha uint8, middleCount int, endAlpha uint8) {
	if x < 0 || x >= ar.width {
		return
	}
	ar.addWithMaxValue(x, startAlpha, middleCount, endAlpha, 255)
}

// AddWithCoverage is Add with an explicit maximum per-pixel contribution,
// used to accumulate one fractional-weight pass of a supersampled fill
// (e.g. 255/4 per vertical sub-scanline) instead of always saturating to
// full opacity in one call.
func (ar *AlphaRuns) AddWithCoverage(x int, startAlpha uint8, middleCount int, endAlpha uint8, maxValue uint8) {
	if x < 0 || x >= ar.width {
		return
	}
	ar.addWithMaxValue(x, startAlpha, middleCount, endAlpha, maxValue)
}

func (ar *AlphaRuns) addWithMaxValue(x int, startAlpha uint8, middleCount int, endAlpha uint8, maxValue uint8) {
	runsOffset := ar.offset
	alphaOffset := ar.offset
	lastAlphaOffset := ar.offset
	x -= ar.offset

	if startAlpha != 0 {
		ar.breakRun(runsOffset, x, 1)
		tmp := uint16(ar.alpha[alphaOffset+x]) + uint16(startAlpha)
		ar.alpha[alphaOffset+x] = catchOverflow(tmp)
		runsOffset += x + 1
		alphaOffset += x + 1
		x = 0
	}

	if middleCount > 0 {
		ar.breakRun(runsOffset, x, middleCount)
		alphaOffset += x
		runsOffset += x
		x = 0

		remaining := middleCount
		for remaining > 0 {
			a := catchOverflow(uint16(ar.alpha[alphaOffset]) + uint16(maxValue))
			ar.alpha[alphaOffset] = a

			n := int(ar.runs[runsOffset])
			if n <= 0 {
				break
			}
			if n > remaining {
				n = remaining
			}
			alphaOffset += n
			runsOffset += n
			remaining -= n
		}
		lastAlphaOffset = alphaOffset
	}

	if endAlpha != 0 {
		ar.breakRun(runsOffset, x, 1)
		alphaOffset += x
		ar.alpha[alphaOffset] = catchOverflow(uint16(ar.alpha[alphaOffset]) + uint16(endAlpha))
		lastAlphaOffset = alphaOffset
	}

	ar.offset = lastAlphaOffset
}

func (ar *AlphaRuns) breakRun(runsOffset, x, count int) {
	if count <= 0 {
		return
	}
	origX := x

	ro := runsOffset
	ao := runsOffset
	for x > 0 {
		n := int(ar.runs[ro])
		if n <= 0 {
			return
		}
		if x < n {
			ar.alpha[ao+x] = ar.alpha[ao]
			ar.runs[ro] = uint16(x)
			ar.runs[ro+x] = uint16(n - x)
			break
		}
		ro += n
		ao += n
		x -= n
	}

	ro = runsOffset + origX
	ao = runsOffset + origX
	x = count
	for {
		n := int(ar.runs[ro])
		if n <= 0 {
			break
		}
		if x < n {
			ar.alpha[ao+x] = ar.alpha[ao]
			ar.runs[ro] = uint16(x)
			ar.runs[ro+x] = uint16(n - x)
			break
		}
		x -= n
		if x == 0 {
			break
		}
		ro += n
		ao += n
	}
}

// CopyTo writes the scanline's coverage values into dst, which must have at
// least Width() elements.
func (ar *AlphaRuns) CopyTo(dst []uint8) {
	if len(dst) < ar.width {
		return
	}
	x := 0
	for x < ar.width {
		n := int(ar.runs[x])
		if n <= 0 {
			break
		}
		alpha := ar.alpha[x]
		for i := 0; i < n && x+i < ar.width; i++ {
			dst[x+i] = alpha
		}
		x += n
	}
}

// SetOffset sets the offset used by the next Add call; 0 starts a new scanline.
func (ar *AlphaRuns) SetOffset(offset int) { ar.offset = offset }
