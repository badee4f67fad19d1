package halftone

import "math"

// This file holds the palette alteration helpers spec.md §9 calls out as
// optional: they mutate a built Palette's colors in a perceptual space and
// rebuild the mapping, rather than building a new Palette from scratch.
// None of them sit on the per-pixel hot path.

// oklabToRGB inverts rgbToOklab (colorspace.go): unwarp L, invert the
// second (LMS->Oklab) matrix, cube the result back into LMS, invert the
// first (RGB^2->LMS) matrix, then undo the gamma-2 approximation with a
// square root. Output channels are clamped to [0,1].
func oklabToRGB(warpedL, a, b float64) (r, g, bl float64) {
	l := oklabUnwarp(warpedL)

	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	lc := l_ * l_ * l_
	mc := m_ * m_ * m_
	sc := s_ * s_ * s_

	rl := 4.0767416621*lc - 3.3077115913*mc + 0.2309699292*sc
	gl := -1.2684380046*lc + 2.6097574011*mc - 0.3413193965*sc
	bll := -0.0041960863*lc - 0.7034186147*mc + 1.7076147010*sc

	clamp01 := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	r = math.Sqrt(clamp01(rl))
	g = math.Sqrt(clamp01(gl))
	bl = math.Sqrt(clamp01(bll))
	return
}

// rebuildAfterAlteration refreshes a Palette's reverse map and dense
// mapping after its colors have been mutated in place. It always uses the
// full O(32768*N) scan: alteration is a rare, non-hot-path operation, so
// there is no reason to prefer the neighbor-expansion fill's speed over
// its fixed-point guarantee.
func rebuildAfterAlteration(p *Palette) {
	p.reverseMap = make(map[uint32]int, p.colorCount)
	for i := 0; i < p.colorCount; i++ {
		if _, ok := p.reverseMap[p.colors[i]]; !ok {
			p.reverseMap[p.colors[i]] = i
		}
	}
	p.fillMappingFull()
}

// AlterLightness shifts every active palette color's Oklab lightness by
// delta and rebuilds the mapping in place.
func (p *Palette) AlterLightness(delta float64) { alterColorsLightness(p, delta) }

// AlterOklab shifts every active palette color by (dl, da, db) directly in
// Oklab space and rebuilds the mapping in place.
func (p *Palette) AlterOklab(dl, da, db float64) { alterColorsOklab(p, dl, da, db) }

// HueShift rotates every active palette color's Oklab chroma plane by
// degrees and rebuilds the mapping in place.
func (p *Palette) HueShift(degrees float64) { hueShift(p, degrees) }

// alterColorsLightness shifts every active color's Oklab lightness by
// delta (roughly in [-1, 1] units of warped L) and rebuilds the mapping.
// The transparent slot, if reserved, is left untouched.
func alterColorsLightness(p *Palette, delta float64) {
	initColorTables()
	start := 0
	if p.hasTransparent {
		start = 1
	}
	for i := start; i < p.colorCount; i++ {
		r, g, b, al := unpackRGBA(p.colors[i])
		key := shrink(r, g, b)
		l := oklabL[key] + delta
		if l < 0 {
			l = 0
		}
		nr, ng, nb := oklabToRGB(l, oklabA[key], oklabB[key])
		p.colors[i] = packRGBA(clampUnit(nr), clampUnit(ng), clampUnit(nb), al)
	}
	rebuildAfterAlteration(p)
}

// alterColorsOklab shifts every active color by (dl, da, db) directly in
// Oklab space and rebuilds the mapping.
func alterColorsOklab(p *Palette, dl, da, db float64) {
	initColorTables()
	start := 0
	if p.hasTransparent {
		start = 1
	}
	for i := start; i < p.colorCount; i++ {
		r, g, b, al := unpackRGBA(p.colors[i])
		key := shrink(r, g, b)
		l := oklabL[key] + dl
		if l < 0 {
			l = 0
		}
		nr, ng, nb := oklabToRGB(l, oklabA[key]+da, oklabB[key]+db)
		p.colors[i] = packRGBA(clampUnit(nr), clampUnit(ng), clampUnit(nb), al)
	}
	rebuildAfterAlteration(p)
}

// hueShift rotates every active color's Oklab (a, b) chroma plane by
// degrees and rebuilds the mapping. Lightness is unaffected.
func hueShift(p *Palette, degrees float64) {
	initColorTables()
	theta := degrees * math.Pi / 180
	sinT, cosT := math.Sin(theta), math.Cos(theta)

	start := 0
	if p.hasTransparent {
		start = 1
	}
	for i := start; i < p.colorCount; i++ {
		r, g, b, al := unpackRGBA(p.colors[i])
		key := shrink(r, g, b)
		a, bb := oklabA[key], oklabB[key]
		na := a*cosT - bb*sinT
		nb := a*sinT + bb*cosT
		nr, ng, nbl := oklabToRGB(oklabL[key], na, nb)
		p.colors[i] = packRGBA(clampUnit(nr), clampUnit(ng), clampUnit(nbl), al)
	}
	rebuildAfterAlteration(p)
}

func clampUnit(v float64) uint8 {
	v = v * 255.0
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
