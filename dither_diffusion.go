package halftone

import "math"

// rowBeginDiffusion rotates a Palette's scratch error rows (see
// Palette.beginRow) before the first pixel of a new output row is stepped.
// Every error-diffusion algorithm shares this same row lifecycle; only the
// kernel shape and any per-pixel error reshaping differ between them.
func rowBeginDiffusion(run *ditherRun, y int) {
	run.p.beginRow()
}

// diffTap is one weighted offset of a diffusion kernel: dx is relative to
// the pixel that produced the error, w is the fraction of that error
// carried to the tap. Per spec.md §4.4, diffusion direction is always
// relative to the emitted row order and is unaffected by FlipY, so dx is
// always expressed in emitted-coordinate terms.
type diffTap struct {
	dx int
	w  float64
}

// diffKernel splits a diffusion kernel into taps landing in the row still
// being produced (cur, always at dx>0: pixels to the right not yet
// visited) and taps landing in the next row (next).
type diffKernel struct {
	cur  []diffTap
	next []diffTap
}

var (
	// floydSteinbergKernel is the classic 4-neighbor kernel, weights
	// normalized to sum to 1 rather than carrying the historical /16
	// fixed-point scaling (spec.md's Design Notes permit this deviation).
	floydSteinbergKernel = diffKernel{
		cur:  []diffTap{{1, 7.0 / 16}},
		next: []diffTap{{-1, 3.0 / 16}, {0, 5.0 / 16}, {1, 1.0 / 16}},
	}

	// burkesKernel is the classic two-row Burkes kernel (weights /32).
	burkesKernel = diffKernel{
		cur:  []diffTap{{1, 8.0 / 32}, {2, 4.0 / 32}},
		next: []diffTap{{-2, 2.0 / 32}, {-1, 4.0 / 32}, {0, 8.0 / 32}, {1, 4.0 / 32}, {2, 2.0 / 32}},
	}

	// neueKernel is a wider, Stucki-shaped two-row kernel, used to give
	// Neue a softer, less directional grain than the plain FS kernel when
	// combined with its sigmoid error shaping.
	neueKernel = diffKernel{
		cur:  []diffTap{{1, 8.0 / 42}, {2, 4.0 / 42}},
		next: []diffTap{{-2, 2.0 / 42}, {-1, 4.0 / 42}, {0, 8.0 / 42}, {1, 4.0 / 42}, {2, 2.0 / 42}},
	}
)

// diffuse spreads (er, eg, eb) across a Palette's scratch rows according to
// kernel, clipping taps that fall outside [0, width).
func diffuse(p *Palette, x, width int, kernel diffKernel, er, eg, eb float64) {
	for _, t := range kernel.cur {
		nx := x + t.dx
		if nx < 0 || nx >= width {
			continue
		}
		p.curErrorR[nx] += er * t.w
		p.curErrorG[nx] += eg * t.w
		p.curErrorB[nx] += eb * t.w
	}
	for _, t := range kernel.next {
		nx := x + t.dx
		if nx < 0 || nx >= width {
			continue
		}
		p.nextErrorR[nx] += er * t.w
		p.nextErrorG[nx] += eg * t.w
		p.nextErrorB[nx] += eb * t.w
	}
}

// diffusionStep is the shared body of every error-diffusion algorithm: read
// back the accumulated error at x, perturb the source pixel by it (scaled
// by the palette's dither strength), quantize, then diffuse the resulting
// quantization error (optionally reshaped by shape) forward using kernel.
//
// shape may be nil, meaning the raw per-channel error is propagated
// unchanged (this is what "Diffusion", "Wren", "WrenOriginal", "Burkes"
// and "Oceanic" do; "Scatter", "Neue", "Dodgy" and "Overboard" apply a
// reshaping curve to the error before it is carried forward). "Woven" and
// "Seaside" do not go through diffusionStep.
func diffusionStep(run *ditherRun, x int, r, g, b uint8, kernel diffKernel, scale float64, shape func(float64) float64) byte {
	p := run.p
	s := p.DitherStrength * p.populationBias

	pr := clampByte(int(r) + int(math.Round(p.curErrorR[x]*s)))
	pg := clampByte(int(g) + int(math.Round(p.curErrorG[x]*s)))
	pb := clampByte(int(b) + int(math.Round(p.curErrorB[x]*s)))

	idx := lookupIndex(p, pr, pg, pb)
	ur, ug, ub, _ := unpackRGBA(p.colors[idx])

	er := float64(pr) - float64(ur)
	eg := float64(pg) - float64(ug)
	eb := float64(pb) - float64(ub)

	if shape != nil {
		er = shape(er)
		eg = shape(eg)
		eb = shape(eb)
	}

	if scale != 1 {
		er *= scale
		eg *= scale
		eb *= scale
	}

	diffuse(p, x, run.width, kernel, er, eg, eb)
	return idx
}

// --- Diffusion (Floyd-Steinberg) ---

func stepDiffusion(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	return diffusionStep(run, x, r, g, b, floydSteinbergKernel, 1, nil)
}

// --- Scatter (FS kernel, small-error amplifying sigmoid shape) ---

// scatterShape amplifies small residual errors (building visible grain in
// otherwise flat regions) while compressing large ones, per spec.md §4.4's
// "1.25/(0.25+|e|)" sigmoid.
func scatterShape(e float64) float64 {
	return e * (1.25 / (0.25 + math.Abs(e)))
}

func stepScatter(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	return diffusionStep(run, x, r, g, b, floydSteinbergKernel, 1, scatterShape)
}

// --- Neue (wider Stucki-shaped kernel, same sigmoid shape as Scatter) ---

func stepNeue(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	return diffusionStep(run, x, r, g, b, neueKernel, 1, scatterShape)
}

// --- Dodgy (FS kernel, hyperbolic dampening shape) ---

// dodgyShape dampens large errors hyperbolically instead of amplifying
// small ones, giving a softer, lower-contrast grain than Scatter.
func dodgyShape(e float64) float64 {
	return e / (0.5 + math.Abs(e))
}

func stepDodgy(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	return diffusionStep(run, x, r, g, b, floydSteinbergKernel, 1, dodgyShape)
}

// --- Wren / WrenOriginal ---
//
// spec.md describes the FS weights as scaled by "x^16 / sqrt(2048+x^2)"
// where x is the pixel's column. Applied literally with x the absolute
// pixel coordinate, this blows up to an enormous multiplier within a few
// hundred columns of any image of practical size. WrenOriginal keeps the
// literal formula, defensively clamped so it cannot produce Inf/NaN.
// Wren instead normalizes x to [0,1] across the row width, which keeps the
// same rising-toward-one-edge shape the formula describes without the
// blowup.
func wrenFactor(x, width int) float64 {
	if width <= 1 {
		return 0
	}
	u := float64(x) / float64(width-1)
	return math.Pow(u, 16) / math.Sqrt(2048+u*u)
}

func wrenOriginalFactor(x int) float64 {
	fx := float64(x)
	num := math.Pow(fx, 16)
	den := math.Sqrt(2048 + fx*fx)
	factor := num / den
	const clampMax = 1e6
	if math.IsInf(factor, 1) || factor > clampMax {
		return clampMax
	}
	if math.IsNaN(factor) {
		return 0
	}
	return factor
}

func stepWren(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	factor := 1 + wrenFactor(x, run.width)
	return diffusionStep(run, x, r, g, b, floydSteinbergKernel, factor, nil)
}

func stepWrenOriginal(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	factor := 1 + wrenOriginalFactor(x)
	return diffusionStep(run, x, r, g, b, floydSteinbergKernel, factor, nil)
}

// --- Woven (FS-shaped kernel, strength/bias-derived tap weight, plus a
// hashed positional offset independent of the propagated error) ---

// wovenOffset is a deterministic per-pixel hash in [-limit, limit], reusing
// the same interleaved-gradient-noise formula GradientNoise uses for its
// jitter, since the spec names no other generator for Woven's offset.
func wovenOffset(x, y int, limit float64) float64 {
	h := frac(52.98*frac(0.06711056*float64(x)+0.00583715*float64(y))) - 0.5
	return h * 2 * limit
}

func stepWoven(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	p := run.p
	s := p.DitherStrength * p.populationBias
	limit := 5 + 250/math.Sqrt(float64(p.colorCount)+1.5)
	noise := wovenOffset(x, y, limit)

	pr := clampByte(int(r) + int(math.Round(p.curErrorR[x]*s+noise)))
	pg := clampByte(int(g) + int(math.Round(p.curErrorG[x]*s+noise)))
	pb := clampByte(int(b) + int(math.Round(p.curErrorB[x]*s+noise)))

	idx := lookupIndex(p, pr, pg, pb)
	ur, ug, ub, _ := unpackRGBA(p.colors[idx])
	er := float64(pr) - float64(ur)
	eg := float64(pg) - float64(ug)
	eb := float64(pb) - float64(ub)

	w1 := 10 * math.Sqrt(p.DitherStrength) / (p.populationBias * p.populationBias)
	// w1 only ever scales this algorithm's own propagated error, so clamp
	// it to a sane range rather than let a tiny populationBias (very
	// small palettes) drive it to an extreme.
	if w1 > 8 {
		w1 = 8
	}
	kernel := diffKernel{
		cur:  []diffTap{{1, w1 / (w1 + 9)}},
		next: []diffTap{{-1, 3.0 / (w1 + 9)}, {0, 5.0 / (w1 + 9)}, {1, 1.0 / (w1 + 9)}},
	}
	diffuse(p, x, run.width, kernel, er, eg, eb)
	return idx
}

// --- Burkes ---

func stepBurkes(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	p := run.p
	s := p.DitherStrength
	scale := s * 0.6 / (0.19 + s)
	return diffusionStep(run, x, r, g, b, burkesKernel, scale, nil)
}

// --- Oceanic (Burkes kernel, single shared blue-noise modulation) ---

func stepOceanic(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	scale := multiplierAt(x, y)
	return diffusionStep(run, x, r, g, b, burkesKernel, scale, nil)
}

// --- Seaside (Burkes kernel, three distinct per-channel blue-noise grids) ---

func stepSeaside(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	p := run.p
	s := p.DitherStrength * p.populationBias

	pr := clampByte(int(r) + int(math.Round(p.curErrorR[x]*s)))
	pg := clampByte(int(g) + int(math.Round(p.curErrorG[x]*s)))
	pb := clampByte(int(b) + int(math.Round(p.curErrorB[x]*s)))

	idx := lookupIndex(p, pr, pg, pb)
	ur, ug, ub, _ := unpackRGBA(p.colors[idx])

	er := (float64(pr) - float64(ur)) * multiplierAt(x, y)
	eg := (float64(pg) - float64(ug)) * multiplierBAt(x, y)
	eb := (float64(pb) - float64(ub)) * multiplierCAt(x, y)

	diffuse(p, x, run.width, burkesKernel, er, eg, eb)
	return idx
}

// --- Overboard (Burkes kernel, 4-way noise-recipe selection) ---

// overboardShape reinterprets spec.md's "x*16/(45+|x|)" as an error-shaping
// curve (rather than a literal absolute-pixel-position formula, which
// would make the kernel depend on image width in a way nothing else in
// this family does): it amplifies mid-range errors hard while still
// saturating for extreme ones. It is one of the four recipes
// overboardRecipe selects between.
func overboardShape(e float64) float64 {
	return e * 16 / (45 + math.Abs(e))
}

// overboardRecipe is spec.md §4.4's "one of 4 different noise recipes
// chosen by (x<<1|y)&3": the Overboard saturating curve, Scatter's
// small-error-amplifying sigmoid, Dodgy's large-error-dampening curve, and
// the raw unshaped error, cycling across a 2x2 tile of neighboring pixels
// so adjacent pixels are shaped differently instead of all four sharing
// one curve.
func overboardRecipe(key int, e float64) float64 {
	switch key {
	case 0:
		return overboardShape(e)
	case 1:
		return scatterShape(e)
	case 2:
		return dodgyShape(e)
	default:
		return e
	}
}

func stepOverboard(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	key := (x<<1 | y) & 3
	return diffusionStep(run, x, r, g, b, burkesKernel, 1, func(e float64) float64 {
		return overboardRecipe(key, e)
	})
}
