package halftone

import (
	"math"
	"sort"
)

// thresholdMatrix16 is the 4x4 clustered-dot ordered matrix used by Pattern
// to pick among 16 Knoll-style candidate quantizations. Values are a
// permutation of 0..15, arranged so that consecutive ranks cluster together
// around the center of the tile. This is the same matrix shape documented
// in the dithering literature as "clustered-dot 4x4" and used for
// Bayer-adjacent ordered
// dithering.
var thresholdMatrix16 = [16]int{
	12, 5, 6, 13,
	4, 0, 1, 7,
	11, 3, 2, 8,
	15, 10, 9, 14,
}

// bayerMatrix8x8 is a classic Bayer ordered-dither matrix, generated with
// the standard bit-interleaving construction (values 0..63).
var bayerMatrix8x8 = buildBayerMatrix8x8()

func buildBayerMatrix8x8() [64]int {
	// Recursive doubling construction: M(2n) built from four copies of
	// M(n), each scaled by 4 and offset by 0, 2, 3, 1 for the top-left,
	// top-right, bottom-left and bottom-right quadrants.
	cur := []int{0}
	curSize := 1
	for curSize < 8 {
		next := make([]int, curSize*curSize*4)
		ns := curSize * 2
		quadOrder := [4]int{0, 2, 3, 1}
		for qi, q := range quadOrder {
			for y := 0; y < curSize; y++ {
				for x := 0; x < curSize; x++ {
					qy := qi / 2
					qx := qi % 2
					next[(y+qy*curSize)*ns+(x+qx*curSize)] = cur[y*curSize+x]*4 + q
				}
			}
		}
		cur = next
		curSize = ns
	}
	var out [64]int
	copy(out[:], cur)
	return out
}

// effectiveOrderedStrength is the shared softening formula used by the
// ordered/noise dither families: smaller palettes (smaller populationBias)
// get a gentler dither, per the rationale in spec.md §4.4.
func effectiveOrderedStrength(p *Palette) float64 {
	return p.DitherStrength * p.populationBias
}

func lookupIndex(p *Palette, r, g, b uint8) byte {
	return p.mapping[shrink(r, g, b)]
}

// --- Pattern (Knoll 4x4) ---

func stepPattern(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	p := run.p
	s := effectiveOrderedStrength(p) * 64

	type candidate struct {
		idx byte
		l   float64
	}
	cands := make([]candidate, 16)
	for i := 0; i < 16; i++ {
		e := (float64(i)+0.5)/16.0 - 0.5
		k := int(e * s)
		pr := adjustLinear(r, k)
		pg := adjustLinear(g, k)
		pb := adjustLinear(b, k)
		idx := lookupIndex(p, pr, pg, pb)
		cr, cg, cb, _ := unpackRGBA(p.colors[idx])
		key := shrink(cr, cg, cb)
		cands[i] = candidate{idx: idx, l: oklabL[key]}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].l < cands[j].l })

	slot := thresholdMatrix16[(x%4)+(y%4)*4]
	return cands[slot].idx
}

// --- Gourd (Bayer 8x8) ---

func stepGourd(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	p := run.p
	s := effectiveOrderedStrength(p)
	m := float64(bayerMatrix8x8[(x%8)+(y%8)*8])
	k := int((m - 31.5) * s)
	pr := adjustLinear(r, k)
	pg := adjustLinear(g, k)
	pb := adjustLinear(b, k)
	return lookupIndex(p, pr, pg, pb)
}

// --- Loaf (2-level checker) ---

func stepLoaf(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	p := run.p
	s := effectiveOrderedStrength(p)
	k := int(16 * s)
	if (x+y)&1 == 0 {
		k = -k
	}
	pr := adjustLinear(r, k)
	pg := adjustLinear(g, k)
	pb := adjustLinear(b, k)
	return lookupIndex(p, pr, pg, pb)
}

// --- GradientNoise (Jimenez interleaved gradient noise) ---

func frac(v float64) float64 {
	return v - math.Floor(v)
}

func stepGradientNoise(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	p := run.p
	s := effectiveOrderedStrength(p)

	// Baseline quantization of the unperturbed pixel, used so the noise
	// scales with the residual quantization error rather than the raw
	// channel value (spec.md: "s * (r - used_r)").
	baseIdx := lookupIndex(p, r, g, b)
	ur, ug, ub, _ := unpackRGBA(p.colors[baseIdx])

	ign := frac(52.98*frac(0.06711056*float64(x)+0.00583715*float64(y))) - 0.5

	pr := adjustLinear(r, int(ign*s*float64(int(r)-int(ur))))
	pg := adjustLinear(g, int(ign*s*float64(int(g)-int(ug))))
	pb := adjustLinear(b, int(ign*s*float64(int(b)-int(ub))))
	return lookupIndex(p, pr, pg, pb)
}

// --- Roberts (R2 sub-random) ---

func triangleWave(t float64) float64 {
	t = frac(t)
	return 2*math.Abs(2*(t-math.Floor(t+0.5))) - 1
}

func stepRoberts(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	p := run.p
	s := effectiveOrderedStrength(p) * 24
	theta := frac((0.608*float64(x) + 0.285*float64(y)) / 8388608.0)

	pr := adjustLinear(r, int(triangleWave(theta)*s))
	pg := adjustLinear(g, int(triangleWave(theta+1.0/3.0)*s))
	pb := adjustLinear(b, int(triangleWave(theta+2.0/3.0)*s))
	return lookupIndex(p, pr, pg, pb)
}

// --- BlueNoise (triangular blue noise, per-channel grids) ---

func stepBlueNoise(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	p := run.p
	s := effectiveOrderedStrength(p)
	adj := 0
	if (x+y)&1 == 0 {
		adj = 6
	} else {
		adj = -6
	}

	clampNoise := func(n int8) float64 {
		v := int(n) + adj
		if v < -100 {
			v = -100
		}
		if v > 100 {
			v = 100
		}
		return float64(v)
	}

	pr := adjustLinear(r, int(clampNoise(noiseAt(&triBlueNoiseA, x, y))*s))
	pg := adjustLinear(g, int(clampNoise(noiseAt(&triBlueNoiseB, x, y))*s))
	pb := adjustLinear(b, int(clampNoise(noiseAt(&triBlueNoiseC, x, y))*s))
	return lookupIndex(p, pr, pg, pb)
}
