package halftone

import (
	"math"
	"sync"
)

// noiseGridDim is the side length of each triangular blue-noise grid; the
// grids are conceptually 64x64 but stored flat, 4096 entries.
const noiseGridDim = 64
const noiseGridLen = noiseGridDim * noiseGridDim

// Three independent triangular blue-noise grids, one per channel, plus the
// derived multiplier grids used by the noise-weighted Burkes variants
// (Oceanic and Seaside).
var (
	triBlueNoiseA [noiseGridLen]int8
	triBlueNoiseB [noiseGridLen]int8
	triBlueNoiseC [noiseGridLen]int8

	triBlueNoiseMultipliers [noiseGridLen]float64

	// Per-channel multiplier grids, used by Seaside (spec.md §4.4: "three
	// distinct blue-noise multiplier grids"). triBlueNoiseMultipliers
	// above is the single grid Oceanic uses for all channels and Seaside
	// uses for red.
	triBlueNoiseMultipliersB [noiseGridLen]float64
	triBlueNoiseMultipliersC [noiseGridLen]float64
)

// triangularInverseCDF maps a uniform sample p in [0,1) to a sample of the
// symmetric triangular distribution on [-1,1], peaked at 0. This is the
// inverse CDF of "sum of two uniforms minus one".
func triangularInverseCDF(p float64) float64 {
	if p < 0.5 {
		return math.Sqrt(2*p) - 1
	}
	return 1 - math.Sqrt(2*(1-p))
}

// rankGrid scatters the integers [0, noiseGridLen) across a noiseGridDim x
// noiseGridDim grid using a 2D low-discrepancy (R2) sequence seeded by
// offsetX/offsetY, so that nearby grid cells tend to receive ranks that are
// far apart. That spatial property is what gives the resulting noise its
// blue (high-frequency-weighted) spectrum, as opposed to plain white noise
// which would assign ranks to cells independent of position.
func rankGrid(offsetX, offsetY float64) []int {
	const (
		g  = 1.32471795724474602596
		a1 = 1 / g
		a2 = 1 / (g * g)
	)

	type point struct {
		x, y int
		rank int
	}
	pts := make([]point, noiseGridLen)
	for i := range pts {
		fx := offsetX + a1*float64(i)
		fy := offsetY + a2*float64(i)
		fx -= math.Floor(fx)
		fy -= math.Floor(fy)
		pts[i] = point{
			x: int(fx * noiseGridDim),
			y: int(fy * noiseGridDim),
		}
	}

	grid := make([]int, noiseGridLen)
	filled := make([]bool, noiseGridLen)
	seq := 0
	for _, p := range pts {
		idx := p.y*noiseGridDim + p.x
		// Collisions from the quantization above are resolved by linear
		// probing, which keeps the sequence dense while preserving the
		// low-discrepancy spatial spread almost everywhere.
		for filled[idx] {
			idx = (idx + 1) % noiseGridLen
		}
		filled[idx] = true
		grid[idx] = seq
		seq++
	}
	return grid
}

func buildNoiseGrid(dst *[noiseGridLen]int8, offsetX, offsetY float64) {
	ranks := rankGrid(offsetX, offsetY)
	for i, r := range ranks {
		p := (float64(r) + 0.5) / float64(noiseGridLen)
		v := triangularInverseCDF(p) * 127.0
		dst[i] = int8(math.Round(v))
	}
}

var noiseTablesOnce sync.Once

// initNoiseTables builds the three triangular blue-noise grids and the
// three derived multiplier grids exactly once.
func initNoiseTables() {
	noiseTablesOnce.Do(func() {
		buildNoiseGrid(&triBlueNoiseA, 0.13, 0.71)
		buildNoiseGrid(&triBlueNoiseB, 0.41, 0.07)
		buildNoiseGrid(&triBlueNoiseC, 0.89, 0.37)

		for i := 0; i < noiseGridLen; i++ {
			triBlueNoiseMultipliers[i] = math.Exp((float64(triBlueNoiseA[i]) + 0.5) / 128.0)
			triBlueNoiseMultipliersB[i] = math.Exp((float64(triBlueNoiseB[i]) + 0.5) / 128.0)
			triBlueNoiseMultipliersC[i] = math.Exp((float64(triBlueNoiseC[i]) + 0.5) / 128.0)
		}
	})
}

// noiseAt looks up grid value at pixel coordinates (x, y), wrapping modulo
// the 64x64 grid as the spec requires (x&63, y&63).
func noiseAt(grid *[noiseGridLen]int8, x, y int) int8 {
	return grid[(y&(noiseGridDim-1))*noiseGridDim+(x&(noiseGridDim-1))]
}

func multiplierAt(x, y int) float64 {
	return triBlueNoiseMultipliers[(y&(noiseGridDim-1))*noiseGridDim+(x&(noiseGridDim-1))]
}

func multiplierBAt(x, y int) float64 {
	return triBlueNoiseMultipliersB[(y&(noiseGridDim-1))*noiseGridDim+(x&(noiseGridDim-1))]
}

func multiplierCAt(x, y int) float64 {
	return triBlueNoiseMultipliersC[(y&(noiseGridDim-1))*noiseGridDim+(x&(noiseGridDim-1))]
}
