package halftone

import "math"

// DifferenceFunc is a pluggable color-difference metric. It returns a
// non-negative scalar comparable only to other outputs of the same
// DifferenceFunc; the two metrics below use different internal scalings and
// must never be compared against each other.
type DifferenceFunc func(r1, g1, b1, a1, r2, g2, b2, a2 uint8) float64

// transparentMismatch reports whether exactly one of the two colors is on
// the transparent side of the alpha threshold used throughout this package
// (alpha < 0x80). When true, the metric must return +Inf so a transparent
// palette slot never matches a real color and vice versa.
func transparentMismatch(a1, a2 uint8) bool {
	return (a1 < 0x80) != (a2 < 0x80)
}

// oklabDifference is the default, quality-oriented metric: squared Euclidean
// distance in the warped Oklab space used by Palette.analyze, scaled by
// 150000 to keep it in a convenient numeric range relative to the linear
// metric.
func oklabDifference(r1, g1, b1, a1, r2, g2, b2, a2 uint8) float64 {
	if transparentMismatch(a1, a2) {
		return math.Inf(1)
	}
	k1 := shrink(r1, g1, b1)
	k2 := shrink(r2, g2, b2)
	dl := oklabL[k1] - oklabL[k2]
	da := oklabA[k1] - oklabA[k2]
	db := oklabB[k1] - oklabB[k2]
	return (dl*dl + da*da + db*db) * 150000
}

// linearDifference is the fast, build-time metric: squared Euclidean
// distance in toLinearLUT-linearized RGB, normalized to [0, 1] per channel
// and scaled by 2^32. Its values are orders of magnitude larger than
// oklabDifference's (black vs. white is 3*2^32 here, about 150000 there).
func linearDifference(r1, g1, b1, a1, r2, g2, b2, a2 uint8) float64 {
	if transparentMismatch(a1, a2) {
		return math.Inf(1)
	}
	dr := float64(toLinearLUT[r1]) - float64(toLinearLUT[r2])
	dg := float64(toLinearLUT[g1]) - float64(toLinearLUT[g2])
	db := float64(toLinearLUT[b1]) - float64(toLinearLUT[b2])
	const scale = 4294967296.0 / (1023.0 * 1023.0) // normalize LUT domain, then apply 2^32
	return (dr*dr + dg*dg + db*db) * scale
}
