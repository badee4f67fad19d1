package halftone

// chaoticSeed derives the initial 64-bit LCG state from the frame sequence
// number, so that consecutive frames of an animation get visibly distinct
// noise instead of a static pattern (spec.md §4.5).
func chaoticSeed(seq int) uint64 {
	s := uint64(seq)*0x9E3779B97F4A7C15 + 0xD1B54A32D192ED03
	s ^= s >> 33
	s *= 0xFF51AFD7ED558CCD
	s ^= s >> 33
	return s
}

// lcgNext advances a 64-bit linear congruential generator (constants from
// Knuth's MMIX) and returns the new state.
func lcgNext(state uint64) uint64 {
	return state*6364136223846793005 + 1442695040888963407
}

// xlcgNext advances a xorshift-mixed LCG variant, giving a second,
// decorrelated stream derived from the same state word.
func xlcgNext(state uint64) uint64 {
	state ^= state << 13
	state ^= state >> 7
	state ^= state << 17
	return state*2862933555777941757 + 3037000493
}

func draw01(state uint64) float64 {
	return float64(state>>11) / float64(1<<53)
}

// stepChaoticNoise implements the CHAOTIC_NOISE algorithm: a running 64-bit
// state folds in the RGB of every visited pixel (via hashState), and the
// per-pixel offset is the mean of three LCG/XLCG draws scaled by one plus a
// cubed blue-noise sample, deliberately making the output depend on pixel order
// and content (the "distressed" aesthetic spec.md §9 calls out).
func stepChaoticNoise(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	p := run.p
	s := effectiveOrderedStrength(p) * 40

	state := run.chaoticState
	s1 := lcgNext(state)
	s2 := xlcgNext(s1)
	s3 := lcgNext(s2)

	draw1 := draw01(s1) - 0.5
	draw2 := draw01(s2) - 0.5
	draw3 := draw01(s3) - 0.5

	bn := float64(noiseAt(&triBlueNoiseA, x, y)) / 127.0
	bnCubed := bn * bn * bn

	offset := (draw1 + draw2 + draw3) / 3.0 * (1 + bnCubed)

	pr := adjustLinear(r, int(offset*s))
	pg := adjustLinear(g, int(offset*s*0.9))
	pb := adjustLinear(b, int(offset*s*1.1))
	idx := lookupIndex(p, pr, pg, pb)

	run.chaoticState = hashState(s3, r, g, b)
	return idx
}

// hashState folds pixel content into the running chaotic state, so the next
// pixel's draws depend on what was just visited.
func hashState(state uint64, r, g, b uint8) uint64 {
	state ^= uint64(r) * 0x100000001B3
	state = lcgNext(state)
	state ^= uint64(g) * 0x100000001B3
	state = lcgNext(state)
	state ^= uint64(b) * 0x100000001B3
	return xlcgNext(state)
}
