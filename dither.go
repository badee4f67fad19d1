package halftone

import "image"

// Algorithm names one of the ~18 dithering families described in spec.md
// §4.4, plus None. Each has a fixed, documented strength formula and a
// perturb/update pair; see dither_ordered.go, dither_diffusion.go, and
// dither_chaotic.go for the implementations.
type Algorithm int

const (
	None Algorithm = iota
	Pattern
	Gourd
	Loaf
	GradientNoise
	Roberts
	BlueNoise
	ChaoticNoise
	Diffusion
	Scatter
	Neue
	Dodgy
	Wren
	WrenOriginal
	Woven
	Burkes
	Oceanic
	Seaside
	Overboard
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "None"
	case Pattern:
		return "Pattern"
	case Gourd:
		return "Gourd"
	case Loaf:
		return "Loaf"
	case GradientNoise:
		return "GradientNoise"
	case Roberts:
		return "Roberts"
	case BlueNoise:
		return "BlueNoise"
	case ChaoticNoise:
		return "ChaoticNoise"
	case Diffusion:
		return "Diffusion"
	case Scatter:
		return "Scatter"
	case Neue:
		return "Neue"
	case Dodgy:
		return "Dodgy"
	case Wren:
		return "Wren"
	case WrenOriginal:
		return "WrenOriginal"
	case Woven:
		return "Woven"
	case Burkes:
		return "Burkes"
	case Oceanic:
		return "Oceanic"
	case Seaside:
		return "Seaside"
	case Overboard:
		return "Overboard"
	default:
		return "Unknown"
	}
}

// ditherRun carries the state of a single Dither call: the palette being
// written through, the output dimensions, and any algorithm-local state
// (the running chaotic-noise LCG seed, mostly). It is never reused across
// calls, unlike the Palette's scratch rows which it wraps.
type ditherRun struct {
	p      *Palette
	width  int
	height int
	flipY  bool

	chaoticState uint64
}

// stepFunc computes the palette index for one pixel and performs whatever
// bookkeeping (error diffusion, noise state update) that algorithm needs
// before returning. x, y are in emitted (output) coordinates; r, g, b, a are
// the source pixel already read at the flipY-adjusted row.
type stepFunc func(run *ditherRun, x, y int, r, g, b, a uint8) byte

// rowBeginFunc is called once per output row, before any pixel in that row
// is stepped. Only the error-diffusion family needs it (to rotate the
// scratch rows per spec.md §4.4's "error-diffusion contract").
type rowBeginFunc func(run *ditherRun, y int)

type algorithmImpl struct {
	step     stepFunc
	rowBegin rowBeginFunc // nil if not needed
}

var algorithmTable = map[Algorithm]algorithmImpl{
	None:          {step: stepNone},
	Pattern:       {step: stepPattern},
	Gourd:         {step: stepGourd},
	Loaf:          {step: stepLoaf},
	GradientNoise: {step: stepGradientNoise},
	Roberts:       {step: stepRoberts},
	BlueNoise:     {step: stepBlueNoise},
	ChaoticNoise:  {step: stepChaoticNoise},
	Diffusion:     {step: stepDiffusion, rowBegin: rowBeginDiffusion},
	Scatter:       {step: stepScatter, rowBegin: rowBeginDiffusion},
	Neue:          {step: stepNeue, rowBegin: rowBeginDiffusion},
	Dodgy:         {step: stepDodgy, rowBegin: rowBeginDiffusion},
	Wren:          {step: stepWren, rowBegin: rowBeginDiffusion},
	WrenOriginal:  {step: stepWrenOriginal, rowBegin: rowBeginDiffusion},
	Woven:         {step: stepWoven, rowBegin: rowBeginDiffusion},
	Burkes:        {step: stepBurkes, rowBegin: rowBeginDiffusion},
	Oceanic:       {step: stepOceanic, rowBegin: rowBeginDiffusion},
	Seaside:       {step: stepSeaside, rowBegin: rowBeginDiffusion},
	Overboard:     {step: stepOverboard, rowBegin: rowBeginDiffusion},
}

// Ditherer dithers images against a Palette using one of the named
// Algorithms. It is cheap to construct and is typically created once per
// Encoder (see frame.go) or reused directly by callers who only need a
// single still image dithered.
type Ditherer struct {
	// Palette supplies the color table, mapping, difference metric, and
	// diffusion scratch rows.
	Palette *Palette

	// Algorithm selects one of the named dithering families. The zero
	// value is None.
	Algorithm Algorithm

	// FlipY controls whether source row 0 is read as the last emitted
	// row. Default false here; Encoder defaults it to true per spec.md §6.
	FlipY bool

	// Seq is the frame sequence number. Only ChaoticNoise consults it, to
	// keep each frame's noise distinct (spec.md §4.5).
	Seq int
}

// clampByte clamps an int to [0, 255].
func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Dither produces one indexed-pixel byte per pixel of img (row-major,
// width*height bytes), along with the set of palette indices that were
// actually emitted. img's bounds determine width/height; the caller is
// responsible for having already resized img to the Encoder's locked frame
// size, if any (see frame.go).
func (d *Ditherer) Dither(img image.Image) (indexed []byte, used [256]bool) {
	initColorTables()
	initNoiseTables()

	b := img.Bounds()
	width := b.Dx()
	height := b.Dy()

	d.Palette.ensureScratch(width)

	impl, ok := algorithmTable[d.Algorithm]
	if !ok {
		impl = algorithmTable[None]
	}

	run := &ditherRun{p: d.Palette, width: width, height: height, flipY: d.FlipY}
	run.chaoticState = chaoticSeed(d.Seq)

	indexed = make([]byte, width*height)

	for y := 0; y < height; y++ {
		if impl.rowBegin != nil {
			impl.rowBegin(run, y)
		}
		srcY := y
		if d.FlipY {
			srcY = height - 1 - y
		}
		for x := 0; x < width; x++ {
			r32, g32, bl32, a32 := img.At(b.Min.X+x, b.Min.Y+srcY).RGBA()
			r, g, bl, a := uint8(r32>>8), uint8(g32>>8), uint8(bl32>>8), uint8(a32>>8)

			var idx byte
			if d.Palette.hasTransparent && a < 0x80 {
				idx = 0
			} else {
				idx = impl.step(run, x, y, r, g, bl, a)
			}
			indexed[y*width+x] = idx
			used[idx] = true
		}
	}
	return indexed, used
}

func stepNone(run *ditherRun, x, y int, r, g, b, a uint8) byte {
	return run.p.mapping[shrink(r, g, b)]
}
