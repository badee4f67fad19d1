package halftone

import (
	"bufio"
	"errors"
	"image"
	"io"
	"math"

	"golang.org/x/image/draw"
)

// encoderState tracks the Encoder's two-state lifecycle (spec.md §4.5):
// IDLE before Start/after Finish, STARTED in between.
type encoderState int

const (
	stateIdle encoderState = iota
	stateStarted
)

// defaultAdmissionThreshold is the analyze() threshold used when an
// Encoder builds its own palette and the caller hasn't supplied one.
const defaultAdmissionThreshold = 150

// Encoder orchestrates per-frame palette selection, dithering, and
// delegation to the GIF bitstream adapter (gif_bitstream.go). It mirrors
// the teacher's GIFEncoder: a small struct of setters plus a
// Start/AddFrame/Finish lifecycle, adapted from three-method streaming to
// this package's state machine and error-kind contract.
type Encoder struct {
	// Palette is used verbatim for every frame if non-nil at the time the
	// first frame is added. Otherwise the Encoder analyzes (analyze or
	// analyzeFast, depending on FastAnalysis) each frame independently:
	// the first frame's palette becomes the animation's Global Color
	// Table, and any later frame whose own analyzed palette doesn't match
	// it exactly gets its own Local Color Table (spec.md §4.5).
	Palette *Palette

	algorithm      Algorithm
	ditherStrength float64
	flipY          bool
	delayMS        int
	dispose        int // < 0 means auto (0 if opaque, 2 if transparent)
	repeat         int // < 0 means no Netscape loop extension
	fastAnalysis   bool

	state           encoderState
	sink            io.Writer
	width           int
	height          int
	sizeSet         bool
	firstFrame      bool
	seq             int
	suppliedPalette bool     // Palette was non-nil when the first frame was added
	globalPalette   *Palette // the palette backing the Global Color Table
}

// NewEncoder returns an Encoder with spec.md §6's documented defaults:
// Overboard dithering, strength 1, flipY true, 16ms delay, auto disposal,
// infinite loop, fast per-frame analysis.
func NewEncoder() *Encoder {
	return &Encoder{
		algorithm:      Overboard,
		ditherStrength: 1,
		flipY:          true,
		delayMS:        16,
		dispose:        -1,
		repeat:         0,
		fastAnalysis:   true,
		state:          stateIdle,
	}
}

func (e *Encoder) SetDitherAlgorithm(a Algorithm) { e.algorithm = a }
func (e *Encoder) SetDitherStrength(s float64)    { e.ditherStrength = s }
func (e *Encoder) SetFlipY(v bool)                { e.flipY = v }
func (e *Encoder) SetDelay(ms int)                { e.delayMS = ms }
func (e *Encoder) SetDispose(code int)            { e.dispose = code }
func (e *Encoder) SetRepeat(count int)            { e.repeat = count }
func (e *Encoder) SetFastAnalysis(v bool)         { e.fastAnalysis = v }

// Start writes the GIF signature and transitions the Encoder to STARTED.
// Calling Start while already STARTED is a KindState error.
func (e *Encoder) Start(sink io.Writer) error {
	if e.state != stateIdle {
		return newErr(KindState, "Start called while already started", nil)
	}
	if err := writeHeader(sink); err != nil {
		e.state = stateIdle
		return newErr(KindWrite, "writing GIF header", err)
	}
	e.sink = sink
	e.state = stateStarted
	e.sizeSet = false
	e.firstFrame = true
	e.seq = 0
	e.suppliedPalette = false
	e.globalPalette = nil
	return nil
}

// AddFrame dithers img against the Encoder's palette and appends it to the
// stream. The first call fixes the frame size and, if img's bounds are
// degenerate (width or height < 1), falls back to 320x240 and reports that
// with a non-fatal *Error{Kind: KindSize} alongside the frame it still
// encoded — the caller may inspect it but isn't required to (spec.md §7).
// Later calls with a differently sized image are rescaled into the locked
// size with golang.org/x/image/draw's bilinear scaler before dithering.
func (e *Encoder) AddFrame(img image.Image) error {
	if e.state != stateStarted {
		return newErr(KindState, "AddFrame called before Start", nil)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var sizeErr error
	if !e.sizeSet {
		if w < 1 || h < 1 {
			sizeErr = newErr(KindSize, "first frame had non-positive width or height, falling back to 320x240", nil)
			w, h = 320, 240
		}
		e.width, e.height = w, h
		e.sizeSet = true
		e.suppliedPalette = e.Palette != nil
	} else if w != e.width || h != e.height {
		img = rescale(img, e.width, e.height)
	}

	pal, hasLocalTable := e.framePalette(img)

	d := &Ditherer{Palette: pal, Algorithm: e.algorithm, FlipY: e.flipY, Seq: e.seq}
	d.Palette.DitherStrength = e.ditherStrength
	indexed, _ := d.Dither(img)

	dispose := e.dispose
	if dispose < 0 {
		if pal.HasTransparentSlot() {
			dispose = 2
		} else {
			dispose = 0
		}
	}
	transparentIndex := -1
	if pal.HasTransparentSlot() {
		transparentIndex = 0
	}
	bits := paletteSizeBits(pal.ColorCount())

	if e.firstFrame {
		gctBits := paletteSizeBits(e.globalPalette.ColorCount())
		if err := writeLSD(e.sink, e.width, e.height, gctBits); err != nil {
			return e.abort(err)
		}
		if err := writeColorTable(e.sink, e.globalPalette, gctBits); err != nil {
			return e.abort(err)
		}
		if e.repeat >= 0 {
			if err := writeNetscapeLoopExt(e.sink, e.repeat); err != nil {
				return e.abort(err)
			}
		}
	}

	delayCs := int(math.Round(float64(e.delayMS) / 10))
	if err := writeGraphicControlExt(e.sink, dispose, delayCs, transparentIndex); err != nil {
		return e.abort(err)
	}
	if err := writeImageDescriptor(e.sink, 0, 0, e.width, e.height, hasLocalTable, bits); err != nil {
		return e.abort(err)
	}
	if hasLocalTable {
		if err := writeColorTable(e.sink, pal, bits); err != nil {
			return e.abort(err)
		}
	}
	if err := encodePixels(e.sink, indexed, pal.ColorCount()); err != nil {
		return e.abort(err)
	}

	e.firstFrame = false
	e.seq++
	return sizeErr
}

// framePalette returns the Palette this frame should be dithered and
// written against, and whether that palette needs its own Local Color
// Table (true whenever it differs from the animation's Global Color
// Table). A caller-supplied Palette is always used verbatim for every
// frame, with no Local Color Table. Otherwise the first frame's analyzed
// palette becomes the Global Color Table, and every later frame is
// analyzed independently and compared against it.
func (e *Encoder) framePalette(img image.Image) (pal *Palette, hasLocalTable bool) {
	if e.suppliedPalette {
		if e.firstFrame {
			e.globalPalette = e.Palette
		}
		return e.Palette, false
	}
	if e.firstFrame {
		pal = e.buildFramePalette(img)
		e.globalPalette = pal
		e.Palette = pal
		return pal, false
	}
	pal = e.buildFramePalette(img)
	if palettesEqual(pal, e.globalPalette) {
		return e.globalPalette, false
	}
	return pal, true
}

// buildFramePalette analyzes img into a fresh Palette for a single frame.
// NewFastAnalyzedPalette/NewAnalyzedPalette always return a usable palette
// (falling back to the built-in default on degenerate input) alongside any
// non-fatal *Error{Kind: KindPalette}, so that error is intentionally
// dropped here: building a working palette for one frame of an animation
// must never abort the stream.
func (e *Encoder) buildFramePalette(img image.Image) *Palette {
	var pal *Palette
	if e.fastAnalysis {
		pal, _ = NewFastAnalyzedPalette(img, defaultAdmissionThreshold, MaxColors)
	} else {
		pal, _ = NewAnalyzedPalette(img, defaultAdmissionThreshold, MaxColors)
	}
	return pal
}

// palettesEqual reports whether a and b have identical active color
// tables in the same order.
func palettesEqual(a, b *Palette) bool {
	if a.ColorCount() != b.ColorCount() {
		return false
	}
	for i := 0; i < a.ColorCount(); i++ {
		if a.ColorAt(i) != b.ColorAt(i) {
			return false
		}
	}
	return true
}

// abort wraps a sink write failure as a KindWrite error and returns the
// Encoder to IDLE, per spec.md §7: the current frame is abandoned and the
// caller is responsible for discarding the sink.
func (e *Encoder) abort(cause error) error {
	e.state = stateIdle
	return newErr(KindWrite, "writing frame", cause)
}

// Finish writes the GIF trailer, flushes the sink if it is a
// *bufio.Writer, and returns the Encoder to IDLE.
func (e *Encoder) Finish() error {
	if e.state != stateStarted {
		return newErr(KindState, "Finish called before Start", nil)
	}
	if err := writeTrailer(e.sink); err != nil {
		e.state = stateIdle
		return newErr(KindWrite, "writing GIF trailer", err)
	}
	if bw, ok := e.sink.(*bufio.Writer); ok {
		if err := bw.Flush(); err != nil {
			e.state = stateIdle
			return newErr(KindWrite, "flushing sink", err)
		}
	}
	e.state = stateIdle
	e.sizeSet = false
	e.firstFrame = true
	e.seq = 0
	e.suppliedPalette = false
	e.globalPalette = nil
	return nil
}

// Write is the one-shot convenience entry point: it sets the frame delay
// from fps, then drives Start/AddFrame.../Finish over frames.
func (e *Encoder) Write(sink io.Writer, frames []image.Image, fps float64) error {
	if fps > 0 {
		e.delayMS = int(math.Round(1000 / fps))
	}
	if err := e.Start(sink); err != nil {
		return err
	}
	var sizeErr error
	for _, f := range frames {
		if err := e.AddFrame(f); err != nil {
			var halftoneErr *Error
			if errors.As(err, &halftoneErr) && halftoneErr.Kind == KindSize {
				// Non-fatal (spec.md §7): the frame was still encoded
				// against the 320x240 fallback. Keep going and surface
				// the first such warning to the caller after Finish.
				if sizeErr == nil {
					sizeErr = err
				}
				continue
			}
			return err
		}
	}
	if err := e.Finish(); err != nil {
		return err
	}
	return sizeErr
}

// rescale resizes img to width x height using bilinear interpolation, for
// animations whose frames don't all share the first frame's dimensions.
func rescale(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}
