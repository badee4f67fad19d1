package halftone

import (
	"image"
	"image/color"
	"image/png"
	"io"
)

// EncodePNG dithers img against pal using algo and writes the result as an
// indexed (palette-mode) PNG to w. This is the sibling bitstream adapter
// to the GIF Encoder: the quantization and dithering stages are identical,
// only the outer framing differs, and here that framing is delegated
// entirely to the standard library's filter+DEFLATE encoder rather than
// hand-rolled (the GIF side needs a custom LZW framer because GIF's
// sub-block discipline has no stdlib equivalent; PNG's does).
func EncodePNG(w io.Writer, img image.Image, pal *Palette, algo Algorithm, flipY bool) error {
	initColorTables()
	initNoiseTables()

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	d := &Ditherer{Palette: pal, Algorithm: algo, FlipY: flipY}
	indexed, used := d.Dither(img)

	remap, trimmed := trimmedPalette(pal, used)
	pm := image.NewPaletted(image.Rect(0, 0, width, height), trimmed)
	for i, idx := range indexed {
		pm.Pix[i] = remap[idx]
	}

	return png.Encode(w, pm)
}

// trimmedPalette builds the stdlib color.Palette and an old-index to
// new-index remap table covering only the entries used marks as actually
// emitted by Dither, so an indexed PNG never carries more colors (and bit
// depth) than the frame needs.
func trimmedPalette(pal *Palette, used [256]bool) (remap [256]byte, trimmed color.Palette) {
	n := pal.ColorCount()
	for i := 0; i < n; i++ {
		if !used[i] {
			continue
		}
		r, g, b, a := unpackRGBA(pal.ColorAt(i))
		remap[i] = byte(len(trimmed))
		trimmed = append(trimmed, color.NRGBA{R: r, G: g, B: b, A: a})
	}
	if len(trimmed) == 0 {
		r, g, b, a := unpackRGBA(pal.ColorAt(0))
		trimmed = append(trimmed, color.NRGBA{R: r, G: g, B: b, A: a})
	}
	return remap, trimmed
}
