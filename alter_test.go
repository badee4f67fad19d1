package halftone

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlterLightnessPreservesMappingInvariants(t *testing.T) {
	colors := []uint32{0x202020FF, 0x808080FF, 0xC0C0C0FF, 0xFFFFFFFF}
	p, err := NewExactPalette(colors)
	require.NoError(t, err)

	p.AlterLightness(0.1)
	assertMappingInvariants(t, p)
}

func TestAlterLightnessDarkensWhenNegative(t *testing.T) {
	colors := []uint32{0x808080FF, 0xC0C0C0FF}
	p, err := NewExactPalette(colors)
	require.NoError(t, err)

	before := make([]uint32, p.ColorCount())
	for i := range before {
		before[i] = p.ColorAt(i)
	}

	p.AlterLightness(-0.2)

	for i := 0; i < p.ColorCount(); i++ {
		br, bg, bb, _ := unpackRGBA(before[i])
		ar, ag, ab, _ := unpackRGBA(p.ColorAt(i))
		beforeSum := int(br) + int(bg) + int(bb)
		afterSum := int(ar) + int(ag) + int(ab)
		assert.LessOrEqual(t, afterSum, beforeSum, "darkening should not brighten a color")
	}
}

func TestAlterLightnessSkipsTransparentSlot(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{})

	p, err := NewAnalyzedPalette(img, 150, 16)
	require.NoError(t, err)
	require.True(t, p.HasTransparentSlot())
	require.Equal(t, uint32(0), p.ColorAt(0))

	p.AlterLightness(0.3)
	assert.Equal(t, uint32(0), p.ColorAt(0), "the reserved transparent slot should be untouched by alteration")
	assertMappingInvariants(t, p)
}

func TestAlterOklabPreservesMappingInvariants(t *testing.T) {
	colors := []uint32{0x112233FF, 0x445566FF, 0x778899FF, 0xAABBCCFF}
	p, err := NewExactPalette(colors)
	require.NoError(t, err)

	p.AlterOklab(0.0, 0.02, -0.01)
	assertMappingInvariants(t, p)
}

func TestHueShiftPreservesMappingInvariantsAndIsPeriodic(t *testing.T) {
	colors := []uint32{0xFF0000FF, 0x00FF00FF, 0x0000FFFF, 0x808080FF}
	p, err := NewExactPalette(colors)
	require.NoError(t, err)

	p.HueShift(37)
	assertMappingInvariants(t, p)

	before := make([]uint32, p.ColorCount())
	for i := range before {
		before[i] = p.ColorAt(i)
	}

	p.HueShift(360)
	for i := 0; i < p.ColorCount(); i++ {
		br, bg, bb, _ := unpackRGBA(before[i])
		ar, ag, ab, _ := unpackRGBA(p.ColorAt(i))
		assert.InDelta(t, int(br), int(ar), 2)
		assert.InDelta(t, int(bg), int(ag), 2)
		assert.InDelta(t, int(bb), int(ab), 2)
	}
}

func TestOklabRGBRoundTrip(t *testing.T) {
	initColorTables()
	for _, c := range []uint32{0x000000FF, 0xFFFFFFFF, 0xFF8040FF, 0x336699FF} {
		r, g, b, _ := unpackRGBA(c)
		key := shrink(r, g, b)
		nr, ng, nb := oklabToRGB(oklabL[key], oklabA[key], oklabB[key])
		assert.InDelta(t, float64(r)/255, nr, 0.02)
		assert.InDelta(t, float64(g)/255, ng, 0.02)
		assert.InDelta(t, float64(b)/255, nb, 0.02)
	}
}
