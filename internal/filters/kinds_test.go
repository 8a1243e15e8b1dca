package filters

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

// gradientBuffer returns an opaque buffer with a diagonal colour gradient.
func gradientBuffer(w, h int) *raster.Buffer {
	b := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(1, w-1)),
				G: uint8(y * 255 / max(1, h-1)),
				B: 128,
				A: 255,
			})
		}
	}
	return b
}

func TestKinds_AllRegistered(t *testing.T) {
	require.Len(t, Kinds(), 15)
	for _, k := range Kinds() {
		_, ok := Lookup(k)
		assert.True(t, ok, "kind %s", k)
	}
	_, ok := Lookup("sharpen")
	assert.False(t, ok)
}

func TestKinds_PureAndAlphaPreserving(t *testing.T) {
	src := gradientBuffer(20, 12)
	for i := 3; i < len(src.Pix); i += 8 {
		src.Pix[i] = 200
	}
	for _, k := range Kinds() {
		t.Run(string(k), func(t *testing.T) {
			fn, _ := Lookup(k)
			before := src.Clone()
			first := fn(src)
			second := fn(src)

			assert.True(t, before.Equal(src), "filter must not mutate its input")
			assert.True(t, first.Equal(second), "filter must be deterministic")
			for i := 3; i < len(src.Pix); i += 4 {
				require.Equal(t, src.Pix[i], first.Pix[i], "alpha at %d", i)
			}
			res, err := raster.Diff(src, first)
			require.NoError(t, err)
			assert.False(t, res.Identical, "filter should change a gradient")
		})
	}
}

func TestKinds_KnownValues(t *testing.T) {
	tests := []struct {
		kind Kind
		in   color.NRGBA
		want color.NRGBA
	}{
		{Invert, color.NRGBA{10, 20, 30, 255}, color.NRGBA{245, 235, 225, 255}},
		{Sepia, color.NRGBA{76, 76, 76, 255}, color.NRGBA{103, 91, 71, 255}},
		{HighContrast, color.NRGBA{100, 128, 200, 255}, color.NRGBA{86, 128, 236, 255}},
		{Noir, color.NRGBA{128, 128, 128, 255}, color.NRGBA{128, 128, 128, 255}},
		{Vivid, color.NRGBA{128, 128, 128, 255}, color.NRGBA{128, 128, 128, 255}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			fn, _ := Lookup(tt.kind)
			got := fn(raster.Filled(1, 1, tt.in)).NRGBAAt(0, 0)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRadialFilters_CentreVersusCorner(t *testing.T) {
	src := raster.Filled(101, 61, color.NRGBA{200, 200, 200, 255})

	for _, k := range []Kind{Vignette, FadeToBlack} {
		fn, _ := Lookup(k)
		out := fn(src)
		centre := out.NRGBAAt(50, 30)
		corner := out.NRGBAAt(0, 0)
		assert.InDelta(t, 200, int(centre.R), 1, "%s centre", k)
		assert.Less(t, int(corner.R), 100, "%s corner", k)
	}

	fn, _ := Lookup(FadeToBlack)
	assert.LessOrEqual(t, int(fn(src).NRGBAAt(0, 0).R), 5)
}

func TestRadialFilters_ResolutionIndependent(t *testing.T) {
	fn, _ := Lookup(Vignette)
	small := fn(raster.Filled(70, 45, color.NRGBA{180, 180, 180, 255}))
	large := fn(raster.Filled(700, 450, color.NRGBA{180, 180, 180, 255}))

	// The same normalised position darkens by the same amount.
	assert.InDelta(t, int(small.NRGBAAt(17, 11).R), int(large.NRGBAAt(175, 112).R), 3)
}

func TestBlurRadius(t *testing.T) {
	assert.Equal(t, 1.0, blurRadius(100, 50))
	assert.Equal(t, 2.25, blurRadius(700, 450))
	assert.Equal(t, 10.0, blurRadius(4000, 2000))
}
