package paint

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

func TestExportMask_Quadrant(t *testing.T) {
	overlay := raster.New(8, 6)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			overlay.SetNRGBA(x, y, color.NRGBA{10, 200, 30, MaskThreshold + 1})
		}
	}
	// Barely visible strokes below the threshold do not count.
	overlay.SetNRGBA(7, 5, color.NRGBA{255, 0, 0, MaskThreshold})

	mask := ExportMask(overlay)
	require.Equal(t, overlay.Bounds(), mask.Bounds())
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			want := color.NRGBA{0, 0, 0, 255}
			if x < 4 && y < 3 {
				want = color.NRGBA{255, 255, 255, 255}
			}
			require.Equal(t, want, mask.NRGBAAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestExportMerged(t *testing.T) {
	base := raster.Filled(3, 1, color.NRGBA{0, 0, 255, 255})
	overlay := raster.New(3, 1)
	overlay.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	overlay.SetNRGBA(1, 0, color.NRGBA{255, 0, 0, 128})

	out, err := ExportMerged(base, overlay)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{128, 0, 127, 255}, out.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, out.NRGBAAt(2, 0))

	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, base.NRGBAAt(0, 0), "base must not change")
}

func TestExportMerged_SizeMismatch(t *testing.T) {
	_, err := ExportMerged(raster.New(2, 2), raster.New(3, 2))
	assert.ErrorIs(t, err, ErrSizeMismatch)
}
