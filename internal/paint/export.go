package paint

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

// MaskThreshold is the overlay alpha above which a pixel counts as touched.
const MaskThreshold = 10

// ErrSizeMismatch is returned when base and overlay dimensions differ.
var ErrSizeMismatch = errors.New("overlay and base sizes differ")

var (
	maskOn  = color.NRGBA{255, 255, 255, 255}
	maskOff = color.NRGBA{0, 0, 0, 255}
)

// ExportMerged flattens overlay onto base with straight-alpha source-over and
// returns the result as a new buffer.
func ExportMerged(base, overlay raster.PixelBuffer) (*raster.Buffer, error) {
	if base.Bounds().Size() != overlay.Bounds().Size() {
		return nil, fmt.Errorf("%w: base %v, overlay %v", ErrSizeMismatch, base.Bounds().Size(), overlay.Bounds().Size())
	}
	out := raster.Copy(base)
	ov := raster.Copy(overlay)
	for i := 0; i < len(out.Pix); i += 4 {
		over(out.Pix[i:i+4:i+4], ov.Pix[i:i+4:i+4], 1)
	}
	return out, nil
}

// ExportMask returns an opaque buffer the size of overlay: white where overlay
// alpha exceeds MaskThreshold, black elsewhere.
func ExportMask(overlay raster.PixelBuffer) *raster.Buffer {
	ov := raster.Copy(overlay)
	out := raster.New(ov.Width, ov.Height)
	for i := 0; i < len(ov.Pix); i += 4 {
		c := maskOff
		if ov.Pix[i+3] > MaskThreshold {
			c = maskOn
		}
		out.Pix[i+0], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return out
}

// over composites src onto dst in place. opacity scales src alpha.
func over(dst, src []uint8, opacity float64) {
	sa := float64(src[3]) / 255 * opacity
	if sa <= 0 {
		return
	}
	da := float64(dst[3]) / 255
	oa := sa + da*(1-sa)
	if oa <= 0 {
		dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, 0
		return
	}
	for c := 0; c < 3; c++ {
		v := (float64(src[c])*sa + float64(dst[c])*da*(1-sa)) / oa
		dst[c] = raster.Clamp(v)
	}
	dst[3] = raster.Clamp(oa * 255)
}
