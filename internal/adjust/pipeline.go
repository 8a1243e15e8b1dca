package adjust

import (
	"github.com/anthonynsimon/bild/convolution"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

var (
	sharpenKernel = &convolution.Kernel{
		Matrix: []float64{
			0, -1, 0,
			-1, 5, -1,
			0, -1, 0,
		},
		Width:  3,
		Height: 3,
	}
	boxKernel = &convolution.Kernel{
		Matrix: []float64{
			1.0 / 9, 1.0 / 9, 1.0 / 9,
			1.0 / 9, 1.0 / 9, 1.0 / 9,
			1.0 / 9, 1.0 / 9, 1.0 / 9,
		},
		Width:  3,
		Height: 3,
	}
)

// Apply runs the adjustment pipeline over a copy of src and returns the copy.
// src is never modified.
func Apply(src raster.PixelBuffer, s Settings) *raster.Buffer {
	out := raster.Copy(src)
	if out.Empty() {
		return out
	}
	s = s.Normalize()

	if s.Brightness != 100 || s.Contrast != 100 || s.Saturation != 100 {
		toneAndSaturation(out, s.Brightness/100, s.Contrast/100, s.Saturation/100)
	}
	if s.Sharpness != 100 {
		out = sharpness(out, s.Sharpness)
	}
	if s.Temperature != 0 {
		temperature(out, s.Temperature/100)
	}
	if s.Tint != 0 {
		tint(out, s.Tint/100)
	}
	if s.Highlights != 100 {
		luminanceWeighted(out, s.Highlights/100, highlightWeight)
	}
	if s.Shadows != 100 {
		luminanceWeighted(out, s.Shadows/100, shadowWeight)
	}
	if s.Vibrance != 100 {
		vibrance(out, s.Vibrance/100)
	}
	return out
}

// toneAndSaturation scales luminance by brightness, deviation from mid-gray by
// contrast and deviation from the pixel's own gray by saturation, rounding once.
func toneAndSaturation(b *raster.Buffer, brightness, contrast, saturation float64) {
	b.EachPixel(func(px []uint8) {
		r := float64(px[0]) * brightness
		g := float64(px[1]) * brightness
		bl := float64(px[2]) * brightness

		r = (r-128)*contrast + 128
		g = (g-128)*contrast + 128
		bl = (bl-128)*contrast + 128

		gray := raster.Luminance(r, g, bl)
		px[0] = raster.Clamp(gray + (r-gray)*saturation)
		px[1] = raster.Clamp(gray + (g-gray)*saturation)
		px[2] = raster.Clamp(gray + (bl-gray)*saturation)
	})
}

// sharpness convolves with the unsharp kernel (level > 100) or the 3×3 mean
// (level < 100) and blends the result with the original by |level-100|/100.
func sharpness(b *raster.Buffer, level float64) *raster.Buffer {
	kernel, amount := sharpenKernel, (level-100)/100
	if level < 100 {
		kernel, amount = boxKernel, (100-level)/100
	}

	conv := raster.FromImage(convolution.Convolve(b.Image(), kernel, &convolution.Options{
		Bias:      0,
		Wrap:      false,
		KeepAlpha: true,
	}))
	return blendRGB(b, conv, amount)
}

// blendRGB interpolates the colour channels of orig toward filtered by amount,
// keeping the alpha of orig.
func blendRGB(orig, filtered *raster.Buffer, amount float64) *raster.Buffer {
	out := orig.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i+0] = raster.Lerp(orig.Pix[i+0], filtered.Pix[i+0], amount)
		out.Pix[i+1] = raster.Lerp(orig.Pix[i+1], filtered.Pix[i+1], amount)
		out.Pix[i+2] = raster.Lerp(orig.Pix[i+2], filtered.Pix[i+2], amount)
	}
	return out
}

func temperature(b *raster.Buffer, t float64) {
	b.EachPixel(func(px []uint8) {
		px[0] = raster.Clamp(float64(px[0]) * (1 + t*0.5))
		px[2] = raster.Clamp(float64(px[2]) * (1 - t*0.5))
	})
}

func tint(b *raster.Buffer, t float64) {
	b.EachPixel(func(px []uint8) {
		px[0] = raster.Clamp(float64(px[0]) * (1 + t*0.3))
		px[1] = raster.Clamp(float64(px[1]) * (1 - t*0.4))
		px[2] = raster.Clamp(float64(px[2]) * (1 + t*0.3))
	})
}

func highlightWeight(l float64) float64 { return l / 255 }

func shadowWeight(l float64) float64 { return 1 - l/255 }

// luminanceWeighted moves each pixel's luminance toward L·factor in proportion
// to weight(L), then rescales R, G and B by the resulting ratio.
func luminanceWeighted(b *raster.Buffer, factor float64, weight func(float64) float64) {
	b.EachPixel(func(px []uint8) {
		r, g, bl := float64(px[0]), float64(px[1]), float64(px[2])
		l := raster.Luminance(r, g, bl)
		if l == 0 {
			return
		}
		target := l + (l*factor-l)*weight(l)
		ratio := target / l
		px[0] = raster.Clamp(r * ratio)
		px[1] = raster.Clamp(g * ratio)
		px[2] = raster.Clamp(bl * ratio)
	})
}

// vibrance boosts deviation from the pixel's channel average by a factor that
// shrinks as the pixel's saturation grows, so muted colours move most.
func vibrance(b *raster.Buffer, level float64) {
	b.EachPixel(func(px []uint8) {
		r, g, bl := float64(px[0]), float64(px[1]), float64(px[2])
		hi := max(r, g, bl)
		lo := min(r, g, bl)
		sat := (hi - lo) / 255
		factor := 1 + (level-1)*(1-sat)
		avg := (r + g + bl) / 3
		px[0] = raster.Clamp(avg + (r-avg)*factor)
		px[1] = raster.Clamp(avg + (g-avg)*factor)
		px[2] = raster.Clamp(avg + (bl-avg)*factor)
	})
}
