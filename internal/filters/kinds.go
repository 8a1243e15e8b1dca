package filters

import (
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

// Kind names a filter.
type Kind string

const (
	Grayscale    Kind = "grayscale"
	Sepia        Kind = "sepia"
	Vintage      Kind = "vintage"
	Warm         Kind = "warm"
	Cool         Kind = "cool"
	Vivid        Kind = "vivid"
	HighContrast Kind = "highContrast"
	Vignette     Kind = "vignette"
	Fade         Kind = "fade"
	Noir         Kind = "noir"
	Matte        Kind = "matte"
	Invert       Kind = "invert"
	Blur         Kind = "blur"
	FadeToBlack  Kind = "fadeToBlack"
	Dramatic     Kind = "dramatic"
)

// Func filters src into a new buffer. Filters are pure and never touch alpha.
type Func func(src *raster.Buffer) *raster.Buffer

var registry = map[Kind]Func{
	Grayscale:    pointwise(grayscale),
	Sepia:        pointwise(sepia),
	Vintage:      pointwise(vintage),
	Warm:         pointwise(warm),
	Cool:         pointwise(cool),
	Vivid:        pointwise(vivid),
	HighContrast: pointwise(highContrast),
	Vignette:     radial(vignetteFactor),
	Fade:         pointwise(fade),
	Noir:         pointwise(noir),
	Matte:        pointwise(matte),
	Invert:       pointwise(invert),
	Blur:         boxBlur,
	FadeToBlack:  radial(fadeToBlackFactor),
	Dramatic:     pointwise(dramatic),
}

// Kinds lists every filter in a stable order.
func Kinds() []Kind {
	return []Kind{
		Grayscale, Sepia, Vintage, Warm, Cool, Vivid, HighContrast, Vignette,
		Fade, Noir, Matte, Invert, Blur, FadeToBlack, Dramatic,
	}
}

// Lookup returns the filter for kind.
func Lookup(kind Kind) (Func, bool) {
	f, ok := registry[kind]
	return f, ok
}

// pointwise lifts a per-pixel RGB mapping to a Func.
func pointwise(fn func(r, g, b float64) (float64, float64, float64)) Func {
	return func(src *raster.Buffer) *raster.Buffer {
		out := src.Clone()
		out.EachPixel(func(px []uint8) {
			r, g, b := fn(float64(px[0]), float64(px[1]), float64(px[2]))
			px[0], px[1], px[2] = raster.Clamp(r), raster.Clamp(g), raster.Clamp(b)
		})
		return out
	}
}

// radial scales RGB by factor(d), d being the distance from the centre
// normalised to the half-diagonal (0 at the centre, 1 in the corners).
func radial(factor func(d float64) float64) Func {
	return func(src *raster.Buffer) *raster.Buffer {
		out := src.Clone()
		cx, cy := float64(src.Width)/2, float64(src.Height)/2
		half := math.Hypot(cx, cy)
		if half == 0 {
			return out
		}
		out.EachPixelXY(func(x, y int, px []uint8) {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) / half
			f := factor(math.Min(d, 1))
			px[0] = raster.Clamp(float64(px[0]) * f)
			px[1] = raster.Clamp(float64(px[1]) * f)
			px[2] = raster.Clamp(float64(px[2]) * f)
		})
		return out
	}
}

func grayscale(r, g, b float64) (float64, float64, float64) {
	l := math.Round(raster.Luminance(r, g, b))
	return l, l, l
}

func sepia(r, g, b float64) (float64, float64, float64) {
	return 0.393*r + 0.769*g + 0.189*b,
		0.349*r + 0.686*g + 0.168*b,
		0.272*r + 0.534*g + 0.131*b
}

// vintage is a partial sepia with lifted blacks and softened whites.
func vintage(r, g, b float64) (float64, float64, float64) {
	sr, sg, sb := sepia(r, g, b)
	mix := func(o, s float64) float64 {
		v := 0.6*math.Min(s, 255) + 0.4*o
		return v*0.85 + 22
	}
	return mix(r, sr), mix(g, sg), mix(b, sb)
}

func warm(r, g, b float64) (float64, float64, float64) {
	return r * 1.12, g * 1.03, b * 0.88
}

func cool(r, g, b float64) (float64, float64, float64) {
	return r * 0.88, g * 1.02, b * 1.12
}

// vivid raises HSL saturation by 40%.
func vivid(r, g, b float64) (float64, float64, float64) {
	h, s, l := colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Hsl()
	c := colorful.Hsl(h, math.Min(1, s*1.4), l).Clamped()
	return c.R * 255, c.G * 255, c.B * 255
}

func contrast(v, k float64) float64 {
	return (v-128)*k + 128
}

func saturate(r, g, b, k float64) (float64, float64, float64) {
	gray := raster.Luminance(r, g, b)
	return gray + (r-gray)*k, gray + (g-gray)*k, gray + (b-gray)*k
}

func highContrast(r, g, b float64) (float64, float64, float64) {
	return contrast(r, 1.5), contrast(g, 1.5), contrast(b, 1.5)
}

// fade desaturates by a quarter and compresses the tonal range upward.
func fade(r, g, b float64) (float64, float64, float64) {
	r, g, b = saturate(r, g, b, 0.75)
	return r*0.8 + 35, g*0.8 + 35, b*0.8 + 35
}

func noir(r, g, b float64) (float64, float64, float64) {
	l := contrast(raster.Luminance(r, g, b), 1.4)
	return l, l, l
}

// matte flattens contrast, lifts the black point and mutes colour slightly.
func matte(r, g, b float64) (float64, float64, float64) {
	r, g, b = saturate(r, g, b, 0.9)
	return contrast(r, 0.85) + 12, contrast(g, 0.85) + 12, contrast(b, 0.85) + 12
}

func invert(r, g, b float64) (float64, float64, float64) {
	return 255 - r, 255 - g, 255 - b
}

func dramatic(r, g, b float64) (float64, float64, float64) {
	r, g, b = contrast(r, 1.3), contrast(g, 1.3), contrast(b, 1.3)
	r, g, b = saturate(r, g, b, 1.25)
	return r * 0.95, g * 0.95, b * 0.95
}

func vignetteFactor(d float64) float64 {
	return 1 - 0.6*d*d
}

// fadeToBlackFactor keeps the centre intact and reaches black in the corners.
func fadeToBlackFactor(d float64) float64 {
	return 1 - smoothstep(0.3, 1, d)
}

func smoothstep(lo, hi, x float64) float64 {
	t := math.Max(0, math.Min(1, (x-lo)/(hi-lo)))
	return t * t * (3 - 2*t)
}

// blurRadius scales with the short side so preview and native renders match.
func blurRadius(w, h int) float64 {
	return math.Max(1, float64(min(w, h))/200)
}

func boxBlur(src *raster.Buffer) *raster.Buffer {
	blurred := raster.FromImage(blur.Box(src.Image(), blurRadius(src.Width, src.Height)))
	// Keep the source alpha; bild blurs it along with colour.
	for i := 3; i < len(blurred.Pix); i += 4 {
		blurred.Pix[i] = src.Pix[i]
	}
	return blurred
}
