package overlay

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

// Composite draws elements onto a copy of buf in list order. When targetID is
// non-empty only that element is drawn; an unknown targetID is an error.
func Composite(buf raster.PixelBuffer, elements []Element, targetID string) (*raster.Buffer, error) {
	out := raster.Copy(buf)
	found := targetID == ""
	for _, el := range elements {
		if targetID != "" && el.ID != targetID {
			continue
		}
		found = true
		if err := drawElement(out, el); err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, targetID)
	}
	return out, nil
}

func drawElement(dst *raster.Buffer, el Element) error {
	if err := el.Validate(); err != nil {
		return err
	}
	el = el.Normalize()
	cx, cy := el.X*float64(dst.Width), el.Y*float64(dst.Height)

	switch el.Kind {
	case KindImage:
		src := imaging.Clone(el.Bitmap)
		w, h := el.W*float64(dst.Width), el.H*float64(dst.Height)
		place(dst, src, cx, cy, w, h, el.Rotation)
	case KindText:
		tile, err := renderText(el, dst.Height)
		if err != nil {
			return err
		}
		if tile == nil {
			return nil
		}
		b := tile.Bounds()
		place(dst, tile, cx, cy, float64(b.Dx()), float64(b.Dy()), el.Rotation)
	}
	return nil
}

// place draws src scaled to w×h, rotated by deg about its centre, with the
// centre at (cx, cy): translate(centre) · rotate · translate(-size/2) · scale.
func place(dst *raster.Buffer, src *image.NRGBA, cx, cy, w, h, deg float64) {
	sb := src.Bounds()
	if sb.Empty() || w <= 0 || h <= 0 {
		return
	}
	sx, sy := w/float64(sb.Dx()), h/float64(sb.Dy())
	sin, cos := math.Sincos(deg * math.Pi / 180)
	s2d := f64.Aff3{
		cos * sx, -sin * sy, cx - cos*w/2 + sin*h/2,
		sin * sx, cos * sy, cy - sin*w/2 - cos*h/2,
	}
	draw.BiLinear.Transform(dst.Image(), s2d, src, sb, draw.Over, nil)
}
