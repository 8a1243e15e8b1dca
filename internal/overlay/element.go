package overlay

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

// Kind discriminates element variants.
type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
)

const (
	// MinSize and MaxSize bound an element's normalised width and height.
	MinSize = 0.05
	MaxSize = 0.8

	DefaultFontSize   = 0.06
	DefaultFontFamily = "sans"
	DefaultFill       = "#ffffff"
)

var (
	ErrElementNotFound = errors.New("overlay element not found")
	ErrMissingBitmap   = errors.New("image element has no bitmap")
	ErrInvalidElement  = errors.New("invalid overlay element")
)

// Element is one overlay. X/Y are the centre and W/H the size, all as
// fractions of the base image dimensions. For text elements W/H only bound the
// interactive hit area; glyph size comes from FontSize × base height.
type Element struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Rotation float64 `json:"rotation"`

	// Image elements.
	Src    string      `json:"src,omitempty"`
	Bitmap image.Image `json:"-"`

	// Text elements.
	Text       string  `json:"text,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	Fill       string  `json:"fill,omitempty"`
}

// Validate checks the variant-specific fields.
func (e Element) Validate() error {
	switch e.Kind {
	case KindImage:
		if e.Bitmap == nil {
			return fmt.Errorf("%w: %s", ErrMissingBitmap, e.ID)
		}
	case KindText:
		if _, err := raster.ParseColor(e.fillOrDefault()); err != nil {
			return fmt.Errorf("%w: fill: %w", ErrInvalidElement, err)
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidElement, e.Kind)
	}
	return nil
}

// Normalize clamps geometry into range and fills text defaults.
func (e Element) Normalize() Element {
	e.X = clamp(e.X, 0, 1)
	e.Y = clamp(e.Y, 0, 1)
	e.W = clamp(e.W, MinSize, MaxSize)
	e.H = clamp(e.H, MinSize, MaxSize)
	e.Rotation = NormalizeAngle(e.Rotation)
	if e.Kind == KindText {
		if e.FontSize <= 0 {
			e.FontSize = DefaultFontSize
		}
		if e.FontFamily == "" {
			e.FontFamily = DefaultFontFamily
		}
		e.Fill = e.fillOrDefault()
	}
	return e
}

func (e Element) fillOrDefault() string {
	if e.Fill == "" {
		return DefaultFill
	}
	return e.Fill
}

// Rect returns the element's unrotated box in pixels on a w×h base.
func (e Element) Rect(w, h int) image.Rectangle {
	pw, ph := e.W*float64(w), e.H*float64(h)
	cx, cy := e.X*float64(w), e.Y*float64(h)
	return image.Rect(
		int(math.Round(cx-pw/2)), int(math.Round(cy-ph/2)),
		int(math.Round(cx+pw/2)), int(math.Round(cy+ph/2)),
	)
}

// NormalizeAngle maps degrees into (-180, 180].
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a <= -180 {
		a += 360
	}
	if a > 180 {
		a -= 360
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
