package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// PixelBuffer is the minimal surface the engine needs from a raster backend:
// per-pixel get/set plus bulk copy of rectangular regions. *Buffer is the
// in-memory implementation; other backends (texture readback, tiles) only need
// to satisfy this interface to be fed into the pipeline via Copy.
type PixelBuffer interface {
	Bounds() image.Rectangle
	NRGBAAt(x, y int) color.NRGBA
	SetNRGBA(x, y int, c color.NRGBA)
	Region(r image.Rectangle) *Buffer
	PutRegion(at image.Point, src *Buffer)
}

// Buffer is a width×height grid of RGBA samples, row-major, 4 bytes per pixel.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

var _ PixelBuffer = (*Buffer)(nil)

// New allocates a fully transparent buffer.
func New(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, 4*width*height),
	}
}

// Filled allocates a buffer with every pixel set to c.
func Filled(width, height int, c color.NRGBA) *Buffer {
	b := New(width, height)
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i+0] = c.R
		b.Pix[i+1] = c.G
		b.Pix[i+2] = c.B
		b.Pix[i+3] = c.A
	}
	return b
}

// FromImage converts any image.Image into a Buffer whose origin is (0,0).
// The conversion goes through imaging.Clone, which un-premultiplies alpha.
func FromImage(img image.Image) *Buffer {
	n := imaging.Clone(img)
	return &Buffer{
		Width:  n.Rect.Dx(),
		Height: n.Rect.Dy(),
		Pix:    n.Pix,
	}
}

// Copy snapshots any PixelBuffer into a new, independent *Buffer.
func Copy(src PixelBuffer) *Buffer {
	if b, ok := src.(*Buffer); ok {
		return b.Clone()
	}
	return src.Region(src.Bounds())
}

// Image returns a zero-copy *image.NRGBA view of the buffer. Writes through the
// view are visible in the buffer.
func (b *Buffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: 4 * b.Width,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Bounds returns the buffer rectangle, always anchored at (0,0).
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// Empty reports whether the buffer has no pixels.
func (b *Buffer) Empty() bool {
	return b == nil || b.Width == 0 || b.Height == 0
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// In reports whether (x,y) addresses a pixel of the buffer.
func (b *Buffer) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// Offset returns the index of the R sample of pixel (x,y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// NRGBAAt returns the pixel at (x,y), or transparent black outside the buffer.
func (b *Buffer) NRGBAAt(x, y int) color.NRGBA {
	if !b.In(x, y) {
		return color.NRGBA{}
	}
	i := b.Offset(x, y)
	return color.NRGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// SetNRGBA writes the pixel at (x,y). Writes outside the buffer are dropped.
func (b *Buffer) SetNRGBA(x, y int, c color.NRGBA) {
	if !b.In(x, y) {
		return
	}
	i := b.Offset(x, y)
	b.Pix[i+0] = c.R
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.B
	b.Pix[i+3] = c.A
}

// Region copies the part of r that overlaps the buffer into a new Buffer.
// Pixels of r that fall outside the buffer are transparent in the result.
func (b *Buffer) Region(r image.Rectangle) *Buffer {
	out := New(r.Dx(), r.Dy())
	clip := r.Intersect(b.Bounds())
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		si := b.Offset(clip.Min.X, y)
		di := out.Offset(clip.Min.X-r.Min.X, y-r.Min.Y)
		copy(out.Pix[di:di+4*clip.Dx()], b.Pix[si:si+4*clip.Dx()])
	}
	return out
}

// PutRegion copies src into the buffer with its top-left corner at at.
// Parts of src that fall outside the buffer are ignored.
func (b *Buffer) PutRegion(at image.Point, src *Buffer) {
	dst := src.Bounds().Add(at).Intersect(b.Bounds())
	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		si := src.Offset(dst.Min.X-at.X, y-at.Y)
		di := b.Offset(dst.Min.X, y)
		copy(b.Pix[di:di+4*dst.Dx()], src.Pix[si:si+4*dst.Dx()])
	}
}

// Equal reports whether both buffers have the same size and identical bytes.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.Width == o.Width && b.Height == o.Height && bytes.Equal(b.Pix, o.Pix)
}

// String describes the buffer dimensions, for logs and test failures.
func (b *Buffer) String() string {
	if b == nil {
		return "raster.Buffer(nil)"
	}
	return fmt.Sprintf("raster.Buffer(%dx%d)", b.Width, b.Height)
}
