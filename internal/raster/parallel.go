package raster

import "github.com/anthonynsimon/bild/parallel"

// EachPixel calls fn with the 4-byte RGBA slice of every pixel, in place.
// Rows are split across goroutines; fn must only touch the pixel it is given.
func (b *Buffer) EachPixel(fn func(px []uint8)) {
	stride := 4 * b.Width
	parallel.Line(b.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := b.Pix[y*stride : (y+1)*stride]
			for i := 0; i < len(row); i += 4 {
				fn(row[i : i+4 : i+4])
			}
		}
	})
}

// EachPixelXY is EachPixel with the pixel coordinates.
func (b *Buffer) EachPixelXY(fn func(x, y int, px []uint8)) {
	stride := 4 * b.Width
	parallel.Line(b.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := b.Pix[y*stride : (y+1)*stride]
			for x := 0; x < b.Width; x++ {
				i := 4 * x
				fn(x, y, row[i:i+4:i+4])
			}
		}
	})
}
