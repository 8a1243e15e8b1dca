package imaging

import (
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

// Snapshot is an encoded PNG view of a buffer, ready to hand to a client.
type Snapshot struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeSnapshot encodes a region of b, optionally rescaled.
//
// An empty region means the whole buffer. scale <= 0 or 1 keeps the region's
// native size; other values resize it with Lanczos.
func EncodeSnapshot(b *raster.Buffer, region image.Rectangle, scale float64) (*Snapshot, error) {
	bounds := b.Bounds()
	if region.Empty() {
		region = bounds
	}
	if !region.In(bounds) {
		return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			region.Min.X, region.Min.Y, region.Max.X, region.Max.Y,
			bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}

	out := b
	if region != bounds {
		out = b.Region(region)
	}
	if scale > 0 && scale != 1.0 {
		w := int(float64(out.Width) * scale)
		h := int(float64(out.Height) * scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %.3f collapses the region to nothing", scale)
		}
		out = raster.FromImage(imaging.Resize(out.Image(), w, h, imaging.Lanczos))
	}

	data, err := raster.EncodeBytes(out)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Width:       out.Width,
		Height:      out.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    raster.MimeType,
	}, nil
}

// NamedRegion resolves a named area of a width×height image.
//
// Supported names: top-left, top-right, bottom-left, bottom-right, top-half,
// bottom-half, left-half, right-half, center (the middle 50%), and "" or
// "full" for the whole image.
func NamedRegion(width, height int, name string) (image.Rectangle, error) {
	midX, midY := width/2, height/2
	switch name {
	case "", "full":
		return image.Rect(0, 0, width, height), nil
	case "top-left":
		return image.Rect(0, 0, midX, midY), nil
	case "top-right":
		return image.Rect(midX, 0, width, midY), nil
	case "bottom-left":
		return image.Rect(0, midY, midX, height), nil
	case "bottom-right":
		return image.Rect(midX, midY, width, height), nil
	case "top-half":
		return image.Rect(0, 0, width, midY), nil
	case "bottom-half":
		return image.Rect(0, midY, width, height), nil
	case "left-half":
		return image.Rect(0, 0, midX, height), nil
	case "right-half":
		return image.Rect(midX, 0, width, height), nil
	case "center":
		qW, qH := width/4, height/4
		return image.Rect(qW, qH, width-qW, height-qH), nil
	}
	return image.Rectangle{}, fmt.Errorf("unknown region: %s", name)
}
