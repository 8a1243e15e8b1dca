// Package imaging is the raster source of the studio engine: it resolves an
// image reference (URL, data URL, file path or raw bytes) to decoded pixel
// buffers at native and capped preview resolution, and samples colors from them.
//
// # Loading
//
// A Loader tries a direct fetch first and falls back to an authenticated
// download path when the direct fetch fails. The whole load is bounded by a
// timeout; a load that fails on both paths, times out, or decodes to zero
// dimensions returns an error wrapping ErrLoadFailure. Loads are never retried
// automatically.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Thread Safety
//
// Loader and ImageCache are safe for concurrent use. Sources returned from a
// cached Loader are shared; their buffers must be cloned before mutation.
//
// # Color Representation
//
// Colors are returned in multiple formats for flexibility:
//   - Hex: 6-character format "#RRGGBB" (alpha excluded)
//   - RGBA: 8-bit components with alpha (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
package imaging
