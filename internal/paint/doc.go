// Package paint implements brush-based local edits on a transparent overlay
// buffer that sits on top of a base image.
//
// An Engine is driven by pointer gestures (PointerDown, PointerMove, PointerUp)
// in display coordinates. Consecutive samples are joined by stamping the active
// tool every couple of pixels, so fast pointer motion leaves no gaps.
//
// Three tools are available:
//
//   - Clone copies square patches of the base image, offset from a source
//     anchor set with SetCloneSource.
//   - Colorize multiplies a fill colour into the base under a round brush.
//   - Highlight marks pixels with a translucent colour. It is not a visual edit:
//     highlighted regions are exported as a black/white Mask for inpainting.
//
// Merged flattens base and overlay into the image to upload; Mask derives the
// binary mask from overlay alpha.
package paint
