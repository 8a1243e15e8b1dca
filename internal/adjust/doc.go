// Package adjust implements the tonal and color adjustment pipeline: nine
// sliders applied to a pixel buffer in a fixed order.
//
//  1. brightness, contrast and saturation in a single multiplicative pass
//  2. sharpness (unsharp 3×3 kernel above 100, box blur below)
//  3. temperature
//  4. tint
//  5. highlights
//  6. shadows
//  7. vibrance
//
// Every stage clamps and rounds its output. A stage whose slider sits at its
// neutral value is skipped, and would be a no-op if it ran, so Apply with
// Neutral() returns a byte-identical copy of its input.
//
// Parameters are percentages and never depend on buffer size, so the same
// Settings produce matching results on the preview and the native buffer.
package adjust
