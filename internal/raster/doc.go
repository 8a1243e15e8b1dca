// Package raster defines the in-memory pixel buffer shared by every stage of the
// studio editing engine.
//
// A Buffer is a width×height grid of non-premultiplied RGBA samples stored as a
// flat, row-major byte slice (4 bytes per pixel). It is deliberately a thin
// wrapper: the same bytes can be viewed as an *image.NRGBA without copying, so
// buffers interoperate with the standard image packages and with third-party
// processing libraries.
//
// # Coordinate System
//
// (0,0) is the top-left pixel, X grows rightward, Y grows downward. Regions use
// image.Rectangle semantics: Min inclusive, Max exclusive.
//
// # Rounding
//
// Every transform in the engine writes channel values through Clamp, which rounds
// half away from zero and clamps into [0,255]. A transform evaluated with its
// neutral parameters therefore reproduces its input byte for byte.
package raster
