// Package overlay places bitmap and text elements on top of a base image.
//
// Element geometry is normalised to the base image (centre position and size
// as fractions of width and height, rotation in degrees), so one element list
// composites identically onto the preview and the native-resolution buffer.
//
// A Compositor owns the editable element list and a single gesture slot:
// at most one element is being dragged, resized or rotated at a time.
package overlay
