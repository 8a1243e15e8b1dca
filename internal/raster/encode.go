package raster

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// ErrEncodeFailure marks a buffer that could not be serialised.
var ErrEncodeFailure = errors.New("encode failure")

// MimeType is the content type of everything Encode produces.
const MimeType = "image/png"

// Encode writes b to w as a lossless PNG.
func Encode(w io.Writer, b *Buffer) error {
	if b.Empty() {
		return fmt.Errorf("%w: empty buffer", ErrEncodeFailure)
	}
	if len(b.Pix) != 4*b.Width*b.Height {
		return fmt.Errorf("%w: %s has %d samples", ErrEncodeFailure, b, len(b.Pix))
	}
	if err := imaging.Encode(w, b.Image(), imaging.PNG); err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeFailure, err)
	}
	return nil
}

// EncodeBytes is Encode into memory.
func EncodeBytes(b *Buffer) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
