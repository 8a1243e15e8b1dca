package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"
)

func decodeSnapshot(t *testing.T, s *Snapshot) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(s.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	return img
}

func TestEncodeSnapshot_Full(t *testing.T) {
	b := createPatternBuffer(100, 80)

	s, err := EncodeSnapshot(b, image.Rectangle{}, 0)
	if err != nil {
		t.Fatalf("EncodeSnapshot failed: %v", err)
	}
	if s.Width != 100 || s.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", s.Width, s.Height)
	}
	if s.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", s.MimeType)
	}
	img := decodeSnapshot(t, s)
	if got := img.Bounds().Size(); got != image.Pt(100, 80) {
		t.Errorf("decoded size: got %v", got)
	}
}

func TestEncodeSnapshot_RegionContent(t *testing.T) {
	b := createPatternBuffer(100, 100)

	s, err := EncodeSnapshot(b, image.Rect(50, 0, 100, 50), 1.0)
	if err != nil {
		t.Fatalf("EncodeSnapshot failed: %v", err)
	}
	img := decodeSnapshot(t, s)
	r, g, bl, _ := img.At(10, 10).RGBA()
	if r>>8 != 0 || g>>8 != 255 || bl>>8 != 0 {
		t.Errorf("top-right region should be green, got (%d,%d,%d)", r>>8, g>>8, bl>>8)
	}
}

func TestEncodeSnapshot_Scale(t *testing.T) {
	b := createPatternBuffer(100, 100)

	tests := []struct {
		scale float64
		want  int
	}{
		{2.0, 100},
		{0.5, 25},
		{1.0, 50},
	}
	for _, tt := range tests {
		s, err := EncodeSnapshot(b, image.Rect(0, 0, 50, 50), tt.scale)
		if err != nil {
			t.Fatalf("scale %v: %v", tt.scale, err)
		}
		if s.Width != tt.want || s.Height != tt.want {
			t.Errorf("scale %v: got %dx%d, want %dx%d", tt.scale, s.Width, s.Height, tt.want, tt.want)
		}
	}
}

func TestEncodeSnapshot_OutOfBounds(t *testing.T) {
	b := createPatternBuffer(100, 100)
	if _, err := EncodeSnapshot(b, image.Rect(50, 50, 150, 150), 1.0); err == nil {
		t.Error("expected error for region outside bounds")
	}
	if _, err := EncodeSnapshot(b, image.Rect(0, 0, 10, 10), 0.01); err == nil {
		t.Error("expected error for a scale that collapses the region")
	}
}

func TestNamedRegion(t *testing.T) {
	tests := []struct {
		name string
		want image.Rectangle
	}{
		{"", image.Rect(0, 0, 101, 81)},
		{"full", image.Rect(0, 0, 101, 81)},
		{"top-left", image.Rect(0, 0, 50, 40)},
		{"top-right", image.Rect(50, 0, 101, 40)},
		{"bottom-left", image.Rect(0, 40, 50, 81)},
		{"bottom-right", image.Rect(50, 40, 101, 81)},
		{"top-half", image.Rect(0, 0, 101, 40)},
		{"bottom-half", image.Rect(0, 40, 101, 81)},
		{"left-half", image.Rect(0, 0, 50, 81)},
		{"right-half", image.Rect(50, 0, 101, 81)},
		{"center", image.Rect(25, 20, 76, 61)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NamedRegion(101, 81, tt.name)
			if err != nil {
				t.Fatalf("NamedRegion(%q) failed: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("NamedRegion(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if _, err := NamedRegion(100, 100, "middle-ish"); err == nil {
		t.Error("expected error for unknown region")
	}
}
