package raster

import (
	"image/color"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-3, 0},
		{0.49, 0},
		{0.5, 1},
		{76.245, 76},
		{254.5, 255},
		{300, 255},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLuminance(t *testing.T) {
	if got := Clamp(Luminance(255, 0, 0)); got != 76 {
		t.Errorf("luminance of pure red = %d, want 76", got)
	}
	if got := Clamp(Luminance(255, 255, 255)); got != 255 {
		t.Errorf("luminance of white = %d, want 255", got)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"six digits", "#FF8000", color.NRGBA{255, 128, 0, 255}, false},
		{"no hash", "00ff00", color.NRGBA{0, 255, 0, 255}, false},
		{"short form", "#f00", color.NRGBA{255, 0, 0, 255}, false},
		{"with alpha", "#0000FF80", color.NRGBA{0, 0, 255, 128}, false},
		{"empty", "", color.NRGBA{}, true},
		{"bad length", "#12345", color.NRGBA{}, true},
		{"bad digits", "#GGGGGG", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHex(t *testing.T) {
	if got := Hex(color.NRGBA{R: 0xAB, G: 0x01, B: 0xFF, A: 3}); got != "#AB01FF" {
		t.Errorf("Hex = %s", got)
	}
}

func TestDiff(t *testing.T) {
	a := Filled(2, 2, color.NRGBA{R: 10, A: 255})
	b := a.Clone()
	res, err := Diff(a, b)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if !res.Identical || res.ChangedPixels != 0 {
		t.Errorf("expected identical buffers, got %+v", res)
	}

	b.SetNRGBA(1, 1, color.NRGBA{R: 30, A: 255})
	res, _ = Diff(a, b)
	if res.Identical || res.ChangedPixels != 1 || res.MaxDiff != 20 {
		t.Errorf("unexpected diff %+v", res)
	}

	if _, err := Diff(a, New(3, 2)); err == nil {
		t.Error("expected size mismatch error")
	}
}
