package adjust

import "fmt"

// Settings holds the nine adjustment sliders.
//
// Brightness, Contrast, Saturation, Sharpness, Highlights, Shadows and Vibrance
// are multiplicative percentages with 100 as neutral. Temperature and Tint are
// additive in [-100,100] with 0 as neutral.
type Settings struct {
	Brightness  float64 `json:"brightness"`
	Contrast    float64 `json:"contrast"`
	Saturation  float64 `json:"saturation"`
	Sharpness   float64 `json:"sharpness"`
	Temperature float64 `json:"temperature"`
	Tint        float64 `json:"tint"`
	Highlights  float64 `json:"highlights"`
	Shadows     float64 `json:"shadows"`
	Vibrance    float64 `json:"vibrance"`
}

// Neutral returns settings that leave every pixel unchanged.
func Neutral() Settings {
	return Settings{
		Brightness: 100,
		Contrast:   100,
		Saturation: 100,
		Sharpness:  100,
		Highlights: 100,
		Shadows:    100,
		Vibrance:   100,
	}
}

// Slider ranges. Out-of-range values are clamped by Normalize.
const (
	MinPercent = 0
	MaxPercent = 200
	MinShift   = -100
	MaxShift   = 100
)

// IsNeutral reports whether applying s would be a no-op.
func (s Settings) IsNeutral() bool {
	return s == Neutral()
}

// Normalize clamps every slider into its range.
func (s Settings) Normalize() Settings {
	s.Brightness = clampRange(s.Brightness, MinPercent, MaxPercent)
	s.Contrast = clampRange(s.Contrast, MinPercent, MaxPercent)
	s.Saturation = clampRange(s.Saturation, MinPercent, MaxPercent)
	s.Sharpness = clampRange(s.Sharpness, MinPercent, MaxPercent)
	s.Highlights = clampRange(s.Highlights, MinPercent, MaxPercent)
	s.Shadows = clampRange(s.Shadows, MinPercent, MaxPercent)
	s.Vibrance = clampRange(s.Vibrance, MinPercent, MaxPercent)
	s.Temperature = clampRange(s.Temperature, MinShift, MaxShift)
	s.Tint = clampRange(s.Tint, MinShift, MaxShift)
	return s
}

// Names lists the slider names accepted by Set, in pipeline order.
func Names() []string {
	return []string{
		"brightness", "contrast", "saturation", "sharpness",
		"temperature", "tint", "highlights", "shadows", "vibrance",
	}
}

// Set assigns a slider by name. Unknown names are an error.
func (s *Settings) Set(name string, value float64) error {
	switch name {
	case "brightness":
		s.Brightness = value
	case "contrast":
		s.Contrast = value
	case "saturation":
		s.Saturation = value
	case "sharpness":
		s.Sharpness = value
	case "temperature":
		s.Temperature = value
	case "tint":
		s.Tint = value
	case "highlights":
		s.Highlights = value
	case "shadows":
		s.Shadows = value
	case "vibrance":
		s.Vibrance = value
	default:
		return fmt.Errorf("unknown adjustment: %s", name)
	}
	return nil
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
