package overlay

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

var (
	fontsMu sync.Mutex
	fonts   = map[string]*opentype.Font{}
)

// fontFor maps a CSS-ish family name onto one of the bundled Go fonts.
func fontFor(family string) (*opentype.Font, error) {
	f := strings.ToLower(family)
	key, data := "regular", goregular.TTF
	switch {
	case strings.Contains(f, "mono"), strings.Contains(f, "courier"):
		key, data = "mono", gomono.TTF
	case strings.Contains(f, "bold"), strings.Contains(f, "impact"):
		key, data = "bold", gobold.TTF
	}

	fontsMu.Lock()
	defer fontsMu.Unlock()
	if ft, ok := fonts[key]; ok {
		return ft, nil
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s font: %w", key, err)
	}
	fonts[key] = ft
	return ft, nil
}

// renderText rasterises el.Text into a tight transparent tile, each line
// centred horizontally. Glyph height is FontSize × baseHeight pixels.
// A nil tile means there is nothing to draw.
func renderText(el Element, baseHeight int) (*image.NRGBA, error) {
	if strings.TrimSpace(el.Text) == "" {
		return nil, nil
	}
	size := el.FontSize * float64(baseHeight)
	if size < 1 {
		return nil, nil
	}
	fill, err := raster.ParseColor(el.Fill)
	if err != nil {
		return nil, fmt.Errorf("%w: fill: %w", ErrInvalidElement, err)
	}
	ft, err := fontFor(el.FontFamily)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	lines := strings.Split(el.Text, "\n")
	m := face.Metrics()
	lineHeight := (m.Ascent + m.Descent).Ceil()
	widths := make([]fixed.Int26_6, len(lines))
	maxW := 0
	for i, line := range lines {
		widths[i] = font.MeasureString(face, line)
		maxW = max(maxW, widths[i].Ceil())
	}
	if maxW == 0 {
		return nil, nil
	}

	tile := image.NewNRGBA(image.Rect(0, 0, maxW, lineHeight*len(lines)))
	d := &font.Drawer{Dst: tile, Src: image.NewUniform(fill), Face: face}
	for i, line := range lines {
		x := (fixed.I(maxW) - widths[i]) / 2
		d.Dot = fixed.Point26_6{X: x, Y: fixed.I(i*lineHeight) + m.Ascent}
		d.DrawString(line)
	}
	return tile, nil
}

// TextSize reports the pixel size of el's rendered text on a base of height
// baseHeight, or zero when there is nothing to draw.
func TextSize(el Element, baseHeight int) (int, int, error) {
	el = el.Normalize()
	tile, err := renderText(el, baseHeight)
	if err != nil || tile == nil {
		return 0, 0, err
	}
	return tile.Bounds().Dx(), tile.Bounds().Dy(), nil
}
