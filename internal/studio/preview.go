package studio

import "github.com/ironsheep/image-studio-mcp/internal/raster"

// Preview holds the capped-resolution base and the most recent render of the
// edit over it. Every parameter change calls Render again; there is no
// incremental update.
type Preview struct {
	base    *raster.Buffer
	current *raster.Buffer
	renders int
}

// NewPreview starts with the unedited base as the current render.
func NewPreview(base *raster.Buffer) *Preview {
	return &Preview{base: base, current: base}
}

// Base returns the unedited preview buffer.
func (p *Preview) Base() *raster.Buffer { return p.base }

// Current returns the latest render.
func (p *Preview) Current() *raster.Buffer { return p.current }

// Renders counts completed renders.
func (p *Preview) Renders() int { return p.renders }

// Render recomputes the preview with fn over the base. On error the previous
// render is kept.
func (p *Preview) Render(fn func(base *raster.Buffer) (*raster.Buffer, error)) (*raster.Buffer, error) {
	out, err := fn(p.base)
	if err != nil {
		return nil, err
	}
	p.current = out
	p.renders++
	return out, nil
}
