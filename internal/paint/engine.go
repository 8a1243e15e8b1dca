package paint

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

// Tool selects what a brush stamp does.
type Tool string

const (
	Clone     Tool = "clone"
	Colorize  Tool = "colorize"
	Highlight Tool = "highlight"
)

// State is the stroke state of an Engine.
type State int

const (
	Idle State = iota
	Drawing
)

func (s State) String() string {
	if s == Drawing {
		return "drawing"
	}
	return "idle"
}

const (
	// StepPixels is the spacing of interpolated stamps along a stroke.
	StepPixels = 2.0

	MinDiameter     = 1
	MaxDiameter     = 500
	DefaultDiameter = 30
	DefaultOpacity  = 0.4
)

var (
	ErrUnknownTool      = errors.New("unknown paint tool")
	ErrCloneSourceUnset = errors.New("clone source not set")
	ErrStrokeInProgress = errors.New("a stroke is already in progress")
)

var (
	DefaultColorizeColor = color.NRGBA{255, 170, 60, 255}
	DefaultHighlight     = color.NRGBA{255, 0, 0, 255}
)

// ParseTool validates a tool name.
func ParseTool(name string) (Tool, error) {
	switch t := Tool(name); t {
	case Clone, Colorize, Highlight:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

// Point and Viewport are the shared display-space types.
type (
	Point    = raster.Point
	Viewport = raster.Viewport
)

// Engine holds a base image, two transparent layers of the same size and the
// brush state. Clone and colorize paint into the edit layer, which is what
// Merged flattens; highlight paints into the mark layer, which only feeds the
// mask. It is not safe for concurrent use.
type Engine struct {
	base  *raster.Buffer
	edits *raster.Buffer
	marks *raster.Buffer

	// rev increases whenever a layer or the base changes.
	rev uint64

	tool      Tool
	diameter  int
	fill      color.NRGBA
	highlight color.NRGBA
	opacity   float64
	viewport  Viewport

	state       State
	last        Point
	strokeStart Point

	anchor    Point
	anchorSet bool

	// stamped marks pixels the highlight tool already covered during the
	// current stroke, so overlapping stamps do not build up opacity.
	stamped []bool
}

// NewEngine copies base and starts with empty layers and the colorize tool.
func NewEngine(base raster.PixelBuffer) *Engine {
	b := raster.Copy(base)
	return &Engine{
		base:      b,
		edits:     raster.New(b.Width, b.Height),
		marks:     raster.New(b.Width, b.Height),
		tool:      Colorize,
		diameter:  DefaultDiameter,
		fill:      DefaultColorizeColor,
		highlight: DefaultHighlight,
		opacity:   DefaultOpacity,
	}
}

func (e *Engine) Tool() Tool         { return e.tool }
func (e *Engine) State() State       { return e.state }
func (e *Engine) Diameter() int      { return e.diameter }
func (e *Engine) Opacity() float64   { return e.opacity }
func (e *Engine) Viewport() Viewport { return e.viewport }

// HighlightColor returns the highlight tool's colour.
func (e *Engine) HighlightColor() color.NRGBA { return e.highlight }

// Base returns the base image. It must not be modified.
func (e *Engine) Base() *raster.Buffer { return e.base }

// Edits returns a copy of the clone/colorize layer.
func (e *Engine) Edits() *raster.Buffer { return e.edits.Clone() }

// Marks returns a copy of the highlight layer.
func (e *Engine) Marks() *raster.Buffer { return e.marks.Clone() }

// Revision changes every time a stroke, Clear or Rebase alters the layers.
func (e *Engine) Revision() uint64 { return e.rev }

// CloneSource reports the clone anchor in buffer coordinates.
func (e *Engine) CloneSource() (Point, bool) { return e.anchor, e.anchorSet }

// SetTool switches the active tool. Switching mid-stroke ends the stroke.
func (e *Engine) SetTool(t Tool) error {
	if _, err := ParseTool(string(t)); err != nil {
		return err
	}
	e.state = Idle
	e.tool = t
	return nil
}

// SetDiameter sets the brush diameter in buffer pixels, clamped to
// [MinDiameter, MaxDiameter].
func (e *Engine) SetDiameter(d int) {
	e.diameter = min(max(d, MinDiameter), MaxDiameter)
}

// SetColor sets the colorize fill. Alpha is ignored.
func (e *Engine) SetColor(c color.NRGBA) {
	c.A = 255
	e.fill = c
}

// SetHighlight sets the highlight colour and opacity (clamped to [0,1]).
func (e *Engine) SetHighlight(c color.NRGBA, opacity float64) {
	c.A = 255
	e.highlight = c
	e.opacity = math.Max(0, math.Min(1, opacity))
}

// SetViewport sets the display size pointer positions are expressed in.
func (e *Engine) SetViewport(v Viewport) {
	e.viewport = v
}

// SetCloneSource anchors the clone tool at display point p.
func (e *Engine) SetCloneSource(p Point) {
	e.anchor = e.toBuffer(p)
	e.anchorSet = true
}

// PointerDown starts a stroke at p and stamps once.
func (e *Engine) PointerDown(p Point) error {
	if e.state == Drawing {
		return ErrStrokeInProgress
	}
	if e.tool == Clone && !e.anchorSet {
		return ErrCloneSourceUnset
	}
	bp := e.toBuffer(p)
	e.state = Drawing
	e.strokeStart = bp
	e.last = bp
	if e.tool == Highlight {
		e.stamped = make([]bool, e.base.Width*e.base.Height)
	}
	e.stamp(bp)
	e.rev++
	return nil
}

// PointerMove extends the current stroke to p, stamping every StepPixels along
// the segment from the previous sample. Moves while idle are ignored.
func (e *Engine) PointerMove(p Point) {
	if e.state != Drawing {
		return
	}
	bp := e.toBuffer(p)
	dx, dy := bp.X-e.last.X, bp.Y-e.last.Y
	steps := int(math.Ceil(math.Hypot(dx, dy) / StepPixels))
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		e.stamp(Point{X: e.last.X + dx*t, Y: e.last.Y + dy*t})
	}
	if steps > 0 {
		e.rev++
	}
	e.last = bp
}

// PointerUp finishes the stroke at p.
func (e *Engine) PointerUp(p Point) {
	if e.state != Drawing {
		return
	}
	e.PointerMove(p)
	e.state = Idle
	e.stamped = nil
}

// Stroke is a convenience for a full down/move/up gesture through points.
func (e *Engine) Stroke(points []Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := e.PointerDown(points[0]); err != nil {
		return err
	}
	for _, p := range points[1:] {
		e.PointerMove(p)
	}
	e.PointerUp(points[len(points)-1])
	return nil
}

// Edited reports whether the edit layer holds any painted pixel.
func (e *Engine) Edited() bool {
	for i := 3; i < len(e.edits.Pix); i += 4 {
		if e.edits.Pix[i] > 0 {
			return true
		}
	}
	return false
}

// Marked reports whether any highlight pixel would show up in the mask.
func (e *Engine) Marked() bool {
	for i := 3; i < len(e.marks.Pix); i += 4 {
		if e.marks.Pix[i] > MaskThreshold {
			return true
		}
	}
	return false
}

// Touched reports whether either layer has pending work.
func (e *Engine) Touched() bool {
	return e.Edited() || e.Marked()
}

// Clear drops every stroke on both layers. The clone anchor is kept.
func (e *Engine) Clear() {
	e.edits = raster.New(e.base.Width, e.base.Height)
	e.ClearMarks()
}

// ClearMarks drops the highlight layer only.
func (e *Engine) ClearMarks() {
	e.marks = raster.New(e.base.Width, e.base.Height)
	e.state = Idle
	e.stamped = nil
	e.rev++
}

// Rebase replaces the base with a copy of b and empties the edit layer. Marks
// survive when b has the same size; tool settings and the clone anchor are kept.
func (e *Engine) Rebase(b raster.PixelBuffer) {
	nb := raster.Copy(b)
	if nb.Width != e.base.Width || nb.Height != e.base.Height {
		e.marks = raster.New(nb.Width, nb.Height)
	}
	e.base = nb
	e.edits = raster.New(nb.Width, nb.Height)
	e.state = Idle
	e.stamped = nil
	e.rev++
}

// Merged flattens base and the edit layer. Highlight marks are not included.
func (e *Engine) Merged() *raster.Buffer {
	out, _ := ExportMerged(e.base, e.edits)
	return out
}

// Mask derives the binary mask from the highlight layer.
func (e *Engine) Mask() *raster.Buffer {
	return ExportMask(e.marks)
}

func (e *Engine) toBuffer(p Point) Point {
	return e.viewport.ToBuffer(p, e.base.Width, e.base.Height)
}

func (e *Engine) stamp(p Point) {
	switch e.tool {
	case Clone:
		e.stampClone(p)
	case Colorize:
		e.stampRound(p, e.colorizePixel)
	case Highlight:
		e.stampRound(p, e.highlightPixel)
	}
}

// stampClone copies a diameter-sided square of the base, centred on
// anchor + (p - strokeStart), onto the edit layer centred on p.
func (e *Engine) stampClone(p Point) {
	half := e.diameter / 2
	tx0 := int(math.Floor(p.X)) - half
	ty0 := int(math.Floor(p.Y)) - half
	sx0 := int(math.Floor(e.anchor.X+p.X-e.strokeStart.X)) - half
	sy0 := int(math.Floor(e.anchor.Y+p.Y-e.strokeStart.Y)) - half

	for dy := 0; dy < e.diameter; dy++ {
		for dx := 0; dx < e.diameter; dx++ {
			sx, sy := sx0+dx, sy0+dy
			tx, ty := tx0+dx, ty0+dy
			if !e.base.In(sx, sy) || !e.base.In(tx, ty) {
				continue
			}
			e.edits.SetNRGBA(tx, ty, e.base.NRGBAAt(sx, sy))
		}
	}
}

// stampRound calls fn for every buffer pixel within diameter/2 of p.
func (e *Engine) stampRound(p Point, fn func(x, y int)) {
	r := float64(e.diameter) / 2
	cx, cy := int(math.Floor(p.X)), int(math.Floor(p.Y))
	ri := int(math.Ceil(r))
	for y := cy - ri; y <= cy+ri; y++ {
		for x := cx - ri; x <= cx+ri; x++ {
			if !e.base.In(x, y) {
				continue
			}
			ddx, ddy := float64(x-cx), float64(y-cy)
			if ddx*ddx+ddy*ddy > r*r {
				continue
			}
			fn(x, y)
		}
	}
}

// colorizePixel writes base×fill, so repeated stamps on a pixel are idempotent.
func (e *Engine) colorizePixel(x, y int) {
	b := e.base.NRGBAAt(x, y)
	e.edits.SetNRGBA(x, y, color.NRGBA{
		R: multiply(b.R, e.fill.R),
		G: multiply(b.G, e.fill.G),
		B: multiply(b.B, e.fill.B),
		A: 255,
	})
}

func (e *Engine) highlightPixel(x, y int) {
	i := y*e.base.Width + x
	if e.stamped != nil {
		if e.stamped[i] {
			return
		}
		e.stamped[i] = true
	}
	o := e.marks.Offset(x, y)
	src := []uint8{e.highlight.R, e.highlight.G, e.highlight.B, 255}
	over(e.marks.Pix[o:o+4:o+4], src, e.opacity)
}

func multiply(a, b uint8) uint8 {
	return raster.Clamp(float64(a) * float64(b) / 255)
}
