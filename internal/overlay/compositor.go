package overlay

import (
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

// Point and Viewport are the shared display-space types.
type (
	Point    = raster.Point
	Viewport = raster.Viewport
)

// GestureKind is the state of the compositor's single gesture slot.
type GestureKind int

const (
	Idle GestureKind = iota
	Dragging
	Resizing
	Rotating
)

func (g GestureKind) String() string {
	switch g {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case Rotating:
		return "rotating"
	default:
		return "idle"
	}
}

// ErrGestureActive is returned when a gesture starts while another is live.
var ErrGestureActive = errors.New("another gesture is active")

type gesture struct {
	kind  GestureKind
	id    string
	start Point
	orig  Element
}

// Compositor owns the editable element list of one base image. It is not
// safe for concurrent use.
type Compositor struct {
	baseW, baseH int
	viewport     Viewport
	elements     []Element
	active       gesture
}

// NewCompositor creates an empty compositor for a base of w×h pixels.
func NewCompositor(w, h int) *Compositor {
	return &Compositor{baseW: w, baseH: h}
}

// SetViewport sets the display size gesture points are expressed in.
func (c *Compositor) SetViewport(v Viewport) { c.viewport = v }

// Elements returns a copy of the element list in drawing order.
func (c *Compositor) Elements() []Element {
	return append([]Element{}, c.elements...)
}

func (c *Compositor) Len() int { return len(c.elements) }

// Get returns the element with id.
func (c *Compositor) Get(id string) (Element, bool) {
	if i := c.index(id); i >= 0 {
		return c.elements[i], true
	}
	return Element{}, false
}

// Add validates, normalises and appends el, assigning an ID when it has none.
func (c *Compositor) Add(el Element) (Element, error) {
	if err := el.Validate(); err != nil {
		return Element{}, err
	}
	if el.ID == "" {
		el.ID = uuid.NewString()
	}
	if c.index(el.ID) >= 0 {
		return Element{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidElement, el.ID)
	}
	el = el.Normalize()
	c.elements = append(c.elements, el)
	return el, nil
}

// AddImage centres bitmap on the base at 30% of the base width, keeping the
// bitmap's aspect ratio.
func (c *Compositor) AddImage(src string, bitmap image.Image) (Element, error) {
	el := Element{Kind: KindImage, Src: src, Bitmap: bitmap, X: 0.5, Y: 0.5, W: 0.3, H: 0.3}
	if bitmap != nil && c.baseH > 0 {
		b := bitmap.Bounds()
		if b.Dx() > 0 {
			el.H = el.W * float64(b.Dy()) / float64(b.Dx()) * float64(c.baseW) / float64(c.baseH)
		}
	}
	return c.Add(el)
}

// AddText centres a text element on the base. Its box fits the rendered
// text, which is what drag and resize gestures act on.
func (c *Compositor) AddText(text, family, fill string, fontSize float64) (Element, error) {
	el := Element{
		Kind: KindText, Text: text, FontFamily: family, Fill: fill, FontSize: fontSize,
		X: 0.5, Y: 0.5, W: 0.4, H: 0.12,
	}
	if c.baseW > 0 && c.baseH > 0 {
		w, h, err := TextSize(el, c.baseH)
		if err != nil {
			return Element{}, err
		}
		if w > 0 && h > 0 {
			el.W = float64(w) / float64(c.baseW)
			el.H = float64(h) / float64(c.baseH)
		}
	}
	return c.Add(el)
}

// Update replaces the element with the same ID, keeping its bitmap when the
// replacement carries none.
func (c *Compositor) Update(el Element) (Element, error) {
	i := c.index(el.ID)
	if i < 0 {
		return Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, el.ID)
	}
	if el.Kind == "" {
		el.Kind = c.elements[i].Kind
	}
	if el.Bitmap == nil {
		el.Bitmap = c.elements[i].Bitmap
	}
	if err := el.Validate(); err != nil {
		return Element{}, err
	}
	c.elements[i] = el.Normalize()
	return c.elements[i], nil
}

// Remove deletes the element with id. Removing the element under an active
// gesture ends the gesture.
func (c *Compositor) Remove(id string) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	c.elements = slices.Delete(c.elements, i, i+1)
	if c.active.id == id {
		c.active = gesture{}
	}
	return nil
}

// Clear drops every element and any gesture.
func (c *Compositor) Clear() {
	c.elements = nil
	c.active = gesture{}
}

// Gesture reports the active gesture and the element it targets.
func (c *Compositor) Gesture() (GestureKind, string) {
	return c.active.kind, c.active.id
}

func (c *Compositor) BeginDrag(id string, p Point) error   { return c.begin(Dragging, id, p) }
func (c *Compositor) BeginResize(id string, p Point) error { return c.begin(Resizing, id, p) }
func (c *Compositor) BeginRotate(id string, p Point) error { return c.begin(Rotating, id, p) }

func (c *Compositor) begin(kind GestureKind, id string, p Point) error {
	if c.active.kind != Idle {
		return fmt.Errorf("%w: %s %s", ErrGestureActive, c.active.kind, c.active.id)
	}
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	c.active = gesture{kind: kind, id: id, start: p, orig: c.elements[i]}
	return nil
}

// Move updates the element under the active gesture for pointer p. It is a
// no-op while idle.
func (c *Compositor) Move(p Point) {
	if c.active.kind == Idle {
		return
	}
	i := c.index(c.active.id)
	if i < 0 {
		c.active = gesture{}
		return
	}
	vw, vh := c.viewport.Size(c.baseW, c.baseH)
	if vw <= 0 || vh <= 0 {
		return
	}
	orig := c.active.orig
	el := c.elements[i]
	dx, dy := p.X-c.active.start.X, p.Y-c.active.start.Y

	switch c.active.kind {
	case Dragging:
		el.X = clamp(orig.X+dx/vw, 0, 1)
		el.Y = clamp(orig.Y+dy/vh, 0, 1)
	case Resizing:
		el.W = clamp(orig.W+2*dx/vw, MinSize, MaxSize)
		el.H = clamp(orig.H+2*dy/vh, MinSize, MaxSize)
	case Rotating:
		cx, cy := orig.X*vw, orig.Y*vh
		a0 := math.Atan2(c.active.start.Y-cy, c.active.start.X-cx)
		a1 := math.Atan2(p.Y-cy, p.X-cx)
		el.Rotation = NormalizeAngle(orig.Rotation + (a1-a0)*180/math.Pi)
	}
	c.elements[i] = el
}

// End applies p and returns the slot to idle.
func (c *Compositor) End(p Point) {
	c.Move(p)
	c.active = gesture{}
}

// Cancel restores the element to its state at gesture start.
func (c *Compositor) Cancel() {
	if i := c.index(c.active.id); i >= 0 && c.active.kind != Idle {
		c.elements[i] = c.active.orig
	}
	c.active = gesture{}
}

// Rotate adds deg to an element's rotation outside of a gesture.
func (c *Compositor) Rotate(id string, deg float64) (Element, error) {
	i := c.index(id)
	if i < 0 {
		return Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	c.elements[i].Rotation = NormalizeAngle(c.elements[i].Rotation + deg)
	return c.elements[i], nil
}

// Composite draws all elements, or only targetID, onto a copy of buf.
func (c *Compositor) Composite(buf raster.PixelBuffer, targetID string) (*raster.Buffer, error) {
	return Composite(buf, c.elements, targetID)
}

func (c *Compositor) index(id string) int {
	return slices.IndexFunc(c.elements, func(e Element) bool { return e.ID == id })
}
