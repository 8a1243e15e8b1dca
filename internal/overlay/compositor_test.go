package overlay

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

func newTestCompositor(t *testing.T) (*Compositor, Element) {
	t.Helper()
	c := NewCompositor(1000, 800)
	c.SetViewport(Viewport{Width: 500, Height: 400})
	el, err := c.AddImage("https://example.com/logo.png", solid(40, 20, color.NRGBA{255, 0, 0, 255}))
	require.NoError(t, err)
	return c, el
}

func TestCompositor_AddImageKeepsAspect(t *testing.T) {
	_, el := newTestCompositor(t)
	assert.NotEmpty(t, el.ID)
	assert.Equal(t, 0.3, el.W)
	// 40×20 bitmap at 300px wide is 150px tall, 150/800 of the base height.
	assert.InDelta(t, 150.0/800, el.H, 1e-9)
}

func TestCompositor_Drag(t *testing.T) {
	c, el := newTestCompositor(t)
	require.NoError(t, c.BeginDrag(el.ID, Point{X: 250, Y: 200}))
	kind, id := c.Gesture()
	assert.Equal(t, Dragging, kind)
	assert.Equal(t, el.ID, id)

	c.Move(Point{X: 300, Y: 240})
	c.End(Point{X: 300, Y: 240})

	got, _ := c.Get(el.ID)
	assert.InDelta(t, 0.6, got.X, 1e-9)
	assert.InDelta(t, 0.6, got.Y, 1e-9)
	kind, _ = c.Gesture()
	assert.Equal(t, Idle, kind)
}

func TestCompositor_DragClampsToImage(t *testing.T) {
	c, el := newTestCompositor(t)
	require.NoError(t, c.BeginDrag(el.ID, Point{X: 0, Y: 0}))
	c.End(Point{X: -10_000, Y: 10_000})
	got, _ := c.Get(el.ID)
	assert.Equal(t, 0.0, got.X)
	assert.Equal(t, 1.0, got.Y)
}

func TestCompositor_ResizeIsSymmetricAndClamped(t *testing.T) {
	c, el := newTestCompositor(t)

	require.NoError(t, c.BeginResize(el.ID, Point{X: 325, Y: 237.5}))
	c.End(Point{X: 350, Y: 257.5})
	got, _ := c.Get(el.ID)
	assert.InDelta(t, 0.4, got.W, 1e-9)
	assert.InDelta(t, 150.0/800+0.1, got.H, 1e-9)
	assert.InDelta(t, 0.5, got.X, 1e-9, "centre stays put")

	require.NoError(t, c.BeginResize(el.ID, Point{}))
	c.Move(Point{X: 5000, Y: 5000})
	got, _ = c.Get(el.ID)
	assert.Equal(t, MaxSize, got.W)
	assert.Equal(t, MaxSize, got.H)

	c.End(Point{X: -5000, Y: -5000})
	got, _ = c.Get(el.ID)
	assert.Equal(t, MinSize, got.W)
	assert.Equal(t, MinSize, got.H)
}

func TestCompositor_Rotate(t *testing.T) {
	c, el := newTestCompositor(t)
	centre := Point{X: 250, Y: 200}

	require.NoError(t, c.BeginRotate(el.ID, Point{X: centre.X + 100, Y: centre.Y}))
	c.End(Point{X: centre.X, Y: centre.Y + 100})
	got, _ := c.Get(el.ID)
	assert.InDelta(t, 90, got.Rotation, 1e-9)

	// A further 180° sweep wraps into (-180, 180].
	require.NoError(t, c.BeginRotate(el.ID, Point{X: centre.X, Y: centre.Y + 100}))
	c.End(Point{X: centre.X, Y: centre.Y - 100})
	got, _ = c.Get(el.ID)
	assert.InDelta(t, -90, got.Rotation, 1e-9)
}

func TestCompositor_SingleGestureSlot(t *testing.T) {
	c, el := newTestCompositor(t)
	other, err := c.AddText("hi", "", "", 0)
	require.NoError(t, err)

	require.NoError(t, c.BeginDrag(el.ID, Point{}))
	assert.ErrorIs(t, c.BeginRotate(other.ID, Point{}), ErrGestureActive)
	assert.ErrorIs(t, c.BeginDrag(el.ID, Point{}), ErrGestureActive)
	c.End(Point{})

	assert.NoError(t, c.BeginRotate(other.ID, Point{X: 1}))
	c.Cancel()
	assert.ErrorIs(t, c.BeginDrag("missing", Point{}), ErrElementNotFound)
}

func TestCompositor_CancelRestores(t *testing.T) {
	c, el := newTestCompositor(t)
	require.NoError(t, c.BeginDrag(el.ID, Point{}))
	c.Move(Point{X: 100, Y: 100})
	c.Cancel()
	got, _ := c.Get(el.ID)
	assert.Equal(t, el.X, got.X)
	assert.Equal(t, el.Y, got.Y)
}

func TestCompositor_MoveWhileIdleIsNoOp(t *testing.T) {
	c, el := newTestCompositor(t)
	c.Move(Point{X: 400, Y: 400})
	got, _ := c.Get(el.ID)
	assert.Equal(t, el.X, got.X)
}

func TestCompositor_AddTextDefaults(t *testing.T) {
	c := NewCompositor(100, 100)
	el, err := c.AddText("caption", "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultFontSize, el.FontSize)
	assert.Equal(t, DefaultFontFamily, el.FontFamily)
	assert.Equal(t, DefaultFill, el.Fill)
}

func TestCompositor_AddTextBoxFitsText(t *testing.T) {
	c := NewCompositor(1000, 800)
	el, err := c.AddText("Summer sale", "", "", 0.05)
	require.NoError(t, err)

	w, h, err := TextSize(el, 800)
	require.NoError(t, err)
	require.Positive(t, w)
	assert.InDelta(t, float64(w)/1000, el.W, 1e-9)
	assert.InDelta(t, float64(h)/800, el.H, 1e-9)

	longer, err := c.AddText("Summer sale, everything must go", "", "", 0.05)
	require.NoError(t, err)
	assert.Greater(t, longer.W, el.W)
}

func TestCompositor_RemoveAndUpdate(t *testing.T) {
	c, el := newTestCompositor(t)
	text, err := c.AddText("caption", "mono", "#00ff00", 0.1)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	text.Text = "updated"
	text.W = 5
	updated, err := c.Update(text)
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Text)
	assert.Equal(t, MaxSize, updated.W)

	require.NoError(t, c.BeginDrag(el.ID, Point{}))
	require.NoError(t, c.Remove(el.ID))
	kind, _ := c.Gesture()
	assert.Equal(t, Idle, kind)
	assert.Equal(t, 1, c.Len())
	assert.ErrorIs(t, c.Remove(el.ID), ErrElementNotFound)

	_, err = c.Update(Element{ID: "nope", Kind: KindText})
	assert.ErrorIs(t, err, ErrElementNotFound)

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestCompositor_CompositeSingleLeavesOthers(t *testing.T) {
	c, el := newTestCompositor(t)
	_, err := c.AddText("caption", "", "", 0)
	require.NoError(t, err)

	out, err := c.Composite(raster.Filled(1000, 800, background), el.ID)
	require.NoError(t, err)
	assertRed(t, out, 500, 400)
	assert.Equal(t, 2, c.Len())
}
