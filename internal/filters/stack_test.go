package filters

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

var pureRed = color.NRGBA{255, 0, 0, 255}

func TestApply_EmptyStackIsNoOp(t *testing.T) {
	src := gradientBuffer(16, 9)
	assert.True(t, src.Equal(Apply(src, nil)))
	assert.True(t, src.Equal(NewStack().Apply(src)))
}

func TestApply_ZeroAmountsAreNoOps(t *testing.T) {
	src := gradientBuffer(16, 9)
	var entries []Entry
	for _, k := range Kinds() {
		entries = append(entries, Entry{ID: string(k), Kind: k, Amount: 0})
	}
	assert.True(t, src.Equal(Apply(src, entries)))
}

func TestApply_GrayscaleOnRed(t *testing.T) {
	src := raster.Filled(1, 1, pureRed)
	out := Apply(src, []Entry{{Kind: Grayscale, Amount: 100}})
	assert.Equal(t, color.NRGBA{76, 76, 76, 255}, out.NRGBAAt(0, 0))
}

func TestApply_OrderMatters(t *testing.T) {
	src := raster.Filled(1, 1, pureRed)

	graySepia := Apply(src, []Entry{
		{Kind: Grayscale, Amount: 100},
		{Kind: Sepia, Amount: 50},
	})
	sepiaGray := Apply(src, []Entry{
		{Kind: Sepia, Amount: 50},
		{Kind: Grayscale, Amount: 100},
	})

	// gray (76,76,76) blended halfway with its sepia (103,91,71) gives (90,84,74).
	assert.Equal(t, color.NRGBA{90, 84, 74, 255}, graySepia.NRGBAAt(0, 0))
	// red blended halfway with sepia(red) = (100,89,69) gives (178,45,35), then gray.
	assert.Equal(t, color.NRGBA{84, 84, 84, 255}, sepiaGray.NRGBAAt(0, 0))
	assert.False(t, graySepia.Equal(sepiaGray))
}

func TestApply_PartialAmountInterpolates(t *testing.T) {
	src := raster.Filled(1, 1, color.NRGBA{200, 100, 0, 255})
	out := Apply(src, []Entry{{Kind: Invert, Amount: 25}})
	// 200*0.75 + 55*0.25 = 163.75; 100*0.75 + 155*0.25 = 113.75; 0*0.75 + 255*0.25 = 63.75
	assert.Equal(t, color.NRGBA{164, 114, 64, 255}, out.NRGBAAt(0, 0))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	src := gradientBuffer(8, 8)
	before := src.Clone()
	Apply(src, []Entry{{Kind: Invert, Amount: 100}, {Kind: Blur, Amount: 100}})
	assert.True(t, before.Equal(src))
}

func TestApply_SkipsUnknownKinds(t *testing.T) {
	src := gradientBuffer(4, 4)
	assert.True(t, src.Equal(Apply(src, []Entry{{Kind: "posterize", Amount: 100}})))
	assert.ErrorIs(t, Validate([]Entry{{Kind: "posterize"}}), ErrUnknownFilter)
	assert.NoError(t, Validate([]Entry{{Kind: Noir}}))
}

func TestStack_Operations(t *testing.T) {
	s := NewStack()
	a, err := s.Add(Grayscale, 100)
	require.NoError(t, err)
	b, err := s.Add(Sepia, 150)
	require.NoError(t, err)
	c, err := s.Add(Blur, -4)
	require.NoError(t, err)

	_, err = s.Add("posterize", 50)
	assert.ErrorIs(t, err, ErrUnknownFilter)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 100.0, b.Amount, "amount clamps to 100")
	assert.Equal(t, 0.0, c.Amount, "amount clamps to 0")

	kinds := func() []Kind {
		var out []Kind
		for _, e := range s.Entries() {
			out = append(out, e.Kind)
		}
		return out
	}

	require.NoError(t, s.MoveUp(b.ID))
	assert.Equal(t, []Kind{Sepia, Grayscale, Blur}, kinds())

	require.NoError(t, s.MoveUp(b.ID)) // already first
	assert.Equal(t, []Kind{Sepia, Grayscale, Blur}, kinds())

	require.NoError(t, s.MoveDown(a.ID))
	assert.Equal(t, []Kind{Sepia, Blur, Grayscale}, kinds())

	require.NoError(t, s.MoveDown(a.ID)) // already last
	assert.Equal(t, []Kind{Sepia, Blur, Grayscale}, kinds())

	require.NoError(t, s.SetAmount(c.ID, 40))
	assert.Equal(t, 40.0, s.Entries()[1].Amount)

	require.NoError(t, s.Remove(c.ID))
	assert.Equal(t, []Kind{Sepia, Grayscale}, kinds())
	assert.Equal(t, 2, s.Len())

	assert.ErrorIs(t, s.Remove("missing"), ErrEntryNotFound)
	assert.ErrorIs(t, s.MoveUp("missing"), ErrEntryNotFound)
	assert.ErrorIs(t, s.MoveDown("missing"), ErrEntryNotFound)
	assert.ErrorIs(t, s.SetAmount("missing", 1), ErrEntryNotFound)
}

func TestStack_EntriesIsACopy(t *testing.T) {
	s := NewStack()
	_, _ = s.Add(Noir, 60)
	entries := s.Entries()
	entries[0].Amount = 1
	assert.Equal(t, 60.0, s.Entries()[0].Amount)
}

func TestNewStackFrom(t *testing.T) {
	s, err := NewStackFrom([]Entry{{Kind: Warm, Amount: 30}, {ID: "keep", Kind: Cool, Amount: 120}})
	require.NoError(t, err)
	entries := s.Entries()
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, "keep", entries[1].ID)
	assert.Equal(t, 100.0, entries[1].Amount)

	_, err = NewStackFrom([]Entry{{Kind: "nope"}})
	assert.ErrorIs(t, err, ErrUnknownFilter)
}
