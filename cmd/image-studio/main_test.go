package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	disimaging "github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "http", "render", "version"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version", "--config", "/does/not/exist.yaml")
	require.NoError(t, err, "version must not need configuration")
	assert.True(t, strings.HasPrefix(out, "image-studio-mcp dev"))
	assert.Contains(t, out, "Git commit: unknown")
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := runRoot(t, "render", "--log-level", "loud", "--in", "a.png", "--out", "b.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestRenderRequiresPaths(t *testing.T) {
	_, err := runRoot(t, "render", "--in", "a.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--in and --out")
}

func TestRenderAppliesRecipe(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.jpg")
	recipe := filepath.Join(dir, "recipe.json")

	src := image.NewNRGBA(image.Rect(0, 0, 30, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			src.SetNRGBA(x, y, color.NRGBA{60, 80, 100, 255})
		}
	}
	require.NoError(t, disimaging.Save(src, in))
	require.NoError(t, os.WriteFile(recipe, []byte(`{"adjustments":{"brightness":150}}`), 0o644))

	stdout, err := runRoot(t, "render", "--in", in, "--out", out, "--recipe", recipe)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(30x20)")

	img, err := disimaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(30, 20), img.Bounds().Size())

	// JPEG is lossy; the brightened colour (90,120,150) survives within a few levels.
	r, g, b, _ := img.At(15, 10).RGBA()
	assert.InDelta(t, 90, float64(r>>8), 4)
	assert.InDelta(t, 120, float64(g>>8), 4)
	assert.InDelta(t, 150, float64(b>>8), 4)
}

func TestRenderRejectsBadRecipe(t *testing.T) {
	dir := t.TempDir()
	recipe := filepath.Join(dir, "recipe.json")
	require.NoError(t, os.WriteFile(recipe, []byte(`{"filters":[{"id":"a","kind":"nope","amount":50}]}`), 0o644))

	_, err := runRoot(t, "render", "--in", "x.png", "--out", filepath.Join(dir, "o.png"), "--recipe", recipe)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipe")
}
