package avatar

import (
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGIF(t *testing.T, frames int) string {
	t.Helper()

	palette := color.Palette{color.Black, color.White}
	g := &gif.GIF{}
	for i := range frames {
		img := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
		for p := range img.Pix {
			img.Pix[p] = uint8(i % 2)
		}
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, 5)
	}

	path := filepath.Join(t.TempDir(), "anim.gif")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gif.EncodeAll(f, g))
	require.NoError(t, f.Close())
	return path
}

func TestLoad(t *testing.T) {
	c := Load(writeGIF(t, 3))

	assert.False(t, c.Placeholder)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 50*time.Millisecond, c.Delay(0))
	assert.Equal(t, image.Rect(0, 0, 4, 4), c.Frame(0).Bounds())

	// loops
	assert.Same(t, c.Frame(1), c.Frame(4))
}

func TestLoad_MissingFallsBackToPlaceholder(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "nope.gif"))

	require.True(t, c.Placeholder)
	require.Equal(t, 1, c.Len())
	img := c.Frame(0)
	assert.Equal(t, image.Rect(0, 0, Width, Height), img.Bounds())

	r, g, b, _ := img.At(150, 250).RGBA()
	assert.Equal(t, []uint32{234, 234, 234}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestLoad_CorruptFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gif")
	require.NoError(t, os.WriteFile(path, []byte("not a gif"), 0o644))

	assert.True(t, Load(path).Placeholder)
}

func TestSet_For(t *testing.T) {
	s := LoadSet(writeGIF(t, 2), "/nonexistent/active.gif")
	assert.False(t, s.For(Idle).Placeholder)
	assert.True(t, s.For(Active).Placeholder)
	assert.Equal(t, "active", Active.String())
}

func TestRender(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := range 10 {
		for x := range 10 {
			if x < 5 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	out := Render(img, 4, 2)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Equal(t, "@@  ", l)
	}

	assert.Empty(t, Render(img, 0, 3))
}
