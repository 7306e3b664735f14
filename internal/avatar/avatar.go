// Package avatar loads the looping avatar animations and renders their
// frames for the terminal.
package avatar

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	log "log/slog"
	"os"
	"strings"
	"time"
)

const (
	Width  = 300
	Height = 500

	minDelay = 20 * time.Millisecond
)

var PlaceholderColor = color.RGBA{R: 234, G: 234, B: 234, A: 255}

type Mood int

const (
	Idle Mood = iota
	Active
)

func (m Mood) String() string {
	if m == Active {
		return "active"
	}
	return "idle"
}

// Clip is a looping animation. Frames are fully composited.
type Clip struct {
	Frames      []image.Image
	Delays      []time.Duration
	Placeholder bool
}

// Placeholder is a single flat frame used when an animation is missing.
func Placeholder() *Clip {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: PlaceholderColor}, image.Point{}, draw.Src)
	return &Clip{
		Frames:      []image.Image{img},
		Delays:      []time.Duration{time.Second},
		Placeholder: true,
	}
}

// Load decodes the GIF at path, falling back to Placeholder.
func Load(path string) *Clip {
	c, err := decode(path)
	if err != nil {
		log.Warn("Avatar unavailable, using placeholder", "path", path, "err", err)
		return Placeholder()
	}
	return c
}

func decode(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif has no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}

	canvas := image.NewRGBA(bounds)
	c := &Clip{}
	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		snapshot := image.NewRGBA(bounds)
		copy(snapshot.Pix, canvas.Pix)
		c.Frames = append(c.Frames, snapshot)

		delay := minDelay
		if i < len(g.Delay) {
			delay = max(minDelay, time.Duration(g.Delay[i])*10*time.Millisecond)
		}
		c.Delays = append(c.Delays, delay)

		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}
	return c, nil
}

func (c *Clip) Len() int { return len(c.Frames) }

func (c *Clip) Frame(i int) image.Image { return c.Frames[i%len(c.Frames)] }

func (c *Clip) Delay(i int) time.Duration { return c.Delays[i%len(c.Delays)] }

// Set holds the idle and active animations.
type Set struct {
	Idle   *Clip
	Active *Clip
}

func LoadSet(idlePath, activePath string) Set {
	return Set{Idle: Load(idlePath), Active: Load(activePath)}
}

func (s Set) For(m Mood) *Clip {
	if m == Active {
		return s.Active
	}
	return s.Idle
}

// dark to light
const ramp = "@%#*+=-:. "

// Render draws img as cols x rows characters by luminance. Transparent
// pixels render as the lightest character.
func Render(img image.Image, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}

	b := img.Bounds()
	var sb strings.Builder
	sb.Grow((cols + 1) * rows)

	for y := range rows {
		py := b.Min.Y + (y*b.Dy()+b.Dy()/(2*rows))/rows
		for x := range cols {
			px := b.Min.X + (x*b.Dx()+b.Dx()/(2*cols))/cols
			sb.WriteByte(ramp[shade(img.At(px, py))])
		}
		if y < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func shade(c color.Color) int {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return len(ramp) - 1
	}
	lum := (299*float64(r) + 587*float64(g) + 114*float64(b)) / 1000 / 0xffff
	return min(len(ramp)-1, int(lum*float64(len(ramp))))
}
