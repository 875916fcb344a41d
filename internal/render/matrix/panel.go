package matrix

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	fcolor "github.com/fatih/color"
)

// Panel is a physical LED matrix with a back buffer. SetPixel writes the back
// buffer; Sync makes it visible.
type Panel interface {
	Bounds() (cols, rows int)
	SetPixel(x, y int, c color.RGBA)
	Clear()
	Sync() error
}

// FramebufferPanel keeps the panel in memory. When path is set, every Sync
// also writes the visible frame as a PNG there.
type FramebufferPanel struct {
	mu    sync.Mutex
	back  *image.RGBA
	front *image.RGBA
	path  string
	syncs int
}

// NewFramebufferPanel creates a cols×rows panel, all LEDs off.
func NewFramebufferPanel(cols, rows int, path string) *FramebufferPanel {
	r := image.Rect(0, 0, cols, rows)
	p := &FramebufferPanel{
		back:  image.NewRGBA(r),
		front: image.NewRGBA(r),
		path:  path,
	}
	p.Clear()
	draw.Draw(p.front, r, image.NewUniform(color.RGBA{A: 0xff}), image.Point{}, draw.Src)
	return p
}

func (p *FramebufferPanel) Bounds() (cols, rows int) {
	b := p.back.Bounds()
	return b.Dx(), b.Dy()
}

func (p *FramebufferPanel) SetPixel(x, y int, c color.RGBA) {
	p.mu.Lock()
	p.back.SetRGBA(x, y, c)
	p.mu.Unlock()
}

// Clear turns every LED in the back buffer off.
func (p *FramebufferPanel) Clear() {
	p.mu.Lock()
	draw.Draw(p.back, p.back.Bounds(), image.NewUniform(color.RGBA{A: 0xff}), image.Point{}, draw.Src)
	p.mu.Unlock()
}

func (p *FramebufferPanel) Sync() error {
	p.mu.Lock()
	copy(p.front.Pix, p.back.Pix)
	p.syncs++
	frame := imaging.Clone(p.front)
	p.mu.Unlock()

	if p.path == "" {
		return nil
	}
	tmp := filepath.Join(filepath.Dir(p.path), ".frame-tmp.png")
	if err := imaging.Save(frame, tmp); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("failed to publish frame: %w", err)
	}
	return nil
}

// Frame returns a copy of the visible frame.
func (p *FramebufferPanel) Frame() *image.NRGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return imaging.Clone(p.front)
}

// Syncs returns how many times the panel was synced.
func (p *FramebufferPanel) Syncs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.syncs
}

// TerminalPanel draws the panel in a truecolor terminal, two columns per LED.
type TerminalPanel struct {
	mu   sync.Mutex
	out  io.Writer
	cols int
	rows int
	back []color.RGBA
}

// NewTerminalPanel creates a cols×rows panel that draws to out.
func NewTerminalPanel(out io.Writer, cols, rows int) *TerminalPanel {
	return &TerminalPanel{
		out:  out,
		cols: cols,
		rows: rows,
		back: make([]color.RGBA, cols*rows),
	}
}

func (p *TerminalPanel) Bounds() (cols, rows int) {
	return p.cols, p.rows
}

func (p *TerminalPanel) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= p.cols || y < 0 || y >= p.rows {
		return
	}
	p.mu.Lock()
	p.back[x+y*p.cols] = c
	p.mu.Unlock()
}

func (p *TerminalPanel) Clear() {
	p.mu.Lock()
	for i := range p.back {
		p.back[i] = color.RGBA{}
	}
	p.mu.Unlock()
}

// Sync redraws the whole frame from the top-left corner.
func (p *TerminalPanel) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	w := bufio.NewWriter(p.out)
	if !fcolor.NoColor {
		w.WriteString("\x1b[H")
	}
	for y := 0; y < p.rows; y++ {
		for x := 0; x < p.cols; x++ {
			c := p.back[x+y*p.cols]
			if c.R == 0 && c.G == 0 && c.B == 0 {
				w.WriteString("  ")
				continue
			}
			w.WriteString(fcolor.BgRGB(int(c.R), int(c.G), int(c.B)).Sprint("  "))
		}
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to draw terminal frame: %w", err)
	}
	return nil
}
