// Package matrix mirrors a canvas onto an LED panel. Each canvas cell lights
// a scale×scale block of LEDs. A full load writes every painted cell and
// syncs once; a confirmed patch rewrites only the touched cells.
package matrix

import (
	"fmt"
	"image/color"
	"log"
	"sync"

	"github.com/dyluth/splatter/internal/metrics"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/palette"
)

// Renderer drives a Panel from a canvas state. It implements
// reconciler.Listener.
type Renderer struct {
	state      *canvas.State
	panel      Panel
	scale      int
	brightness int

	mu sync.Mutex
}

// New creates a renderer for a square panel whose side is a whole multiple
// of the canvas side. brightness is a percentage in [1, 100].
func New(state *canvas.State, panel Panel, brightness int) (*Renderer, error) {
	cols, rows := panel.Bounds()
	if cols%canvas.Width != 0 || rows%canvas.Height != 0 || cols/canvas.Width != rows/canvas.Height || cols == 0 {
		return nil, fmt.Errorf("panel %dx%d cannot show a %dx%d canvas at a whole scale", cols, rows, canvas.Width, canvas.Height)
	}
	if brightness < 1 || brightness > 100 {
		return nil, fmt.Errorf("brightness must be in [1, 100], got %d", brightness)
	}
	return &Renderer{
		state:      state,
		panel:      panel,
		scale:      cols / canvas.Width,
		brightness: brightness,
	}, nil
}

// Scale returns the LED block size per canvas cell.
func (r *Renderer) Scale() int {
	return r.scale
}

// Load clears the panel, writes every painted cell and syncs once.
func (r *Renderer) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.panel.Clear()
	cells := r.state.EffectiveGrid()
	written := 0
	for pos, c := range cells {
		if c == palette.Unpainted {
			continue
		}
		r.fillCell(pos, c)
		written++
	}
	metrics.PanelPixelsWritten.Add(float64(written))

	if err := r.panel.Sync(); err != nil {
		return fmt.Errorf("failed to sync panel: %w", err)
	}
	metrics.PanelSyncs.WithLabelValues("full").Inc()
	return nil
}

// Patch rewrites the cells at positions from the current state and syncs.
// Unpainted cells are written as off.
func (r *Renderer) Patch(positions []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pos := range positions {
		x, y, err := canvas.Coords(pos)
		if err != nil {
			return err
		}
		c, err := r.state.EffectiveColorAt(x, y)
		if err != nil {
			return err
		}
		r.fillCell(pos, c)
	}
	metrics.PanelPixelsWritten.Add(float64(len(positions)))

	if err := r.panel.Sync(); err != nil {
		return fmt.Errorf("failed to sync panel: %w", err)
	}
	metrics.PanelSyncs.WithLabelValues("patch").Inc()
	return nil
}

// CanvasPatched implements reconciler.Listener.
func (r *Renderer) CanvasPatched(positions []int) {
	if err := r.Patch(positions); err != nil {
		log.Printf("[Matrix] Failed to apply patch: %v", err)
	}
}

// CanvasReloaded implements reconciler.Listener.
func (r *Renderer) CanvasReloaded() {
	if err := r.Load(); err != nil {
		log.Printf("[Matrix] Failed to reload: %v", err)
	}
}

// CanvasLocked implements reconciler.Listener. The committed grid is
// unchanged by a lock, so the panel stays as it is.
func (r *Renderer) CanvasLocked(title string) {
	log.Printf("[Matrix] Canvas locked as %q", title)
}

// fillCell writes one canvas cell to its LED block. Caller holds r.mu.
func (r *Renderer) fillCell(pos int, c palette.ColorIndex) {
	x, y := pos%canvas.Width, pos/canvas.Width
	led := r.dim(palette.RGBA(c))
	if c == palette.Unpainted {
		led = color.RGBA{A: 0xff}
	}
	for dy := 0; dy < r.scale; dy++ {
		for dx := 0; dx < r.scale; dx++ {
			r.panel.SetPixel(x*r.scale+dx, y*r.scale+dy, led)
		}
	}
}

func (r *Renderer) dim(c color.RGBA) color.RGBA {
	if r.brightness == 100 {
		return c
	}
	return color.RGBA{
		R: uint8(int(c.R) * r.brightness / 100),
		G: uint8(int(c.G) * r.brightness / 100),
		B: uint8(int(c.B) * r.brightness / 100),
		A: 0xff,
	}
}
