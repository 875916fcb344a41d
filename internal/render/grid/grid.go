// Package grid renders a canvas as SVG and translates pointer input on that
// SVG into edits or color picks.
package grid

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/palette"
)

// Action is what a pointer press did.
type Action int

const (
	ActionNone Action = iota
	ActionPainted
	ActionPicked
)

func (a Action) String() string {
	switch a {
	case ActionPainted:
		return "painted"
	case ActionPicked:
		return "picked"
	default:
		return "none"
	}
}

// Pointer is a press on the rendered canvas. RelX and RelY are relative to
// the canvas bounding box, in [0, 1). Pick is the color-pick modifier.
type Pointer struct {
	RelX float64 `json:"rel_x"`
	RelY float64 `json:"rel_y"`
	Pick bool    `json:"pick"`
}

// Result reports the cell a pointer press landed on and what happened there.
type Result struct {
	Action Action             `json:"-"`
	X      int                `json:"x"`
	Y      int                `json:"y"`
	Color  palette.ColorIndex `json:"color"`
}

// Renderer draws one canvas state. It never mutates the state except through
// AppendEdit on a paint press.
type Renderer struct {
	state *canvas.State
}

// New returns a renderer over state.
func New(state *canvas.State) *Renderer {
	return &Renderer{state: state}
}

// WriteSVG writes the effective grid as an SVG document with one unit per
// cell. Unpainted cells are left out so the background shows through.
func (r *Renderer) WriteSVG(w io.Writer) error {
	cells := r.state.EffectiveGrid()

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, canvas.Width, canvas.Height)
	for pos, c := range cells {
		if c == palette.Unpainted {
			continue
		}
		x, y, _ := canvas.Coords(pos)
		fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="1" height="1" fill="%s"/>`, x, y, palette.Decode(c))
	}
	sb.WriteString("</svg>")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write svg: %w", err)
	}
	return nil
}

// SVG returns the document WriteSVG would write.
func (r *Renderer) SVG() string {
	var sb strings.Builder
	_ = r.WriteSVG(&sb)
	return sb.String()
}

// CellAt maps a relative pointer position to grid coordinates.
func CellAt(relX, relY float64) (x, y int, err error) {
	x = int(math.Floor(relX * canvas.Width))
	y = int(math.Floor(relY * canvas.Height))
	if _, err := canvas.Position(x, y); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// HandlePointer applies a press. With Pick set it returns the effective color
// under the pointer as the new selection. Otherwise, on an unlocked canvas,
// it appends an edit with selected; on a locked canvas nothing happens.
func (r *Renderer) HandlePointer(p Pointer, selected palette.ColorIndex) (Result, error) {
	x, y, err := CellAt(p.RelX, p.RelY)
	if err != nil {
		return Result{}, err
	}

	if p.Pick {
		c, err := r.state.EffectiveColorAt(x, y)
		if err != nil {
			return Result{}, err
		}
		return Result{Action: ActionPicked, X: x, Y: y, Color: c}, nil
	}

	if r.state.Meta().IsLocked {
		return Result{Action: ActionNone, X: x, Y: y}, nil
	}
	if err := r.state.AppendEdit(x, y, selected); err != nil {
		return Result{}, err
	}
	return Result{Action: ActionPainted, X: x, Y: y, Color: selected}, nil
}

// WritePaletteSVG writes the 64×64 color picker, outlining selected.
func WritePaletteSVG(w io.Writer, selected palette.ColorIndex) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, palette.GridSize, palette.GridSize)
	for i := 0; i < palette.Count; i++ {
		c := palette.ColorIndex(i)
		if !palette.Paintable(c) {
			continue
		}
		x, y := palette.CellOf(c)
		fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="1" height="1" fill="%s"/>`, x, y, palette.Decode(c))
	}
	if palette.Paintable(selected) {
		x, y := palette.CellOf(selected)
		fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="1" height="1" fill="none" stroke="#fff" stroke-width="0.2"/>`, x, y)
	}
	sb.WriteString("</svg>")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write palette svg: %w", err)
	}
	return nil
}

// PaletteAt resolves a press on the palette picker to a brush color.
func PaletteAt(relX, relY float64) (palette.ColorIndex, error) {
	c, err := palette.IndexAt(relX, relY)
	if err != nil {
		return 0, err
	}
	if !palette.Paintable(c) {
		return 0, fmt.Errorf("%w: index %d is not a brush color", palette.ErrOutOfRange, c)
	}
	return c, nil
}
