// Package export writes canvases to image and document formats: a PNG
// thumbnail upscaled with nearest-neighbour sampling, and a one-page PDF
// poster with the title and the contributor list.
package export

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/palette"
	"github.com/jung-kurt/gofpdf"
)

// MaxScale bounds the PNG upscale factor.
const MaxScale = 64

// Image returns grid as a canvas.Width*scale × canvas.Height*scale image.
// Unpainted cells are transparent.
func Image(grid []palette.ColorIndex, scale int) (*image.NRGBA, error) {
	if len(grid) != canvas.Size {
		return nil, fmt.Errorf("%w: grid has %d cells, want %d", canvas.ErrMalformedSnapshot, len(grid), canvas.Size)
	}
	if scale < 1 || scale > MaxScale {
		return nil, fmt.Errorf("scale must be in [1, %d], got %d", MaxScale, scale)
	}

	img := imaging.New(canvas.Width, canvas.Height, color.NRGBA{})
	for pos, c := range grid {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("cell %d: %w", pos, err)
		}
		if c == palette.Unpainted {
			continue
		}
		rgba := palette.RGBA(c)
		img.SetNRGBA(pos%canvas.Width, pos/canvas.Width, color.NRGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: 0xff})
	}

	if scale == 1 {
		return img, nil
	}
	return imaging.Resize(img, canvas.Width*scale, canvas.Height*scale, imaging.NearestNeighbor), nil
}

// WritePNG encodes the upscaled grid as PNG.
func WritePNG(w io.Writer, grid []palette.ColorIndex, scale int) error {
	img, err := Image(grid, scale)
	if err != nil {
		return err
	}
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// SavePNG writes the upscaled grid to path. The format follows the file
// extension, so .jpg and .gif work too.
func SavePNG(path string, grid []palette.ColorIndex, scale int) error {
	img, err := Image(grid, scale)
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// Poster is everything printed on a PDF export.
type Poster struct {
	TokenID      uint64
	Meta         canvas.Meta
	Grid         []palette.ColorIndex
	Contributors []canvas.Contributor
}

const (
	pageMargin = 20.0 // mm
	canvasSide = 170.0
	lineHeight = 6.0
)

// WritePDF renders the poster on one A4 page.
func WritePDF(w io.Writer, p Poster) error {
	pdf, err := buildPDF(p)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// SavePDF renders the poster to path.
func SavePDF(path string, p Poster) error {
	pdf, err := buildPDF(p)
	if err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to save pdf: %w", err)
	}
	return nil
}

func buildPDF(p Poster) (*gofpdf.Fpdf, error) {
	if len(p.Grid) != canvas.Size {
		return nil, fmt.Errorf("%w: grid has %d cells, want %d", canvas.ErrMalformedSnapshot, len(p.Grid), canvas.Size)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(p.Meta.DisplayTitle(p.TokenID), false)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(canvasSide, 10, p.Meta.DisplayTitle(p.TokenID), "", 1, "L", false, 0, "")

	status := "Open"
	if p.Meta.IsLocked {
		status = "Locked"
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(canvasSide, lineHeight,
		fmt.Sprintf("Token #%d  |  %s  |  created %s", p.TokenID, status, p.Meta.CreatedAt.UTC().Format("2006-01-02 15:04 MST")),
		"", 1, "L", false, 0, "")
	pdf.Ln(4)

	top := pdf.GetY()
	cell := canvasSide / canvas.Width
	for pos, c := range p.Grid {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("cell %d: %w", pos, err)
		}
		if c == palette.Unpainted {
			continue
		}
		rgba := palette.RGBA(c)
		pdf.SetFillColor(int(rgba.R), int(rgba.G), int(rgba.B))
		x := pageMargin + float64(pos%canvas.Width)*cell
		y := top + float64(pos/canvas.Width)*cell
		pdf.Rect(x, y, cell, cell, "F")
	}
	pdf.SetDrawColor(160, 160, 160)
	pdf.SetLineWidth(0.3)
	pdf.Rect(pageMargin, top, canvasSide, canvasSide, "D")

	pdf.SetY(top + canvasSide + 8)
	if len(p.Contributors) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(canvasSide, 8, "Contributors", "", 1, "L", false, 0, "")
		pdf.SetFont("Courier", "", 9)
		for _, c := range p.Contributors {
			pdf.CellFormat(canvasSide, 5, fmt.Sprintf("%s  %d px", c.Address, c.PixelCount), "", 1, "L", false, 0, "")
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return pdf, nil
}
