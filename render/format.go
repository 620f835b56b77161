// Package render lays out invoices and monthly reports as PDF and XLSX
// documents. It only formats numbers it is given; all amounts come from the
// valuation package.
package render

import (
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	dateLayoutFR   = "02/01/2006"
	dateLayoutLong = "Jan 02, 2006"
)

func money(d decimal.Decimal) string {
	return "€" + d.StringFixed(2)
}

func percent(d decimal.Decimal, places int32) string {
	return d.StringFixed(places) + "%"
}

type rgb struct{ r, g, b int }

var (
	black     = rgb{0, 0, 0}
	red       = rgb{200, 0, 0}
	green     = rgb{0, 150, 0}
	grey      = rgb{100, 100, 100}
	headBlue  = rgb{41, 128, 185}
	headSlate = rgb{52, 73, 94}
	footLight = rgb{236, 240, 241}
)

type column struct {
	header string
	width  float64
	align  string
}

// table draws a header row, body rows and an optional footer row starting
// at the current position. fpdf breaks pages on its own.
type table struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	columns  []column
	head     rgb
	fontSize float64
	rowH     float64
}

func (t table) row(cells []string, style string, fill *rgb) {
	t.pdf.SetFont("Helvetica", style, t.fontSize)
	if fill != nil {
		t.pdf.SetFillColor(fill.r, fill.g, fill.b)
	}
	for i, col := range t.columns {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		t.pdf.CellFormat(col.width, t.rowH, t.tr(text), "1", 0, col.align, fill != nil, 0, "")
	}
	t.pdf.Ln(t.rowH)
}

func (t table) draw(x float64, body [][]string, foot []string) {
	t.pdf.SetX(x)
	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = col.header
	}
	t.pdf.SetTextColor(255, 255, 255)
	t.row(headers, "B", &t.head)
	t.pdf.SetTextColor(black.r, black.g, black.b)

	for _, cells := range body {
		t.pdf.SetX(x)
		t.row(cells, "", nil)
	}
	if foot != nil {
		t.pdf.SetX(x)
		t.row(foot, "B", &footLight)
	}
}

func newDocument() (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

func setColor(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}
