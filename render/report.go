package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/shipledger/valuation"
)

// ReportRow is one expense line of a monthly report.
type ReportRow struct {
	Date        time.Time
	Client      string
	Description string
	Quantity    string
	Status      string
	Breakdown   valuation.Breakdown
}

// ReportData is a monthly expense report, optionally for a single client.
type ReportData struct {
	Issuer        string
	Period        time.Time
	Client        string
	Rows          []ReportRow
	TotalProducts decimal.Decimal
	TotalShipping decimal.Decimal
	TotalBilled   decimal.Decimal
	TotalPaid     decimal.Decimal
	Balance       decimal.Decimal
}

var reportHeaders = []string{"Date", "Client", "Product", "Qty", "Product+Markup", "Shipping", "Total", "Status"}

// ReportPDF renders the report as a PDF with a summary box and one table
// row per expense.
func ReportPDF(r ReportData) ([]byte, error) {
	pdf, tr := newDocument()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.Text(14, 20, tr(r.Issuer))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(14, 27, "Shipping & Fulfillment Services")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(14, 40, "Monthly Expense Report")
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(14, 48, "Period: "+r.Period.Format("January 2006"))

	summaryY := 57.0
	if r.Client != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Text(14, 56, tr("To: "+r.Client))
		summaryY = 65
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(14, summaryY, "Summary")
	boxY := summaryY + 5
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(250, 250, 250)
	pdf.Rect(14, boxY, 90, 25, "FD")

	summaryLine := func(y float64, label, value string, c rgb, style string) {
		pdf.SetFont("Helvetica", style, 9)
		setColor(pdf, black)
		pdf.Text(18, y, label)
		setColor(pdf, c)
		pdf.SetXY(45, y-4)
		pdf.CellFormat(30, 5, tr(value), "", 0, "R", false, 0, "")
		setColor(pdf, black)
	}
	balanceColor := green
	if r.Balance.Round(2).IsPositive() {
		balanceColor = red
	}
	summaryLine(boxY+7, "Total Billed:", money(r.TotalBilled), black, "")
	summaryLine(boxY+14, "Total Paid:", money(r.TotalPaid), green, "")
	summaryLine(boxY+21, "Balance Remaining:", money(r.Balance), balanceColor, "B")

	body := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		body[i] = []string{
			row.Date.Format(dateLayoutLong),
			row.Client,
			row.Description,
			row.Quantity,
			money(row.Breakdown.CostWithMarkup),
			money(row.Breakdown.ShippingCost),
			money(row.Breakdown.TotalBillable),
			row.Status,
		}
	}

	pdf.SetY(boxY + 35)
	t := table{
		pdf: pdf, tr: tr, head: rgb{33, 150, 243}, fontSize: 8, rowH: 6,
		columns: []column{
			{reportHeaders[0], 22, "L"},
			{reportHeaders[1], 32, "L"},
			{reportHeaders[2], 40, "L"},
			{reportHeaders[3], 10, "C"},
			{reportHeaders[4], 24, "R"},
			{reportHeaders[5], 18, "R"},
			{reportHeaders[6], 20, "R"},
			{reportHeaders[7], 16, "L"},
		},
	}
	t.draw(14, body, []string{
		"Totals", "", "", "",
		money(r.TotalProducts),
		money(r.TotalShipping),
		money(r.TotalBilled),
		"",
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report %s: %w", r.Period.Format("2006-01"), err)
	}
	return buf.Bytes(), nil
}

// ReportWorkbook renders the same report as a single-sheet XLSX workbook.
// Amounts are written as numbers rounded to cents.
func ReportWorkbook(r ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Report " + r.Period.Format("2006-01")
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	_ = f.SetDocProps(&excelize.DocProperties{
		Creator: r.Issuer,
		Title:   "Monthly Expense Report",
	})

	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	amount := func(d decimal.Decimal) float64 {
		v, _ := d.Round(2).Float64()
		return v
	}

	rowIdx := 2
	for _, row := range r.Rows {
		values := []any{
			row.Date.Format("2006-01-02"),
			row.Client,
			row.Description,
			row.Quantity,
			amount(row.Breakdown.CostWithMarkup),
			amount(row.Breakdown.ShippingCost),
			amount(row.Breakdown.TotalBillable),
			row.Status,
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			_ = f.SetCellValue(sheet, cell, v)
		}
		rowIdx++
	}

	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"Total Billed", r.TotalBilled},
		{"Total Paid", r.TotalPaid},
		{"Balance Remaining", r.Balance},
	}
	rowIdx++
	for _, t := range totals {
		labelCell, _ := excelize.CoordinatesToCellName(6, rowIdx)
		valueCell, _ := excelize.CoordinatesToCellName(7, rowIdx)
		_ = f.SetCellValue(sheet, labelCell, t.label)
		_ = f.SetCellValue(sheet, valueCell, amount(t.value))
		rowIdx++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
