package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/shipledger/models"
	"github.com/yourusername/shipledger/valuation"
)

// InvoiceData is everything printed on a client invoice.
type InvoiceData struct {
	InvoiceNo string
	IssuedAt  time.Time
	Issuer    models.CompanyInfo
	Client    models.CompanyInfo
	Expenses  []models.Expense
	TotalPaid decimal.Decimal
}

// InvoiceTotals are the amounts shown in the totals box of an invoice.
type InvoiceTotals struct {
	ProductsWithMarkup decimal.Decimal
	Shipping           decimal.Decimal
	GrandTotal         decimal.Decimal
	Paid               decimal.Decimal
	BalanceDue         decimal.Decimal
}

// Totals sums the invoice lines at full precision.
func (d InvoiceData) Totals() InvoiceTotals {
	var t InvoiceTotals
	for i := range d.Expenses {
		b := d.Expenses[i].Breakdown()
		t.ProductsWithMarkup = t.ProductsWithMarkup.Add(b.CostWithMarkup)
		t.Shipping = t.Shipping.Add(b.ShippingCost)
	}
	t.GrandTotal = t.ProductsWithMarkup.Add(t.Shipping)
	t.Paid = d.TotalPaid
	t.BalanceDue = t.GrandTotal.Sub(d.TotalPaid)
	return t
}

// InvoicePDF renders a French-style invoice: issuer and client blocks, one
// line per product and per shipping charge, a VAT recap by rate and the
// totals box with payment status.
func InvoicePDF(data InvoiceData) ([]byte, error) {
	pdf, tr := newDocument()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(14, 20, tr(data.Issuer.Name))
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(14, 27, tr(data.Issuer.Address))
	pdf.Text(14, 32, tr("Tél: "+data.Issuer.Phone))
	pdf.Text(14, 37, tr("SIREN: "+data.Issuer.Siren))
	pdf.Text(14, 42, tr("TVA: "+data.Issuer.VATNumber))

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(120, 20, tr("FACTURER À:"))
	pdf.SetFont("Helvetica", "", 9)
	clientLines := []string{
		data.Client.Name,
		data.Client.Address,
		"Tél: " + data.Client.Phone,
		"SIREN: " + data.Client.Siren,
		"TVA: " + data.Client.VATNumber,
	}
	for i, line := range clientLines {
		pdf.Text(120, 27+float64(i)*5, tr(line))
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Text(14, 60, "FACTURE")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(14, 68, tr("N° "+data.InvoiceNo))
	pdf.Text(14, 74, "Date: "+data.IssuedAt.Format(dateLayoutFR))

	var body [][]string
	var shipping [][]string
	inputs := make([]valuation.Input, len(data.Expenses))
	for i := range data.Expenses {
		e := &data.Expenses[i]
		inputs[i] = e.ValuationInput()
		b := e.Breakdown()
		body = append(body, []string{
			e.Date.Format(dateLayoutFR),
			e.ProductDescription,
			e.Quantity,
			money(b.TaxExclusiveCost),
			percent(e.TaxPercentage, 1),
			money(b.TaxAmount),
			money(b.TaxInclusiveCost),
			percent(e.MarkupPercentage, 0),
			money(b.CostWithMarkup),
		})
		if b.ShippingCost.IsPositive() {
			carrier := e.ShippingCarrier
			if carrier == "" {
				carrier = "Standard"
			}
			shipping = append(shipping, []string{
				e.Date.Format(dateLayoutFR),
				"Livraison - " + carrier,
				"1",
				money(b.ShippingCost),
				"0%",
				money(decimal.Zero),
				money(b.ShippingCost),
				"0%",
				money(b.ShippingCost),
			})
		}
	}
	body = append(body, shipping...)

	pdf.SetY(85)
	items := table{
		pdf: pdf, tr: tr, head: headBlue, fontSize: 8, rowH: 6,
		columns: []column{
			{"Date", 20, "L"},
			{"Description", 48, "L"},
			{"Qté", 10, "C"},
			{"HT", 18, "R"},
			{"TVA", 13, "R"},
			{"Mont. TVA", 18, "R"},
			{"TTC", 18, "R"},
			{"Marge", 13, "R"},
			{"Total", 24, "R"},
		},
	}
	items.draw(14, body, nil)

	summary := valuation.SummarizeTax(inputs)
	var recap [][]string
	for _, line := range summary.Lines {
		recap = append(recap, []string{
			percent(line.Rate, 1),
			money(line.TaxExclusive),
			money(line.Tax),
			money(line.TaxInclusive),
		})
	}
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, tr("RÉCAPITULATIF TVA"), "", 1, "L", false, 0, "")
	taxTable := table{
		pdf: pdf, tr: tr, head: headSlate, fontSize: 9, rowH: 6,
		columns: []column{
			{"Taux TVA", 30, "L"},
			{"Base HT", 40, "R"},
			{"Montant TVA", 40, "R"},
			{"Total TTC", 40, "R"},
		},
	}
	taxTable.draw(14, recap, []string{
		"TOTAL",
		money(summary.TotalTaxExclusive),
		money(summary.TotalTax),
		money(summary.TotalTaxInclusive),
	})

	totals := data.Totals()
	boxY := pdf.GetY() + 10
	boxH := 40.0
	if totals.Paid.IsPositive() {
		boxH = 55
	}
	if boxY+boxH > 270 {
		pdf.AddPage()
		boxY = 20
	}
	pdf.SetDrawColor(headSlate.r, headSlate.g, headSlate.b)
	pdf.SetLineWidth(0.5)
	pdf.Rect(120, boxY, 75, boxH, "D")

	labelValue := func(y float64, label, value string) {
		pdf.Text(125, y, tr(label))
		pdf.SetXY(150, y-4)
		pdf.CellFormat(38, 5, tr(value), "", 0, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 10)
	labelValue(boxY+8, "Sous-total produits TTC:", money(totals.ProductsWithMarkup))
	labelValue(boxY+16, "Livraison:", money(totals.Shipping))
	pdf.SetFont("Helvetica", "B", 12)
	labelValue(boxY+28, "TOTAL TTC À PAYER:", money(totals.GrandTotal))

	if totals.Paid.IsPositive() {
		pdf.SetFont("Helvetica", "", 9)
		pdf.Text(125, boxY+38, tr("Montant payé: "+money(totals.Paid)))
		if totals.BalanceDue.Round(2).IsPositive() {
			setColor(pdf, red)
			pdf.Text(125, boxY+46, tr("Solde dû: "+money(totals.BalanceDue)))
		} else {
			setColor(pdf, green)
			pdf.Text(125, boxY+46, tr("PAYÉ"))
		}
		setColor(pdf, black)
	}

	pdf.SetFont("Helvetica", "I", 8)
	setColor(pdf, grey)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetXY(14, 278)
	pdf.CellFormat(182, 4, tr("Conditions de paiement: Net à 30 jours - Pénalités de retard: 3 fois le taux d'intérêt légal"), "", 1, "C", false, 0, "")
	pdf.SetX(14)
	pdf.CellFormat(182, 4, tr("En cas de retard de paiement, une indemnité forfaitaire de 40€ sera exigible"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", data.InvoiceNo, err)
	}
	return buf.Bytes(), nil
}
