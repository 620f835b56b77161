package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/shipledger/models"
	"github.com/yourusername/shipledger/valuation"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleExpenses() []models.Expense {
	return []models.Expense{
		{
			ID:                 "e1",
			Date:               time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			Client:             models.ClientBestDeal,
			ProductDescription: "Cafetière",
			Quantity:           "1",
			ProductCost:        d("100"),
			TaxPercentage:      d("20"),
			MarkupBasis:        valuation.AfterTax,
			MarkupPercentage:   d("10"),
			ShippingCost:       d("5"),
			ShippingCarrier:    "Colissimo",
			Status:             models.StatusShipped,
		},
		{
			ID:                 "e2",
			Date:               time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
			Client:             models.ClientBestDeal,
			ProductDescription: "Épices",
			Quantity:           "3",
			ProductCost:        d("50"),
			TaxPercentage:      d("5.5"),
			MarkupBasis:        valuation.AfterTax,
			Status:             models.StatusPending,
		},
	}
}

func TestInvoiceTotals(t *testing.T) {
	data := InvoiceData{Expenses: sampleExpenses(), TotalPaid: d("130")}

	totals := data.Totals()

	assert.True(t, d("160").Equal(totals.ProductsWithMarkup), totals.ProductsWithMarkup.String())
	assert.True(t, d("5").Equal(totals.Shipping))
	assert.True(t, d("165").Equal(totals.GrandTotal))
	assert.True(t, d("35").Equal(totals.BalanceDue))
}

func TestInvoicePDF(t *testing.T) {
	issuer, _ := models.ClientATaPorte.Company()
	client, _ := models.ClientBestDeal.Company()

	t.Run("Unpaid", func(t *testing.T) {
		out, err := InvoicePDF(InvoiceData{
			InvoiceNo: "7",
			IssuedAt:  time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			Issuer:    issuer,
			Client:    client,
			Expenses:  sampleExpenses(),
		})
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	})

	t.Run("Partially paid", func(t *testing.T) {
		out, err := InvoicePDF(InvoiceData{
			InvoiceNo: "8",
			IssuedAt:  time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			Issuer:    issuer,
			Client:    client,
			Expenses:  sampleExpenses(),
			TotalPaid: d("100"),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	})
}

func sampleReport() ReportData {
	var rows []ReportRow
	r := ReportData{
		Issuer: "A TA PORTE",
		Period: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Client: string(models.ClientBestDeal),
	}
	for _, e := range sampleExpenses() {
		b := e.Breakdown()
		rows = append(rows, ReportRow{
			Date:        e.Date,
			Client:      string(e.Client),
			Description: e.ProductDescription,
			Quantity:    e.Quantity,
			Status:      e.Status,
			Breakdown:   b.Rounded(),
		})
		r.TotalProducts = r.TotalProducts.Add(b.CostWithMarkup)
		r.TotalShipping = r.TotalShipping.Add(b.ShippingCost)
		r.TotalBilled = r.TotalBilled.Add(b.TotalBillable)
	}
	r.Rows = rows
	r.TotalPaid = d("40")
	r.Balance = r.TotalBilled.Sub(r.TotalPaid)
	return r
}

func TestReportPDF(t *testing.T) {
	out, err := ReportPDF(sampleReport())

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestReportWorkbook(t *testing.T) {
	out, err := ReportWorkbook(sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	sheet := "Report 2024-03"
	header, err := f.GetCellValue(sheet, "E1")
	require.NoError(t, err)
	assert.Equal(t, "Product+Markup", header)

	product, _ := f.GetCellValue(sheet, "C2")
	assert.Equal(t, "Cafetière", product)
	total, _ := f.GetCellValue(sheet, "G2")
	assert.Equal(t, "115", total)

	label, _ := f.GetCellValue(sheet, "F7")
	value, _ := f.GetCellValue(sheet, "G7")
	assert.Equal(t, "Balance Remaining", label)
	assert.Equal(t, "125", value)
}
