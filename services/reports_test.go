package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/shipledger/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMonthlyReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	second := f.createExpense(t, plainExpense(models.ClientBestDeal, day(2024, 3, 9), "50"))
	first := f.createExpense(t, productExpense(models.ClientBestDeal, day(2024, 3, 4)))
	f.createExpense(t, plainExpense(models.ClientLePhenicien, day(2024, 3, 10), "20"))
	f.createExpense(t, plainExpense(models.ClientBestDeal, day(2024, 4, 1), "999"))
	f.pay(t, models.ClientBestDeal, "130")

	t.Run("Single client", func(t *testing.T) {
		r, err := f.reports.Monthly(ctx, "2024-03", "best deal")
		require.NoError(t, err)

		assert.Equal(t, "2024-03", r.Month)
		assert.Equal(t, string(models.ClientBestDeal), r.Client)
		require.Len(t, r.Expenses, 2)
		assert.Equal(t, first.ID, r.Expenses[0].ID, "oldest first")
		assert.Equal(t, second.ID, r.Expenses[1].ID)
		assertAmount(t, "160", r.Totals.ProductsWithMarkup)
		assertAmount(t, "5", r.Totals.Shipping)
		assertAmount(t, "165", r.Totals.Billed)
		assertAmount(t, "130", r.Totals.Paid)
		assertAmount(t, "35", r.Totals.Balance)
	})

	t.Run("All clients", func(t *testing.T) {
		r, err := f.reports.Monthly(ctx, "2024-03", "")
		require.NoError(t, err)

		assert.Len(t, r.Expenses, 3)
		assertAmount(t, "185", r.Totals.Billed)
	})

	t.Run("Bad month", func(t *testing.T) {
		_, err := f.reports.Monthly(ctx, "2024-13", "")
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("PDF", func(t *testing.T) {
		out, name, err := f.reports.MonthlyPDF(ctx, "2024-03", string(models.ClientBestDeal))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
		assert.Equal(t, "expense-report-best-deal-2024-03.pdf", name)
	})

	t.Run("Workbook", func(t *testing.T) {
		out, name, err := f.reports.MonthlyWorkbook(ctx, "2024-03", "")
		require.NoError(t, err)
		assert.NotEmpty(t, out)
		assert.Equal(t, "expense-report-2024-03.xlsx", name)
	})
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.reports.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	f.createExpense(t, plainExpense(models.ClientBestDeal, day(2024, 2, 28), "1000"))
	for i := 1; i <= 6; i++ {
		f.createExpense(t, plainExpense(models.ClientBestDeal, day(2024, 3, i), "10"))
	}
	latest := f.createExpense(t, plainExpense(models.ClientGrandMarcheFR, day(2024, 3, 14), "40"))
	f.pay(t, models.ClientGrandMarcheFR, "15")

	dash, err := f.reports.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, "2024-03", dash.Month)
	assertAmount(t, "100", dash.Totals.Billed)
	assertAmount(t, "15", dash.Totals.Paid)
	assertAmount(t, "85", dash.Totals.Balance)

	require.Len(t, dash.ClientBalances, 2)
	assert.Equal(t, models.ClientBestDeal, dash.ClientBalances[0].Client)
	assert.Equal(t, 6, dash.ClientBalances[0].Count)
	assertAmount(t, "60", dash.ClientBalances[0].Balance)
	assert.Equal(t, models.ClientGrandMarcheFR, dash.ClientBalances[1].Client)
	assertAmount(t, "25", dash.ClientBalances[1].Balance)

	require.Len(t, dash.Recent, 5)
	assert.Equal(t, latest.ID, dash.Recent[0].ID)
}

func TestClientCredit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createExpense(t, productExpense(models.ClientBestDeal, day(2024, 3, 1)))
	f.createExpense(t, plainExpense(models.ClientLePhenicien, day(2024, 3, 1), "30"))
	f.pay(t, models.ClientBestDeal, "100")
	f.pay(t, models.ClientLePhenicien, "50")

	statements, err := f.reports.ClientCredit(ctx)
	require.NoError(t, err)
	require.Len(t, statements, 2)

	best := statements[0]
	assert.Equal(t, models.ClientBestDeal, best.Client)
	assertAmount(t, "115", best.Billed)
	assertAmount(t, "15", best.Outstanding)
	assertAmount(t, "0", best.Unallocated)

	phenicien := statements[1]
	assert.Equal(t, models.ClientLePhenicien, phenicien.Client)
	assertAmount(t, "0", phenicien.Outstanding)
	assertAmount(t, "30", phenicien.Applied)
	assertAmount(t, "20", phenicien.Unallocated)
}

func TestCheckConsistency(t *testing.T) {
	ctx := context.Background()

	t.Run("Clean ledger", func(t *testing.T) {
		f := newFixture(t)
		f.createExpense(t, productExpense(models.ClientBestDeal, day(2024, 3, 1)))
		f.createExpense(t, plainExpense(models.ClientBestDeal, day(2024, 3, 2), "50"))
		p := f.pay(t, models.ClientBestDeal, "130")
		f.pay(t, models.ClientBestDeal, "10")
		require.NoError(t, f.payments.DeletePayment(ctx, p.ID))

		report, err := f.reports.CheckConsistency(ctx)

		require.NoError(t, err)
		assert.True(t, report.OK)
		assert.Empty(t, report.Faults)
		assert.Equal(t, 2, report.Expenses)
		assert.Equal(t, 1, report.Payments)
		assert.Equal(t, 1, report.Applications)
	})

	t.Run("Reports tampering", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		f := newFixture(t)
		f.reports = NewReportService(f.store, models.ClientATaPorte, zap.New(core))

		e := f.createExpense(t, plainExpense(models.ClientBestDeal, day(2024, 3, 1), "100"))
		p := f.pay(t, models.ClientBestDeal, "40")
		require.NoError(t, f.store.SetPaymentReceived(ctx, e.ID, d("45")))
		require.NoError(t, f.store.CreateApplication(ctx, &models.PaymentApplication{
			PaymentID:     p.ID,
			ExpenseID:     "orphan",
			AmountApplied: d("1"),
		}))

		report, err := f.reports.CheckConsistency(ctx)
		require.NoError(t, err)
		assert.False(t, report.OK)

		kinds := make(map[string]ConsistencyFault)
		for _, fault := range report.Faults {
			kinds[fault.Kind] = fault
		}
		require.Contains(t, kinds, FaultReceivedMismatch)
		assertAmount(t, "40", kinds[FaultReceivedMismatch].Expected)
		assertAmount(t, "45", kinds[FaultReceivedMismatch].Actual)
		require.Contains(t, kinds, FaultPaymentOverApplied)
		assertAmount(t, "41", kinds[FaultPaymentOverApplied].Actual)
		assert.Contains(t, kinds, FaultMissingExpense)

		assert.Equal(t, len(report.Faults), logs.FilterMessage("consistency fault detected").Len())
		assertAmount(t, "45", f.received(t, e.ID), "check never repairs")
	})
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"BEST DEAL":                 "best-deal",
		"LE PHÉNICIEN":              "le-phenicien",
		"LE GRAND MARCHÉ DE FRANCE": "le-grand-marche-de-france",
		"  A TA PORTE ":             "a-ta-porte",
	}
	for in, want := range tests {
		assert.Equal(t, want, slug(in), in)
	}
}
