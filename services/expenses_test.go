package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/shipledger/models"
	"github.com/yourusername/shipledger/valuation"
)

func TestCreateExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("Applies defaults", func(t *testing.T) {
		f := newFixture(t)

		e, err := f.expenses.CreateExpense(ctx, ExpenseInput{
			Date:               day(2024, 3, 1),
			Client:             "le phénicien",
			ProductDescription: "  Huile d'olive ",
			ProductCost:        d("12.40"),
		})

		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, models.ClientLePhenicien, e.Client)
		assert.Equal(t, "Huile d'olive", e.ProductDescription)
		assert.Equal(t, "1", e.Quantity)
		assertAmount(t, "5.5", e.TaxPercentage)
		assertAmount(t, "0", e.MarkupPercentage)
		assert.Equal(t, valuation.AfterTax, e.MarkupBasis)
		assert.Equal(t, models.DefaultShippingCarrier, e.ShippingCarrier)
		assert.Equal(t, models.StatusShipped, e.Status)
		assertAmount(t, "0", e.PaymentReceived)
		assert.Nil(t, e.InvoiceNumber)
	})

	t.Run("Computes breakdown", func(t *testing.T) {
		f := newFixture(t)

		e := f.createExpense(t, productExpense(models.ClientBestDeal, day(2024, 3, 1)))

		assertAmount(t, "83.33", e.Breakdown.TaxExclusiveCost)
		assertAmount(t, "16.67", e.Breakdown.TaxAmount)
		assertAmount(t, "110", e.Breakdown.CostWithMarkup)
		assertAmount(t, "115", e.Breakdown.TotalBillable)
		assertAmount(t, "115", e.Breakdown.OutstandingBalance)
	})

	tests := []struct {
		name  string
		edit  func(in *ExpenseInput)
		field string
	}{
		{"Missing date", func(in *ExpenseInput) { in.Date = time.Time{} }, "date"},
		{"Unknown client", func(in *ExpenseInput) { in.Client = "ACME" }, "client"},
		{"Blank description", func(in *ExpenseInput) { in.ProductDescription = "   " }, "product_description"},
		{"Negative cost", func(in *ExpenseInput) { in.ProductCost = d("-1") }, "product_cost"},
		{"Sub-cent cost", func(in *ExpenseInput) { in.ProductCost = d("1.001") }, "product_cost"},
		{"Negative shipping", func(in *ExpenseInput) { in.ShippingCost = d("-0.01") }, "shipping_cost"},
		{"Tax above 100", func(in *ExpenseInput) { in.TaxPercentage = dp("100.5") }, "tax_percentage"},
		{"Negative markup", func(in *ExpenseInput) { in.MarkupPercentage = dp("-2") }, "markup_percentage"},
		{"Unknown basis", func(in *ExpenseInput) { in.MarkupBasis = "sideways" }, "markup_basis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := productExpense(models.ClientBestDeal, day(2024, 3, 1))
			tt.edit(&in)

			_, err := f.expenses.CreateExpense(ctx, in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestListExpenses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	march := f.createExpense(t, plainExpense(models.ClientBestDeal, day(2024, 3, 31), "10"))
	april := f.createExpense(t, plainExpense(models.ClientBestDeal, day(2024, 4, 1), "10"))
	pending := plainExpense(models.ClientGrandMarcheFR, day(2024, 3, 15), "10")
	pending.Status = models.StatusPending
	other := f.createExpense(t, pending)

	all, err := f.expenses.ListExpenses(ctx, ExpenseQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, april.ID, all[0].ID, "newest first")

	byMonth, err := f.expenses.ListExpenses(ctx, ExpenseQuery{Month: "2024-03"})
	require.NoError(t, err)
	assert.Len(t, byMonth, 2)

	byClient, err := f.expenses.ListExpenses(ctx, ExpenseQuery{Client: "BEST DEAL", Month: "2024-03"})
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.Equal(t, march.ID, byClient[0].ID)

	byStatus, err := f.expenses.ListExpenses(ctx, ExpenseQuery{Status: models.StatusPending})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, other.ID, byStatus[0].ID)

	_, err = f.expenses.ListExpenses(ctx, ExpenseQuery{Month: "March"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "month", verr.Field)
}

func TestUpdateExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("Keeps payment received and never reallocates", func(t *testing.T) {
		f := newFixture(t)
		e := f.createExpense(t, productExpense(models.ClientBestDeal, day(2024, 3, 1)))
		next := f.createExpense(t, plainExpense(models.ClientBestDeal, day(2024, 3, 2), "50"))
		f.pay(t, models.ClientBestDeal, "115")

		edit := productExpense(models.ClientBestDeal, day(2024, 3, 1))
		edit.ProductCost = d("50")
		updated, err := f.expenses.UpdateExpense(ctx, e.ID, edit)

		require.NoError(t, err)
		assertAmount(t, "115", updated.PaymentReceived)
		assertAmount(t, "60", updated.Breakdown.TotalBillable)
		assertAmount(t, "-55", updated.Breakdown.OutstandingBalance)
		assertAmount(t, "0", f.received(t, next.ID))

		stored, err := f.expenses.GetExpense(ctx, e.ID)
		require.NoError(t, err)
		assertAmount(t, "50", stored.ProductCost)
		assertAmount(t, "115", stored.PaymentReceived)
	})

	t.Run("Unknown expense", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.expenses.UpdateExpense(ctx, "missing", plainExpense(models.ClientBestDeal, day(2024, 3, 1), "1"))

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	paid := f.createExpense(t, plainExpense(models.ClientBestDeal, day(2024, 3, 1), "10"))
	f.pay(t, models.ClientBestDeal, "10")
	unpaid := f.createExpense(t, plainExpense(models.ClientBestDeal, day(2024, 3, 2), "10"))

	err := f.expenses.DeleteExpense(ctx, paid.ID)
	assert.ErrorIs(t, err, ErrExpenseHasApplications)
	_, err = f.expenses.GetExpense(ctx, paid.ID)
	assert.NoError(t, err)

	require.NoError(t, f.expenses.DeleteExpense(ctx, unpaid.ID))
	_, err = f.expenses.GetExpense(ctx, unpaid.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.expenses.DeleteExpense(ctx, unpaid.ID), ErrNotFound)
}
