package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/shipledger/models"
	"github.com/yourusername/shipledger/valuation"
)

var maxPercentage = decimal.NewFromInt(100)

// ExpenseInput holds the operator-editable fields of an expense.
// PaymentReceived is deliberately absent: only the allocator changes it.
type ExpenseInput struct {
	Date               time.Time
	Client             string
	ProductDescription string
	Quantity           string
	ProductCost        decimal.Decimal
	TaxPercentage      *decimal.Decimal
	MarkupBasis        string
	MarkupPercentage   *decimal.Decimal
	ShippingCost       decimal.Decimal
	ShippingCarrier    string
	Status             string
	Notes              string
}

// CreatePaymentInput is a money-received event to record and allocate.
type CreatePaymentInput struct {
	Client string
	Amount decimal.Decimal
	Date   time.Time
	Notes  string
}

func parseClient(field, name string) (models.Client, error) {
	client, ok := models.ParseClient(name)
	if !ok {
		return "", invalid(field, "unknown client %q", name)
	}
	return client, nil
}

func validateMoney(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return invalid(field, "must not be negative")
	}
	if !v.Equal(v.Round(2)) {
		return invalid(field, "must have at most 2 decimal places")
	}
	return nil
}

func validatePercentage(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(maxPercentage) {
		return invalid(field, "must be between 0 and 100")
	}
	if !v.Equal(v.Round(2)) {
		return invalid(field, "must have at most 2 decimal places")
	}
	return nil
}

// toExpense validates in and copies it onto e, applying defaults.
func (in ExpenseInput) toExpense(e *models.Expense) error {
	if in.Date.IsZero() {
		return invalid("date", "is required")
	}
	client, err := parseClient("client", in.Client)
	if err != nil {
		return err
	}
	description := strings.TrimSpace(in.ProductDescription)
	if description == "" {
		return invalid("product_description", "is required")
	}
	if err := validateMoney("product_cost", in.ProductCost); err != nil {
		return err
	}
	if err := validateMoney("shipping_cost", in.ShippingCost); err != nil {
		return err
	}

	tax := valuation.DefaultTaxPercentage
	if in.TaxPercentage != nil {
		tax = *in.TaxPercentage
	}
	if err := validatePercentage("tax_percentage", tax); err != nil {
		return err
	}
	markup := decimal.Zero
	if in.MarkupPercentage != nil {
		markup = *in.MarkupPercentage
	}
	if err := validatePercentage("markup_percentage", markup); err != nil {
		return err
	}
	basis, ok := valuation.ParseMarkupBasis(strings.TrimSpace(in.MarkupBasis))
	if !ok {
		return invalid("markup_basis", "unknown markup basis %q", in.MarkupBasis)
	}

	e.Date = in.Date
	e.Client = client
	e.ProductDescription = description
	e.Quantity = defaultString(in.Quantity, "1")
	e.ProductCost = in.ProductCost
	e.TaxPercentage = tax
	e.MarkupBasis = basis
	e.MarkupPercentage = markup
	e.ShippingCost = in.ShippingCost
	e.ShippingCarrier = defaultString(in.ShippingCarrier, models.DefaultShippingCarrier)
	e.Status = defaultString(in.Status, models.StatusShipped)
	e.Notes = strings.TrimSpace(in.Notes)
	return nil
}

func (in CreatePaymentInput) validate() (models.Client, error) {
	client, err := parseClient("client", in.Client)
	if err != nil {
		return "", err
	}
	if !in.Amount.IsPositive() {
		return "", invalid("amount", "must be greater than 0")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return "", invalid("amount", "must have at most 2 decimal places")
	}
	return client, nil
}

func defaultString(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
