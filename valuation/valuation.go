// Package valuation turns the raw pricing fields of an expense into its
// tax and markup breakdown. Every function here is pure: the same input
// always yields the same output and inputs are never modified.
package valuation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MarkupBasis selects whether the markup is applied to the tax-exclusive or
// the tax-inclusive amount.
type MarkupBasis string

const (
	BeforeTax MarkupBasis = "BeforeTax"
	AfterTax  MarkupBasis = "AfterTax"
)

// DefaultTaxPercentage is the reduced French VAT rate applied when an
// expense does not carry one.
var DefaultTaxPercentage = decimal.RequireFromString("5.5")

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ParseMarkupBasis accepts the canonical names as well as the HT/TTC
// shorthands used by operators. An empty value means AfterTax.
func ParseMarkupBasis(s string) (MarkupBasis, bool) {
	switch s {
	case "", string(AfterTax), "TTC":
		return AfterTax, true
	case string(BeforeTax), "HT":
		return BeforeTax, true
	}
	return "", false
}

// Input carries the fields of an expense that influence its value.
type Input struct {
	ProductCost      decimal.Decimal
	TaxPercentage    decimal.Decimal
	MarkupPercentage decimal.Decimal
	MarkupBasis      MarkupBasis
	ShippingCost     decimal.Decimal
	PaymentReceived  decimal.Decimal
}

// Breakdown is the monetary decomposition of one expense. Amounts are kept
// at full precision; call Rounded for presentation.
type Breakdown struct {
	TaxExclusiveCost   decimal.Decimal `json:"tax_exclusive_cost"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	TaxInclusiveCost   decimal.Decimal `json:"tax_inclusive_cost"`
	MarkupAmount       decimal.Decimal `json:"markup_amount"`
	CostWithMarkup     decimal.Decimal `json:"cost_with_markup"`
	ShippingCost       decimal.Decimal `json:"shipping_cost"`
	TotalBillable      decimal.Decimal `json:"total_billable"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// Compute values a single expense.
//
// With AfterTax the entered cost already includes tax and the markup is
// applied on top of it. With BeforeTax the entered cost excludes tax; the
// markup is applied first and tax is charged on the marked-up amount.
// OutstandingBalance can be negative when an expense is overpaid.
//
// Tax percentages of -100 or less are not valid and must be rejected before
// reaching this function.
func Compute(in Input) Breakdown {
	taxRate := in.TaxPercentage.Div(hundred)
	markupFactor := one.Add(in.MarkupPercentage.Div(hundred))

	var b Breakdown
	if in.MarkupBasis == BeforeTax {
		ht := in.ProductCost
		htMarked := ht.Mul(markupFactor)
		taxOnMarked := htMarked.Mul(taxRate)

		b.CostWithMarkup = htMarked.Add(taxOnMarked)
		b.TaxExclusiveCost = ht
		b.TaxInclusiveCost = ht.Mul(one.Add(taxRate))
		b.TaxAmount = b.TaxInclusiveCost.Sub(ht)
		b.MarkupAmount = b.CostWithMarkup.Sub(b.TaxInclusiveCost)
	} else {
		ttc := in.ProductCost
		ht := ttc.Div(one.Add(taxRate))

		b.TaxInclusiveCost = ttc
		b.TaxExclusiveCost = ht
		b.TaxAmount = ttc.Sub(ht)
		b.CostWithMarkup = ttc.Mul(markupFactor)
		b.MarkupAmount = b.CostWithMarkup.Sub(ttc)
	}

	b.ShippingCost = in.ShippingCost
	b.TotalBillable = b.CostWithMarkup.Add(in.ShippingCost)
	b.OutstandingBalance = b.TotalBillable.Sub(in.PaymentReceived)
	return b
}

// Rounded returns a copy of b with every amount rounded to cents.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		TaxExclusiveCost:   b.TaxExclusiveCost.Round(2),
		TaxAmount:          b.TaxAmount.Round(2),
		TaxInclusiveCost:   b.TaxInclusiveCost.Round(2),
		MarkupAmount:       b.MarkupAmount.Round(2),
		CostWithMarkup:     b.CostWithMarkup.Round(2),
		ShippingCost:       b.ShippingCost.Round(2),
		TotalBillable:      b.TotalBillable.Round(2),
		OutstandingBalance: b.OutstandingBalance.Round(2),
	}
}

// TaxLine aggregates the marked-up product amounts billed at one tax rate.
type TaxLine struct {
	Rate         decimal.Decimal `json:"rate"`
	TaxExclusive decimal.Decimal `json:"tax_exclusive"`
	Tax          decimal.Decimal `json:"tax"`
	TaxInclusive decimal.Decimal `json:"tax_inclusive"`
}

// TaxSummary is the per-rate VAT recap printed on invoices. Shipping is not
// part of it.
type TaxSummary struct {
	Lines             []TaxLine       `json:"lines"`
	TotalTaxExclusive decimal.Decimal `json:"total_tax_exclusive"`
	TotalTax          decimal.Decimal `json:"total_tax"`
	TotalTaxInclusive decimal.Decimal `json:"total_tax_inclusive"`
}

// SummarizeTax groups the given expenses by tax rate. Each expense's
// marked-up amount is treated as tax-inclusive and split back into base and
// tax at its own rate. Lines are ordered by ascending rate.
func SummarizeTax(items []Input) TaxSummary {
	byRate := make(map[string]*TaxLine)
	for _, in := range items {
		b := Compute(in)
		key := in.TaxPercentage.String()
		line, ok := byRate[key]
		if !ok {
			line = &TaxLine{Rate: in.TaxPercentage}
			byRate[key] = line
		}
		ttc := b.CostWithMarkup
		ht := ttc.Div(one.Add(in.TaxPercentage.Div(hundred)))
		line.TaxExclusive = line.TaxExclusive.Add(ht)
		line.Tax = line.Tax.Add(ttc.Sub(ht))
		line.TaxInclusive = line.TaxInclusive.Add(ttc)
	}

	var s TaxSummary
	for _, line := range byRate {
		s.Lines = append(s.Lines, *line)
		s.TotalTaxExclusive = s.TotalTaxExclusive.Add(line.TaxExclusive)
		s.TotalTax = s.TotalTax.Add(line.Tax)
		s.TotalTaxInclusive = s.TotalTaxInclusive.Add(line.TaxInclusive)
	}
	sort.Slice(s.Lines, func(i, j int) bool {
		return s.Lines[i].Rate.LessThan(s.Lines[j].Rate)
	})
	return s
}
