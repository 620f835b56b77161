package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourusername/shipledger/valuation"
	"gorm.io/gorm"
)

// Common expense status labels. Any non-empty label is accepted; status has
// no effect on amounts.
const (
	StatusShipped    = "shipped"
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCancelled  = "cancelled"
	StatusRefund     = "refund"
)

const DefaultShippingCarrier = "Colissimo"

// Expense is one billable order line.
type Expense struct {
	ID                 string                `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt          time.Time             `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
	Date               time.Time             `gorm:"not null;index" json:"date"`
	Client             Client                `gorm:"size:100;not null;index" json:"client"`
	ProductDescription string                `gorm:"type:text;not null" json:"product_description"`
	Quantity           string                `gorm:"size:20;not null;default:'1'" json:"quantity"`
	ProductCost        decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"product_cost"`
	TaxPercentage      decimal.Decimal       `gorm:"type:decimal(5,2);not null" json:"tax_percentage"`
	MarkupBasis        valuation.MarkupBasis `gorm:"size:10;not null" json:"markup_basis"`
	MarkupPercentage   decimal.Decimal       `gorm:"type:decimal(5,2);not null" json:"markup_percentage"`
	ShippingCost       decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"shipping_cost"`
	ShippingCarrier    string                `gorm:"size:50;not null" json:"shipping_carrier"`
	PaymentReceived    decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"payment_received"`
	Status             string                `gorm:"size:30;not null" json:"status"`
	InvoiceNumber      *string               `gorm:"size:50;index" json:"invoice_number"`
	Notes              string                `gorm:"type:text" json:"notes"`
}

// TableName overrides the table name
func (Expense) TableName() string {
	return "expenses"
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if !e.Client.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownClient, e.Client)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// ValuationInput extracts the pricing fields used by the valuation package.
func (e *Expense) ValuationInput() valuation.Input {
	return valuation.Input{
		ProductCost:      e.ProductCost,
		TaxPercentage:    e.TaxPercentage,
		MarkupPercentage: e.MarkupPercentage,
		MarkupBasis:      e.MarkupBasis,
		ShippingCost:     e.ShippingCost,
		PaymentReceived:  e.PaymentReceived,
	}
}

// Breakdown values the expense at its current paymentReceived.
func (e *Expense) Breakdown() valuation.Breakdown {
	return valuation.Compute(e.ValuationInput())
}
