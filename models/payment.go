package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is money received from one client.
type Payment struct {
	ID           string               `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt    time.Time            `json:"created_at"`
	Date         time.Time            `gorm:"not null;index" json:"date"`
	Client       Client               `gorm:"size:100;not null;index" json:"client"`
	Amount       decimal.Decimal      `gorm:"type:decimal(12,2);not null" json:"amount"`
	Notes        string               `gorm:"type:text" json:"notes"`
	Applications []PaymentApplication `gorm:"foreignKey:PaymentID" json:"applications,omitempty"`
}

// TableName overrides the table name
func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if !p.Client.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownClient, p.Client)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PaymentApplication records the share of a payment applied to one expense.
type PaymentApplication struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	PaymentID     string          `gorm:"size:36;not null;index" json:"payment_id"`
	ExpenseID     string          `gorm:"size:36;not null;index" json:"expense_id"`
	AmountApplied decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_applied"`
}

// TableName overrides the table name
func (PaymentApplication) TableName() string {
	return "payment_applications"
}

func (a *PaymentApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
