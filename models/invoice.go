package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Invoice struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	InvoiceNo     string          `gorm:"uniqueIndex;size:50;not null" json:"invoice_no"`
	Client        Client          `gorm:"size:100;not null;index" json:"client"`
	IssuedAt      time.Time       `gorm:"not null" json:"issued_at"`
	PeriodStart   time.Time       `gorm:"not null" json:"period_start"`
	PeriodEnd     time.Time       `gorm:"not null" json:"period_end"`
	TotalBillable decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_billable"`
	TotalPaid     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_paid"`
	ObjectKey     string          `gorm:"size:500" json:"object_key,omitempty"`
}

// TableName overrides the table name
func (Invoice) TableName() string {
	return "invoices"
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
