package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yourusername/shipledger/repository"
)

var (
	// ErrNotFound is returned, wrapped with the entity, when a referenced
	// record does not exist.
	ErrNotFound = repository.ErrNotFound
	// ErrExpenseHasApplications blocks deleting an expense that payments
	// have been applied to. Delete those payments first.
	ErrExpenseHasApplications = errors.New("expense has payment applications")
)

// ValidationError reports malformed or out-of-range input. Nothing is
// written when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Fault kinds detected by the allocator and the consistency check.
const (
	FaultMissingExpense         = "application_missing_expense"
	FaultMissingPayment         = "application_missing_payment"
	FaultNegativeReceived       = "negative_payment_received"
	FaultReceivedMismatch       = "payment_received_mismatch"
	FaultPaymentOverApplied     = "payment_over_applied"
	FaultNonPositiveApplication = "non_positive_application"
)

// ConsistencyFault is a detected violation of the allocation invariants.
// It is reported, never corrected automatically.
type ConsistencyFault struct {
	Kind      string          `json:"kind"`
	PaymentID string          `json:"payment_id,omitempty"`
	ExpenseID string          `json:"expense_id,omitempty"`
	Expected  decimal.Decimal `json:"expected"`
	Actual    decimal.Decimal `json:"actual"`
}

func (f *ConsistencyFault) Error() string {
	return fmt.Sprintf("consistency fault %s (payment=%q expense=%q expected=%s actual=%s)",
		f.Kind, f.PaymentID, f.ExpenseID, f.Expected, f.Actual)
}
