package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/shipledger/models"
	"github.com/yourusername/shipledger/repository"
	"go.uber.org/zap"
)

// PaymentService records client payments and allocates them against the
// client's outstanding expenses, oldest first. It is the only writer of
// Expense.PaymentReceived.
type PaymentService struct {
	store repository.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewPaymentService(store repository.Store, log *zap.Logger) *PaymentService {
	return &PaymentService{
		store: store,
		log:   log.Named("payments"),
		now:   time.Now,
	}
}

// CreatePayment persists the payment and distributes its amount over the
// client's expenses by ascending date (then creation time, then id). Each
// expense is re-read and re-valued before it receives money, so amounts
// applied earlier in the same call are taken into account. Whatever cannot
// be applied stays unallocated: it is the client's implicit credit.
//
// The payment, its applications and the expense updates are written in one
// transaction.
func (s *PaymentService) CreatePayment(ctx context.Context, in CreatePaymentInput) (*models.Payment, error) {
	client, err := in.validate()
	if err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	payment := &models.Payment{
		Date:   date,
		Client: client,
		Amount: in.Amount,
		Notes:  in.Notes,
	}

	var remaining decimal.Decimal
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		expenses, err := tx.ListExpensesForClient(ctx, client, true)
		if err != nil {
			return fmt.Errorf("list expenses for %s: %w", client, err)
		}

		remaining = payment.Amount
		for _, candidate := range expenses {
			if !remaining.IsPositive() {
				break
			}

			expense, err := tx.GetExpense(ctx, candidate.ID)
			if err != nil {
				return fmt.Errorf("reload expense %s: %w", candidate.ID, err)
			}

			// Applications are cash amounts, so the balance is taken in cents.
			outstanding := expense.Breakdown().OutstandingBalance.Round(2)
			if !outstanding.IsPositive() {
				continue
			}
			applied := decimal.Min(outstanding, remaining)

			app := &models.PaymentApplication{
				PaymentID:     payment.ID,
				ExpenseID:     expense.ID,
				AmountApplied: applied,
			}
			if err := tx.CreateApplication(ctx, app); err != nil {
				return fmt.Errorf("apply payment to expense %s: %w", expense.ID, err)
			}
			if err := tx.SetPaymentReceived(ctx, expense.ID, expense.PaymentReceived.Add(applied)); err != nil {
				return fmt.Errorf("update expense %s: %w", expense.ID, err)
			}

			payment.Applications = append(payment.Applications, *app)
			remaining = remaining.Sub(applied)
		}
		return nil
	})
	if err != nil {
		s.log.Error("payment allocation failed",
			zap.String("client", string(client)),
			zap.String("amount", in.Amount.String()),
			zap.Error(err))
		return nil, err
	}

	s.log.Info("payment recorded",
		zap.String("payment_id", payment.ID),
		zap.String("client", string(client)),
		zap.String("amount", payment.Amount.String()),
		zap.Int("applications", len(payment.Applications)),
		zap.String("unallocated", remaining.String()))
	return payment, nil
}

// DeletePayment reverses every application of the payment, then removes the
// applications and the payment itself, all in one transaction. Each
// expense is decremented by the stored amount applied, not by a
// recomputed figure.
func (s *PaymentService) DeletePayment(ctx context.Context, id string) error {
	var reversed int
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.GetPayment(ctx, id); err != nil {
			return fmt.Errorf("payment %s: %w", id, err)
		}

		apps, err := tx.ListApplicationsForPayment(ctx, id)
		if err != nil {
			return fmt.Errorf("list applications of payment %s: %w", id, err)
		}

		for _, app := range apps {
			expense, err := tx.GetExpense(ctx, app.ExpenseID)
			if errors.Is(err, repository.ErrNotFound) {
				return &ConsistencyFault{
					Kind:      FaultMissingExpense,
					PaymentID: id,
					ExpenseID: app.ExpenseID,
					Expected:  app.AmountApplied,
				}
			}
			if err != nil {
				return fmt.Errorf("load expense %s: %w", app.ExpenseID, err)
			}

			restored := expense.PaymentReceived.Sub(app.AmountApplied)
			if restored.IsNegative() {
				return &ConsistencyFault{
					Kind:      FaultNegativeReceived,
					PaymentID: id,
					ExpenseID: expense.ID,
					Expected:  app.AmountApplied,
					Actual:    expense.PaymentReceived,
				}
			}
			if err := tx.SetPaymentReceived(ctx, expense.ID, restored); err != nil {
				return fmt.Errorf("restore expense %s: %w", expense.ID, err)
			}
		}

		if err := tx.DeleteApplicationsForPayment(ctx, id); err != nil {
			return fmt.Errorf("delete applications of payment %s: %w", id, err)
		}
		if err := tx.DeletePayment(ctx, id); err != nil {
			return fmt.Errorf("delete payment %s: %w", id, err)
		}
		reversed = len(apps)
		return nil
	})
	if err != nil {
		var fault *ConsistencyFault
		if errors.As(err, &fault) {
			s.log.Error("payment reversal aborted on inconsistent data",
				zap.String("payment_id", id),
				zap.String("kind", fault.Kind),
				zap.String("expense_id", fault.ExpenseID))
		}
		return err
	}

	s.log.Info("payment deleted",
		zap.String("payment_id", id),
		zap.Int("applications_reversed", reversed))
	return nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", id, err)
	}
	return p, nil
}

// ListPayments returns payments newest first, optionally for one client.
func (s *PaymentService) ListPayments(ctx context.Context, client string) ([]models.Payment, error) {
	var f repository.PaymentFilter
	if client != "" {
		c, err := parseClient("client", client)
		if err != nil {
			return nil, err
		}
		f.Client = &c
	}
	return s.store.ListPayments(ctx, f)
}

func (s *PaymentService) ListApplications(ctx context.Context, paymentID string) ([]models.PaymentApplication, error) {
	if _, err := s.store.GetPayment(ctx, paymentID); err != nil {
		return nil, fmt.Errorf("payment %s: %w", paymentID, err)
	}
	return s.store.ListApplicationsForPayment(ctx, paymentID)
}
