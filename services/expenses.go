package services

import (
	"context"
	"fmt"

	"github.com/yourusername/shipledger/models"
	"github.com/yourusername/shipledger/repository"
	"github.com/yourusername/shipledger/valuation"
	"go.uber.org/zap"
)

// ExpenseView is an expense together with its breakdown, rounded to cents.
type ExpenseView struct {
	models.Expense
	Breakdown valuation.Breakdown `json:"breakdown"`
}

func newExpenseView(e models.Expense) ExpenseView {
	return ExpenseView{Expense: e, Breakdown: e.Breakdown().Rounded()}
}

// ExpenseQuery filters ListExpenses. Month is "YYYY-MM".
type ExpenseQuery struct {
	Client string
	Month  string
	Status string
}

// ExpenseService handles direct operator edits of expenses. It never
// allocates payments and never writes PaymentReceived.
type ExpenseService struct {
	store repository.Store
	log   *zap.Logger
}

func NewExpenseService(store repository.Store, log *zap.Logger) *ExpenseService {
	return &ExpenseService{
		store: store,
		log:   log.Named("expenses"),
	}
}

func (s *ExpenseService) CreateExpense(ctx context.Context, in ExpenseInput) (*ExpenseView, error) {
	var e models.Expense
	if err := in.toExpense(&e); err != nil {
		return nil, err
	}
	if err := s.store.CreateExpense(ctx, &e); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.log.Info("expense created",
		zap.String("expense_id", e.ID),
		zap.String("client", string(e.Client)))
	view := newExpenseView(e)
	return &view, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id string) (*ExpenseView, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("expense %s: %w", id, err)
	}
	view := newExpenseView(*e)
	return &view, nil
}

// ListExpenses returns matching expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, q ExpenseQuery) ([]ExpenseView, error) {
	f := repository.ExpenseFilter{Status: q.Status}
	if q.Client != "" {
		client, err := parseClient("client", q.Client)
		if err != nil {
			return nil, err
		}
		f.Client = &client
	}
	if q.Month != "" {
		period, err := ParseMonth(q.Month)
		if err != nil {
			return nil, err
		}
		f.From, f.To = period.Start, period.End
	}

	expenses, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return nil, err
	}
	views := make([]ExpenseView, len(expenses))
	for i, e := range expenses {
		views[i] = newExpenseView(e)
	}
	return views, nil
}

// UpdateExpense replaces the editable fields of an expense. Allocation is
// not re-run: PaymentReceived keeps the cash already applied and the
// outstanding balance is simply recomputed, possibly turning negative.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id string, in ExpenseInput) (*ExpenseView, error) {
	existing, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("expense %s: %w", id, err)
	}

	updated := *existing
	if err := in.toExpense(&updated); err != nil {
		return nil, err
	}
	if err := s.store.UpdateExpense(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update expense %s: %w", id, err)
	}

	view := newExpenseView(updated)
	if view.Breakdown.OutstandingBalance.IsNegative() {
		s.log.Info("expense edit left it overpaid",
			zap.String("expense_id", id),
			zap.String("outstanding", view.Breakdown.OutstandingBalance.String()))
	}
	return &view, nil
}

// DeleteExpense removes an expense that no payment has been applied to.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.GetExpense(ctx, id); err != nil {
			return fmt.Errorf("expense %s: %w", id, err)
		}
		apps, err := tx.ListApplicationsForExpense(ctx, id)
		if err != nil {
			return err
		}
		if len(apps) > 0 {
			return fmt.Errorf("expense %s: %w", id, ErrExpenseHasApplications)
		}
		if err := tx.DeleteExpense(ctx, id); err != nil {
			return fmt.Errorf("delete expense %s: %w", id, err)
		}
		return nil
	})
}
