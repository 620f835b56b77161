// Package repository is the persistence layer behind the bookkeeping
// services. A Store is built once at startup around a *gorm.DB; services
// open transactions through Store.Transaction and receive a Store bound to
// that transaction.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/shipledger/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("record not found")

// ExpenseFilter narrows ListExpenses. Zero values mean "no filter"; From is
// inclusive and To exclusive.
type ExpenseFilter struct {
	Client        *models.Client
	Status        string
	InvoiceNumber string
	From          time.Time
	To            time.Time
}

// PaymentFilter narrows ListPayments.
type PaymentFilter struct {
	Client *models.Client
}

// Store is the set of persistence operations the services rely on.
type Store interface {
	// Transaction runs fn inside a database transaction. The Store passed
	// to fn must be used for every read and write belonging to it.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateExpense(ctx context.Context, e *models.Expense) error
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	ListExpenses(ctx context.Context, f ExpenseFilter) ([]models.Expense, error)
	// ListExpensesForClient returns the client's expenses oldest first, ties
	// broken by creation time then id. With forUpdate the rows are locked
	// until the surrounding transaction ends (where the database supports it).
	ListExpensesForClient(ctx context.Context, client models.Client, forUpdate bool) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, e *models.Expense) error
	SetPaymentReceived(ctx context.Context, expenseID string, amount decimal.Decimal) error
	DeleteExpense(ctx context.Context, id string) error
	AssignInvoiceNumber(ctx context.Context, expenseIDs []string, invoiceNo string) error

	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	ListPayments(ctx context.Context, f PaymentFilter) ([]models.Payment, error)
	DeletePayment(ctx context.Context, id string) error

	CreateApplication(ctx context.Context, a *models.PaymentApplication) error
	ListApplicationsForPayment(ctx context.Context, paymentID string) ([]models.PaymentApplication, error)
	ListApplicationsForExpense(ctx context.Context, expenseID string) ([]models.PaymentApplication, error)
	ListApplications(ctx context.Context) ([]models.PaymentApplication, error)
	DeleteApplicationsForPayment(ctx context.Context, paymentID string) error

	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ListInvoices(ctx context.Context) ([]models.Invoice, error)
	ListInvoiceNumbers(ctx context.Context) ([]string, error)
	UpdateInvoiceObjectKey(ctx context.Context, id, key string) error
}

// GormStore implements Store on top of gorm.
type GormStore struct {
	db         *gorm.DB
	rowLocking bool
}

// NewGormStore wraps db. Row locks are only requested on PostgreSQL.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:         db,
		rowLocking: db.Dialector.Name() == "postgres",
	}
}

// Migrate creates or updates every table used by the store.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Expense{},
		&models.Payment{},
		&models.PaymentApplication{},
		&models.Invoice{},
	)
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, rowLocking: s.rowLocking})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *GormStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	var e models.Expense
	if err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (s *GormStore) ListExpenses(ctx context.Context, f ExpenseFilter) ([]models.Expense, error) {
	q := s.db.WithContext(ctx).Model(&models.Expense{})
	if f.Client != nil {
		q = q.Where("client = ?", *f.Client)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.InvoiceNumber != "" {
		q = q.Where("invoice_number = ?", f.InvoiceNumber)
	}
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("date < ?", f.To)
	}

	var expenses []models.Expense
	if err := q.Order("date DESC").Order("created_at DESC").Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *GormStore) ListExpensesForClient(ctx context.Context, client models.Client, forUpdate bool) ([]models.Expense, error) {
	q := s.db.WithContext(ctx).Where("client = ?", client)
	if forUpdate && s.rowLocking {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var expenses []models.Expense
	err := q.Order("date ASC").Order("created_at ASC").Order("id ASC").Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// UpdateExpense writes every editable column. PaymentReceived and
// CreatedAt are never touched here.
func (s *GormStore) UpdateExpense(ctx context.Context, e *models.Expense) error {
	res := s.db.WithContext(ctx).
		Model(&models.Expense{ID: e.ID}).
		Select("*").
		Omit("id", "created_at", "payment_received").
		Updates(e)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) SetPaymentReceived(ctx context.Context, expenseID string, amount decimal.Decimal) error {
	res := s.db.WithContext(ctx).
		Model(&models.Expense{ID: expenseID}).
		UpdateColumn("payment_received", amount)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteExpense(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Expense{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) AssignInvoiceNumber(ctx context.Context, expenseIDs []string, invoiceNo string) error {
	if len(expenseIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Expense{}).
		Where("id IN ?", expenseIDs).
		UpdateColumn("invoice_number", invoiceNo).Error
}

func (s *GormStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Omit("Applications").Create(p).Error
}

func (s *GormStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.WithContext(ctx).
		Preload("Applications", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *GormStore) ListPayments(ctx context.Context, f PaymentFilter) ([]models.Payment, error) {
	q := s.db.WithContext(ctx).Model(&models.Payment{})
	if f.Client != nil {
		q = q.Where("client = ?", *f.Client)
	}

	var payments []models.Payment
	if err := q.Order("date DESC").Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *GormStore) DeletePayment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Payment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateApplication(ctx context.Context, a *models.PaymentApplication) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *GormStore) ListApplicationsForPayment(ctx context.Context, paymentID string) ([]models.PaymentApplication, error) {
	var apps []models.PaymentApplication
	err := s.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").Order("id ASC").
		Find(&apps).Error
	return apps, err
}

func (s *GormStore) ListApplicationsForExpense(ctx context.Context, expenseID string) ([]models.PaymentApplication, error) {
	var apps []models.PaymentApplication
	err := s.db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Order("created_at ASC").Order("id ASC").
		Find(&apps).Error
	return apps, err
}

func (s *GormStore) ListApplications(ctx context.Context) ([]models.PaymentApplication, error) {
	var apps []models.PaymentApplication
	err := s.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&apps).Error
	return apps, err
}

func (s *GormStore) DeleteApplicationsForPayment(ctx context.Context, paymentID string) error {
	return s.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Delete(&models.PaymentApplication{}).Error
}

func (s *GormStore) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	return s.db.WithContext(ctx).Create(inv).Error
}

func (s *GormStore) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (s *GormStore) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).Order("issued_at DESC").Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

// ListInvoiceNumbers returns every invoice number in use, whether recorded
// on an invoice or stamped on an expense.
func (s *GormStore) ListInvoiceNumbers(ctx context.Context) ([]string, error) {
	var fromInvoices []string
	if err := s.db.WithContext(ctx).Model(&models.Invoice{}).Pluck("invoice_no", &fromInvoices).Error; err != nil {
		return nil, err
	}
	var fromExpenses []string
	err := s.db.WithContext(ctx).
		Model(&models.Expense{}).
		Where("invoice_number IS NOT NULL").
		Distinct().
		Pluck("invoice_number", &fromExpenses).Error
	if err != nil {
		return nil, err
	}
	return append(fromInvoices, fromExpenses...), nil
}

func (s *GormStore) UpdateInvoiceObjectKey(ctx context.Context, id, key string) error {
	res := s.db.WithContext(ctx).Model(&models.Invoice{ID: id}).UpdateColumn("object_key", key)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
