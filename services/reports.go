package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/shipledger/models"
	"github.com/yourusername/shipledger/render"
	"github.com/yourusername/shipledger/repository"
	"go.uber.org/zap"
)

// Totals aggregates a set of expenses. Sums are taken at full precision and
// rounded once at the end.
type Totals struct {
	ProductsWithMarkup decimal.Decimal `json:"products_with_markup"`
	Shipping           decimal.Decimal `json:"shipping"`
	Billed             decimal.Decimal `json:"billed"`
	Paid               decimal.Decimal `json:"paid"`
	Balance            decimal.Decimal `json:"balance"`
}

func sumExpenses(expenses []models.Expense) Totals {
	var t Totals
	for i := range expenses {
		b := expenses[i].Breakdown()
		t.ProductsWithMarkup = t.ProductsWithMarkup.Add(b.CostWithMarkup)
		t.Shipping = t.Shipping.Add(b.ShippingCost)
		t.Billed = t.Billed.Add(b.TotalBillable)
		t.Paid = t.Paid.Add(expenses[i].PaymentReceived)
	}
	t.Balance = t.Billed.Sub(t.Paid)
	return t
}

func (t Totals) rounded() Totals {
	return Totals{
		ProductsWithMarkup: t.ProductsWithMarkup.Round(2),
		Shipping:           t.Shipping.Round(2),
		Billed:             t.Billed.Round(2),
		Paid:               t.Paid.Round(2),
		Balance:            t.Balance.Round(2),
	}
}

// MonthlyReport lists a month's expenses, oldest first.
type MonthlyReport struct {
	Month    string        `json:"month"`
	Client   string        `json:"client,omitempty"`
	Expenses []ExpenseView `json:"expenses"`
	Totals   Totals        `json:"totals"`

	period Period
}

// ClientBalance is one client's position over a set of expenses.
type ClientBalance struct {
	Client  models.Client   `json:"client"`
	Count   int             `json:"count"`
	Billed  decimal.Decimal `json:"billed"`
	Paid    decimal.Decimal `json:"paid"`
	Balance decimal.Decimal `json:"balance"`
}

// Dashboard summarises the current month.
type Dashboard struct {
	Month          string          `json:"month"`
	Totals         Totals          `json:"totals"`
	ClientBalances []ClientBalance `json:"client_balances"`
	Recent         []ExpenseView   `json:"recent"`
}

// ClientStatement is a client's all-time account. Unallocated is the part
// of its payments that found no outstanding expense to settle.
type ClientStatement struct {
	Client      models.Client   `json:"client"`
	Billed      decimal.Decimal `json:"billed"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Payments    decimal.Decimal `json:"payments"`
	Applied     decimal.Decimal `json:"applied"`
	Unallocated decimal.Decimal `json:"unallocated"`
}

// ConsistencyReport is the outcome of CheckConsistency.
type ConsistencyReport struct {
	CheckedAt    time.Time          `json:"checked_at"`
	OK           bool               `json:"ok"`
	Expenses     int                `json:"expenses"`
	Payments     int                `json:"payments"`
	Applications int                `json:"applications"`
	Faults       []ConsistencyFault `json:"faults"`
}

type ReportService struct {
	store  repository.Store
	log    *zap.Logger
	issuer models.Client
	now    func() time.Time
}

func NewReportService(store repository.Store, issuer models.Client, log *zap.Logger) *ReportService {
	return &ReportService{
		store:  store,
		log:    log.Named("reports"),
		issuer: issuer,
		now:    time.Now,
	}
}

// Monthly builds the expense report for month ("YYYY-MM"), optionally for a
// single client.
func (s *ReportService) Monthly(ctx context.Context, month, client string) (*MonthlyReport, error) {
	period, err := ParseMonth(month)
	if err != nil {
		return nil, err
	}
	f := repository.ExpenseFilter{From: period.Start, To: period.End}
	if client != "" {
		c, err := parseClient("client", client)
		if err != nil {
			return nil, err
		}
		f.Client = &c
		client = string(c)
	}

	expenses, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return nil, err
	}
	sortOldestFirst(expenses)

	report := &MonthlyReport{
		Month:    period.Label(),
		Client:   client,
		Expenses: make([]ExpenseView, len(expenses)),
		Totals:   sumExpenses(expenses).rounded(),
		period:   period,
	}
	for i, e := range expenses {
		report.Expenses[i] = newExpenseView(e)
	}
	return report, nil
}

func (s *ReportService) reportData(r *MonthlyReport) render.ReportData {
	data := render.ReportData{
		Issuer:        string(s.issuer),
		Period:        r.period.Start,
		Client:        r.Client,
		Rows:          make([]render.ReportRow, len(r.Expenses)),
		TotalProducts: r.Totals.ProductsWithMarkup,
		TotalShipping: r.Totals.Shipping,
		TotalBilled:   r.Totals.Billed,
		TotalPaid:     r.Totals.Paid,
		Balance:       r.Totals.Balance,
	}
	for i, e := range r.Expenses {
		data.Rows[i] = render.ReportRow{
			Date:        e.Date,
			Client:      string(e.Client),
			Description: e.ProductDescription,
			Quantity:    e.Quantity,
			Status:      e.Status,
			Breakdown:   e.Breakdown,
		}
	}
	return data
}

// MonthlyPDF renders the monthly report and returns it with a file name.
func (s *ReportService) MonthlyPDF(ctx context.Context, month, client string) ([]byte, string, error) {
	r, err := s.Monthly(ctx, month, client)
	if err != nil {
		return nil, "", err
	}
	out, err := render.ReportPDF(s.reportData(r))
	if err != nil {
		return nil, "", err
	}
	return out, reportFileName(r, "pdf"), nil
}

// MonthlyWorkbook renders the monthly report as XLSX.
func (s *ReportService) MonthlyWorkbook(ctx context.Context, month, client string) ([]byte, string, error) {
	r, err := s.Monthly(ctx, month, client)
	if err != nil {
		return nil, "", err
	}
	out, err := render.ReportWorkbook(s.reportData(r))
	if err != nil {
		return nil, "", err
	}
	return out, reportFileName(r, "xlsx"), nil
}

func reportFileName(r *MonthlyReport, ext string) string {
	if r.Client == "" {
		return fmt.Sprintf("expense-report-%s.%s", r.Month, ext)
	}
	return fmt.Sprintf("expense-report-%s-%s.%s", slug(r.Client), r.Month, ext)
}

// Dashboard summarises the current month: totals, per-client balances for
// clients with expenses this month and the five latest expenses.
func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	period := MonthOf(s.now())
	expenses, err := s.store.ListExpenses(ctx, repository.ExpenseFilter{From: period.Start, To: period.End})
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{
		Month:          period.Label(),
		Totals:         sumExpenses(expenses).rounded(),
		ClientBalances: []ClientBalance{},
		Recent:         []ExpenseView{},
	}

	byClient := make(map[models.Client][]models.Expense)
	for _, e := range expenses {
		byClient[e.Client] = append(byClient[e.Client], e)
	}
	for _, c := range models.Clients {
		list := byClient[c]
		if len(list) == 0 {
			continue
		}
		t := sumExpenses(list).rounded()
		dash.ClientBalances = append(dash.ClientBalances, ClientBalance{
			Client:  c,
			Count:   len(list),
			Billed:  t.Billed,
			Paid:    t.Paid,
			Balance: t.Balance,
		})
	}

	// ListExpenses is newest first.
	for i := 0; i < len(expenses) && i < 5; i++ {
		dash.Recent = append(dash.Recent, newExpenseView(expenses[i]))
	}
	return dash, nil
}

// ClientCredit returns every client's all-time account, including the
// unallocated remainder of its payments.
func (s *ReportService) ClientCredit(ctx context.Context) ([]ClientStatement, error) {
	expenses, err := s.store.ListExpenses(ctx, repository.ExpenseFilter{})
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPayments(ctx, repository.PaymentFilter{})
	if err != nil {
		return nil, err
	}
	apps, err := s.store.ListApplications(ctx)
	if err != nil {
		return nil, err
	}

	type account struct {
		billed, outstanding, payments, applied decimal.Decimal
	}
	accounts := make(map[models.Client]*account)
	get := func(c models.Client) *account {
		a, ok := accounts[c]
		if !ok {
			a = &account{}
			accounts[c] = a
		}
		return a
	}

	for i := range expenses {
		b := expenses[i].Breakdown()
		a := get(expenses[i].Client)
		a.billed = a.billed.Add(b.TotalBillable)
		a.outstanding = a.outstanding.Add(b.OutstandingBalance)
	}
	clientOfPayment := make(map[string]models.Client, len(payments))
	for _, p := range payments {
		clientOfPayment[p.ID] = p.Client
		a := get(p.Client)
		a.payments = a.payments.Add(p.Amount)
	}
	for _, app := range apps {
		if c, ok := clientOfPayment[app.PaymentID]; ok {
			a := get(c)
			a.applied = a.applied.Add(app.AmountApplied)
		}
	}

	statements := []ClientStatement{}
	for _, c := range models.Clients {
		a, ok := accounts[c]
		if !ok {
			continue
		}
		statements = append(statements, ClientStatement{
			Client:      c,
			Billed:      a.billed.Round(2),
			Outstanding: a.outstanding.Round(2),
			Payments:    a.payments.Round(2),
			Applied:     a.applied.Round(2),
			Unallocated: a.payments.Sub(a.applied).Round(2),
		})
	}
	return statements, nil
}

// CheckConsistency verifies the allocation invariants across the whole
// ledger: every expense's PaymentReceived equals the sum of its
// applications, no payment is applied beyond its amount, and every
// application points at an existing payment and expense. Faults are
// logged and reported; nothing is modified.
func (s *ReportService) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	report := &ConsistencyReport{CheckedAt: s.now().UTC(), Faults: []ConsistencyFault{}}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		expenses, err := tx.ListExpenses(ctx, repository.ExpenseFilter{})
		if err != nil {
			return err
		}
		payments, err := tx.ListPayments(ctx, repository.PaymentFilter{})
		if err != nil {
			return err
		}
		apps, err := tx.ListApplications(ctx)
		if err != nil {
			return err
		}
		report.Expenses, report.Payments, report.Applications = len(expenses), len(payments), len(apps)

		appliedToExpense := make(map[string]decimal.Decimal)
		appliedFromPayment := make(map[string]decimal.Decimal)
		knownExpense := make(map[string]bool, len(expenses))
		for _, e := range expenses {
			knownExpense[e.ID] = true
		}
		knownPayment := make(map[string]bool, len(payments))
		for _, p := range payments {
			knownPayment[p.ID] = true
		}

		for _, app := range apps {
			if !app.AmountApplied.IsPositive() {
				report.Faults = append(report.Faults, ConsistencyFault{
					Kind: FaultNonPositiveApplication, PaymentID: app.PaymentID, ExpenseID: app.ExpenseID,
					Actual: app.AmountApplied,
				})
			}
			if !knownPayment[app.PaymentID] {
				report.Faults = append(report.Faults, ConsistencyFault{
					Kind: FaultMissingPayment, PaymentID: app.PaymentID, ExpenseID: app.ExpenseID,
					Actual: app.AmountApplied,
				})
			}
			if !knownExpense[app.ExpenseID] {
				report.Faults = append(report.Faults, ConsistencyFault{
					Kind: FaultMissingExpense, PaymentID: app.PaymentID, ExpenseID: app.ExpenseID,
					Actual: app.AmountApplied,
				})
			}
			appliedToExpense[app.ExpenseID] = appliedToExpense[app.ExpenseID].Add(app.AmountApplied)
			appliedFromPayment[app.PaymentID] = appliedFromPayment[app.PaymentID].Add(app.AmountApplied)
		}

		for _, e := range expenses {
			if sum := appliedToExpense[e.ID]; !sum.Equal(e.PaymentReceived) {
				report.Faults = append(report.Faults, ConsistencyFault{
					Kind: FaultReceivedMismatch, ExpenseID: e.ID,
					Expected: sum, Actual: e.PaymentReceived,
				})
			}
		}
		for _, p := range payments {
			if sum := appliedFromPayment[p.ID]; sum.GreaterThan(p.Amount) {
				report.Faults = append(report.Faults, ConsistencyFault{
					Kind: FaultPaymentOverApplied, PaymentID: p.ID,
					Expected: p.Amount, Actual: sum,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.OK = len(report.Faults) == 0
	for _, f := range report.Faults {
		s.log.Error("consistency fault detected",
			zap.String("kind", f.Kind),
			zap.String("payment_id", f.PaymentID),
			zap.String("expense_id", f.ExpenseID),
			zap.String("expected", f.Expected.String()),
			zap.String("actual", f.Actual.String()))
	}
	return report, nil
}

// slug lowercases name and keeps only ASCII letters and digits, joined by
// single dashes. Accented letters are folded to their base letter.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if f, ok := accentFold[r]; ok {
			r = f
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

var accentFold = map[rune]rune{
	'à': 'a', 'â': 'a', 'ä': 'a', 'ç': 'c', 'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'î': 'i', 'ï': 'i', 'ô': 'o', 'ö': 'o', 'ù': 'u', 'û': 'u', 'ü': 'u',
}

func sortOldestFirst(expenses []models.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
