package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/yourusername/shipledger/models"
	"github.com/yourusername/shipledger/render"
	"github.com/yourusername/shipledger/repository"
	"github.com/yourusername/shipledger/utils"
	"go.uber.org/zap"
)

const (
	pdfContentType = "application/pdf"
	presignTTL     = 15 * time.Minute
)

// GenerateInvoiceInput selects the client and month to invoice.
type GenerateInvoiceInput struct {
	Client   string
	Month    string
	IssuedAt time.Time
}

// InvoiceDocument is either a rendered PDF or a link to the archived copy.
type InvoiceDocument struct {
	FileName string
	PDF      []byte
	URL      string
}

// InvoiceService numbers, renders and archives client invoices.
type InvoiceService struct {
	store   repository.Store
	archive utils.ArchiveClientInterface
	issuer  models.Client
	log     *zap.Logger
	now     func() time.Time
}

// NewInvoiceService builds the service. archive may be nil, in which case
// invoices are rendered on demand and never uploaded.
func NewInvoiceService(store repository.Store, archive utils.ArchiveClientInterface, issuer models.Client, log *zap.Logger) *InvoiceService {
	return &InvoiceService{
		store:   store,
		archive: archive,
		issuer:  issuer,
		log:     log.Named("invoices"),
		now:     time.Now,
	}
}

// nextInvoiceNumber returns max+1 over the numeric prefix of every number
// in use. Numbers without a leading digit are ignored.
func nextInvoiceNumber(existing []string) string {
	highest := 0
	for _, s := range existing {
		end := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if end == 0 {
			continue
		}
		if n, err := strconv.Atoi(s[:end]); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

// Generate invoices every expense of the client in the given month. The
// next sequential number is stamped on those expenses and the invoice row
// is written in the same transaction; the PDF is rendered afterwards and
// archived when an archive is configured.
func (s *InvoiceService) Generate(ctx context.Context, in GenerateInvoiceInput) (*models.Invoice, *InvoiceDocument, error) {
	client, err := parseClient("client", in.Client)
	if err != nil {
		return nil, nil, err
	}
	period, err := ParseMonth(in.Month)
	if err != nil {
		return nil, nil, err
	}
	issuedAt := in.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = s.now()
	}

	var (
		invoice  *models.Invoice
		expenses []models.Expense
	)
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		list, err := tx.ListExpenses(ctx, repository.ExpenseFilter{
			Client: &client,
			From:   period.Start,
			To:     period.End,
		})
		if err != nil {
			return err
		}
		expenses = list
		if len(expenses) == 0 {
			return invalid("month", "no expenses for %s in %s", client, period.Label())
		}
		sortOldestFirst(expenses)

		numbers, err := tx.ListInvoiceNumbers(ctx)
		if err != nil {
			return fmt.Errorf("list invoice numbers: %w", err)
		}
		no := nextInvoiceNumber(numbers)

		ids := make([]string, len(expenses))
		for i := range expenses {
			ids[i] = expenses[i].ID
			expenses[i].InvoiceNumber = &no
		}
		if err := tx.AssignInvoiceNumber(ctx, ids, no); err != nil {
			return fmt.Errorf("stamp invoice %s: %w", no, err)
		}

		totals := sumExpenses(expenses).rounded()
		invoice = &models.Invoice{
			InvoiceNo:     no,
			Client:        client,
			IssuedAt:      issuedAt,
			PeriodStart:   period.Start,
			PeriodEnd:     period.End,
			TotalBillable: totals.Billed,
			TotalPaid:     totals.Paid,
		}
		if err := tx.CreateInvoice(ctx, invoice); err != nil {
			return fmt.Errorf("create invoice %s: %w", no, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("invoice generated",
		zap.String("invoice_no", invoice.InvoiceNo),
		zap.String("client", string(client)),
		zap.String("month", period.Label()),
		zap.Int("expenses", len(expenses)))

	doc, err := s.render(invoice, expenses)
	if err != nil {
		return nil, nil, err
	}

	if s.archive != nil {
		key, err := s.archive.Upload(ctx, doc.FileName, doc.PDF, pdfContentType)
		if err != nil {
			// The invoice stands; the PDF can still be rendered on demand.
			s.log.Warn("invoice archive upload failed",
				zap.String("invoice_no", invoice.InvoiceNo),
				zap.Error(err))
			return invoice, doc, nil
		}
		if err := s.store.UpdateInvoiceObjectKey(ctx, invoice.ID, key); err != nil {
			return nil, nil, fmt.Errorf("record archive key for invoice %s: %w", invoice.InvoiceNo, err)
		}
		invoice.ObjectKey = key
	}
	return invoice, doc, nil
}

func (s *InvoiceService) render(invoice *models.Invoice, expenses []models.Expense) (*InvoiceDocument, error) {
	issuer, _ := s.issuer.Company()
	client, ok := invoice.Client.Company()
	if !ok {
		client = models.CompanyInfo{Name: string(invoice.Client)}
	}
	out, err := render.InvoicePDF(render.InvoiceData{
		InvoiceNo: invoice.InvoiceNo,
		IssuedAt:  invoice.IssuedAt,
		Issuer:    issuer,
		Client:    client,
		Expenses:  expenses,
		TotalPaid: invoice.TotalPaid,
	})
	if err != nil {
		return nil, err
	}
	return &InvoiceDocument{FileName: invoiceFileName(invoice.InvoiceNo), PDF: out}, nil
}

func invoiceFileName(no string) string {
	return "invoice-" + no + ".pdf"
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", id, err)
	}
	return inv, nil
}

func (s *InvoiceService) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	return s.store.ListInvoices(ctx)
}

// Document returns a presigned link to the archived PDF when there is one,
// and otherwise re-renders the invoice from the expenses still carrying its
// number. The amount paid printed is the one recorded at generation time.
func (s *InvoiceService) Document(ctx context.Context, id string) (*InvoiceDocument, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.ObjectKey != "" && s.archive != nil {
		u, err := s.archive.PresignedURL(ctx, inv.ObjectKey, presignTTL)
		if err == nil {
			return &InvoiceDocument{FileName: invoiceFileName(inv.InvoiceNo), URL: u}, nil
		}
		s.log.Warn("invoice presign failed, rendering instead",
			zap.String("invoice_no", inv.InvoiceNo),
			zap.Error(err))
	}

	client := inv.Client
	expenses, err := s.store.ListExpenses(ctx, repository.ExpenseFilter{
		Client:        &client,
		InvoiceNumber: inv.InvoiceNo,
		From:          inv.PeriodStart,
		To:            inv.PeriodEnd,
	})
	if err != nil {
		return nil, err
	}
	sortOldestFirst(expenses)
	return s.render(inv, expenses)
}
