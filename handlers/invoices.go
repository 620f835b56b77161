package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/shipledger/services"
)

type InvoiceHandler struct {
	invoices *services.InvoiceService
}

func NewInvoiceHandler(invoices *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

type CreateInvoiceRequest struct {
	Client   string `json:"client" binding:"required"`
	Month    string `json:"month" binding:"required"`
	IssuedAt string `json:"issued_at"`
}

func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	issuedAt, err := parseDate("issued_at", req.IssuedAt)
	if err != nil {
		respondError(c, err)
		return
	}

	invoice, _, err := h.invoices.Generate(c.Request.Context(), services.GenerateInvoiceInput{
		Client:   req.Client,
		Month:    req.Month,
		IssuedAt: issuedAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoices.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	invoices, err := h.invoices.ListInvoices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoices)
}

// DownloadInvoice redirects to the archived PDF or streams a fresh render.
func (h *InvoiceHandler) DownloadInvoice(c *gin.Context) {
	doc, err := h.invoices.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if doc.URL != "" {
		c.Redirect(http.StatusFound, doc.URL)
		return
	}
	sendFile(c, doc.FileName, "application/pdf", doc.PDF)
}
