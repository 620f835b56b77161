package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yourusername/shipledger/models"
	"github.com/yourusername/shipledger/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type CreatePaymentRequest struct {
	Client string          `json:"client" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
	Notes  string          `json:"notes"`
}

// PaymentResponse adds the part of the amount no expense could absorb.
type PaymentResponse struct {
	*models.Payment
	Unallocated decimal.Decimal `json:"unallocated"`
}

func newPaymentResponse(p *models.Payment) PaymentResponse {
	applied := decimal.Zero
	for _, app := range p.Applications {
		applied = applied.Add(app.AmountApplied)
	}
	return PaymentResponse{Payment: p, Unallocated: p.Amount.Sub(applied)}
}

// CreatePayment records the payment and allocates it in the same request.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	payment, err := h.payments.CreatePayment(c.Request.Context(), services.CreatePaymentInput{
		Client: req.Client,
		Amount: req.Amount,
		Date:   date,
		Notes:  req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newPaymentResponse(payment))
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.payments.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPaymentResponse(payment))
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	payments, err := h.payments.ListPayments(c.Request.Context(), c.Query("client"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) ListApplications(c *gin.Context) {
	apps, err := h.payments.ListApplications(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, apps)
}

// DeletePayment reverses every application of the payment before removing it.
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	if err := h.payments.DeletePayment(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted"})
}
