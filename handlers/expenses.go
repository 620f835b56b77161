package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yourusername/shipledger/services"
)

type ExpenseHandler struct {
	expenses *services.ExpenseService
}

func NewExpenseHandler(expenses *services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// ExpenseRequest is the body of create and update. Amounts may be sent as
// JSON numbers or strings. payment_received is not accepted: it only moves
// through payments.
type ExpenseRequest struct {
	Date               string           `json:"date" binding:"required"`
	Client             string           `json:"client" binding:"required"`
	ProductDescription string           `json:"product_description" binding:"required"`
	Quantity           string           `json:"quantity"`
	ProductCost        decimal.Decimal  `json:"product_cost"`
	TaxPercentage      *decimal.Decimal `json:"tax_percentage"`
	MarkupBasis        string           `json:"markup_basis"`
	MarkupPercentage   *decimal.Decimal `json:"markup_percentage"`
	ShippingCost       decimal.Decimal  `json:"shipping_cost"`
	ShippingCarrier    string           `json:"shipping_carrier"`
	Status             string           `json:"status"`
	Notes              string           `json:"notes"`
}

func (r ExpenseRequest) input() (services.ExpenseInput, error) {
	date, err := parseDate("date", r.Date)
	if err != nil {
		return services.ExpenseInput{}, err
	}
	return services.ExpenseInput{
		Date:               date,
		Client:             r.Client,
		ProductDescription: r.ProductDescription,
		Quantity:           r.Quantity,
		ProductCost:        r.ProductCost,
		TaxPercentage:      r.TaxPercentage,
		MarkupBasis:        r.MarkupBasis,
		MarkupPercentage:   r.MarkupPercentage,
		ShippingCost:       r.ShippingCost,
		ShippingCarrier:    r.ShippingCarrier,
		Status:             r.Status,
		Notes:              r.Notes,
	}, nil
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(c, err)
		return
	}

	expense, err := h.expenses.CreateExpense(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, expense)
}

func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	expense, err := h.expenses.GetExpense(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	expenses, err := h.expenses.ListExpenses(c.Request.Context(), services.ExpenseQuery{
		Client: c.Query("client"),
		Month:  c.Query("month"),
		Status: c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, expenses)
}

func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(c, err)
		return
	}

	expense, err := h.expenses.UpdateExpense(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	if err := h.expenses.DeleteExpense(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted"})
}
