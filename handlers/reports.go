package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/shipledger/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// MonthlyReport serves GET /reports/monthly?month=YYYY-MM&client=...&format=json|pdf|xlsx.
func (h *ReportHandler) MonthlyReport(c *gin.Context) {
	ctx := c.Request.Context()
	month, client := c.Query("month"), c.Query("client")

	switch format := c.DefaultQuery("format", "json"); format {
	case "json":
		report, err := h.reports.Monthly(ctx, month, client)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	case "pdf":
		out, name, err := h.reports.MonthlyPDF(ctx, month, client)
		if err != nil {
			respondError(c, err)
			return
		}
		sendFile(c, name, "application/pdf", out)
	case "xlsx":
		out, name, err := h.reports.MonthlyWorkbook(ctx, month, client)
		if err != nil {
			respondError(c, err)
			return
		}
		sendFile(c, name, xlsxContentType, out)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported format %q", format)})
	}
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	dash, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dash)
}

func (h *ReportHandler) ClientCredit(c *gin.Context) {
	statements, err := h.reports.ClientCredit(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, statements)
}

// Consistency answers 200 for a clean ledger and 409 when faults were found.
func (h *ReportHandler) Consistency(c *gin.Context) {
	report, err := h.reports.CheckConsistency(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if !report.OK {
		status = http.StatusConflict
	}
	c.JSON(status, report)
}

func sendFile(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, data)
}
