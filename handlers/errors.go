package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/shipledger/services"
)

// respondError maps service errors onto status codes. Unexpected errors are
// attached to the gin context for the access log and hidden from the client.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var fault *services.ConsistencyFault

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "code": "ValidationError", "field": verr.Field})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "NotFound"})
	case errors.Is(err, services.ErrExpenseHasApplications):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "ExpenseHasApplications"})
	case errors.As(err, &fault):
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ledger inconsistency detected", "code": "ConsistencyFault", "fault": fault})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// parseDate accepts a plain calendar date or a full RFC 3339 timestamp.
// An empty string yields the zero time.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &services.ValidationError{Field: field, Message: "expected YYYY-MM-DD or RFC 3339"}
	}
	return t.UTC(), nil
}
