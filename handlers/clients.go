package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/shipledger/models"
)

type clientResponse struct {
	Name    models.Client      `json:"name"`
	Company models.CompanyInfo `json:"company"`
}

// ListClients returns the fixed client set with the company details
// printed on invoices.
func ListClients(c *gin.Context) {
	clients := make([]clientResponse, 0, len(models.Clients))
	for _, client := range models.Clients {
		info, _ := client.Company()
		clients = append(clients, clientResponse{Name: client, Company: info})
	}

	c.JSON(http.StatusOK, clients)
}
