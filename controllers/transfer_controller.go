// file: controllers/transfer_controller.go
package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"ticket-gate/logger"
	"ticket-gate/middleware"
	"ticket-gate/models"
)

// ListPendingTransfers returns the transfers waiting for the current user.
func ListPendingTransfers(c *gin.Context) {
	transfers, err := middleware.API(c).Transfers.Pending(c.Request.Context())
	if err != nil {
		failJSON(c, "Failed to load transfers", err)
		return
	}
	if transfers == nil {
		transfers = []models.Transfer{}
	}
	c.JSON(http.StatusOK, transfers)
}

// InitiateTransfer offers a ticket to another user.
func InitiateTransfer(c *gin.Context) {
	var req models.TransferInitiate
	if err := c.ShouldBindJSON(&req); err != nil || req.TicketID <= 0 || strings.TrimSpace(req.ToUsername) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticket_id and to_username are required"})
		return
	}
	req.ToUsername = strings.TrimSpace(req.ToUsername)

	tr, err := middleware.API(c).Transfers.Initiate(c.Request.Context(), req)
	if err != nil {
		failJSON(c, "Transfer failed", err)
		return
	}
	logger.Info.Printf("[InitiateTransfer] %s offered ticket %d to %s", currentUserName(c), req.TicketID, req.ToUsername)
	c.JSON(http.StatusCreated, tr)
}

// GetTransfer returns one transfer.
func GetTransfer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tr, err := middleware.API(c).Transfers.Get(c.Request.Context(), id)
	if err != nil {
		failJSON(c, "Failed to load transfer", err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

// AcceptTransfer takes the offered ticket.
func AcceptTransfer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tr, err := middleware.API(c).Transfers.Accept(c.Request.Context(), id)
	if err != nil {
		failJSON(c, "Failed to accept transfer", err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

// RejectTransfer declines the offered ticket.
func RejectTransfer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tr, err := middleware.API(c).Transfers.Reject(c.Request.Context(), id)
	if err != nil {
		failJSON(c, "Failed to reject transfer", err)
		return
	}
	c.JSON(http.StatusOK, tr)
}
