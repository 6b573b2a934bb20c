package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cashpoint/internal/domain/transaction"
	"cashpoint/internal/infrastructure/http/v1/dto"
)

// TransactionHandler handles sale and reversal endpoints.
type TransactionHandler struct {
	*BaseHandler
	service *transaction.Service
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(base *BaseHandler, service *transaction.Service) *TransactionHandler {
	return &TransactionHandler{
		BaseHandler: base,
		service:     service,
	}
}

// RecordSale handles POST /sessions/:id/sales
func (h *TransactionHandler) RecordSale(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := req.ToSaleLines()
	if err != nil {
		h.Error(c, err)
		return
	}

	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	receipt, err := h.service.RecordSale(ctx, sessionID, lines, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// ReverseSession handles POST /sessions/:id/reverse
// Reverses every unreversed sale position of the session in one receipt.
func (h *TransactionHandler) ReverseSession(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	receipt, err := h.service.ReverseSession(ctx, sessionID, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// ReverseTransaction handles POST /transactions/:id/reverse
func (h *TransactionHandler) ReverseTransaction(c *gin.Context) {
	ctx := c.Request.Context()

	transactionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	receipt, err := h.service.ReverseTransaction(ctx, transactionID, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// Get handles GET /transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	transactionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.service.Get(ctx, transactionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, receipt)
}

// ListBySession handles GET /sessions/:id/transactions
func (h *TransactionHandler) ListBySession(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	transactions, err := h.service.ListBySession(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse[transaction.Transaction]{Items: transactions, Total: len(transactions)})
}
