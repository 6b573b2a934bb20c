package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/domain/ledger"
	"cashpoint/internal/domain/session"
	"cashpoint/internal/infrastructure/http/v1/dto"
)

// SessionHandler handles cashdesk session endpoints.
type SessionHandler struct {
	*BaseHandler
	service *session.Service
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(base *BaseHandler, service *session.Service) *SessionHandler {
	return &SessionHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Open handles POST /sessions
func (h *SessionHandler) Open(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.OpenSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToOpenInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	sess, err := h.service.Open(ctx, in, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, sess)
}

// Get handles GET /sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	sess, err := h.service.Get(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, sess)
}

// ListActive handles GET /sessions/active
// With ?stock=true each session carries its current item stock.
func (h *SessionHandler) ListActive(c *gin.Context) {
	ctx := c.Request.Context()

	if c.Query("stock") == "true" {
		sessions, err := h.service.ListActiveWithStock(ctx)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.ListResponse[session.ActiveSession]{Items: sessions, Total: len(sessions)})
		return
	}

	sessions, err := h.service.ListActive(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse[session.Session]{Items: sessions, Total: len(sessions)})
}

// Resupply handles POST /sessions/:id/resupply
func (h *SessionHandler) Resupply(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ResupplyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supply, err := req.ToInitialMovements()
	if err != nil {
		h.Error(c, err)
		return
	}

	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	if err := h.service.Resupply(ctx, sessionID, supply, actorID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "stock recorded")
}

// End handles POST /sessions/:id/end
// A repeated call on an ended session records a correction pass.
func (h *SessionHandler) End(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.EndSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToEndInput(sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	summary, err := h.service.End(ctx, in, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// Move handles POST /sessions/:id/move
func (h *SessionHandler) Move(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.MoveSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cashdeskID, err := id.Parse(req.CashdeskID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid cashdesk id"))
		return
	}

	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	if err := h.service.Move(ctx, sessionID, cashdeskID, actorID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "session moved")
}

// Stock handles GET /sessions/:id/stock
func (h *SessionHandler) Stock(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	stock, err := h.service.CurrentStock(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	entries := make([]dto.StockEntry, 0, len(stock))
	for itemID, amount := range stock {
		entries = append(entries, dto.StockEntry{ItemID: itemID.String(), Amount: amount})
	}

	h.OK(c, dto.ListResponse[dto.StockEntry]{Items: entries, Total: len(entries)})
}

// Movements handles GET /sessions/:id/movements
func (h *SessionHandler) Movements(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	movements, err := h.service.History(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse[ledger.Movement]{Items: movements, Total: len(movements)})
}
