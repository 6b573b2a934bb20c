package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"cashpoint/internal/domain/report"
	"cashpoint/internal/infrastructure/reporting"
)

// ReportHandler handles session report endpoints.
type ReportHandler struct {
	*BaseHandler
	service  *report.Service
	renderer *reporting.FileRenderer
}

// NewReportHandler creates a new report handler.
func NewReportHandler(base *BaseHandler, service *report.Service, renderer *reporting.FileRenderer) *ReportHandler {
	return &ReportHandler{
		BaseHandler: base,
		service:     service,
		renderer:    renderer,
	}
}

// Status handles GET /sessions/:id/report/status
// Reports whether the latest artifact still matches the session state.
func (h *ReportHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	stale, err := h.service.NeedsReport(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"needsReport": stale})
}

// Generate handles POST /sessions/:id/report
// Returns the current artifact when one already matches the session state.
func (h *ReportHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	artifact, err := h.service.Generate(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, artifact)
}

// Latest handles GET /sessions/:id/report
func (h *ReportHandler) Latest(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	artifact, err := h.service.Latest(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, artifact)
}

// Download handles GET /sessions/:id/report/download
// Streams the latest artifact file.
func (h *ReportHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	artifact, err := h.service.Latest(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	f, err := h.renderer.Open(artifact.Ref)
	if err != nil {
		h.Error(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", `attachment; filename="`+artifact.Ref+`"`)
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, f)
}
