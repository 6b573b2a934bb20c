package handlers

import (
	"github.com/gin-gonic/gin"

	"cashpoint/internal/domain/catalogs/cashdesk"
	"cashpoint/internal/domain/catalogs/item"
	"cashpoint/internal/domain/catalogs/product"
	"cashpoint/internal/infrastructure/http/v1/dto"
)

// CatalogHandler handles catalog endpoints for cashdesks, items and
// products. Products are read-only reference data.
type CatalogHandler struct {
	*BaseHandler
	cashdesks *cashdesk.Service
	items     *item.Service
	products  product.Repository
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(
	base *BaseHandler,
	cashdesks *cashdesk.Service,
	items *item.Service,
	products product.Repository,
) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: base,
		cashdesks:   cashdesks,
		items:       items,
		products:    products,
	}
}

// CreateCashdesk handles POST /cashdesks
func (h *CatalogHandler) CreateCashdesk(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateCashdeskRequest
	if !h.BindJSON(c, &req) {
		return
	}

	desk := req.ToCashdesk()
	if err := h.cashdesks.Create(ctx, desk); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, desk.ID.String())
}

// GetCashdesk handles GET /cashdesks/:id
func (h *CatalogHandler) GetCashdesk(c *gin.Context) {
	ctx := c.Request.Context()

	cashdeskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	desk, err := h.cashdesks.Get(ctx, cashdeskID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, desk)
}

// ListCashdesks handles GET /cashdesks
func (h *CatalogHandler) ListCashdesks(c *gin.Context) {
	ctx := c.Request.Context()

	desks, err := h.cashdesks.List(ctx, c.Query("active") == "true")
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse[cashdesk.Cashdesk]{Items: desks, Total: len(desks)})
}

// SetCashdeskActive handles PATCH /cashdesks/:id/active
func (h *CatalogHandler) SetCashdeskActive(c *gin.Context) {
	ctx := c.Request.Context()

	cashdeskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	desk, err := h.cashdesks.SetActive(ctx, cashdeskID, *req.Active)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, desk)
}

// CreateItem handles POST /items
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	itm := req.ToItem()
	if err := h.items.Create(ctx, itm); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, itm.ID.String())
}

// GetItem handles GET /items/:id
func (h *CatalogHandler) GetItem(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	itm, err := h.items.Get(ctx, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, itm)
}

// ListItems handles GET /items
func (h *CatalogHandler) ListItems(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := h.items.List(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse[item.Item]{Items: items, Total: len(items)})
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()

	products, err := h.products.List(ctx, c.Query("active") == "true")
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse[product.Product]{Items: products, Total: len(products)})
}
