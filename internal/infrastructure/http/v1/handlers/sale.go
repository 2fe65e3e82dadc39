package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"minimarket/internal/core/apperror"
	"minimarket/internal/core/id"
	"minimarket/internal/domain/sales"
	"minimarket/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles HTTP requests for sale documents.
type SaleHandler struct {
	*BaseHandler
	service *sales.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sales.Service) *SaleHandler {
	return &SaleHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /sales.
func (h *SaleHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	sale, err := h.service.CreateSale(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromSale(sale))
}

// Get handles GET /sales/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	sale, err := h.service.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(sale))
}

// List handles GET /sales.
func (h *SaleHandler) List(c *gin.Context) {
	filter := sales.DefaultListFilter()
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	if kind := c.Query("kind"); kind != "" {
		k := sales.DocumentKind(kind)
		if !k.Valid() {
			h.Error(c, apperror.NewValidation("unknown document kind").WithDetail("kind", kind))
			return
		}
		filter.Kind = &k
	}

	if status := c.Query("status"); status != "" {
		s := sales.Status(status)
		filter.Status = &s
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}

	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.SaleResponse, len(result.Items))
	for i, sale := range result.Items {
		items[i] = dto.FromSale(sale)
	}

	h.OK(c, dto.SaleListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Cancel handles POST /sales/:id/cancel.
func (h *SaleHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.CancelSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.CancelSale(ctx, saleID, req.Reason); err != nil {
		h.Error(c, err)
		return
	}

	sale, err := h.service.GetByID(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(sale))
}

// ResendReceipt handles POST /sales/:id/resend-receipt.
func (h *SaleHandler) ResendReceipt(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ResendReceiptRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	delivered, err := h.service.ResendReceipt(c.Request.Context(), saleID, req.Email)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ResendReceiptResponse{Delivered: delivered})
}

// CashClosure handles POST /cash-closures.
func (h *SaleHandler) CashClosure(c *gin.Context) {
	var req dto.CashClosureRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	upTo := time.Now().UTC()
	if req.UpTo != nil {
		upTo = *req.UpTo
	}

	closed, err := h.service.CloseCashPeriod(c.Request.Context(), upTo)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.CashClosureResponse{ClosedCount: closed, UpTo: upTo})
}

// RegisterRoutes registers sale routes.
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/sales")
	{
		sales.GET("", h.List)
		sales.POST("", h.Create)
		sales.GET("/:id", h.Get)
		sales.POST("/:id/cancel", h.Cancel)
		sales.POST("/:id/resend-receipt", h.ResendReceipt)
	}

	rg.POST("/cash-closures", h.CashClosure)
}
