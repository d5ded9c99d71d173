package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"retail_sales/internal/sales"
)

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

// handleCreateSale handles the POST /sales endpoint.
func (h *salesHandler) handleCreateSale(ctx *gin.Context) {
	var cmd sales.CreateSaleCommand
	if err := ctx.ShouldBindJSON(&cmd); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request payload"})
		return
	}

	sale, err := h.salesService.CreateSale(ctx.Request.Context(), cmd)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"success": true, "message": "Sale created successfully", "data": sale})
}

// handleGetSale handles GET /sales/:id.
func (h *salesHandler) handleGetSale(ctx *gin.Context) {
	saleID, ok := h.saleIDParam(ctx)
	if !ok {
		return
	}

	sale, err := h.salesService.GetSaleByID(ctx.Request.Context(), saleID)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Sale retrieved successfully", "data": sale})
}

// handleListSales handles GET /sales.
func (h *salesHandler) handleListSales(ctx *gin.Context) {
	all, err := h.salesService.GetAllSales(ctx.Request.Context())
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Sales listed successfully", "data": all})
}

// handleCancelSale handles DELETE /sales/:id.
func (h *salesHandler) handleCancelSale(ctx *gin.Context) {
	saleID, ok := h.saleIDParam(ctx)
	if !ok {
		return
	}

	if err := h.salesService.CancelSale(ctx.Request.Context(), saleID); err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Sale cancelled successfully"})
}

func (h *salesHandler) saleIDParam(ctx *gin.Context) (string, bool) {
	saleID := ctx.Param("id")
	if _, err := uuid.Parse(saleID); err != nil {
		h.logger.Warn("invalid sale id", zap.String("sale_id", saleID))
		ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "validation failed",
			"errors":  []sales.FieldError{{Field: "id", Message: "Sale id must be a valid UUID."}},
		})
		return "", false
	}
	return saleID, true
}

func (h *salesHandler) writeError(ctx *gin.Context, err error) {
	if ve, ok := sales.IsValidationError(err); ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "validation failed", "errors": ve.Errors})
		return
	}

	switch {
	case errors.Is(err, sales.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "sale not found"})
	case errors.Is(err, sales.ErrAlreadyCancelled):
		ctx.JSON(http.StatusConflict, gin.H{"success": false, "message": "sale is already cancelled"})
	default:
		h.logger.Error("sales request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
	}
}
