package server

import (
	"net/http"
	"strings"

	inventorydomain "github.com/baizehq/baize/internal/inventory/domain"
	"github.com/gin-gonic/gin"
)

type createItemRequest struct {
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	PriceMinor        int64  `json:"price_minor"`
	StockQty          int64  `json:"stock_qty"`
	LowStockThreshold int64  `json:"low_stock_threshold"`
}

func (s *Server) CreateInventoryItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inventorySvc.Create(c.Request.Context(), inventorydomain.CreateRequest{
		SKU:               strings.TrimSpace(req.SKU),
		Name:              strings.TrimSpace(req.Name),
		Category:          strings.TrimSpace(req.Category),
		PriceMinor:        req.PriceMinor,
		StockQty:          req.StockQty,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInventoryItems(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))

	resp, err := s.inventorySvc.List(c.Request.Context(), category)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInventoryItemByID(c *gin.Context) {
	resp, err := s.inventorySvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateItemRequest struct {
	Name              *string `json:"name"`
	Category          *string `json:"category"`
	PriceMinor        *int64  `json:"price_minor"`
	LowStockThreshold *int64  `json:"low_stock_threshold"`
	Active            *bool   `json:"active"`
}

func (s *Server) UpdateInventoryItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inventorySvc.Update(c.Request.Context(), inventorydomain.UpdateRequest{
		ID:                strings.TrimSpace(c.Param("id")),
		Name:              req.Name,
		Category:          req.Category,
		PriceMinor:        req.PriceMinor,
		LowStockThreshold: req.LowStockThreshold,
		Active:            req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type restockItemRequest struct {
	Qty int64 `json:"qty"`
}

func (s *Server) RestockInventoryItem(c *gin.Context) {
	var req restockItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inventorySvc.Restock(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Qty)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
