package api

import (
	"net/http"
	"time"

	"inventory-service/internal/service"

	"github.com/gin-gonic/gin"
)

type quantityRequest struct {
	Quantity float64 `json:"quantity"`
}

func (h *Handler) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.inventory.ListProducts())
}

func (h *Handler) addProduct(c *gin.Context) {
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.inventory.AddProduct(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) createAmazonProduct(c *gin.Context) {
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.inventory.CreateAmazonProduct(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.inventory.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addStock(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.inventory.AddStock(c.Request.Context(), actor(c), c.Param("id"), req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) enableAmazon(c *gin.Context) {
	product, err := h.inventory.EnableAmazon(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) transferToAmazon(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.inventory.TransferToAmazon(c.Request.Context(), actor(c), c.Param("id"), req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) recordAmazonSale(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.inventory.RecordAmazonSale(c.Request.Context(), actor(c), c.Param("id"), req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) listLogs(c *gin.Context) {
	c.JSON(http.StatusOK, h.inventory.ListLogs())
}

func (h *Handler) dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.inventory.Dashboard(time.Now().In(h.reportLoc)))
}

// reload re-reads every collection from the store
func (h *Handler) reload(c *gin.Context) {
	if err := h.state.Load(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": len(h.state.Products()),
		"orders":   len(h.state.Orders()),
		"logs":     len(h.state.Logs()),
	})
}
