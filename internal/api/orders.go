package api

import (
	"net/http"

	"inventory-service/internal/service"

	"github.com/gin-gonic/gin"
)

type fulfillRequest struct {
	Signature string `json:"signature"`
}

func (h *Handler) listOrders(c *gin.Context) {
	c.JSON(http.StatusOK, h.orders.ListOrders())
}

// createOrder handles order creation; Idempotency-Key makes retries safe
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	order, err := h.orders.CreateOrder(c.Request.Context(), actor(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) fulfillOrder(c *gin.Context) {
	var req fulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orders.FulfillOrder(c.Request.Context(), actor(c), c.Param("id"), req.Signature)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	confirmed := c.Query("confirm") == "true"
	err := h.orders.DeleteOrder(c.Request.Context(), actor(c), c.Param("id"), c.GetHeader("X-Delete-Password"), confirmed)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// scan resolves a recollection token read from a QR code
func (h *Handler) scan(c *gin.Context) {
	res, err := h.orders.ResolveToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
