package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/service"
	"inventory-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const userKey = "currentUser"

// ReadinessCheck reports whether a dependency is reachable
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	state     *service.State
	inventory *service.InventoryService
	orders    *service.OrderService
	auth      *service.AuthService
	reportLoc *time.Location
	checks    map[string]ReadinessCheck
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	state *service.State,
	inventory *service.InventoryService,
	orders *service.OrderService,
	auth *service.AuthService,
	reportLoc *time.Location,
) *Handler {
	if reportLoc == nil {
		reportLoc = time.Local
	}
	return &Handler{
		state:     state,
		inventory: inventory,
		orders:    orders,
		auth:      auth,
		reportLoc: reportLoc,
		checks:    map[string]ReadinessCheck{},
		logger:    util.GetLogger(),
	}
}

// AddReadinessCheck registers a dependency probed by /ready
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", h.login)

	authed := v1.Group("")
	authed.Use(h.requireSession())
	{
		authed.POST("/auth/logout", h.logout)
		authed.GET("/auth/me", h.me)

		authed.GET("/products", h.listProducts)
		authed.POST("/products", h.addProduct)
		authed.DELETE("/products/:id", h.deleteProduct)
		authed.POST("/products/:id/stock", h.addStock)
		authed.POST("/products/:id/amazon/enable", h.enableAmazon)
		authed.POST("/products/:id/amazon/transfer", h.transferToAmazon)
		authed.POST("/products/:id/amazon/sales", h.recordAmazonSale)
		authed.POST("/amazon/products", h.createAmazonProduct)

		authed.GET("/orders", h.listOrders)
		authed.POST("/orders", h.createOrder)
		authed.GET("/orders/:id", h.getOrder)
		authed.POST("/orders/:id/fulfill", h.fulfillOrder)
		authed.DELETE("/orders/:id", h.deleteOrder)
		authed.GET("/scan/:token", h.scan)

		authed.GET("/logs", h.listLogs)
		authed.GET("/dashboard", h.dashboard)
		authed.GET("/reports/months", h.reportMonths)
		authed.GET("/reports/monthly", h.monthlyReport)
		authed.GET("/reports/monthly.csv", h.monthlyReportCSV)
		authed.POST("/reload", h.reload)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the mirror is loaded and every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	failures := gin.H{}
	if !h.state.Loaded() {
		failures["state"] = "not loaded"
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"details": failures,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// requireSession rejects requests without a live session
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := h.auth.CurrentUser(c.Request.Context(), bearerToken(c))
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Login required",
			})
			return
		}
		c.Set(userKey, *user)
		c.Next()
	}
}

// actor is the operator recorded on logs and orders
func actor(c *gin.Context) models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(models.User); ok && user.ID != "" {
			return user
		}
	}
	return models.SystemUser
}

// respondError maps workflow errors onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindPrecondition:
		status = http.StatusConflict
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindUnauthorized:
		status = http.StatusUnauthorized
	case service.KindForbidden:
		status = http.StatusForbidden
	}

	message := "Internal error"
	var e *service.Error
	if errors.As(err, &e) {
		message = e.Message
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
