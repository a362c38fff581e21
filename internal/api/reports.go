package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"inventory-service/internal/report"

	"github.com/gin-gonic/gin"
)

func (h *Handler) selectedMonth(c *gin.Context) (string, bool) {
	month := c.Query("month")
	if month == "" {
		return report.Months(h.inventory.ListLogs(), time.Now(), h.reportLoc)[0], true
	}

	month, err := report.ParseMonth(month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid month",
			"details": err.Error(),
		})
		return "", false
	}
	return month, true
}

func (h *Handler) reportMonths(c *gin.Context) {
	c.JSON(http.StatusOK, report.Months(h.inventory.ListLogs(), time.Now(), h.reportLoc))
}

func (h *Handler) monthlyReport(c *gin.Context) {
	month, ok := h.selectedMonth(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.Monthly(h.inventory.ListLogs(), h.inventory.ListProducts(), month, h.reportLoc))
}

func (h *Handler) monthlyReportCSV(c *gin.Context) {
	month, ok := h.selectedMonth(c)
	if !ok {
		return
	}

	r := report.Monthly(h.inventory.ListLogs(), h.inventory.ListProducts(), month, h.reportLoc)
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, r); err != nil {
		if errors.Is(err, report.ErrEmptyReport) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "No movements for this month",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to export report",
			"details": err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.FileName(month)+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
