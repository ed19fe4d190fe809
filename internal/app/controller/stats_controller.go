package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StatsController struct {
	statsService service.StatsService
}

func NewStatsController(statsService service.StatsService) *StatsController {
	return &StatsController{
		statsService: statsService,
	}
}

// GetStats
// GET /api/v1/stats
func (ctrl *StatsController) GetStats(c *gin.Context) {
	stats, err := ctrl.statsService.GetStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "get stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportOrders streams the order report as a workbook
// GET /api/v1/stats/orders/export
func (ctrl *StatsController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	// buffered so a failed export can still answer with an error body
	var buf bytes.Buffer
	rows, err := ctrl.statsService.ExportOrders(c.Request.Context(), &buf)
	if err != nil {
		respondServiceError(c, err, "export orders")
		return
	}

	log.Info("Orders exported", map[string]interface{}{
		"rows":  rows,
		"bytes": buf.Len(),
	})

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
