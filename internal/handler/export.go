package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Cobblo/AiaeroConnectDashboard/internal/service"
)

// ExportHandler serves the current-state workbook download.
type ExportHandler struct {
	aggregator    *service.Aggregator
	loc           *time.Location
	defaultMaxAge int
}

// NewExportHandler creates a new export handler.
func NewExportHandler(aggregator *service.Aggregator, loc *time.Location, defaultMaxAgeMin int) *ExportHandler {
	return &ExportHandler{aggregator: aggregator, loc: loc, defaultMaxAge: defaultMaxAgeMin}
}

// GetVitalsWorkbook handles GET /api/export/vitals.xlsx: a snapshot of
// the aggregated current state as an Excel workbook. The workbook is
// built in memory and streamed; nothing is persisted server-side.
func (h *ExportHandler) GetVitalsWorkbook(c *gin.Context) {
	now := time.Now().UTC()
	table := h.aggregator.Aggregate(c.Request.Context(), now, time.Duration(h.defaultMaxAge)*time.Minute)

	buf, err := service.BuildVitalsWorkbook(table, h.loc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("vitals_%s.xlsx", now.In(h.loc).Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
