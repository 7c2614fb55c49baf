package handler

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Cobblo/AiaeroConnectDashboard/internal/model"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/service"
)

// CurrentHandler serves the aggregated current-state feed consumed by
// the dashboard and map frontends.
type CurrentHandler struct {
	aggregator    *service.Aggregator
	defaultMaxAge int
}

// NewCurrentHandler creates a new current-state handler.
func NewCurrentHandler(aggregator *service.Aggregator, defaultMaxAgeMin int) *CurrentHandler {
	return &CurrentHandler{aggregator: aggregator, defaultMaxAge: defaultMaxAgeMin}
}

// GetCurrent handles GET /api/current.
// Query:
//   - max_age_min: staleness window in minutes (default from config)
//   - now: RFC3339 instant overriding the freshness cutoff reference
//
// Returns {"items": [...]} with only mappable devices, sorted by
// device id. Zero qualifying devices is an empty list, not an error.
func (h *CurrentHandler) GetCurrent(c *gin.Context) {
	maxAge := h.defaultMaxAge
	if v := c.Query("max_age_min"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			maxAge = n
		}
	}

	now := time.Now().UTC()
	if v := c.Query("now"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid now timestamp"})
			return
		}
		now = parsed.UTC()
	}

	table := h.aggregator.Aggregate(c.Request.Context(), now, time.Duration(maxAge)*time.Minute)

	items := make([]model.DeviceSample, 0, len(table))
	for _, sample := range table {
		if !sample.Mappable() {
			continue
		}
		items = append(items, sample)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DeviceID < items[j].DeviceID })

	c.JSON(http.StatusOK, gin.H{"items": items})
}
