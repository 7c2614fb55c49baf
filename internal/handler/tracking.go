package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Cobblo/AiaeroConnectDashboard/internal/service"
)

// Accepted textual date formats for tracking requests.
var trackingDateLayouts = []string{"2006-01-02", "02/01/2006"}

// TrackingHandler reconstructs per-day movement for one device.
type TrackingHandler struct {
	readings      *service.ReadingService
	loc           *time.Location
	defaultGapMin int
}

// NewTrackingHandler creates a new tracking handler.
func NewTrackingHandler(readings *service.ReadingService, loc *time.Location, defaultGapMin int) *TrackingHandler {
	return &TrackingHandler{readings: readings, loc: loc, defaultGapMin: defaultGapMin}
}

func (h *TrackingHandler) parseRequest(c *gin.Context) (deviceID string, day time.Time, gap time.Duration, ok bool) {
	deviceID = c.Query("device_id")
	if deviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_id is required"})
		return "", time.Time{}, 0, false
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return "", time.Time{}, 0, false
	}
	var err error
	for _, layout := range trackingDateLayouts {
		if day, err = time.ParseInLocation(layout, dateStr, h.loc); err == nil {
			break
		}
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD or DD/MM/YYYY"})
		return "", time.Time{}, 0, false
	}

	gapMin := h.defaultGapMin
	if v := c.Query("max_gap_min"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			gapMin = n
		}
	}

	return deviceID, day, time.Duration(gapMin) * time.Minute, true
}

// GetTrack handles GET /api/track: trip segments plus total distance
// for one device on one calendar day.
func (h *TrackingHandler) GetTrack(c *gin.Context) {
	deviceID, day, gap, ok := h.parseRequest(c)
	if !ok {
		return
	}

	readings, err := h.readings.GetDay(c.Request.Context(), deviceID, day, h.loc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	segmenter := service.NewTripSegmenter(gap, h.loc)
	segments := segmenter.Segment(service.ToTrack(readings))

	c.JSON(http.StatusOK, gin.H{
		"device_id":     deviceID,
		"date":          day.Format("2006-01-02"),
		"segments":      segments,
		"segment_count": len(segments),
		"total_km":      service.TotalDistanceKm(segments),
	})
}

// ExportTrack handles GET /api/track/export: the same trips rendered
// as CSV, one row per trip point with its segment's metadata.
func (h *TrackingHandler) ExportTrack(c *gin.Context) {
	deviceID, day, gap, ok := h.parseRequest(c)
	if !ok {
		return
	}

	readings, err := h.readings.GetDay(c.Request.Context(), deviceID, day, h.loc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	segmenter := service.NewTripSegmenter(gap, h.loc)
	segments := segmenter.Segment(service.ToTrack(readings))

	date := day.Format("2006-01-02")
	filename := fmt.Sprintf("track_%s_%s.csv", deviceID, date)
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := service.WriteTrackCSV(c.Writer, deviceID, date, segments); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
