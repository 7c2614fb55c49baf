package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Cobblo/AiaeroConnectDashboard/internal/model"
)

// ReadingService persists raw telemetry readings and serves them back
// in ascending time order for trip reconstruction.
type ReadingService struct {
	db *gorm.DB
}

// NewReadingService creates a new reading service.
func NewReadingService(db *gorm.DB) *ReadingService {
	return &ReadingService{db: db}
}

// Save stores one reading row.
func (s *ReadingService) Save(ctx context.Context, reading *model.Reading) error {
	return s.db.WithContext(ctx).Create(reading).Error
}

// GetDay returns all geolocated readings for a device on one local
// calendar day, ascending by time. Rows without a coordinate pair are
// excluded at the query, so the result feeds the segmenter directly.
func (s *ReadingService) GetDay(ctx context.Context, deviceID string, day time.Time, loc *time.Location) ([]model.Reading, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24 * time.Hour)

	var readings []model.Reading
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND ts >= ? AND ts < ? AND lat IS NOT NULL AND lon IS NOT NULL", deviceID, start, end).
		Order("ts ASC").
		Find(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}

// ToTrack converts stored readings to segmenter input. Rows missing a
// coordinate are skipped.
func ToTrack(readings []model.Reading) []model.TrackReading {
	out := make([]model.TrackReading, 0, len(readings))
	for _, r := range readings {
		if r.Lat == nil || r.Lon == nil {
			continue
		}
		out = append(out, model.TrackReading{Ts: r.Ts, Lat: *r.Lat, Lon: *r.Lon})
	}
	return out
}
