package service

import (
	"time"

	"github.com/Cobblo/AiaeroConnectDashboard/internal/geo"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/model"
)

// TripSegmenter partitions one device's one-day geolocated readings
// into discrete trips. Readings are expected already time-ordered and
// filtered to resolved coordinates (the reading store's query
// contract).
type TripSegmenter struct {
	// MaxGap is the largest gap between consecutive readings that
	// still belongs to the same trip.
	MaxGap time.Duration
	// Loc renders the local wall-clock labels on trip points.
	Loc *time.Location
}

// NewTripSegmenter creates a segmenter with the given gap threshold.
func NewTripSegmenter(maxGap time.Duration, loc *time.Location) *TripSegmenter {
	if loc == nil {
		loc = time.UTC
	}
	return &TripSegmenter{MaxGap: maxGap, Loc: loc}
}

// Segment splits the readings at every gap larger than MaxGap and
// returns the runs that contain at least two points, numbered from 1.
// A lone reading with no neighbor inside the gap threshold is not a
// trip and produces no segment.
func (s *TripSegmenter) Segment(readings []model.TrackReading) []model.TripSegment {
	var segments []model.TripSegment
	var run []model.TrackReading

	flush := func() {
		if len(run) >= 2 {
			segments = append(segments, s.buildSegment(len(segments)+1, run))
		}
		run = nil
	}

	for _, r := range readings {
		if len(run) > 0 && r.Ts.Sub(run[len(run)-1].Ts) > s.MaxGap {
			flush()
		}
		run = append(run, r)
	}
	flush()

	return segments
}

// TotalDistanceKm sums the per-segment distances.
func TotalDistanceKm(segments []model.TripSegment) float64 {
	var total float64
	for _, seg := range segments {
		total += seg.DistanceKm
	}
	return total
}

func (s *TripSegmenter) buildSegment(seq int, run []model.TrackReading) model.TripSegment {
	points := make([]model.TripPoint, len(run))
	var dist float64
	for i, r := range run {
		points[i] = model.NewTripPoint(r.Ts, r.Lat, r.Lon, s.Loc)
		if i > 0 {
			dist += geo.DistanceKm(run[i-1].Lat, run[i-1].Lon, r.Lat, r.Lon)
		}
	}
	return model.TripSegment{
		Seq:        seq,
		Start:      run[0].Ts,
		End:        run[len(run)-1].Ts,
		Points:     points,
		DistanceKm: dist,
	}
}
