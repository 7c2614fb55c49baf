package model

import (
	"time"
)

// DeviceSample is one normalized telemetry observation for a device.
// A sample is only built once its device id and timestamp have been
// resolved; lat/lon are either both set or both nil.
type DeviceSample struct {
	DeviceID   string    `json:"device_id"`
	Label      string    `json:"label"`
	Lat        *float64  `json:"lat"`
	Lon        *float64  `json:"lon"`
	HeartRate  *float64  `json:"hr"`
	SpO2       *float64  `json:"spo2"`
	TempC      *float64  `json:"temp_c"`
	BpSys      *float64  `json:"bp_sys"`
	BpDia      *float64  `json:"bp_dia"`
	BatteryPct *float64  `json:"battery_pct,omitempty"`
	RSSI       *float64  `json:"rssi,omitempty"`
	Timestamp  time.Time `json:"ts"`
	Source     string    `json:"source,omitempty"`
}

// Mappable reports whether the sample carries a usable coordinate pair.
func (s DeviceSample) Mappable() bool {
	return s.Lat != nil && s.Lon != nil
}

// CurrentStateTable maps device id to its single most recent sample
// across all sources, rebuilt from scratch on every aggregation.
type CurrentStateTable map[string]DeviceSample

// Reading is one stored telemetry row, queried back in ascending time
// order to reconstruct per-day movement.
type Reading struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	DeviceID   string    `json:"device_id" gorm:"index:idx_readings_device_ts,priority:1;size:64"`
	Ts         time.Time `json:"ts" gorm:"index:idx_readings_device_ts,priority:2"`
	Label      string    `json:"label" gorm:"size:128"`
	Lat        *float64  `json:"lat"`
	Lon        *float64  `json:"lon"`
	HeartRate  *float64  `json:"hr"`
	SpO2       *float64  `json:"spo2"`
	TempC      *float64  `json:"temp_c"`
	BpSys      *float64  `json:"bp_sys"`
	BpDia      *float64  `json:"bp_dia"`
	BatteryPct *float64  `json:"battery_pct"`
	RSSI       *float64  `json:"rssi"`
}

// TrackReading is a geolocated reading prepared for trip segmentation:
// coordinates resolved, time order already imposed by the query.
type TrackReading struct {
	Ts  time.Time
	Lat float64
	Lon float64
}

// TripPoint is one point inside a trip segment.
type TripPoint struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Time  string  `json:"time"` // local wall-clock label, HH:MM:SS
	ts    time.Time
}

// PointTime returns the instant behind the local label.
func (p TripPoint) PointTime() time.Time { return p.ts }

// NewTripPoint builds a point with its local-time label.
func NewTripPoint(ts time.Time, lat, lon float64, loc *time.Location) TripPoint {
	return TripPoint{
		Lat:  lat,
		Lon:  lon,
		Time: ts.In(loc).Format("15:04:05"),
		ts:   ts,
	}
}

// TripSegment is a contiguous run of geolocated readings for one
// device on one calendar day. Always holds at least two points.
type TripSegment struct {
	Seq        int         `json:"seq"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Points     []TripPoint `json:"points"`
	DistanceKm float64     `json:"distance_km"`
}
