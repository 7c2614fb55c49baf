package service

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Cobblo/AiaeroConnectDashboard/internal/model"
)

func TestWriteTrackCSV(t *testing.T) {
	readings := []model.TrackReading{
		tr(10, 0, 0, 0),
		tr(10, 10, 0, 0.01),
		// gap
		tr(11, 0, 0, 0.10),
		tr(11, 5, 0, 0.11),
	}
	segments := NewTripSegmenter(20*time.Minute, time.UTC).Segment(readings)

	var buf bytes.Buffer
	if err := WriteTrackCSV(&buf, "D1", "2026-03-01", segments); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	// Header plus one row per trip point.
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	if rows[0][0] != "device_id" || rows[0][2] != "segment" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	// Both points of segment 1 carry the same segment metadata.
	if rows[1][2] != "1" || rows[2][2] != "1" || rows[1][5] != rows[2][5] {
		t.Fatalf("segment metadata must repeat per point: %v %v", rows[1], rows[2])
	}
	if rows[3][2] != "2" {
		t.Fatalf("expected second segment rows, got %v", rows[3])
	}
}

func TestWriteTrackCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTrackCSV(&buf, "D1", "2026-03-01", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected header-only CSV, got %v (%v)", rows, err)
	}
}

func TestBuildVitalsWorkbook(t *testing.T) {
	lat, lon, hr := 12.97, 77.59, 72.0
	table := model.CurrentStateTable{
		"D2": {DeviceID: "D2", Label: "Unit 2", Lat: &lat, Lon: &lon,
			Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		"D1": {DeviceID: "D1", Label: "Unit 1", Lat: &lat, Lon: &lon, HeartRate: &hr,
			Timestamp: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
	}

	buf, err := BuildVitalsWorkbook(table, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("workbook does not reopen: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("vitals")
	if err != nil {
		t.Fatalf("missing vitals sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][2] != "device_id" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	// Rows ordered by device id.
	if rows[1][2] != "D1" || rows[2][2] != "D2" {
		t.Fatalf("expected sorted device rows, got %v / %v", rows[1], rows[2])
	}
	if rows[1][4] != "72" {
		t.Fatalf("expected hr cell 72, got %q", rows[1][4])
	}
}
