package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Cobblo/AiaeroConnectDashboard/internal/model"
)

// trackCSVHeader: one row per trip point, each carrying its enclosing
// segment's metadata.
var trackCSVHeader = []string{
	"device_id", "date", "segment", "segment_start", "segment_end",
	"segment_km", "time", "lat", "lon",
}

// WriteTrackCSV renders trip segments as delimited rows.
func WriteTrackCSV(w io.Writer, deviceID, date string, segments []model.TripSegment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trackCSVHeader); err != nil {
		return err
	}

	for _, seg := range segments {
		for _, p := range seg.Points {
			row := []string{
				deviceID,
				date,
				fmt.Sprintf("%d", seg.Seq),
				seg.Start.UTC().Format(time.RFC3339),
				seg.End.UTC().Format(time.RFC3339),
				fmt.Sprintf("%.3f", seg.DistanceKm),
				p.Time,
				fmt.Sprintf("%.6f", p.Lat),
				fmt.Sprintf("%.6f", p.Lon),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

var vitalsHeader = []string{
	"date", "time", "device_id", "label",
	"hr", "spo2", "temp_c", "bp_sys", "bp_dia",
	"battery_pct", "rssi", "lat", "lon", "ts_iso",
}

// BuildVitalsWorkbook renders the current-state table into an Excel
// workbook with a single "vitals" sheet, one row per device, ordered
// by device id.
func BuildVitalsWorkbook(table model.CurrentStateTable, loc *time.Location) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "vitals"
	f.SetSheetName("Sheet1", sheet)

	for i, h := range vitalsHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, h)
	}

	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for rowIdx, id := range ids {
		s := table[id]
		local := s.Timestamp.In(loc)
		values := []any{
			local.Format("2006-01-02"),
			local.Format("15:04:05"),
			s.DeviceID,
			s.Label,
			cellNumber(s.HeartRate),
			cellNumber(s.SpO2),
			cellNumber(s.TempC),
			cellNumber(s.BpSys),
			cellNumber(s.BpDia),
			cellNumber(s.BatteryPct),
			cellNumber(s.RSSI),
			cellNumber(s.Lat),
			cellNumber(s.Lon),
			local.Format(time.RFC3339),
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			f.SetCellValue(sheet, cell, v)
		}
	}

	for i := range vitalsHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		f.SetColWidth(sheet, col, col, 14)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

func cellNumber(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
