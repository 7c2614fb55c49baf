// Package normalize converts the heterogeneous JSON shapes produced by
// the upstream backhauls into flat field-keyed records. Each backhaul
// evolved its own envelope and key spellings independently, so both the
// envelope and the per-field lookups are closed, ordered candidate
// lists rather than ad hoc type inspection.
package normalize

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Candidate key tables, consulted in order. First non-null match wins.
var (
	deviceIDKeys  = []string{"device_id", "deviceId", "node_id", "id"}
	labelKeys     = []string{"label", "name", "person"}
	latKeys       = []string{"lat", "last_lat", "latitude"}
	lonKeys       = []string{"lon", "last_lon", "longitude"}
	gpsLatKeys    = []string{"lat", "latitude"}
	gpsLonKeys    = []string{"lon", "lng", "longitude"}
	heartRateKeys = []string{"hr", "heart_rate"}
	spo2Keys      = []string{"spo2"}
	tempKeys      = []string{"temp_c", "temp", "temperature"}
	bpSysKeys     = []string{"bp_sys", "bp_systolic"}
	bpDiaKeys     = []string{"bp_dia", "bp_diastolic"}
	batteryKeys   = []string{"battery_pct", "battery"}
	rssiKeys      = []string{"rssi"}

	// last_seen outranks raw reading timestamps: a registry's last_seen
	// is authoritative for liveness even when older readings tag along.
	timestampKeys = []string{"last_seen", "timestamp", "ts", "time"}
)

// Records flattens an upstream payload into a list of raw records.
// Accepted shapes, in order of attempted interpretation:
//
//   - object with an "items"/"Items" key holding a list
//   - envelope object with a "body" key holding a JSON-encoded string
//   - bare list
//   - bare JSON string (re-parsed recursively)
//   - record-shaped object (has a device id key): single record
//   - any other object: its values are the records
//
// Unrecognized payloads yield no records, never an error.
func Records(raw any) []map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		for _, key := range []string{"items", "Items"} {
			if list, ok := v[key].([]any); ok {
				return recordList(list)
			}
		}
		if body, ok := v["body"].(string); ok {
			var inner any
			if err := json.Unmarshal([]byte(body), &inner); err == nil {
				return Records(inner)
			}
		}
		if _, ok := firstString(v, deviceIDKeys); ok {
			return []map[string]any{v}
		}
		return objectOfObjects(v)
	case []any:
		return recordList(v)
	case string:
		var inner any
		if err := json.Unmarshal([]byte(v), &inner); err != nil {
			return nil
		}
		return Records(inner)
	}
	return nil
}

func recordList(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			out = append(out, rec)
		}
	}
	return out
}

// objectOfObjects treats map values as the record list (shape used by
// registries keyed on device id). Keys are sorted so the output order
// is stable.
func objectOfObjects(obj map[string]any) []map[string]any {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]map[string]any, 0, len(obj))
	for _, k := range keys {
		if rec, ok := obj[k].(map[string]any); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Fields is the flat intermediate extracted from one raw record. Not
// yet sanitized: Timestamp still carries the raw candidate value.
type Fields struct {
	DeviceID   string
	Label      string
	Lat        *float64
	Lon        *float64
	HeartRate  *float64
	SpO2       *float64
	TempC      *float64
	BpSys      *float64
	BpDia      *float64
	BatteryPct *float64
	RSSI       *float64
	Timestamp  any
}

// Extract probes one raw record through the candidate key tables.
func Extract(rec map[string]any) Fields {
	f := Fields{}

	f.DeviceID, _ = firstString(rec, deviceIDKeys)
	f.Label, _ = firstString(rec, labelKeys)

	f.Lat, f.Lon = extractCoords(rec)

	// Vitals may sit at the top level or under a "data" sub-object.
	vitalScopes := []map[string]any{rec}
	if data, ok := rec["data"].(map[string]any); ok {
		vitalScopes = append(vitalScopes, data)
	}
	f.HeartRate = firstNumberIn(vitalScopes, heartRateKeys)
	f.SpO2 = firstNumberIn(vitalScopes, spo2Keys)
	f.TempC = firstNumberIn(vitalScopes, tempKeys)
	f.BpSys = firstNumberIn(vitalScopes, bpSysKeys)
	f.BpDia = firstNumberIn(vitalScopes, bpDiaKeys)
	f.BatteryPct = firstNumberIn(vitalScopes, batteryKeys)
	f.RSSI = firstNumberIn(vitalScopes, rssiKeys)

	for _, key := range timestampKeys {
		if v, ok := rec[key]; ok && v != nil {
			f.Timestamp = v
			break
		}
	}

	return f
}

// extractCoords resolves the coordinate pair, falling back to a nested
// "gps" sub-object. A record never ends up with only one of the two.
func extractCoords(rec map[string]any) (*float64, *float64) {
	lat := firstNumber(rec, latKeys)
	lon := firstNumber(rec, lonKeys)

	if lat == nil || lon == nil {
		if gps, ok := rec["gps"].(map[string]any); ok {
			lat = firstNumber(gps, gpsLatKeys)
			lon = firstNumber(gps, gpsLonKeys)
		}
	}

	if lat == nil || lon == nil {
		return nil, nil
	}
	return lat, lon
}

func firstString(rec map[string]any, keys []string) (string, bool) {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s, true
			}
		case float64:
			// Numeric ids arrive as JSON numbers from some backhauls.
			return strconv.FormatFloat(s, 'f', -1, 64), true
		}
	}
	return "", false
}

func firstNumber(rec map[string]any, keys []string) *float64 {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if n, ok := asFloat(v); ok {
			return &n
		}
	}
	return nil
}

func firstNumberIn(scopes []map[string]any, keys []string) *float64 {
	for _, scope := range scopes {
		if n := firstNumber(scope, keys); n != nil {
			return n
		}
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
