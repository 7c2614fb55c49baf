package normalize

import (
	"testing"
	"time"
)

func TestParseTimestampISO(t *testing.T) {
	ts, ok := ParseTimestamp("2026-03-01T10:30:00Z")
	if !ok {
		t.Fatal("expected ISO timestamp to parse")
	}
	want := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("expected %v, got %v", want, ts)
	}
}

func TestParseTimestampISOWithOffset(t *testing.T) {
	ts, ok := ParseTimestamp("2026-03-01T16:00:00+05:30")
	if !ok {
		t.Fatal("expected offset timestamp to parse")
	}
	want := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("expected %v, got %v", want, ts)
	}
}

func TestParseTimestampISONoZoneMeansUTC(t *testing.T) {
	ts, ok := ParseTimestamp("2026-03-01T10:30:00")
	if !ok {
		t.Fatal("expected zoneless timestamp to parse")
	}
	want := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("expected %v, got %v", want, ts)
	}
}

func TestParseTimestampEpoch(t *testing.T) {
	ts, ok := ParseTimestamp(1767261600.0)
	if !ok {
		t.Fatal("expected epoch number to parse")
	}
	if ts.Unix() != 1767261600 {
		t.Fatalf("unexpected epoch result: %v", ts)
	}

	ts, ok = ParseTimestamp("1767261600")
	if !ok {
		t.Fatal("expected numeric string epoch to parse")
	}
	if ts.Unix() != 1767261600 {
		t.Fatalf("unexpected epoch-string result: %v", ts)
	}
}

func TestParseTimestampRejectsImplausible(t *testing.T) {
	cases := []any{
		0.0,              // zero epoch
		"0",              // zero epoch as string
		"1999-12-31T23:59:59Z",
		"1970-01-01T00:00:00Z",
	}
	for _, raw := range cases {
		if _, ok := ParseTimestamp(raw); ok {
			t.Fatalf("expected %v to be rejected as implausibly old", raw)
		}
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	cases := []any{nil, "", "yesterday", true, map[string]any{}}
	for _, raw := range cases {
		if _, ok := ParseTimestamp(raw); ok {
			t.Fatalf("expected %v to be rejected", raw)
		}
	}
}
