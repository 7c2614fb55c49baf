package geo

import (
	"math"
	"testing"
)

func TestDistanceKmCoincident(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{12.9716, 77.5946},
		{-33.8688, 151.2093},
		{90, 0},
	}
	for _, p := range points {
		if d := DistanceKm(p[0], p[1], p[0], p[1]); d != 0 {
			t.Fatalf("expected 0 for coincident point %v, got %f", p, d)
		}
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	d1 := DistanceKm(12.9716, 77.5946, 28.6139, 77.2090)
	d2 := DistanceKm(28.6139, 77.2090, 12.9716, 77.5946)
	if math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("expected symmetric distance, got %f and %f", d1, d2)
	}
}

func TestDistanceKmKnownValues(t *testing.T) {
	// One degree of longitude on the equator is about 111.19 km on a
	// 6371 km sphere.
	d := DistanceKm(0, 0, 0, 1)
	if math.Abs(d-111.19) > 0.1 {
		t.Fatalf("expected ~111.19 km for 1 degree on equator, got %f", d)
	}

	// 0.01 degrees on the equator, the trip scenario step.
	d = DistanceKm(0, 0, 0, 0.01)
	if math.Abs(d-1.112) > 0.01 {
		t.Fatalf("expected ~1.112 km, got %f", d)
	}
}

func TestDistanceKmNonNegative(t *testing.T) {
	if d := DistanceKm(-45, -170, 45, 170); d < 0 {
		t.Fatalf("distance must be non-negative, got %f", d)
	}
}
