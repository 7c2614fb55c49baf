package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/Cobblo/AiaeroConnectDashboard/internal/model"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/normalize"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/service"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/snapshot"
)

// IngestHandler accepts push writes from devices and edge gateways and
// fans them out: snapshot store (the aggregator's local source),
// reading history, Redis shadow mirror, NATS uplink. Only the snapshot
// write is load-bearing; the rest are best effort.
type IngestHandler struct {
	store    *snapshot.Store
	readings *service.ReadingService
	redis    *redis.Client
	nats     *nats.Conn
	secret   string
}

// NewIngestHandler creates a new ingest handler. Redis, NATS and the
// reading service may be nil when the corresponding backend is down or
// not configured.
func NewIngestHandler(store *snapshot.Store, readings *service.ReadingService, redisClient *redis.Client, natsConn *nats.Conn, secret string) *IngestHandler {
	return &IngestHandler{
		store:    store,
		readings: readings,
		redis:    redisClient,
		nats:     natsConn,
		secret:   secret,
	}
}

// Ingest handles POST /api/ingest. The body may arrive in any of the
// normalizer's accepted shapes, so a gateway can push one record or a
// whole batch. A record with no resolvable device id is dropped; a
// missing or unparseable timestamp is replaced with "now", because the
// write itself is evidence of liveness.
func (h *IngestHandler) Ingest(c *gin.Context) {
	if h.secret != "" && c.GetHeader("x-ingest-secret") != h.secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid ingest secret"})
		return
	}

	var raw any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}

	records := normalize.Records(raw)
	if len(records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no records in payload"})
		return
	}

	now := time.Now().UTC()
	stored := 0
	for _, rec := range records {
		f := normalize.Extract(rec)
		if f.DeviceID == "" {
			continue
		}

		ts, ok := normalize.ParseTimestamp(f.Timestamp)
		if !ok {
			ts = now
		}

		canonical := canonicalRecord(f, ts)
		h.store.Put(f.DeviceID, canonical)
		h.persistReading(c.Request.Context(), f, ts)
		h.mirrorShadow(c.Request.Context(), f, ts)
		h.publishUplink(f.DeviceID, canonical)
		stored++
	}

	if stored == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_id is required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "stored": stored})
}

// canonicalRecord flattens extracted fields back to the canonical key
// set, so snapshot reads normalize exactly like remote registries.
func canonicalRecord(f normalize.Fields, ts time.Time) map[string]any {
	rec := map[string]any{
		"device_id": f.DeviceID,
		"timestamp": ts.Format(time.RFC3339),
	}
	if f.Label != "" {
		rec["label"] = f.Label
	}
	putNumber := func(key string, v *float64) {
		if v != nil {
			rec[key] = *v
		}
	}
	putNumber("lat", f.Lat)
	putNumber("lon", f.Lon)
	putNumber("hr", f.HeartRate)
	putNumber("spo2", f.SpO2)
	putNumber("temp_c", f.TempC)
	putNumber("bp_sys", f.BpSys)
	putNumber("bp_dia", f.BpDia)
	putNumber("battery_pct", f.BatteryPct)
	putNumber("rssi", f.RSSI)
	return rec
}

func (h *IngestHandler) persistReading(ctx context.Context, f normalize.Fields, ts time.Time) {
	if h.readings == nil {
		return
	}
	reading := &model.Reading{
		DeviceID:   f.DeviceID,
		Ts:         ts,
		Label:      f.Label,
		Lat:        f.Lat,
		Lon:        f.Lon,
		HeartRate:  f.HeartRate,
		SpO2:       f.SpO2,
		TempC:      f.TempC,
		BpSys:      f.BpSys,
		BpDia:      f.BpDia,
		BatteryPct: f.BatteryPct,
		RSSI:       f.RSSI,
	}
	if err := h.readings.Save(ctx, reading); err != nil {
		log.Printf("[Ingest] Failed to persist reading for %s: %v", f.DeviceID, err)
	}
}

// mirrorShadow updates the device shadow hash for external consumers.
func (h *IngestHandler) mirrorShadow(ctx context.Context, f normalize.Fields, ts time.Time) {
	if h.redis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	key := "vitals:shadow:" + f.DeviceID
	fields := map[string]any{"ts": ts.Unix()}
	if f.Lat != nil && f.Lon != nil {
		fields["lat"] = *f.Lat
		fields["lon"] = *f.Lon
	}
	if f.HeartRate != nil {
		fields["hr"] = *f.HeartRate
	}
	if f.BatteryPct != nil {
		fields["battery_pct"] = *f.BatteryPct
	}

	if err := h.redis.HSet(ctx, key, fields).Err(); err != nil {
		log.Printf("[Ingest] Failed to mirror shadow for %s: %v", f.DeviceID, err)
		return
	}
	h.redis.Expire(ctx, key, 24*time.Hour)
}

func (h *IngestHandler) publishUplink(deviceID string, record map[string]any) {
	if h.nats == nil {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := h.nats.Publish("vitals.uplink."+deviceID, data); err != nil {
		log.Printf("[Ingest] Failed to publish uplink for %s: %v", deviceID, err)
		return
	}
	h.nats.Publish("vitals.uplink.all", data)
}
