package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Cobblo/AiaeroConnectDashboard/internal/model"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/normalize"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/source"
)

// Tie-break policies for samples of the same device with equal
// timestamps. The historical behavior is that the later-processed
// source wins; it is kept as the default but surfaced as a policy
// because it is an artifact of processing order, not a business rule.
const (
	TieBreakLastSource  = "last-source"
	TieBreakFirstSource = "first-source"
)

// Aggregator reconciles every upstream feed into the authoritative
// current-state table. Sources are fetched concurrently; the fold that
// applies the fixed priority order runs only after all fetches have
// completed, so parallelism changes latency but never the result.
type Aggregator struct {
	local    source.Source
	lora     source.Source
	loraBulk source.Source
	gsm      source.Source
	tieBreak string
}

// NewAggregator wires the four upstream feeds in their fixed priority
// order: local ingest snapshot, LoRa registry, LoRa bulk fallback
// (consulted only when the registry yields nothing), GSM registry.
// Any source may be nil when unconfigured.
func NewAggregator(local, lora, loraBulk, gsm source.Source, tieBreak string) *Aggregator {
	if tieBreak != TieBreakFirstSource {
		tieBreak = TieBreakLastSource
	}
	return &Aggregator{
		local:    local,
		lora:     lora,
		loraBulk: loraBulk,
		gsm:      gsm,
		tieBreak: tieBreak,
	}
}

type fetchResult struct {
	records []map[string]any
	err     error
}

// Aggregate builds the current-state table as of now, dropping records
// older than the staleness window, without coordinates, or without a
// parseable timestamp. A failing source is logged and skipped; total
// upstream failure yields an empty table, never an error.
func (a *Aggregator) Aggregate(ctx context.Context, now time.Time, staleness time.Duration) model.CurrentStateTable {
	sources := []source.Source{a.local, a.lora, a.loraBulk, a.gsm}
	results := make([]fetchResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		if src == nil {
			continue
		}
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			payload, err := src.Fetch(ctx)
			if err != nil {
				results[i] = fetchResult{err: err}
				return
			}
			results[i] = fetchResult{records: normalize.Records(payload)}
		}(i, src)
	}
	wg.Wait()

	cutoff := now.Add(-staleness)
	table := make(model.CurrentStateTable)

	for i, src := range sources {
		if src == nil {
			continue
		}
		// Bulk fallback only fills in when the primary LoRa registry
		// yielded nothing at all.
		if src == a.loraBulk && a.lora != nil && len(results[1].records) > 0 {
			continue
		}
		res := results[i]
		if res.err != nil {
			log.Printf("[Aggregator] %s: fetch failed, skipping: %v", src.Name(), res.err)
			continue
		}
		a.fold(table, res.records, src.Name(), cutoff)
	}

	return table
}

// fold merges one source's records into the table, most recent wins.
// Under the default policy a later-processed source overwrites on any
// timestamp that is not strictly earlier than the stored one.
func (a *Aggregator) fold(table model.CurrentStateTable, records []map[string]any, sourceName string, cutoff time.Time) {
	kept := 0
	for _, rec := range records {
		sample, ok := buildSample(rec, sourceName)
		if !ok {
			continue
		}
		if sample.Timestamp.Before(cutoff) {
			continue
		}

		existing, seen := table[sample.DeviceID]
		if !seen {
			table[sample.DeviceID] = sample
			kept++
			continue
		}

		replace := false
		switch a.tieBreak {
		case TieBreakFirstSource:
			replace = sample.Timestamp.After(existing.Timestamp)
		default:
			replace = !sample.Timestamp.Before(existing.Timestamp)
		}
		if replace {
			table[sample.DeviceID] = sample
		}
		kept++
	}
	if len(records) > 0 {
		log.Printf("[Aggregator] %s: %d record(s), %d fresh", sourceName, len(records), kept)
	}
}

// buildSample turns one raw record into a DeviceSample. Records with
// no id, no parseable timestamp, or an incomplete coordinate pair are
// malformed and silently dropped.
func buildSample(rec map[string]any, sourceName string) (model.DeviceSample, bool) {
	f := normalize.Extract(rec)
	if f.DeviceID == "" {
		return model.DeviceSample{}, false
	}

	ts, ok := normalize.ParseTimestamp(f.Timestamp)
	if !ok {
		return model.DeviceSample{}, false
	}

	if f.Lat == nil || f.Lon == nil {
		return model.DeviceSample{}, false
	}

	label := f.Label
	if label == "" {
		label = f.DeviceID
	}

	return model.DeviceSample{
		DeviceID:   f.DeviceID,
		Label:      label,
		Lat:        f.Lat,
		Lon:        f.Lon,
		HeartRate:  f.HeartRate,
		SpO2:       f.SpO2,
		TempC:      f.TempC,
		BpSys:      f.BpSys,
		BpDia:      f.BpDia,
		BatteryPct: f.BatteryPct,
		RSSI:       f.RSSI,
		Timestamp:  ts,
		Source:     sourceName,
	}, true
}
