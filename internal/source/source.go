// Package source holds one fetcher per upstream: the local ingest
// snapshot and the remote device registries reached over HTTP. A
// fetcher returns the raw payload for the normalizer, or an error; the
// aggregator logs errors and moves on, so no fetcher is ever fatal to
// a request.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Source is one upstream telemetry feed.
type Source interface {
	// Name identifies the source in logs and sample provenance.
	Name() string
	// Fetch returns the raw upstream payload in any of the shapes the
	// normalizer accepts.
	Fetch(ctx context.Context) (any, error)
}

// SnapshotReader is the read side of the local ingest cache.
type SnapshotReader interface {
	All() []map[string]any
}

// SnapshotSource exposes the local ingest snapshot as a Source so the
// aggregation pipeline treats it like every remote registry.
type SnapshotSource struct {
	store SnapshotReader
}

// NewSnapshotSource wraps the ingest snapshot store.
func NewSnapshotSource(store SnapshotReader) *SnapshotSource {
	return &SnapshotSource{store: store}
}

func (s *SnapshotSource) Name() string { return "local" }

func (s *SnapshotSource) Fetch(ctx context.Context) (any, error) {
	records := s.store.All()
	out := make([]any, len(records))
	for i, rec := range records {
		out[i] = rec
	}
	return out, nil
}

// Registry fetches a remote HTTP device registry. Each call carries an
// explicit timeout through the client; a timed-out or non-2xx call is
// an error, which the caller treats as "this source returned nothing".
type Registry struct {
	name   string
	url    string
	secret string
	client *http.Client
}

// NewRegistry creates a registry fetcher. The shared secret, when set,
// is sent as the x-ingest-secret header.
func NewRegistry(name, url, secret string, timeout time.Duration) *Registry {
	return &Registry{
		name:   name,
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: timeout},
	}
}

func (r *Registry) Name() string { return r.name }

// Configured reports whether the registry has an endpoint to call.
func (r *Registry) Configured() bool { return r.url != "" }

func (r *Registry) Fetch(ctx context.Context) (any, error) {
	if r.url == "" {
		return nil, fmt.Errorf("%s: no URL configured", r.name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", r.name, err)
	}
	if r.secret != "" {
		req.Header.Set("x-ingest-secret", r.secret)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: upstream status %d", r.name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", r.name, err)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%s: decode body: %w", r.name, err)
	}
	return payload, nil
}
