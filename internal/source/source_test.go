package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRegistryFetchDecodesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-ingest-secret"); got != "s3cret" {
			t.Errorf("expected secret header, got %q", got)
		}
		w.Write([]byte(`{"items":[{"device_id":"D1"}]}`))
	}))
	defer srv.Close()

	reg := NewRegistry("lora", srv.URL, "s3cret", 2*time.Second)
	payload, err := reg.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected fetch error: %v", err)
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		t.Fatalf("expected object payload, got %T", payload)
	}
	if _, ok := obj["items"]; !ok {
		t.Fatalf("expected items key, got %v", obj)
	}
}

func TestRegistryFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	reg := NewRegistry("gsm", srv.URL, "", 2*time.Second)
	if _, err := reg.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestRegistryFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	reg := NewRegistry("lora", srv.URL, "", 20*time.Millisecond)
	if _, err := reg.Fetch(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestRegistryFetchUnconfigured(t *testing.T) {
	reg := NewRegistry("bulk", "", "", time.Second)
	if reg.Configured() {
		t.Fatal("expected unconfigured registry")
	}
	if _, err := reg.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for missing URL")
	}
}

type fakeStore struct {
	records []map[string]any
}

func (f *fakeStore) All() []map[string]any { return f.records }

func TestSnapshotSource(t *testing.T) {
	src := NewSnapshotSource(&fakeStore{records: []map[string]any{
		{"device_id": "D1"},
		{"device_id": "D2"},
	}})

	payload, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("snapshot fetch must not fail: %v", err)
	}
	list, ok := payload.([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("expected list of 2, got %T %v", payload, payload)
	}
	if src.Name() != "local" {
		t.Fatalf("unexpected name %q", src.Name())
	}
}
