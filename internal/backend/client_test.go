package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/netview/gateway/internal/domain"
)

func TestFetchProbes(t *testing.T) {
	var gotPath, gotKey, gotAgent string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"p1","type":"Uptime","url":"https://example.com"},{"id":"p2","type":"API","isActive":false}]`)
	}))
	defer s.Close()

	c := New(s.URL, "secret-key", "test-agent/1.0", zap.NewNop())
	probes, err := c.FetchProbes(context.Background())
	if err != nil {
		t.Fatalf("fetch probes: %v", err)
	}

	if gotPath != "/api/gateway/probes" {
		t.Fatalf("wrong path: %s", gotPath)
	}
	if gotKey != "secret-key" {
		t.Fatalf("api key not sent, got %q", gotKey)
	}
	if gotAgent != "test-agent/1.0" {
		t.Fatalf("user agent not sent, got %q", gotAgent)
	}
	if len(probes) != 2 || probes[0].ID != "p1" || probes[0].Type != domain.ProbeUptime {
		t.Fatalf("probes not decoded: %+v", probes)
	}
	if probes[0].Active() != true {
		t.Fatalf("absent isActive must default to active")
	}
	if probes[1].Active() {
		t.Fatalf("explicit isActive=false must be honored")
	}
}

func TestPushResultsPayloadShape(t *testing.T) {
	var got struct {
		APIKey  string               `json:"apiKey"`
		Results []domain.ProbeResult `json:"results"`
	}
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/gateway/results" || r.Method != http.MethodPost {
			t.Errorf("wrong route: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("wrong content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(200)
	}))
	defer s.Close()

	c := New(s.URL, "secret-key", "test-agent/1.0", zap.NewNop())
	err := c.PushResults(context.Background(), []domain.ProbeResult{
		{ProbeID: "p1", GatewayID: "gw-1", Status: domain.StatusUp, CheckedAt: domain.CheckedAtNow()},
	})
	if err != nil {
		t.Fatalf("push results: %v", err)
	}

	if got.APIKey != "secret-key" {
		t.Fatalf("api key must ride in the body too, got %q", got.APIKey)
	}
	if len(got.Results) != 1 || got.Results[0].ProbeID != "p1" {
		t.Fatalf("results not delivered: %+v", got.Results)
	}
}

func TestPushResultsNon2xxIsError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer s.Close()

	c := New(s.URL, "secret-key", "test-agent/1.0", zap.NewNop())
	if err := c.PushResults(context.Background(), []domain.ProbeResult{{ProbeID: "p1"}}); err == nil {
		t.Fatalf("want error on backend 500")
	}
}

func TestPushHeartbeat(t *testing.T) {
	var got domain.Heartbeat
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/gateway/heartbeat" {
			t.Errorf("wrong path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(200)
	}))
	defer s.Close()

	c := New(s.URL, "secret-key", "test-agent/1.0", zap.NewNop())
	err := c.PushHeartbeat(context.Background(), domain.Heartbeat{
		GatewayID:   "gw-1",
		GatewayType: "monitoring",
		Timestamp:   domain.CheckedAtNow(),
		Stats:       domain.HeartbeatStats{PendingResults: 7},
	})
	if err != nil {
		t.Fatalf("push heartbeat: %v", err)
	}
	if got.GatewayID != "gw-1" || got.Stats.PendingResults != 7 {
		t.Fatalf("heartbeat not delivered: %+v", got)
	}
}
