package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GATEWAY_API_KEY", "GATEWAY_ID", "GATEWAY_TYPE", "GATEWAY_NAME",
		"GATEWAY_LOCATION", "BACKEND_URL", "GATEWAY_ADDR", "ADMIN_API_KEYS",
		"SYNC_INTERVAL", "PROBE_CHECK_INTERVAL", "DEFAULT_TIMEOUT",
		"MAX_CONCURRENT_PROBES", "USER_AGENT", "VERIFY_SSL",
		"LOCAL_STORAGE_PATH", "MAX_LOCAL_RESULTS", "LOG_DIR", "GATEWAY_DEBUG",
		"SLACK_WEBHOOK",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_RequiresAPIKey(t *testing.T) {
	clearEnv(t)
	if _, err := FromEnv(); err == nil {
		t.Fatalf("want error when GATEWAY_API_KEY is missing")
	}

	t.Setenv("GATEWAY_API_KEY", "   ")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("blank GATEWAY_API_KEY must not pass")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GATEWAY_API_KEY", "k")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}

	if cfg.GatewayID == "" {
		t.Fatalf("gateway id must be generated when unset")
	}
	if cfg.GatewayType != "Custom" || cfg.GatewayName != "Custom Gateway" {
		t.Fatalf("type defaults wrong: %q %q", cfg.GatewayType, cfg.GatewayName)
	}
	if cfg.BackendURL != "http://localhost:5000" {
		t.Fatalf("backend url default wrong: %q", cfg.BackendURL)
	}
	if cfg.Addr != "0.0.0.0:8001" {
		t.Fatalf("addr default wrong: %q", cfg.Addr)
	}
	if cfg.SyncInterval != 10*time.Second || cfg.ProbeCheckInterval != 60*time.Second {
		t.Fatalf("interval defaults wrong: %v %v", cfg.SyncInterval, cfg.ProbeCheckInterval)
	}
	if cfg.DefaultTimeout != 30*time.Second {
		t.Fatalf("timeout default wrong: %v", cfg.DefaultTimeout)
	}
	if !cfg.VerifySSL {
		t.Fatalf("ssl verification must default on")
	}
	if cfg.StoragePath != "./data" || cfg.MaxLocalResults != 1000 {
		t.Fatalf("storage defaults wrong: %q %d", cfg.StoragePath, cfg.MaxLocalResults)
	}
	if cfg.UserAgent != "NetView-Gateway/1.0" {
		t.Fatalf("user agent default wrong: %q", cfg.UserAgent)
	}
	if len(cfg.AdminAPIKeys) != 0 {
		t.Fatalf("admin keys must default empty: %v", cfg.AdminAPIKeys)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GATEWAY_API_KEY", "k")
	t.Setenv("GATEWAY_ID", "gw-42")
	t.Setenv("GATEWAY_TYPE", "Core")
	t.Setenv("BACKEND_URL", "https://backend.example.com")
	t.Setenv("SYNC_INTERVAL", "5")
	t.Setenv("VERIFY_SSL", "false")
	t.Setenv("ADMIN_API_KEYS", "a, b ,,c")
	t.Setenv("MAX_LOCAL_RESULTS", "250")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}

	if cfg.GatewayID != "gw-42" || cfg.GatewayType != "Core" {
		t.Fatalf("identity overrides ignored: %+v", cfg)
	}
	if cfg.GatewayName != "Core Gateway" {
		t.Fatalf("name must follow type: %q", cfg.GatewayName)
	}
	if cfg.SyncInterval != 5*time.Second {
		t.Fatalf("interval override ignored: %v", cfg.SyncInterval)
	}
	if cfg.VerifySSL {
		t.Fatalf("VERIFY_SSL=false ignored")
	}
	if len(cfg.AdminAPIKeys) != 3 || cfg.AdminAPIKeys[1] != "b" {
		t.Fatalf("admin key list not parsed: %v", cfg.AdminAPIKeys)
	}
	if cfg.MaxLocalResults != 250 {
		t.Fatalf("row cap override ignored: %d", cfg.MaxLocalResults)
	}
}

func TestFromEnv_BadNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GATEWAY_API_KEY", "k")
	t.Setenv("SYNC_INTERVAL", "not-a-number")
	t.Setenv("MAX_LOCAL_RESULTS", "-5")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.SyncInterval != 10*time.Second {
		t.Fatalf("garbage interval must fall back to default: %v", cfg.SyncInterval)
	}
	if cfg.MaxLocalResults != 1000 {
		t.Fatalf("negative cap must fall back to default: %d", cfg.MaxLocalResults)
	}
}
