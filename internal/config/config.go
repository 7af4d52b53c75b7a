package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	// Gateway identity, reported in every heartbeat.
	GatewayID       string
	GatewayType     string // "Core" or "Custom"
	GatewayName     string
	GatewayLocation string

	// Backend (control plane).
	BackendURL string
	APIKey     string // static per-gateway key, required

	// Admin API surface.
	Addr         string
	AdminAPIKeys []string // empty means POST endpoints are open (dev)
	AdminRPM     int
	AdminBurst   int

	// Loop timing.
	SyncInterval       time.Duration
	ProbeCheckInterval time.Duration

	// Probe execution.
	DefaultTimeout      time.Duration
	MaxConcurrentProbes int // reserved for a future parallel executor
	UserAgent           string
	VerifySSL           bool

	// Local result storage. Empty StoragePath selects the in-memory store.
	StoragePath     string
	MaxLocalResults int

	// Logging.
	LogDir string
	Debug  bool

	// Optional local down alerts.
	SlackWebhook string
}

// FromEnv builds a Config from the environment, applying defaults. The only
// hard requirement is GATEWAY_API_KEY.
func FromEnv() (Config, error) {
	apiKey := strings.TrimSpace(os.Getenv("GATEWAY_API_KEY"))
	if apiKey == "" {
		return Config{}, errors.New("GATEWAY_API_KEY environment variable is required")
	}

	gwType := envStr("GATEWAY_TYPE", "Custom")

	cfg := Config{
		GatewayID:       envStr("GATEWAY_ID", uuid.NewString()),
		GatewayType:     gwType,
		GatewayName:     envStr("GATEWAY_NAME", gwType+" Gateway"),
		GatewayLocation: envStr("GATEWAY_LOCATION", "Unknown"),

		BackendURL: envStr("BACKEND_URL", "http://localhost:5000"),
		APIKey:     apiKey,

		Addr:         envStr("GATEWAY_ADDR", "0.0.0.0:8001"),
		AdminAPIKeys: envList("ADMIN_API_KEYS"),
		AdminRPM:     envInt("ADMIN_RPM", 120),
		AdminBurst:   envInt("ADMIN_BURST", 60),

		SyncInterval:       envSeconds("SYNC_INTERVAL", 10),
		ProbeCheckInterval: envSeconds("PROBE_CHECK_INTERVAL", 60),

		DefaultTimeout:      envSeconds("DEFAULT_TIMEOUT", 30),
		MaxConcurrentProbes: envInt("MAX_CONCURRENT_PROBES", 10),
		UserAgent:           envStr("USER_AGENT", "NetView-Gateway/1.0"),
		VerifySSL:           envBool("VERIFY_SSL", true),

		StoragePath:     envStr("LOCAL_STORAGE_PATH", "./data"),
		MaxLocalResults: envInt("MAX_LOCAL_RESULTS", 1000),

		LogDir: envStr("LOG_DIR", "logs"),
		Debug:  envBool("GATEWAY_DEBUG", false),

		SlackWebhook: strings.TrimSpace(os.Getenv("SLACK_WEBHOOK")),
	}
	return cfg, nil
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envSeconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "true" || v == "1" || v == "yes"
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
