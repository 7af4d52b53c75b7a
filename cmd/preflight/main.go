// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	apiKey := strings.TrimSpace(os.Getenv("GATEWAY_API_KEY"))
	backendURL := strings.TrimSpace(os.Getenv("BACKEND_URL"))
	gatewayID := strings.TrimSpace(os.Getenv("GATEWAY_ID"))
	storage := strings.TrimSpace(os.Getenv("LOCAL_STORAGE_PATH"))
	adminKeys := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))

	if apiKey == "" {
		fail("GATEWAY_API_KEY is empty (the gateway refuses to start without it).")
	}
	ok("GATEWAY_API_KEY present")

	if backendURL == "" {
		warn("BACKEND_URL empty — default http://localhost:5000 will be used.")
	} else if !strings.HasPrefix(backendURL, "http://") && !strings.HasPrefix(backendURL, "https://") {
		fail("BACKEND_URL must start with http:// or https://")
	} else {
		ok("BACKEND_URL=" + backendURL)
	}

	if gatewayID == "" {
		warn("GATEWAY_ID empty — a random id will be generated each start; results will not be attributable across restarts.")
	} else {
		ok("GATEWAY_ID=" + gatewayID)
	}

	if storage == "" {
		warn("LOCAL_STORAGE_PATH empty — results will be held in memory only and lost on restart.")
	} else {
		ok("LOCAL_STORAGE_PATH=" + storage)
	}

	if adminKeys == "" {
		warn("ADMIN_API_KEYS empty — manual execute/sync endpoints will be open.")
	} else if strings.Contains(adminKeys, " ") {
		warn("ADMIN_API_KEYS contains spaces; use comma-separated with no spaces, e.g. key1,key2")
	} else {
		ok("ADMIN_API_KEYS present")
	}

	ok("preflight passed")
}
