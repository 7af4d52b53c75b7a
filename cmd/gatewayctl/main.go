package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Small operator CLI against a running gateway's admin API:
//
//	gatewayctl -addr http://localhost:8001 -key adminkey sync
//	gatewayctl stats
//	gatewayctl results
func main() {
	addr := flag.String("addr", envOr("GATEWAY_ADDR", "http://localhost:8001"), "gateway admin API base URL")
	key := flag.String("key", os.Getenv("ADMIN_API_KEY"), "admin API key")
	flag.Parse()

	cmd := flag.Arg(0)
	var method, path string
	switch cmd {
	case "sync":
		method, path = http.MethodPost, "/sync"
	case "stats":
		method, path = http.MethodGet, "/stats"
	case "results":
		method, path = http.MethodGet, "/results?limit=20"
	case "health":
		method, path = http.MethodGet, "/health"
	default:
		fmt.Fprintln(os.Stderr, "usage: gatewayctl [-addr URL] [-key KEY] sync|stats|results|health")
		os.Exit(2)
	}

	req, err := http.NewRequest(method, *addr+path, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad request:", err)
		os.Exit(1)
	}
	if *key != "" {
		req.Header.Set("X-API-Key", *key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error contacting gateway:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Println(string(body))
	if resp.StatusCode >= 300 {
		fmt.Fprintln(os.Stderr, "gateway returned status:", resp.Status)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
