package probe

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/netview/gateway/internal/domain"
)

// apiBodyLimit caps the captured response body for API probes. Larger than the
// uptime limit because API payloads are the thing being monitored.
const apiBodyLimit = 1000

// APIChecker executes scripted HTTP request probes with caller-supplied
// method, headers and body.
type APIChecker struct {
	transport *http.Transport
	userAgent string
}

func NewAPIChecker(verifySSL bool, userAgent string) *APIChecker {
	return &APIChecker{
		transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !verifySSL},
		},
		userAgent: userAgent,
	}
}

func (c *APIChecker) Check(ctx context.Context, spec domain.ProbeSpec, timeout time.Duration) Outcome {
	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = http.MethodGet
	}
	expected := spec.ExpectedStatusCode
	if expected == 0 {
		expected = http.StatusOK
	}

	var body io.Reader
	sendJSON := false
	if spec.Body != "" && hasRequestBody(method) {
		body = strings.NewReader(spec.Body)
		sendJSON = json.Valid([]byte(spec.Body))
	}

	req, err := http.NewRequestWithContext(ctx, method, spec.URL, body)
	if err != nil {
		return Outcome{Status: domain.StatusDown, ErrorMessage: err.Error()}
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}
	if sendJSON && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: timeout, Transport: c.transport}
	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Outcome{
				Status:       domain.StatusDown,
				ErrorMessage: fmt.Sprintf("Request timed out after %gs", timeout.Seconds()),
			}
		}
		return Outcome{Status: domain.StatusDown, ErrorMessage: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, apiBodyLimit+1))

	out := Outcome{
		StatusCode:   intPtr(resp.StatusCode),
		ResponseBody: truncate(raw, apiBodyLimit),
	}
	if resp.StatusCode == expected {
		out.Status = domain.StatusUp
	} else {
		out.Status = domain.StatusDown
		out.ErrorMessage = fmt.Sprintf("Expected status %d, got %d", expected, resp.StatusCode)
	}
	return out
}

func hasRequestBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
