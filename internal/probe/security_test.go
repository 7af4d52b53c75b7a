package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/netview/gateway/internal/domain"
)

func securitySpec(url string) domain.ProbeSpec {
	return domain.ProbeSpec{ID: "sec-1", Type: domain.ProbeSecurity, URL: url}
}

func TestSecurity_MissingHeaders(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewSecurityChecker(true, "test-agent")
	out := chk.Check(context.Background(), securitySpec(s.URL), 2*time.Second)

	if out.Status != domain.StatusWarning {
		t.Fatalf("want Warning, got %+v", out)
	}
	if out.StatusCode == nil || *out.StatusCode != 206 {
		t.Fatalf("want 206, got %v", out.StatusCode)
	}
	if !strings.Contains(out.ErrorMessage, "Missing security headers") {
		t.Fatalf("unexpected error message: %q", out.ErrorMessage)
	}
	for _, h := range securityHeaders {
		if !strings.Contains(out.ErrorMessage, h) {
			t.Fatalf("message should name %s, got %q", h, out.ErrorMessage)
		}
	}

	var body struct {
		SecurityIssues []string `json:"security_issues"`
	}
	if err := json.Unmarshal([]byte(out.ResponseBody), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if len(body.SecurityIssues) == 0 {
		t.Fatalf("want structured issue list, got %q", out.ResponseBody)
	}
}

func TestSecurity_CleanSite(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range securityHeaders {
			w.Header().Set(h, "set")
		}
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewSecurityChecker(true, "test-agent")
	out := chk.Check(context.Background(), securitySpec(s.URL), 2*time.Second)

	if out.Status != domain.StatusUp {
		t.Fatalf("want Up, got %+v", out)
	}
	if out.StatusCode == nil || *out.StatusCode != 200 {
		t.Fatalf("want 200, got %v", out.StatusCode)
	}
	if out.ErrorMessage != "" {
		t.Fatalf("Up result must have empty error message, got %q", out.ErrorMessage)
	}
	if out.ResponseBody != `{"security_issues":[]}` {
		t.Fatalf("want empty issue list, got %q", out.ResponseBody)
	}
}

func TestSecurity_ServerBannerDisclosure(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range securityHeaders {
			w.Header().Set(h, "set")
		}
		w.Header().Set("Server", "nginx/1.18.0")
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewSecurityChecker(true, "test-agent")
	out := chk.Check(context.Background(), securitySpec(s.URL), 2*time.Second)

	if out.Status != domain.StatusWarning {
		t.Fatalf("want Warning, got %+v", out)
	}
	if !strings.Contains(out.ErrorMessage, "Server version disclosed: nginx/1.18.0") {
		t.Fatalf("unexpected error message: %q", out.ErrorMessage)
	}
}

func TestSecurity_BareBannerNotFlagged(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range securityHeaders {
			w.Header().Set(h, "set")
		}
		// no version suffix, nothing disclosed
		w.Header().Set("Server", "nginx")
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewSecurityChecker(true, "test-agent")
	out := chk.Check(context.Background(), securitySpec(s.URL), 2*time.Second)

	if out.Status != domain.StatusUp {
		t.Fatalf("want Up, got %+v", out)
	}
}

func TestSecurity_SelfSignedCertFlagged(t *testing.T) {
	s := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range securityHeaders {
			w.Header().Set(h, "set")
		}
		w.WriteHeader(200)
	}))
	defer s.Close()

	// Verification on: the self-signed test certificate must be reported.
	chk := NewSecurityChecker(true, "test-agent")
	out := chk.Check(context.Background(), securitySpec(s.URL), 2*time.Second)

	if out.Status != domain.StatusWarning {
		t.Fatalf("want Warning, got %+v", out)
	}
	if !strings.Contains(out.ErrorMessage, "SSL certificate error") {
		t.Fatalf("unexpected error message: %q", out.ErrorMessage)
	}
}
