package probe

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/netview/gateway/internal/domain"
)

// certExpiryWarnDays flags certificates that expire within this many days.
const certExpiryWarnDays = 30

// securityHeaders is the fixed set a well-configured site is expected to send.
var securityHeaders = []string{
	"Strict-Transport-Security",
	"X-Content-Type-Options",
	"X-Frame-Options",
	"X-XSS-Protection",
	"Content-Security-Policy",
}

// serverProductTokens are banner fragments that disclose server software and
// version, e.g. "nginx/1.18.0".
var serverProductTokens = []string{"apache/", "nginx/", "iis/"}

// SecurityChecker aggregates independent posture findings (certificate expiry,
// missing security headers, banner disclosure) into one issue list. Findings
// are non-fatal: any issue yields Warning, a clean pass yields Up.
type SecurityChecker struct {
	transport *http.Transport
	verifySSL bool
	userAgent string
}

func NewSecurityChecker(verifySSL bool, userAgent string) *SecurityChecker {
	return &SecurityChecker{
		transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !verifySSL},
		},
		verifySSL: verifySSL,
		userAgent: userAgent,
	}
}

func (c *SecurityChecker) Check(ctx context.Context, spec domain.ProbeSpec, timeout time.Duration) Outcome {
	issues := make([]string, 0, 4)

	if u, err := url.Parse(spec.URL); err == nil && u.Scheme == "https" {
		issues = append(issues, c.certIssues(u.Hostname(), u.Port(), timeout)...)
	}
	issues = append(issues, c.headerIssues(ctx, spec.URL, timeout)...)

	out := Outcome{ResponseBody: issuesBody(issues)}
	if len(issues) == 0 {
		out.Status = domain.StatusUp
		out.StatusCode = intPtr(http.StatusOK)
	} else {
		out.Status = domain.StatusWarning
		out.StatusCode = intPtr(http.StatusPartialContent)
		out.ErrorMessage = strings.Join(issues, "; ")
	}
	return out
}

func (c *SecurityChecker) certIssues(host, port string, timeout time.Duration) []string {
	if port == "" {
		port = "443"
	}
	conn, err := tls.DialWithDialer(
		&net.Dialer{Timeout: timeout},
		"tcp",
		net.JoinHostPort(host, port),
		&tls.Config{ServerName: host, InsecureSkipVerify: !c.verifySSL},
	)
	if err != nil {
		return []string{fmt.Sprintf("SSL certificate error: %v", err)}
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return []string{"SSL certificate error: no peer certificate presented"}
	}

	days := int(time.Until(certs[0].NotAfter).Hours() / 24)
	if days < certExpiryWarnDays {
		return []string{fmt.Sprintf("SSL certificate expires in %d days", days)}
	}
	return nil
}

func (c *SecurityChecker) headerIssues(ctx context.Context, target string, timeout time.Duration) []string {
	client := &http.Client{Timeout: timeout, Transport: c.transport}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return []string{fmt.Sprintf("HTTP check failed: %v", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return []string{fmt.Sprintf("HTTP check failed: %v", err)}
	}
	defer resp.Body.Close()

	var issues []string

	var missing []string
	for _, h := range securityHeaders {
		if resp.Header.Get(h) == "" {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, "Missing security headers: "+strings.Join(missing, ", "))
	}

	if server := resp.Header.Get("Server"); server != "" {
		lower := strings.ToLower(server)
		for _, tok := range serverProductTokens {
			if strings.Contains(lower, tok) {
				issues = append(issues, "Server version disclosed: "+server)
				break
			}
		}
	}
	return issues
}

func issuesBody(issues []string) string {
	b, _ := json.Marshal(struct {
		SecurityIssues []string `json:"security_issues"`
	}{SecurityIssues: issues})
	return string(b)
}
