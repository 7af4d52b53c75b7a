package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/netview/gateway/internal/domain"
)

// uptimeBodyLimit caps the captured response body for Uptime probes.
const uptimeBodyLimit = 500

// UptimeChecker handles basic reachability probes, sub-dispatched on the
// spec's protocol hint: HTTP/HTTPS, TCP, SMTP and DNS.
type UptimeChecker struct {
	transport *http.Transport
	userAgent string
}

func NewUptimeChecker(verifySSL bool, userAgent string) *UptimeChecker {
	return &UptimeChecker{
		transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !verifySSL},
		},
		userAgent: userAgent,
	}
}

func (c *UptimeChecker) Check(ctx context.Context, spec domain.ProbeSpec, timeout time.Duration) Outcome {
	switch spec.Protocol {
	case domain.ProtoHTTP, domain.ProtoHTTPS, "":
		return c.checkHTTP(ctx, spec, timeout)
	case domain.ProtoTCP:
		return checkTCP(spec.URL, timeout)
	case domain.ProtoSMTP:
		return checkSMTP(spec.URL, timeout)
	case domain.ProtoDNS:
		return checkDNS(ctx, spec.URL, timeout)
	default:
		return Outcome{
			Status:       domain.StatusDown,
			ErrorMessage: fmt.Sprintf("Unsupported protocol: %s", spec.Protocol),
		}
	}
}

func (c *UptimeChecker) checkHTTP(ctx context.Context, spec domain.ProbeSpec, timeout time.Duration) Outcome {
	expected := spec.ExpectedStatusCode
	if expected == 0 {
		expected = http.StatusOK
	}

	client := &http.Client{Timeout: timeout, Transport: c.transport}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.URL, nil)
	if err != nil {
		return Outcome{Status: domain.StatusDown, ErrorMessage: err.Error()}
	}
	req.Header.Set("User-Agent", c.userAgent)

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

	body, _ := io.ReadAll(io.LimitReader(resp.Body, uptimeBodyLimit+1))

	out := Outcome{
		StatusCode:   intPtr(resp.StatusCode),
		ResponseBody: truncate(body, uptimeBodyLimit),
	}
	if resp.StatusCode == expected {
		out.Status = domain.StatusUp
	} else {
		out.Status = domain.StatusDown
		out.ErrorMessage = fmt.Sprintf("Expected status %d, got %d", expected, resp.StatusCode)
	}
	return out
}

func checkTCP(target string, timeout time.Duration) Outcome {
	host, port := hostPort(target, "80")
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), timeout)
	if err != nil {
		return Outcome{
			Status:       domain.StatusDown,
			ErrorMessage: fmt.Sprintf("TCP connection failed to %s:%s", host, port),
		}
	}
	conn.Close()
	return Outcome{Status: domain.StatusUp, StatusCode: intPtr(200)}
}

func checkSMTP(target string, timeout time.Duration) Outcome {
	host, port := hostPort(target, "25")
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), timeout)
	if err != nil {
		return Outcome{
			Status:       domain.StatusDown,
			ErrorMessage: fmt.Sprintf("SMTP check failed: %v", err),
		}
	}
	defer conn.Close()

	// Bound the whole greeting + QUIT handshake by the probe timeout.
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if err := smtpHandshake(conn); err != nil {
		return Outcome{
			Status:       domain.StatusDown,
			ErrorMessage: fmt.Sprintf("SMTP check failed: %v", err),
		}
	}
	// 220 is the server greeting; reported as a synthetic status code.
	return Outcome{Status: domain.StatusUp, StatusCode: intPtr(220)}
}

// smtpHandshake reads the server greeting and issues a clean QUIT.
func smtpHandshake(conn net.Conn) error {
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	if err != nil {
		return fmt.Errorf("read greeting: %w", err)
	}
	greeting := string(buf[:n])
	if !strings.HasPrefix(greeting, "220") {
		return fmt.Errorf("unexpected greeting: %q", strings.TrimSpace(greeting))
	}
	if _, err := conn.Write([]byte("QUIT\r\n")); err != nil {
		return fmt.Errorf("send quit: %w", err)
	}
	return nil
}

func checkDNS(ctx context.Context, target string, timeout time.Duration) Outcome {
	host := hostOnly(target)

	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r := &net.Resolver{}
	ips, err := r.LookupIP(lctx, "ip4", host)
	if err != nil {
		return Outcome{
			Status:       domain.StatusDown,
			ErrorMessage: fmt.Sprintf("DNS check failed: %v", err),
		}
	}
	if len(ips) == 0 {
		return Outcome{
			Status:       domain.StatusDown,
			ErrorMessage: fmt.Sprintf("DNS resolution failed for %s", host),
		}
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, ip.String())
	}
	return Outcome{
		Status:       domain.StatusUp,
		StatusCode:   intPtr(200),
		ResponseBody: "Resolved to: " + strings.Join(addrs, ", "),
	}
}

// hostPort extracts host and port from a URL or bare host[:port] target.
func hostPort(target, defaultPort string) (string, string) {
	if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
		port := u.Port()
		if port == "" {
			port = defaultPort
		}
		return u.Hostname(), port
	}
	if host, port, err := net.SplitHostPort(target); err == nil {
		return host, port
	}
	return target, defaultPort
}

// hostOnly strips any scheme, port and path from the target.
func hostOnly(target string) string {
	if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	if host, _, err := net.SplitHostPort(target); err == nil {
		return host
	}
	return target
}
