package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/netview/gateway/internal/domain"
)

// BrowserReport is what a browser automation backend observed after loading a
// page and waiting for it to settle.
type BrowserReport struct {
	Title       string             `json:"title"`
	Issues      []string           `json:"issues"`
	Performance map[string]float64 `json:"performance,omitempty"`
}

// BrowserDriver is the pluggable browser automation capability. Deployments
// without one use Unsupported, which short-circuits Browser probes to Down
// before any network activity.
type BrowserDriver interface {
	Supported() bool
	Inspect(ctx context.Context, target string, timeout time.Duration) (BrowserReport, error)
}

// Unsupported is the fixed stub for deployments without browser automation.
type Unsupported struct{}

func (Unsupported) Supported() bool { return false }

func (Unsupported) Inspect(context.Context, string, time.Duration) (BrowserReport, error) {
	return BrowserReport{}, errors.New("browser automation not available")
}

// BrowserChecker delegates Browser probes to the configured driver.
type BrowserChecker struct {
	driver BrowserDriver
}

func NewBrowserChecker(driver BrowserDriver) *BrowserChecker {
	if driver == nil {
		driver = Unsupported{}
	}
	return &BrowserChecker{driver: driver}
}

func (c *BrowserChecker) Check(ctx context.Context, spec domain.ProbeSpec, timeout time.Duration) Outcome {
	if !c.driver.Supported() {
		return Outcome{
			Status:       domain.StatusDown,
			ErrorMessage: "Browser monitoring not supported",
		}
	}

	report, err := c.driver.Inspect(ctx, spec.URL, timeout)
	if err != nil {
		return Outcome{
			Status:       domain.StatusDown,
			ErrorMessage: fmt.Sprintf("Browser check failed: %v", err),
		}
	}

	body, _ := json.Marshal(report)
	out := Outcome{
		StatusCode:   intPtr(200),
		ResponseBody: string(body),
	}
	if len(report.Issues) == 0 {
		out.Status = domain.StatusUp
	} else {
		out.Status = domain.StatusWarning
		out.ErrorMessage = strings.Join(report.Issues, "; ")
	}
	return out
}
