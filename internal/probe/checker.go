package probe

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/netview/gateway/internal/domain"
)

// Outcome is the checker-level portion of a probe result. The engine owns
// identity, timing and counter bookkeeping.
type Outcome struct {
	Status       domain.Status
	StatusCode   *int
	ErrorMessage string
	ResponseBody string
}

// Checker runs one family of probes. Implementations must return within
// timeout on every path and never panic on bad input.
type Checker interface {
	Check(ctx context.Context, spec domain.ProbeSpec, timeout time.Duration) Outcome
}

func intPtr(n int) *int { return &n }

// truncate cuts b to max bytes, appending a marker when anything was dropped.
func truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
