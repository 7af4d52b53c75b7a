package probe

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/netview/gateway/internal/domain"
)

// Counters is a read-only snapshot of the engine's execution totals. Failed
// counts every non-Up terminal status.
type Counters struct {
	Total      uint64 `json:"total_executions"`
	Successful uint64 `json:"successful_executions"`
	Failed     uint64 `json:"failed_executions"`
}

// Engine dispatches probes to their checker family and turns every outcome,
// including internal failures, into exactly one well-formed ProbeResult.
type Engine struct {
	log            *zap.Logger
	gatewayID      string
	defaultTimeout time.Duration
	checkers       map[domain.ProbeType]Checker

	total      atomic.Uint64
	successful atomic.Uint64
	failed     atomic.Uint64
}

func NewEngine(
	log *zap.Logger,
	gatewayID string,
	defaultTimeout time.Duration,
	verifySSL bool,
	userAgent string,
	browser BrowserDriver,
) *Engine {
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	return &Engine{
		log:            log,
		gatewayID:      gatewayID,
		defaultTimeout: defaultTimeout,
		checkers: map[domain.ProbeType]Checker{
			domain.ProbeUptime:   NewUptimeChecker(verifySSL, userAgent),
			domain.ProbeAPI:      NewAPIChecker(verifySSL, userAgent),
			domain.ProbeSecurity: NewSecurityChecker(verifySSL, userAgent),
			domain.ProbeBrowser:  NewBrowserChecker(browser),
		},
	}
}

// Execute runs one probe. It never returns an error: every failure mode maps
// to a Down result with a descriptive message. Response time covers the whole
// call, failure paths included.
func (e *Engine) Execute(ctx context.Context, spec domain.ProbeSpec) domain.ProbeResult {
	e.total.Add(1)
	start := time.Now()

	timeout := e.defaultTimeout
	if spec.ExpectedResponseTime > 0 {
		timeout = time.Duration(spec.ExpectedResponseTime) * time.Millisecond
	}

	var out Outcome
	if chk, ok := e.checkers[spec.Type]; ok {
		out = e.runChecker(ctx, chk, spec, timeout)
	} else {
		out = Outcome{
			Status:       domain.StatusDown,
			ErrorMessage: fmt.Sprintf("Unsupported probe type: %s", spec.Type),
		}
	}

	res := domain.ProbeResult{
		ProbeID:        spec.ID,
		GatewayID:      e.gatewayID,
		Status:         out.Status,
		ResponseTimeMS: time.Since(start).Milliseconds(),
		StatusCode:     out.StatusCode,
		ErrorMessage:   out.ErrorMessage,
		ResponseBody:   out.ResponseBody,
		CheckedAt:      domain.CheckedAtNow(),
	}
	if res.Status == "" {
		res.Status = domain.StatusUnknown
	}

	if res.Status == domain.StatusUp {
		e.successful.Add(1)
	} else {
		e.failed.Add(1)
	}

	e.log.Info("probe_executed",
		zap.String("probe_id", spec.ID),
		zap.String("type", string(spec.Type)),
		zap.String("status", string(res.Status)),
		zap.Int64("response_time_ms", res.ResponseTimeMS),
	)
	return res
}

// runChecker contains the only recover in the engine: a panicking checker
// must still yield a Down result rather than kill the probe loop.
func (e *Engine) runChecker(ctx context.Context, chk Checker, spec domain.ProbeSpec, timeout time.Duration) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			e.log.Error("probe_panic",
				zap.String("probe_id", spec.ID),
				zap.Any("panic", p),
			)
			out = Outcome{
				Status:       domain.StatusDown,
				ErrorMessage: fmt.Sprintf("probe execution failed: %v", p),
			}
		}
	}()
	return chk.Check(ctx, spec, timeout)
}

// Counters returns a snapshot of the execution totals.
func (e *Engine) Counters() Counters {
	return Counters{
		Total:      e.total.Load(),
		Successful: e.successful.Load(),
		Failed:     e.failed.Load(),
	}
}
