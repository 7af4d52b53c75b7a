package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/netview/gateway/internal/domain"
	"github.com/netview/gateway/internal/notify"
)

// Alerter watches the probe stream for status transitions and notifies on
// Down and (optionally) recovery. Local convenience only: it never touches
// result durability or sync.
type Alerter struct {
	Logger          *zap.Logger
	Notifier        notify.Notifier
	AlertOnRecovery bool
	Cooldown        time.Duration

	mu       sync.Mutex
	state    map[string]domain.Status
	lastSent map[string]time.Time
}

func NewAlerter(log *zap.Logger, n notify.Notifier, alertOnRecovery bool, cooldown time.Duration) *Alerter {
	return &Alerter{
		Logger:          log,
		Notifier:        n,
		AlertOnRecovery: alertOnRecovery,
		Cooldown:        cooldown,
		state:           make(map[string]domain.Status),
		lastSent:        make(map[string]time.Time),
	}
}

// Observe records the latest result for a probe and fires an alert when its
// status crossed between Down and not-Down. A nil Alerter is a no-op so the
// probe loop can call it unconditionally.
func (a *Alerter) Observe(ctx context.Context, res domain.ProbeResult) {
	if a == nil || a.Notifier == nil {
		return
	}

	a.mu.Lock()
	prev, seen := a.state[res.ProbeID]
	a.state[res.ProbeID] = res.Status

	wentDown := res.Status == domain.StatusDown && (!seen || prev != domain.StatusDown)
	recovered := seen && prev == domain.StatusDown && res.Status != domain.StatusDown

	// Cooldown suppresses repeated Down alerts; recoveries always go out.
	now := time.Now()
	if wentDown {
		if last, ok := a.lastSent[res.ProbeID]; ok && now.Sub(last) < a.Cooldown {
			wentDown = false
		} else {
			a.lastSent[res.ProbeID] = now
		}
	}
	a.mu.Unlock()

	if !wentDown && !(recovered && a.AlertOnRecovery) {
		return
	}

	title := "🔴 Probe DOWN"
	if recovered {
		title = "🟢 Probe RECOVERED"
	}

	statusTxt := "n/a"
	if res.StatusCode != nil {
		statusTxt = fmt.Sprintf("%d", *res.StatusCode)
	}
	text := fmt.Sprintf(
		"Probe: %s\nStatus code: %s\nResponse time: %d ms\nError: %s\nChecked: %s",
		res.ProbeID, statusTxt, res.ResponseTimeMS, res.ErrorMessage, res.CheckedAt,
	)

	if err := a.Notifier.Send(ctx, title, text); err != nil {
		a.Logger.Warn("alert_send_failed",
			zap.String("probe_id", res.ProbeID),
			zap.Error(err),
		)
	}
}
