package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/netview/gateway/internal/domain"
	"github.com/netview/gateway/internal/probe"
	"github.com/netview/gateway/internal/repo"
	"github.com/netview/gateway/internal/syncer"
)

// ErrorBackoff is the pause after a failed cycle, replacing the regular
// interval for one round.
const ErrorBackoff = 30 * time.Second

// Loop runs a cycle function forever: immediate first pass, then one pass per
// Interval, falling back to Backoff after a failed pass. A failing cycle never
// stops the loop; only context cancellation does.
type Loop struct {
	Name     string
	Interval time.Duration
	Backoff  time.Duration
	Logger   *zap.Logger
}

func (l *Loop) Run(ctx context.Context, cycle func(context.Context) error) {
	if l.Interval <= 0 {
		l.Logger.Info("loop_disabled", zap.String("loop", l.Name))
		return
	}
	if l.Backoff <= 0 {
		l.Backoff = ErrorBackoff
	}

	t := time.NewTimer(0) // immediate first pass
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Logger.Info("loop_stopped", zap.String("loop", l.Name))
			return
		case <-t.C:
		}

		delay := l.Interval
		if err := cycle(ctx); err != nil {
			l.Logger.Error("loop_cycle_error",
				zap.String("loop", l.Name),
				zap.Duration("backoff", l.Backoff),
				zap.Error(err),
			)
			delay = l.Backoff
		}
		t.Reset(delay)
	}
}

// ProbeSource provides the current assigned probe list.
type ProbeSource interface {
	FetchProbes(ctx context.Context) ([]domain.ProbeSpec, error)
}

// ProbeRunner is one probe-loop cycle: fetch the assignment, execute each
// active probe sequentially with a pacing delay, persist every result.
type ProbeRunner struct {
	Logger  *zap.Logger
	Source  ProbeSource
	Engine  *probe.Engine
	Results repo.ResultStore
	Alerter *Alerter // optional
	Pace    time.Duration
}

func (p *ProbeRunner) RunOnce(ctx context.Context) error {
	specs, err := p.Source.FetchProbes(ctx)
	if err != nil {
		return err
	}

	for i, spec := range specs {
		if !spec.Active() {
			continue
		}
		res := p.Engine.Execute(ctx, spec)
		if err := p.Results.Append(ctx, &res); err != nil {
			p.Logger.Warn("result_append_error",
				zap.String("probe_id", spec.ID),
				zap.Error(err),
			)
		}
		p.Alerter.Observe(ctx, res)

		if p.Pace > 0 && i < len(specs)-1 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.Pace):
			}
		}
	}
	return nil
}

// SyncRunner is one sync-loop cycle: heartbeat first, then reconcile. Sync
// failures are absorbed by the reconciler, so the cycle itself only fails on
// cancellation-level problems.
type SyncRunner struct {
	Reconciler *syncer.Reconciler
}

func (s *SyncRunner) RunOnce(ctx context.Context) error {
	s.Reconciler.SendHeartbeat(ctx)
	s.Reconciler.SyncResults(ctx)
	return nil
}
