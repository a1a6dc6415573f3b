package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/handler/api"
	"SignalForge/internal/usecase"
	"SignalForge/pkg/config"
	xhttp "SignalForge/pkg/http"
	applogger "SignalForge/pkg/logger"
	"SignalForge/pkg/metrics"
	"SignalForge/pkg/scheduler"
	"SignalForge/pkg/tracing"

	"github.com/google/uuid"
)

const runLockKey = "lock:generator:run"

// ErrRunAborted is returned by RunOnce when the generator aborted.
var ErrRunAborted = errors.New("generation run aborted")

// Runner is one generation pass.
type Runner interface {
	Run(ctx context.Context) (*models.RunResult, error)
}

var _ Runner = (*usecase.Generator)(nil)

// RunLock is a TTL lock shared by every instance of the generator. Each
// holder owns the lock through its token.
type RunLock interface {
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string) (bool, error)
}

// HistoryPruner drops signal history that is older than cutoff.
type HistoryPruner interface {
	PruneHistory(ctx context.Context, cutoff time.Time) (int64, error)
}

// App encapsulates the process lifecycle: one-shot or cron-driven runs,
// plus the optional ops HTTP server.
type App struct {
	cfg     *config.Config
	runner  Runner
	ops     *api.OpsEchoHandler
	lock    RunLock
	pruner  HistoryPruner
	metrics *metrics.Recorder
	tracer  *tracing.Provider
	l       *applogger.Logger

	httpServer *xhttp.Server
}

// New creates the App. lock may be nil, in which case runs are only
// serialized within this process. pruner may be nil when the history
// backend expires entries on its own.
func New(
	cfg *config.Config,
	runner Runner,
	ops *api.OpsEchoHandler,
	lock RunLock,
	pruner HistoryPruner,
	rec *metrics.Recorder,
	tracer *tracing.Provider,
	l *applogger.Logger,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:     cfg,
		runner:  runner,
		ops:     ops,
		lock:    lock,
		pruner:  pruner,
		metrics: rec,
		tracer:  tracer,
		l:       l,
	}
}

// RunOnce executes a single generation pass, pushes metrics when a
// Pushgateway is configured and flushes traces.
func (a *App) RunOnce(ctx context.Context) error {
	_, err := a.runGuarded(ctx)

	if a.metrics != nil && a.cfg.Metrics.PushgatewayURL != "" {
		if perr := a.metrics.Push(a.cfg.Metrics.PushgatewayURL, a.cfg.Metrics.Job); perr != nil {
			a.l.Warn("metrics push failed", applogger.Error(perr))
		}
	}
	a.shutdownTracer()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrRunAborted, err)
	}
	return nil
}

// Run schedules generation on the configured cron spec, starts the ops
// server and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	sch, err := scheduler.New(a.cfg.Scheduler.Timezone, a.l.Component("scheduler"))
	if err != nil {
		return err
	}
	if err := sch.Schedule(a.cfg.Scheduler.Cron, func(ctx context.Context) {
		if _, err := a.runGuarded(ctx); err != nil {
			a.l.Error("scheduled run aborted", applogger.Error(err))
		}
	}); err != nil {
		return err
	}

	if a.cfg.Server.Enabled {
		opts := []xhttp.ServerOption{
			xhttp.WithPort(a.cfg.Server.Port),
			xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		}
		if !a.cfg.Metrics.Enabled {
			opts = append(opts, xhttp.WithMetricsPath(""))
		} else {
			opts = append(opts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
		}
		var h xhttp.Handler
		if a.ops != nil {
			h = a.ops
		}
		a.httpServer = xhttp.NewServer(h, a.l.Component("http"), opts...)
		if err := a.httpServer.Start(); err != nil {
			a.l.Error("http server start error", applogger.Error(err))
			return err
		}
	}

	sch.Start()
	a.l.Info("scheduler started",
		applogger.String("cron", a.cfg.Scheduler.Cron),
		applogger.String("timezone", a.cfg.Scheduler.Timezone),
		applogger.Any("next_run", sch.Next()),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(sch)
}

// runGuarded runs the generator under the cross-instance lock. A run that
// finds the lock held is skipped, not failed.
func (a *App) runGuarded(ctx context.Context) (*models.RunResult, error) {
	if a.lock != nil {
		token := uuid.NewString()
		ok, err := a.lock.TryLock(ctx, runLockKey, token, a.cfg.Scheduler.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			a.l.Info("run skipped: another instance holds the run lock")
			return nil, nil
		}
		defer func() {
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			released, err := a.lock.Unlock(unlockCtx, runLockKey, token)
			switch {
			case err != nil:
				a.l.Warn("release run lock failed", applogger.Error(err))
			case !released:
				a.l.Warn("run lock expired before the run finished",
					applogger.Duration("lock_ttl", a.cfg.Scheduler.LockTTL))
			}
		}()
	}

	res, err := a.runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	a.l.Info("run complete",
		applogger.String("run_id", res.RunID),
		applogger.String("mode", string(res.Mode)),
		applogger.Int("signals", len(res.Signals)),
		applogger.Int("suppressed_duplicate", res.Stats.SuppressedDuplicate),
		applogger.Bool("placeholder", res.Placeholder),
		applogger.Duration("took", res.FinishedAt.Sub(res.StartedAt)),
	)
	a.pruneHistory(ctx)
	return res, nil
}

// pruneHistory trims history rows past the retention period. Failures
// only cost disk space, so they are logged and the run still counts.
func (a *App) pruneHistory(ctx context.Context) {
	retention := a.cfg.History.Retention
	if a.pruner == nil || retention <= 0 {
		return
	}
	n, err := a.pruner.PruneHistory(ctx, time.Now().Add(-retention))
	if err != nil {
		a.l.Warn("history prune failed", applogger.Error(err))
		return
	}
	if n > 0 {
		a.l.Info("history pruned", applogger.Int64("rows", n), applogger.Duration("retention", retention))
	}
}

func (a *App) shutdown(sch *scheduler.Scheduler) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sch.Stop(ctx); err != nil {
		a.l.Warn("scheduler stop error", applogger.Error(err))
	}
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}
	a.shutdownTracer()

	a.l.Info("shutdown complete")
	return nil
}

func (a *App) shutdownTracer() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.l.Warn("tracer shutdown error", applogger.Error(err))
	}
}
