package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/pkg/cache"
	"SignalForge/pkg/config"
)

type countingRunner struct {
	calls int
	err   error
	// hook runs inside Run, while the run lock is held
	hook func()
}

func (r *countingRunner) Run(context.Context) (*models.RunResult, error) {
	r.calls++
	if r.hook != nil {
		r.hook()
	}
	if r.err != nil {
		return nil, r.err
	}
	now := time.Now()
	return &models.RunResult{RunID: "r", Mode: models.ModeFull, StartedAt: now, FinishedAt: now}, nil
}

type recordingPruner struct {
	cutoffs []time.Time
	err     error
}

func (p *recordingPruner) PruneHistory(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoffs = append(p.cutoffs, cutoff)
	return 3, p.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestRunOnceAbortIsReported(t *testing.T) {
	r := &countingRunner{err: errors.New("history store health: down")}
	p := &recordingPruner{}
	app := New(testConfig(t), r, nil, nil, p, nil, nil, nil)
	err := app.RunOnce(context.Background())
	if !errors.Is(err, ErrRunAborted) {
		t.Fatalf("expected abort, got %v", err)
	}
	if len(p.cutoffs) != 0 {
		t.Fatalf("aborted run must not prune")
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	lock := cache.NewMemoryCache()
	defer lock.Close()
	ctx := context.Background()
	if ok, _ := lock.TryLock(ctx, runLockKey, "other-instance", time.Minute); !ok {
		t.Fatalf("could not pre-acquire lock")
	}

	r := &countingRunner{}
	app := New(testConfig(t), r, nil, lock, nil, nil, nil, nil)
	if err := app.RunOnce(ctx); err != nil {
		t.Fatalf("skipped run must not fail: %v", err)
	}
	if r.calls != 0 {
		t.Fatalf("runner called while lock held")
	}

	if released, _ := lock.Unlock(ctx, runLockKey, "other-instance"); !released {
		t.Fatalf("owner could not release its lock")
	}
	if err := app.RunOnce(ctx); err != nil || r.calls != 1 {
		t.Fatalf("expected one run after unlock, got calls=%d err=%v", r.calls, err)
	}
	if ok, _ := lock.TryLock(ctx, runLockKey, "next", time.Minute); !ok {
		t.Fatalf("run lock not released after the run")
	}
}

func TestRunDoesNotReleaseLockTakenOverByAnotherInstance(t *testing.T) {
	clk := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	lock := cache.NewMemoryCache(cache.WithMemoryClock(func() time.Time { return clk }), cache.WithMemoryCleanup(time.Hour))
	defer lock.Close()
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.Scheduler.LockTTL = time.Minute
	r := &countingRunner{hook: func() {
		// the run outlives its TTL and a second instance takes the lock
		clk = clk.Add(2 * time.Minute)
		if ok, _ := lock.TryLock(ctx, runLockKey, "other-instance", time.Minute); !ok {
			t.Errorf("expired lock not reclaimable")
		}
	}}
	app := New(cfg, r, nil, lock, nil, nil, nil, nil)
	if err := app.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if ok, _ := lock.TryLock(ctx, runLockKey, "third", time.Minute); ok {
		t.Fatalf("run released a lock it no longer owned")
	}
	if released, _ := lock.Unlock(ctx, runLockKey, "other-instance"); !released {
		t.Fatalf("current owner lost its lock")
	}
}

func TestRunPrunesHistoryPastRetention(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Retention = 30 * 24 * time.Hour
	p := &recordingPruner{}
	app := New(cfg, &countingRunner{}, nil, nil, p, nil, nil, nil)

	before := time.Now()
	if err := app.RunOnce(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(p.cutoffs) != 1 {
		t.Fatalf("expected one prune, got %d", len(p.cutoffs))
	}
	want := before.Add(-cfg.History.Retention)
	if d := p.cutoffs[0].Sub(want); d < 0 || d > time.Minute {
		t.Fatalf("cutoff %v not %v before now", p.cutoffs[0], cfg.History.Retention)
	}

	p.err = errors.New("disk full")
	if err := app.RunOnce(context.Background()); err != nil {
		t.Fatalf("prune failure must not fail the run: %v", err)
	}

	cfg.History.Retention = 0
	if err := app.RunOnce(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(p.cutoffs) != 2 {
		t.Fatalf("zero retention must disable pruning, got %d prunes", len(p.cutoffs))
	}
}
