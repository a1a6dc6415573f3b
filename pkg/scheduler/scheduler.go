package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	applogger "SignalForge/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work. The context is cancelled on Stop.
type Job func(ctx context.Context)

// Scheduler runs one job on a cron spec in a fixed timezone. A tick that
// fires while the previous run is still going is skipped, never queued.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	l        *applogger.Logger

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(timezone string, l *applogger.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if l == nil {
		l = applogger.Nop()
	}
	cl := cronLogger{l: l}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		location: loc,
		l:        l,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Schedule registers job under a standard five-field cron spec, replacing any previous job.
func (s *Scheduler) Schedule(spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	id, err := s.cron.AddFunc(spec, func() { job(s.ctx) })
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", spec, err)
	}
	s.entryID = id
	return nil
}

// Next returns the next activation time, or zero if nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.cron.Start()
		s.started = true
	}
}

// Stop halts scheduling, cancels the running job's context and waits for it.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	done := s.cron.Stop()
	s.mu.Unlock()

	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts the app logger to cron.Logger.
type cronLogger struct {
	l *applogger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron "+msg, append(kvFields(keysAndValues), applogger.Error(err))...)
}

func kvFields(kv []interface{}) []applogger.Field {
	out := make([]applogger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, applogger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
