package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	"SignalForge/pkg/cache"
)

func TestCacheHistoryStore(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	mem := cache.NewMemoryCache(cache.WithMemoryClock(clock), cache.WithMemoryCleanup(time.Hour))
	s := NewCacheHistoryStore(mem)
	s.now = clock
	defer s.Close()
	ctx := context.Background()

	if err := s.RecordSignal(ctx, record("amd", models.DirectionBullish, now, 24*time.Hour)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if active, _ := s.HasActiveSignal(ctx, "AMD", models.DirectionBullish); !active {
		t.Fatalf("expected active")
	}
	if err := s.RecordSignal(ctx, record("AMD", models.DirectionBullish, now, 24*time.Hour)); !errors.Is(err, domrepo.ErrDuplicateSignal) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := s.RecordSignal(ctx, record("AMD", models.DirectionBearish, now, 24*time.Hour)); err != nil {
		t.Fatalf("other direction: %v", err)
	}
	recs, err := s.ActiveSignals(ctx)
	if err != nil || len(recs) != 2 {
		t.Fatalf("active: %v %v", recs, err)
	}

	now = now.Add(25 * time.Hour)
	if active, _ := s.HasActiveSignal(ctx, "AMD", models.DirectionBullish); active {
		t.Fatalf("expired key still active")
	}
	if err := s.RecordSignal(ctx, record("AMD", models.DirectionBullish, now, 24*time.Hour)); err != nil {
		t.Fatalf("re-record after expiry: %v", err)
	}
}

func TestCacheHistoryRejectsExpiredRecord(t *testing.T) {
	now := time.Now()
	s := NewCacheHistoryStore(cache.NewMemoryCache())
	err := s.RecordSignal(context.Background(), record("AMD", models.DirectionBullish, now.Add(-48*time.Hour), 24*time.Hour))
	if !errors.Is(err, domrepo.ErrStoreUnavailable) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestAuditRows(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := &models.RunResult{RunID: "r1", Mode: models.ModeTechnicalOnly}
	rows := auditRows(run, []models.Outcome{
		{Symbol: "AAPL", Direction: models.DirectionBullish, Reason: models.OutcomeEmitted, Category: models.CategoryTradeAlert, CombinedScore: 0.7, Confidence: 0.7, At: at},
		{Symbol: "MSFT", Reason: models.OutcomeBelowThreshold, At: at},
	})
	if len(rows) != 2 || len(rows[0]) != 10 {
		t.Fatalf("unexpected shape %v", rows)
	}
	if rows[0][0] != "r1" || rows[0][1] != "technical_only" || rows[1][4] != "below_threshold" || rows[0][8] != uint8(0) {
		t.Fatalf("unexpected values %v", rows)
	}
}
