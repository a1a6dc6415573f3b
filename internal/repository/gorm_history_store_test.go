package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
)

func openTestStore(t *testing.T, now *time.Time) *GormHistoryStore {
	t.Helper()
	s, err := OpenGormHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.now = func() time.Time { return *now }
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(symbol string, d models.Direction, created time.Time, window time.Duration) *models.SignalRecord {
	return &models.SignalRecord{
		Symbol:          symbol,
		Direction:       d,
		ConfidenceScore: 0.7,
		SourceArticleID: "abc123",
		NewsTitle:       symbol + " beats earnings",
		PriceAtSignal:   100,
		Metadata:        map[string]interface{}{"category": "trade_alert"},
		CreatedAt:       created,
		ExpiresAt:       created.Add(window),
	}
}

func TestGormRecordAndSuppress(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, &now)
	ctx := context.Background()

	if err := s.RecordSignal(ctx, record("AAPL", models.DirectionBullish, now, 7*24*time.Hour)); err != nil {
		t.Fatalf("record: %v", err)
	}
	active, err := s.HasActiveSignal(ctx, "AAPL", models.DirectionBullish)
	if err != nil || !active {
		t.Fatalf("expected active, got %v %v", active, err)
	}
	if active, _ := s.HasActiveSignal(ctx, "AAPL", models.DirectionBearish); active {
		t.Fatalf("other direction must not be active")
	}
	err = s.RecordSignal(ctx, record("AAPL", models.DirectionBullish, now, 7*24*time.Hour))
	if !errors.Is(err, domrepo.ErrDuplicateSignal) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	var n int64
	s.db.Model(&signalHistory{}).Count(&n)
	if n != 1 {
		t.Fatalf("duplicate claim must roll back its ledger row, have %d rows", n)
	}

	recs, err := s.ActiveSignals(ctx)
	if err != nil || len(recs) != 1 {
		t.Fatalf("active signals: %v %v", recs, err)
	}
	if recs[0].SourceArticleID != "abc123" || recs[0].Metadata["category"] != "trade_alert" {
		t.Fatalf("round trip lost fields: %+v", recs[0])
	}
}

func TestGormExpiryReleasesKey(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, &now)
	ctx := context.Background()

	if err := s.RecordSignal(ctx, record("TSLA", models.DirectionBearish, now, 7*24*time.Hour)); err != nil {
		t.Fatalf("record: %v", err)
	}
	now = now.Add(8 * 24 * time.Hour)
	if active, _ := s.HasActiveSignal(ctx, "TSLA", models.DirectionBearish); active {
		t.Fatalf("expired record still active")
	}
	if err := s.RecordSignal(ctx, record("TSLA", models.DirectionBearish, now, 7*24*time.Hour)); err != nil {
		t.Fatalf("re-record after expiry: %v", err)
	}
	if active, _ := s.HasActiveSignal(ctx, "TSLA", models.DirectionBearish); !active {
		t.Fatalf("new record not active")
	}

	pruned, err := s.PruneHistory(ctx, now.Add(-time.Hour))
	if err != nil || pruned != 1 {
		t.Fatalf("expected the superseded row pruned, got %d %v", pruned, err)
	}
}

func TestGormConcurrentClaimsHaveOneWinner(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, &now)
	ctx := context.Background()

	const workers = 8
	var (
		wg             sync.WaitGroup
		mu             sync.Mutex
		wins, dups     int
		unexpectedErrs []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RecordSignal(ctx, record("NVDA", models.DirectionBullish, now, 7*24*time.Hour))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domrepo.ErrDuplicateSignal):
				dups++
			default:
				unexpectedErrs = append(unexpectedErrs, err)
			}
		}()
	}
	wg.Wait()
	if len(unexpectedErrs) > 0 {
		t.Fatalf("unexpected errors: %v", unexpectedErrs)
	}
	if wins != 1 || dups != workers-1 {
		t.Fatalf("expected one winner, got wins=%d dups=%d", wins, dups)
	}
}

func TestGormClosedStoreIsUnavailable(t *testing.T) {
	now := time.Now()
	s := openTestStore(t, &now)
	_ = s.Close()
	if err := s.Health(context.Background()); !errors.Is(err, domrepo.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
	_, err := s.HasActiveSignal(context.Background(), "AAPL", models.DirectionBullish)
	if !errors.Is(err, domrepo.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable on lookup, got %v", err)
	}
}
