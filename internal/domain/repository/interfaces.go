package repository

import (
	"context"
	"time"

	"SignalForge/internal/domain/models"
)

// MarketData supplies per-symbol indicators and broad market context.
// GetTechnicalReading returns (nil, nil) when the symbol has no price.
// GetTechnicalReadings is the batched form; symbols without a price are
// absent from the readings and present in the error map only on failure.
type MarketData interface {
	GetTechnicalReading(ctx context.Context, symbol string) (*models.TechnicalReading, error)
	GetTechnicalReadings(ctx context.Context, symbols []string) (map[string]*models.TechnicalReading, map[string]error)
	GetMarketSnapshot(ctx context.Context) (*models.MarketSnapshot, error)
}

type NewsFeed interface {
	FetchRecentArticles(ctx context.Context, lookback time.Duration) ([]models.Article, error)
}

type SocialFeed interface {
	GetTrending(ctx context.Context, limit int) ([]models.SocialMention, error)
}

// HistoryStore persists emitted signals for cross-run deduplication.
// RecordSignal must be an atomic insert-if-not-exists on (symbol, direction)
// and return ErrDuplicateSignal when an active record already holds the key.
type HistoryStore interface {
	HasActiveSignal(ctx context.Context, symbol string, direction models.Direction) (bool, error)
	RecordSignal(ctx context.Context, rec *models.SignalRecord) error
	ActiveSignals(ctx context.Context) ([]models.SignalRecord, error)
	Health(ctx context.Context) error
	Close() error
}

type RunPublisher interface {
	PublishRun(ctx context.Context, run *models.RunResult) error
	Close() error
}

type AuditLog interface {
	RecordOutcomes(ctx context.Context, run *models.RunResult, outcomes []models.Outcome) error
}

type Metrics interface {
	RecordRun(mode, result string)
	RecordSignal(category string)
	RecordSuppressed(reason string)
	RecordProviderError(provider string)
	RecordLatency(stage string, seconds float64)
	RecordLastRun(t time.Time)
}
