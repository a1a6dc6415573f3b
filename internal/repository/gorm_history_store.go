package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	applogger "SignalForge/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// activeSignal holds the one live claim per (symbol, direction).
type activeSignal struct {
	Symbol    string    `gorm:"primaryKey;size:16"`
	Direction string    `gorm:"primaryKey;size:8"`
	HistoryID uint      `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

func (activeSignal) TableName() string { return "signal_active" }

// signalHistory is the append-only ledger of every emitted signal.
type signalHistory struct {
	ID              uint   `gorm:"primaryKey"`
	Symbol          string `gorm:"size:16;index:idx_signal_history_key"`
	Direction       string `gorm:"size:8;index:idx_signal_history_key"`
	ConfidenceScore float64
	SourceArticleID *string `gorm:"size:64"`
	NewsTitle       string
	SentimentScore  float64
	TechnicalScore  float64
	PriceAtSignal   float64
	Metadata        map[string]interface{} `gorm:"serializer:json"`
	CreatedAt       time.Time              `gorm:"index"`
	ExpiresAt       time.Time
}

func (signalHistory) TableName() string { return "signal_history" }

// GormHistoryStore implements HistoryStore on SQLite through GORM.
type GormHistoryStore struct {
	db  *gorm.DB
	now func() time.Time
	l   *applogger.Logger
}

// OpenGormHistoryStore opens the database at dsn and migrates the schema.
func OpenGormHistoryStore(dsn string) (*GormHistoryStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, domrepo.NewStoreError("open", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, domrepo.NewStoreError("open", err)
	}
	// SQLite has a single writer; one connection serializes claims.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&signalHistory{}, &activeSignal{}); err != nil {
		_ = sqlDB.Close()
		return nil, domrepo.NewStoreError("migrate", err)
	}
	return &GormHistoryStore{db: db, now: time.Now, l: applogger.Nop()}, nil
}

func (s *GormHistoryStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

func (s *GormHistoryStore) HasActiveSignal(ctx context.Context, symbol string, direction models.Direction) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&activeSignal{}).
		Where("symbol = ? AND direction = ? AND expires_at > ?", symbol, string(direction), s.now().UTC()).
		Count(&n).Error
	if err != nil {
		return false, domrepo.NewStoreError("lookup", err)
	}
	return n > 0, nil
}

// RecordSignal appends the ledger row and claims the active key in one
// transaction. The claim only overwrites an expired row, so a live claim
// leaves zero affected rows and the ledger insert is rolled back.
func (s *GormHistoryStore) RecordSignal(ctx context.Context, rec *models.SignalRecord) error {
	now := s.now().UTC()
	row := toHistoryRow(rec)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		claim := activeSignal{
			Symbol:    row.Symbol,
			Direction: row.Direction,
			HistoryID: row.ID,
			ExpiresAt: row.ExpiresAt,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "direction"}},
			DoUpdates: clause.AssignmentColumns([]string{"history_id", "expires_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "signal_active.expires_at <= ?", Vars: []interface{}{now}},
			}},
		}).Create(&claim)
		if res.Error != nil {
			return fmt.Errorf("claim active: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domrepo.ErrDuplicateSignal
		}
		return nil
	})
	switch {
	case err == nil:
		s.l.Debug("signal recorded",
			applogger.String("symbol", rec.Symbol),
			applogger.String("direction", string(rec.Direction)))
		return nil
	case errors.Is(err, domrepo.ErrDuplicateSignal):
		return err
	default:
		return domrepo.NewStoreError("record", err)
	}
}

func (s *GormHistoryStore) ActiveSignals(ctx context.Context) ([]models.SignalRecord, error) {
	var rows []signalHistory
	err := s.db.WithContext(ctx).
		Joins("JOIN signal_active ON signal_active.history_id = signal_history.id").
		Where("signal_active.expires_at > ?", s.now().UTC()).
		Order("signal_history.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, domrepo.NewStoreError("list", err)
	}
	out := make([]models.SignalRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromHistoryRow(r))
	}
	return out, nil
}

// PruneHistory deletes ledger rows older than cutoff that no active claim
// points at. Expiry itself is a query-time filter and needs no sweep.
func (s *GormHistoryStore) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("created_at < ? AND id NOT IN (?)", cutoff.UTC(), s.db.Model(&activeSignal{}).Select("history_id")).
		Delete(&signalHistory{})
	if res.Error != nil {
		return 0, domrepo.NewStoreError("prune", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormHistoryStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return domrepo.NewStoreError("health", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return domrepo.NewStoreError("health", err)
	}
	return nil
}

func (s *GormHistoryStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toHistoryRow(rec *models.SignalRecord) signalHistory {
	row := signalHistory{
		Symbol:          strings.ToUpper(rec.Symbol),
		Direction:       string(rec.Direction),
		ConfidenceScore: rec.ConfidenceScore,
		NewsTitle:       rec.NewsTitle,
		SentimentScore:  rec.SentimentScore,
		TechnicalScore:  rec.TechnicalScore,
		PriceAtSignal:   rec.PriceAtSignal,
		Metadata:        rec.Metadata,
		CreatedAt:       rec.CreatedAt.UTC(),
		ExpiresAt:       rec.ExpiresAt.UTC(),
	}
	if rec.SourceArticleID != "" {
		id := rec.SourceArticleID
		row.SourceArticleID = &id
	}
	return row
}

func fromHistoryRow(r signalHistory) models.SignalRecord {
	rec := models.SignalRecord{
		Symbol:          r.Symbol,
		Direction:       models.Direction(r.Direction),
		ConfidenceScore: r.ConfidenceScore,
		NewsTitle:       r.NewsTitle,
		SentimentScore:  r.SentimentScore,
		TechnicalScore:  r.TechnicalScore,
		PriceAtSignal:   r.PriceAtSignal,
		Metadata:        r.Metadata,
		CreatedAt:       r.CreatedAt,
		ExpiresAt:       r.ExpiresAt,
	}
	if r.SourceArticleID != nil {
		rec.SourceArticleID = *r.SourceArticleID
	}
	return rec
}
