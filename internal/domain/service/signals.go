package service

import (
	"context"

	"SignalForge/internal/domain/models"
)

// SentimentModel is a loaded text classifier handle.
type SentimentModel interface {
	Predict(ctx context.Context, texts []string) ([]models.Probabilities, error)
}

// ModelLoader builds the model handle. It is called at most once per process.
type ModelLoader func(ctx context.Context) (SentimentModel, error)

type SentimentScorer interface {
	ScoreArticles(ctx context.Context, articles []models.Article) ([]models.SentimentResult, error)
}

type SymbolExtractor interface {
	Extract(article models.Article) []models.SymbolMention
}

type TechnicalScorer interface {
	Score(r *models.TechnicalReading) float64
	DominantFactor(r *models.TechnicalReading) string
}
