package news

import (
	"context"

	"SignalForge/internal/domain/models"
)

// Source is one headline feed.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Article, error)
}
