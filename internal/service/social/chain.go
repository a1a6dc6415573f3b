package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	"SignalForge/pkg/cache"
	"SignalForge/pkg/logger"
)

// Source is one social mention strategy.
type Source interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]models.SocialMention, error)
}

// Chain tries sources in order. An error or an empty result moves on to the
// next source; the first non-empty result wins.
type Chain struct {
	sources  []Source
	exclude  map[string]bool
	cache    cache.Service
	cacheTTL time.Duration
	logger   *logger.Logger
}

func NewChain(sources []Source, excludeTickers []string, c cache.Service, ttl time.Duration) *Chain {
	ex := make(map[string]bool, len(excludeTickers))
	for _, t := range excludeTickers {
		ex[strings.ToUpper(t)] = true
	}
	return &Chain{sources: sources, exclude: ex, cache: c, cacheTTL: ttl, logger: logger.Nop()}
}

func (c *Chain) SetLogger(l *logger.Logger) {
	if l != nil {
		c.logger = l
	}
}

// GetTrending returns up to limit stock mentions ranked by the source.
func (c *Chain) GetTrending(ctx context.Context, limit int) ([]models.SocialMention, error) {
	if limit <= 0 {
		limit = 50
	}
	key := cache.GenerateKeyWithParams("social:trending", limit)
	return cache.GetOrLoad(ctx, c.cache, key, c.cacheTTL, func(ctx context.Context) ([]models.SocialMention, error) {
		return c.fetch(ctx, limit)
	})
}

func (c *Chain) fetch(ctx context.Context, limit int) ([]models.SocialMention, error) {
	var errs []error
	for _, s := range c.sources {
		// over-fetch so crypto filtering still leaves limit stocks
		got, err := s.Fetch(ctx, limit*2)
		if err != nil {
			c.logger.Warn("social source failed", logger.String("source", s.Name()), logger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		got = c.filter(got)
		if len(got) == 0 {
			c.logger.Info("social source returned nothing", logger.String("source", s.Name()))
			errs = append(errs, fmt.Errorf("%s: empty result", s.Name()))
			continue
		}
		if len(got) > limit {
			got = got[:limit]
		}
		c.logger.Info("social trending fetched",
			logger.String("source", s.Name()),
			logger.Int("count", len(got)))
		return got, nil
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no sources configured"))
	}
	return nil, drepo.NewProviderError("social", "trending", errors.Join(errs...))
}

func (c *Chain) filter(in []models.SocialMention) []models.SocialMention {
	out := in[:0:0]
	for _, m := range in {
		if !c.exclude[m.Symbol] {
			out = append(out, m)
		}
	}
	return out
}
