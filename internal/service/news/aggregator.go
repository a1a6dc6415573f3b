package news

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	"SignalForge/pkg/logger"
)

type Config struct {
	MaxArticles int
	Workers     int
	Timeout     time.Duration
}

// Aggregator polls every source concurrently and returns a deduplicated,
// newest-first article list.
type Aggregator struct {
	cfg      Config
	sources  []Source
	enricher *Enricher
	now      func() time.Time
	logger   *logger.Logger
}

func NewAggregator(cfg Config, sources []Source, enricher *Enricher) *Aggregator {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = 100
	}
	return &Aggregator{cfg: cfg, sources: sources, enricher: enricher, now: time.Now, logger: logger.Nop()}
}

func (a *Aggregator) SetLogger(l *logger.Logger) {
	if l != nil {
		a.logger = l
	}
}

type sourceResult struct {
	name     string
	articles []models.Article
	err      error
}

// FetchRecentArticles returns articles published within lookback. It fails
// only when every source fails.
func (a *Aggregator) FetchRecentArticles(ctx context.Context, lookback time.Duration) ([]models.Article, error) {
	if len(a.sources) == 0 {
		return nil, drepo.NewProviderError("news", "fetch", errors.New("no sources configured"))
	}

	queue := make(chan Source, len(a.sources))
	results := make(chan sourceResult, len(a.sources))
	for _, s := range a.sources {
		queue <- s
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < a.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range queue {
				results <- a.fetchOne(ctx, s)
			}
		}()
	}
	go func() { wg.Wait(); close(results) }()

	var (
		all  []models.Article
		errs []error
		ok   int
	)
	for r := range results {
		if r.err != nil {
			a.logger.Warn("news source failed", logger.String("source", r.name), logger.Error(r.err))
			errs = append(errs, fmt.Errorf("%s: %w", r.name, r.err))
			continue
		}
		ok++
		all = append(all, r.articles...)
	}
	if ok == 0 {
		return nil, drepo.NewProviderError("news", "fetch", errors.Join(errs...))
	}

	out := Dedupe(all, a.now().Add(-lookback), a.cfg.MaxArticles)
	if a.enricher != nil {
		if n := a.enricher.Enrich(ctx, out); n > 0 {
			a.logger.Debug("articles enriched", logger.Int("count", n))
		}
	}
	a.logger.Info("news fetched",
		logger.Int("sources_ok", ok),
		logger.Int("sources_failed", len(errs)),
		logger.Int("raw", len(all)),
		logger.Int("kept", len(out)))
	return out, nil
}

func (a *Aggregator) fetchOne(ctx context.Context, s Source) sourceResult {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}
	arts, err := s.Fetch(ctx)
	return sourceResult{name: s.Name(), articles: arts, err: err}
}

// Dedupe drops articles older than since, collapses repeats by URL hash and
// normalized title, sorts newest first and caps the result.
func Dedupe(in []models.Article, since time.Time, max int) []models.Article {
	sorted := make([]models.Article, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PublishedAt.After(sorted[j].PublishedAt) })

	seenID := make(map[string]bool, len(sorted))
	seenTitle := make(map[string]bool, len(sorted))
	out := make([]models.Article, 0, len(sorted))
	for _, art := range sorted {
		if art.PublishedAt.Before(since) {
			continue
		}
		key := NormalizeTitle(art.Title)
		if key == "" {
			continue
		}
		dup := seenID[art.ID] || seenTitle[key]
		seenID[art.ID] = true
		seenTitle[key] = true
		if dup {
			continue
		}
		out = append(out, art)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
