package sentiment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	domainrepo "SignalForge/internal/domain/repository"
	domainsvc "SignalForge/internal/domain/service"
	"SignalForge/pkg/logger"
)

const defaultLoadBackoff = 30 * time.Second

// Scorer runs batched inference over an injected model handle. The handle is
// loaded on first use and kept for the lifetime of the Scorer. A failed load
// is retried by a later call once the backoff has elapsed.
type Scorer struct {
	load      domainsvc.ModelLoader
	batchSize int

	loadMu      sync.Mutex
	model       domainsvc.SentimentModel
	loadErr     error
	failedAt    time.Time
	loadBackoff time.Duration
	now         func() time.Time

	// model handles are not assumed to be safe for concurrent use
	mu     sync.Mutex
	logger *logger.Logger
}

func NewScorer(load domainsvc.ModelLoader, batchSize int) *Scorer {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Scorer{
		load:        load,
		batchSize:   batchSize,
		loadBackoff: defaultLoadBackoff,
		now:         time.Now,
		logger:      logger.Nop(),
	}
}

// SetLoadBackoff sets how long a failed load is reported before the next
// call tries again. Zero retries on every call.
func (s *Scorer) SetLoadBackoff(d time.Duration) {
	if d >= 0 {
		s.loadBackoff = d
	}
}

func (s *Scorer) SetLogger(l *logger.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Scorer) ensureModel(ctx context.Context) (domainsvc.SentimentModel, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.model != nil {
		return s.model, nil
	}
	if s.loadErr != nil && s.now().Sub(s.failedAt) < s.loadBackoff {
		return nil, s.loadErr
	}
	if s.load == nil {
		s.loadErr = fmt.Errorf("no model loader configured")
		s.failedAt = s.now()
		return nil, s.loadErr
	}

	model, err := s.load(ctx)
	if err == nil && model == nil {
		err = fmt.Errorf("model loader returned nil model")
	}
	if err != nil {
		s.loadErr = err
		s.failedAt = s.now()
		s.logger.Error("sentiment model load failed",
			logger.Error(err),
			logger.Duration("retry_after", s.loadBackoff),
		)
		return nil, err
	}
	s.model, s.loadErr = model, nil
	return model, nil
}

// ScoreArticles returns one result per article, in input order. Any model
// failure is reported as a provider error so the caller can degrade.
func (s *Scorer) ScoreArticles(ctx context.Context, articles []models.Article) ([]models.SentimentResult, error) {
	if len(articles) == 0 {
		return nil, nil
	}
	model, err := s.ensureModel(ctx)
	if err != nil {
		return nil, domainrepo.NewProviderError("sentiment", "load", err)
	}

	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.Text()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.SentimentResult, 0, len(articles))
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		probs, err := model.Predict(ctx, texts[start:end])
		if err != nil {
			return nil, domainrepo.NewProviderError("sentiment", "predict", err)
		}
		if len(probs) != end-start {
			return nil, domainrepo.NewProviderError("sentiment", "predict",
				fmt.Errorf("model returned %d results for %d texts", len(probs), end-start))
		}
		for i, p := range probs {
			out = append(out, models.SentimentFromProbabilities(articles[start+i].ID, p))
		}
	}
	return out, nil
}

// Qualifying drops results below the confidence floor. Low-confidence
// sentiment is noise, not a neutral reading.
func Qualifying(results []models.SentimentResult, minConfidence float64) []models.SentimentResult {
	out := results[:0:0]
	for _, r := range results {
		if r.Confidence >= minConfidence {
			out = append(out, r)
		}
	}
	return out
}
