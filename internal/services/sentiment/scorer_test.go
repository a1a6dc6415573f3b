package sentiment

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
	domainrepo "SignalForge/internal/domain/repository"
	domainsvc "SignalForge/internal/domain/service"
)

type stubModel struct {
	calls  int
	sizes  []int
	result models.Probabilities
	err    error
}

func (m *stubModel) Predict(_ context.Context, texts []string) ([]models.Probabilities, error) {
	m.calls++
	m.sizes = append(m.sizes, len(texts))
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Probabilities, len(texts))
	for i := range out {
		out[i] = m.result
	}
	return out, nil
}

func articles(n int) []models.Article {
	out := make([]models.Article, n)
	for i := range out {
		out[i] = models.Article{ID: string(rune('a' + i)), Title: "headline"}
	}
	return out
}

func TestScorerLoadsModelOnceAndBatches(t *testing.T) {
	m := &stubModel{result: models.Probabilities{Positive: 0.9, Neutral: 0.05, Negative: 0.05}}
	var loads int32
	s := NewScorer(func(context.Context) (domainsvc.SentimentModel, error) {
		atomic.AddInt32(&loads, 1)
		return m, nil
	}, 2)

	res, err := s.ScoreArticles(context.Background(), articles(5))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if _, err := s.ScoreArticles(context.Background(), articles(1)); err != nil {
		t.Fatalf("second score: %v", err)
	}
	if loads != 1 {
		t.Fatalf("expected one load, got %d", loads)
	}
	if len(res) != 5 || res[4].ArticleID != "e" {
		t.Fatalf("results out of order: %+v", res)
	}
	if m.sizes[0] != 2 || m.sizes[1] != 2 || m.sizes[2] != 1 {
		t.Fatalf("unexpected batch sizes %v", m.sizes)
	}
	if res[0].Label != models.SentimentBullish || res[0].Confidence != 0.9 {
		t.Fatalf("unexpected mapping %+v", res[0])
	}
}

func TestScorerLoadFailureIsProviderUnavailable(t *testing.T) {
	var loads int32
	s := NewScorer(func(context.Context) (domainsvc.SentimentModel, error) {
		atomic.AddInt32(&loads, 1)
		return nil, errors.New("weights missing")
	}, 8)
	for i := 0; i < 2; i++ {
		_, err := s.ScoreArticles(context.Background(), articles(1))
		if !errors.Is(err, domainrepo.ErrProviderUnavailable) {
			t.Fatalf("expected provider unavailable, got %v", err)
		}
	}
	if loads != 1 {
		t.Fatalf("load retried inside backoff, got %d loads", loads)
	}
}

func TestScorerRetriesLoadAfterBackoff(t *testing.T) {
	m := &stubModel{result: models.Probabilities{Positive: 0.1, Neutral: 0.1, Negative: 0.8}}
	var loads int32
	s := NewScorer(func(context.Context) (domainsvc.SentimentModel, error) {
		if atomic.AddInt32(&loads, 1) == 1 {
			return nil, errors.New("inference service restarting")
		}
		return m, nil
	}, 8)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	s.SetLoadBackoff(time.Minute)

	if _, err := s.ScoreArticles(context.Background(), articles(1)); !errors.Is(err, domainrepo.ErrProviderUnavailable) {
		t.Fatalf("first run: expected provider unavailable, got %v", err)
	}

	now = now.Add(30 * time.Second)
	if _, err := s.ScoreArticles(context.Background(), articles(1)); err == nil {
		t.Fatalf("expected cached failure inside backoff")
	}
	if loads != 1 {
		t.Fatalf("expected 1 load inside backoff, got %d", loads)
	}

	now = now.Add(time.Minute)
	res, err := s.ScoreArticles(context.Background(), articles(2))
	if err != nil {
		t.Fatalf("run after backoff: %v", err)
	}
	if len(res) != 2 || res[0].Label != models.SentimentBearish {
		t.Fatalf("unexpected results %+v", res)
	}
	if _, err := s.ScoreArticles(context.Background(), articles(1)); err != nil {
		t.Fatalf("loaded model not kept: %v", err)
	}
	if loads != 2 {
		t.Fatalf("expected 2 loads, got %d", loads)
	}
}

func TestScorerPredictFailure(t *testing.T) {
	m := &stubModel{err: errors.New("oom")}
	s := NewScorer(func(context.Context) (domainsvc.SentimentModel, error) { return m, nil }, 8)
	if _, err := s.ScoreArticles(context.Background(), articles(2)); !errors.Is(err, domainrepo.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
}

func TestQualifyingDropsLowConfidence(t *testing.T) {
	in := []models.SentimentResult{
		{ArticleID: "a", Confidence: 0.59},
		{ArticleID: "b", Confidence: 0.6},
		{ArticleID: "c", Confidence: 0.95},
	}
	out := Qualifying(in, 0.6)
	if len(out) != 2 || out[0].ArticleID != "b" {
		t.Fatalf("unexpected qualifying set %+v", out)
	}
	if len(in) != 3 {
		t.Fatalf("input mutated")
	}
}

func TestLexiconModel(t *testing.T) {
	m := NewLexiconModel()
	probs, err := m.Predict(context.Background(), []string{
		"Apple beats estimates, shares surge to record high",
		"Boeing shares plunge after FAA investigation and delivery delays",
		"Company schedules annual meeting",
		"Results were not strong",
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	bull := models.SentimentFromProbabilities("1", probs[0])
	if bull.Label != models.SentimentBullish || bull.Confidence < 0.6 {
		t.Fatalf("expected confident bullish, got %+v", bull)
	}
	bear := models.SentimentFromProbabilities("2", probs[1])
	if bear.Label != models.SentimentBearish || bear.Score >= 0 {
		t.Fatalf("expected bearish, got %+v", bear)
	}
	if neutral := models.SentimentFromProbabilities("3", probs[2]); neutral.Label != models.SentimentNeutral {
		t.Fatalf("expected neutral, got %+v", neutral)
	}
	if probs[3].Negative <= probs[3].Positive {
		t.Fatalf("negation not applied: %+v", probs[3])
	}
}
