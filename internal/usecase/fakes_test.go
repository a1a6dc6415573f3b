package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	"SignalForge/internal/services/extractor"
)

var testNow = time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)

type fakeMarket struct {
	readings map[string]*models.TechnicalReading
	err      error
	calls    [][]string
	mu       sync.Mutex
}

func (f *fakeMarket) GetTechnicalReading(_ context.Context, symbol string) (*models.TechnicalReading, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.readings[symbol], nil
}

func (f *fakeMarket) GetTechnicalReadings(ctx context.Context, symbols []string) (map[string]*models.TechnicalReading, map[string]error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbols)
	f.mu.Unlock()
	out := map[string]*models.TechnicalReading{}
	errs := map[string]error{}
	for _, s := range symbols {
		r, err := f.GetTechnicalReading(ctx, s)
		if err != nil {
			errs[s] = err
			continue
		}
		if r != nil {
			out[s] = r
		}
	}
	return out, errs
}

func (f *fakeMarket) GetMarketSnapshot(context.Context) (*models.MarketSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.MarketSnapshot{Benchmark: "SPY", Regime: models.RegimeNormal}, nil
}

type fakeNews struct {
	articles []models.Article
	err      error
}

func (f fakeNews) FetchRecentArticles(context.Context, time.Duration) ([]models.Article, error) {
	return f.articles, f.err
}

type fakeSocial struct {
	trending []models.SocialMention
	err      error
}

func (f fakeSocial) GetTrending(context.Context, int) ([]models.SocialMention, error) {
	return f.trending, f.err
}

// fakeScorer returns fixed (score, confidence) pairs keyed by article title.
type fakeScorer struct {
	byTitle map[string][2]float64
	err     error
}

func (f fakeScorer) ScoreArticles(_ context.Context, articles []models.Article) ([]models.SentimentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.SentimentResult, 0, len(articles))
	for _, a := range articles {
		v := f.byTitle[a.Title]
		out = append(out, models.SentimentResult{ArticleID: a.ID, Score: v[0], Confidence: v[1]})
	}
	return out, nil
}

type fixedTech map[string]float64

func (f fixedTech) Score(r *models.TechnicalReading) float64 { return f[r.Symbol] }

func (f fixedTech) DominantFactor(*models.TechnicalReading) string { return "rsi" }

type memHistory struct {
	mu        sync.Mutex
	recs      map[string]models.SignalRecord
	now       func() time.Time
	healthErr error
	recordErr error
	lookupErr error
	// lostRace makes RecordSignal behave as if another run claimed the key first.
	lostRace bool
}

func newMemHistory() *memHistory {
	return &memHistory{recs: map[string]models.SignalRecord{}, now: func() time.Time { return testNow }}
}

func key(symbol string, d models.Direction) string { return symbol + ":" + string(d) }

func (m *memHistory) HasActiveSignal(_ context.Context, symbol string, d models.Direction) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	r, ok := m.recs[key(symbol, d)]
	return ok && r.ActiveAt(m.now()), nil
}

func (m *memHistory) RecordSignal(_ context.Context, rec *models.SignalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	if m.lostRace {
		return domrepo.ErrDuplicateSignal
	}
	if r, ok := m.recs[key(rec.Symbol, rec.Direction)]; ok && r.ActiveAt(m.now()) {
		return domrepo.ErrDuplicateSignal
	}
	m.recs[key(rec.Symbol, rec.Direction)] = *rec
	return nil
}

func (m *memHistory) ActiveSignals(context.Context) ([]models.SignalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SignalRecord
	for _, r := range m.recs {
		if r.ActiveAt(m.now()) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memHistory) Health(context.Context) error { return m.healthErr }

func (m *memHistory) Close() error { return nil }

type capturePublisher struct {
	runs []*models.RunResult
	err  error
}

func (c *capturePublisher) PublishRun(_ context.Context, r *models.RunResult) error {
	c.runs = append(c.runs, r)
	return c.err
}

func (c *capturePublisher) Close() error { return nil }

type captureAudit struct {
	outcomes []models.Outcome
}

func (c *captureAudit) RecordOutcomes(_ context.Context, _ *models.RunResult, o []models.Outcome) error {
	c.outcomes = append(c.outcomes, o...)
	return nil
}

func reading(symbol string, price float64) *models.TechnicalReading {
	return &models.TechnicalReading{Symbol: symbol, Price: price, AsOf: testNow}
}

func article(title string, age time.Duration) models.Article {
	url := "https://news.example.com/" + title
	return models.Article{ID: models.ArticleID(url), Title: title, URL: url, Source: "test", PublishedAt: testNow.Add(-age)}
}

type harness struct {
	market    *fakeMarket
	news      fakeNews
	social    fakeSocial
	scorer    fakeScorer
	tech      fixedTech
	history   *memHistory
	publisher *capturePublisher
	audit     *captureAudit
	cfg       GeneratorConfig
}

func newHarness() *harness {
	return &harness{
		market:    &fakeMarket{readings: map[string]*models.TechnicalReading{}},
		scorer:    fakeScorer{byTitle: map[string][2]float64{}},
		tech:      fixedTech{},
		history:   newMemHistory(),
		publisher: &capturePublisher{},
		audit:     &captureAudit{},
		cfg: GeneratorConfig{
			MinSentimentConf: 0.6,
			MaxSignals:       10,
			FallbackSymbols:  3,
			Fusion:           DefaultFusionConfig(),
		},
	}
}

func (h *harness) generator() *Generator {
	g := NewGenerator(h.cfg, Deps{
		Market:     h.market,
		News:       h.news,
		Social:     h.social,
		Scorer:     h.scorer,
		Extractor:  extractor.New(0.6),
		Technical:  h.tech,
		History:    h.history,
		Publishers: []domrepo.RunPublisher{h.publisher},
		Audit:      h.audit,
	})
	g.now = func() time.Time { return testNow }
	g.newID = func() string { return "run-1" }
	return g
}

var errDown = errors.New("connection refused")
