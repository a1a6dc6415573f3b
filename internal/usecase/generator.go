package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	domsvc "SignalForge/internal/domain/service"
	"SignalForge/internal/services/extractor"
	"SignalForge/internal/services/sentiment"
	"SignalForge/pkg/logger"
	"SignalForge/pkg/tracing"

	"github.com/google/uuid"
)

type GeneratorConfig struct {
	Watchlist        []string
	NewsLookback     time.Duration
	SocialLimit      int
	MinSentimentConf float64
	MaxSignals       int
	ExpiryWindow     time.Duration
	FallbackSymbols  int
	FetchTimeout     time.Duration
	Fusion           FusionConfig
}

// Deps are the collaborators of a Generator. Social, Audit, Metrics and
// Tracer are optional.
type Deps struct {
	Market     domrepo.MarketData
	News       domrepo.NewsFeed
	Social     domrepo.SocialFeed
	Scorer     domsvc.SentimentScorer
	Extractor  domsvc.SymbolExtractor
	Technical  domsvc.TechnicalScorer
	History    domrepo.HistoryStore
	Publishers []domrepo.RunPublisher
	Audit      domrepo.AuditLog
	Metrics    domrepo.Metrics
	Tracer     *tracing.Provider
	Logger     *logger.Logger
}

// Generator runs one signal generation pass: fetch, score, fuse, gate, publish.
type Generator struct {
	cfg   GeneratorConfig
	deps  Deps
	fuser *Fuser
	now   func() time.Time
	newID func() string
}

func NewGenerator(cfg GeneratorConfig, deps Deps) *Generator {
	if cfg.MaxSignals <= 0 {
		cfg.MaxSignals = 10
	}
	if cfg.ExpiryWindow <= 0 {
		cfg.ExpiryWindow = 7 * 24 * time.Hour
	}
	if cfg.NewsLookback <= 0 {
		cfg.NewsLookback = 6 * time.Hour
	}
	if cfg.SocialLimit <= 0 {
		cfg.SocialLimit = 50
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &Generator{
		cfg:   cfg,
		deps:  deps,
		fuser: NewFuser(cfg.Fusion),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// fetched holds the raw provider results of one run.
type fetched struct {
	articles    []models.Article
	newsErr     error
	trending    []models.SocialMention
	socialErr   error
	snapshot    *models.MarketSnapshot
	snapshotErr error
	readings    map[string]*models.TechnicalReading
	readingErrs map[string]error
}

type readingsResult struct {
	readings map[string]*models.TechnicalReading
	errs     map[string]error
}

// Run executes a generation pass. Only history store failures are returned
// as errors; provider failures degrade the mode and are reported in the result.
func (g *Generator) Run(ctx context.Context) (_ *models.RunResult, err error) {
	now := g.now().UTC()
	res := &models.RunResult{
		RunID:          g.newID(),
		Mode:           models.ModeFull,
		StartedAt:      now,
		ProviderErrors: map[string]string{},
	}
	log := g.deps.Logger
	ctx, span := g.deps.Tracer.Start(ctx, "signalforge.run", "run_id", res.RunID)
	defer func() {
		tracing.End(span, err)
		result := "ok"
		if err != nil {
			result = "aborted"
		}
		g.deps.Metrics.RecordRun(string(res.Mode), result)
		g.deps.Metrics.RecordLastRun(g.now())
	}()

	if herr := g.deps.History.Health(ctx); herr != nil {
		err = storeErr("health", herr)
		log.Error("history store unreachable, aborting run", logger.String("run_id", res.RunID), logger.Error(err))
		return nil, err
	}

	f := g.fetch(ctx)
	res.Market = f.snapshot
	if len(f.trending) > 10 {
		res.Trending = f.trending[:10]
	} else {
		res.Trending = f.trending
	}
	res.Stats.ArticlesFetched = len(f.articles)
	g.providerFailure(res, "news", f.newsErr)
	g.providerFailure(res, "social", f.socialErr)
	g.providerFailure(res, "market_snapshot", f.snapshotErr)
	for sym, e := range f.readingErrs {
		g.providerFailure(res, "market:"+sym, e)
	}

	newsAvailable := f.newsErr == nil
	var sentiments []models.SentimentResult
	if newsAvailable && len(f.articles) > 0 {
		sctx, done := g.stage(ctx, "sentiment")
		var serr error
		sentiments, serr = g.deps.Scorer.ScoreArticles(sctx, f.articles)
		done(serr)
		if serr != nil {
			newsAvailable = false
			sentiments = nil
			g.providerFailure(res, "sentiment", serr)
		}
	}
	res.Stats.ArticlesScored = len(sentiments)

	newsScores := map[string]NewsScore{}
	if newsAvailable {
		newsScores = g.scoreNews(ctx, f.articles, sentiments, res)
		if missing := missingSymbols(newsScores, f.readings); len(missing) > 0 {
			tctx, done := g.stage(ctx, "technical")
			extra, errs := g.deps.Market.GetTechnicalReadings(tctx, missing)
			done(nil)
			for sym, r := range extra {
				f.readings[sym] = r
			}
			for sym, e := range errs {
				g.providerFailure(res, "market:"+sym, e)
			}
		}
	}

	switch {
	case !newsAvailable && len(f.readings) == 0:
		res.Mode = models.ModeFallback
	case !newsAvailable:
		res.Mode = models.ModeTechnicalOnly
	}

	var outcomes []models.Outcome
	if res.Mode == models.ModeFallback {
		res.Placeholder = true
		res.Signals = placeholderSignals(g.cfg.Watchlist, g.cfg.FallbackSymbols, now)
		for _, s := range res.Signals {
			outcomes = append(outcomes, models.Outcome{Symbol: s.Symbol, Reason: models.OutcomePlaceholder, At: now})
		}
		symbols := make([]string, 0, len(res.Signals))
		for _, sig := range res.Signals {
			symbols = append(symbols, sig.Symbol)
		}
		log.Warn("all upstream feeds unavailable, emitting placeholders",
			logger.String("run_id", res.RunID), logger.Strings("symbols", symbols))
	} else {
		cands, dropped := g.fuse(ctx, res.Mode, f, newsScores, now)
		outcomes = append(outcomes, dropped...)
		res.Stats.Candidates = len(cands)
		res.Stats.Dropped = len(dropped)

		signals, gated, gerr := g.gate(ctx, res, cands, now)
		outcomes = append(outcomes, gated...)
		if gerr != nil {
			err = gerr
			log.Error("dedup gate failed, aborting run",
				logger.String("run_id", res.RunID), logger.String("mode", string(res.Mode)), logger.Error(err))
			return nil, err
		}
		res.Signals = signals
	}

	res.Stats.Emitted = len(res.Signals)
	res.FinishedAt = g.now().UTC()
	if len(res.ProviderErrors) == 0 {
		res.ProviderErrors = nil
	}
	for _, s := range res.Signals {
		if !s.Placeholder {
			g.deps.Metrics.RecordSignal(string(s.Category))
		}
	}
	g.finish(ctx, res, outcomes)

	log.Info("run finished",
		logger.String("run_id", res.RunID),
		logger.String("mode", string(res.Mode)),
		logger.Int("articles", res.Stats.ArticlesFetched),
		logger.Int("candidates", res.Stats.Candidates),
		logger.Int("emitted", res.Stats.Emitted),
		logger.Int("suppressed", res.Stats.SuppressedDuplicate),
		logger.Duration("took", res.FinishedAt.Sub(res.StartedAt)))
	return res, nil
}

// fetch queries every provider concurrently.
func (g *Generator) fetch(ctx context.Context) *fetched {
	ctx, done := g.stage(ctx, "fetch")
	defer done(nil)
	if g.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.FetchTimeout)
		defer cancel()
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	calls := map[string]func() (interface{}, error){
		"news": func() (interface{}, error) {
			return g.deps.News.FetchRecentArticles(ctx, g.cfg.NewsLookback)
		},
		"snapshot": func() (interface{}, error) {
			return g.deps.Market.GetMarketSnapshot(ctx)
		},
		"readings": func() (interface{}, error) {
			r, errs := g.deps.Market.GetTechnicalReadings(ctx, g.cfg.Watchlist)
			return readingsResult{r, errs}, nil
		},
	}
	if g.deps.Social != nil {
		calls["social"] = func() (interface{}, error) {
			return g.deps.Social.GetTrending(ctx, g.cfg.SocialLimit)
		}
	}

	ch := make(chan item, len(calls))
	for name, call := range calls {
		go func(name string, call func() (interface{}, error)) {
			v, err := call()
			ch <- item{name, v, err}
		}(name, call)
	}

	f := &fetched{readings: map[string]*models.TechnicalReading{}}
	for range calls {
		it := <-ch
		switch it.name {
		case "news":
			f.newsErr = it.err
			if it.err == nil {
				f.articles = it.val.([]models.Article)
			}
		case "social":
			f.socialErr = it.err
			if it.err == nil {
				f.trending = it.val.([]models.SocialMention)
			}
		case "snapshot":
			f.snapshotErr = it.err
			if it.err == nil {
				f.snapshot = it.val.(*models.MarketSnapshot)
			}
		case "readings":
			rr := it.val.(readingsResult)
			for sym, r := range rr.readings {
				if r != nil {
					f.readings[sym] = r
				}
			}
			f.readingErrs = rr.errs
		}
	}
	return f
}

// scoreNews filters low-confidence sentiment, extracts symbols from the
// remaining articles and aggregates a news score per symbol.
func (g *Generator) scoreNews(ctx context.Context, articles []models.Article, results []models.SentimentResult, res *models.RunResult) map[string]NewsScore {
	_, done := g.stage(ctx, "extract")
	defer done(nil)

	qualifying := sentiment.Qualifying(results, g.cfg.MinSentimentConf)
	res.Stats.ArticlesQualifying = len(qualifying)

	byID := make(map[string]models.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}
	sentByID := make(map[string]models.SentimentResult, len(qualifying))
	var mentions []models.SymbolMention
	for _, s := range qualifying {
		a, ok := byID[s.ArticleID]
		if !ok {
			continue
		}
		sentByID[s.ArticleID] = s
		mentions = append(mentions, g.deps.Extractor.Extract(a)...)
	}
	if len(results) > len(qualifying) {
		g.deps.Logger.Debug("low confidence sentiment excluded",
			logger.String("run_id", res.RunID),
			logger.Int("count", len(results)-len(qualifying)),
			logger.String("reason", domrepo.ErrLowConfidence.Error()))
	}
	return AggregateNews(byID, sentByID, extractor.Aggregate(mentions), g.cfg.Fusion.MinDirectional, g.cfg.Fusion.MaxSupportingArticles)
}

// fuse builds candidates for every symbol with a reading or qualifying news.
func (g *Generator) fuse(ctx context.Context, mode models.RunMode, f *fetched, news map[string]NewsScore, now time.Time) ([]*models.SignalCandidate, []models.Outcome) {
	_, done := g.stage(ctx, "fuse")
	defer done(nil)

	social := make(map[string]*models.SocialMention, len(f.trending))
	for i := range f.trending {
		social[f.trending[i].Symbol] = &f.trending[i]
	}

	seen := map[string]bool{}
	var symbols []string
	for sym := range f.readings {
		if !seen[sym] {
			seen[sym] = true
			symbols = append(symbols, sym)
		}
	}
	if mode == models.ModeFull {
		for sym := range news {
			if !seen[sym] {
				seen[sym] = true
				symbols = append(symbols, sym)
			}
		}
	}
	sort.Strings(symbols)

	var (
		cands   []*models.SignalCandidate
		dropped []models.Outcome
	)
	for _, sym := range symbols {
		in := FuseInput{Symbol: sym, Reading: f.readings[sym], Social: social[sym], Mode: mode, Now: now}
		if in.Reading != nil {
			in.TechnicalScore = g.deps.Technical.Score(in.Reading)
		}
		if ns, ok := news[sym]; ok {
			in.News = &ns
		}
		c, reason := g.fuser.Fuse(in)
		if c == nil {
			dropped = append(dropped, models.Outcome{Symbol: sym, Reason: reason, At: now})
			g.deps.Metrics.RecordSuppressed(string(reason))
			g.deps.Logger.Debug("candidate dropped",
				logger.String("symbol", sym), logger.String("reason", string(reason)), logger.String("mode", string(mode)))
			continue
		}
		cands = append(cands, c)
	}
	return cands, dropped
}

// gate walks candidates in rank order, claiming each (symbol, direction) in
// the history store. Every accepted candidate is recorded; only the first
// max_signals of them are emitted, the rest count as shown and truncated.
func (g *Generator) gate(ctx context.Context, res *models.RunResult, cands []*models.SignalCandidate, now time.Time) (signals []models.Signal, outcomes []models.Outcome, err error) {
	ctx, done := g.stage(ctx, "gate")
	defer func() { done(err) }()

	Rank(cands)
	for _, c := range cands {
		out := models.Outcome{
			Symbol:        c.Symbol,
			Direction:     c.Direction,
			Category:      c.Category,
			CombinedScore: c.CombinedScore,
			Confidence:    c.Confidence,
			At:            now,
		}

		dup, cerr := g.claim(ctx, c, now)
		if cerr != nil {
			return nil, outcomes, cerr
		}
		if dup {
			out.Reason = models.OutcomeSuppressedDuplicate
			outcomes = append(outcomes, out)
			res.Stats.SuppressedDuplicate++
			g.deps.Metrics.RecordSuppressed(string(out.Reason))
			g.deps.Logger.Info("signal suppressed",
				logger.String("run_id", res.RunID),
				logger.String("symbol", c.Symbol),
				logger.String("direction", string(c.Direction)),
				logger.String("reason", domrepo.ErrDuplicateSignal.Error()),
				logger.String("mode", string(res.Mode)))
			continue
		}

		if len(signals) >= g.cfg.MaxSignals {
			out.Reason = models.OutcomeTruncated
			outcomes = append(outcomes, out)
			g.deps.Metrics.RecordSuppressed(string(out.Reason))
			continue
		}

		out.Reason = models.OutcomeEmitted
		outcomes = append(outcomes, out)
		signals = append(signals, BuildSignal(c, g.deps.Technical.DominantFactor(c.Reading), now))
		g.deps.Logger.Debug("signal accepted",
			logger.String("run_id", res.RunID),
			logger.String("symbol", c.Symbol),
			logger.String("category", string(c.Category)),
			logger.Float("combined_score", c.CombinedScore),
			logger.Float("confidence", c.Confidence))
	}
	return signals, outcomes, nil
}

// claim reports whether the candidate is a duplicate. A nil error and false
// means the record was written and the candidate may be emitted.
func (g *Generator) claim(ctx context.Context, c *models.SignalCandidate, now time.Time) (bool, error) {
	active, err := g.deps.History.HasActiveSignal(ctx, c.Symbol, c.Direction)
	if err != nil {
		return false, storeErr("lookup", err)
	}
	if active {
		return true, nil
	}
	if err := g.deps.History.RecordSignal(ctx, newRecord(c, now, g.cfg.ExpiryWindow)); err != nil {
		if errors.Is(err, domrepo.ErrDuplicateSignal) {
			return true, nil
		}
		return false, storeErr("record", err)
	}
	return false, nil
}

func newRecord(c *models.SignalCandidate, now time.Time, window time.Duration) *models.SignalRecord {
	rec := &models.SignalRecord{
		Symbol:          c.Symbol,
		Direction:       c.Direction,
		ConfidenceScore: c.Confidence,
		SentimentScore:  c.NewsScore,
		TechnicalScore:  c.TechnicalScore,
		CreatedAt:       now,
		ExpiresAt:       now.Add(window),
		Metadata: map[string]interface{}{
			"category":       string(c.Category),
			"combined_score": c.CombinedScore,
			"social_boost":   c.SocialBoost,
		},
	}
	if c.Reading != nil {
		rec.PriceAtSignal = c.Reading.Price
	}
	if lead := c.LeadArticle(); lead != nil {
		rec.SourceArticleID = lead.ID
		rec.NewsTitle = lead.Title
	}
	return rec
}

// finish writes the audit trail and publishes the run. Failures here are
// logged; the history records are already written.
func (g *Generator) finish(ctx context.Context, res *models.RunResult, outcomes []models.Outcome) {
	ctx, done := g.stage(ctx, "publish")
	defer done(nil)

	if g.deps.Audit != nil && len(outcomes) > 0 {
		if err := g.deps.Audit.RecordOutcomes(ctx, res, outcomes); err != nil {
			g.deps.Logger.Warn("audit log write failed", logger.String("run_id", res.RunID), logger.Error(err))
		}
	}
	for _, p := range g.deps.Publishers {
		if err := p.PublishRun(ctx, res); err != nil {
			g.deps.Metrics.RecordProviderError("publisher")
			g.deps.Logger.Warn("publish run failed", logger.String("run_id", res.RunID), logger.Error(err))
		}
	}
}

// stage opens a span and returns a func that records its latency.
func (g *Generator) stage(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := g.deps.Tracer.Start(ctx, "signalforge."+name)
	start := time.Now()
	return ctx, func(err error) {
		g.deps.Metrics.RecordLatency(name, time.Since(start).Seconds())
		tracing.End(span, err)
	}
}

func (g *Generator) providerFailure(res *models.RunResult, name string, err error) {
	if err == nil {
		return
	}
	res.ProviderErrors[name] = err.Error()
	provider := name
	var pe *domrepo.ProviderError
	if errors.As(err, &pe) {
		provider = pe.Provider
	}
	g.deps.Metrics.RecordProviderError(provider)
	g.deps.Logger.Warn("provider unavailable",
		logger.String("run_id", res.RunID),
		logger.String("provider", name),
		logger.Error(err))
}

func missingSymbols(news map[string]NewsScore, readings map[string]*models.TechnicalReading) []string {
	var out []string
	for sym := range news {
		if _, ok := readings[sym]; !ok {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

func storeErr(op string, err error) error {
	if errors.Is(err, domrepo.ErrStoreUnavailable) {
		return err
	}
	return domrepo.NewStoreError(op, err)
}

type nopMetrics struct{}

func (nopMetrics) RecordRun(string, string) {}
func (nopMetrics) RecordSignal(string) {}
func (nopMetrics) RecordSuppressed(string) {}
func (nopMetrics) RecordProviderError(string) {}
func (nopMetrics) RecordLatency(string, float64) {}
func (nopMetrics) RecordLastRun(time.Time) {}
