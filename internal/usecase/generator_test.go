package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRunExample1TradeAlert(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = []string{"AAPL"}
	h.market.readings["AAPL"] = reading("AAPL", 190)
	h.tech["AAPL"] = 0.4
	h.news.articles = []models.Article{article("$AAPL beats earnings", time.Hour)}
	h.scorer.byTitle["$AAPL beats earnings"] = [2]float64{0.8, 0.9}

	res, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Mode != models.ModeFull || len(res.Signals) != 1 {
		t.Fatalf("expected one full-mode signal, got mode=%s signals=%d", res.Mode, len(res.Signals))
	}
	s := res.Signals[0]
	if !near(s.CombinedScore, 0.68) || s.Category != models.CategoryTradeAlert || s.Direction != models.DirectionBullish {
		t.Fatalf("unexpected signal %+v", s)
	}
	if s.Title != "AAPL: $AAPL beats earnings" {
		t.Fatalf("title: %q", s.Title)
	}
	if len(s.Articles) != 1 {
		t.Fatalf("expected supporting article")
	}
	if active, _ := h.history.HasActiveSignal(context.Background(), "AAPL", models.DirectionBullish); !active {
		t.Fatalf("emitted signal was not recorded")
	}
	rec := h.history.recs[key("AAPL", models.DirectionBullish)]
	if !rec.ExpiresAt.Equal(testNow.Add(7*24*time.Hour)) || rec.SourceArticleID == "" || rec.PriceAtSignal != 190 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(h.publisher.runs) != 1 || len(h.audit.outcomes) != 1 || h.audit.outcomes[0].Reason != models.OutcomeEmitted {
		t.Fatalf("expected publish and audit, got %d runs %+v", len(h.publisher.runs), h.audit.outcomes)
	}
}

func TestRunExample2DedupKeyIsSymbolAndDirection(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = []string{"AAPL"}
	h.market.readings["AAPL"] = reading("AAPL", 190)
	h.history.recs[key("AAPL", models.DirectionBullish)] = models.SignalRecord{
		Symbol: "AAPL", Direction: models.DirectionBullish,
		CreatedAt: testNow.Add(-24 * time.Hour), ExpiresAt: testNow.Add(6 * 24 * time.Hour),
	}

	h.tech["AAPL"] = 0.4
	h.news.articles = []models.Article{article("$AAPL beats earnings", time.Hour)}
	h.scorer.byTitle["$AAPL beats earnings"] = [2]float64{0.8, 0.9}
	res, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Signals) != 0 || res.Stats.SuppressedDuplicate != 1 {
		t.Fatalf("bullish repeat should be suppressed, got %+v", res.Stats)
	}

	h.tech["AAPL"] = -0.4
	h.news.articles = []models.Article{article("$AAPL misses earnings badly", time.Hour)}
	h.scorer.byTitle["$AAPL misses earnings badly"] = [2]float64{-0.8, 0.9}
	res, err = h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Signals) != 1 || res.Signals[0].Direction != models.DirectionBearish {
		t.Fatalf("bearish signal should not be suppressed: %+v", res.Signals)
	}
	if res.Signals[0].Title != "AAPL Alert: $AAPL misses earnings badly" {
		t.Fatalf("bearish title: %q", res.Signals[0].Title)
	}
}

func TestRunExample3TechnicalFallthrough(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = []string{"MSFT"}
	h.market.readings["MSFT"] = reading("MSFT", 410)
	h.tech["MSFT"] = 0.5
	h.news.articles = []models.Article{article("$MSFT holds steady", time.Hour)}
	h.scorer.byTitle["$MSFT holds steady"] = [2]float64{0.1, 0.9}

	res, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Signals) != 1 {
		t.Fatalf("expected technical fallthrough signal, got %+v", res.Signals)
	}
	s := res.Signals[0]
	// 0.5 * 0.7 reduced weight
	if !near(s.CombinedScore, 0.35) || s.Category != models.CategoryMarketContext || len(s.Articles) != 0 {
		t.Fatalf("unexpected signal %+v", s)
	}
	if s.Metadata["news_sentiment"].(float64) != 0 {
		t.Fatalf("weak news must not contribute")
	}

	h2 := newHarness()
	h2.cfg.Watchlist = []string{"MSFT"}
	h2.market.readings["MSFT"] = reading("MSFT", 410)
	h2.tech["MSFT"] = 0.4
	res, _ = h2.generator().Run(context.Background())
	if len(res.Signals) != 0 {
		t.Fatalf("0.4 technical score at reduced weight must fail the final threshold")
	}
}

func TestRunSocialBoostAttachesHype(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = []string{"TSLA"}
	h.market.readings["TSLA"] = reading("TSLA", 180)
	h.tech["TSLA"] = 0.55
	h.news.articles = []models.Article{article("$TSLA deliveries rise", time.Hour)}
	h.scorer.byTitle["$TSLA deliveries rise"] = [2]float64{0.55, 0.9}
	h.social.trending = []models.SocialMention{{Symbol: "TSLA", Mentions: 600, Mentions24hAgo: 273, MomentumPct: 120}}

	res, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Signals) != 1 {
		t.Fatalf("expected signal")
	}
	s := res.Signals[0]
	if !near(s.Confidence, 0.65) || s.Category != models.CategoryTradeAlert || s.HypeLevel != models.HypeExtreme {
		t.Fatalf("unexpected boosted signal %+v", s)
	}
}

func TestRunNoRepeatWithinWindow(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = []string{"NVDA", "AMD"}
	h.market.readings["NVDA"] = reading("NVDA", 900)
	h.market.readings["AMD"] = reading("AMD", 160)
	h.tech["NVDA"] = 0.7
	h.tech["AMD"] = -0.6

	first, err := h.generator().Run(context.Background())
	if err != nil || len(first.Signals) != 2 {
		t.Fatalf("first run: %v %+v", err, first)
	}
	second, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.Signals) != 0 || second.Stats.SuppressedDuplicate != 2 {
		t.Fatalf("repeat emitted: %+v", second.Stats)
	}
}

func TestRunExpiryReleasesSuppression(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = []string{"NVDA"}
	h.market.readings["NVDA"] = reading("NVDA", 900)
	h.tech["NVDA"] = 0.7
	h.history.recs[key("NVDA", models.DirectionBullish)] = models.SignalRecord{
		Symbol: "NVDA", Direction: models.DirectionBullish,
		CreatedAt: testNow.Add(-8 * 24 * time.Hour), ExpiresAt: testNow.Add(-24 * time.Hour),
	}

	res, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Signals) != 1 {
		t.Fatalf("expired record must not suppress, got %+v", res.Stats)
	}
	if rec := h.history.recs[key("NVDA", models.DirectionBullish)]; !rec.ExpiresAt.After(testNow) {
		t.Fatalf("expired record was not replaced")
	}
}

func TestRunLostClaimCountsAsDuplicate(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = []string{"NVDA"}
	h.market.readings["NVDA"] = reading("NVDA", 900)
	h.tech["NVDA"] = 0.7
	h.history.lostRace = true

	res, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Signals) != 0 || res.Stats.SuppressedDuplicate != 1 {
		t.Fatalf("lost claim must suppress: %+v", res.Stats)
	}
}

func TestRunRecordsTruncatedCandidates(t *testing.T) {
	h := newHarness()
	h.cfg.MaxSignals = 2
	syms := map[string]float64{"AAPL": 0.9, "MSFT": 0.8, "NVDA": -0.85, "AMD": 0.6, "META": 0.5}
	for s, v := range syms {
		h.cfg.Watchlist = append(h.cfg.Watchlist, s)
		h.market.readings[s] = reading(s, 100)
		h.tech[s] = v
	}

	res, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Signals) != 2 || res.Signals[0].Symbol != "AAPL" || res.Signals[1].Symbol != "NVDA" {
		t.Fatalf("expected AAPL then NVDA, got %+v", res.Signals)
	}
	if len(h.history.recs) != 5 {
		t.Fatalf("every accepted candidate must be recorded, got %d", len(h.history.recs))
	}
	truncated := 0
	for _, o := range h.audit.outcomes {
		if o.Reason == models.OutcomeTruncated {
			truncated++
		}
	}
	if truncated != 3 {
		t.Fatalf("expected 3 truncated outcomes, got %d", truncated)
	}

	// truncated candidates already count as shown
	res, err = h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(res.Signals) != 0 || res.Stats.SuppressedDuplicate != 5 {
		t.Fatalf("second run must suppress all five, got %d signals %+v", len(res.Signals), res.Stats)
	}
}

func TestRunSentimentDownIsTechnicalOnly(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = []string{"AAPL"}
	h.market.readings["AAPL"] = reading("AAPL", 190)
	h.tech["AAPL"] = 0.45
	h.news.articles = []models.Article{article("$AAPL beats earnings", time.Hour)}
	h.scorer.err = domrepo.NewProviderError("sentiment", "load", errDown)

	res, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Mode != models.ModeTechnicalOnly {
		t.Fatalf("expected technical_only, got %s", res.Mode)
	}
	if _, ok := res.ProviderErrors["sentiment"]; !ok {
		t.Fatalf("sentiment failure not reported: %+v", res.ProviderErrors)
	}
	if len(res.Signals) != 1 {
		t.Fatalf("expected technical signal")
	}
	s := res.Signals[0]
	if s.Metadata["news_sentiment"].(float64) != 0 || len(s.Articles) != 0 || !near(s.CombinedScore, 0.45) {
		t.Fatalf("news leaked into technical-only signal: %+v", s)
	}
	// 0.45 sits in the shifted watch_list band (0.35-0.5).
	if s.Category != models.CategoryWatchList {
		t.Fatalf("category: %s", s.Category)
	}
}

func TestRunNewsDownIsTechnicalOnly(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = []string{"AAPL"}
	h.market.readings["AAPL"] = reading("AAPL", 190)
	h.tech["AAPL"] = 0.7
	h.news.err = domrepo.NewProviderError("news", "fetch", errDown)

	res, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Mode != models.ModeTechnicalOnly || len(res.Signals) != 1 || res.Signals[0].Category != models.CategoryTradeAlert {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunFallbackEmitsTaggedPlaceholders(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = []string{"AAPL", "MSFT", "NVDA", "AMD"}
	h.market.err = errDown
	h.news.err = errDown
	h.social.err = errDown

	res, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Mode != models.ModeFallback || !res.Placeholder || len(res.Signals) != 3 {
		t.Fatalf("unexpected fallback result: mode=%s placeholder=%v n=%d", res.Mode, res.Placeholder, len(res.Signals))
	}
	for _, s := range res.Signals {
		if !s.Placeholder || s.Category != models.CategoryMarketContext {
			t.Fatalf("placeholder not tagged: %+v", s)
		}
	}
	if len(h.history.recs) != 0 {
		t.Fatalf("placeholders must not be recorded")
	}
	if len(h.publisher.runs) != 1 {
		t.Fatalf("fallback run should still be published")
	}
}

func TestRunStoreUnavailableAborts(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = []string{"AAPL"}
	h.market.readings["AAPL"] = reading("AAPL", 190)
	h.tech["AAPL"] = 0.7
	h.history.healthErr = errDown

	if _, err := h.generator().Run(context.Background()); !errors.Is(err, domrepo.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}

	h.history.healthErr = nil
	h.history.recordErr = errDown
	res, err := h.generator().Run(context.Background())
	if !errors.Is(err, domrepo.ErrStoreUnavailable) || res != nil {
		t.Fatalf("record failure must abort, got %v %v", res, err)
	}
	if len(h.publisher.runs) != 0 {
		t.Fatalf("aborted run must not publish")
	}
}

func TestRunFetchesReadingsForNewsSymbols(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = []string{"AAPL"}
	h.market.readings["AAPL"] = reading("AAPL", 190)
	h.market.readings["PLTR"] = reading("PLTR", 25)
	h.tech["PLTR"] = 0.2
	h.news.articles = []models.Article{article("$PLTR wins army contract", 2*time.Hour)}
	h.scorer.byTitle["$PLTR wins army contract"] = [2]float64{0.9, 0.95}

	res, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(h.market.calls) != 2 || len(h.market.calls[1]) != 1 || h.market.calls[1][0] != "PLTR" {
		t.Fatalf("expected a second readings call for PLTR, got %v", h.market.calls)
	}
	if len(res.Signals) != 1 || res.Signals[0].Symbol != "PLTR" {
		t.Fatalf("expected PLTR signal, got %+v", res.Signals)
	}
}

func TestRunLowConfidenceSentimentIgnored(t *testing.T) {
	h := newHarness()
	h.cfg.Watchlist = nil
	h.market.readings["COIN"] = reading("COIN", 200)
	h.news.articles = []models.Article{article("$COIN surges", time.Hour)}
	h.scorer.byTitle["$COIN surges"] = [2]float64{0.9, 0.4}

	res, err := h.generator().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Stats.ArticlesQualifying != 0 || len(res.Signals) != 0 {
		t.Fatalf("low-confidence article must be excluded: %+v", res.Stats)
	}
}
